package audit

import (
	"github.com/kliring/reinsadmin/internal/audit/repository"
	"github.com/kliring/reinsadmin/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
