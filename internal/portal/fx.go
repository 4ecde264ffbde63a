package portal

import (
	"github.com/kliring/reinsadmin/internal/portal/service"
	"go.uber.org/fx"
)

var Module = fx.Module("portal.service",
	fx.Provide(service.NewService),
)
