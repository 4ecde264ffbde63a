package notify

import (
	"github.com/kliring/reinsadmin/internal/notify/service"
	"go.uber.org/fx"
)

var Module = fx.Module("notify.service",
	fx.Provide(service.NewService),
)
