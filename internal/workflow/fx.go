package workflow

import (
	"github.com/kliring/reinsadmin/internal/workflow/gate"
	"github.com/kliring/reinsadmin/internal/workflow/service"
	"go.uber.org/fx"
)

var Module = fx.Module("workflow.service",
	fx.Provide(gate.New),
	fx.Provide(service.NewService),
)
