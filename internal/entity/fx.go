package entity

import (
	"github.com/kliring/reinsadmin/internal/entity/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("entity.store",
	fx.Provide(repository.Provide),
)
