package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/kliring/reinsadmin/internal/audit"
	"github.com/kliring/reinsadmin/internal/clock"
	"github.com/kliring/reinsadmin/internal/config"
	"github.com/kliring/reinsadmin/internal/entity"
	"github.com/kliring/reinsadmin/internal/notify"
	"github.com/kliring/reinsadmin/internal/observability/metrics"
	"github.com/kliring/reinsadmin/internal/portal"
	"github.com/kliring/reinsadmin/internal/providers/email"
	"github.com/kliring/reinsadmin/internal/reconcile"
	"github.com/kliring/reinsadmin/internal/seed"
	"github.com/kliring/reinsadmin/internal/server"
	"github.com/kliring/reinsadmin/internal/workflow"
	"github.com/kliring/reinsadmin/pkg/db"
	"github.com/kliring/reinsadmin/pkg/log"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		log.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		metrics.Module,

		entity.Module,
		audit.Module,
		email.Module,
		notify.Module,
		workflow.Module,
		reconcile.Module,
		portal.Module,

		seed.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
