package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/hubspaces/billing/internal/clock"
	"github.com/hubspaces/billing/internal/config"
	"github.com/hubspaces/billing/internal/migration"
	"github.com/hubspaces/billing/internal/observability"
	"github.com/hubspaces/billing/internal/scheduler"
	"github.com/hubspaces/billing/internal/server"
	"github.com/hubspaces/billing/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		server.Module,
		scheduler.Module,
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
