package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/openwater/returns/internal/clock"
	"github.com/openwater/returns/internal/config"
	"github.com/openwater/returns/internal/licence"
	"github.com/openwater/returns/internal/logger"
	"github.com/openwater/returns/internal/migration"
	"github.com/openwater/returns/internal/reconciliation"
	"github.com/openwater/returns/internal/returncycle"
	"github.com/openwater/returns/internal/returnlog"
	"github.com/openwater/returns/internal/returnrequirement"
	"github.com/openwater/returns/internal/server"
	"github.com/openwater/returns/internal/submission"
	"github.com/openwater/returns/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		clock.Module,

		licence.Module,
		returncycle.Module,
		returnrequirement.Module,
		returnlog.Module,
		reconciliation.Module,
		submission.Module,

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
