package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/apexgas/commerce/internal/clock"
	"github.com/apexgas/commerce/internal/config"
	"github.com/apexgas/commerce/internal/migration"
	"github.com/apexgas/commerce/internal/observability"
	"github.com/apexgas/commerce/internal/server"
	"github.com/apexgas/commerce/pkg/db"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(newSnowflakeNode),
		db.Module,
		clock.Module,

		migration.Module,
		server.Module,
	)
	app.Run()
}

func newSnowflakeNode() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}
