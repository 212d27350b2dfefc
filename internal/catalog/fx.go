package catalog

import (
	"github.com/apexgas/commerce/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("catalog",
	fx.Provide(func(cfg config.Config, log *zap.Logger) (*Holder, error) {
		return NewHolder(cfg.CatalogFile, log.Named("catalog"))
	}),
)
