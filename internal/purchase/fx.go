package purchase

import (
	"github.com/apexgas/commerce/internal/purchase/repository"
	"github.com/apexgas/commerce/internal/purchase/service"
	"go.uber.org/fx"
)

var Module = fx.Module("purchase.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
