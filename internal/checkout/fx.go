package checkout

import (
	"github.com/apexgas/commerce/internal/checkout/repository"
	"github.com/apexgas/commerce/internal/checkout/service"
	"github.com/apexgas/commerce/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("checkout.service",
	fx.Provide(repository.Provide),
	fx.Provide(func(cfg config.Config) service.SessionClient {
		return service.NewStripeSessionClient(cfg.Stripe.SecretKey)
	}),
	fx.Provide(service.New),
)
