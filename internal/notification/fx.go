package notification

import (
	"context"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/apexgas/commerce/internal/config"
	purchasedomain "github.com/apexgas/commerce/internal/purchase/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("notification.service",
	fx.Provide(provideChannels),
	fx.Provide(New),
	fx.Invoke(func(svc *Service, purchases purchasedomain.Service) {
		purchases.Subscribe(svc)
	}),
)

func provideChannels(cfg config.Config, log *zap.Logger) (Channels, error) {
	if !cfg.Notify.Enabled {
		return Channels{
			Email: NewNoOpChannel("email", log),
			SMS:   NewNoOpChannel("sms", log),
		}, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.Notify.AWSRegion),
	)
	if err != nil {
		return Channels{}, err
	}

	return Channels{
		Email: NewEmailChannel(ses.NewFromConfig(awsCfg), cfg.Notify.EmailFrom),
		SMS:   NewSMSChannel(sns.NewFromConfig(awsCfg)),
	}, nil
}
