package notification

import (
	"context"
	"sync"

	"github.com/apexgas/commerce/internal/clock"
	"github.com/apexgas/commerce/internal/config"
	"github.com/apexgas/commerce/internal/observability/metrics"
	purchasedomain "github.com/apexgas/commerce/internal/purchase/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Cfg      config.Config
	Channels Channels
	Metrics  *metrics.Metrics `optional:"true"`
}

// Service fans purchase and inquiry events out to the admin and the
// buyer over every configured channel. Channel failures are isolated:
// one bounced email never blocks the SMS, and vice versa.
type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	cfg      config.NotifyConfig
	channels Channels
	metrics  *metrics.Metrics
}

func New(p Params) *Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("notification.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		cfg:      p.Cfg.Notify,
		channels: p.Channels,
		metrics:  p.Metrics,
	}
}

type outbound struct {
	channel Channel
	msg     Message
}

func (s *Service) OnPurchaseCreated(ctx context.Context, record purchasedomain.Record) {
	topic := "purchase:" + record.ID.String()
	if !s.claim(ctx, topic) {
		return
	}

	sends := []outbound{
		{s.channels.Email, adminPurchaseAlert(record, s.cfg.AdminEmail)},
		{s.channels.Email, customerPurchaseReceipt(record, record.BusinessInfo.BusinessEmail)},
		{s.channels.SMS, adminPurchaseSMS(record, s.cfg.AdminPhone)},
		{s.channels.SMS, customerPurchaseSMS(record, record.BusinessInfo.PhoneNumber)},
	}
	s.dispatch(ctx, topic, sends)
}

func (s *Service) OnFormSubmissionCreated(ctx context.Context, submission purchasedomain.FormSubmission) {
	topic := "form:" + submission.ID.String()
	if !s.claim(ctx, topic) {
		return
	}

	sends := []outbound{
		{s.channels.Email, adminInquiryAlert(submission, s.cfg.AdminEmail)},
		{s.channels.Email, customerInquiryAck(submission, submission.BusinessEmail)},
		{s.channels.SMS, adminInquirySMS(submission, s.cfg.AdminPhone)},
	}
	s.dispatch(ctx, topic, sends)
}

// claim reserves the topic so a replayed source event sends nothing.
func (s *Service) claim(ctx context.Context, topic string) bool {
	inserted, err := insertDelivery(ctx, s.db, &Delivery{
		ID:        s.genID.Generate(),
		Topic:     topic,
		CreatedAt: s.clock.Now().UTC(),
	})
	if err != nil {
		s.log.Error("delivery marker write failed", zap.String("topic", topic), zap.Error(err))
		return false
	}
	if !inserted {
		s.log.Debug("notification already delivered", zap.String("topic", topic))
	}
	return inserted
}

func (s *Service) dispatch(ctx context.Context, topic string, sends []outbound) {
	var wg sync.WaitGroup
	for _, send := range sends {
		if send.msg.To == "" {
			continue
		}
		wg.Add(1)
		go func(send outbound) {
			defer wg.Done()
			err := send.channel.Send(ctx, send.msg)
			status := "ok"
			if err != nil {
				status = "error"
				s.log.Error("notification send failed",
					zap.String("topic", topic),
					zap.String("channel", send.channel.Name()),
					zap.String("to", send.msg.To),
					zap.Error(err),
				)
			}
			if s.metrics != nil {
				s.metrics.NotificationsSent.WithLabelValues(send.channel.Name(), status).Inc()
			}
		}(send)
	}
	wg.Wait()
}

var _ purchasedomain.Subscriber = (*Service)(nil)
