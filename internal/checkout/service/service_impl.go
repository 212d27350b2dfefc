package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/apexgas/commerce/internal/catalog"
	"github.com/apexgas/commerce/internal/checkout/domain"
	"github.com/apexgas/commerce/internal/clock"
	"github.com/apexgas/commerce/internal/config"
	"github.com/apexgas/commerce/internal/intake"
	"github.com/apexgas/commerce/internal/observability/metrics"
	purchasedomain "github.com/apexgas/commerce/internal/purchase/domain"
	"github.com/bwmarrin/snowflake"
	stripe "github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/webhook"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Cfg       config.Config
	Catalog   *catalog.Holder
	Purchases purchasedomain.Service
	Sessions  SessionClient
	Repo      domain.Repository
	Metrics   *metrics.Metrics `optional:"true"`
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	cfg       config.StripeConfig
	catalog   *catalog.Holder
	purchases purchasedomain.Service
	sessions  SessionClient
	repo      domain.Repository
	metrics   *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("checkout.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		cfg:       p.Cfg.Stripe,
		catalog:   p.Catalog,
		purchases: p.Purchases,
		sessions:  p.Sessions,
		repo:      p.Repo,
		metrics:   p.Metrics,
	}
}

func (s *Service) CreateSession(ctx context.Context, req domain.CreateSessionRequest) (domain.Session, error) {
	_ = ctx

	tier, err := s.catalog.Resolve(req.TierCode)
	if err != nil {
		return domain.Session{}, err
	}
	if err := intake.Verify(req.Buyer); err != nil {
		return domain.Session{}, err
	}

	mode := stripe.CheckoutSessionModePayment
	if tier.Recurring() {
		mode = stripe.CheckoutSessionModeSubscription
	}

	successURL := req.SuccessURL
	if successURL == "" {
		successURL = s.cfg.SuccessURL
	}
	cancelURL := req.CancelURL
	if cancelURL == "" {
		cancelURL = s.cfg.CancelURL
	}

	params := &stripe.CheckoutSessionParams{
		Mode:          stripe.String(string(mode)),
		SuccessURL:    stripe.String(successURL),
		CancelURL:     stripe.String(cancelURL),
		CustomerEmail: stripe.String(req.Buyer.BusinessEmail),
		LineItems:     []*stripe.CheckoutSessionLineItemParams{lineItem(tier)},
	}
	for key, value := range sessionMetadata(req.Buyer, req.DeliveryAddress) {
		params.AddMetadata(key, value)
	}

	sess, err := s.sessions.NewSession(params)
	if err != nil {
		return domain.Session{}, err
	}

	if s.metrics != nil {
		s.metrics.CheckoutSessions.WithLabelValues(tier.Code).Inc()
	}
	s.log.Info("checkout session created",
		zap.String("session_id", sess.ID),
		zap.String("tier", tier.Code),
	)

	return domain.Session{ID: sess.ID, URL: sess.URL}, nil
}

func lineItem(tier catalog.Tier) *stripe.CheckoutSessionLineItemParams {
	item := &stripe.CheckoutSessionLineItemParams{
		Quantity: stripe.Int64(1),
	}
	if tier.StripePriceID != "" {
		item.Price = stripe.String(tier.StripePriceID)
		return item
	}

	priceData := &stripe.CheckoutSessionLineItemPriceDataParams{
		Currency:   stripe.String(strings.ToLower(tier.Currency)),
		UnitAmount: stripe.Int64(tier.AmountCents),
		ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(tier.Description),
		},
	}
	if tier.Recurring() {
		priceData.Recurring = &stripe.CheckoutSessionLineItemPriceDataRecurringParams{
			Interval: stripe.String(tier.BillingInterval),
		}
	}
	item.PriceData = priceData
	return item
}

func sessionMetadata(buyer intake.BusinessInfo, address *intake.DeliveryAddress) map[string]string {
	meta := map[string]string{
		"companyName":         buyer.CompanyName,
		"contactName":         buyer.ContactName,
		"phoneNumber":         buyer.PhoneNumber,
		"businessEmail":       buyer.BusinessEmail,
		"facilityType":        buyer.FacilityType,
		"hasSpecialEquipment": strconv.FormatBool(buyer.HasSpecialEquipment),
	}
	if address != nil {
		meta["deliveryLine1"] = address.Line1
		meta["deliveryLine2"] = address.Line2
		meta["deliveryCity"] = address.City
		meta["deliveryState"] = address.State
		meta["deliveryPostalCode"] = address.PostalCode
		meta["deliveryCountry"] = address.Country
	}
	return meta
}

func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.cfg.WebhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidSignature, err)
	}

	now := s.clock.Now().UTC()
	inserted, err := s.repo.InsertEvent(ctx, s.db, &domain.EventRecord{
		ID:              s.genID.Generate(),
		ProviderEventID: event.ID,
		EventType:       string(event.Type),
		Payload:         payload,
		ReceivedAt:      now,
	})
	if err != nil {
		return err
	}
	if !inserted {
		stored, err := s.repo.FindEvent(ctx, s.db, event.ID)
		if err != nil {
			return err
		}
		if stored != nil && stored.ProcessedAt != nil {
			if s.metrics != nil {
				s.metrics.WebhookEvents.WithLabelValues(string(event.Type), "duplicate").Inc()
			}
			return domain.ErrEventAlreadyProcessed
		}
	}

	result, err := s.processEvent(ctx, event)
	if err != nil {
		return err
	}

	if markErr := s.repo.MarkProcessed(ctx, s.db, event.ID, result, s.clock.Now().UTC()); markErr != nil {
		s.log.Error("webhook event mark failed",
			zap.String("event_id", event.ID),
			zap.Error(markErr),
		)
	}
	if s.metrics != nil {
		s.metrics.WebhookEvents.WithLabelValues(string(event.Type), result).Inc()
	}
	return nil
}

func (s *Service) processEvent(ctx context.Context, event stripe.Event) (string, error) {
	switch event.Type {
	case "checkout.session.completed":
		if err := s.handleSessionCompleted(ctx, event); err != nil {
			return "", err
		}
		return domain.ResultProcessed, nil
	case "customer.subscription.created", "customer.subscription.updated":
		if err := s.handleSubscriptionChanged(ctx, event); err != nil {
			return "", err
		}
		return domain.ResultProcessed, nil
	case "customer.subscription.deleted":
		if err := s.handleSubscriptionDeleted(ctx, event); err != nil {
			return "", err
		}
		return domain.ResultProcessed, nil
	default:
		s.log.Debug("webhook event ignored", zap.String("event_type", string(event.Type)))
		return domain.ResultIgnored, nil
	}
}

func (s *Service) handleSessionCompleted(ctx context.Context, event stripe.Event) error {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}

	buyer, err := buyerFromMetadata(sess.Metadata)
	if err != nil {
		s.log.Error("checkout session missing buyer info",
			zap.String("session_id", sess.ID),
			zap.Error(err),
		)
		return err
	}

	email := strings.TrimSpace(sess.CustomerEmail)
	if email == "" && sess.CustomerDetails != nil {
		email = strings.TrimSpace(sess.CustomerDetails.Email)
	}
	if email == "" {
		email = buyer.BusinessEmail
	}

	status := string(sess.PaymentStatus)
	if status == "" {
		status = "complete"
	}

	req := purchasedomain.CreateRecordRequest{
		Email:           email,
		AmountCents:     sess.AmountTotal,
		Currency:        strings.ToUpper(string(sess.Currency)),
		Status:          status,
		BusinessInfo:    buyer,
		DeliveryAddress: addressFromMetadata(sess.Metadata),
	}
	if sess.Mode == stripe.CheckoutSessionModeSubscription {
		req.Type = purchasedomain.RecordTypeSubscription
		if sess.Subscription != nil {
			req.SubscriptionID = sess.Subscription.ID
		}
	} else {
		req.Type = purchasedomain.RecordTypeOneTime
		if sess.PaymentIntent != nil {
			req.OrderID = sess.PaymentIntent.ID
		}
		if req.OrderID == "" {
			req.OrderID = sess.ID
		}
	}

	record, err := s.purchases.Record(ctx, req)
	if err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.PurchasesRecorded.WithLabelValues(string(req.Type)).Inc()
	}
	s.log.Info("checkout purchase recorded",
		zap.String("purchase_id", record.ID.String()),
		zap.String("session_id", sess.ID),
	)
	return nil
}

func (s *Service) handleSubscriptionChanged(ctx context.Context, event stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}

	change := purchasedomain.SubscriptionStateChange{
		ProviderSubscriptionID: sub.ID,
		Status:                 purchasedomain.SubscriptionStatus(sub.Status),
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		change.PriceID = sub.Items.Data[0].Price.ID
	}
	if sub.CurrentPeriodEnd > 0 {
		periodEnd := time.Unix(sub.CurrentPeriodEnd, 0).UTC()
		change.CurrentPeriodEnd = &periodEnd
	}

	return s.purchases.UpsertSubscriptionState(ctx, change)
}

func (s *Service) handleSubscriptionDeleted(ctx context.Context, event stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}

	at := s.clock.Now().UTC()
	switch {
	case sub.CanceledAt > 0:
		at = time.Unix(sub.CanceledAt, 0).UTC()
	case sub.EndedAt > 0:
		at = time.Unix(sub.EndedAt, 0).UTC()
	}

	return s.purchases.CancelSubscription(ctx, sub.ID, at)
}

func buyerFromMetadata(meta map[string]string) (intake.BusinessInfo, error) {
	if len(meta) == 0 {
		return intake.BusinessInfo{}, fmt.Errorf("%w: no metadata", domain.ErrBuyerInfoLost)
	}

	info := intake.BusinessInfo{
		CompanyName:         meta["companyName"],
		ContactName:         meta["contactName"],
		PhoneNumber:         meta["phoneNumber"],
		BusinessEmail:       meta["businessEmail"],
		FacilityType:        meta["facilityType"],
		HasSpecialEquipment: meta["hasSpecialEquipment"] == "true",
	}
	if err := intake.Verify(info); err != nil {
		return intake.BusinessInfo{}, fmt.Errorf("%w: %v", domain.ErrBuyerInfoLost, err)
	}
	return info, nil
}

func addressFromMetadata(meta map[string]string) *intake.DeliveryAddress {
	if strings.TrimSpace(meta["deliveryLine1"]) == "" {
		return nil
	}
	return &intake.DeliveryAddress{
		Line1:      meta["deliveryLine1"],
		Line2:      meta["deliveryLine2"],
		City:       meta["deliveryCity"],
		State:      meta["deliveryState"],
		PostalCode: meta["deliveryPostalCode"],
		Country:    meta["deliveryCountry"],
	}
}
