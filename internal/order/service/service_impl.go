package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/apexgas/commerce/internal/catalog"
	"github.com/apexgas/commerce/internal/intake"
	"github.com/apexgas/commerce/internal/observability/metrics"
	"github.com/apexgas/commerce/internal/order/domain"
	purchasedomain "github.com/apexgas/commerce/internal/purchase/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log       *zap.Logger
	Catalog   *catalog.Holder
	Purchases purchasedomain.Service
	Metrics   *metrics.Metrics `optional:"true"`
}

type Service struct {
	log       *zap.Logger
	catalog   *catalog.Holder
	purchases purchasedomain.Service
	metrics   *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		log:       p.Log.Named("order.service"),
		catalog:   p.Catalog,
		purchases: p.Purchases,
		metrics:   p.Metrics,
	}
}

func (s *Service) BuildIntent(ctx context.Context, req domain.BuildIntentRequest) (domain.Intent, error) {
	_ = ctx

	tier, err := s.catalog.Resolve(req.TierCode)
	if err != nil {
		return domain.Intent{}, err
	}
	if req.PriceCents <= 0 {
		return domain.Intent{}, fmt.Errorf("%w: %d", domain.ErrInvalidPrice, req.PriceCents)
	}
	if err := intake.Verify(req.Buyer); err != nil {
		return domain.Intent{}, err
	}

	correlation, err := domain.EncodeCorrelation(req.Buyer)
	if err != nil {
		return domain.Intent{}, err
	}

	value := domain.CentsToValue(req.PriceCents)
	intent := domain.Intent{
		TierCode:    tier.Code,
		AmountCents: req.PriceCents,
		Currency:    tier.Currency,
		Buyer:       req.Buyer,
	}

	if tier.Recurring() {
		intent.Subscription = &domain.SubscriptionPayload{
			PlanName: tier.Description,
			BillingCycles: []domain.BillingCycle{
				{
					Frequency: domain.Frequency{
						IntervalUnit:  "YEAR",
						IntervalCount: 1,
					},
					TenureType:  "REGULAR",
					Sequence:    1,
					TotalCycles: 0,
					PricingScheme: domain.PricingScheme{
						FixedPrice: domain.Money{
							CurrencyCode: tier.Currency,
							Value:        value,
						},
					},
				},
			},
			PaymentPreferences: domain.PaymentPreferences{
				AutoBillOutstanding: true,
				SetupFee: domain.Money{
					CurrencyCode: tier.Currency,
					Value:        "0",
				},
				SetupFeeFailureAction:   "CANCEL",
				PaymentFailureThreshold: 3,
			},
			CustomID: correlation,
		}
	} else {
		intent.Order = &domain.OrderPayload{
			Intent: "CAPTURE",
			PurchaseUnits: []domain.PurchaseUnit{
				{
					Description: tier.Description,
					Amount: domain.Money{
						CurrencyCode: tier.Currency,
						Value:        value,
					},
					CustomID: correlation,
				},
			},
		}
	}

	return intent, nil
}

func (s *Service) HandleApproval(ctx context.Context, details domain.ApprovalDetails) (domain.CaptureResult, error) {
	if err := validateApproval(details); err != nil {
		return domain.CaptureResult{}, err
	}

	buyer, err := domain.DecodeCorrelation(details.Correlation)
	if err != nil {
		s.log.Error("approval correlation unusable",
			zap.String("kind", string(details.Kind)),
			zap.String("order_id", details.OrderID),
			zap.String("subscription_id", details.SubscriptionID),
			zap.Error(err),
		)
		return domain.CaptureResult{}, err
	}

	// Subscription approvals often arrive without an amount; the plan
	// price lives with the provider. Only the one-time flow must carry
	// the captured amount.
	var amountCents int64
	if details.Kind == domain.ApprovalOneTime || strings.TrimSpace(details.AmountValue) != "" {
		amountCents, err = domain.ValueToCents(details.AmountValue)
		if err != nil {
			return domain.CaptureResult{}, err
		}
	}

	req := purchasedomain.CreateRecordRequest{
		Email:        strings.TrimSpace(details.PayerEmail),
		AmountCents:  amountCents,
		Currency:     details.CurrencyCode,
		Status:       details.Status,
		BusinessInfo: buyer,
	}
	switch details.Kind {
	case domain.ApprovalOneTime:
		req.Type = purchasedomain.RecordTypeOneTime
		req.OrderID = details.OrderID
	case domain.ApprovalSubscription:
		req.Type = purchasedomain.RecordTypeSubscription
		req.SubscriptionID = details.SubscriptionID
		req.PlanID = details.PlanID
		req.StartTime = details.StartTime
	}

	result := domain.CaptureResult{Message: confirmationMessage(details.Kind, buyer)}

	record, err := s.purchases.Record(ctx, req)
	if err != nil {
		// The provider already took the money. Surface success to the
		// buyer and leave a loud trail for follow-up.
		s.log.Error("purchase write failed after capture",
			zap.String("kind", string(details.Kind)),
			zap.String("order_id", details.OrderID),
			zap.String("subscription_id", details.SubscriptionID),
			zap.Error(err),
		)
		return result, nil
	}

	if s.metrics != nil {
		s.metrics.PurchasesRecorded.WithLabelValues(string(req.Type)).Inc()
	}

	result.PurchaseID = record.ID.String()
	result.Recorded = true
	return result, nil
}

func validateApproval(details domain.ApprovalDetails) error {
	switch details.Kind {
	case domain.ApprovalOneTime:
		if strings.TrimSpace(details.OrderID) == "" {
			return fmt.Errorf("%w: missing order id", domain.ErrInvalidApproval)
		}
	case domain.ApprovalSubscription:
		if strings.TrimSpace(details.SubscriptionID) == "" {
			return fmt.Errorf("%w: missing subscription id", domain.ErrInvalidApproval)
		}
	default:
		return fmt.Errorf("%w: kind %q", domain.ErrUnsupportedDetail, details.Kind)
	}
	if strings.TrimSpace(details.PayerEmail) == "" {
		return fmt.Errorf("%w: missing payer email", domain.ErrInvalidApproval)
	}
	if strings.TrimSpace(details.Status) == "" {
		return fmt.Errorf("%w: missing status", domain.ErrInvalidApproval)
	}
	return nil
}

func confirmationMessage(kind domain.ApprovalKind, buyer intake.BusinessInfo) string {
	if kind == domain.ApprovalSubscription {
		return fmt.Sprintf(
			"Subscription activated. Our team will contact %s at %s to schedule the first delivery.",
			buyer.ContactName, buyer.PhoneNumber,
		)
	}
	return fmt.Sprintf(
		"Transaction completed. Our team will contact %s at %s to coordinate delivery.",
		buyer.ContactName, buyer.PhoneNumber,
	)
}
