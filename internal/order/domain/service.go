package domain

import (
	"context"

	"github.com/apexgas/commerce/internal/intake"
)

type BuildIntentRequest struct {
	TierCode        string
	PriceCents      int64
	Buyer           intake.BusinessInfo
	DeliveryAddress *intake.DeliveryAddress
}

type Service interface {
	// BuildIntent assembles the provider payload for the chosen tier.
	BuildIntent(ctx context.Context, req BuildIntentRequest) (Intent, error)

	// HandleApproval turns a provider approval callback into a purchase
	// record. The payment has already settled on the provider side, so
	// a failed write is reported but does not fail the capture.
	HandleApproval(ctx context.Context, details ApprovalDetails) (CaptureResult, error)
}
