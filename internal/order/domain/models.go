package domain

import (
	"errors"

	"github.com/apexgas/commerce/internal/intake"
)

var (
	ErrInvalidPrice      = errors.New("invalid_price")
	ErrInvalidApproval   = errors.New("invalid_approval")
	ErrCorrelationLost   = errors.New("correlation_lost")
	ErrUnsupportedDetail = errors.New("unsupported_detail")
)

// Money is an amount as the provider wires it: a decimal string plus a
// currency code.
type Money struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

// OrderPayload is the one-time purchase request sent to the provider.
type OrderPayload struct {
	Intent        string         `json:"intent"`
	PurchaseUnits []PurchaseUnit `json:"purchase_units"`
}

type PurchaseUnit struct {
	Description string `json:"description"`
	Amount      Money  `json:"amount"`
	CustomID    string `json:"custom_id"`
}

// SubscriptionPayload is the recurring plan request sent to the
// provider. One regular yearly cycle that repeats until canceled.
type SubscriptionPayload struct {
	PlanName           string             `json:"plan_name"`
	BillingCycles      []BillingCycle     `json:"billing_cycles"`
	PaymentPreferences PaymentPreferences `json:"payment_preferences"`
	CustomID           string             `json:"custom_id"`
}

type BillingCycle struct {
	Frequency     Frequency     `json:"frequency"`
	TenureType    string        `json:"tenure_type"`
	Sequence      int           `json:"sequence"`
	TotalCycles   int           `json:"total_cycles"`
	PricingScheme PricingScheme `json:"pricing_scheme"`
}

type Frequency struct {
	IntervalUnit  string `json:"interval_unit"`
	IntervalCount int    `json:"interval_count"`
}

type PricingScheme struct {
	FixedPrice Money `json:"fixed_price"`
}

type PaymentPreferences struct {
	AutoBillOutstanding     bool   `json:"auto_bill_outstanding"`
	SetupFee                Money  `json:"setup_fee"`
	SetupFeeFailureAction   string `json:"setup_fee_failure_action"`
	PaymentFailureThreshold int    `json:"payment_failure_threshold"`
}

// Intent is the built provider request plus the data needed to tie the
// eventual approval back to the buyer. Exactly one of Order and
// Subscription is set.
type Intent struct {
	TierCode     string               `json:"tier"`
	AmountCents  int64                `json:"amount_cents"`
	Currency     string               `json:"currency"`
	Buyer        intake.BusinessInfo  `json:"buyer"`
	Order        *OrderPayload        `json:"order,omitempty"`
	Subscription *SubscriptionPayload `json:"subscription,omitempty"`
}

// ApprovalKind distinguishes which provider flow completed.
type ApprovalKind string

const (
	ApprovalOneTime      ApprovalKind = "one_time"
	ApprovalSubscription ApprovalKind = "subscription"
)

// ApprovalDetails is the canonical shape of a provider approval
// callback, after field-name normalization.
type ApprovalDetails struct {
	Kind           ApprovalKind
	PayerEmail     string
	OrderID        string
	SubscriptionID string
	Status         string
	AmountValue    string
	CurrencyCode   string
	PlanID         string
	StartTime      string
	Correlation    string
}

// CaptureResult is what the buyer-facing surface gets back after an
// approval is handled.
type CaptureResult struct {
	PurchaseID string `json:"purchase_id,omitempty"`
	Message    string `json:"message"`
	Recorded   bool   `json:"recorded"`
}
