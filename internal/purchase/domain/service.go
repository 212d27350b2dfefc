package domain

import (
	"context"
	"errors"
	"time"

	"github.com/apexgas/commerce/internal/intake"
	"github.com/apexgas/commerce/pkg/db/pagination"
)

var (
	ErrInvalidRecord = errors.New("invalid_record")
	ErrInvalidID     = errors.New("invalid_id")
	ErrNotFound      = errors.New("not_found")
)

type CreateRecordRequest struct {
	Type            RecordType
	Email           string
	AmountCents     int64
	Currency        string
	OrderID         string
	SubscriptionID  string
	Status          string
	PlanID          string
	StartTime       string
	BusinessInfo    intake.BusinessInfo
	DeliveryAddress *intake.DeliveryAddress
}

type CreateFormSubmissionRequest struct {
	Info    intake.BusinessInfo
	Message string
}

type ListRecordsRequest struct {
	PageToken string
	PageSize  int32
	Type      RecordType
	Email     string
}

type ListRecordsFilter struct {
	Type  RecordType
	Email string
}

type ListRecordsResponse struct {
	pagination.PageInfo
	Purchases []Record `json:"purchases"`
}

// SubscriptionStateChange is a partial update from the provider. Empty
// fields leave the stored value untouched.
type SubscriptionStateChange struct {
	ProviderSubscriptionID string
	Status                 SubscriptionStatus
	PriceID                string
	CustomerEmail          string
	CurrentPeriodEnd       *time.Time
}

// Subscriber receives post-insert events for freshly written rows.
type Subscriber interface {
	OnPurchaseCreated(ctx context.Context, record Record)
	OnFormSubmissionCreated(ctx context.Context, submission FormSubmission)
}

type Service interface {
	Record(ctx context.Context, req CreateRecordRequest) (Record, error)
	SubmitForm(ctx context.Context, req CreateFormSubmissionRequest) (FormSubmission, error)
	List(ctx context.Context, req ListRecordsRequest) (ListRecordsResponse, error)
	GetByID(ctx context.Context, id string) (Record, error)

	UpsertSubscriptionState(ctx context.Context, change SubscriptionStateChange) error
	CancelSubscription(ctx context.Context, providerSubscriptionID string, at time.Time) error

	Subscribe(sub Subscriber)
}
