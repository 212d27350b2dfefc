package domain

import (
	"time"

	"github.com/apexgas/commerce/internal/intake"
	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type RecordType string

const (
	RecordTypeOneTime      RecordType = "one_time"
	RecordTypeSubscription RecordType = "subscription"
)

// Record is one completed payment. Rows are append-only; CreatedAt is
// always assigned by the service, never taken from the request.
type Record struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	Type        RecordType   `gorm:"not null;index" json:"type"`
	Email       string       `gorm:"not null" json:"email"`
	AmountCents int64        `gorm:"not null" json:"amount_cents"`
	Currency    string       `gorm:"not null" json:"currency"`

	// Exactly one of OrderID and SubscriptionID is set, matching Type.
	OrderID        string `gorm:"index" json:"order_id,omitempty"`
	SubscriptionID string `gorm:"index" json:"subscription_id,omitempty"`

	Status    string `gorm:"not null" json:"status"`
	PlanID    string `json:"plan_id,omitempty"`
	StartTime string `json:"start_time,omitempty"`

	BusinessInfo    intake.BusinessInfo `gorm:"embedded;embeddedPrefix:buyer_" json:"business_info"`
	DeliveryAddress datatypes.JSON      `json:"delivery_address,omitempty"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

func (Record) TableName() string { return "purchases" }

// FormSubmission is one contact-form inquiry.
type FormSubmission struct {
	ID                  snowflake.ID `gorm:"primaryKey" json:"id"`
	CompanyName         string       `gorm:"not null" json:"company_name"`
	ContactName         string       `gorm:"not null" json:"contact_name"`
	PhoneNumber         string       `gorm:"not null" json:"phone_number"`
	BusinessEmail       string       `gorm:"not null" json:"business_email"`
	FacilityType        string       `json:"facility_type,omitempty"`
	Message             string       `json:"message,omitempty"`
	HasSpecialEquipment bool         `json:"has_special_equipment"`
	CreatedAt           time.Time    `gorm:"not null;index" json:"created_at"`
}

func (FormSubmission) TableName() string { return "form_submissions" }

type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusPastDue  SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
)

// SubscriptionState mirrors the provider's view of a recurring
// subscription, keyed by the provider's subscription id.
type SubscriptionState struct {
	ProviderSubscriptionID string             `gorm:"primaryKey" json:"provider_subscription_id"`
	Status                 SubscriptionStatus `gorm:"not null" json:"status"`
	PriceID                string             `json:"price_id,omitempty"`
	CustomerEmail          string             `json:"customer_email,omitempty"`
	CurrentPeriodEnd       *time.Time         `json:"current_period_end,omitempty"`
	CanceledAt             *time.Time         `json:"canceled_at,omitempty"`
	CreatedAt              time.Time          `gorm:"not null" json:"created_at"`
	UpdatedAt              time.Time          `gorm:"not null" json:"updated_at"`
}

func (SubscriptionState) TableName() string { return "subscriptions" }
