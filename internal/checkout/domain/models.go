package domain

import (
	"errors"
	"time"

	"github.com/apexgas/commerce/internal/intake"
	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

var (
	ErrInvalidSignature      = errors.New("invalid_signature")
	ErrEventAlreadyProcessed = errors.New("event_already_processed")
	ErrInvalidPayload        = errors.New("invalid_payload")
	ErrBuyerInfoLost         = errors.New("buyer_info_lost")
)

// EventRecord stores every webhook delivery for dedupe and audit.
type EventRecord struct {
	ID              snowflake.ID   `gorm:"primaryKey"`
	ProviderEventID string         `gorm:"uniqueIndex;not null"`
	EventType       string         `gorm:"not null"`
	Payload         datatypes.JSON `gorm:"type:jsonb"`
	ReceivedAt      time.Time      `gorm:"not null"`
	ProcessedAt     *time.Time
	Result          string
}

func (EventRecord) TableName() string { return "webhook_events" }

// Event processing outcomes recorded on EventRecord.Result.
const (
	ResultProcessed = "processed"
	ResultIgnored   = "ignored"
)

type CreateSessionRequest struct {
	TierCode        string
	Buyer           intake.BusinessInfo
	DeliveryAddress *intake.DeliveryAddress

	// Optional redirect overrides, configured URLs apply when empty.
	SuccessURL string
	CancelURL  string
}

type Session struct {
	ID  string `json:"session_id"`
	URL string `json:"url"`
}
