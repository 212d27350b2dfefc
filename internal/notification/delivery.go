package notification

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Delivery marks a notification topic as handled. The unique topic is
// what makes redelivered source events a no-op.
type Delivery struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	Topic     string       `gorm:"uniqueIndex;not null"`
	CreatedAt time.Time    `gorm:"not null"`
}

func (Delivery) TableName() string { return "notification_deliveries" }

// insertDelivery claims the topic. Returns false when another delivery
// already claimed it.
func insertDelivery(ctx context.Context, db *gorm.DB, delivery *Delivery) (bool, error) {
	result := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "topic"}},
			DoNothing: true,
		}).
		Create(delivery)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
