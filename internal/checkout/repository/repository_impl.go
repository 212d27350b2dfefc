package repository

import (
	"context"
	"time"

	"github.com/apexgas/commerce/internal/checkout/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertEvent(ctx context.Context, db *gorm.DB, record *domain.EventRecord) (bool, error) {
	result := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "provider_event_id"}},
			DoNothing: true,
		}).
		Create(record)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) FindEvent(ctx context.Context, db *gorm.DB, providerEventID string) (*domain.EventRecord, error) {
	var record domain.EventRecord
	err := db.WithContext(ctx).
		Model(&domain.EventRecord{}).
		Where("provider_event_id = ?", providerEventID).
		Take(&record).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (r *repo) MarkProcessed(ctx context.Context, db *gorm.DB, providerEventID, result string, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE webhook_events SET processed_at = ?, result = ? WHERE provider_event_id = ?`,
		at,
		result,
		providerEventID,
	).Error
}
