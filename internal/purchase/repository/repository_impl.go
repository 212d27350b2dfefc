package repository

import (
	"context"
	"time"

	"github.com/apexgas/commerce/internal/purchase/domain"
	"github.com/apexgas/commerce/pkg/db/pagination"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, record *domain.Record) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO purchases (id, type, email, amount_cents, currency, order_id, subscription_id, status, plan_id, start_time,
		  buyer_company_name, buyer_contact_name, buyer_phone_number, buyer_business_email, buyer_facility_type, buyer_has_special_equipment,
		  delivery_address, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.Type,
		record.Email,
		record.AmountCents,
		record.Currency,
		record.OrderID,
		record.SubscriptionID,
		record.Status,
		record.PlanID,
		record.StartTime,
		record.BusinessInfo.CompanyName,
		record.BusinessInfo.ContactName,
		record.BusinessInfo.PhoneNumber,
		record.BusinessInfo.BusinessEmail,
		record.BusinessInfo.FacilityType,
		record.BusinessInfo.HasSpecialEquipment,
		record.DeliveryAddress,
		record.CreatedAt,
	).Error
}

func (r *repo) InsertFormSubmission(ctx context.Context, db *gorm.DB, submission *domain.FormSubmission) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO form_submissions (id, company_name, contact_name, phone_number, business_email, facility_type, message, has_special_equipment, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		submission.ID,
		submission.CompanyName,
		submission.ContactName,
		submission.PhoneNumber,
		submission.BusinessEmail,
		submission.FacilityType,
		submission.Message,
		submission.HasSpecialEquipment,
		submission.CreatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Record, error) {
	var record domain.Record
	err := db.WithContext(ctx).
		Model(&domain.Record{}).
		Where("id = ?", id).
		Take(&record).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListRecordsFilter, page pagination.Pagination) ([]*domain.Record, error) {
	var records []*domain.Record
	stmt := db.WithContext(ctx).Model(&domain.Record{})
	if filter.Type != "" {
		stmt = stmt.Where("type = ?", filter.Type)
	}
	if filter.Email != "" {
		stmt = stmt.Where("email = ?", filter.Email)
	}
	if page.PageToken != "" {
		cursor, err := pagination.DecodeCursor(page.PageToken)
		if err != nil {
			return nil, err
		}
		if cursor.CreatedAt != "" && cursor.ID != "" {
			stmt = stmt.Where(
				"(created_at < ?) OR (created_at = ? AND id < ?)",
				cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
			)
		}
	}

	limit := page.PageSize
	if limit <= 0 {
		limit = 10
	}

	err := stmt.
		Order("created_at desc, id desc").
		Limit(limit + 1).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repo) FindSubscriptionState(ctx context.Context, db *gorm.DB, providerSubscriptionID string) (*domain.SubscriptionState, error) {
	var state domain.SubscriptionState
	err := db.WithContext(ctx).
		Model(&domain.SubscriptionState{}).
		Where("provider_subscription_id = ?", providerSubscriptionID).
		Take(&state).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &state, nil
}

// UpsertSubscriptionState merges the incoming change into the stored
// row. Empty incoming fields keep whatever is already stored.
func (r *repo) UpsertSubscriptionState(ctx context.Context, db *gorm.DB, change domain.SubscriptionStateChange, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO subscriptions (provider_subscription_id, status, price_id, customer_email, current_period_end, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (provider_subscription_id) DO UPDATE SET
		   status = CASE WHEN excluded.status <> '' THEN excluded.status ELSE subscriptions.status END,
		   price_id = CASE WHEN excluded.price_id <> '' THEN excluded.price_id ELSE subscriptions.price_id END,
		   customer_email = CASE WHEN excluded.customer_email <> '' THEN excluded.customer_email ELSE subscriptions.customer_email END,
		   current_period_end = COALESCE(excluded.current_period_end, subscriptions.current_period_end),
		   updated_at = excluded.updated_at`,
		change.ProviderSubscriptionID,
		change.Status,
		change.PriceID,
		change.CustomerEmail,
		change.CurrentPeriodEnd,
		now,
		now,
	).Error
}

func (r *repo) MarkSubscriptionCanceled(ctx context.Context, db *gorm.DB, providerSubscriptionID string, at, now time.Time) error {
	result := db.WithContext(ctx).Exec(
		`UPDATE subscriptions SET status = ?, canceled_at = ?, updated_at = ? WHERE provider_subscription_id = ?`,
		domain.SubscriptionStatusCanceled,
		at,
		now,
		providerSubscriptionID,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	// Cancellation can arrive before any created/updated event.
	return db.WithContext(ctx).Exec(
		`INSERT INTO subscriptions (provider_subscription_id, status, canceled_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		providerSubscriptionID,
		domain.SubscriptionStatusCanceled,
		at,
		now,
		now,
	).Error
}
