package domain

import (
	"context"
	"time"

	"github.com/apexgas/commerce/pkg/db/pagination"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, record *Record) error
	InsertFormSubmission(ctx context.Context, db *gorm.DB, submission *FormSubmission) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Record, error)
	List(ctx context.Context, db *gorm.DB, filter ListRecordsFilter, page pagination.Pagination) ([]*Record, error)

	FindSubscriptionState(ctx context.Context, db *gorm.DB, providerSubscriptionID string) (*SubscriptionState, error)
	UpsertSubscriptionState(ctx context.Context, db *gorm.DB, change SubscriptionStateChange, now time.Time) error
	MarkSubscriptionCanceled(ctx context.Context, db *gorm.DB, providerSubscriptionID string, at, now time.Time) error
}
