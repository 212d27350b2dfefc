package migration

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	checkoutdomain "github.com/apexgas/commerce/internal/checkout/domain"
	"github.com/apexgas/commerce/internal/config"
	"github.com/apexgas/commerce/internal/notification"
	purchasedomain "github.com/apexgas/commerce/internal/purchase/domain"
)

//go:embed sql/*.sql
var files embed.FS

// Run brings the schema up to date. Postgres goes through versioned
// SQL migrations, other dialects fall back to AutoMigrate.
func Run(cfg config.Config, gdb *gorm.DB, log *zap.Logger) error {
	log = log.Named("migration")

	if cfg.DBType == "postgres" {
		if err := runVersioned(gdb); err != nil {
			return err
		}
		log.Info("schema migrations applied")
		return nil
	}

	if err := autoMigrate(gdb); err != nil {
		return err
	}
	log.Info("schema auto-migrated", zap.String("dialect", cfg.DBType))
	return nil
}

func runVersioned(gdb *gorm.DB) error {
	src, err := iofs.New(files, "sql")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}

	driver, err := migratepg.WithInstance(sqlDB, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func autoMigrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&purchasedomain.Record{},
		&purchasedomain.FormSubmission{},
		&purchasedomain.SubscriptionState{},
		&checkoutdomain.EventRecord{},
		&notification.Delivery{},
	)
}

var Module = fx.Module("migration",
	fx.Invoke(Run),
)
