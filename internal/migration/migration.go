package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	auditdomain "github.com/smallbiznis/rendezvous/internal/audit/domain"
	bookingdomain "github.com/smallbiznis/rendezvous/internal/booking/domain"
	disputedomain "github.com/smallbiznis/rendezvous/internal/dispute/domain"
	payoutdomain "github.com/smallbiznis/rendezvous/internal/payout/domain"
	pricingdomain "github.com/smallbiznis/rendezvous/internal/pricing/domain"
	"gorm.io/gorm"
)

// RunMigrations applies the embedded SQL migrations to a postgres database.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}

// AutoMigrate creates the governance tables from the gorm models. It backs
// sqlite and mysql deployments and tests; postgres uses RunMigrations so
// the audit trigger is installed.
func AutoMigrate(db *gorm.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}
	return db.AutoMigrate(
		&bookingdomain.Booking{},
		&disputedomain.DisputeCase{},
		&payoutdomain.PayoutRequest{},
		&pricingdomain.PriceConfig{},
		&auditdomain.AuditEntry{},
	)
}
