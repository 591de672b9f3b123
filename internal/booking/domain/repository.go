package domain

import (
	"context"

	"github.com/smallbiznis/rendezvous/internal/servicemodule"
	"gorm.io/gorm"
)

// Repository persists bookings. Every method runs on the handle it is
// given so callers control the transaction boundary.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, b *Booking) error
	FindByID(ctx context.Context, db *gorm.DB, id string) (*Booking, error)
	FindForUpdate(ctx context.Context, db *gorm.DB, id string) (*Booking, error)
	// FindByIDs returns the bookings that exist, in the order of ids.
	FindByIDs(ctx context.Context, db *gorm.DB, ids []string) ([]Booking, error)
	// FindByIDsForUpdate is FindByIDs holding row locks until the
	// transaction ends.
	FindByIDsForUpdate(ctx context.Context, db *gorm.DB, ids []string) ([]Booking, error)
	// Update saves b if its stored version still equals b.Version and
	// bumps b.Version. A lost race returns ErrVersionConflict.
	Update(ctx context.Context, db *gorm.DB, b *Booking) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Booking, error)
}

type ListFilter struct {
	ServiceModule servicemodule.Module
	Status        Status
	CustomerID    string
	ProviderID    string
	SortBy        string
	Descending    bool
	Limit         int
}

// SortColumns maps accepted sort keys to columns.
var SortColumns = map[string]string{
	"created_at":   "created_at",
	"scheduled_at": "scheduled_at",
	"amount":       "amount_minor",
}
