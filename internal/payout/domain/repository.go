package domain

import (
	"context"
	"time"

	"github.com/smallbiznis/rendezvous/internal/servicemodule"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, p *PayoutRequest) error
	FindByID(ctx context.Context, db *gorm.DB, id string) (*PayoutRequest, error)
	FindForUpdate(ctx context.Context, db *gorm.DB, id string) (*PayoutRequest, error)
	Update(ctx context.Context, db *gorm.DB, p *PayoutRequest) error
	// RecordTransfer stores the provider outcome of an approved payout. It
	// leaves the version alone and never overwrites an initiated transfer.
	RecordTransfer(ctx context.Context, db *gorm.DB, id string, status TransferStatus, ref *string, at time.Time) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]PayoutRequest, error)
}

type ListFilter struct {
	ServiceModule servicemodule.Module
	Status        Status
	PayeeID       string
	SortBy        string
	Descending    bool
	Limit         int
}

var SortColumns = map[string]string{
	"created_at":   "created_at",
	"requested_at": "requested_at",
	"amount":       "amount_minor",
}
