package domain

import (
	"context"

	"github.com/smallbiznis/rendezvous/internal/servicemodule"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, d *DisputeCase) error
	FindByID(ctx context.Context, db *gorm.DB, id string) (*DisputeCase, error)
	FindForUpdate(ctx context.Context, db *gorm.DB, id string) (*DisputeCase, error)
	Update(ctx context.Context, db *gorm.DB, d *DisputeCase) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]DisputeCase, error)
}

type ListFilter struct {
	ServiceModule servicemodule.Module
	Status        Status
	BookingID     string
	SortBy        string
	Descending    bool
	Limit         int
}

var SortColumns = map[string]string{
	"created_at": "created_at",
	"updated_at": "updated_at",
}
