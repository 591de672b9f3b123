package domain

import (
	"context"

	"github.com/smallbiznis/rendezvous/internal/servicemodule"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, cfg *PriceConfig) error
	FindByModule(ctx context.Context, db *gorm.DB, module servicemodule.Module) (*PriceConfig, error)
	FindForUpdate(ctx context.Context, db *gorm.DB, module servicemodule.Module) (*PriceConfig, error)
	Update(ctx context.Context, db *gorm.DB, cfg *PriceConfig) error
	List(ctx context.Context, db *gorm.DB) ([]PriceConfig, error)
}
