package repository

import (
	"context"
	"errors"

	"github.com/smallbiznis/rendezvous/internal/pricing/domain"
	"github.com/smallbiznis/rendezvous/internal/servicemodule"
	"github.com/smallbiznis/rendezvous/pkg/db"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, conn *gorm.DB, cfg *domain.PriceConfig) error {
	if !cfg.ServiceModule.Valid() {
		return servicemodule.ErrUnknownModule
	}
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	err := conn.WithContext(ctx).Create(cfg).Error
	if db.IsDuplicateKeyErr(err) {
		return domain.ErrAlreadyProvisioned
	}
	return err
}

func (r *repo) FindByModule(ctx context.Context, conn *gorm.DB, module servicemodule.Module) (*domain.PriceConfig, error) {
	return r.find(conn.WithContext(ctx), module)
}

func (r *repo) FindForUpdate(ctx context.Context, conn *gorm.DB, module servicemodule.Module) (*domain.PriceConfig, error) {
	return r.find(db.ForUpdate(conn.WithContext(ctx)), module)
}

func (r *repo) find(stmt *gorm.DB, module servicemodule.Module) (*domain.PriceConfig, error) {
	var cfg domain.PriceConfig
	err := stmt.Where("service_module = ?", module).Take(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *repo) Update(ctx context.Context, conn *gorm.DB, cfg *domain.PriceConfig) error {
	res := conn.WithContext(ctx).Model(&domain.PriceConfig{}).
		Where("service_module = ? AND version = ?", cfg.ServiceModule, cfg.Version).
		Updates(map[string]any{
			"fixed_price":                 cfg.FixedPrice,
			"currency":                    cfg.Currency,
			"platform_commission_percent": cfg.CommissionPercent,
			"show_price_to_users":         cfg.ShowPriceToUsers,
			"show_price_breakdown":        cfg.ShowPriceBreakdown,
			"allow_counterparty_pricing":  cfg.AllowCounterpartyPricing,
			"updated_by":                  cfg.UpdatedBy,
			"updated_at":                  cfg.UpdatedAt,
			"version":                     cfg.Version + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrVersionConflict
	}
	cfg.Version++
	return nil
}

func (r *repo) List(ctx context.Context, conn *gorm.DB) ([]domain.PriceConfig, error) {
	var rows []domain.PriceConfig
	if err := conn.WithContext(ctx).Order("service_module asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
