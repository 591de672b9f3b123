package domain

import (
	"time"

	"github.com/smallbiznis/rendezvous/internal/servicemodule"
)

// PriceConfig is the admin-locked price of one service module. Exactly
// one record exists per module.
type PriceConfig struct {
	ServiceModule            servicemodule.Module `json:"service_module" gorm:"primaryKey;size:64"`
	FixedPrice               float64              `json:"fixed_price" gorm:"not null"`
	Currency                 string               `json:"currency" gorm:"size:3;not null"`
	CommissionPercent        float64              `json:"platform_commission_percent" gorm:"column:platform_commission_percent;not null"`
	ShowPriceToUsers         bool                 `json:"show_price_to_users" gorm:"not null"`
	ShowPriceBreakdown       bool                 `json:"show_price_breakdown" gorm:"not null"`
	AllowCounterpartyPricing bool                 `json:"allow_counterparty_pricing" gorm:"not null"`
	UpdatedBy                string               `json:"updated_by" gorm:"size:128;not null"`
	Version                  int64                `json:"version" gorm:"not null;default:1"`
	CreatedAt                time.Time            `json:"created_at" gorm:"not null"`
	UpdatedAt                time.Time            `json:"updated_at" gorm:"not null"`
}

func (PriceConfig) TableName() string { return "price_configs" }

// Patch carries the fields an admin wants to change; nil means unchanged.
type Patch struct {
	FixedPrice               *float64 `json:"fixed_price,omitempty"`
	Currency                 *string  `json:"currency,omitempty"`
	CommissionPercent        *float64 `json:"platform_commission_percent,omitempty"`
	ShowPriceToUsers         *bool    `json:"show_price_to_users,omitempty"`
	ShowPriceBreakdown       *bool    `json:"show_price_breakdown,omitempty"`
	AllowCounterpartyPricing *bool    `json:"allow_counterparty_pricing,omitempty"`
}

func (p Patch) Empty() bool {
	return p.FixedPrice == nil && p.Currency == nil && p.CommissionPercent == nil &&
		p.ShowPriceToUsers == nil && p.ShowPriceBreakdown == nil && p.AllowCounterpartyPricing == nil
}

// Apply returns a copy of cfg with the patch merged and the visibility
// rule enforced. It does not validate.
func (p Patch) Apply(cfg PriceConfig) PriceConfig {
	next := cfg
	if p.FixedPrice != nil {
		next.FixedPrice = *p.FixedPrice
	}
	if p.Currency != nil {
		next.Currency = *p.Currency
	}
	if p.CommissionPercent != nil {
		next.CommissionPercent = *p.CommissionPercent
	}
	if p.ShowPriceToUsers != nil {
		next.ShowPriceToUsers = *p.ShowPriceToUsers
	}
	if p.ShowPriceBreakdown != nil {
		next.ShowPriceBreakdown = *p.ShowPriceBreakdown
	}
	if p.AllowCounterpartyPricing != nil {
		next.AllowCounterpartyPricing = *p.AllowCounterpartyPricing
	}
	return Normalize(next)
}

// Normalize hides the breakdown whenever the price itself is hidden.
func Normalize(cfg PriceConfig) PriceConfig {
	if !cfg.ShowPriceToUsers {
		cfg.ShowPriceBreakdown = false
	}
	return cfg
}

// EnablesCounterpartyPricing reports a false to true flip of the
// counterparty pricing flag, which needs explicit acknowledgement.
func EnablesCounterpartyPricing(before, after PriceConfig) bool {
	return !before.AllowCounterpartyPricing && after.AllowCounterpartyPricing
}
