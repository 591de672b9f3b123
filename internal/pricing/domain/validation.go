package domain

import (
	"math"
	"strings"
)

func ValidateFixedPrice(price float64) error {
	if math.IsNaN(price) || price == 0 {
		return ErrPriceEmpty
	}
	if price < 0 {
		return ErrPriceNegative
	}
	if math.IsInf(price, 1) {
		return ErrPriceNotFinite
	}
	return nil
}

func ValidateCommission(percent float64) error {
	if math.IsNaN(percent) || percent < 0 || percent > 100 {
		return ErrCommissionRange
	}
	return nil
}

// NormalizeCurrency upper-cases an ISO-4217 code.
func NormalizeCurrency(raw string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if len(code) != 3 {
		return "", ErrInvalidCurrency
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return "", ErrInvalidCurrency
		}
	}
	return code, nil
}

// Validate checks a complete config.
func Validate(cfg PriceConfig) error {
	if err := ValidateFixedPrice(cfg.FixedPrice); err != nil {
		return err
	}
	if err := ValidateCommission(cfg.CommissionPercent); err != nil {
		return err
	}
	if _, err := NormalizeCurrency(cfg.Currency); err != nil {
		return err
	}
	return nil
}
