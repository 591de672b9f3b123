package domain

import "math"

// Breakdown splits what a customer pays into its parts.
type Breakdown struct {
	BasePrice  float64 `json:"base_price"`
	Commission float64 `json:"commission"`
	Taxes      float64 `json:"taxes"`
	Total      float64 `json:"total"`
}

// ComputeBreakdown applies commissionPercent (0..100) and taxRate (a
// fraction) to basePrice. Every amount is rounded to two decimals.
func ComputeBreakdown(basePrice, commissionPercent, taxRate float64) Breakdown {
	commission := round2(basePrice * commissionPercent / 100)
	taxes := round2(basePrice * taxRate)
	return Breakdown{
		BasePrice:  round2(basePrice),
		Commission: commission,
		Taxes:      taxes,
		Total:      round2(basePrice + commission + taxes),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
