package refund

import (
	"context"
	"sort"

	"github.com/smallbiznis/rendezvous/internal/config"
	"github.com/smallbiznis/rendezvous/internal/servicemodule"
	"go.uber.org/fx"
)

var Module = fx.Module("refund.policy",
	fx.Provide(func(h *config.GovernancePolicyHolder) Policy { return NewTieredPolicy(h) }),
)

// Policy returns the refund percentage for a booking cancelled
// hoursBefore hours ahead of its scheduled time. Negative hours mean the
// cancellation happened after the scheduled time. A cancellation below
// every tier refunds nothing.
type Policy interface {
	RefundPercent(ctx context.Context, module servicemodule.Module, hoursBefore float64) (int, error)
}

// TieredPolicy reads tiers from the live governance policy, so a reload
// applies to the next cancellation.
type TieredPolicy struct {
	holder *config.GovernancePolicyHolder
}

func NewTieredPolicy(holder *config.GovernancePolicyHolder) *TieredPolicy {
	return &TieredPolicy{holder: holder}
}

func (p *TieredPolicy) RefundPercent(ctx context.Context, module servicemodule.Module, hoursBefore float64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	tiers := append([]config.RefundTier(nil), p.holder.Get().RefundTiers...)
	sort.SliceStable(tiers, func(i, j int) bool {
		return tiers[i].MinHoursBefore > tiers[j].MinHoursBefore
	})
	for _, tier := range tiers {
		if hoursBefore >= tier.MinHoursBefore {
			return tier.Percent, nil
		}
	}
	return 0, nil
}
