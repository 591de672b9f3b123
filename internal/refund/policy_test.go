package refund

import (
	"context"
	"math"
	"testing"

	"github.com/smallbiznis/rendezvous/internal/config"
	"github.com/smallbiznis/rendezvous/internal/servicemodule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTieredPolicyPicksHighestMatchingTier(t *testing.T) {
	policy := NewTieredPolicy(config.NewStaticGovernancePolicyHolder(config.DefaultGovernancePolicy()))
	ctx := context.Background()

	cases := map[float64]int{
		72:  100,
		48:  100,
		30:  50,
		24:  50,
		2:   0,
		-10: 0,
	}
	for hours, want := range cases {
		got, err := policy.RefundPercent(ctx, servicemodule.BlindDate, hours)
		require.NoError(t, err)
		assert.Equal(t, want, got, "%v hours", hours)
	}
}

func TestTieredPolicyRefundsNothingBelowLowestTier(t *testing.T) {
	holder := config.NewStaticGovernancePolicyHolder(config.GovernancePolicy{
		RefundTiers: []config.RefundTier{
			{MinHoursBefore: 72, Percent: 100},
			{MinHoursBefore: 0, Percent: 25},
		},
	})
	policy := NewTieredPolicy(holder)

	got, err := policy.RefundPercent(context.Background(), servicemodule.BlindDate, 1)
	require.NoError(t, err)
	assert.Equal(t, 25, got)

	got, err = policy.RefundPercent(context.Background(), servicemodule.BlindDate, -8)
	require.NoError(t, err)
	assert.Equal(t, 0, got)
}

func TestTieredPolicyHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewTieredPolicy(config.NewStaticGovernancePolicyHolder(config.DefaultGovernancePolicy())).
		RefundPercent(ctx, servicemodule.BlindDate, 10)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTieredPolicyFollowsReload(t *testing.T) {
	holder := config.NewStaticGovernancePolicyHolder(config.DefaultGovernancePolicy())
	policy := NewTieredPolicy(holder)

	updated := config.DefaultGovernancePolicy()
	updated.RefundTiers = []config.RefundTier{{MinHoursBefore: math.Inf(-1), Percent: 25}}
	require.NoError(t, holder.Set(updated))

	got, err := policy.RefundPercent(context.Background(), servicemodule.BusinessMeetup, 100)
	require.NoError(t, err)
	assert.Equal(t, 25, got)
}
