package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDefaultGovernancePolicyIsValid(t *testing.T) {
	policy := DefaultGovernancePolicy()
	require.NoError(t, ValidateGovernancePolicy(policy))
	assert.Len(t, policy.DefaultPrices, 5)
	assert.Equal(t, 0.18, policy.TaxRate)
}

func TestValidateGovernancePolicy(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*GovernancePolicy)
	}{
		{"tax above one", func(p *GovernancePolicy) { p.TaxRate = 1.5 }},
		{"negative tax", func(p *GovernancePolicy) { p.TaxRate = -0.1 }},
		{"nan tax", func(p *GovernancePolicy) { p.TaxRate = math.NaN() }},
		{"no tiers", func(p *GovernancePolicy) { p.RefundTiers = nil }},
		{"tier percent", func(p *GovernancePolicy) { p.RefundTiers[0].Percent = 150 }},
		{"blank module", func(p *GovernancePolicy) { p.DefaultPrices[0].Module = " " }},
	}
	for _, tc := range cases {
		policy := DefaultGovernancePolicy()
		tc.mutate(&policy)
		assert.Error(t, ValidateGovernancePolicy(policy), tc.name)
	}
}

func TestHolderSetKeepsLastValidPolicy(t *testing.T) {
	holder := NewStaticGovernancePolicyHolder(DefaultGovernancePolicy())

	bad := DefaultGovernancePolicy()
	bad.TaxRate = 2
	assert.Error(t, holder.Set(bad))
	assert.Equal(t, 0.18, holder.Get().TaxRate)

	good := DefaultGovernancePolicy()
	good.TaxRate = 0.05
	require.NoError(t, holder.Set(good))
	assert.Equal(t, 0.05, holder.Get().TaxRate)
}

func TestGovernancePolicyFromFile(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`governance:
  taxRate: 0.12
  refundTiers:
    - minHoursBefore: 72
      percent: 100
    - minHoursBefore: 0
      percent: 25
  defaultPrices:
    - module: blind-date
      fixedPrice: 1800
      currency: INR
      commissionPercent: 15
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "governance.yml"), content, 0o600))
	t.Chdir(dir)

	holder, err := NewGovernancePolicyHolder(zap.NewNop())
	require.NoError(t, err)

	policy := holder.Get()
	assert.Equal(t, 0.12, policy.TaxRate)
	require.Len(t, policy.RefundTiers, 2)
	assert.Equal(t, 25, policy.RefundTiers[1].Percent)
	require.Len(t, policy.DefaultPrices, 1)
	assert.Equal(t, 1800.0, policy.DefaultPrices[0].FixedPrice)
}

func TestGovernancePolicyRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "governance.yml"), []byte("governance:\n  taxRate: 3\n"), 0o600))
	t.Chdir(dir)

	_, err := NewGovernancePolicyHolder(nil)
	assert.Error(t, err)
}
