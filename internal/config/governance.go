package config

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// GovernancePolicy carries the operator-tunable values the governance
// workflows consult at decision time.
type GovernancePolicy struct {
	// TaxRate is a fraction, 0.18 means 18%.
	TaxRate       float64        `mapstructure:"taxRate"`
	RefundTiers   []RefundTier   `mapstructure:"refundTiers"`
	DefaultPrices []DefaultPrice `mapstructure:"defaultPrices"`
}

// RefundTier grants Percent when a booking is cancelled at least
// MinHoursBefore hours ahead of its scheduled time.
type RefundTier struct {
	MinHoursBefore float64 `mapstructure:"minHoursBefore"`
	Percent        int     `mapstructure:"percent"`
}

type DefaultPrice struct {
	Module            string  `mapstructure:"module"`
	FixedPrice        float64 `mapstructure:"fixedPrice"`
	Currency          string  `mapstructure:"currency"`
	CommissionPercent float64 `mapstructure:"commissionPercent"`
}

func DefaultGovernancePolicy() GovernancePolicy {
	return GovernancePolicy{
		TaxRate: 0.18,
		RefundTiers: []RefundTier{
			{MinHoursBefore: 48, Percent: 100},
			{MinHoursBefore: 24, Percent: 50},
			{MinHoursBefore: math.Inf(-1), Percent: 0},
		},
		DefaultPrices: []DefaultPrice{
			{Module: "companion-rental", FixedPrice: 2500, Currency: "INR", CommissionPercent: 20},
			{Module: "blind-date", FixedPrice: 1500, Currency: "INR", CommissionPercent: 15},
			{Module: "business-meetup", FixedPrice: 3000, Currency: "INR", CommissionPercent: 12},
			{Module: "investor-match", FixedPrice: 10000, Currency: "INR", CommissionPercent: 10},
			{Module: "expert-consultation", FixedPrice: 4000, Currency: "INR", CommissionPercent: 18},
		},
	}
}

type GovernancePolicyHolder struct {
	current atomic.Value // holds GovernancePolicy
}

// NewStaticGovernancePolicyHolder returns a holder that never reloads.
func NewStaticGovernancePolicyHolder(policy GovernancePolicy) *GovernancePolicyHolder {
	holder := &GovernancePolicyHolder{}
	holder.current.Store(policy)
	return holder
}

func NewGovernancePolicyHolder(log *zap.Logger) (*GovernancePolicyHolder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("governance.config")

	v := viper.New()

	v.SetConfigName("governance")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/rendezvous/config")
	v.AddConfigPath("/etc/rendezvous")
	v.AddConfigPath(".")

	v.SetEnvPrefix("RENDEZVOUS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultGovernancePolicy()
	v.SetDefault("governance.taxRate", defaults.TaxRate)

	fileLoaded := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileLoaded = false
		v.SetDefault("governance.refundTiers", defaults.RefundTiers)
		v.SetDefault("governance.defaultPrices", defaults.DefaultPrices)
	}

	policy, err := decodeGovernancePolicy(v)
	if err != nil {
		return nil, err
	}

	holder := NewStaticGovernancePolicyHolder(policy)
	if !fileLoaded {
		log.Info("governance policy file not found, using defaults")
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := decodeGovernancePolicy(v)
		if err != nil {
			log.Warn("governance policy reload rejected", zap.String("file", e.Name), zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("governance policy reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

func (h *GovernancePolicyHolder) Get() GovernancePolicy {
	return h.current.Load().(GovernancePolicy)
}

// Set swaps the active policy after validating it.
func (h *GovernancePolicyHolder) Set(policy GovernancePolicy) error {
	if err := ValidateGovernancePolicy(policy); err != nil {
		return err
	}
	h.current.Store(policy)
	return nil
}

func decodeGovernancePolicy(v *viper.Viper) (GovernancePolicy, error) {
	var policy GovernancePolicy
	if err := v.UnmarshalKey("governance", &policy); err != nil {
		return GovernancePolicy{}, err
	}
	policy.TaxRate = v.GetFloat64("governance.taxRate")
	if len(policy.RefundTiers) == 0 {
		policy.RefundTiers = DefaultGovernancePolicy().RefundTiers
	}
	if err := ValidateGovernancePolicy(policy); err != nil {
		return GovernancePolicy{}, err
	}
	return policy, nil
}

func ValidateGovernancePolicy(policy GovernancePolicy) error {
	if math.IsNaN(policy.TaxRate) || policy.TaxRate < 0 || policy.TaxRate > 1 {
		return errors.New("governance.taxRate must be a fraction between 0 and 1")
	}
	if len(policy.RefundTiers) == 0 {
		return errors.New("governance.refundTiers cannot be empty")
	}
	for i, tier := range policy.RefundTiers {
		if tier.Percent < 0 || tier.Percent > 100 {
			return fmt.Errorf("governance.refundTiers[%d].percent must be between 0 and 100", i)
		}
	}
	for i, price := range policy.DefaultPrices {
		if strings.TrimSpace(price.Module) == "" {
			return fmt.Errorf("governance.defaultPrices[%d].module is required", i)
		}
	}
	return nil
}
