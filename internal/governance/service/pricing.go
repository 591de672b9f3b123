package service

import (
	"context"
	"fmt"
	"strings"

	auditdomain "github.com/smallbiznis/rendezvous/internal/audit/domain"
	"github.com/smallbiznis/rendezvous/internal/governance/domain"
	pricingdomain "github.com/smallbiznis/rendezvous/internal/pricing/domain"
	"github.com/smallbiznis/rendezvous/internal/servicemodule"
	"gorm.io/gorm"
)

func (s *Service) ProvisionPriceConfig(ctx context.Context, req domain.ProvisionPriceConfigRequest) (out *pricingdomain.PriceConfig, err error) {
	ctx, span := s.start(ctx, "ProvisionPriceConfig")
	var module servicemodule.Module
	defer func() { s.finish(ctx, span, "provision_price_config", string(module), err) }()

	who, err := resolveActor(ctx, req.ActorID)
	if err != nil {
		return nil, err
	}
	module, err = servicemodule.Parse(req.ServiceModule)
	if err != nil {
		return nil, err
	}
	currency, err := pricingdomain.NormalizeCurrency(req.Currency)
	if err != nil {
		return nil, err
	}

	now := s.now()
	cfg := pricingdomain.Normalize(pricingdomain.PriceConfig{
		ServiceModule:      module,
		FixedPrice:         req.FixedPrice,
		Currency:           currency,
		CommissionPercent:  req.CommissionPercent,
		ShowPriceToUsers:   req.ShowPriceToUsers,
		ShowPriceBreakdown: req.ShowPriceBreakdown,
		UpdatedBy:          who.ID,
		Version:            1,
		CreatedAt:          now,
		UpdatedAt:          now,
	})
	if err := pricingdomain.Validate(cfg); err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.prices.FindByModule(ctx, tx, module)
		if err != nil {
			return err
		}
		if existing != nil {
			return pricingdomain.ErrAlreadyProvisioned
		}
		if err := s.prices.Insert(ctx, tx, &cfg); err != nil {
			return err
		}
		return s.appendAudit(ctx, tx, who, auditdomain.Record{
			Action:     auditdomain.ActionPriceConfigProvisioned,
			ModuleName: string(module),
			EntityType: auditdomain.EntityPriceConfig,
			EntityID:   string(module),
			Outcome:    fmt.Sprintf("price provisioned at %.2f %s", cfg.FixedPrice, cfg.Currency),
			Metadata: map[string]any{
				"fixed_price":                 cfg.FixedPrice,
				"currency":                    cfg.Currency,
				"platform_commission_percent": cfg.CommissionPercent,
				"show_price_to_users":         cfg.ShowPriceToUsers,
				"show_price_breakdown":        cfg.ShowPriceBreakdown,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// PreviewPriceConfigUpdate validates the patch and reports its impact
// without saving. Enabling counterparty pricing is flagged rather than
// rejected here.
func (s *Service) PreviewPriceConfigUpdate(ctx context.Context, req domain.UpdatePriceConfigRequest) (out domain.PriceConfigPreview, err error) {
	ctx, span := s.start(ctx, "PreviewPriceConfigUpdate")
	var module servicemodule.Module
	defer func() { s.finish(ctx, span, "preview_price_config_update", string(module), err) }()

	module, err = servicemodule.Parse(req.ServiceModule)
	if err != nil {
		return domain.PriceConfigPreview{}, err
	}
	current, err := s.prices.FindByModule(ctx, s.db, module)
	if err != nil {
		return domain.PriceConfigPreview{}, err
	}
	if current == nil {
		return domain.PriceConfigPreview{}, pricingdomain.ErrNotFound
	}
	proposed, err := applyPricePatch(*current, req.Patch)
	if err != nil {
		return domain.PriceConfigPreview{}, err
	}

	highRisk := pricingdomain.EnablesCounterpartyPricing(*current, proposed)
	summary := fmt.Sprintf("Set %s to %.2f %s with %.2f%% commission.",
		module, proposed.FixedPrice, proposed.Currency, proposed.CommissionPercent)
	if req.Patch.Empty() {
		summary = fmt.Sprintf("No changes to %s.", module)
	}
	if highRisk {
		summary += " Counterparties will be able to propose their own prices."
	}
	return domain.PriceConfigPreview{
		Impact: domain.ImpactSummary{
			Action:                  "update_price_config",
			EntityType:              auditdomain.EntityPriceConfig,
			EntityID:                string(module),
			Summary:                 summary,
			RequiresAcknowledgement: highRisk,
			Version:                 current.Version,
			Details:                 priceChanges(*current, proposed),
		},
		Current:  *current,
		Proposed: proposed,
	}, nil
}

func (s *Service) UpdatePriceConfig(ctx context.Context, req domain.UpdatePriceConfigRequest) (out *pricingdomain.PriceConfig, err error) {
	ctx, span := s.start(ctx, "UpdatePriceConfig")
	var module servicemodule.Module
	defer func() { s.finish(ctx, span, "update_price_config", string(module), err) }()

	who, err := resolveActor(ctx, req.ActorID)
	if err != nil {
		return nil, err
	}
	module, err = servicemodule.Parse(req.ServiceModule)
	if err != nil {
		return nil, err
	}

	var updated *pricingdomain.PriceConfig
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.prices.FindForUpdate(ctx, tx, module)
		if err != nil {
			return err
		}
		if current == nil {
			return pricingdomain.ErrNotFound
		}
		proposed, err := applyPricePatch(*current, req.Patch)
		if err != nil {
			return err
		}
		if pricingdomain.EnablesCounterpartyPricing(*current, proposed) && !req.AcknowledgeCounterpartyPricing {
			return pricingdomain.ErrCounterpartyAck
		}

		proposed.UpdatedBy = who.ID
		proposed.UpdatedAt = s.now()
		if err := s.prices.Update(ctx, tx, &proposed); err != nil {
			return err
		}
		updated = &proposed

		metadata := priceChanges(*current, proposed)
		metadata["old_fixed_price"] = current.FixedPrice
		metadata["new_fixed_price"] = proposed.FixedPrice
		metadata["old_currency"] = current.Currency
		metadata["new_currency"] = proposed.Currency
		metadata["updated_by"] = who.ID
		return s.appendAudit(ctx, tx, who, auditdomain.Record{
			Action:     auditdomain.ActionPriceConfigUpdated,
			ModuleName: string(module),
			EntityType: auditdomain.EntityPriceConfig,
			EntityID:   string(module),
			Outcome:    fmt.Sprintf("price set to %.2f %s", proposed.FixedPrice, proposed.Currency),
			Metadata:   metadata,
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) GetPriceConfig(ctx context.Context, module string) (*pricingdomain.PriceConfig, error) {
	m, err := servicemodule.Parse(module)
	if err != nil {
		return nil, err
	}
	cfg, err := s.prices.FindByModule(ctx, s.db, m)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, pricingdomain.ErrNotFound
	}
	return cfg, nil
}

func (s *Service) ListPriceConfigs(ctx context.Context) ([]pricingdomain.PriceConfig, error) {
	return s.prices.List(ctx, s.db)
}

// PreviewBreakdown prices basePrice, or the module's fixed price when it is
// omitted, with the tax rate currently in force.
func (s *Service) PreviewBreakdown(ctx context.Context, req domain.PreviewBreakdownRequest) (domain.BreakdownPreview, error) {
	cfg, err := s.GetPriceConfig(ctx, req.ServiceModule)
	if err != nil {
		return domain.BreakdownPreview{}, err
	}
	base := cfg.FixedPrice
	if req.BasePrice != nil {
		if err := pricingdomain.ValidateFixedPrice(*req.BasePrice); err != nil {
			return domain.BreakdownPreview{}, err
		}
		base = *req.BasePrice
	}
	taxRate := s.policy.Get().TaxRate
	return domain.BreakdownPreview{
		ServiceModule: string(cfg.ServiceModule),
		Currency:      cfg.Currency,
		TaxRate:       taxRate,
		Visible:       cfg.ShowPriceToUsers && cfg.ShowPriceBreakdown,
		Breakdown:     pricingdomain.ComputeBreakdown(base, cfg.CommissionPercent, taxRate),
	}, nil
}

func (s *Service) ListAuditEntries(ctx context.Context, req auditdomain.ListRequest) (auditdomain.ListResponse, error) {
	if strings.TrimSpace(req.ModuleName) != "" {
		module, err := servicemodule.Parse(req.ModuleName)
		if err != nil {
			return auditdomain.ListResponse{}, err
		}
		req.ModuleName = string(module)
	}
	return s.audit.List(ctx, req)
}

// applyPricePatch validates each patched field, then merges and checks the
// result as a whole.
func applyPricePatch(current pricingdomain.PriceConfig, patch pricingdomain.Patch) (pricingdomain.PriceConfig, error) {
	if patch.FixedPrice != nil {
		if err := pricingdomain.ValidateFixedPrice(*patch.FixedPrice); err != nil {
			return pricingdomain.PriceConfig{}, err
		}
	}
	if patch.CommissionPercent != nil {
		if err := pricingdomain.ValidateCommission(*patch.CommissionPercent); err != nil {
			return pricingdomain.PriceConfig{}, err
		}
	}
	if patch.Currency != nil {
		code, err := pricingdomain.NormalizeCurrency(*patch.Currency)
		if err != nil {
			return pricingdomain.PriceConfig{}, err
		}
		patch.Currency = &code
	}

	proposed := patch.Apply(current)
	if err := pricingdomain.Validate(proposed); err != nil {
		return pricingdomain.PriceConfig{}, err
	}
	return proposed, nil
}

func priceChanges(before, after pricingdomain.PriceConfig) map[string]any {
	changes := map[string]any{}
	record := func(field string, from, to any) {
		if from != to {
			changes[field] = map[string]any{"from": from, "to": to}
		}
	}
	record("fixed_price", before.FixedPrice, after.FixedPrice)
	record("currency", before.Currency, after.Currency)
	record("platform_commission_percent", before.CommissionPercent, after.CommissionPercent)
	record("show_price_to_users", before.ShowPriceToUsers, after.ShowPriceToUsers)
	record("show_price_breakdown", before.ShowPriceBreakdown, after.ShowPriceBreakdown)
	record("allow_counterparty_pricing", before.AllowCounterpartyPricing, after.AllowCounterpartyPricing)
	return changes
}
