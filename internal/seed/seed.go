package seed

import (
	"context"
	"errors"

	"github.com/smallbiznis/rendezvous/internal/auditcontext"
	"github.com/smallbiznis/rendezvous/internal/config"
	"github.com/smallbiznis/rendezvous/internal/governance/domain"
	pricingdomain "github.com/smallbiznis/rendezvous/internal/pricing/domain"
	"go.uber.org/zap"
)

const systemActor = "system"

// EnsurePriceConfigs provisions the default price of every module that has
// none yet. Existing configs are left untouched.
func EnsurePriceConfigs(ctx context.Context, svc domain.Service, defaults []config.DefaultPrice, log *zap.Logger) (int, error) {
	if svc == nil {
		return 0, errors.New("seed governance service is required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	ctx = auditcontext.WithActor(ctx, auditcontext.ActorTypeSystem, systemActor)

	created := 0
	for _, price := range defaults {
		_, err := svc.ProvisionPriceConfig(ctx, domain.ProvisionPriceConfigRequest{
			ServiceModule:      price.Module,
			FixedPrice:         price.FixedPrice,
			Currency:           price.Currency,
			CommissionPercent:  price.CommissionPercent,
			ShowPriceToUsers:   true,
			ShowPriceBreakdown: true,
		})
		if errors.Is(err, pricingdomain.ErrAlreadyProvisioned) {
			continue
		}
		if err != nil {
			return created, err
		}
		created++
		log.Info("provisioned default price config", zap.String("service_module", price.Module))
	}
	return created, nil
}
