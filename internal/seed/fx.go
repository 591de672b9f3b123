package seed

import (
	"context"

	"github.com/smallbiznis/rendezvous/internal/config"
	"github.com/smallbiznis/rendezvous/internal/governance/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("seed",
	fx.Invoke(register),
)

type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    config.Config
	Policy    *config.GovernancePolicyHolder
	Service   domain.Service
	Log       *zap.Logger
}

func register(p Params) {
	if !p.Config.Seed.EnsurePriceConfigs {
		return
	}
	log := p.Log.Named("seed")
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			_, err := EnsurePriceConfigs(ctx, p.Service, p.Policy.Get().DefaultPrices, log)
			return err
		},
	})
}
