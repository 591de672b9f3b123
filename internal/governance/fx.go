package governance

import (
	"github.com/smallbiznis/rendezvous/internal/governance/service"
	"go.uber.org/fx"
)

var Module = fx.Module("governance.service",
	fx.Provide(service.NewService),
)
