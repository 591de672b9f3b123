package providers

import (
	"github.com/smallbiznis/rendezvous/internal/providers/email"
	"github.com/smallbiznis/rendezvous/internal/providers/transfer"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	email.Module,
	transfer.Module,
)
