package dispute

import (
	"github.com/smallbiznis/rendezvous/internal/dispute/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("dispute.repository",
	fx.Provide(repository.Provide),
)
