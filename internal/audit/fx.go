package audit

import (
	auditdomain "github.com/smallbiznis/rendezvous/internal/audit/domain"
	"github.com/smallbiznis/rendezvous/internal/audit/repository"
	"github.com/smallbiznis/rendezvous/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
	fx.Provide(func(svc auditdomain.Service) auditdomain.Sink { return svc }),
)
