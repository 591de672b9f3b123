package observability

import (
	"github.com/smallbiznis/rendezvous/internal/observability/logger"
	"github.com/smallbiznis/rendezvous/internal/observability/metrics"
	"github.com/smallbiznis/rendezvous/internal/observability/tracing"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
)

// Module derives every telemetry config from config.Config, so no
// provider reads the environment on its own.
var Module = fx.Module("observability",
	fx.Provide(
		FromAppConfig,
		Config.Logger,
		Config.Tracing,
		Config.Metrics,
		logger.New,
		tracing.NewProvider,
		metrics.NewProvider,
		metrics.New,
		metrics.NewHTTPMetrics,
	),
	// The tracer provider installs the global propagator; force it on start.
	fx.Invoke(func(*sdktrace.TracerProvider) {}),
)
