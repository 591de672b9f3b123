package observability

import (
	"math"
	"strings"

	"github.com/smallbiznis/rendezvous/internal/config"
	"github.com/smallbiznis/rendezvous/internal/observability/logger"
	"github.com/smallbiznis/rendezvous/internal/observability/metrics"
	"github.com/smallbiznis/rendezvous/internal/observability/tracing"
)

const (
	defaultServiceName   = "rendezvous"
	defaultSamplingRatio = 0.1
)

// Config is the telemetry view of config.Config shared by the logger,
// tracer and meter providers.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	LogLevel  string
	LogFormat string

	OtelEnabled          bool
	OtelExporterEndpoint string
	OtelExporterProtocol string
	OtelSamplingRatio    float64
}

// FromAppConfig normalizes the telemetry settings config.Load read.
func FromAppConfig(cfg config.Config) Config {
	t := cfg.Telemetry
	ratio := t.SamplingRatio
	if math.IsNaN(ratio) || ratio < 0 || ratio > 1 {
		ratio = defaultSamplingRatio
	}
	return Config{
		ServiceName:          orDefault(cfg.AppName, defaultServiceName),
		Environment:          strings.TrimSpace(cfg.Environment),
		Version:              strings.TrimSpace(cfg.AppVersion),
		LogLevel:             strings.ToLower(orDefault(t.LogLevel, "info")),
		LogFormat:            strings.ToLower(orDefault(t.LogFormat, "json")),
		OtelEnabled:          t.OTelEnabled,
		OtelExporterEndpoint: strings.TrimSpace(cfg.OTLPEndpoint),
		OtelExporterProtocol: strings.ToLower(orDefault(t.OTLPProtocol, "grpc")),
		OtelSamplingRatio:    ratio,
	}
}

// Debug is on for debug logging and for dev environments.
func (c Config) Debug() bool {
	if strings.EqualFold(strings.TrimSpace(c.LogLevel), "debug") {
		return true
	}
	switch strings.ToLower(strings.TrimSpace(c.Environment)) {
	case "dev", "development", "local", "test":
		return true
	}
	return false
}

func (c Config) Logger() logger.Config {
	return logger.Config{
		ServiceName:         c.ServiceName,
		Environment:         c.Environment,
		Version:             c.Version,
		Level:               c.LogLevel,
		Format:              c.LogFormat,
		Debug:               c.Debug(),
		IncludeCaller:       true,
		IncludeStackOnError: c.Debug(),
	}
}

func (c Config) Tracing() tracing.Config {
	return tracing.Config{
		Enabled:          c.OtelEnabled,
		ServiceName:      c.ServiceName,
		ServiceVersion:   c.Version,
		Environment:      c.Environment,
		ExporterEndpoint: c.OtelExporterEndpoint,
		ExporterProtocol: c.OtelExporterProtocol,
		SamplingRatio:    c.OtelSamplingRatio,
	}
}

func (c Config) Metrics() metrics.Config {
	return metrics.Config{
		Enabled:          c.OtelEnabled,
		ExporterEndpoint: c.OtelExporterEndpoint,
		ExporterProtocol: c.OtelExporterProtocol,
		ServiceName:      c.ServiceName,
		Environment:      c.Environment,
	}
}

func orDefault(value, def string) string {
	if value = strings.TrimSpace(value); value != "" {
		return value
	}
	return def
}
