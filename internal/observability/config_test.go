package observability

import (
	"math"
	"testing"

	"github.com/smallbiznis/rendezvous/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestFromAppConfigDefaults(t *testing.T) {
	cfg := FromAppConfig(config.Config{AppName: " ", Environment: "production", AppVersion: "1.2.0", OTLPEndpoint: "collector:4317"})

	assert.Equal(t, "rendezvous", cfg.ServiceName)
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "1.2.0", cfg.Version)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "collector:4317", cfg.OtelExporterEndpoint)
	assert.Equal(t, "grpc", cfg.OtelExporterProtocol)
	assert.Zero(t, cfg.OtelSamplingRatio)
	assert.False(t, cfg.OtelEnabled)
	assert.False(t, cfg.Debug())
}

func TestFromAppConfigUsesTelemetrySettings(t *testing.T) {
	cfg := FromAppConfig(config.Config{
		AppName:     "rendezvous-admin",
		Environment: "production",
		Telemetry: config.TelemetryConfig{
			LogLevel:      "DEBUG",
			OTelEnabled:   true,
			OTLPProtocol:  "HTTP/protobuf",
			SamplingRatio: 0.5,
		},
	})
	assert.Equal(t, "rendezvous-admin", cfg.ServiceName)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.OtelEnabled)
	assert.Equal(t, "http/protobuf", cfg.OtelExporterProtocol)
	assert.Equal(t, 0.5, cfg.OtelSamplingRatio)
	assert.True(t, cfg.Debug())

	assert.True(t, cfg.Logger().IncludeStackOnError)
	assert.Equal(t, 0.5, cfg.Tracing().SamplingRatio)
	assert.Equal(t, "http/protobuf", cfg.Metrics().ExporterProtocol)
}

func TestFromAppConfigClampsSamplingRatio(t *testing.T) {
	for _, ratio := range []float64{-1, 2, math.NaN()} {
		cfg := FromAppConfig(config.Config{Telemetry: config.TelemetryConfig{SamplingRatio: ratio}})
		assert.Equal(t, 0.1, cfg.OtelSamplingRatio, "%v", ratio)
	}
}

func TestDebugFollowsDevEnvironments(t *testing.T) {
	for _, env := range []string{"dev", "Development", "local", "test"} {
		assert.True(t, Config{Environment: env, LogLevel: "info"}.Debug(), env)
	}
	assert.False(t, Config{Environment: "staging", LogLevel: "info"}.Debug())
}
