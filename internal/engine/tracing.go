package engine

import (
	"github.com/kestrelhttp/core/internal/config"
	"github.com/kestrelhttp/core/internal/tracing"
)

// initTracingFromConfig adapts config.TracingConfig to
// tracing.TracingConfig and bootstraps OpenTelemetry export.
func initTracingFromConfig(cfg config.TracingConfig) (func(), error) {
	return tracing.InitTracing(tracing.TracingConfig{
		ServiceName:    cfg.ServiceName,
		ServiceVersion: cfg.ServiceVersion,
		Environment:    cfg.Environment,
		JaegerEndpoint: cfg.JaegerEndpoint,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplingRatio:  cfg.SamplingRatio,
		Enabled:        cfg.Enabled,
	})
}
