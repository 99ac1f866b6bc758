// Package telemetry sets up OpenTelemetry tracing for parley
package telemetry

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	serviceName = "parley"
	tracerName  = "github.com/cchalm/parley"
)

// Version is reported as the service version; it is overwritten at startup with the build's version
var Version = "dev"

// TelemetryConfig holds the configuration for telemetry
type TelemetryConfig struct {
	Enabled bool
	// OTLP/HTTP collector URL, e.g. http://localhost:4318
	Endpoint string
}

// Provider hands out the tracer used across parley. When telemetry is disabled the tracer records nothing.
type Provider struct {
	tracerProvider trace.TracerProvider
	sdkProvider    *sdktrace.TracerProvider // nil when disabled
	exporter       *otlptrace.Exporter
}

// NewProvider creates a new telemetry provider
func NewProvider(ctx context.Context, config TelemetryConfig) (*Provider, error) {
	if !config.Enabled {
		return &Provider{tracerProvider: noop.NewTracerProvider()}, nil
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(config.Endpoint))
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}
	res, err := resource.New(ctx,
		resource.WithTelemetrySDK(),
		resource.WithAttributes(
			attribute.String("service.name", serviceName),
			attribute.String("service.version", Version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create telemetry resource: %w", err)
	}
	sdkProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	log.Printf("Telemetry enabled, exporting traces to %s", config.Endpoint)

	return &Provider{
		tracerProvider: sdkProvider,
		sdkProvider:    sdkProvider,
		exporter:       exporter,
	}, nil
}

// Enabled reports whether spans are exported anywhere
func (p *Provider) Enabled() bool {
	return p.exporter != nil
}

// Tracer returns parley's tracer
func (p *Provider) Tracer() trace.Tracer {
	return p.tracerProvider.Tracer(tracerName)
}

// Shutdown flushes pending spans and shuts down the telemetry provider
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.sdkProvider == nil {
		return nil
	}
	if err := p.sdkProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down tracer provider: %w", err)
	}
	return nil
}

// NewSessionID generates an ID that ties together the spans of one interactive session
func NewSessionID() string {
	return uuid.New().String()
}

// SessionAttribute tags a span with the interactive session it belongs to
func SessionAttribute(sessionID string) attribute.KeyValue {
	return attribute.String("session.id", sessionID)
}
