// Package observability configures distributed tracing for the pipeline.
// Grounded on intelligencedev-manifold/internal/telemetry/otel.go's
// exporter/resource/TracerProvider wiring, trimmed to the trace-only
// surface this module's go.mod carries (no metrics exporter).
package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
	"go.opentelemetry.io/otel/trace"

	"marketintel/internal/config"
)

// Init configures the global TracerProvider from an OTLP/HTTP exporter
// when cfg.OTLPEndpoint is set; otherwise tracing is a no-op and the
// returned shutdown func does nothing. Mirrors Setup's
// enabled-endpoint gate.
func Init(ctx context.Context, cfg *config.Settings) (func(context.Context) error, error) {
	if cfg.OTLPEndpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	res, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			semconv.DeploymentEnvironment(cfg.DeploymentEnv),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("init resource: %w", err)
	}

	exp, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpoint(cfg.OTLPEndpoint), otlptracehttp.WithInsecure())
	if err != nil {
		return nil, fmt.Errorf("init trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tp.Shutdown, nil
}

// Tracer is the package-wide tracer used to annotate pipeline stages.
func Tracer() trace.Tracer {
	return otel.Tracer("marketintel/orchestrator")
}
