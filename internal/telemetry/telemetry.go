// Package telemetry sets up OpenTelemetry tracing for calls relayed to the
// backend API.
package telemetry

import (
    "context"
    "fmt"
    "time"

    "go.opentelemetry.io/otel"
    "go.opentelemetry.io/otel/attribute"
    "go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
    "go.opentelemetry.io/otel/propagation"
    "go.opentelemetry.io/otel/sdk/resource"
    sdktrace "go.opentelemetry.io/otel/sdk/trace"
    semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
    "go.opentelemetry.io/otel/trace"
    "google.golang.org/grpc/credentials"
    "google.golang.org/grpc/credentials/insecure"

    "github.com/iliyamo/mutual-help-web/internal/config"
)

type Telemetry struct {
    TracerProvider *sdktrace.TracerProvider
    Tracer         trace.Tracer
}

// New returns a provider that exports to the configured OTLP endpoint, or
// a provider without exporter when tracing is disabled.
func New(ctx context.Context, cfg config.OtelConfig, env string) (*Telemetry, error) {
    if !cfg.Enabled || cfg.Endpoint == "" {
        tp := sdktrace.NewTracerProvider()
        return &Telemetry{TracerProvider: tp, Tracer: tp.Tracer(cfg.ServiceName)}, nil
    }

    opts := []otlptracegrpc.Option{
        otlptracegrpc.WithEndpoint(cfg.Endpoint),
        otlptracegrpc.WithTimeout(5 * time.Second),
    }
    if cfg.Insecure {
        opts = append(opts, otlptracegrpc.WithTLSCredentials(insecure.NewCredentials()))
    } else {
        opts = append(opts, otlptracegrpc.WithTLSCredentials(credentials.NewClientTLSFromCert(nil, "")))
    }
    exporter, err := otlptracegrpc.New(ctx, opts...)
    if err != nil {
        return nil, fmt.Errorf("create otlp exporter: %w", err)
    }

    res, err := resource.New(ctx,
        resource.WithAttributes(
            semconv.ServiceName(cfg.ServiceName),
            attribute.String("environment", env),
        ),
        resource.WithHost(),
    )
    if err != nil {
        return nil, fmt.Errorf("create resource: %w", err)
    }

    rate := cfg.SampleRate
    if rate <= 0 || rate > 1 {
        rate = 0.1
    }
    tp := sdktrace.NewTracerProvider(
        sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
        sdktrace.WithResource(res),
        sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))),
    )
    otel.SetTracerProvider(tp)
    otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
        propagation.TraceContext{},
        propagation.Baggage{},
    ))
    return &Telemetry{TracerProvider: tp, Tracer: tp.Tracer(cfg.ServiceName)}, nil
}

func (t *Telemetry) Shutdown(ctx context.Context) error {
    if t == nil || t.TracerProvider == nil {
        return nil
    }
    ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
    defer cancel()
    if err := t.TracerProvider.Shutdown(ctx); err != nil {
        return fmt.Errorf("shutdown tracer provider: %w", err)
    }
    return nil
}

// TraceID returns the id of the span in ctx, or "".
func TraceID(ctx context.Context) string {
    sc := trace.SpanFromContext(ctx).SpanContext()
    if sc.IsValid() {
        return sc.TraceID().String()
    }
    return ""
}
