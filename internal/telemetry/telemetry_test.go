package telemetry

import (
    "context"
    "testing"

    "github.com/iliyamo/mutual-help-web/internal/config"
)

func TestDisabledProviderRecordsLocally(t *testing.T) {
    ctx := context.Background()
    tel, err := New(ctx, config.OtelConfig{ServiceName: "test"}, "dev")
    if err != nil {
        t.Fatalf("New: %v", err)
    }
    defer tel.Shutdown(ctx)

    if TraceID(ctx) != "" {
        t.Fatal("trace id outside a span")
    }
    ctx, span := tel.Tracer.Start(ctx, "op")
    defer span.End()
    if TraceID(ctx) == "" {
        t.Fatal("no trace id inside a span")
    }
}
