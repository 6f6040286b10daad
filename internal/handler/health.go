package handler

import (
    "context"
    "net/http"
    "sync"
    "sync/atomic"
    "time"

    "github.com/labstack/echo/v4"
)

// Checker is a dependency the readiness probe pings.
type Checker interface {
    Ping(ctx context.Context) error
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
    checks       map[string]Checker
    timeout      time.Duration
    shuttingDown atomic.Bool
}

func NewHealthHandler(checks map[string]Checker) *HealthHandler {
    return &HealthHandler{checks: checks, timeout: 2 * time.Second}
}

// SetShuttingDown makes readiness fail so load balancers drain the
// instance before the server stops.
func (h *HealthHandler) SetShuttingDown() { h.shuttingDown.Store(true) }

type healthStatus struct {
    Status string            `json:"status"`
    Checks map[string]string `json:"checks,omitempty"`
}

// Liveness answers as long as the process serves requests.
func (h *HealthHandler) Liveness(c echo.Context) error {
    return c.JSON(http.StatusOK, healthStatus{Status: "ok"})
}

// Readiness pings every dependency concurrently.  Any failure, or a
// shutdown in progress, answers 503.
func (h *HealthHandler) Readiness(c echo.Context) error {
    if h.shuttingDown.Load() {
        return c.JSON(http.StatusServiceUnavailable, healthStatus{Status: "shutting down"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
    defer cancel()

    var (
        mu      sync.Mutex
        wg      sync.WaitGroup
        results = make(map[string]string, len(h.checks))
        healthy = true
    )
    for name, chk := range h.checks {
        wg.Add(1)
        go func() {
            defer wg.Done()
            state := "ok"
            if err := chk.Ping(ctx); err != nil {
                state = err.Error()
            }
            mu.Lock()
            defer mu.Unlock()
            results[name] = state
            if state != "ok" {
                healthy = false
            }
        }()
    }
    wg.Wait()

    if !healthy {
        return c.JSON(http.StatusServiceUnavailable, healthStatus{Status: "unavailable", Checks: results})
    }
    return c.JSON(http.StatusOK, healthStatus{Status: "ok", Checks: results})
}
