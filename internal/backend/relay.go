package backend

import (
    "bytes"
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "io"
    "net/http"
    "slices"
    "time"

    "go.opentelemetry.io/otel"
    "go.opentelemetry.io/otel/attribute"
    "go.opentelemetry.io/otel/codes"
    "go.opentelemetry.io/otel/propagation"
    "go.opentelemetry.io/otel/trace"
)

// Outcome is the terminal state of one relayed request.
type Outcome int

const (
    OK Outcome = iota
    Unauthorized
    Failed
)

func (o Outcome) String() string {
    switch o {
    case OK:
        return "ok"
    case Unauthorized:
        return "unauthorized"
    }
    return "failed"
}

var (
    ErrUnauthorized     = errors.New("backend: unauthorized")
    ErrUnexpectedStatus = errors.New("backend: unexpected status")
)

const maxResponseBytes = 16 << 20

// Empty is the value of a call whose success carries no body.
type Empty struct{}

// Call describes one request to the API.
type Call struct {
    Resource string // first path segment, e.g. "ads"
    Method   string
    Ending   string // rest of the path, may be ""
    Token    string // bearer token; omitted when empty
    Success  []int  // status codes meaning success; defaults to 200
    Body     any    // JSON encoded when non-nil

    Cacheable  bool     // GET whose body may be served from the read cache
    Invalidate []string // cache entries ("resource/ending") dropped on success
}

func (c Call) path() string { return c.Resource + "/" + c.Ending }

// Result is what Do returns.  Value is only meaningful when Outcome is OK.
// Status is 0 when no response was received.
type Result[T any] struct {
    Outcome Outcome
    Value   T
    Status  int
    Err     error
}

func (r Result[T]) OK() bool { return r.Outcome == OK }

// Do performs call once: no retry, the client timeout bounds it.  A 401
// yields Unauthorized, any status outside call.Success, a transport error
// or an undecodable body yields Failed.
func Do[T any](ctx context.Context, c *Client, call Call) (res Result[T]) {
    if len(call.Success) == 0 {
        call.Success = []int{http.StatusOK}
    }
    start := time.Now()
    ctx, span := c.tracer.Start(ctx, "backend "+call.Method+" "+call.Resource,
        trace.WithSpanKind(trace.SpanKindClient),
        trace.WithAttributes(
            attribute.String("http.request.method", call.Method),
            attribute.String("url.path", "/"+call.path()),
        ))
    defer func() {
        observe(call, res.Outcome, time.Since(start))
        span.SetAttributes(attribute.Int("http.response.status_code", res.Status))
        if res.Err != nil {
            span.RecordError(res.Err)
            span.SetStatus(codes.Error, res.Outcome.String())
            c.log.WarnContext(ctx, "backend call failed",
                "resource", call.Resource, "method", call.Method, "path", call.path(),
                "status", res.Status, "outcome", res.Outcome.String(), "error", res.Err)
        }
        span.End()
    }()

    if call.Cacheable && c.cache != nil && call.Method == http.MethodGet {
        if raw, ok := c.cache.Get(ctx, call.path()); ok {
            var v T
            if err := decode(raw, &v); err == nil {
                cacheLookups.WithLabelValues("hit").Inc()
                return Result[T]{Outcome: OK, Value: v, Status: http.StatusOK}
            }
        }
        cacheLookups.WithLabelValues("miss").Inc()
    }

    var body io.Reader
    if call.Body != nil {
        bs, err := json.Marshal(call.Body)
        if err != nil {
            return Result[T]{Outcome: Failed, Err: fmt.Errorf("encode %s body: %w", call.path(), err)}
        }
        body = bytes.NewReader(bs)
    }
    req, err := http.NewRequestWithContext(ctx, call.Method, c.url(call.Resource, call.Ending), body)
    if err != nil {
        return Result[T]{Outcome: Failed, Err: err}
    }
    req.Header.Set("Accept", "application/json")
    if call.Body != nil {
        req.Header.Set("Content-Type", "application/json")
    }
    if call.Token != "" {
        req.Header.Set("Authorization", "Bearer "+call.Token)
    }
    otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

    resp, err := c.http.Do(req)
    if err != nil {
        return Result[T]{Outcome: Failed, Err: err}
    }
    defer resp.Body.Close()
    raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
    if err != nil {
        return Result[T]{Outcome: Failed, Status: resp.StatusCode, Err: err}
    }

    switch {
    case resp.StatusCode == http.StatusUnauthorized:
        return Result[T]{Outcome: Unauthorized, Status: resp.StatusCode, Err: ErrUnauthorized}
    case !slices.Contains(call.Success, resp.StatusCode):
        return Result[T]{Outcome: Failed, Status: resp.StatusCode,
            Err: fmt.Errorf("%w %d from %s %s", ErrUnexpectedStatus, resp.StatusCode, call.Method, call.path())}
    }

    var v T
    if err := decode(raw, &v); err != nil {
        return Result[T]{Outcome: Failed, Status: resp.StatusCode, Err: fmt.Errorf("decode %s: %w", call.path(), err)}
    }
    if c.cache != nil {
        if call.Cacheable && call.Method == http.MethodGet {
            c.cache.Set(ctx, call.path(), raw, c.cacheTTL)
        }
        if len(call.Invalidate) > 0 {
            c.cache.Delete(ctx, call.Invalidate...)
        }
    }
    return Result[T]{Outcome: OK, Value: v, Status: resp.StatusCode}
}

// decode fills v from a JSON body.  Empty targets accept any body.
func decode[T any](raw []byte, v *T) error {
    if _, ok := any(v).(*Empty); ok {
        return nil
    }
    return json.Unmarshal(raw, v)
}
