package middleware

import (
    "context"
    "fmt"
    "log/slog"
    "math"
    "net/http"
    "strconv"
    "strings"
    "sync"
    "time"

    redis_rate "github.com/go-redis/redis_rate/v10"
    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "golang.org/x/time/rate"

    "github.com/iliyamo/mutual-help-web/internal/config"
)

// RateLimiter limits requests per key.  It uses Redis when available and
// falls back to an in-process limiter when Redis is absent or failing.
type RateLimiter struct {
    cfg      config.RateLimitConfig
    limit    redis_rate.Limit
    redis    *redis_rate.Limiter
    fallback *localLimiter
}

func NewRateLimiter(cfg config.RateLimitConfig, rdb *redis.Client) *RateLimiter {
    rl := &RateLimiter{
        cfg:      cfg,
        limit:    redis_rate.Limit{Rate: cfg.Rate, Burst: cfg.Burst, Period: cfg.Period},
        fallback: &localLimiter{},
    }
    if rdb != nil {
        rl.redis = redis_rate.NewLimiter(rdb)
    }
    return rl
}

// Middleware returns the echo middleware; a disabled limiter passes
// everything through.
func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
    if !rl.cfg.Enabled {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := buildRateKey(rl.cfg, c)
            res, err := rl.allow(c.Request().Context(), key)
            if err != nil {
                if rl.cfg.FailOpen {
                    slog.Warn("rate limiter error, failing open", "key", key, "error", err)
                    return next(c)
                }
                return c.String(http.StatusServiceUnavailable, "service unavailable")
            }

            h := c.Response().Header()
            h.Set("X-RateLimit-Limit", strconv.Itoa(rl.limit.Rate))
            h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
            if rl.cfg.Debug {
                h.Set("X-RateLimit-Key", key)
            }

            if res.Allowed == 0 {
                secs := int(math.Ceil(res.RetryAfter.Seconds()))
                if secs < 1 {
                    secs = 1
                }
                h.Set("Retry-After", strconv.Itoa(secs))
                return c.String(http.StatusTooManyRequests, "too many requests, retry in "+strconv.Itoa(secs)+"s")
            }
            return next(c)
        }
    }
}

func (rl *RateLimiter) allow(ctx context.Context, key string) (*redis_rate.Result, error) {
    if rl.redis != nil {
        res, err := rl.redis.Allow(ctx, key, rl.limit)
        if err == nil {
            return res, nil
        }
        if rl.cfg.Debug {
            slog.Warn("rate limiter redis error, using local limiter", "key", key, "error", err)
        }
    }
    return rl.fallback.allow(key, rl.limit, time.Now())
}

func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
    parts := []string{cfg.Prefix}
    ip := c.RealIP()
    if ip == "" {
        ip = "unknown"
    }
    uid := currentUserID(c)
    route := c.Request().Method + " " + c.Path()

    switch strings.ToLower(cfg.KeyStrategy) {
    case "ip":
        parts = append(parts, "ip", ip)
    case "user":
        parts = append(parts, "user", uid)
    case "route":
        parts = append(parts, "route", route)
    case "ip_user":
        parts = append(parts, "ip", ip, "user", uid)
    case "ip_route":
        parts = append(parts, "ip", ip, "route", route)
    case "user_route":
        parts = append(parts, "user", uid, "route", route)
    default:
        parts = append(parts, "ip", ip, "user", uid, "route", route)
    }
    return strings.Join(parts, ":")
}

type limiterEntry struct {
    limiter    *rate.Limiter
    lastAccess time.Time
}

// localLimiter keeps one token bucket per key.  Idle buckets are dropped
// lazily on access.
type localLimiter struct {
    mu       sync.Mutex
    limiters map[string]*limiterEntry
    swept    time.Time
}

const localEntryTTL = 10 * time.Minute

func (l *localLimiter) allow(key string, limit redis_rate.Limit, now time.Time) (*redis_rate.Result, error) {
    if limit.Period <= 0 || limit.Rate <= 0 {
        return nil, fmt.Errorf("invalid limit %v", limit)
    }
    perSec := float64(limit.Rate) / limit.Period.Seconds()

    l.mu.Lock()
    defer l.mu.Unlock()
    if l.limiters == nil {
        l.limiters = map[string]*limiterEntry{}
    }
    if now.Sub(l.swept) > localEntryTTL {
        for k, e := range l.limiters {
            if now.Sub(e.lastAccess) > localEntryTTL {
                delete(l.limiters, k)
            }
        }
        l.swept = now
    }
    e, ok := l.limiters[key]
    if !ok {
        e = &limiterEntry{limiter: rate.NewLimiter(rate.Limit(perSec), limit.Burst)}
        l.limiters[key] = e
    }
    e.lastAccess = now

    res := &redis_rate.Result{Limit: limit, RetryAfter: -1, ResetAfter: time.Duration(float64(time.Second) / perSec)}
    if e.limiter.AllowN(now, 1) {
        res.Allowed = 1
    } else {
        res.RetryAfter = time.Duration(float64(time.Second) / perSec)
    }
    res.Remaining = max(int(e.limiter.TokensAt(now)), 0)
    return res, nil
}
