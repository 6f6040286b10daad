package config

import (
    "os"
    "strconv"
    "time"
)

// RateLimitConfig describes the request budget applied to form posts and
// page views.  Rate requests are allowed per Period with up to Burst extra.
type RateLimitConfig struct {
    Enabled     bool
    Rate        int
    Burst       int
    Period      time.Duration
    KeyStrategy string
    Prefix      string
    FailOpen    bool
    Debug       bool
}

func LoadRateLimitConfig() RateLimitConfig {
    def := RateLimitConfig{
        Enabled:     envBool("RATE_LIMIT_ENABLED", true),
        Rate:        envInt("RATE_LIMIT_RATE", 60),
        Burst:       envInt("RATE_LIMIT_BURST", 20),
        Period:      envDur("RATE_LIMIT_PERIOD", time.Minute),
        KeyStrategy: envStr("RATE_LIMIT_KEY_STRATEGY", "ip_user_route"),
        Prefix:      envStr("RATE_LIMIT_PREFIX", "rl"),
        FailOpen:    envBool("RATE_LIMIT_FAIL_OPEN", true),
        Debug:       envBool("RATE_LIMIT_DEBUG", false),
    }
    if def.Rate < 1 { def.Rate = 1 }
    if def.Burst < def.Rate { def.Burst = def.Rate }
    if def.Period <= 0 { def.Period = time.Minute }
    return def
}

func envStr(k, d string) string { if v := os.Getenv(k); v != "" { return v }; return d }
func envBool(k string, d bool) bool {
    v := os.Getenv(k)
    if v == "" { return d }
    switch v {
    case "1","true","TRUE","True","yes","YES","on","ON": return true
    case "0","false","FALSE","False","no","NO","off","OFF": return false
    }
    return d
}
func envInt(k string, d int) int {
    v := os.Getenv(k); if v == "" { return d }
    if n, err := strconv.Atoi(v); err == nil { return n }
    return d
}
func envDur(k string, d time.Duration) time.Duration {
    v := os.Getenv(k); if v == "" { return d }
    if dur, err := time.ParseDuration(v); err == nil { return dur }
    return d
}
func envFloat(k string, d float64) float64 {
    v := os.Getenv(k); if v == "" { return d }
    if f, err := strconv.ParseFloat(v, 64); err == nil { return f }
    return d
}
