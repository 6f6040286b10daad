package config

import "time"

// CacheConfig defines settings for the backend read cache.  Only reference
// data that every visitor sees (countries and their departments, the
// department list) is cached.  When Enabled is false or no Redis client is
// configured, every read goes to the backend.
type CacheConfig struct {
    Enabled      bool
    TTL          time.Duration
    Prefix       string
    MaxBodyBytes int
}

// LoadCacheConfig reads environment variables to build a CacheConfig.
func LoadCacheConfig() CacheConfig {
    c := CacheConfig{
        Enabled:      envBool("CACHE_ENABLED", true),
        TTL:          envDur("CACHE_TTL", 5*time.Minute),
        Prefix:       envStr("CACHE_PREFIX", "cache"),
        MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1048576),
    }
    if c.TTL <= 0 {
        c.TTL = 5 * time.Minute
    }
    return c
}
