package config

// This file defines the Redis client constructor.  Redis backs sessions,
// the backend read cache and rate limiting.  If the server cannot be reached
// at startup the constructor returns an error so that callers can decide
// whether to degrade (cache, rate limits) or stop (Redis session store).

import (
    "context"
    "fmt"
    "time"

    "github.com/redis/go-redis/v9"
)

// NewRedisClient parses a redis:// or rediss:// URL, connects and pings the
// server with a short timeout.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
    opts, err := redis.ParseURL(url)
    if err != nil {
        return nil, fmt.Errorf("parse redis url: %w", err)
    }
    client := redis.NewClient(opts)

    pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
    defer cancel()
    if err := client.Ping(pingCtx).Err(); err != nil {
        _ = client.Close()
        return nil, fmt.Errorf("ping redis: %w", err)
    }
    return client, nil
}
