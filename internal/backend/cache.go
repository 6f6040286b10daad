package backend

import (
    "context"
    "crypto/sha1"
    "encoding/binary"
    "fmt"
    "log/slog"
    "time"

    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/mutual-help-web/internal/config"
)

// Cache keeps response bodies of cacheable reads.  Keys are
// "resource/ending" paths.  Implementations must never fail a request, so
// errors are swallowed.
type Cache interface {
    Get(ctx context.Context, key string) ([]byte, bool)
    Set(ctx context.Context, key string, body []byte, ttl time.Duration)
    Delete(ctx context.Context, keys ...string)
}

// RedisCache stores bodies in Redis under a hashed key.
type RedisCache struct {
    rdb     *redis.Client
    prefix  string
    maxBody int
}

// NewRedisCache returns nil when caching is disabled or Redis is absent.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) *RedisCache {
    if !cfg.Enabled || rdb == nil {
        return nil
    }
    return &RedisCache{rdb: rdb, prefix: cfg.Prefix, maxBody: cfg.MaxBodyBytes}
}

func (rc *RedisCache) key(path string) string {
    sum := sha1.Sum([]byte("backend:" + path))
    return fmt.Sprintf("%s:%x", rc.prefix, sum[:])
}

func (rc *RedisCache) Get(ctx context.Context, path string) ([]byte, bool) {
    bs, err := rc.rdb.Get(ctx, rc.key(path)).Bytes()
    if err != nil {
        if err != redis.Nil {
            slog.WarnContext(ctx, "cache get", "path", path, "error", err)
        }
        return nil, false
    }
    return decodeEntry(bs)
}

func (rc *RedisCache) Set(ctx context.Context, path string, body []byte, ttl time.Duration) {
    if rc.maxBody > 0 && len(body) > rc.maxBody {
        return
    }
    if err := rc.rdb.Set(ctx, rc.key(path), encodeEntry(body), ttl).Err(); err != nil {
        slog.WarnContext(ctx, "cache set", "path", path, "error", err)
    }
}

func (rc *RedisCache) Delete(ctx context.Context, paths ...string) {
    keys := make([]string, len(paths))
    for i, p := range paths {
        keys[i] = rc.key(p)
    }
    if err := rc.rdb.Del(ctx, keys...).Err(); err != nil {
        slog.WarnContext(ctx, "cache delete", "paths", paths, "error", err)
    }
}

// encodeEntry packs: [4 bytes bodyLen][body]
func encodeEntry(body []byte) []byte {
    out := make([]byte, 4+len(body))
    binary.BigEndian.PutUint32(out[0:4], uint32(len(body)))
    copy(out[4:], body)
    return out
}

func decodeEntry(bs []byte) ([]byte, bool) {
    if len(bs) < 4 {
        return nil, false
    }
    n := int(binary.BigEndian.Uint32(bs[0:4]))
    if 4+n != len(bs) {
        return nil, false
    }
    return bs[4:], true
}
