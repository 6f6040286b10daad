// Package session holds per-browser state (bearer token, role, CSRF token,
// department preference) behind a pluggable key/value store.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by a Store when no entry exists for a key or the
// entry has expired.
var ErrNotFound = errors.New("session not found")

// Store persists session values under an opaque key.  Values are written
// one field at a time so that concurrent requests of the same session never
// overwrite each other's fields.  Set refreshes the lifetime of the whole
// entry.  Take reads and removes a field in one atomic step; at most one
// caller observes ok=true for a given stored value.
type Store interface {
	Load(ctx context.Context, key string) (map[string]string, error)
	Set(ctx context.Context, key, field, value string, ttl time.Duration) error
	Unset(ctx context.Context, key, field string) error
	Take(ctx context.Context, key, field string) (value string, ok bool, err error)
	Delete(ctx context.Context, key string) error
}

// Pinger is implemented by stores that can report their own health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StoreError reports a failed store operation.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("session store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
