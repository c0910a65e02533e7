package cache

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidTTL is returned when an entry is written with a non-positive TTL.
var ErrInvalidTTL = errors.New("cache: ttl must be positive")

// Cache stores values under string keys until their TTL elapses.
type Cache[V any] interface {
	// Set stores value under key, replacing any previous value and expiry.
	Set(ctx context.Context, key string, value V, ttl time.Duration) error
	// SetIfAbsent stores value only when key holds no live entry and reports
	// whether it did.
	SetIfAbsent(ctx context.Context, key string, value V, ttl time.Duration) (bool, error)
	// Get returns the live value for key with its expiry. A missing or
	// expired key reports found=false and no error.
	Get(ctx context.Context, key string) (value V, expireAt time.Time, found bool, err error)
	// Delete removes key. A missing key is not an error.
	Delete(ctx context.Context, key string) error
}

type clocker interface {
	Now() time.Time
}

var (
	_ Cache[string] = (*Memory[string])(nil)
	_ Cache[string] = (*Redis)(nil)
)
