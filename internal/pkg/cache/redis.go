package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a Cache of strings backed by a Redis server.
type Redis struct {
	client redis.UniversalClient
	prefix string
	clock  clocker
}

// NewRedis creates a Redis cache. Every key is stored under prefix.
func NewRedis(client redis.UniversalClient, prefix string, clock clocker) *Redis {
	return &Redis{client: client, prefix: prefix, clock: clock}
}

// Set stores value under key with SET PX.
func (r *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrInvalidTTL
	}

	return r.client.Set(ctx, r.prefix+key, value, ttl).Err()
}

// SetIfAbsent stores value under key with SET NX PX.
func (r *Redis) SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return false, ErrInvalidTTL
	}

	return r.client.SetNX(ctx, r.prefix+key, value, ttl).Result()
}

// Delete removes key with DEL.
func (r *Redis) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.prefix+key).Err()
}

// Get reads the value and its remaining TTL in one MULTI/EXEC round trip.
func (r *Redis) Get(ctx context.Context, key string) (string, time.Time, bool, error) {
	var get *redis.StringCmd
	var pttl *redis.DurationCmd

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		get = pipe.Get(ctx, r.prefix+key)
		pttl = pipe.PTTL(ctx, r.prefix+key)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", time.Time{}, false, err
	}

	value, err := get.Result()
	if errors.Is(err, redis.Nil) {
		return "", time.Time{}, false, nil
	}
	if err != nil {
		return "", time.Time{}, false, err
	}

	// A key written without expiry reports a negative PTTL.
	var expireAt time.Time
	if ttl := pttl.Val(); ttl > 0 {
		expireAt = r.clock.Now().Add(ttl)
	}

	return value, expireAt, true, nil
}
