package locker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
)

const (
	defaultLease = 10 * time.Second
	defaultWait  = 5 * time.Second
)

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisConfig tunes the lease.
type RedisConfig struct {
	// Prefix is prepended to every key.
	Prefix string
	// Lease is how long a lock lives if never released.
	Lease time.Duration
	// Wait bounds how long Lock retries a held key.
	Wait time.Duration
}

// Redis is a distributed Locker built on SET NX PX.
type Redis struct {
	client redis.UniversalClient
	prefix string
	lease  time.Duration
	wait   time.Duration
	uuid   generator
}

// NewRedis creates a Redis locker. Each lock is tagged with a token from
// uuid so only its owner can release it.
func NewRedis(client redis.UniversalClient, uuid generator, cfg RedisConfig) *Redis {
	if cfg.Lease <= 0 {
		cfg.Lease = defaultLease
	}
	if cfg.Wait <= 0 {
		cfg.Wait = defaultWait
	}

	return &Redis{
		client: client,
		prefix: cfg.Prefix,
		lease:  cfg.Lease,
		wait:   cfg.Wait,
		uuid:   uuid,
	}
}

// Lock polls SET NX with fibonacci backoff until the lease is taken, the
// wait budget is spent (ErrLockHeld), or ctx is done.
func (r *Redis) Lock(ctx context.Context, key string) (Unlock, error) {
	fk := r.prefix + key
	token := r.uuid.Generate()

	b := retry.NewFibonacci(10 * time.Millisecond)
	b = retry.WithCappedDuration(250*time.Millisecond, b)
	b = retry.WithMaxDuration(r.wait, b)

	err := retry.Do(ctx, b, func(ctx context.Context) error {
		acquired, err := r.client.SetNX(ctx, fk, token, r.lease).Result()
		if err != nil {
			return err
		}
		if !acquired {
			return retry.RetryableError(ErrLockHeld)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
			defer cancel()

			if err := releaseScript.Run(rctx, r.client, []string{fk}, token).Err(); err != nil {
				slog.WarnContext(ctx, "failed to release lock, lease will expire", "key", fk, "error", err)
			}
		})
	}, nil
}
