package locker

import (
	"context"
	"errors"
)

// ErrLockHeld is returned when a lease could not be taken before the wait
// budget ran out.
var ErrLockHeld = errors.New("locker: lock is held by another owner")

// Unlock releases a lock. Calling it more than once is a no-op.
type Unlock func()

// Locker grants exclusive access to a key.
type Locker interface {
	// Lock blocks until key is held or ctx is done.
	Lock(ctx context.Context, key string) (Unlock, error)
}

type generator interface {
	Generate() string
}

var (
	_ Locker = (*Memory)(nil)
	_ Locker = (*Redis)(nil)
)
