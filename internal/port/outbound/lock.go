package outbound

import (
	"context"
	"errors"
	"time"
)

// ErrLockNotObtained is returned when another holder owns the lock.
var ErrLockNotObtained = errors.New("lock not obtained")

// LockerPort provides short-lived distributed locks.
type LockerPort interface {
	// Obtain acquires key for ttl and returns a release function.
	Obtain(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, err error)
}
