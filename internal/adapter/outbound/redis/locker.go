package redis

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"github.com/orderledger/server/internal/port/outbound"
)

const lockKeyPrefix = "lock:"

// locker implements outbound.LockerPort.
type locker struct {
	client *redislock.Client
}

// NewLocker creates a distributed locker on top of client.
func NewLocker(client redis.UniversalClient) outbound.LockerPort {
	return &locker{client: redislock.New(client)}
}

// Obtain makes a single attempt to take key. A key held elsewhere yields
// outbound.ErrLockNotObtained.
func (l *locker) Obtain(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	lock, err := l.client.Obtain(ctx, lockKeyPrefix+key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, outbound.ErrLockNotObtained
	}
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context) error {
		err := lock.Release(ctx)
		if errors.Is(err, redislock.ErrLockNotHeld) {
			// Expired before release; nothing to undo.
			return nil
		}
		return err
	}, nil
}

// Compile-time check
var _ outbound.LockerPort = (*locker)(nil)
