package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderledger/server/internal/port/outbound"
)

// newTestClient connects to REDIS_ADDR or skips.
func newTestClient(t *testing.T) redis.UniversalClient {
	t.Helper()
	if os.Getenv("INTEGRATION_TESTS") == "" {
		t.Skip("set INTEGRATION_TESTS=1 and REDIS_ADDR to run redis tests")
	}
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())
	return client
}

func TestLocker(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	l := NewLocker(client)
	key := "test:" + uuid.NewString()

	release, err := l.Obtain(ctx, key, 5*time.Second)
	require.NoError(t, err)

	_, err = l.Obtain(ctx, key, 5*time.Second)
	assert.ErrorIs(t, err, outbound.ErrLockNotObtained)

	require.NoError(t, release(ctx))
	again, err := l.Obtain(ctx, key, 5*time.Second)
	require.NoError(t, err)
	require.NoError(t, again(ctx))
	assert.NoError(t, again(ctx), "releasing twice is harmless")
}

func TestRateLimiter(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	limiter := NewRateLimiter(client)
	key := "test:" + uuid.NewString()

	for i := 0; i < 3; i++ {
		ok, err := limiter.Allow(ctx, key, 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := limiter.Allow(ctx, key, 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	remaining, err := limiter.GetRemaining(ctx, key, 3, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)

	other := "test:" + uuid.NewString()
	ok, err = limiter.AllowN(ctx, other, 4, 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
	remaining, err = limiter.GetRemaining(ctx, other, 3, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 3, remaining)
}
