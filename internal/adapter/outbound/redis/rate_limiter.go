package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/orderledger/server/internal/port/outbound"
)

const rateLimitKeyPrefix = "ratelimit:"

// slidingWindow trims the window, then admits ARGV[4] hits only if they fit.
// Scores are microseconds so they stay exact as float64.
// Returns {admitted, remaining}.
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local n = tonumber(ARGV[4])
redis.call('ZREMRANGEBYSCORE', key, 0, now - window)
local count = redis.call('ZCARD', key)
if n == 0 or count + n > limit then
  return {0, math.max(limit - count, 0)}
end
for i = 1, n do
  redis.call('ZADD', key, now, ARGV[4 + i])
end
redis.call('PEXPIRE', key, math.ceil(window / 1000))
return {1, limit - count - n}
`)

// rateLimiter implements outbound.RateLimiterPort with a sliding window
// kept in one sorted set per key.
type rateLimiter struct {
	client redis.UniversalClient
}

// NewRateLimiter creates a new rate limiter adapter.
func NewRateLimiter(client redis.UniversalClient) outbound.RateLimiterPort {
	return &rateLimiter{client: client}
}

func (r *rateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	return r.AllowN(ctx, key, 1, limit, window)
}

func (r *rateLimiter) AllowN(ctx context.Context, key string, n int, limit int, window time.Duration) (bool, error) {
	admitted, _, err := r.run(ctx, key, n, limit, window)
	return admitted, err
}

func (r *rateLimiter) GetRemaining(ctx context.Context, key string, limit int, window time.Duration) (int, error) {
	_, remaining, err := r.run(ctx, key, 0, limit, window)
	return remaining, err
}

func (r *rateLimiter) run(ctx context.Context, key string, n, limit int, window time.Duration) (bool, int, error) {
	args := make([]any, 0, 4+n)
	args = append(args, time.Now().UnixMicro(), window.Microseconds(), limit, n)
	for i := 0; i < n; i++ {
		args = append(args, uuid.NewString())
	}

	res, err := slidingWindow.Run(ctx, r.client, []string{rateLimitKeyPrefix + key}, args...).Int64Slice()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit %s: %w", key, err)
	}
	if len(res) != 2 {
		return false, 0, fmt.Errorf("rate limit %s: unexpected reply %v", key, res)
	}
	return res[0] == 1, int(res[1]), nil
}

// Compile-time check
var _ outbound.RateLimiterPort = (*rateLimiter)(nil)
