package outbound

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TokenClaims represents the attribution claims carried by a bearer token.
type TokenClaims struct {
	UserID uuid.UUID
	Role   string
}

// TokenPort issues and validates bearer tokens.
type TokenPort interface {
	GenerateAccessToken(userID uuid.UUID, role string) (string, time.Time, error)
	ValidateAccessToken(token string) (*TokenClaims, error)
}

// RateLimiterPort defines rate limiting operations.
type RateLimiterPort interface {
	// Allow checks if a request is allowed within rate limits.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)

	// AllowN checks if N requests are allowed.
	AllowN(ctx context.Context, key string, n int, limit int, window time.Duration) (bool, error)

	// GetRemaining returns remaining requests in window.
	GetRemaining(ctx context.Context, key string, limit int, window time.Duration) (int, error)
}
