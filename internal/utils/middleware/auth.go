package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/orderledger/server/internal/model"
	"github.com/orderledger/server/internal/port/outbound"
	apperrors "github.com/orderledger/server/internal/utils/errors"
)

const (
	// AuthorizationHeader is the header key for authorization.
	AuthorizationHeader = "Authorization"
	// BearerPrefix is the prefix for bearer tokens.
	BearerPrefix = "Bearer "
	// ActorKey is the context key for the acting user.
	ActorKey = "actor"
)

// TokenValidator validates bearer tokens.
type TokenValidator interface {
	ValidateAccessToken(token string) (*outbound.TokenClaims, error)
}

// Auth attributes each request to an actor. Tokens are only used to tell who
// acted; no permission is checked here. With required unset, requests without
// a valid token continue as the anonymous actor.
func Auth(validator TokenValidator, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c)
		if token == "" || validator == nil {
			if required {
				abortUnauthorized(c, "authorization header required")
				return
			}
			c.Set(ActorKey, anonymous())
			c.Next()
			return
		}

		claims, err := validator.ValidateAccessToken(token)
		if err != nil {
			if required {
				abortUnauthorized(c, "invalid or expired token")
				return
			}
			c.Set(ActorKey, anonymous())
			c.Next()
			return
		}

		c.Set(ActorKey, &model.UserContext{UserID: claims.UserID, Role: claims.Role})
		c.Next()
	}
}

func anonymous() *model.UserContext {
	return &model.UserContext{Role: model.RoleAnonymous}
}

func abortUnauthorized(c *gin.Context, message string) {
	appErr := apperrors.Unauthorized(message)
	c.AbortWithStatusJSON(http.StatusUnauthorized, appErr.ToResponse())
}

// extractBearerToken extracts the bearer token from the Authorization header.
func extractBearerToken(c *gin.Context) string {
	authHeader := c.GetHeader(AuthorizationHeader)
	if strings.HasPrefix(authHeader, BearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, BearerPrefix))
	}
	return ""
}

// GetActor returns the actor set by Auth, or the anonymous actor.
func GetActor(c *gin.Context) *model.UserContext {
	if val, exists := c.Get(ActorKey); exists {
		if actor, ok := val.(*model.UserContext); ok {
			return actor
		}
	}
	return anonymous()
}
