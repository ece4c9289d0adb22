package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"

	"github.com/orderledger/server/internal/port/outbound"
	apperrors "github.com/orderledger/server/internal/utils/errors"
)

const (
	// IdempotencyKeyHeader carries the client's retry key.
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotentReplayHeader is set on responses served from the cache.
	IdempotentReplayHeader = "Idempotent-Replayed"

	idempotencyKeyPrefix  = "idempotency:"
	defaultIdempotencyTTL = 24 * time.Hour
	idempotencyLockTTL    = 30 * time.Second
	maxIdempotencyKeyLen  = 255
)

// IdempotencyConfig holds idempotency middleware configuration.
type IdempotencyConfig struct {
	TTL time.Duration
}

// storedResponse is a completed response kept for replay.
type storedResponse struct {
	BodyHash    string `json:"body_hash"`
	StatusCode  int    `json:"status_code"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// captureWriter tees the response body.
type captureWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Idempotency replays the stored response of a request that carried the same
// Idempotency-Key for the same route and actor. Reusing a key with a different
// body is rejected. Server errors are not stored so they can be retried.
// Without Redis the middleware is a pass-through.
func Idempotency(store goredis.UniversalClient, locker outbound.LockerPort, cfg IdempotencyConfig) gin.HandlerFunc {
	if cfg.TTL <= 0 {
		cfg.TTL = defaultIdempotencyTTL
	}

	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if store == nil || key == "" {
			c.Next()
			return
		}
		if len(key) > maxIdempotencyKeyLen {
			abortWith(c, apperrors.BadRequest("Idempotency-Key is too long"))
			return
		}

		ctx := c.Request.Context()
		bodyHash, err := hashBody(c)
		if err != nil {
			abortWith(c, apperrors.BadRequest("unreadable request body"))
			return
		}
		cacheKey := idempotencyCacheKey(c, key)

		if stored, ok := loadResponse(c, store, cacheKey); ok {
			replay(c, stored, bodyHash)
			return
		}

		if locker != nil {
			release, err := locker.Obtain(ctx, cacheKey, idempotencyLockTTL)
			if errors.Is(err, outbound.ErrLockNotObtained) {
				abortWith(c, apperrors.NewAppError("REQUEST_IN_PROGRESS",
					"a request with this idempotency key is already being processed",
					http.StatusConflict, apperrors.ErrConflict))
				return
			}
			if err == nil {
				defer func() { _ = release(ctx) }()
				// A concurrent holder may have finished while we waited.
				if stored, ok := loadResponse(c, store, cacheKey); ok {
					replay(c, stored, bodyHash)
					return
				}
			}
		}

		w := &captureWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = w
		c.Next()

		status := w.Status()
		if status >= http.StatusInternalServerError {
			return
		}
		data, err := json.Marshal(storedResponse{
			BodyHash:    bodyHash,
			StatusCode:  status,
			ContentType: w.Header().Get("Content-Type"),
			Body:        w.body.Bytes(),
		})
		if err == nil {
			_ = store.Set(ctx, cacheKey, data, cfg.TTL).Err()
		}
	}
}

func loadResponse(c *gin.Context, store goredis.UniversalClient, cacheKey string) (*storedResponse, bool) {
	data, err := store.Get(c.Request.Context(), cacheKey).Bytes()
	if err != nil {
		return nil, false
	}
	var stored storedResponse
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, false
	}
	return &stored, true
}

func replay(c *gin.Context, stored *storedResponse, bodyHash string) {
	if stored.BodyHash != bodyHash {
		abortWith(c, apperrors.NewAppError("IDEMPOTENCY_KEY_REUSED",
			"idempotency key was already used with a different request body",
			http.StatusUnprocessableEntity, apperrors.ErrValidation))
		return
	}
	c.Header(IdempotentReplayHeader, "true")
	c.Data(stored.StatusCode, stored.ContentType, stored.Body)
	c.Abort()
}

func abortWith(c *gin.Context, appErr *apperrors.AppError) {
	c.AbortWithStatusJSON(appErr.StatusCode, appErr.ToResponse())
}

// idempotencyCacheKey scopes key to the route, the concrete path and the actor.
func idempotencyCacheKey(c *gin.Context, key string) string {
	scope := c.Request.Method + ":" + c.Request.URL.Path + ":" + ActorKeyFunc(c) + ":" + key
	hash := sha256.Sum256([]byte(scope))
	return idempotencyKeyPrefix + hex.EncodeToString(hash[:])
}

// hashBody hashes the request body and restores it for the handler.
func hashBody(c *gin.Context) (string, error) {
	if c.Request.Body == nil {
		return "", nil
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return "", err
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(body))

	hash := sha256.Sum256(body)
	return hex.EncodeToString(hash[:]), nil
}
