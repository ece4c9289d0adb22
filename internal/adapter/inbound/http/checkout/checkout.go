// Package checkouthttp exposes checkout over HTTP.
package checkouthttp

import (
	"net/http"

	"github.com/gin-gonic/gin"

	httpcommon "github.com/orderledger/server/internal/adapter/inbound/http/common"
	"github.com/orderledger/server/internal/domain/checkout"
	apperrors "github.com/orderledger/server/internal/utils/errors"
	"github.com/orderledger/server/internal/utils/middleware"
)

const (
	// IdempotencyKeyHeader carries the client's retry key.
	IdempotencyKeyHeader = "Idempotency-Key"

	maxIdempotencyKeyLength = 128
)

// CheckoutHandler handles checkout HTTP requests.
type CheckoutHandler struct {
	checkoutDomain checkout.CheckoutDomain
}

// NewCheckoutHandler creates a new checkout handler.
func NewCheckoutHandler(checkoutDomain checkout.CheckoutDomain) *CheckoutHandler {
	return &CheckoutHandler{checkoutDomain: checkoutDomain}
}

// RegisterRoutes registers POST /checkout behind the given middlewares,
// usually the checkout rate limiter.
func (h *CheckoutHandler) RegisterRoutes(r *gin.RouterGroup, guards ...gin.HandlerFunc) {
	handlers := append(append([]gin.HandlerFunc{}, guards...), h.Checkout)
	r.POST("/checkout", handlers...)
}

// Checkout handles POST /checkout. A retried request carrying the same
// Idempotency-Key returns the order created by the first attempt.
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	var req checkout.Input
	if !httpcommon.BindJSON(c, &req) {
		return
	}

	key := c.GetHeader(IdempotencyKeyHeader)
	if len(key) > maxIdempotencyKeyLength {
		httpcommon.RespondError(c, apperrors.BadRequest("Idempotency-Key must be at most 128 characters"))
		return
	}
	req.IdempotencyKey = key

	o, err := h.checkoutDomain.Checkout(c.Request.Context(), middleware.GetActor(c), &req)
	if err != nil {
		httpcommon.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, o)
}
