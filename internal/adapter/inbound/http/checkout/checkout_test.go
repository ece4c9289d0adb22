package checkouthttp

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/orderledger/server/internal/domain/checkout"
	"github.com/orderledger/server/internal/model"
	apperrors "github.com/orderledger/server/internal/utils/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockCheckoutDomain struct {
	mock.Mock
}

func (m *mockCheckoutDomain) Checkout(ctx context.Context, actor *model.UserContext, in *checkout.Input) (*model.Order, error) {
	args := m.Called(ctx, actor, in)
	o, _ := args.Get(0).(*model.Order)
	return o, args.Error(1)
}

func cart() gin.H {
	return gin.H{
		"items":            []gin.H{{"product_id": uuid.New(), "quantity": 2}},
		"customer_name":    "Alice",
		"shipping_address": gin.H{"line1": "1 Main St", "city": "Hanoi"},
	}
}

func post(router *gin.Engine, body any, key string) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest("POST", "/api/v1/checkout", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func newRouter(d checkout.CheckoutDomain, guards ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	NewCheckoutHandler(d).RegisterRoutes(router.Group("/api/v1"), guards...)
	return router
}

func TestCheckout(t *testing.T) {
	d := new(mockCheckoutDomain)
	orderID := uuid.New()
	d.On("Checkout", mock.Anything,
		mock.MatchedBy(func(a *model.UserContext) bool { return a.Role == model.RoleAnonymous }),
		mock.MatchedBy(func(in *checkout.Input) bool {
			return in.IdempotencyKey == "cart-42" && in.CustomerName == "Alice" && len(in.Items) == 1
		}),
	).Return(&model.Order{ID: orderID, Status: model.OrderStatusPendingConfirmation}, nil).Once()

	w := post(newRouter(d), cart(), "cart-42")

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), orderID.String())
	d.AssertExpectations(t)
}

func TestCheckout_Errors(t *testing.T) {
	t.Run("validation is 422", func(t *testing.T) {
		d := new(mockCheckoutDomain)
		d.On("Checkout", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, apperrors.ValidationErrors{{Field: "items", Message: "is required"}})

		w := post(newRouter(d), gin.H{"customer_name": "Alice"}, "")
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), `"field":"items"`)
	})

	t.Run("long idempotency key is 400", func(t *testing.T) {
		d := new(mockCheckoutDomain)
		w := post(newRouter(d), cart(), strings.Repeat("k", 129))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		d.AssertNotCalled(t, "Checkout")
	})

	t.Run("guard runs first", func(t *testing.T) {
		d := new(mockCheckoutDomain)
		deny := func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apperrors.RateLimited("slow down").ToResponse())
		}
		w := post(newRouter(d, deny), cart(), "")
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		d.AssertNotCalled(t, "Checkout")
	})
}
