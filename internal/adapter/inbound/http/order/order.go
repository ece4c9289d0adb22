package orderhttp

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	httpcommon "github.com/orderledger/server/internal/adapter/inbound/http/common"
	"github.com/orderledger/server/internal/domain/order"
	"github.com/orderledger/server/internal/model"
	"github.com/orderledger/server/internal/utils/middleware"
	"github.com/orderledger/server/internal/utils/pagination"
)

// OrderHandler handles order HTTP requests.
type OrderHandler struct {
	orderDomain order.OrderDomain
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(orderDomain order.OrderDomain) *OrderHandler {
	return &OrderHandler{orderDomain: orderDomain}
}

// RegisterRoutes registers order routes. Mutating routes get the idempotency middleware.
func (h *OrderHandler) RegisterRoutes(r *gin.RouterGroup, idempotent gin.HandlerFunc) {
	orders := r.Group("/orders")
	{
		orders.GET("", h.ListOrders)
		orders.GET("/code/:code", h.GetOrderByCode)
		orders.GET("/:id", h.GetOrder)
		orders.GET("/:id/history", h.ListStatusHistory)
		orders.GET("/:id/transitions", h.AvailableTransitions)
		orders.POST("/:id/status", idempotent, h.UpdateStatus)
		orders.GET("/:id/payments", h.ListPayments)
		orders.POST("/:id/payments", idempotent, h.AddPayment)
	}
}

type listOrdersQuery struct {
	Status      string     `form:"status"`
	UserID      string     `form:"user_id" binding:"omitempty,uuid"`
	Search      string     `form:"q" binding:"max=100"`
	CreatedFrom *time.Time `form:"created_from" time_format:"2006-01-02T15:04:05Z07:00"`
	CreatedTo   *time.Time `form:"created_to" time_format:"2006-01-02T15:04:05Z07:00"`
}

// ListOrders handles GET /orders.
func (h *OrderHandler) ListOrders(c *gin.Context) {
	p, ok := httpcommon.Pagination(c)
	if !ok {
		return
	}
	var q listOrdersQuery
	if !httpcommon.BindQuery(c, &q) {
		return
	}

	filter := &model.OrderFilter{
		UserID:    httpcommon.OptionalUUID(q.UserID),
		Search:    q.Search,
		CreatedAt: httpcommon.TimeRange(q.CreatedFrom, q.CreatedTo),
	}
	if q.Status != "" {
		status := model.OrderStatus(q.Status)
		filter.Status = &status
	}

	orders, total, err := h.orderDomain.ListOrders(c.Request.Context(), filter, p.Page, p.PageSize)
	if err != nil {
		httpcommon.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pagination.NewPage(p, orders, total))
}

// GetOrder handles GET /orders/:id.
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := httpcommon.UUIDParam(c, "id")
	if !ok {
		return
	}
	o, err := h.orderDomain.GetOrder(c.Request.Context(), id)
	if err != nil {
		httpcommon.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// GetOrderByCode handles GET /orders/code/:code.
func (h *OrderHandler) GetOrderByCode(c *gin.Context) {
	o, err := h.orderDomain.GetOrderByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		httpcommon.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// ListStatusHistory handles GET /orders/:id/history.
func (h *OrderHandler) ListStatusHistory(c *gin.Context) {
	id, ok := httpcommon.UUIDParam(c, "id")
	if !ok {
		return
	}
	history, err := h.orderDomain.ListStatusHistory(c.Request.Context(), id)
	if err != nil {
		httpcommon.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": history})
}

// AvailableTransitions handles GET /orders/:id/transitions.
func (h *OrderHandler) AvailableTransitions(c *gin.Context) {
	id, ok := httpcommon.UUIDParam(c, "id")
	if !ok {
		return
	}
	next, err := h.orderDomain.AvailableTransitions(c.Request.Context(), id)
	if err != nil {
		httpcommon.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": next})
}

// UpdateStatus handles POST /orders/:id/status.
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, ok := httpcommon.UUIDParam(c, "id")
	if !ok {
		return
	}
	var req order.UpdateStatusInput
	if !httpcommon.BindJSON(c, &req) {
		return
	}

	o, err := h.orderDomain.UpdateStatus(c.Request.Context(), middleware.GetActor(c), id, &req)
	if err != nil {
		httpcommon.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// ListPayments handles GET /orders/:id/payments.
func (h *OrderHandler) ListPayments(c *gin.Context) {
	id, ok := httpcommon.UUIDParam(c, "id")
	if !ok {
		return
	}
	payments, err := h.orderDomain.ListPayments(c.Request.Context(), id)
	if err != nil {
		httpcommon.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": payments})
}

type addPaymentResponse struct {
	Payment *model.Payment `json:"payment"`
	Order   *model.Order   `json:"order"`
}

// AddPayment handles POST /orders/:id/payments.
func (h *OrderHandler) AddPayment(c *gin.Context) {
	id, ok := httpcommon.UUIDParam(c, "id")
	if !ok {
		return
	}
	var req order.AddPaymentInput
	if !httpcommon.BindJSON(c, &req) {
		return
	}

	payment, o, err := h.orderDomain.AddPayment(c.Request.Context(), middleware.GetActor(c), id, &req)
	if err != nil {
		httpcommon.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, addPaymentResponse{Payment: payment, Order: o})
}
