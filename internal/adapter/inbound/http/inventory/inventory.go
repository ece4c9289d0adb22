// Package inventoryhttp exposes warehouses, stock documents and the stock
// ledger over HTTP.
package inventoryhttp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	httpcommon "github.com/orderledger/server/internal/adapter/inbound/http/common"
	"github.com/orderledger/server/internal/domain/inventory"
	"github.com/orderledger/server/internal/model"
	"github.com/orderledger/server/internal/utils/middleware"
	"github.com/orderledger/server/internal/utils/pagination"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// InventoryService is the part of the inventory domain served over HTTP.
type InventoryService interface {
	CreateDocument(ctx context.Context, actor *model.UserContext, in *inventory.CreateDocumentInput) (*model.StockDocument, error)
	CreateAndPostDocument(ctx context.Context, actor *model.UserContext, in *inventory.CreateDocumentInput) (*model.StockDocument, int, error)
	PostDocument(ctx context.Context, actor *model.UserContext, documentID uuid.UUID) (int, error)
	VoidDocument(ctx context.Context, actor *model.UserContext, documentID uuid.UUID) (*model.StockDocument, error)
	GetDocument(ctx context.Context, id uuid.UUID) (*model.StockDocument, error)
	ListDocuments(ctx context.Context, filter *model.StockDocumentFilter, page, pageSize int) ([]*model.StockDocument, int64, error)

	EnsureDefaultWarehouse(ctx context.Context) (*model.Warehouse, error)
	CreateWarehouse(ctx context.Context, actor *model.UserContext, in *inventory.CreateWarehouseInput) (*model.Warehouse, error)
	SetDefaultWarehouse(ctx context.Context, actor *model.UserContext, id uuid.UUID) (*model.Warehouse, error)
	ListWarehouses(ctx context.Context) ([]*model.Warehouse, error)

	GetInventoryItem(ctx context.Context, productID, warehouseID uuid.UUID) (*model.InventoryItem, error)
	ListInventoryItems(ctx context.Context, warehouseID *uuid.UUID, page, pageSize int) ([]*model.InventoryItem, int64, error)
	ListMovements(ctx context.Context, filter *model.StockMovementFilter, page, pageSize int) ([]*model.StockMovement, int64, error)
	ReconcileItem(ctx context.Context, productID, warehouseID uuid.UUID) (*inventory.Reconciliation, error)
	ExportMovements(ctx context.Context, filter *model.StockMovementFilter, w io.Writer) (int, error)
}

var _ InventoryService = (*inventory.Domain)(nil)

// InventoryHandler handles warehouse, stock document and ledger endpoints.
type InventoryHandler struct {
	service InventoryService
}

// NewInventoryHandler creates a new inventory handler.
func NewInventoryHandler(service InventoryService) *InventoryHandler {
	return &InventoryHandler{service: service}
}

// RegisterRoutes registers the inventory routes. Mutating document routes
// run behind idempotent.
func (h *InventoryHandler) RegisterRoutes(r *gin.RouterGroup, idempotent gin.HandlerFunc) {
	warehouses := r.Group("/warehouses")
	{
		warehouses.GET("", h.ListWarehouses)
		warehouses.POST("", h.CreateWarehouse)
		warehouses.POST("/default", h.EnsureDefaultWarehouse)
		warehouses.POST("/:id/default", h.SetDefaultWarehouse)
	}

	docs := r.Group("/stock-documents")
	{
		docs.GET("", h.ListDocuments)
		docs.POST("", idempotent, h.CreateDocument)
		docs.GET("/:id", h.GetDocument)
		docs.POST("/:id/post", idempotent, h.PostDocument)
		docs.POST("/:id/void", idempotent, h.VoidDocument)
	}

	inv := r.Group("/inventory")
	{
		inv.GET("/items", h.ListInventoryItems)
		inv.GET("/items/:product_id/:warehouse_id", h.GetInventoryItem)
		inv.GET("/items/:product_id/:warehouse_id/reconcile", h.ReconcileItem)
		inv.GET("/movements", h.ListMovements)
		inv.GET("/movements/export", h.ExportMovements)
	}
}

// ===== Warehouses =====

// ListWarehouses handles GET /warehouses.
func (h *InventoryHandler) ListWarehouses(c *gin.Context) {
	warehouses, err := h.service.ListWarehouses(c.Request.Context())
	if err != nil {
		httpcommon.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": warehouses})
}

// CreateWarehouse handles POST /warehouses.
func (h *InventoryHandler) CreateWarehouse(c *gin.Context) {
	var req inventory.CreateWarehouseInput
	if !httpcommon.BindJSON(c, &req) {
		return
	}
	w, err := h.service.CreateWarehouse(c.Request.Context(), middleware.GetActor(c), &req)
	if err != nil {
		httpcommon.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, w)
}

// EnsureDefaultWarehouse handles POST /warehouses/default. It returns the
// default warehouse, creating it first when none exists.
func (h *InventoryHandler) EnsureDefaultWarehouse(c *gin.Context) {
	w, err := h.service.EnsureDefaultWarehouse(c.Request.Context())
	if err != nil {
		httpcommon.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

// SetDefaultWarehouse handles POST /warehouses/:id/default.
func (h *InventoryHandler) SetDefaultWarehouse(c *gin.Context) {
	id, ok := httpcommon.UUIDParam(c, "id")
	if !ok {
		return
	}
	w, err := h.service.SetDefaultWarehouse(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		httpcommon.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

// ===== Stock documents =====

type listDocumentsQuery struct {
	Type          string `form:"type"`
	Status        string `form:"status"`
	WarehouseID   string `form:"warehouse_id" binding:"omitempty,uuid"`
	ReferenceType string `form:"reference_type"`
	ReferenceID   string `form:"reference_id"`
}

func (q *listDocumentsQuery) filter() *model.StockDocumentFilter {
	f := &model.StockDocumentFilter{WarehouseID: httpcommon.OptionalUUID(q.WarehouseID)}
	if q.Type != "" {
		t := model.StockDocumentType(q.Type)
		f.Type = &t
	}
	if q.Status != "" {
		s := model.StockDocumentStatus(q.Status)
		f.Status = &s
	}
	if q.ReferenceType != "" {
		rt := model.ReferenceType(q.ReferenceType)
		f.ReferenceType = &rt
	}
	if q.ReferenceID != "" {
		f.ReferenceID = &q.ReferenceID
	}
	return f
}

// ListDocuments handles GET /stock-documents.
func (h *InventoryHandler) ListDocuments(c *gin.Context) {
	p, ok := httpcommon.Pagination(c)
	if !ok {
		return
	}
	var q listDocumentsQuery
	if !httpcommon.BindQuery(c, &q) {
		return
	}

	docs, total, err := h.service.ListDocuments(c.Request.Context(), q.filter(), p.Page, p.PageSize)
	if err != nil {
		httpcommon.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pagination.NewPage(p, docs, total))
}

// GetDocument handles GET /stock-documents/:id.
func (h *InventoryHandler) GetDocument(c *gin.Context) {
	id, ok := httpcommon.UUIDParam(c, "id")
	if !ok {
		return
	}
	doc, err := h.service.GetDocument(c.Request.Context(), id)
	if err != nil {
		httpcommon.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

type postResponse struct {
	Document *model.StockDocument `json:"document"`
	Applied  int                  `json:"applied"`
}

// CreateDocument handles POST /stock-documents. With ?post=true the document
// is posted in the same transaction.
func (h *InventoryHandler) CreateDocument(c *gin.Context) {
	var req inventory.CreateDocumentInput
	if !httpcommon.BindJSON(c, &req) {
		return
	}
	post, _ := strconv.ParseBool(c.Query("post"))
	ctx, actor := c.Request.Context(), middleware.GetActor(c)

	if post {
		doc, applied, err := h.service.CreateAndPostDocument(ctx, actor, &req)
		if err != nil {
			httpcommon.RespondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, postResponse{Document: doc, Applied: applied})
		return
	}

	doc, err := h.service.CreateDocument(ctx, actor, &req)
	if err != nil {
		httpcommon.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

// PostDocument handles POST /stock-documents/:id/post.
func (h *InventoryHandler) PostDocument(c *gin.Context) {
	id, ok := httpcommon.UUIDParam(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	applied, err := h.service.PostDocument(ctx, middleware.GetActor(c), id)
	if err != nil {
		httpcommon.RespondError(c, err)
		return
	}
	doc, err := h.service.GetDocument(ctx, id)
	if err != nil {
		httpcommon.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, postResponse{Document: doc, Applied: applied})
}

// VoidDocument handles POST /stock-documents/:id/void.
func (h *InventoryHandler) VoidDocument(c *gin.Context) {
	id, ok := httpcommon.UUIDParam(c, "id")
	if !ok {
		return
	}
	doc, err := h.service.VoidDocument(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		httpcommon.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// ===== Balances and ledger =====

func itemParams(c *gin.Context) (productID, warehouseID uuid.UUID, ok bool) {
	if productID, ok = httpcommon.UUIDParam(c, "product_id"); !ok {
		return
	}
	warehouseID, ok = httpcommon.UUIDParam(c, "warehouse_id")
	return
}

// ListInventoryItems handles GET /inventory/items.
func (h *InventoryHandler) ListInventoryItems(c *gin.Context) {
	p, ok := httpcommon.Pagination(c)
	if !ok {
		return
	}
	var q struct {
		WarehouseID string `form:"warehouse_id" binding:"omitempty,uuid"`
	}
	if !httpcommon.BindQuery(c, &q) {
		return
	}

	items, total, err := h.service.ListInventoryItems(c.Request.Context(), httpcommon.OptionalUUID(q.WarehouseID), p.Page, p.PageSize)
	if err != nil {
		httpcommon.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pagination.NewPage(p, items, total))
}

// GetInventoryItem handles GET /inventory/items/:product_id/:warehouse_id.
func (h *InventoryHandler) GetInventoryItem(c *gin.Context) {
	productID, warehouseID, ok := itemParams(c)
	if !ok {
		return
	}
	item, err := h.service.GetInventoryItem(c.Request.Context(), productID, warehouseID)
	if err != nil {
		httpcommon.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// ReconcileItem handles GET /inventory/items/:product_id/:warehouse_id/reconcile.
func (h *InventoryHandler) ReconcileItem(c *gin.Context) {
	productID, warehouseID, ok := itemParams(c)
	if !ok {
		return
	}
	rec, err := h.service.ReconcileItem(c.Request.Context(), productID, warehouseID)
	if err != nil {
		httpcommon.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

type movementQuery struct {
	ProductID   string     `form:"product_id" binding:"omitempty,uuid"`
	WarehouseID string     `form:"warehouse_id" binding:"omitempty,uuid"`
	DocumentID  string     `form:"document_id" binding:"omitempty,uuid"`
	Type        string     `form:"type"`
	CreatedFrom *time.Time `form:"created_from" time_format:"2006-01-02T15:04:05Z07:00"`
	CreatedTo   *time.Time `form:"created_to" time_format:"2006-01-02T15:04:05Z07:00"`
}

func (q *movementQuery) filter() *model.StockMovementFilter {
	f := &model.StockMovementFilter{
		ProductID:   httpcommon.OptionalUUID(q.ProductID),
		WarehouseID: httpcommon.OptionalUUID(q.WarehouseID),
		DocumentID:  httpcommon.OptionalUUID(q.DocumentID),
		CreatedAt:   httpcommon.TimeRange(q.CreatedFrom, q.CreatedTo),
	}
	if q.Type != "" {
		t := model.StockDocumentType(q.Type)
		f.Type = &t
	}
	return f
}

// ListMovements handles GET /inventory/movements.
func (h *InventoryHandler) ListMovements(c *gin.Context) {
	p, ok := httpcommon.Pagination(c)
	if !ok {
		return
	}
	var q movementQuery
	if !httpcommon.BindQuery(c, &q) {
		return
	}

	movements, total, err := h.service.ListMovements(c.Request.Context(), q.filter(), p.Page, p.PageSize)
	if err != nil {
		httpcommon.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pagination.NewPage(p, movements, total))
}

// ExportMovements handles GET /inventory/movements/export. The workbook is
// buffered so a failed export still gets a JSON error.
func (h *InventoryHandler) ExportMovements(c *gin.Context) {
	var q movementQuery
	if !httpcommon.BindQuery(c, &q) {
		return
	}

	var buf bytes.Buffer
	rows, err := h.service.ExportMovements(c.Request.Context(), q.filter(), &buf)
	if err != nil {
		httpcommon.RespondError(c, err)
		return
	}

	filename := fmt.Sprintf("stock-movements-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Header("X-Export-Rows", strconv.Itoa(rows))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
