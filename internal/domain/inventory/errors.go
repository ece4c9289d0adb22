package inventory

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/orderledger/server/internal/model"
	apperrors "github.com/orderledger/server/internal/utils/errors"
)

// Stock buckets named by InsufficientStockError.
const (
	BucketOnHand   = "on_hand"
	BucketReserved = "reserved"
)

// InsufficientStockError is returned when a movement would drive a balance negative.
type InsufficientStockError struct {
	ProductID   uuid.UUID
	WarehouseID uuid.UUID
	Bucket      string
	Current     int64
	Requested   int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s at warehouse %s: %s is %d, change of %d would go negative",
		e.ProductID, e.WarehouseID, e.Bucket, e.Current, e.Requested)
}

// Is matches apperrors.ErrConflict.
func (e *InsufficientStockError) Is(target error) bool {
	return target == apperrors.ErrConflict
}

// AppError implements apperrors.Surfacer.
func (e *InsufficientStockError) AppError() *apperrors.AppError {
	return &apperrors.AppError{
		Code:    "INSUFFICIENT_STOCK",
		Message: e.Error(),
		Details: map[string]any{
			"product_id":   e.ProductID.String(),
			"warehouse_id": e.WarehouseID.String(),
			"bucket":       e.Bucket,
			"current":      e.Current,
			"requested":    e.Requested,
		},
		StatusCode: http.StatusConflict,
		Err:        e,
	}
}

func documentNotFound(id uuid.UUID) error {
	return &apperrors.NotFoundError{Entity: "stock_document", ID: id.String()}
}

func warehouseNotFound(id uuid.UUID) error {
	return &apperrors.NotFoundError{Entity: "warehouse", ID: id.String()}
}

func inventoryItemNotFound(productID, warehouseID uuid.UUID) error {
	return &apperrors.NotFoundError{Entity: "inventory_item", ID: productID.String() + "@" + warehouseID.String()}
}

func documentTransitionError(from, to model.StockDocumentStatus) error {
	return &apperrors.TransitionError{Entity: "stock_document", From: string(from), To: string(to)}
}
