package outbound

import (
	"context"

	"github.com/google/uuid"
	"github.com/orderledger/server/internal/model"
)

// WarehouseDatabasePort defines the interface for warehouse database operations.
type WarehouseDatabasePort interface {
	Create(ctx context.Context, warehouse *model.Warehouse) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Warehouse, error)
	GetByCode(ctx context.Context, code string) (*model.Warehouse, error)
	GetDefault(ctx context.Context) (*model.Warehouse, error)
	List(ctx context.Context) ([]*model.Warehouse, error)
	Update(ctx context.Context, warehouse *model.Warehouse) error
	// ClearDefault unsets the default flag on every warehouse except keepID.
	ClearDefault(ctx context.Context, keepID uuid.UUID) error
}

// InventoryItemDatabasePort defines the interface for inventory balances.
type InventoryItemDatabasePort interface {
	// GetOrCreateForUpdate returns the balance row for (product, warehouse),
	// creating it with zero quantities if absent, and locks it.
	GetOrCreateForUpdate(ctx context.Context, productID, warehouseID uuid.UUID) (*model.InventoryItem, error)
	Get(ctx context.Context, productID, warehouseID uuid.UUID) (*model.InventoryItem, error)
	List(ctx context.Context, warehouseID *uuid.UUID, page, pageSize int) ([]*model.InventoryItem, int64, error)
	UpdateBalances(ctx context.Context, item *model.InventoryItem) error
}

// StockDocumentDatabasePort defines the interface for stock documents and lines.
type StockDocumentDatabasePort interface {
	// Create inserts the document and its lines.
	// Returns ErrDuplicateKey when the source key is already taken.
	Create(ctx context.Context, doc *model.StockDocument) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.StockDocument, error)
	// GetByIDForUpdate loads the document with lines ordered by line number
	// and locks the document row.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.StockDocument, error)
	GetBySourceKey(ctx context.Context, key string) (*model.StockDocument, error)
	List(ctx context.Context, filter *model.StockDocumentFilter, page, pageSize int) ([]*model.StockDocument, int64, error)
	UpdateStatus(ctx context.Context, doc *model.StockDocument) error
}

// StockMovementDatabasePort defines the interface for the append-only ledger.
type StockMovementDatabasePort interface {
	ExistsByKey(ctx context.Context, key string) (bool, error)
	// Create appends a movement. Returns ErrDuplicateKey when the
	// idempotency key already exists.
	Create(ctx context.Context, movement *model.StockMovement) error
	List(ctx context.Context, filter *model.StockMovementFilter, page, pageSize int) ([]*model.StockMovement, int64, error)
	// SumChanges totals the on-hand and reserved deltas for one balance.
	SumChanges(ctx context.Context, productID, warehouseID uuid.UUID) (onHand, reserved int64, count int64, err error)
}
