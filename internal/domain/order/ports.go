package order

import (
	"context"

	"github.com/orderledger/server/internal/domain/inventory"
	"github.com/orderledger/server/internal/model"
)

// StockLedger is the part of the inventory domain the order domain drives.
type StockLedger interface {
	EnsureDefaultWarehouse(ctx context.Context) (*model.Warehouse, error)
	CreateAndPostDocument(ctx context.Context, actor *model.UserContext, in *inventory.CreateDocumentInput) (*model.StockDocument, int, error)
}

var _ StockLedger = (*inventory.Domain)(nil)
