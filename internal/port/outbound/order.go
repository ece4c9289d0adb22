package outbound

import (
	"context"

	"github.com/google/uuid"
	"github.com/orderledger/server/internal/model"
	"github.com/shopspring/decimal"
)

// OrderDatabasePort defines the interface for order database operations.
type OrderDatabasePort interface {
	// Create inserts the order together with its items.
	// Returns ErrDuplicateKey when the checkout key is already taken.
	Create(ctx context.Context, order *model.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	// GetByIDForUpdate loads the order with its items and locks the order row
	// until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Order, error)
	GetByCode(ctx context.Context, code string) (*model.Order, error)
	GetByCheckoutKey(ctx context.Context, key string) (*model.Order, error)
	List(ctx context.Context, filter *model.OrderFilter, page, pageSize int) ([]*model.Order, int64, error)
	Update(ctx context.Context, order *model.Order) error
}

// OrderHistoryDatabasePort defines the interface for order status history.
type OrderHistoryDatabasePort interface {
	Create(ctx context.Context, entry *model.OrderStatusHistory) error
	ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]*model.OrderStatusHistory, error)
}

// PaymentDatabasePort defines the interface for order payments.
type PaymentDatabasePort interface {
	Create(ctx context.Context, payment *model.Payment) error
	ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]*model.Payment, error)
	SumByOrderID(ctx context.Context, orderID uuid.UUID) (decimal.Decimal, error)
}

// ProductCatalogPort reads the product catalog at checkout time.
type ProductCatalogPort interface {
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Product, error)
}

// CustomerProfilePort reads remembered buyer classification.
type CustomerProfilePort interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*model.CustomerProfile, error)
}
