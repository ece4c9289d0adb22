package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/orderledger/server/internal/model"
	"github.com/orderledger/server/internal/port/outbound"
)

func preloadItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("line_no")
	})
}

// ========== Orders ==========

// orderAdapter implements outbound.OrderDatabasePort.
type orderAdapter struct {
	db *gorm.DB
}

// NewOrderAdapter creates a new order database adapter.
func NewOrderAdapter(db *gorm.DB) outbound.OrderDatabasePort {
	return &orderAdapter{db: db}
}

func (a *orderAdapter) Create(ctx context.Context, order *model.Order) error {
	if err := dbFrom(ctx, a.db).Create(order).Error; err != nil {
		return translate(err)
	}
	return nil
}

func (a *orderAdapter) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	return first[model.Order](preloadItems(dbFrom(ctx, a.db)), "id = ?", id)
}

func (a *orderAdapter) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	db := dbFrom(ctx, a.db)
	order, err := first[model.Order](db.Clauses(clause.Locking{Strength: "UPDATE"}), "id = ?", id)
	if err != nil || order == nil {
		return order, err
	}
	if err := db.Where("order_id = ?", id).Order("line_no").Find(&order.Items).Error; err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}
	return order, nil
}

func (a *orderAdapter) GetByCode(ctx context.Context, code string) (*model.Order, error) {
	return first[model.Order](preloadItems(dbFrom(ctx, a.db)), "order_code = ?", code)
}

func (a *orderAdapter) GetByCheckoutKey(ctx context.Context, key string) (*model.Order, error) {
	return first[model.Order](preloadItems(dbFrom(ctx, a.db)), "checkout_key = ?", key)
}

func (a *orderAdapter) List(ctx context.Context, filter *model.OrderFilter, page, pageSize int) ([]*model.Order, int64, error) {
	var orders []*model.Order
	var total int64

	query := dbFrom(ctx, a.db).Model(&model.Order{})

	// Apply filters
	if filter != nil {
		if filter.Status != nil {
			query = query.Where("status = ?", string(*filter.Status))
		}
		if filter.UserID != nil {
			query = query.Where("user_id = ?", *filter.UserID)
		}
		if q := strings.TrimSpace(filter.Search); q != "" {
			like := "%" + q + "%"
			query = query.Where("order_code ILIKE ? OR customer_name ILIKE ? OR customer_email ILIKE ?", like, like, like)
		}
		query = applyTimeRange(query, "created_at", filter.CreatedAt)
	}

	// Count total
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := paginate(preloadItems(query), page, pageSize).Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// Update saves the order row. Items are immutable once placed.
func (a *orderAdapter) Update(ctx context.Context, order *model.Order) error {
	return dbFrom(ctx, a.db).Omit(clause.Associations).Save(order).Error
}

func applyTimeRange(query *gorm.DB, column string, r *model.TimeRange) *gorm.DB {
	if r == nil {
		return query
	}
	if r.From != nil {
		query = query.Where(column+" >= ?", *r.From)
	}
	if r.To != nil {
		query = query.Where(column+" <= ?", *r.To)
	}
	return query
}

// ========== Status History ==========

// orderHistoryAdapter implements outbound.OrderHistoryDatabasePort.
type orderHistoryAdapter struct {
	db *gorm.DB
}

// NewOrderHistoryAdapter creates a new status history adapter.
func NewOrderHistoryAdapter(db *gorm.DB) outbound.OrderHistoryDatabasePort {
	return &orderHistoryAdapter{db: db}
}

func (a *orderHistoryAdapter) Create(ctx context.Context, entry *model.OrderStatusHistory) error {
	return dbFrom(ctx, a.db).Create(entry).Error
}

func (a *orderHistoryAdapter) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]*model.OrderStatusHistory, error) {
	var entries []*model.OrderStatusHistory
	err := dbFrom(ctx, a.db).
		Where("order_id = ?", orderID).
		Order("created_at ASC, id ASC").
		Find(&entries).Error
	return entries, err
}

// ========== Product Catalog ==========

// productCatalogAdapter implements outbound.ProductCatalogPort.
type productCatalogAdapter struct {
	db *gorm.DB
}

// NewProductCatalogAdapter creates a new product catalog adapter.
func NewProductCatalogAdapter(db *gorm.DB) outbound.ProductCatalogPort {
	return &productCatalogAdapter{db: db}
}

func (a *productCatalogAdapter) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Product, error) {
	result := make(map[uuid.UUID]*model.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var products []*model.Product
	if err := dbFrom(ctx, a.db).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	for _, p := range products {
		result[p.ID] = p
	}
	return result, nil
}

// ========== Customer Profiles ==========

// customerProfileAdapter implements outbound.CustomerProfilePort.
type customerProfileAdapter struct {
	db *gorm.DB
}

// NewCustomerProfileAdapter creates a new customer profile adapter.
func NewCustomerProfileAdapter(db *gorm.DB) outbound.CustomerProfilePort {
	return &customerProfileAdapter{db: db}
}

func (a *customerProfileAdapter) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.CustomerProfile, error) {
	return first[model.CustomerProfile](dbFrom(ctx, a.db), "user_id = ?", userID)
}

// Compile-time checks
var (
	_ outbound.OrderDatabasePort        = (*orderAdapter)(nil)
	_ outbound.OrderHistoryDatabasePort = (*orderHistoryAdapter)(nil)
	_ outbound.ProductCatalogPort       = (*productCatalogAdapter)(nil)
	_ outbound.CustomerProfilePort      = (*customerProfileAdapter)(nil)
)
