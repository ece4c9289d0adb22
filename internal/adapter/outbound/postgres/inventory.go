package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/orderledger/server/internal/model"
	"github.com/orderledger/server/internal/port/outbound"
)

// ========== Warehouses ==========

// warehouseAdapter implements outbound.WarehouseDatabasePort.
type warehouseAdapter struct {
	db *gorm.DB
}

// NewWarehouseAdapter creates a new warehouse database adapter.
func NewWarehouseAdapter(db *gorm.DB) outbound.WarehouseDatabasePort {
	return &warehouseAdapter{db: db}
}

func (a *warehouseAdapter) Create(ctx context.Context, warehouse *model.Warehouse) error {
	if err := dbFrom(ctx, a.db).Omit("Locations").Create(warehouse).Error; err != nil {
		return translate(err)
	}
	return nil
}

func (a *warehouseAdapter) GetByID(ctx context.Context, id uuid.UUID) (*model.Warehouse, error) {
	return first[model.Warehouse](dbFrom(ctx, a.db), "id = ?", id)
}

func (a *warehouseAdapter) GetByCode(ctx context.Context, code string) (*model.Warehouse, error) {
	return first[model.Warehouse](dbFrom(ctx, a.db), "code = ?", code)
}

func (a *warehouseAdapter) GetDefault(ctx context.Context) (*model.Warehouse, error) {
	return first[model.Warehouse](dbFrom(ctx, a.db).Order("created_at ASC"), "is_default = ?", true)
}

func (a *warehouseAdapter) List(ctx context.Context) ([]*model.Warehouse, error) {
	var warehouses []*model.Warehouse
	err := dbFrom(ctx, a.db).Order("code ASC").Find(&warehouses).Error
	return warehouses, err
}

func (a *warehouseAdapter) Update(ctx context.Context, warehouse *model.Warehouse) error {
	return dbFrom(ctx, a.db).Omit(clause.Associations).Save(warehouse).Error
}

func (a *warehouseAdapter) ClearDefault(ctx context.Context, keepID uuid.UUID) error {
	return dbFrom(ctx, a.db).
		Model(&model.Warehouse{}).
		Where("id <> ? AND is_default = ?", keepID, true).
		Updates(map[string]any{"is_default": false, "updated_at": time.Now()}).Error
}

// ========== Inventory Items ==========

// inventoryItemAdapter implements outbound.InventoryItemDatabasePort.
type inventoryItemAdapter struct {
	db *gorm.DB
}

// NewInventoryItemAdapter creates a new inventory balance adapter.
func NewInventoryItemAdapter(db *gorm.DB) outbound.InventoryItemDatabasePort {
	return &inventoryItemAdapter{db: db}
}

// GetOrCreateForUpdate inserts a zero balance if none exists, then locks the row.
// The insert uses ON CONFLICT DO NOTHING so a concurrent creator never aborts the transaction.
func (a *inventoryItemAdapter) GetOrCreateForUpdate(ctx context.Context, productID, warehouseID uuid.UUID) (*model.InventoryItem, error) {
	db := dbFrom(ctx, a.db)
	blank := &model.InventoryItem{ID: uuid.New(), ProductID: productID, WarehouseID: warehouseID}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "product_id"}, {Name: "warehouse_id"}},
		DoNothing: true,
	}).Create(blank).Error
	if err != nil {
		return nil, fmt.Errorf("create inventory item: %w", err)
	}

	item, err := first[model.InventoryItem](
		db.Clauses(clause.Locking{Strength: "UPDATE"}),
		"product_id = ? AND warehouse_id = ?", productID, warehouseID,
	)
	if err != nil {
		return nil, fmt.Errorf("lock inventory item: %w", err)
	}
	if item == nil {
		return nil, fmt.Errorf("inventory item %s@%s vanished after insert", productID, warehouseID)
	}
	return item, nil
}

func (a *inventoryItemAdapter) Get(ctx context.Context, productID, warehouseID uuid.UUID) (*model.InventoryItem, error) {
	return first[model.InventoryItem](dbFrom(ctx, a.db), "product_id = ? AND warehouse_id = ?", productID, warehouseID)
}

func (a *inventoryItemAdapter) List(ctx context.Context, warehouseID *uuid.UUID, page, pageSize int) ([]*model.InventoryItem, int64, error) {
	var items []*model.InventoryItem
	var total int64

	query := dbFrom(ctx, a.db).Model(&model.InventoryItem{})
	if warehouseID != nil {
		query = query.Where("warehouse_id = ?", *warehouseID)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := paginate(query, page, pageSize).Order("product_id ASC, warehouse_id ASC").Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (a *inventoryItemAdapter) UpdateBalances(ctx context.Context, item *model.InventoryItem) error {
	item.UpdatedAt = time.Now()
	return dbFrom(ctx, a.db).
		Model(&model.InventoryItem{}).
		Where("id = ?", item.ID).
		Updates(map[string]any{
			"on_hand_qty":   item.OnHandQty,
			"reserved_qty":  item.ReservedQty,
			"available_qty": item.AvailableQty,
			"location_id":   item.LocationID,
			"updated_at":    item.UpdatedAt,
		}).Error
}

// ========== Stock Documents ==========

// stockDocumentAdapter implements outbound.StockDocumentDatabasePort.
type stockDocumentAdapter struct {
	db *gorm.DB
}

// NewStockDocumentAdapter creates a new stock document adapter.
func NewStockDocumentAdapter(db *gorm.DB) outbound.StockDocumentDatabasePort {
	return &stockDocumentAdapter{db: db}
}

func preloadLines(db *gorm.DB) *gorm.DB {
	return db.Preload("Lines", func(db *gorm.DB) *gorm.DB {
		return db.Order("line_no")
	})
}

func (a *stockDocumentAdapter) Create(ctx context.Context, doc *model.StockDocument) error {
	if err := dbFrom(ctx, a.db).Create(doc).Error; err != nil {
		return translate(err)
	}
	return nil
}

func (a *stockDocumentAdapter) GetByID(ctx context.Context, id uuid.UUID) (*model.StockDocument, error) {
	return first[model.StockDocument](preloadLines(dbFrom(ctx, a.db)), "id = ?", id)
}

func (a *stockDocumentAdapter) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.StockDocument, error) {
	db := dbFrom(ctx, a.db)
	doc, err := first[model.StockDocument](db.Clauses(clause.Locking{Strength: "UPDATE"}), "id = ?", id)
	if err != nil || doc == nil {
		return doc, err
	}
	if err := db.Where("document_id = ?", id).Order("line_no").Find(&doc.Lines).Error; err != nil {
		return nil, fmt.Errorf("load document lines: %w", err)
	}
	return doc, nil
}

func (a *stockDocumentAdapter) GetBySourceKey(ctx context.Context, key string) (*model.StockDocument, error) {
	return first[model.StockDocument](preloadLines(dbFrom(ctx, a.db)), "source_key = ?", key)
}

func (a *stockDocumentAdapter) List(ctx context.Context, filter *model.StockDocumentFilter, page, pageSize int) ([]*model.StockDocument, int64, error) {
	var docs []*model.StockDocument
	var total int64

	query := dbFrom(ctx, a.db).Model(&model.StockDocument{})
	if filter != nil {
		if filter.Type != nil {
			query = query.Where("type = ?", string(*filter.Type))
		}
		if filter.Status != nil {
			query = query.Where("status = ?", string(*filter.Status))
		}
		if filter.WarehouseID != nil {
			query = query.Where("warehouse_id = ?", *filter.WarehouseID)
		}
		if filter.ReferenceType != nil {
			query = query.Where("reference_type = ?", string(*filter.ReferenceType))
		}
		if filter.ReferenceID != nil {
			query = query.Where("reference_id = ?", *filter.ReferenceID)
		}
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := paginate(preloadLines(query), page, pageSize).Order("created_at DESC, code DESC").Find(&docs).Error; err != nil {
		return nil, 0, err
	}
	return docs, total, nil
}

func (a *stockDocumentAdapter) UpdateStatus(ctx context.Context, doc *model.StockDocument) error {
	return dbFrom(ctx, a.db).
		Model(&model.StockDocument{}).
		Where("id = ?", doc.ID).
		Updates(map[string]any{
			"status":     doc.Status,
			"posted_by":  doc.PostedBy,
			"posted_at":  doc.PostedAt,
			"voided_by":  doc.VoidedBy,
			"voided_at":  doc.VoidedAt,
			"updated_at": doc.UpdatedAt,
		}).Error
}

// ========== Stock Movements ==========

// stockMovementAdapter implements outbound.StockMovementDatabasePort.
type stockMovementAdapter struct {
	db *gorm.DB
}

// NewStockMovementAdapter creates a new ledger adapter.
func NewStockMovementAdapter(db *gorm.DB) outbound.StockMovementDatabasePort {
	return &stockMovementAdapter{db: db}
}

func (a *stockMovementAdapter) ExistsByKey(ctx context.Context, key string) (bool, error) {
	var count int64
	err := dbFrom(ctx, a.db).
		Model(&model.StockMovement{}).
		Where("idempotency_key = ?", key).
		Limit(1).
		Count(&count).Error
	return count > 0, err
}

// Create appends a movement. A key that already exists yields ErrDuplicateKey
// without aborting the surrounding transaction.
func (a *stockMovementAdapter) Create(ctx context.Context, movement *model.StockMovement) error {
	result := dbFrom(ctx, a.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "idempotency_key"}},
		DoNothing: true,
	}).Create(movement)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return outbound.ErrDuplicateKey
	}
	return nil
}

func (a *stockMovementAdapter) List(ctx context.Context, filter *model.StockMovementFilter, page, pageSize int) ([]*model.StockMovement, int64, error) {
	var movements []*model.StockMovement
	var total int64

	query := dbFrom(ctx, a.db).Model(&model.StockMovement{})
	if filter != nil {
		if filter.ProductID != nil {
			query = query.Where("product_id = ?", *filter.ProductID)
		}
		if filter.WarehouseID != nil {
			query = query.Where("warehouse_id = ?", *filter.WarehouseID)
		}
		if filter.DocumentID != nil {
			query = query.Where("document_id = ?", *filter.DocumentID)
		}
		if filter.Type != nil {
			query = query.Where("type = ?", string(*filter.Type))
		}
		query = applyTimeRange(query, "created_at", filter.CreatedAt)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := paginate(query, page, pageSize).Order("created_at DESC, id DESC").Find(&movements).Error; err != nil {
		return nil, 0, err
	}
	return movements, total, nil
}

func (a *stockMovementAdapter) SumChanges(ctx context.Context, productID, warehouseID uuid.UUID) (int64, int64, int64, error) {
	var onHand, reserved, count int64
	row := dbFrom(ctx, a.db).
		Model(&model.StockMovement{}).
		Select("COALESCE(SUM(qty_change_on_hand), 0), COALESCE(SUM(qty_change_reserved), 0), COUNT(*)").
		Where("product_id = ? AND warehouse_id = ?", productID, warehouseID).
		Row()
	if err := row.Scan(&onHand, &reserved, &count); err != nil {
		return 0, 0, 0, fmt.Errorf("sum movements: %w", err)
	}
	return onHand, reserved, count, nil
}

// Compile-time checks
var (
	_ outbound.WarehouseDatabasePort     = (*warehouseAdapter)(nil)
	_ outbound.InventoryItemDatabasePort = (*inventoryItemAdapter)(nil)
	_ outbound.StockDocumentDatabasePort = (*stockDocumentAdapter)(nil)
	_ outbound.StockMovementDatabasePort = (*stockMovementAdapter)(nil)
)
