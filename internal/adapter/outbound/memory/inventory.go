package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/orderledger/server/internal/model"
	"github.com/orderledger/server/internal/port/outbound"
)

// ===== Warehouses =====

type warehouseAdapter struct{ s *Store }

// Warehouses returns the warehouse port of s.
func (s *Store) Warehouses() outbound.WarehouseDatabasePort { return &warehouseAdapter{s} }

func (a *warehouseAdapter) Create(_ context.Context, w *model.Warehouse) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	if err := a.s.failure("warehouses.Create"); err != nil {
		return err
	}
	for _, existing := range a.s.data.warehouses {
		if existing.Code == w.Code {
			return outbound.ErrDuplicateKey
		}
	}
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	a.s.data.warehouses[w.ID] = cloneWarehouse(w)
	return nil
}

func (a *warehouseAdapter) GetByID(_ context.Context, id uuid.UUID) (*model.Warehouse, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	if w, ok := a.s.data.warehouses[id]; ok {
		return cloneWarehouse(w), nil
	}
	return nil, nil
}

func (a *warehouseAdapter) GetByCode(_ context.Context, code string) (*model.Warehouse, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	for _, w := range a.s.data.warehouses {
		if w.Code == code {
			return cloneWarehouse(w), nil
		}
	}
	return nil, nil
}

func (a *warehouseAdapter) GetDefault(_ context.Context) (*model.Warehouse, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	for _, w := range a.s.data.warehouses {
		if w.IsDefault {
			return cloneWarehouse(w), nil
		}
	}
	return nil, nil
}

func (a *warehouseAdapter) List(_ context.Context) ([]*model.Warehouse, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	out := make([]*model.Warehouse, 0, len(a.s.data.warehouses))
	for _, w := range a.s.data.warehouses {
		out = append(out, cloneWarehouse(w))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (a *warehouseAdapter) Update(_ context.Context, w *model.Warehouse) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	a.s.data.warehouses[w.ID] = cloneWarehouse(w)
	return nil
}

func (a *warehouseAdapter) ClearDefault(_ context.Context, keepID uuid.UUID) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	for id, w := range a.s.data.warehouses {
		if id != keepID {
			w.IsDefault = false
		}
	}
	return nil
}

// ===== Inventory items =====

type itemAdapter struct{ s *Store }

// InventoryItems returns the inventory balance port of s.
func (s *Store) InventoryItems() outbound.InventoryItemDatabasePort { return &itemAdapter{s} }

func (a *itemAdapter) GetOrCreateForUpdate(_ context.Context, productID, warehouseID uuid.UUID) (*model.InventoryItem, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	if err := a.s.failure("items.GetOrCreateForUpdate"); err != nil {
		return nil, err
	}
	key := itemKey{productID, warehouseID}
	item, ok := a.s.data.items[key]
	if !ok {
		item = &model.InventoryItem{ID: uuid.New(), ProductID: productID, WarehouseID: warehouseID}
		a.s.data.items[key] = item
	}
	return cloneItem(item), nil
}

func (a *itemAdapter) Get(_ context.Context, productID, warehouseID uuid.UUID) (*model.InventoryItem, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	if item, ok := a.s.data.items[itemKey{productID, warehouseID}]; ok {
		return cloneItem(item), nil
	}
	return nil, nil
}

func (a *itemAdapter) List(_ context.Context, warehouseID *uuid.UUID, page, pageSize int) ([]*model.InventoryItem, int64, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	var out []*model.InventoryItem
	for _, item := range a.s.data.items {
		if warehouseID != nil && item.WarehouseID != *warehouseID {
			continue
		}
		out = append(out, cloneItem(item))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID.String() < out[j].ProductID.String() })
	return paginate(out, page, pageSize), int64(len(out)), nil
}

func (a *itemAdapter) UpdateBalances(_ context.Context, item *model.InventoryItem) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	if err := a.s.failure("items.UpdateBalances"); err != nil {
		return err
	}
	a.s.data.items[itemKey{item.ProductID, item.WarehouseID}] = cloneItem(item)
	return nil
}

// ===== Stock documents =====

type documentAdapter struct{ s *Store }

// StockDocuments returns the stock document port of s.
func (s *Store) StockDocuments() outbound.StockDocumentDatabasePort { return &documentAdapter{s} }

func (a *documentAdapter) Create(_ context.Context, doc *model.StockDocument) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	if err := a.s.failure("documents.Create"); err != nil {
		return err
	}
	for _, existing := range a.s.data.documents {
		if existing.Code == doc.Code {
			return outbound.ErrDuplicateKey
		}
		if doc.SourceKey != nil && existing.SourceKey != nil && *existing.SourceKey == *doc.SourceKey {
			return outbound.ErrDuplicateKey
		}
	}
	a.s.data.documents[doc.ID] = cloneDocument(doc)
	return nil
}

func (a *documentAdapter) GetByID(_ context.Context, id uuid.UUID) (*model.StockDocument, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	if doc, ok := a.s.data.documents[id]; ok {
		return cloneDocument(doc), nil
	}
	return nil, nil
}

func (a *documentAdapter) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.StockDocument, error) {
	return a.GetByID(ctx, id)
}

func (a *documentAdapter) GetBySourceKey(_ context.Context, key string) (*model.StockDocument, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	for _, doc := range a.s.data.documents {
		if doc.SourceKey != nil && *doc.SourceKey == key {
			return cloneDocument(doc), nil
		}
	}
	return nil, nil
}

func (a *documentAdapter) List(_ context.Context, filter *model.StockDocumentFilter, page, pageSize int) ([]*model.StockDocument, int64, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	var out []*model.StockDocument
	for _, doc := range a.s.data.documents {
		if filter != nil {
			if filter.Type != nil && doc.Type != *filter.Type {
				continue
			}
			if filter.Status != nil && doc.Status != *filter.Status {
				continue
			}
			if filter.WarehouseID != nil && doc.WarehouseID != *filter.WarehouseID {
				continue
			}
			if filter.ReferenceType != nil && (doc.ReferenceType == nil || *doc.ReferenceType != *filter.ReferenceType) {
				continue
			}
			if filter.ReferenceID != nil && (doc.ReferenceID == nil || *doc.ReferenceID != *filter.ReferenceID) {
				continue
			}
		}
		out = append(out, cloneDocument(doc))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return paginate(out, page, pageSize), int64(len(out)), nil
}

func (a *documentAdapter) UpdateStatus(_ context.Context, doc *model.StockDocument) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	if err := a.s.failure("documents.UpdateStatus"); err != nil {
		return err
	}
	stored, ok := a.s.data.documents[doc.ID]
	if !ok {
		return nil
	}
	stored.Status = doc.Status
	stored.PostedBy, stored.PostedAt = doc.PostedBy, doc.PostedAt
	stored.VoidedBy, stored.VoidedAt = doc.VoidedBy, doc.VoidedAt
	stored.UpdatedAt = doc.UpdatedAt
	return nil
}

// ===== Stock movements =====

type movementAdapter struct{ s *Store }

// StockMovements returns the ledger port of s.
func (s *Store) StockMovements() outbound.StockMovementDatabasePort { return &movementAdapter{s} }

func (a *movementAdapter) ExistsByKey(_ context.Context, key string) (bool, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	for _, m := range a.s.data.movements {
		if m.IdempotencyKey == key {
			return true, nil
		}
	}
	return false, nil
}

func (a *movementAdapter) Create(_ context.Context, m *model.StockMovement) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	if err := a.s.failure("movements.Create"); err != nil {
		return err
	}
	for _, existing := range a.s.data.movements {
		if existing.IdempotencyKey == m.IdempotencyKey {
			return outbound.ErrDuplicateKey
		}
	}
	c := *m
	a.s.data.movements = append(a.s.data.movements, &c)
	return nil
}

func (a *movementAdapter) List(_ context.Context, filter *model.StockMovementFilter, page, pageSize int) ([]*model.StockMovement, int64, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	var out []*model.StockMovement
	for i := len(a.s.data.movements) - 1; i >= 0; i-- {
		m := a.s.data.movements[i]
		if filter != nil {
			if filter.ProductID != nil && m.ProductID != *filter.ProductID {
				continue
			}
			if filter.WarehouseID != nil && m.WarehouseID != *filter.WarehouseID {
				continue
			}
			if filter.DocumentID != nil && m.DocumentID != *filter.DocumentID {
				continue
			}
			if filter.Type != nil && m.Type != *filter.Type {
				continue
			}
			if r := filter.CreatedAt; r != nil {
				if (r.From != nil && m.CreatedAt.Before(*r.From)) || (r.To != nil && m.CreatedAt.After(*r.To)) {
					continue
				}
			}
		}
		c := *m
		out = append(out, &c)
	}
	return paginate(out, page, pageSize), int64(len(out)), nil
}

func (a *movementAdapter) SumChanges(_ context.Context, productID, warehouseID uuid.UUID) (int64, int64, int64, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	var onHand, reserved, count int64
	for _, m := range a.s.data.movements {
		if m.ProductID == productID && m.WarehouseID == warehouseID {
			onHand += m.QtyChangeOnHand
			reserved += m.QtyChangeReserved
			count++
		}
	}
	return onHand, reserved, count, nil
}
