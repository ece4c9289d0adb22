// Package memory provides map-backed implementations of the outbound ports for tests.
// Transactions are serialised and roll back by restoring a snapshot, which is
// enough to exercise the domain's all-or-nothing behaviour without Postgres.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/orderledger/server/internal/model"
)

type txKey struct{}

type itemKey struct {
	productID   uuid.UUID
	warehouseID uuid.UUID
}

type state struct {
	warehouses map[uuid.UUID]*model.Warehouse
	items      map[itemKey]*model.InventoryItem
	documents  map[uuid.UUID]*model.StockDocument
	movements  []*model.StockMovement
	counters   map[string]int64
	orders     map[uuid.UUID]*model.Order
	history    []*model.OrderStatusHistory
	payments   []*model.Payment
	products   map[uuid.UUID]*model.Product
	profiles   map[uuid.UUID]*model.CustomerProfile
	auditLogs  []*model.AuditLog
}

func newState() *state {
	return &state{
		warehouses: make(map[uuid.UUID]*model.Warehouse),
		items:      make(map[itemKey]*model.InventoryItem),
		documents:  make(map[uuid.UUID]*model.StockDocument),
		counters:   make(map[string]int64),
		orders:     make(map[uuid.UUID]*model.Order),
		products:   make(map[uuid.UUID]*model.Product),
		profiles:   make(map[uuid.UUID]*model.CustomerProfile),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.warehouses {
		c.warehouses[k] = cloneWarehouse(v)
	}
	for k, v := range s.items {
		c.items[k] = cloneItem(v)
	}
	for k, v := range s.documents {
		c.documents[k] = cloneDocument(v)
	}
	c.movements = append(c.movements, s.movements...)
	for k, v := range s.counters {
		c.counters[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = cloneOrder(v)
	}
	c.history = append(c.history, s.history...)
	c.payments = append(c.payments, s.payments...)
	for k, v := range s.products {
		p := *v
		c.products[k] = &p
	}
	for k, v := range s.profiles {
		p := *v
		c.profiles[k] = &p
	}
	c.auditLogs = append(c.auditLogs, s.auditLogs...)
	return c
}

// Store holds every table in memory.
type Store struct {
	txMu sync.Mutex
	mu   sync.Mutex
	data *state
	fail map[string]error
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{data: newState(), fail: make(map[string]error)}
}

// FailOn makes the named operation (for example "movements.Create") return err
// until cleared with a nil err.
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.fail, op)
		return
	}
	s.fail[op] = err
}

// failure must be called with mu held.
func (s *Store) failure(op string) error {
	return s.fail[op]
}

// RunInTransaction serialises fn against other transactions and restores the
// previous state when fn returns an error. Nested calls join the outer transaction.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.data.clone()
	s.mu.Unlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.mu.Lock()
		s.data = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

// Next implements outbound.CounterPort.
func (s *Store) Next(_ context.Context, scope string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("counters.Next"); err != nil {
		return 0, err
	}
	s.data.counters[scope]++
	return s.data.counters[scope], nil
}

// Seed helpers for tests and local runs.

// AddProduct inserts or replaces a catalog product.
func (s *Store) AddProduct(p *model.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *p
	s.data.products[p.ID] = &c
}

// AddCustomerProfile inserts or replaces a customer profile.
func (s *Store) AddCustomerProfile(p *model.CustomerProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *p
	s.data.profiles[p.UserID] = &c
}

// AuditLogs returns a copy of every stored audit entry.
func (s *Store) AuditLogs() []*model.AuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.AuditLog, len(s.data.auditLogs))
	copy(out, s.data.auditLogs)
	return out
}

// Movements returns a copy of the whole ledger in insertion order.
func (s *Store) Movements() []*model.StockMovement {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.StockMovement, len(s.data.movements))
	copy(out, s.data.movements)
	return out
}

// Documents returns copies of every stock document.
func (s *Store) Documents() []*model.StockDocument {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.StockDocument, 0, len(s.data.documents))
	for _, d := range s.data.documents {
		out = append(out, cloneDocument(d))
	}
	return out
}

func cloneWarehouse(w *model.Warehouse) *model.Warehouse {
	c := *w
	c.Locations = nil
	return &c
}

func cloneItem(i *model.InventoryItem) *model.InventoryItem {
	c := *i
	return &c
}

func cloneDocument(d *model.StockDocument) *model.StockDocument {
	c := *d
	c.Lines = make([]*model.StockDocumentLine, 0, len(d.Lines))
	for _, l := range d.Lines {
		lc := *l
		c.Lines = append(c.Lines, &lc)
	}
	return &c
}

func cloneOrder(o *model.Order) *model.Order {
	c := *o
	c.Items = make([]*model.OrderItem, 0, len(o.Items))
	for _, it := range o.Items {
		ic := *it
		c.Items = append(c.Items, &ic)
	}
	return &c
}

func paginate[T any](rows []T, page, pageSize int) []T {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		return rows
	}
	start := (page - 1) * pageSize
	if start >= len(rows) {
		return []T{}
	}
	end := start + pageSize
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}
