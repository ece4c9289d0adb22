package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/orderledger/server/internal/model"
	"github.com/orderledger/server/internal/port/outbound"
)

// ===== Orders =====

type orderAdapter struct{ s *Store }

// Orders returns the order port of s.
func (s *Store) Orders() outbound.OrderDatabasePort { return &orderAdapter{s} }

func (a *orderAdapter) Create(_ context.Context, o *model.Order) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	if err := a.s.failure("orders.Create"); err != nil {
		return err
	}
	for _, existing := range a.s.data.orders {
		if existing.OrderCode == o.OrderCode {
			return outbound.ErrDuplicateKey
		}
		if o.CheckoutKey != nil && existing.CheckoutKey != nil && *existing.CheckoutKey == *o.CheckoutKey {
			return outbound.ErrDuplicateKey
		}
	}
	a.s.data.orders[o.ID] = cloneOrder(o)
	return nil
}

func (a *orderAdapter) GetByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	if o, ok := a.s.data.orders[id]; ok {
		return cloneOrder(o), nil
	}
	return nil, nil
}

func (a *orderAdapter) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	return a.GetByID(ctx, id)
}

func (a *orderAdapter) find(match func(*model.Order) bool) *model.Order {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	for _, o := range a.s.data.orders {
		if match(o) {
			return cloneOrder(o)
		}
	}
	return nil
}

func (a *orderAdapter) GetByCode(_ context.Context, code string) (*model.Order, error) {
	return a.find(func(o *model.Order) bool { return o.OrderCode == code }), nil
}

func (a *orderAdapter) GetByCheckoutKey(_ context.Context, key string) (*model.Order, error) {
	return a.find(func(o *model.Order) bool { return o.CheckoutKey != nil && *o.CheckoutKey == key }), nil
}

func (a *orderAdapter) List(_ context.Context, filter *model.OrderFilter, page, pageSize int) ([]*model.Order, int64, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	var out []*model.Order
	for _, o := range a.s.data.orders {
		if filter != nil {
			if filter.Status != nil && o.Status != *filter.Status {
				continue
			}
			if filter.UserID != nil && (o.UserID == nil || *o.UserID != *filter.UserID) {
				continue
			}
			if q := strings.ToLower(filter.Search); q != "" &&
				!strings.Contains(strings.ToLower(o.OrderCode), q) &&
				!strings.Contains(strings.ToLower(o.CustomerName), q) &&
				!strings.Contains(strings.ToLower(o.CustomerEmail), q) {
				continue
			}
			if r := filter.CreatedAt; r != nil {
				if (r.From != nil && o.CreatedAt.Before(*r.From)) || (r.To != nil && o.CreatedAt.After(*r.To)) {
					continue
				}
			}
		}
		out = append(out, cloneOrder(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, page, pageSize), int64(len(out)), nil
}

func (a *orderAdapter) Update(_ context.Context, o *model.Order) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	if err := a.s.failure("orders.Update"); err != nil {
		return err
	}
	stored, ok := a.s.data.orders[o.ID]
	if !ok {
		return nil
	}
	items := stored.Items
	updated := cloneOrder(o)
	updated.Items = items
	a.s.data.orders[o.ID] = updated
	return nil
}

// ===== Status history =====

type historyAdapter struct{ s *Store }

// OrderHistory returns the status history port of s.
func (s *Store) OrderHistory() outbound.OrderHistoryDatabasePort { return &historyAdapter{s} }

func (a *historyAdapter) Create(_ context.Context, entry *model.OrderStatusHistory) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	if err := a.s.failure("history.Create"); err != nil {
		return err
	}
	c := *entry
	a.s.data.history = append(a.s.data.history, &c)
	return nil
}

func (a *historyAdapter) ListByOrderID(_ context.Context, orderID uuid.UUID) ([]*model.OrderStatusHistory, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	out := []*model.OrderStatusHistory{}
	for _, h := range a.s.data.history {
		if h.OrderID == orderID {
			c := *h
			out = append(out, &c)
		}
	}
	return out, nil
}

// ===== Payments =====

type paymentAdapter struct{ s *Store }

// Payments returns the payment port of s.
func (s *Store) Payments() outbound.PaymentDatabasePort { return &paymentAdapter{s} }

func (a *paymentAdapter) Create(_ context.Context, p *model.Payment) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	if err := a.s.failure("payments.Create"); err != nil {
		return err
	}
	c := *p
	a.s.data.payments = append(a.s.data.payments, &c)
	return nil
}

func (a *paymentAdapter) ListByOrderID(_ context.Context, orderID uuid.UUID) ([]*model.Payment, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	out := []*model.Payment{}
	for _, p := range a.s.data.payments {
		if p.OrderID == orderID {
			c := *p
			out = append(out, &c)
		}
	}
	return out, nil
}

func (a *paymentAdapter) SumByOrderID(_ context.Context, orderID uuid.UUID) (decimal.Decimal, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	sum := decimal.Zero
	for _, p := range a.s.data.payments {
		if p.OrderID == orderID {
			sum = sum.Add(p.Amount)
		}
	}
	return sum, nil
}

// ===== Catalog and profiles =====

type catalogAdapter struct{ s *Store }

// Products returns the product catalog port of s.
func (s *Store) Products() outbound.ProductCatalogPort { return &catalogAdapter{s} }

func (a *catalogAdapter) GetByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Product, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	out := make(map[uuid.UUID]*model.Product, len(ids))
	for _, id := range ids {
		if p, ok := a.s.data.products[id]; ok {
			c := *p
			out[id] = &c
		}
	}
	return out, nil
}

type profileAdapter struct{ s *Store }

// CustomerProfiles returns the customer profile port of s.
func (s *Store) CustomerProfiles() outbound.CustomerProfilePort { return &profileAdapter{s} }

func (a *profileAdapter) GetByUserID(_ context.Context, userID uuid.UUID) (*model.CustomerProfile, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	if p, ok := a.s.data.profiles[userID]; ok {
		c := *p
		return &c, nil
	}
	return nil, nil
}

// ===== Audit =====

type auditAdapter struct{ s *Store }

// AuditLog returns the audit log port of s.
func (s *Store) AuditLog() outbound.AuditLogDatabasePort { return &auditAdapter{s} }

func (a *auditAdapter) Create(_ context.Context, entry *model.AuditLog) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	if err := a.s.failure("audit.Create"); err != nil {
		return err
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	c := *entry
	a.s.data.auditLogs = append(a.s.data.auditLogs, &c)
	return nil
}

func (a *auditAdapter) ListByEntity(_ context.Context, entityType, entityID string) ([]*model.AuditLog, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	out := []*model.AuditLog{}
	for _, l := range a.s.data.auditLogs {
		if l.EntityType == entityType && l.EntityID == entityID {
			c := *l
			out = append(out, &c)
		}
	}
	return out, nil
}
