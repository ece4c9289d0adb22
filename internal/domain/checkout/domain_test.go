package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/orderledger/server/internal/adapter/outbound/memory"
	"github.com/orderledger/server/internal/domain/audit"
	"github.com/orderledger/server/internal/model"
	"github.com/orderledger/server/internal/port/outbound"
	apperrors "github.com/orderledger/server/internal/utils/errors"
)

type mockLocker struct {
	mock.Mock
}

func (m *mockLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	args := m.Called(ctx, key, ttl)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(func(context.Context) error), args.Error(1)
}

type fixture struct {
	ctx      context.Context
	store    *memory.Store
	domain   *checkoutDomain
	actor    *model.UserContext
	widget   *model.Product
	gadget   *model.Product
	obsolete *model.Product
}

func newFixture(t *testing.T, locker outbound.LockerPort) *fixture {
	t.Helper()

	store := memory.NewStore()
	recorder := audit.NewRecorder(store.AuditLog(), nil, zap.NewNop())
	d := newCheckoutDomain(
		store.Orders(),
		store.OrderHistory(),
		store.Products(),
		store.CustomerProfiles(),
		store,
		store,
		locker,
		recorder,
		nil,
		nil,
		zap.NewNop(),
	)
	d.now = func() time.Time { return time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC) }

	f := &fixture{
		ctx:      context.Background(),
		store:    store,
		domain:   d,
		actor:    &model.UserContext{UserID: uuid.New(), Role: model.RoleCustomer},
		widget:   &model.Product{ID: uuid.New(), SKU: "WID-1", Name: "Widget", Price: decimal.RequireFromString("12.50"), Active: true},
		gadget:   &model.Product{ID: uuid.New(), SKU: "GAD-1", Name: "Gadget", Price: decimal.NewFromInt(40), Active: true},
		obsolete: &model.Product{ID: uuid.New(), SKU: "OLD-1", Name: "Old", Price: decimal.NewFromInt(1), Active: false},
	}
	store.AddProduct(f.widget)
	store.AddProduct(f.gadget)
	store.AddProduct(f.obsolete)
	return f
}

func (f *fixture) input() *Input {
	return &Input{
		Items: []ItemInput{
			{ProductID: f.widget.ID, Quantity: 2},
			{ProductID: f.gadget.ID, Quantity: 1},
		},
		CustomerName:    "Lan Nguyen",
		CustomerEmail:   "lan@example.com",
		ShippingAddress: &Address{Line1: "12 Hang Bac", City: "Hanoi"},
		ShippingFee:     decimal.NewFromInt(5),
	}
}

func TestCheckout_CreatesPendingOrder(t *testing.T) {
	f := newFixture(t, nil)

	o, err := f.domain.Checkout(f.ctx, f.actor, f.input())
	require.NoError(t, err)

	assert.Equal(t, "ORD-2026-000001", o.OrderCode)
	assert.Equal(t, "2026000001", o.OrderNumber)
	assert.Equal(t, model.OrderStatusPendingConfirmation, o.Status)
	assert.Equal(t, model.LegacyStatusPending, o.LegacyStatus)
	assert.Equal(t, model.FulfillmentUnfulfilled, o.FulfillmentStatus)
	assert.Equal(t, model.PaymentStateUnpaid, o.PaymentState)
	assert.Equal(t, "65.00", o.Total.StringFixed(2))
	assert.Equal(t, "60.00", o.Subtotal.StringFixed(2))
	assert.True(t, o.OutstandingAmount.Equal(o.Total))
	assert.Equal(t, model.BuyerTypePersonal, o.BuyerType)
	assert.Equal(t, f.actor.UserID, *o.UserID)

	require.Len(t, o.Items, 2)
	assert.Equal(t, "WID-1", o.Items[0].SKU)
	assert.Equal(t, "Widget", o.Items[0].ProductName)
	assert.Equal(t, "25.00", o.Items[0].LineTotal.StringFixed(2))

	var billing Address
	require.NoError(t, json.Unmarshal(o.BillingAddress, &billing))
	assert.Equal(t, "Hanoi", billing.City)

	history, err := f.store.OrderHistory().ListByOrderID(f.ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Nil(t, history[0].FromStatus)
	assert.Equal(t, model.OrderStatusPendingConfirmation, history[0].ToStatus)

	logs := f.store.AuditLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, model.AuditActionOrderCreated, logs[0].Action)

	second, err := f.domain.Checkout(f.ctx, f.actor, f.input())
	require.NoError(t, err)
	assert.Equal(t, "ORD-2026-000002", second.OrderCode)
}

func TestCheckout_SnapshotSurvivesCatalogEdit(t *testing.T) {
	f := newFixture(t, nil)
	o, err := f.domain.Checkout(f.ctx, f.actor, f.input())
	require.NoError(t, err)

	f.store.AddProduct(&model.Product{ID: f.widget.ID, SKU: "WID-2", Name: "Widget Pro", Price: decimal.NewFromInt(99), Active: true})

	stored, err := f.store.Orders().GetByID(f.ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "Widget", stored.Items[0].ProductName)
	assert.Equal(t, "12.50", stored.Items[0].UnitPrice.StringFixed(2))
}

func TestCheckout_IdempotencyKey(t *testing.T) {
	f := newFixture(t, nil)
	in := f.input()
	in.IdempotencyKey = "cart-42"

	first, err := f.domain.Checkout(f.ctx, f.actor, in)
	require.NoError(t, err)
	again, err := f.domain.Checkout(f.ctx, f.actor, in)
	require.NoError(t, err)

	assert.Equal(t, first.ID, again.ID)
	orders, total, err := f.store.Orders().List(f.ctx, nil, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, orders, 1)
}

func TestCheckout_ConcurrentRetriesCreateOneOrder(t *testing.T) {
	f := newFixture(t, nil)

	var wg sync.WaitGroup
	ids := make([]uuid.UUID, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			in := f.input()
			in.IdempotencyKey = "cart-race"
			o, err := f.domain.Checkout(f.ctx, f.actor, in)
			if assert.NoError(t, err) {
				ids[i] = o.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids[1:] {
		assert.Equal(t, ids[0], id)
	}
	_, total, err := f.store.Orders().List(f.ctx, nil, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestCheckout_Locker(t *testing.T) {
	t.Run("lock held elsewhere is a conflict", func(t *testing.T) {
		locker := new(mockLocker)
		f := newFixture(t, locker)
		locker.On("Obtain", mock.Anything, "checkout:busy", 10*time.Second).Return(nil, outbound.ErrLockNotObtained)

		in := f.input()
		in.IdempotencyKey = "busy"
		_, err := f.domain.Checkout(f.ctx, f.actor, in)
		assert.True(t, apperrors.IsConflict(err))
	})

	t.Run("lock is released after checkout", func(t *testing.T) {
		locker := new(mockLocker)
		f := newFixture(t, locker)
		released := false
		release := func(context.Context) error {
			released = true
			return nil
		}
		locker.On("Obtain", mock.Anything, "checkout:ok", 10*time.Second).Return(release, nil)

		in := f.input()
		in.IdempotencyKey = "ok"
		_, err := f.domain.Checkout(f.ctx, f.actor, in)
		require.NoError(t, err)
		assert.True(t, released)
		locker.AssertExpectations(t)
	})

	t.Run("no key skips the lock", func(t *testing.T) {
		locker := new(mockLocker)
		f := newFixture(t, locker)
		_, err := f.domain.Checkout(f.ctx, f.actor, f.input())
		require.NoError(t, err)
		locker.AssertNotCalled(t, "Obtain", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestCheckout_BuyerResolution(t *testing.T) {
	f := newFixture(t, nil)
	company := "Acme Trading"
	taxID := "0101234567"
	f.store.AddCustomerProfile(&model.CustomerProfile{
		UserID:      f.actor.UserID,
		BuyerType:   model.BuyerTypeBusiness,
		CompanyName: &company,
		TaxID:       &taxID,
	})

	t.Run("profile fills an unset buyer type", func(t *testing.T) {
		o, err := f.domain.Checkout(f.ctx, f.actor, f.input())
		require.NoError(t, err)
		assert.Equal(t, model.BuyerTypeBusiness, o.BuyerType)
		assert.Equal(t, company, *o.CompanyName)
		assert.Equal(t, taxID, *o.TaxID)
	})

	t.Run("input wins over profile", func(t *testing.T) {
		in := f.input()
		personal := model.BuyerTypePersonal
		in.BuyerType = &personal
		o, err := f.domain.Checkout(f.ctx, f.actor, in)
		require.NoError(t, err)
		assert.Equal(t, model.BuyerTypePersonal, o.BuyerType)
	})

	t.Run("anonymous buyers default to personal", func(t *testing.T) {
		o, err := f.domain.Checkout(f.ctx, &model.UserContext{}, f.input())
		require.NoError(t, err)
		assert.Equal(t, model.BuyerTypePersonal, o.BuyerType)
		assert.Nil(t, o.UserID)
	})
}

func TestCheckout_Validation(t *testing.T) {
	f := newFixture(t, nil)
	business := model.BuyerTypeBusiness
	unknown := model.BuyerType("GOVERNMENT")

	tests := []struct {
		name   string
		mutate func(in *Input)
		field  string
	}{
		{"empty cart", func(in *Input) { in.Items = nil }, "items"},
		{"zero quantity", func(in *Input) { in.Items[0].Quantity = 0 }, "items[0].quantity"},
		{"missing name", func(in *Input) { in.CustomerName = "" }, "customer_name"},
		{"bad email", func(in *Input) { in.CustomerEmail = "not-an-email" }, "customer_email"},
		{"missing address", func(in *Input) { in.ShippingAddress = nil }, "shipping_address"},
		{"address without city", func(in *Input) { in.ShippingAddress.City = "" }, "shipping_address.city"},
		{"business without company", func(in *Input) { in.BuyerType = &business }, "company_name"},
		{"unknown buyer type", func(in *Input) { in.BuyerType = &unknown }, "buyer_type"},
		{"negative shipping fee", func(in *Input) { in.ShippingFee = decimal.NewFromInt(-1) }, "shipping_fee"},
		{"inactive product", func(in *Input) { in.Items[1].ProductID = f.obsolete.ID }, "items[1].product_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := f.input()
			tt.mutate(in)
			_, err := f.domain.Checkout(f.ctx, f.actor, in)
			require.Error(t, err)
			var verrs apperrors.ValidationErrors
			require.True(t, errors.As(err, &verrs), err.Error())
			assert.Contains(t, verrs.Fields(), tt.field)
		})
	}

	_, total, err := f.store.Orders().List(f.ctx, nil, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestCheckout_UnknownProduct(t *testing.T) {
	f := newFixture(t, nil)
	in := f.input()
	in.Items[0].ProductID = uuid.New()

	_, err := f.domain.Checkout(f.ctx, f.actor, in)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCheckout_RollsBackOnHistoryFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.store.FailOn("history.Create", errors.New("disk full"))

	_, err := f.domain.Checkout(f.ctx, f.actor, f.input())
	require.Error(t, err)

	_, total, err := f.store.Orders().List(f.ctx, nil, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, total)

	f.store.FailOn("history.Create", nil)
	o, err := f.domain.Checkout(f.ctx, f.actor, f.input())
	require.NoError(t, err)
	assert.Equal(t, "ORD-2026-000001", o.OrderCode)
}
