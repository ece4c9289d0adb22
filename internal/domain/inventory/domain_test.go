package inventory

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/orderledger/server/internal/adapter/outbound/memory"
	"github.com/orderledger/server/internal/domain/audit"
	"github.com/orderledger/server/internal/model"
	"github.com/orderledger/server/internal/port/outbound"
	apperrors "github.com/orderledger/server/internal/utils/errors"
)

type fixture struct {
	ctx       context.Context
	store     *memory.Store
	domain    *Domain
	warehouse *model.Warehouse
	actor     *model.UserContext
	product   uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	recorder := audit.NewRecorder(store.AuditLog(), nil, zap.NewNop())
	d := NewDomain(
		store.Warehouses(),
		store.InventoryItems(),
		store.StockDocuments(),
		store.StockMovements(),
		store,
		store,
		recorder,
		nil,
		nil,
		zap.NewNop(),
	)
	d.now = func() time.Time { return time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC) }

	f := &fixture{
		ctx:     context.Background(),
		store:   store,
		domain:  d,
		actor:   &model.UserContext{UserID: uuid.New(), Role: model.RoleStaff},
		product: uuid.New(),
	}
	f.warehouse = f.addWarehouse(t, "W1")
	return f
}

func (f *fixture) addWarehouse(t *testing.T, code string) *model.Warehouse {
	t.Helper()
	w := &model.Warehouse{ID: uuid.New(), Code: code, Name: code, Active: true}
	require.NoError(t, f.store.Warehouses().Create(f.ctx, w))
	return w
}

func (f *fixture) input(typ model.StockDocumentType, quantities ...int64) *CreateDocumentInput {
	in := &CreateDocumentInput{Type: typ, WarehouseID: f.warehouse.ID}
	for _, q := range quantities {
		in.Lines = append(in.Lines, DocumentLineInput{ProductID: f.product, Quantity: q})
	}
	return in
}

func (f *fixture) createAndPost(t *testing.T, in *CreateDocumentInput) (*model.StockDocument, int, error) {
	t.Helper()
	doc, err := f.domain.CreateDocument(f.ctx, f.actor, in)
	require.NoError(t, err)
	applied, err := f.domain.PostDocument(f.ctx, f.actor, doc.ID)
	return doc, applied, err
}

func (f *fixture) balance(t *testing.T, warehouseID uuid.UUID) *model.InventoryItem {
	t.Helper()
	item, err := f.store.InventoryItems().Get(f.ctx, f.product, warehouseID)
	require.NoError(t, err)
	if item == nil {
		return &model.InventoryItem{}
	}
	return item
}

func TestDomain_ReceiveAndIssue(t *testing.T) {
	f := newFixture(t)

	t.Run("GRN of 100 sets on-hand", func(t *testing.T) {
		doc, applied, err := f.createAndPost(t, f.input(model.StockDocumentTypeGRN, 100))
		require.NoError(t, err)
		assert.Equal(t, 1, applied)
		assert.Equal(t, "GRN-202603-000001", doc.Code)

		item := f.balance(t, f.warehouse.ID)
		assert.Equal(t, int64(100), item.OnHandQty)
		assert.Equal(t, int64(0), item.ReservedQty)
		assert.Equal(t, int64(100), item.AvailableQty)
	})

	t.Run("ISSUE of 30 leaves 70", func(t *testing.T) {
		doc, _, err := f.createAndPost(t, f.input(model.StockDocumentTypeIssue, 30))
		require.NoError(t, err)
		assert.Equal(t, "ISS-202603-000001", doc.Code)
		assert.Equal(t, int64(70), f.balance(t, f.warehouse.ID).OnHandQty)
	})

	t.Run("ISSUE beyond on-hand is rejected without partial movement", func(t *testing.T) {
		before := len(f.store.Movements())

		doc, applied, err := f.createAndPost(t, f.input(model.StockDocumentTypeIssue, 5, 1000))
		require.Error(t, err)
		assert.Equal(t, 0, applied)

		var stockErr *InsufficientStockError
		require.True(t, errors.As(err, &stockErr))
		assert.Equal(t, f.product, stockErr.ProductID)
		assert.Equal(t, BucketOnHand, stockErr.Bucket)
		assert.Equal(t, int64(65), stockErr.Current)
		assert.True(t, apperrors.IsConflict(err))
		assert.Equal(t, "INSUFFICIENT_STOCK", apperrors.From(err).Code)

		assert.Equal(t, int64(70), f.balance(t, f.warehouse.ID).OnHandQty)
		assert.Len(t, f.store.Movements(), before)

		stored, err := f.domain.GetDocument(f.ctx, doc.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StockDocumentStatusDraft, stored.Status)
	})

	t.Run("ledger reconciles with balance", func(t *testing.T) {
		rec, err := f.domain.ReconcileItem(f.ctx, f.product, f.warehouse.ID)
		require.NoError(t, err)
		assert.True(t, rec.Balanced)
		assert.Equal(t, int64(70), rec.LedgerOnHand)
		assert.Equal(t, int64(2), rec.MovementCount)
	})
}

func TestDomain_PostDocument(t *testing.T) {
	t.Run("posting twice fails and applies nothing", func(t *testing.T) {
		f := newFixture(t)
		doc, _, err := f.createAndPost(t, f.input(model.StockDocumentTypeGRN, 10))
		require.NoError(t, err)

		applied, err := f.domain.PostDocument(f.ctx, f.actor, doc.ID)
		assert.Equal(t, 0, applied)

		var transErr *apperrors.TransitionError
		require.True(t, errors.As(err, &transErr))
		assert.Equal(t, "POSTED", transErr.From)
		assert.Equal(t, "POSTED", transErr.To)
		assert.Len(t, f.store.Movements(), 1)
		assert.Equal(t, int64(10), f.balance(t, f.warehouse.ID).OnHandQty)
	})

	t.Run("unknown document", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.domain.PostDocument(f.ctx, f.actor, uuid.New())
		assert.True(t, apperrors.IsNotFound(err))
	})

	t.Run("lost insert race counts as already applied", func(t *testing.T) {
		f := newFixture(t)
		doc, err := f.domain.CreateDocument(f.ctx, f.actor, f.input(model.StockDocumentTypeGRN, 10))
		require.NoError(t, err)

		f.store.FailOn("movements.Create", outbound.ErrDuplicateKey)
		applied, err := f.domain.PostDocument(f.ctx, f.actor, doc.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, applied)
		assert.Equal(t, int64(0), f.balance(t, f.warehouse.ID).OnHandQty)
	})

	t.Run("failure after movements rolls the whole posting back", func(t *testing.T) {
		f := newFixture(t)
		doc, err := f.domain.CreateDocument(f.ctx, f.actor, f.input(model.StockDocumentTypeGRN, 10, 20))
		require.NoError(t, err)

		f.store.FailOn("documents.UpdateStatus", errors.New("connection lost"))
		_, err = f.domain.PostDocument(f.ctx, f.actor, doc.ID)
		require.Error(t, err)

		assert.Empty(t, f.store.Movements())
		assert.Equal(t, int64(0), f.balance(t, f.warehouse.ID).OnHandQty)

		f.store.FailOn("documents.UpdateStatus", nil)
		applied, err := f.domain.PostDocument(f.ctx, f.actor, doc.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, applied)
		assert.Equal(t, int64(30), f.balance(t, f.warehouse.ID).OnHandQty)
	})

	t.Run("movement keys follow document and line", func(t *testing.T) {
		f := newFixture(t)
		doc, _, err := f.createAndPost(t, f.input(model.StockDocumentTypeGRN, 3))
		require.NoError(t, err)

		movements := f.store.Movements()
		require.Len(t, movements, 1)
		assert.Equal(t, MovementKey(doc.ID, doc.Lines[0].ID, model.StockDocumentTypeGRN, ""), movements[0].IdempotencyKey)
		assert.Equal(t, int64(3), movements[0].OnHandAfter)
		assert.Equal(t, f.actor.UserID, *movements[0].CreatedBy)
	})
}

func TestDomain_CreateDocumentValidation(t *testing.T) {
	f := newFixture(t)
	other := f.addWarehouse(t, "W2")

	tests := []struct {
		name   string
		input  *CreateDocumentInput
		fields []string
	}{
		{"no lines", f.input(model.StockDocumentTypeGRN), []string{"lines"}},
		{"zero issue quantity", f.input(model.StockDocumentTypeIssue, 0), []string{"lines[0].quantity"}},
		{"negative deduct quantity", f.input(model.StockDocumentTypeDeduct, 4, -1), []string{"lines[1].quantity"}},
		{"zero adjustment", f.input(model.StockDocumentTypeAdjustment, 0), []string{"lines[0].quantity"}},
		{"negative reserve quantity", f.input(model.StockDocumentTypeReserve, -2), []string{"lines[0].quantity"}},
		{"negative release quantity", f.input(model.StockDocumentTypeRelease, -2), []string{"lines[0].quantity"}},
		{"unknown type", f.input("SCRAP", 1), []string{"type"}},
		{"transfer without target", f.input(model.StockDocumentTypeTransfer, 1), []string{"target_warehouse_id"}},
		{"target on non-transfer", func() *CreateDocumentInput {
			in := f.input(model.StockDocumentTypeGRN, 1)
			in.TargetWarehouseID = &other.ID
			return in
		}(), []string{"target_warehouse_id"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.domain.CreateDocument(f.ctx, f.actor, tt.input)
			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err))

			var verrs apperrors.ValidationErrors
			require.True(t, errors.As(err, &verrs))
			assert.Equal(t, tt.fields, verrs.Fields())
		})
	}

	t.Run("missing warehouse is named", func(t *testing.T) {
		in := f.input(model.StockDocumentTypeGRN, 1)
		in.WarehouseID = uuid.New()

		_, err := f.domain.CreateDocument(f.ctx, f.actor, in)
		var nf *apperrors.NotFoundError
		require.True(t, errors.As(err, &nf))
		assert.Equal(t, "warehouse", nf.Entity)
		assert.Equal(t, in.WarehouseID.String(), nf.ID)
	})

	t.Run("negative adjustment is accepted", func(t *testing.T) {
		doc, err := f.domain.CreateDocument(f.ctx, f.actor, f.input(model.StockDocumentTypeAdjustment, -3))
		require.NoError(t, err)
		assert.Equal(t, "ADJ-202603-000001", doc.Code)
		assert.Equal(t, model.StockDocumentStatusDraft, doc.Status)
	})
}

func TestDomain_VoidDocument(t *testing.T) {
	t.Run("void of posted issue restores the balance", func(t *testing.T) {
		f := newFixture(t)
		_, _, err := f.createAndPost(t, f.input(model.StockDocumentTypeGRN, 100))
		require.NoError(t, err)
		issue, _, err := f.createAndPost(t, f.input(model.StockDocumentTypeIssue, 30))
		require.NoError(t, err)

		voided, err := f.domain.VoidDocument(f.ctx, f.actor, issue.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StockDocumentStatusVoid, voided.Status)
		require.NotNil(t, voided.VoidedAt)
		assert.Equal(t, int64(100), f.balance(t, f.warehouse.ID).OnHandQty)

		movements := f.store.Movements()
		last := movements[len(movements)-1]
		assert.Equal(t, model.StockDocumentTypeRestock, last.Type)
		assert.True(t, strings.HasSuffix(last.IdempotencyKey, ":void"))
		assert.Equal(t, int64(30), last.QtyChangeOnHand)

		t.Run("voiding again fails", func(t *testing.T) {
			_, err := f.domain.VoidDocument(f.ctx, f.actor, issue.ID)
			var transErr *apperrors.TransitionError
			require.True(t, errors.As(err, &transErr))
			assert.Equal(t, "VOID", transErr.From)
			assert.Len(t, f.store.Movements(), len(movements))
		})
	})

	t.Run("void of draft writes no movement", func(t *testing.T) {
		f := newFixture(t)
		doc, err := f.domain.CreateDocument(f.ctx, f.actor, f.input(model.StockDocumentTypeGRN, 5))
		require.NoError(t, err)

		voided, err := f.domain.VoidDocument(f.ctx, f.actor, doc.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StockDocumentStatusVoid, voided.Status)
		assert.Empty(t, f.store.Movements())

		_, err = f.domain.PostDocument(f.ctx, f.actor, doc.ID)
		assert.True(t, apperrors.IsConflict(err))
	})

	t.Run("reversal that would go negative fails loudly", func(t *testing.T) {
		f := newFixture(t)
		grn, _, err := f.createAndPost(t, f.input(model.StockDocumentTypeGRN, 10))
		require.NoError(t, err)
		_, _, err = f.createAndPost(t, f.input(model.StockDocumentTypeIssue, 8))
		require.NoError(t, err)

		_, err = f.domain.VoidDocument(f.ctx, f.actor, grn.ID)
		var stockErr *InsufficientStockError
		require.True(t, errors.As(err, &stockErr))
		assert.Equal(t, int64(2), stockErr.Current)

		stored, err := f.domain.GetDocument(f.ctx, grn.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StockDocumentStatusPosted, stored.Status)
		assert.Equal(t, int64(2), f.balance(t, f.warehouse.ID).OnHandQty)
	})

	t.Run("void of reserve releases it", func(t *testing.T) {
		f := newFixture(t)
		reserve, _, err := f.createAndPost(t, f.input(model.StockDocumentTypeReserve, 4))
		require.NoError(t, err)
		assert.Equal(t, int64(4), f.balance(t, f.warehouse.ID).ReservedQty)

		_, err = f.domain.VoidDocument(f.ctx, f.actor, reserve.ID)
		require.NoError(t, err)
		item := f.balance(t, f.warehouse.ID)
		assert.Equal(t, int64(0), item.ReservedQty)
		assert.Equal(t, int64(0), item.AvailableQty)
	})

	t.Run("void of deduct restores on-hand and reserved", func(t *testing.T) {
		f := newFixture(t)
		_, _, err := f.createAndPost(t, f.input(model.StockDocumentTypeGRN, 10))
		require.NoError(t, err)
		_, _, err = f.createAndPost(t, f.input(model.StockDocumentTypeReserve, 4))
		require.NoError(t, err)
		deduct, _, err := f.createAndPost(t, f.input(model.StockDocumentTypeDeduct, 4))
		require.NoError(t, err)

		item := f.balance(t, f.warehouse.ID)
		assert.Equal(t, int64(6), item.OnHandQty)
		assert.Equal(t, int64(0), item.ReservedQty)

		_, err = f.domain.VoidDocument(f.ctx, f.actor, deduct.ID)
		require.NoError(t, err)
		item = f.balance(t, f.warehouse.ID)
		assert.Equal(t, int64(10), item.OnHandQty)
		assert.Equal(t, int64(4), item.ReservedQty)
		assert.Equal(t, int64(6), item.AvailableQty)
	})

	t.Run("void of adjustment is neutral", func(t *testing.T) {
		f := newFixture(t)
		adj, _, err := f.createAndPost(t, f.input(model.StockDocumentTypeAdjustment, -5))
		require.NoError(t, err)
		assert.Equal(t, int64(-5), f.balance(t, f.warehouse.ID).OnHandQty)

		_, err = f.domain.VoidDocument(f.ctx, f.actor, adj.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(-5), f.balance(t, f.warehouse.ID).OnHandQty)

		movements := f.store.Movements()
		require.Len(t, movements, 2)
		assert.Equal(t, model.StockDocumentTypeAdjustment, movements[1].Type)
		assert.Equal(t, int64(0), movements[1].QtyChangeOnHand)
	})
}

func TestDomain_Transfer(t *testing.T) {
	f := newFixture(t)
	target := f.addWarehouse(t, "W2")
	_, _, err := f.createAndPost(t, f.input(model.StockDocumentTypeGRN, 50))
	require.NoError(t, err)

	t.Run("moves stock between warehouses atomically", func(t *testing.T) {
		in := f.input(model.StockDocumentTypeTransfer, 20)
		in.TargetWarehouseID = &target.ID

		doc, applied, err := f.createAndPost(t, in)
		require.NoError(t, err)
		assert.Equal(t, 2, applied)
		assert.Equal(t, int64(30), f.balance(t, f.warehouse.ID).OnHandQty)
		assert.Equal(t, int64(20), f.balance(t, target.ID).OnHandQty)

		movements := f.store.Movements()
		source, dest := movements[len(movements)-2], movements[len(movements)-1]
		assert.Equal(t, MovementKey(doc.ID, doc.Lines[0].ID, model.StockDocumentTypeTransfer, ""), source.IdempotencyKey)
		assert.Equal(t, int64(-20), source.QtyChangeOnHand)
		assert.Equal(t, MovementKey(doc.ID, doc.Lines[0].ID, model.StockDocumentTypeGRN, SuffixTransferTarget), dest.IdempotencyKey)
		assert.Equal(t, target.ID, dest.WarehouseID)
	})

	t.Run("insufficient source leaves target untouched", func(t *testing.T) {
		in := f.input(model.StockDocumentTypeTransfer, 10, 25)
		in.TargetWarehouseID = &target.ID

		_, _, err := f.createAndPost(t, in)
		var stockErr *InsufficientStockError
		require.True(t, errors.As(err, &stockErr))
		assert.Equal(t, int64(30), f.balance(t, f.warehouse.ID).OnHandQty)
		assert.Equal(t, int64(20), f.balance(t, target.ID).OnHandQty)
	})
}

func TestDomain_Reservations(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.createAndPost(t, f.input(model.StockDocumentTypeReserve, 10))
	require.NoError(t, err)
	item := f.balance(t, f.warehouse.ID)
	assert.Equal(t, int64(0), item.OnHandQty)
	assert.Equal(t, int64(10), item.ReservedQty)
	assert.Equal(t, int64(-10), item.AvailableQty)

	_, _, err = f.createAndPost(t, f.input(model.StockDocumentTypeRelease, 15))
	var stockErr *InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, BucketReserved, stockErr.Bucket)
	assert.Equal(t, int64(10), stockErr.Current)

	_, _, err = f.createAndPost(t, f.input(model.StockDocumentTypeRelease, 10))
	require.NoError(t, err)
	assert.Equal(t, int64(0), f.balance(t, f.warehouse.ID).ReservedQty)
}

func TestDomain_CreateAndPostDocument(t *testing.T) {
	f := newFixture(t)
	key := "order:abc:RESERVE:1"
	ref := model.ReferenceTypeOrder
	refID := "abc"

	in := f.input(model.StockDocumentTypeReserve, 3)
	in.SourceKey = &key
	in.ReferenceType = &ref
	in.ReferenceID = &refID

	doc, applied, err := f.domain.CreateAndPostDocument(f.ctx, &model.SystemUser, in)
	require.NoError(t, err)
	assert.Equal(t, 1, applied)
	assert.Equal(t, model.StockDocumentStatusPosted, doc.Status)
	require.NotNil(t, doc.PostedAt)

	again, applied, err := f.domain.CreateAndPostDocument(f.ctx, &model.SystemUser, in)
	require.NoError(t, err)
	assert.Equal(t, 0, applied)
	assert.Equal(t, doc.ID, again.ID)
	assert.Len(t, f.store.Documents(), 1)
	assert.Equal(t, int64(3), f.balance(t, f.warehouse.ID).ReservedQty)

	docs, total, err := f.domain.ListDocuments(f.ctx, &model.StockDocumentFilter{ReferenceID: &refID}, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, doc.ID, docs[0].ID)
}

func TestDomain_Warehouses(t *testing.T) {
	t.Run("ensure default creates once", func(t *testing.T) {
		f := newFixture(t)

		w, err := f.domain.EnsureDefaultWarehouse(f.ctx)
		require.NoError(t, err)
		assert.Equal(t, "MAIN", w.Code)
		assert.True(t, w.IsDefault)

		again, err := f.domain.EnsureDefaultWarehouse(f.ctx)
		require.NoError(t, err)
		assert.Equal(t, w.ID, again.ID)

		all, err := f.domain.ListWarehouses(f.ctx)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("ensure default promotes existing code", func(t *testing.T) {
		f := newFixture(t)
		main := f.addWarehouse(t, "MAIN")

		w, err := f.domain.EnsureDefaultWarehouse(f.ctx)
		require.NoError(t, err)
		assert.Equal(t, main.ID, w.ID)
		assert.True(t, w.IsDefault)
	})

	t.Run("create default clears previous default", func(t *testing.T) {
		f := newFixture(t)
		first, err := f.domain.CreateWarehouse(f.ctx, f.actor, &CreateWarehouseInput{Code: "a1", Name: "A", IsDefault: true})
		require.NoError(t, err)
		assert.Equal(t, "A1", first.Code)

		second, err := f.domain.CreateWarehouse(f.ctx, f.actor, &CreateWarehouseInput{Code: "B1", Name: "B", IsDefault: true})
		require.NoError(t, err)

		def, err := f.store.Warehouses().GetDefault(f.ctx)
		require.NoError(t, err)
		assert.Equal(t, second.ID, def.ID)

		_, err = f.domain.SetDefaultWarehouse(f.ctx, f.actor, first.ID)
		require.NoError(t, err)
		def, err = f.store.Warehouses().GetDefault(f.ctx)
		require.NoError(t, err)
		assert.Equal(t, first.ID, def.ID)
	})

	t.Run("duplicate code conflicts", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.domain.CreateWarehouse(f.ctx, f.actor, &CreateWarehouseInput{Code: "W1", Name: "Again"})
		assert.True(t, apperrors.IsConflict(err))
	})

	t.Run("missing fields", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.domain.CreateWarehouse(f.ctx, f.actor, &CreateWarehouseInput{})
		var verrs apperrors.ValidationErrors
		require.True(t, errors.As(err, &verrs))
		assert.ElementsMatch(t, []string{"code", "name"}, verrs.Fields())
	})
}

func TestDomain_ReadsAndExport(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.createAndPost(t, f.input(model.StockDocumentTypeGRN, 12, 8))
	require.NoError(t, err)

	t.Run("inventory item", func(t *testing.T) {
		item, err := f.domain.GetInventoryItem(f.ctx, f.product, f.warehouse.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(20), item.OnHandQty)

		_, err = f.domain.GetInventoryItem(f.ctx, uuid.New(), f.warehouse.ID)
		assert.True(t, apperrors.IsNotFound(err))

		items, total, err := f.domain.ListInventoryItems(f.ctx, &f.warehouse.ID, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Len(t, items, 1)
	})

	t.Run("movements newest first", func(t *testing.T) {
		movements, total, err := f.domain.ListMovements(f.ctx, &model.StockMovementFilter{ProductID: &f.product}, 1, 20)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Equal(t, int64(20), movements[0].OnHandAfter)
	})

	t.Run("xlsx export", func(t *testing.T) {
		var buf bytes.Buffer
		rows, err := f.domain.ExportMovements(f.ctx, nil, &buf)
		require.NoError(t, err)
		assert.Equal(t, 2, rows)

		wb, err := excelize.OpenReader(&buf)
		require.NoError(t, err)
		defer wb.Close()

		sheetRows, err := wb.GetRows(movementSheet)
		require.NoError(t, err)
		require.Len(t, sheetRows, 3)
		assert.Equal(t, "Idempotency Key", sheetRows[0][10])
		assert.Equal(t, "GRN", sheetRows[1][5])
	})

	t.Run("audit trail is written after commit", func(t *testing.T) {
		actions := make([]model.AuditAction, 0)
		for _, l := range f.store.AuditLogs() {
			actions = append(actions, l.Action)
		}
		assert.Equal(t, []model.AuditAction{
			model.AuditActionStockDocumentCreated,
			model.AuditActionStockDocumentPosted,
		}, actions)
	})
}
