package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/orderledger/server/internal/domain/audit"
	"github.com/orderledger/server/internal/model"
	"github.com/orderledger/server/internal/port/outbound"
	apperrors "github.com/orderledger/server/internal/utils/errors"
	"github.com/orderledger/server/internal/utils/metrics"
	"github.com/orderledger/server/internal/utils/pagination"
	"github.com/orderledger/server/internal/utils/validation"
)

var tracer = otel.Tracer("orderledger/inventory")

// CreateDocumentInput describes a new stock document.
type CreateDocumentInput struct {
	Type              model.StockDocumentType `json:"type" validate:"required"`
	WarehouseID       uuid.UUID               `json:"warehouse_id" validate:"required"`
	TargetWarehouseID *uuid.UUID              `json:"target_warehouse_id"`
	ReferenceType     *model.ReferenceType    `json:"reference_type"`
	ReferenceID       *string                 `json:"reference_id" validate:"omitempty,max=128"`
	Note              string                  `json:"note" validate:"max=1000"`
	Lines             []DocumentLineInput     `json:"lines" validate:"required,min=1,dive"`

	// SourceKey deduplicates documents raised automatically by other services.
	SourceKey *string `json:"-"`
}

// DocumentLineInput is one line of CreateDocumentInput.
type DocumentLineInput struct {
	ProductID        uuid.UUID           `json:"product_id" validate:"required"`
	Quantity         int64               `json:"quantity"`
	UnitCost         decimal.NullDecimal `json:"unit_cost"`
	SourceLocationID *uuid.UUID          `json:"source_location_id"`
	TargetLocationID *uuid.UUID          `json:"target_location_id"`
}

// CreateWarehouseInput describes a new warehouse.
type CreateWarehouseInput struct {
	Code      string `json:"code" validate:"required,max=32"`
	Name      string `json:"name" validate:"required,max=255"`
	IsDefault bool   `json:"is_default"`
}

// Reconciliation compares an inventory balance with the sum of its ledger.
type Reconciliation struct {
	ProductID      uuid.UUID `json:"product_id"`
	WarehouseID    uuid.UUID `json:"warehouse_id"`
	OnHandQty      int64     `json:"on_hand_qty"`
	ReservedQty    int64     `json:"reserved_qty"`
	LedgerOnHand   int64     `json:"ledger_on_hand"`
	LedgerReserved int64     `json:"ledger_reserved"`
	MovementCount  int64     `json:"movement_count"`
	OnHandDrift    int64     `json:"on_hand_drift"`
	ReservedDrift  int64     `json:"reserved_drift"`
	Balanced       bool      `json:"balanced"`
}

// Domain implements the inventory stock ledger.
type Domain struct {
	warehouseDB outbound.WarehouseDatabasePort
	itemDB      outbound.InventoryItemDatabasePort
	documentDB  outbound.StockDocumentDatabasePort
	movementDB  outbound.StockMovementDatabasePort
	counter     outbound.CounterPort
	txPort      outbound.TransactionPort
	audit       audit.Sink
	cfg         *Config
	metrics     *metrics.Metrics
	logger      *zap.Logger
	now         func() time.Time
}

// NewDomain creates a new inventory domain.
func NewDomain(
	warehouseDB outbound.WarehouseDatabasePort,
	itemDB outbound.InventoryItemDatabasePort,
	documentDB outbound.StockDocumentDatabasePort,
	movementDB outbound.StockMovementDatabasePort,
	counter outbound.CounterPort,
	txPort outbound.TransactionPort,
	auditSink audit.Sink,
	cfg *Config,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Domain {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	_ = cfg.Validate()

	return &Domain{
		warehouseDB: warehouseDB,
		itemDB:      itemDB,
		documentDB:  documentDB,
		movementDB:  movementDB,
		counter:     counter,
		txPort:      txPort,
		audit:       auditSink,
		cfg:         cfg,
		metrics:     m,
		logger:      logger,
		now:         time.Now,
	}
}

// ========== Documents ==========

// CreateDocument validates the input and stores a DRAFT document with its lines.
// When SourceKey matches an existing document, that document is returned instead.
func (d *Domain) CreateDocument(ctx context.Context, actor *model.UserContext, in *CreateDocumentInput) (*model.StockDocument, error) {
	ctx, span := tracer.Start(ctx, "inventory.CreateDocument")
	defer span.End()

	if err := validateDocumentInput(in); err != nil {
		return nil, err
	}

	var (
		doc     *model.StockDocument
		created bool
	)
	err := d.txPort.RunInTransaction(ctx, func(txCtx context.Context) error {
		var err error
		doc, created, err = d.createDocumentTx(txCtx, actor, in)
		return err
	})
	if err != nil {
		return nil, err
	}

	if created {
		span.SetAttributes(attribute.String("document.code", doc.Code))
		d.logger.Info("stock document created",
			zap.String("document_id", doc.ID.String()),
			zap.String("code", doc.Code),
			zap.String("type", string(doc.Type)),
			zap.Int("lines", len(doc.Lines)),
		)
		d.audit.Record(ctx, audit.Entry{
			Action:     model.AuditActionStockDocumentCreated,
			EntityType: "stock_document",
			EntityID:   doc.ID.String(),
			After:      doc,
			Actor:      actor,
		})
	}
	return doc, nil
}

func (d *Domain) createDocumentTx(ctx context.Context, actor *model.UserContext, in *CreateDocumentInput) (*model.StockDocument, bool, error) {
	if in.SourceKey != nil {
		existing, err := d.documentDB.GetBySourceKey(ctx, *in.SourceKey)
		if err != nil {
			return nil, false, err
		}
		if existing != nil {
			return existing, false, nil
		}
	}

	if err := d.requireWarehouse(ctx, in.WarehouseID); err != nil {
		return nil, false, err
	}
	if in.TargetWarehouseID != nil {
		if err := d.requireWarehouse(ctx, *in.TargetWarehouseID); err != nil {
			return nil, false, err
		}
	}

	now := d.now()
	code, err := d.allocateDocumentCode(ctx, in.Type, now)
	if err != nil {
		return nil, false, err
	}

	doc := &model.StockDocument{
		ID:                uuid.New(),
		Code:              code,
		Type:              in.Type,
		Status:            model.StockDocumentStatusDraft,
		WarehouseID:       in.WarehouseID,
		TargetWarehouseID: in.TargetWarehouseID,
		ReferenceType:     in.ReferenceType,
		ReferenceID:       in.ReferenceID,
		SourceKey:         in.SourceKey,
		Note:              strings.TrimSpace(in.Note),
		CreatedBy:         actor.UserIDPtr(),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	for i, l := range in.Lines {
		doc.Lines = append(doc.Lines, &model.StockDocumentLine{
			ID:               uuid.New(),
			DocumentID:       doc.ID,
			LineNo:           i + 1,
			ProductID:        l.ProductID,
			Quantity:         l.Quantity,
			UnitCost:         l.UnitCost,
			SourceLocationID: l.SourceLocationID,
			TargetLocationID: l.TargetLocationID,
		})
	}

	if err := d.documentDB.Create(ctx, doc); err != nil {
		return nil, false, err
	}
	return doc, true, nil
}

// allocateDocumentCode returns {PREFIX}-{YYYYMM}-{seq:06d}. The sequence is
// scoped to the document type and calendar month.
func (d *Domain) allocateDocumentCode(ctx context.Context, t model.StockDocumentType, at time.Time) (string, error) {
	period := at.UTC().Format("200601")
	seq, err := d.counter.Next(ctx, fmt.Sprintf("stockdoc:%s:%s", t, period))
	if err != nil {
		return "", fmt.Errorf("allocate document code: %w", err)
	}
	return fmt.Sprintf("%s-%s-%06d", CodePrefix(t), period, seq), nil
}

func (d *Domain) requireWarehouse(ctx context.Context, id uuid.UUID) error {
	w, err := d.warehouseDB.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if w == nil {
		return warehouseNotFound(id)
	}
	return nil
}

func validateDocumentInput(in *CreateDocumentInput) error {
	if in == nil {
		var errs apperrors.ValidationErrors
		errs.Add("body", "is required")
		return errs
	}

	errs := validation.Struct(in)
	if in.Type != "" && !in.Type.IsValid() {
		errs.Add("type", "unknown document type "+string(in.Type))
	}
	if in.ReferenceType != nil && !in.ReferenceType.IsValid() {
		errs.Add("reference_type", "must be one of ORDER PO MANUAL")
	}

	switch {
	case in.Type == model.StockDocumentTypeTransfer && in.TargetWarehouseID == nil:
		errs.Add("target_warehouse_id", "is required for TRANSFER")
	case in.Type == model.StockDocumentTypeTransfer && *in.TargetWarehouseID == in.WarehouseID:
		errs.Add("target_warehouse_id", "must differ from warehouse_id")
	case in.Type != model.StockDocumentTypeTransfer && in.TargetWarehouseID != nil:
		errs.Add("target_warehouse_id", "is only allowed for TRANSFER")
	}

	// Only ADJUSTMENT lines carry a sign. Every other type takes a positive
	// quantity and the document type decides the direction.
	for i, l := range in.Lines {
		field := fmt.Sprintf("lines[%d].quantity", i)
		switch {
		case in.Type == model.StockDocumentTypeAdjustment && l.Quantity == 0:
			errs.Add(field, "must not be zero")
		case in.Type != model.StockDocumentTypeAdjustment && l.Quantity <= 0:
			errs.Add(field, "must be greater than 0")
		}
	}
	return errs.Err()
}

// PostDocument applies a DRAFT document to the ledger in one transaction and
// returns the number of newly written movements.
func (d *Domain) PostDocument(ctx context.Context, actor *model.UserContext, documentID uuid.UUID) (int, error) {
	ctx, span := tracer.Start(ctx, "inventory.PostDocument")
	defer span.End()
	span.SetAttributes(attribute.String("document.id", documentID.String()))

	start := time.Now()
	var (
		doc     *model.StockDocument
		applied int
	)
	err := d.txPort.RunInTransaction(ctx, func(txCtx context.Context) error {
		var err error
		doc, err = d.documentDB.GetByIDForUpdate(txCtx, documentID)
		if err != nil {
			return err
		}
		if doc == nil {
			return documentNotFound(documentID)
		}
		if !CanPostDocument(doc.Status) {
			return documentTransitionError(doc.Status, model.StockDocumentStatusPosted)
		}

		applied, err = d.applyMovements(txCtx, actor, postingMovements(doc))
		if err != nil {
			return err
		}

		now := d.now()
		doc.Status = model.StockDocumentStatusPosted
		doc.PostedBy = actor.UserIDPtr()
		doc.PostedAt = &now
		doc.UpdatedAt = now
		return d.documentDB.UpdateStatus(txCtx, doc)
	})

	docType := "unknown"
	if doc != nil {
		docType = string(doc.Type)
	}
	if err != nil {
		d.metrics.RecordPosting(docType, postingResult(err), 0, time.Since(start))
		span.RecordError(err)
		return 0, err
	}
	d.metrics.RecordPosting(docType, "success", applied, time.Since(start))

	d.logger.Info("stock document posted",
		zap.String("document_id", doc.ID.String()),
		zap.String("code", doc.Code),
		zap.String("type", docType),
		zap.Int("applied", applied),
	)
	d.audit.Record(ctx, audit.Entry{
		Action:     model.AuditActionStockDocumentPosted,
		EntityType: "stock_document",
		EntityID:   doc.ID.String(),
		Before:     map[string]any{"status": model.StockDocumentStatusDraft},
		After:      map[string]any{"status": doc.Status, "applied": applied},
		Actor:      actor,
	})
	return applied, nil
}

func postingResult(err error) string {
	var stockErr *InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		return "insufficient_stock"
	case apperrors.IsNotFound(err):
		return "not_found"
	case apperrors.IsConflict(err):
		return "conflict"
	default:
		return "error"
	}
}

// VoidDocument voids a DRAFT or POSTED document. A POSTED document is reversed
// through the ledger first.
func (d *Domain) VoidDocument(ctx context.Context, actor *model.UserContext, documentID uuid.UUID) (*model.StockDocument, error) {
	ctx, span := tracer.Start(ctx, "inventory.VoidDocument")
	defer span.End()
	span.SetAttributes(attribute.String("document.id", documentID.String()))

	var (
		doc                 *model.StockDocument
		previous            model.StockDocumentStatus
		reversed            int
		needsReconciliation bool
	)
	err := d.txPort.RunInTransaction(ctx, func(txCtx context.Context) error {
		var err error
		doc, err = d.documentDB.GetByIDForUpdate(txCtx, documentID)
		if err != nil {
			return err
		}
		if doc == nil {
			return documentNotFound(documentID)
		}
		if !CanVoidDocument(doc.Status) {
			return documentTransitionError(doc.Status, model.StockDocumentStatusVoid)
		}
		previous = doc.Status

		if previous == model.StockDocumentStatusPosted {
			var movements []movement
			movements, needsReconciliation = reversalMovements(doc)
			reversed, err = d.applyMovements(txCtx, actor, movements)
			if err != nil {
				return err
			}
		}

		now := d.now()
		doc.Status = model.StockDocumentStatusVoid
		doc.VoidedBy = actor.UserIDPtr()
		doc.VoidedAt = &now
		doc.UpdatedAt = now
		return d.documentDB.UpdateStatus(txCtx, doc)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	wasPosted := previous == model.StockDocumentStatusPosted
	d.metrics.RecordVoid(string(doc.Type), wasPosted)
	if needsReconciliation {
		d.logger.Warn("voided document has no natural reversal, balances need manual reconciliation",
			zap.String("document_id", doc.ID.String()),
			zap.String("code", doc.Code),
			zap.String("type", string(doc.Type)),
		)
	}
	d.logger.Info("stock document voided",
		zap.String("document_id", doc.ID.String()),
		zap.String("code", doc.Code),
		zap.String("previous_status", string(previous)),
		zap.Int("reversed", reversed),
	)
	d.audit.Record(ctx, audit.Entry{
		Action:     model.AuditActionStockDocumentVoided,
		EntityType: "stock_document",
		EntityID:   doc.ID.String(),
		Before:     map[string]any{"status": previous},
		After:      map[string]any{"status": doc.Status, "reversed": reversed},
		Actor:      actor,
	})
	return doc, nil
}

// CreateAndPostDocument creates a document and posts it. It is idempotent on
// SourceKey: a document that is already POSTED yields zero applied movements.
func (d *Domain) CreateAndPostDocument(ctx context.Context, actor *model.UserContext, in *CreateDocumentInput) (*model.StockDocument, int, error) {
	doc, err := d.CreateDocument(ctx, actor, in)
	if err != nil && errors.Is(err, outbound.ErrDuplicateKey) && in != nil && in.SourceKey != nil {
		// Lost a race with a concurrent creator of the same source key.
		doc, err = d.documentDB.GetBySourceKey(ctx, *in.SourceKey)
		if err == nil && doc == nil {
			err = apperrors.Conflict("stock document for " + *in.SourceKey + " is being created")
		}
	}
	if err != nil {
		return nil, 0, err
	}

	switch doc.Status {
	case model.StockDocumentStatusPosted:
		return doc, 0, nil
	case model.StockDocumentStatusVoid:
		return doc, 0, documentTransitionError(doc.Status, model.StockDocumentStatusPosted)
	}

	applied, err := d.PostDocument(ctx, actor, doc.ID)
	if err != nil {
		return doc, 0, err
	}

	posted, err := d.GetDocument(ctx, doc.ID)
	if err != nil {
		return doc, applied, nil
	}
	return posted, applied, nil
}

// GetDocument returns a document with its lines.
func (d *Domain) GetDocument(ctx context.Context, id uuid.UUID) (*model.StockDocument, error) {
	doc, err := d.documentDB.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, documentNotFound(id)
	}
	return doc, nil
}

// ListDocuments lists documents matching filter.
func (d *Domain) ListDocuments(ctx context.Context, filter *model.StockDocumentFilter, page, pageSize int) ([]*model.StockDocument, int64, error) {
	page, pageSize = pagination.Normalize(page, pageSize)
	return d.documentDB.List(ctx, filter, page, pageSize)
}

// ========== Warehouses ==========

// EnsureDefaultWarehouse returns the default warehouse, creating it if none exists.
func (d *Domain) EnsureDefaultWarehouse(ctx context.Context) (*model.Warehouse, error) {
	w, err := d.warehouseDB.GetDefault(ctx)
	if err != nil {
		return nil, err
	}
	if w != nil {
		return w, nil
	}

	err = d.txPort.RunInTransaction(ctx, func(txCtx context.Context) error {
		w, err = d.warehouseDB.GetDefault(txCtx)
		if err != nil || w != nil {
			return err
		}

		w, err = d.warehouseDB.GetByCode(txCtx, d.cfg.DefaultWarehouseCode)
		if err != nil {
			return err
		}
		now := d.now()
		if w != nil {
			w.IsDefault = true
			w.UpdatedAt = now
			return d.warehouseDB.Update(txCtx, w)
		}

		w = &model.Warehouse{
			ID:        uuid.New(),
			Code:      d.cfg.DefaultWarehouseCode,
			Name:      d.cfg.DefaultWarehouseName,
			IsDefault: true,
			Active:    true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		return d.warehouseDB.Create(txCtx, w)
	})
	if errors.Is(err, outbound.ErrDuplicateKey) {
		// Created concurrently.
		w, err = d.warehouseDB.GetDefault(ctx)
		if err == nil && w == nil {
			err = apperrors.Conflict("default warehouse is being created")
		}
	}
	if err != nil {
		return nil, err
	}
	return w, nil
}

// CreateWarehouse adds a warehouse. Making it default clears the flag elsewhere.
func (d *Domain) CreateWarehouse(ctx context.Context, actor *model.UserContext, in *CreateWarehouseInput) (*model.Warehouse, error) {
	if in == nil {
		return nil, apperrors.ValidationError("body is required")
	}
	in.Code = strings.ToUpper(strings.TrimSpace(in.Code))
	in.Name = strings.TrimSpace(in.Name)
	if errs := validation.Struct(in); errs.HasErrors() {
		return nil, errs
	}

	now := d.now()
	w := &model.Warehouse{
		ID:        uuid.New(),
		Code:      in.Code,
		Name:      in.Name,
		IsDefault: in.IsDefault,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := d.txPort.RunInTransaction(ctx, func(txCtx context.Context) error {
		existing, err := d.warehouseDB.GetByCode(txCtx, w.Code)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperrors.Conflict("warehouse code " + w.Code + " already exists")
		}
		if err := d.warehouseDB.Create(txCtx, w); err != nil {
			return err
		}
		if w.IsDefault {
			return d.warehouseDB.ClearDefault(txCtx, w.ID)
		}
		return nil
	})
	if errors.Is(err, outbound.ErrDuplicateKey) {
		err = apperrors.Conflict("warehouse code " + w.Code + " already exists")
	}
	if err != nil {
		return nil, err
	}

	d.audit.Record(ctx, audit.Entry{
		Action:     model.AuditActionWarehouseCreated,
		EntityType: "warehouse",
		EntityID:   w.ID.String(),
		After:      w,
		Actor:      actor,
	})
	return w, nil
}

// SetDefaultWarehouse flags one warehouse as the default.
func (d *Domain) SetDefaultWarehouse(ctx context.Context, actor *model.UserContext, id uuid.UUID) (*model.Warehouse, error) {
	var w *model.Warehouse
	err := d.txPort.RunInTransaction(ctx, func(txCtx context.Context) error {
		var err error
		w, err = d.warehouseDB.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if w == nil {
			return warehouseNotFound(id)
		}
		if err := d.warehouseDB.ClearDefault(txCtx, id); err != nil {
			return err
		}
		w.IsDefault = true
		w.UpdatedAt = d.now()
		return d.warehouseDB.Update(txCtx, w)
	})
	if err != nil {
		return nil, err
	}

	d.logger.Info("default warehouse changed",
		zap.String("warehouse_id", w.ID.String()),
		zap.String("code", w.Code),
		zap.String("actor_role", actor.RoleOrSystem()),
	)
	return w, nil
}

// ListWarehouses returns all warehouses.
func (d *Domain) ListWarehouses(ctx context.Context) ([]*model.Warehouse, error) {
	return d.warehouseDB.List(ctx)
}

// ========== Balances ==========

// GetInventoryItem returns the balance of one product at one warehouse.
func (d *Domain) GetInventoryItem(ctx context.Context, productID, warehouseID uuid.UUID) (*model.InventoryItem, error) {
	item, err := d.itemDB.Get(ctx, productID, warehouseID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, inventoryItemNotFound(productID, warehouseID)
	}
	return item, nil
}

// ListInventoryItems lists balances, optionally for one warehouse.
func (d *Domain) ListInventoryItems(ctx context.Context, warehouseID *uuid.UUID, page, pageSize int) ([]*model.InventoryItem, int64, error) {
	page, pageSize = pagination.Normalize(page, pageSize)
	return d.itemDB.List(ctx, warehouseID, page, pageSize)
}

// ListMovements lists ledger entries matching filter, newest first.
func (d *Domain) ListMovements(ctx context.Context, filter *model.StockMovementFilter, page, pageSize int) ([]*model.StockMovement, int64, error) {
	page, pageSize = pagination.Normalize(page, pageSize)
	return d.movementDB.List(ctx, filter, page, pageSize)
}

// ReconcileItem sums the ledger of one balance and compares it with the stored
// quantities. Balances start at zero, so both sums must match exactly.
func (d *Domain) ReconcileItem(ctx context.Context, productID, warehouseID uuid.UUID) (*Reconciliation, error) {
	ctx, span := tracer.Start(ctx, "inventory.ReconcileItem")
	defer span.End()

	item, err := d.GetInventoryItem(ctx, productID, warehouseID)
	if err != nil {
		return nil, err
	}
	onHand, reserved, count, err := d.movementDB.SumChanges(ctx, productID, warehouseID)
	if err != nil {
		return nil, err
	}

	rec := &Reconciliation{
		ProductID:      productID,
		WarehouseID:    warehouseID,
		OnHandQty:      item.OnHandQty,
		ReservedQty:    item.ReservedQty,
		LedgerOnHand:   onHand,
		LedgerReserved: reserved,
		MovementCount:  count,
		OnHandDrift:    item.OnHandQty - onHand,
		ReservedDrift:  item.ReservedQty - reserved,
	}
	rec.Balanced = rec.OnHandDrift == 0 && rec.ReservedDrift == 0

	if !rec.Balanced {
		d.logger.Warn("inventory balance drifted from ledger",
			zap.String("product_id", productID.String()),
			zap.String("warehouse_id", warehouseID.String()),
			zap.Int64("on_hand_drift", rec.OnHandDrift),
			zap.Int64("reserved_drift", rec.ReservedDrift),
		)
	}
	return rec, nil
}
