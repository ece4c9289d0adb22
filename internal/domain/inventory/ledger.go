package inventory

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"github.com/orderledger/server/internal/model"
	"github.com/orderledger/server/internal/port/outbound"
)

// movement is one intended balance change, before it is written to the ledger.
type movement struct {
	document    *model.StockDocument
	line        *model.StockDocumentLine
	warehouseID uuid.UUID
	locationID  *uuid.UUID
	typ         model.StockDocumentType
	suffix      string
	onHand      int64
	reserved    int64
	// allowNegativeOnHand is set only for ADJUSTMENT movements.
	allowNegativeOnHand bool
}

func (m movement) key() string {
	return MovementKey(m.document.ID, m.line.ID, m.typ, m.suffix)
}

// sortedLines returns the lines of doc in document order.
func sortedLines(doc *model.StockDocument) []*model.StockDocumentLine {
	lines := make([]*model.StockDocumentLine, len(doc.Lines))
	copy(lines, doc.Lines)
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].LineNo < lines[j].LineNo })
	return lines
}

// postingMovements expands a document into the movements posting it produces.
// A TRANSFER line yields the source leg followed by a GRN leg on the target warehouse.
func postingMovements(doc *model.StockDocument) []movement {
	var out []movement
	for _, line := range sortedLines(doc) {
		onHand, reserved := deltas(doc.Type, line.Quantity)
		out = append(out, movement{
			document:            doc,
			line:                line,
			warehouseID:         doc.WarehouseID,
			locationID:          line.SourceLocationID,
			typ:                 doc.Type,
			onHand:              onHand,
			reserved:            reserved,
			allowNegativeOnHand: doc.Type == model.StockDocumentTypeAdjustment,
		})

		if doc.Type == model.StockDocumentTypeTransfer && doc.TargetWarehouseID != nil {
			out = append(out, movement{
				document:    doc,
				line:        line,
				warehouseID: *doc.TargetWarehouseID,
				locationID:  line.TargetLocationID,
				typ:         model.StockDocumentTypeGRN,
				suffix:      SuffixTransferTarget,
				onHand:      abs(line.Quantity),
			})
		}
	}
	return out
}

// reversalMovements expands a posted document into the movements that undo it.
// Each reversal negates the primary deltas and is labelled with ReverseType.
// Types without a natural inverse produce a zero-delta ADJUSTMENT for manual
// reconciliation; needsReconciliation reports whether that happened.
func reversalMovements(doc *model.StockDocument) (out []movement, needsReconciliation bool) {
	reverse := ReverseType(doc.Type)
	for _, line := range sortedLines(doc) {
		m := movement{
			document:    doc,
			line:        line,
			warehouseID: doc.WarehouseID,
			locationID:  line.SourceLocationID,
			typ:         reverse,
			suffix:      SuffixVoid,
		}
		if reverse == model.StockDocumentTypeAdjustment {
			m.allowNegativeOnHand = true
			needsReconciliation = true
		} else {
			onHand, reserved := deltas(doc.Type, line.Quantity)
			m.onHand, m.reserved = -onHand, -reserved
		}
		out = append(out, m)
	}
	return out, needsReconciliation
}

// applyMovements writes each movement in order and returns how many were newly applied.
// It must run inside a transaction.
func (d *Domain) applyMovements(ctx context.Context, actor *model.UserContext, movements []movement) (int, error) {
	applied := 0
	for _, m := range movements {
		ok, err := d.applyMovement(ctx, actor, m)
		if err != nil {
			return applied, err
		}
		if ok {
			applied++
		}
	}
	return applied, nil
}

// applyMovement appends one ledger row and updates the balance it affects.
// A movement whose idempotency key already exists is skipped.
func (d *Domain) applyMovement(ctx context.Context, actor *model.UserContext, m movement) (bool, error) {
	key := m.key()

	exists, err := d.movementDB.ExistsByKey(ctx, key)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	item, err := d.itemDB.GetOrCreateForUpdate(ctx, m.line.ProductID, m.warehouseID)
	if err != nil {
		return false, err
	}

	onHand := item.OnHandQty + m.onHand
	reserved := item.ReservedQty + m.reserved
	if onHand < 0 && !m.allowNegativeOnHand {
		return false, &InsufficientStockError{
			ProductID:   m.line.ProductID,
			WarehouseID: m.warehouseID,
			Bucket:      BucketOnHand,
			Current:     item.OnHandQty,
			Requested:   m.onHand,
		}
	}
	if reserved < 0 {
		return false, &InsufficientStockError{
			ProductID:   m.line.ProductID,
			WarehouseID: m.warehouseID,
			Bucket:      BucketReserved,
			Current:     item.ReservedQty,
			Requested:   m.reserved,
		}
	}

	now := d.now()
	record := &model.StockMovement{
		ID:                uuid.New(),
		DocumentID:        m.document.ID,
		LineID:            m.line.ID,
		ProductID:         m.line.ProductID,
		WarehouseID:       m.warehouseID,
		LocationID:        m.locationID,
		Type:              m.typ,
		QtyChangeOnHand:   m.onHand,
		QtyChangeReserved: m.reserved,
		OnHandAfter:       onHand,
		ReservedAfter:     reserved,
		IdempotencyKey:    key,
		CreatedBy:         actor.UserIDPtr(),
		CreatedAt:         now,
	}
	if err := d.movementDB.Create(ctx, record); err != nil {
		if errors.Is(err, outbound.ErrDuplicateKey) {
			// A concurrent poster won the race on this key.
			return false, nil
		}
		return false, err
	}

	// The balance row is written last.
	item.SetBalances(onHand, reserved)
	if item.LocationID == nil && m.locationID != nil {
		item.LocationID = m.locationID
	}
	item.UpdatedAt = now
	if err := d.itemDB.UpdateBalances(ctx, item); err != nil {
		return false, err
	}
	return true, nil
}
