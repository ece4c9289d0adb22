package inventory

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/orderledger/server/internal/model"
)

const (
	movementSheet   = "Movements"
	exportBatchSize = 500
)

var movementHeadings = []any{
	"Created At", "Document ID", "Line ID", "Product ID", "Warehouse ID", "Type",
	"On-hand Change", "Reserved Change", "On-hand After", "Reserved After", "Idempotency Key",
}

// ExportMovements writes the ledger entries matching filter to w as an XLSX
// workbook and returns the number of rows written.
func (d *Domain) ExportMovements(ctx context.Context, filter *model.StockMovementFilter, w io.Writer) (int, error) {
	ctx, span := tracer.Start(ctx, "inventory.ExportMovements")
	defer span.End()

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			d.logger.Warn("failed to close workbook", zap.Error(err))
		}
	}()

	if err := f.SetSheetName("Sheet1", movementSheet); err != nil {
		return 0, err
	}
	if err := f.SetSheetRow(movementSheet, "A1", &movementHeadings); err != nil {
		return 0, err
	}

	rows := 0
	for page := 1; rows < d.cfg.ExportMaxRows; page++ {
		movements, _, err := d.movementDB.List(ctx, filter, page, exportBatchSize)
		if err != nil {
			return rows, fmt.Errorf("load movements page %d: %w", page, err)
		}
		for _, m := range movements {
			if rows >= d.cfg.ExportMaxRows {
				break
			}
			cell, err := excelize.CoordinatesToCellName(1, rows+2)
			if err != nil {
				return rows, err
			}
			row := movementRow(m)
			if err := f.SetSheetRow(movementSheet, cell, &row); err != nil {
				return rows, err
			}
			rows++
		}
		if len(movements) < exportBatchSize {
			break
		}
	}

	if err := f.Write(w); err != nil {
		return rows, fmt.Errorf("write workbook: %w", err)
	}
	d.logger.Info("stock movements exported", zap.Int("rows", rows))
	return rows, nil
}

func movementRow(m *model.StockMovement) []any {
	return []any{
		m.CreatedAt.UTC().Format(time.RFC3339),
		m.DocumentID.String(),
		m.LineID.String(),
		m.ProductID.String(),
		m.WarehouseID.String(),
		string(m.Type),
		m.QtyChangeOnHand,
		m.QtyChangeReserved,
		m.OnHandAfter,
		m.ReservedAfter,
		m.IdempotencyKey,
	}
}
