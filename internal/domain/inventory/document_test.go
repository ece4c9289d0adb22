package inventory

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/orderledger/server/internal/model"
)

func TestCanTransitionDocument(t *testing.T) {
	tests := []struct {
		from, to model.StockDocumentStatus
		want     bool
	}{
		{model.StockDocumentStatusDraft, model.StockDocumentStatusPosted, true},
		{model.StockDocumentStatusDraft, model.StockDocumentStatusVoid, true},
		{model.StockDocumentStatusPosted, model.StockDocumentStatusVoid, true},
		{model.StockDocumentStatusPosted, model.StockDocumentStatusDraft, false},
		{model.StockDocumentStatusVoid, model.StockDocumentStatusPosted, false},
		{model.StockDocumentStatusVoid, model.StockDocumentStatusVoid, true},
		{"ARCHIVED", "ARCHIVED", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransitionDocument(tt.from, tt.to))
		})
	}

	assert.True(t, CanPostDocument(model.StockDocumentStatusDraft))
	assert.False(t, CanPostDocument(model.StockDocumentStatusPosted))
	assert.True(t, CanVoidDocument(model.StockDocumentStatusPosted))
	assert.False(t, CanVoidDocument(model.StockDocumentStatusVoid))
}

func TestCanTransitionDocumentMatrix(t *testing.T) {
	statuses := []model.StockDocumentStatus{
		model.StockDocumentStatusDraft,
		model.StockDocumentStatusPosted,
		model.StockDocumentStatusVoid,
	}
	edges := map[string]bool{
		"DRAFT>POSTED": true,
		"DRAFT>VOID":   true,
		"POSTED>VOID":  true,
	}

	for _, from := range statuses {
		for _, to := range statuses {
			want := from == to || edges[string(from)+">"+string(to)]
			assert.Equal(t, want, CanTransitionDocument(from, to), "%s -> %s", from, to)
		}
	}
}

func TestDocumentTypeTables(t *testing.T) {
	tests := []struct {
		typ       model.StockDocumentType
		direction model.InventoryDirection
		reverse   model.StockDocumentType
		prefix    string
		onHand    int64
		reserved  int64
	}{
		{model.StockDocumentTypeGRN, model.DirectionIn, model.StockDocumentTypeIssue, "GRN", 5, 0},
		{model.StockDocumentTypeIssue, model.DirectionOut, model.StockDocumentTypeRestock, "ISS", -5, 0},
		{model.StockDocumentTypeAdjustment, model.DirectionAdjust, model.StockDocumentTypeAdjustment, "ADJ", 5, 0},
		{model.StockDocumentTypeTransfer, model.DirectionTransfer, model.StockDocumentTypeAdjustment, "TRF", -5, 0},
		{model.StockDocumentTypeReserve, model.DirectionOut, model.StockDocumentTypeRelease, "RSV", 0, 5},
		{model.StockDocumentTypeRelease, model.DirectionIn, model.StockDocumentTypeReserve, "RLS", 0, -5},
		{model.StockDocumentTypeDeduct, model.DirectionOut, model.StockDocumentTypeRestock, "DED", -5, -5},
		{model.StockDocumentTypeRestock, model.DirectionIn, model.StockDocumentTypeIssue, "RST", 5, 0},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			assert.Equal(t, tt.direction, DirectionOf(tt.typ))
			assert.Equal(t, tt.reverse, ReverseType(tt.typ))
			assert.Equal(t, tt.prefix, CodePrefix(tt.typ))

			onHand, reserved := deltas(tt.typ, 5)
			assert.Equal(t, tt.onHand, onHand)
			assert.Equal(t, tt.reserved, reserved)
		})
	}
}

func TestAdjustmentKeepsSign(t *testing.T) {
	onHand, reserved := deltas(model.StockDocumentTypeAdjustment, -3)
	assert.Equal(t, int64(-3), onHand)
	assert.Zero(t, reserved)

	onHand, _ = deltas(model.StockDocumentTypeIssue, -3)
	assert.Equal(t, int64(-3), onHand)
}

func TestMovementKey(t *testing.T) {
	doc := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	line := uuid.MustParse("22222222-2222-2222-2222-222222222222")

	assert.Equal(t,
		"doc:11111111-1111-1111-1111-111111111111:line:22222222-2222-2222-2222-222222222222:type:GRN",
		MovementKey(doc, line, model.StockDocumentTypeGRN, ""))
	assert.Equal(t,
		"doc:11111111-1111-1111-1111-111111111111:line:22222222-2222-2222-2222-222222222222:type:ISSUE:void",
		MovementKey(doc, line, model.StockDocumentTypeIssue, SuffixVoid))
}
