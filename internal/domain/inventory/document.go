package inventory

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/orderledger/server/internal/model"
)

// Idempotency key suffixes for movements that are not the primary leg of a line.
const (
	SuffixTransferTarget = "target"
	SuffixVoid           = "void"
)

// documentTransitions defines valid document status transitions.
var documentTransitions = map[model.StockDocumentStatus][]model.StockDocumentStatus{
	model.StockDocumentStatusDraft:  {model.StockDocumentStatusPosted, model.StockDocumentStatusVoid},
	model.StockDocumentStatusPosted: {model.StockDocumentStatusVoid},
	model.StockDocumentStatusVoid:   {},
}

// CanTransitionDocument reports whether a document may move between statuses.
func CanTransitionDocument(from, to model.StockDocumentStatus) bool {
	if _, ok := documentTransitions[from]; !ok {
		return false
	}
	if from == to {
		return true
	}
	for _, allowed := range documentTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// CanPostDocument is true only for drafts.
func CanPostDocument(s model.StockDocumentStatus) bool {
	return s == model.StockDocumentStatusDraft
}

// CanVoidDocument is true for drafts and posted documents.
func CanVoidDocument(s model.StockDocumentStatus) bool {
	return s == model.StockDocumentStatusDraft || s == model.StockDocumentStatusPosted
}

// DirectionOf returns the inventory direction of a document type.
func DirectionOf(t model.StockDocumentType) model.InventoryDirection {
	switch t {
	case model.StockDocumentTypeGRN, model.StockDocumentTypeRestock, model.StockDocumentTypeRelease:
		return model.DirectionIn
	case model.StockDocumentTypeIssue, model.StockDocumentTypeDeduct, model.StockDocumentTypeReserve:
		return model.DirectionOut
	case model.StockDocumentTypeTransfer:
		return model.DirectionTransfer
	default:
		return model.DirectionAdjust
	}
}

// OnHandSign returns the sign applied to a line quantity for on-hand.
// Zero means on-hand is either untouched or signed by the input itself.
func OnHandSign(t model.StockDocumentType) int64 {
	switch t {
	case model.StockDocumentTypeGRN, model.StockDocumentTypeRestock:
		return 1
	case model.StockDocumentTypeIssue, model.StockDocumentTypeDeduct:
		return -1
	default:
		return 0
	}
}

// ReservedDelta returns the sign applied to a line quantity for reserved.
func ReservedDelta(t model.StockDocumentType) int64 {
	switch t {
	case model.StockDocumentTypeReserve:
		return 1
	case model.StockDocumentTypeRelease, model.StockDocumentTypeDeduct:
		return -1
	default:
		return 0
	}
}

// ReverseType returns the movement type that undoes a posted movement.
// Types without a natural inverse fall back to ADJUSTMENT.
func ReverseType(t model.StockDocumentType) model.StockDocumentType {
	switch t {
	case model.StockDocumentTypeGRN, model.StockDocumentTypeRestock:
		return model.StockDocumentTypeIssue
	case model.StockDocumentTypeIssue, model.StockDocumentTypeDeduct:
		return model.StockDocumentTypeRestock
	case model.StockDocumentTypeReserve:
		return model.StockDocumentTypeRelease
	case model.StockDocumentTypeRelease:
		return model.StockDocumentTypeReserve
	default:
		return model.StockDocumentTypeAdjustment
	}
}

var codePrefixes = map[model.StockDocumentType]string{
	model.StockDocumentTypeGRN:        "GRN",
	model.StockDocumentTypeIssue:      "ISS",
	model.StockDocumentTypeAdjustment: "ADJ",
	model.StockDocumentTypeTransfer:   "TRF",
	model.StockDocumentTypeReserve:    "RSV",
	model.StockDocumentTypeRelease:    "RLS",
	model.StockDocumentTypeDeduct:     "DED",
	model.StockDocumentTypeRestock:    "RST",
}

// CodePrefix returns the document code prefix of a type.
func CodePrefix(t model.StockDocumentType) string {
	if p, ok := codePrefixes[t]; ok {
		return p
	}
	return string(t)
}

// MovementKey builds the idempotency key of one movement.
func MovementKey(documentID, lineID uuid.UUID, movementType model.StockDocumentType, suffix string) string {
	key := fmt.Sprintf("doc:%s:line:%s:type:%s", documentID, lineID, movementType)
	if suffix != "" {
		key += ":" + suffix
	}
	return key
}

// deltas returns the signed on-hand and reserved changes for a movement of
// the given type and line quantity.
func deltas(t model.StockDocumentType, quantity int64) (onHand, reserved int64) {
	switch t {
	case model.StockDocumentTypeAdjustment:
		return quantity, 0
	case model.StockDocumentTypeTransfer:
		// Source leg only. The target leg is posted as GRN.
		return -abs(quantity), 0
	case model.StockDocumentTypeReserve, model.StockDocumentTypeRelease:
		return 0, ReservedDelta(t) * abs(quantity)
	default:
		return OnHandSign(t) * abs(quantity), ReservedDelta(t) * abs(quantity)
	}
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
