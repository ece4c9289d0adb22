package order

import "github.com/orderledger/server/internal/model"

// transitions defines valid single-hop state transitions.
var transitions = map[model.OrderStatus][]model.OrderStatus{
	model.OrderStatusDraft:               {model.OrderStatusPendingConfirmation, model.OrderStatusCanceled},
	model.OrderStatusPendingConfirmation: {model.OrderStatusConfirmed, model.OrderStatusCanceled, model.OrderStatusFailed},
	model.OrderStatusConfirmed:           {model.OrderStatusPacking, model.OrderStatusCanceled, model.OrderStatusFailed},
	model.OrderStatusPacking:             {model.OrderStatusShipped, model.OrderStatusCanceled, model.OrderStatusFailed},
	model.OrderStatusShipped:             {model.OrderStatusDelivered, model.OrderStatusReturnRequested},
	model.OrderStatusDelivered:           {model.OrderStatusReturnRequested},
	model.OrderStatusReturnRequested:     {model.OrderStatusReturned, model.OrderStatusDelivered},
	model.OrderStatusReturned:            {}, // Terminal state
	model.OrderStatusCanceled:            {}, // Terminal state
	model.OrderStatusFailed:              {}, // Terminal state
}

// IsAllowedTransition reports whether an order may move from one status to another.
// Staying in the same status is always allowed.
func IsAllowedTransition(from, to model.OrderStatus) bool {
	if from == to {
		return from.IsValid()
	}
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// AllowedTransitions returns the statuses reachable in one hop from the given status.
func AllowedTransitions(from model.OrderStatus) []model.OrderStatus {
	allowed, ok := transitions[from]
	if !ok {
		return []model.OrderStatus{}
	}
	result := make([]model.OrderStatus, len(allowed))
	copy(result, allowed)
	return result
}

// IsTerminal returns true if no transition leaves the status.
func IsTerminal(s model.OrderStatus) bool {
	allowed, ok := transitions[s]
	return ok && len(allowed) == 0
}

// FulfillmentStatusFor derives the fulfillment view of a status.
func FulfillmentStatusFor(s model.OrderStatus) model.FulfillmentStatus {
	switch s {
	case model.OrderStatusPacking:
		return model.FulfillmentPacking
	case model.OrderStatusShipped:
		return model.FulfillmentShipped
	case model.OrderStatusDelivered, model.OrderStatusReturnRequested:
		return model.FulfillmentDelivered
	case model.OrderStatusReturned:
		return model.FulfillmentReturned
	default:
		return model.FulfillmentUnfulfilled
	}
}

var legacyLabels = map[model.OrderStatus]model.LegacyOrderStatus{
	model.OrderStatusDraft:               model.LegacyStatusDraft,
	model.OrderStatusPendingConfirmation: model.LegacyStatusPending,
	model.OrderStatusConfirmed:           model.LegacyStatusConfirmed,
	model.OrderStatusPacking:             model.LegacyStatusProcessing,
	model.OrderStatusShipped:             model.LegacyStatusShipping,
	model.OrderStatusDelivered:           model.LegacyStatusCompleted,
	model.OrderStatusReturnRequested:     model.LegacyStatusReturnRequested,
	model.OrderStatusReturned:            model.LegacyStatusReturned,
	model.OrderStatusCanceled:            model.LegacyStatusCancelled,
	model.OrderStatusFailed:              model.LegacyStatusFailed,
}

// LegacyStatusFor returns the display label older consumers expect.
func LegacyStatusFor(s model.OrderStatus) model.LegacyOrderStatus {
	if label, ok := legacyLabels[s]; ok {
		return label
	}
	return model.LegacyOrderStatus(s)
}

// CanCancelOrder reports whether CANCELED is one hop away.
func CanCancelOrder(s model.OrderStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == model.OrderStatusCanceled {
			return true
		}
	}
	return false
}

// CanModifyOrder reports whether the order contents may still be edited.
func CanModifyOrder(s model.OrderStatus) bool {
	switch s {
	case model.OrderStatusDelivered, model.OrderStatusReturned, model.OrderStatusCanceled, model.OrderStatusFailed:
		return false
	}
	return true
}

// DeriveStockAction decides which inventory action a transition implies.
// It never performs the action.
func DeriveStockAction(from, to model.OrderStatus) model.StockAction {
	if from == to {
		return model.StockActionNone
	}
	switch to {
	case model.OrderStatusConfirmed:
		return model.StockActionReserve
	case model.OrderStatusShipped:
		return model.StockActionDeduct
	case model.OrderStatusCanceled, model.OrderStatusFailed:
		if from == model.OrderStatusConfirmed || from == model.OrderStatusPacking {
			return model.StockActionRelease
		}
	case model.OrderStatusReturned:
		switch from {
		case model.OrderStatusShipped, model.OrderStatusDelivered, model.OrderStatusReturnRequested:
			return model.StockActionRestock
		}
	}
	return model.StockActionNone
}
