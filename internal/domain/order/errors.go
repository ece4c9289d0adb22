package order

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/orderledger/server/internal/model"
	apperrors "github.com/orderledger/server/internal/utils/errors"
)

// MinCancelReasonLength is the shortest accepted cancel reason.
const MinCancelReasonLength = 3

// OutstandingExceededError is returned when a payment is larger than what is still owed.
type OutstandingExceededError struct {
	Requested   decimal.Decimal
	Outstanding decimal.Decimal
}

func (e *OutstandingExceededError) Error() string {
	return fmt.Sprintf("payment of %s exceeds outstanding balance of %s",
		e.Requested.StringFixed(2), e.Outstanding.StringFixed(2))
}

// Is matches apperrors.ErrValidation.
func (e *OutstandingExceededError) Is(target error) bool {
	return target == apperrors.ErrValidation
}

// AppError implements apperrors.Surfacer.
func (e *OutstandingExceededError) AppError() *apperrors.AppError {
	return &apperrors.AppError{
		Code:    "OUTSTANDING_EXCEEDED",
		Message: e.Error(),
		Details: map[string]any{
			"requested":   e.Requested.StringFixed(2),
			"outstanding": e.Outstanding.StringFixed(2),
		},
		StatusCode: http.StatusUnprocessableEntity,
		Err:        e,
	}
}

func orderNotFound(id uuid.UUID) error {
	return &apperrors.NotFoundError{Entity: "order", ID: id.String()}
}

func orderTransitionError(from, to model.OrderStatus) error {
	return &apperrors.TransitionError{Entity: "order", From: string(from), To: string(to)}
}
