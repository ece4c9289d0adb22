package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError(t *testing.T) {
	t.Run("Error returns message", func(t *testing.T) {
		err := &AppError{
			Code:    "TEST_ERROR",
			Message: "test error message",
		}
		assert.Equal(t, "test error message", err.Error())
	})

	t.Run("Error includes wrapped error", func(t *testing.T) {
		wrapped := errors.New("wrapped error")
		err := &AppError{
			Code:    "TEST_ERROR",
			Message: "test error message",
			Err:     wrapped,
		}
		assert.Contains(t, err.Error(), "test error message")
		assert.Contains(t, err.Error(), "wrapped error")
	})

	t.Run("Unwrap returns wrapped error", func(t *testing.T) {
		wrapped := errors.New("wrapped error")
		err := &AppError{Code: "TEST_ERROR", Message: "test message", Err: wrapped}
		assert.Equal(t, wrapped, err.Unwrap())
	})
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		code     string
		status   int
		sentinel error
	}{
		{"not found", NotFound("order"), "NOT_FOUND", http.StatusNotFound, ErrNotFound},
		{"bad request", BadRequest("invalid input"), "BAD_REQUEST", http.StatusBadRequest, ErrBadRequest},
		{"validation", ValidationError("quantity must be positive"), "VALIDATION_ERROR", http.StatusUnprocessableEntity, ErrValidation},
		{"conflict", Conflict("document already posted"), "CONFLICT", http.StatusConflict, ErrConflict},
		{"rate limited", RateLimited(""), "RATE_LIMITED", http.StatusTooManyRequests, ErrRateLimited},
		{"unauthorized", Unauthorized(""), "UNAUTHORIZED", http.StatusUnauthorized, ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.StatusCode)
			assert.True(t, errors.Is(tt.err, tt.sentinel))
		})
	}

	assert.Equal(t, "order not found", NotFound("order").Message)
	assert.Equal(t, "too many requests", RateLimited("").Message)
}

func TestGetStatusCode(t *testing.T) {
	t.Run("from AppError", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, GetStatusCode(NotFound("resource")))
	})

	t.Run("from sentinel errors", func(t *testing.T) {
		tests := []struct {
			err      error
			expected int
		}{
			{ErrNotFound, http.StatusNotFound},
			{ErrUnauthorized, http.StatusUnauthorized},
			{ErrForbidden, http.StatusForbidden},
			{ErrBadRequest, http.StatusBadRequest},
			{ErrValidation, http.StatusUnprocessableEntity},
			{ErrConflict, http.StatusConflict},
			{ErrInvalidTransition, http.StatusConflict},
			{ErrRateLimited, http.StatusTooManyRequests},
			{ErrTimeout, http.StatusGatewayTimeout},
			{ErrServiceUnavail, http.StatusServiceUnavailable},
		}

		for _, tt := range tests {
			t.Run(tt.err.Error(), func(t *testing.T) {
				assert.Equal(t, tt.expected, GetStatusCode(tt.err))
			})
		}
	})

	t.Run("unknown error returns 500", func(t *testing.T) {
		assert.Equal(t, http.StatusInternalServerError, GetStatusCode(errors.New("unknown error")))
	})
}

func TestWithDetails(t *testing.T) {
	err := BadRequest("validation failed")
	details := map[string]any{"field": "quantity"}

	result := err.WithDetails(details)

	assert.Same(t, err, result)
	assert.Equal(t, details, err.Details)
	assert.Equal(t, details, err.ToResponse().Error.Details)
}

func TestAppError_Is(t *testing.T) {
	t.Run("matches same code", func(t *testing.T) {
		err1 := &AppError{Code: "NOT_FOUND", Message: "order not found"}
		err2 := &AppError{Code: "NOT_FOUND", Message: "warehouse not found"}
		assert.True(t, err1.Is(err2))
	})

	t.Run("does not match different code", func(t *testing.T) {
		err1 := &AppError{Code: "NOT_FOUND"}
		err2 := &AppError{Code: "BAD_REQUEST"}
		assert.False(t, err1.Is(err2))
	})

	t.Run("matches wrapped sentinel error", func(t *testing.T) {
		err := &AppError{Code: "NOT_FOUND", Err: ErrNotFound}
		assert.True(t, err.Is(ErrNotFound))
	})
}

func TestValidationErrors(t *testing.T) {
	var v ValidationErrors
	assert.False(t, v.HasErrors())
	assert.NoError(t, v.Err())

	v.Add("lines", "at least one line is required")
	v.Add("lines[0].quantity", "must be greater than zero")

	err := v.Err()
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Equal(t, []string{"lines", "lines[0].quantity"}, v.Fields())
	assert.Contains(t, err.Error(), "lines[0].quantity: must be greater than zero")

	appErr := From(fmt.Errorf("create document: %w", err))
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
	assert.Equal(t, http.StatusUnprocessableEntity, appErr.StatusCode)
	assert.Len(t, appErr.Details["fields"], 2)
}

func TestNotFoundError(t *testing.T) {
	err := &NotFoundError{Entity: "warehouse", ID: "abc"}

	assert.Equal(t, "warehouse abc not found", err.Error())
	assert.True(t, IsNotFound(err))

	appErr := From(err)
	assert.Equal(t, http.StatusNotFound, appErr.StatusCode)
	assert.Equal(t, "warehouse", appErr.Details["entity"])
}

func TestTransitionError(t *testing.T) {
	err := &TransitionError{Entity: "order", From: "SHIPPED", To: "CANCELED"}

	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.True(t, IsConflict(err))
	assert.Contains(t, err.Error(), "SHIPPED")
	assert.Contains(t, err.Error(), "CANCELED")

	appErr := From(fmt.Errorf("update status: %w", err))
	assert.Equal(t, "INVALID_TRANSITION", appErr.Code)
	assert.Equal(t, http.StatusConflict, appErr.StatusCode)
	assert.Equal(t, "SHIPPED", appErr.Details["current"])
	assert.Equal(t, "CANCELED", appErr.Details["requested"])
}

func TestFrom(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.Nil(t, From(nil))
	})

	t.Run("AppError passes through", func(t *testing.T) {
		original := Conflict("busy")
		assert.Same(t, original, From(fmt.Errorf("wrap: %w", original)))
	})

	t.Run("sentinel maps to status", func(t *testing.T) {
		appErr := From(fmt.Errorf("lookup: %w", ErrConflict))
		assert.Equal(t, http.StatusConflict, appErr.StatusCode)
		assert.Equal(t, "CONFLICT", appErr.Code)
	})

	t.Run("unknown error hides message", func(t *testing.T) {
		appErr := From(errors.New("pq: connection refused"))
		assert.Equal(t, http.StatusInternalServerError, appErr.StatusCode)
		assert.Equal(t, "internal server error", appErr.Message)
	})
}
