package outbound

import (
	"context"
	"errors"
)

// ErrDuplicateKey is returned by adapters when a unique constraint rejects an insert.
var ErrDuplicateKey = errors.New("duplicate key")

// TransactionPort runs a unit of work in one database transaction.
// Adapters called with the context passed to fn join that transaction.
type TransactionPort interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// CounterPort allocates gapless sequence values per scope.
type CounterPort interface {
	// Next increments the counter for scope and returns the new value.
	// It must run inside the transaction that consumes the value.
	Next(ctx context.Context, scope string) (int64, error)
}
