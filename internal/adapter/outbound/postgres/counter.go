package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/orderledger/server/internal/port/outbound"
)

// CounterAdapter implements outbound.CounterPort with one row per scope.
type CounterAdapter struct {
	db *gorm.DB
}

// NewCounterAdapter creates a new counter adapter.
func NewCounterAdapter(db *gorm.DB) *CounterAdapter {
	return &CounterAdapter{db: db}
}

// Next increments the scope row, creating it on first use. The row stays
// locked until the caller's transaction ends, so values are gapless.
func (a *CounterAdapter) Next(ctx context.Context, scope string) (int64, error) {
	var value int64
	err := dbFrom(ctx, a.db).Raw(`
		INSERT INTO counters (scope, value, updated_at) VALUES (?, 1, NOW())
		ON CONFLICT (scope) DO UPDATE SET value = counters.value + 1, updated_at = NOW()
		RETURNING value`, scope).Scan(&value).Error
	if err != nil {
		return 0, fmt.Errorf("next counter value for %s: %w", scope, err)
	}
	return value, nil
}

// Compile-time check
var _ outbound.CounterPort = (*CounterAdapter)(nil)
