package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/orderledger/server/internal/model"
	"github.com/orderledger/server/internal/port/outbound"
)

// paymentAdapter implements outbound.PaymentDatabasePort.
type paymentAdapter struct {
	db *gorm.DB
}

// NewPaymentAdapter creates a new payment database adapter.
func NewPaymentAdapter(db *gorm.DB) outbound.PaymentDatabasePort {
	return &paymentAdapter{db: db}
}

func (a *paymentAdapter) Create(ctx context.Context, payment *model.Payment) error {
	if err := dbFrom(ctx, a.db).Create(payment).Error; err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

func (a *paymentAdapter) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]*model.Payment, error) {
	var payments []*model.Payment
	err := dbFrom(ctx, a.db).
		Where("order_id = ?", orderID).
		Order("paid_at ASC, created_at ASC").
		Find(&payments).Error
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}

func (a *paymentAdapter) SumByOrderID(ctx context.Context, orderID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.Decimal
	row := dbFrom(ctx, a.db).
		Model(&model.Payment{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("order_id = ?", orderID).
		Row()
	if err := row.Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("sum payments: %w", err)
	}
	return sum, nil
}

// Compile-time check
var _ outbound.PaymentDatabasePort = (*paymentAdapter)(nil)
