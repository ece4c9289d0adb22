package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/orderledger/server/internal/domain/audit"
	"github.com/orderledger/server/internal/domain/inventory"
	"github.com/orderledger/server/internal/model"
	"github.com/orderledger/server/internal/port/outbound"
	apperrors "github.com/orderledger/server/internal/utils/errors"
	"github.com/orderledger/server/internal/utils/metrics"
	"github.com/orderledger/server/internal/utils/pagination"
	"github.com/orderledger/server/internal/utils/validation"
)

var tracer = otel.Tracer("orderledger/order")

// UpdateStatusInput requests a status change.
type UpdateStatusInput struct {
	NewStatus    model.OrderStatus `json:"status" validate:"required"`
	Notes        string            `json:"notes" validate:"max=2000"`
	CustomerNote string            `json:"customer_note" validate:"max=2000"`
	CancelReason string            `json:"cancel_reason" validate:"max=1000"`
	Force        bool              `json:"force"`
}

// AddPaymentInput records money received for an order.
type AddPaymentInput struct {
	Amount decimal.Decimal `json:"amount"`
	Method string          `json:"method" validate:"required,max=50"`
	Note   string          `json:"note" validate:"max=1000"`
	PaidAt *time.Time      `json:"paid_at"`
}

// OrderDomain defines the order domain service interface.
type OrderDomain interface {
	// Status
	UpdateStatus(ctx context.Context, actor *model.UserContext, orderID uuid.UUID, in *UpdateStatusInput) (*model.Order, error)
	AvailableTransitions(ctx context.Context, orderID uuid.UUID) ([]model.OrderStatus, error)
	ListStatusHistory(ctx context.Context, orderID uuid.UUID) ([]*model.OrderStatusHistory, error)

	// Payments
	AddPayment(ctx context.Context, actor *model.UserContext, orderID uuid.UUID, in *AddPaymentInput) (*model.Payment, *model.Order, error)
	ListPayments(ctx context.Context, orderID uuid.UUID) ([]*model.Payment, error)

	// Reads
	GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error)
	GetOrderByCode(ctx context.Context, code string) (*model.Order, error)
	ListOrders(ctx context.Context, filter *model.OrderFilter, page, pageSize int) ([]*model.Order, int64, error)
}

// orderDomain implements OrderDomain.
type orderDomain struct {
	orderDB   outbound.OrderDatabasePort
	historyDB outbound.OrderHistoryDatabasePort
	paymentDB outbound.PaymentDatabasePort
	txPort    outbound.TransactionPort
	stock     StockLedger
	breaker   *gobreaker.CircuitBreaker[*model.StockDocument]
	audit     audit.Sink
	cfg       *Config
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

// NewOrderDomain creates a new order domain.
func NewOrderDomain(
	orderDB outbound.OrderDatabasePort,
	historyDB outbound.OrderHistoryDatabasePort,
	paymentDB outbound.PaymentDatabasePort,
	txPort outbound.TransactionPort,
	stock StockLedger,
	auditSink audit.Sink,
	cfg *Config,
	m *metrics.Metrics,
	logger *zap.Logger,
) OrderDomain {
	return newOrderDomain(orderDB, historyDB, paymentDB, txPort, stock, auditSink, cfg, m, logger)
}

func newOrderDomain(
	orderDB outbound.OrderDatabasePort,
	historyDB outbound.OrderHistoryDatabasePort,
	paymentDB outbound.PaymentDatabasePort,
	txPort outbound.TransactionPort,
	stock StockLedger,
	auditSink audit.Sink,
	cfg *Config,
	m *metrics.Metrics,
	logger *zap.Logger,
) *orderDomain {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	_ = cfg.Validate()

	d := &orderDomain{
		orderDB:   orderDB,
		historyDB: historyDB,
		paymentDB: paymentDB,
		txPort:    txPort,
		stock:     stock,
		audit:     auditSink,
		cfg:       cfg,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
	d.breaker = gobreaker.NewCircuitBreaker[*model.StockDocument](gobreaker.Settings{
		Name:     "stock-dispatch",
		Interval: cfg.StockBreakerInterval,
		Timeout:  cfg.StockBreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.StockBreakerMaxFailures
		},
		IsSuccessful: isDispatchHealthy,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return d
}

// isDispatchHealthy treats business rejections as healthy so only
// infrastructure failures open the breaker.
func isDispatchHealthy(err error) bool {
	return err == nil ||
		apperrors.IsValidation(err) ||
		apperrors.IsConflict(err) ||
		apperrors.IsNotFound(err)
}

// ========== Status ==========

// UpdateStatus moves an order to a new status, appends a history entry and,
// once committed, dispatches the stock action the transition implies.
// A stock failure is logged and never undoes the status change.
func (d *orderDomain) UpdateStatus(ctx context.Context, actor *model.UserContext, orderID uuid.UUID, in *UpdateStatusInput) (*model.Order, error) {
	ctx, span := tracer.Start(ctx, "order.UpdateStatus")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", orderID.String()))

	if err := validateStatusInput(in); err != nil {
		return nil, err
	}

	var (
		order   *model.Order
		history *model.OrderStatusHistory
		from    model.OrderStatus
		forced  bool
		noop    bool
	)
	err := d.txPort.RunInTransaction(ctx, func(txCtx context.Context) error {
		var err error
		order, err = d.orderDB.GetByIDForUpdate(txCtx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return orderNotFound(orderID)
		}
		from = order.Status

		if from == in.NewStatus && in.Notes == "" && in.CustomerNote == "" {
			noop = true
			return nil
		}
		if !IsAllowedTransition(from, in.NewStatus) {
			if !in.Force {
				return orderTransitionError(from, in.NewStatus)
			}
			forced = true
		}

		now := d.now()
		if from != in.NewStatus {
			applyStatus(order, in, now)
		}
		order.UpdatedAt = now
		if err := d.orderDB.Update(txCtx, order); err != nil {
			return fmt.Errorf("update order: %w", err)
		}

		fromStatus := from
		history = &model.OrderStatusHistory{
			ID:           uuid.New(),
			OrderID:      order.ID,
			FromStatus:   &fromStatus,
			ToStatus:     in.NewStatus,
			ActorUserID:  actor.UserIDPtr(),
			ActorRole:    actor.RoleOrSystem(),
			Note:         in.Notes,
			CustomerNote: in.CustomerNote,
			Forced:       forced,
			CreatedAt:    now,
		}
		if err := d.historyDB.Create(txCtx, history); err != nil {
			return fmt.Errorf("create status history: %w", err)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if noop {
		return order, nil
	}

	d.metrics.RecordOrderTransition(string(from), string(in.NewStatus), forced)
	if forced {
		d.logger.Warn("order status forced outside the transition table",
			zap.String("order_id", order.ID.String()),
			zap.String("from", string(from)),
			zap.String("to", string(in.NewStatus)),
			zap.String("actor_role", actor.RoleOrSystem()),
		)
	}
	d.logger.Info("order status updated",
		zap.String("order_id", order.ID.String()),
		zap.String("order_code", order.OrderCode),
		zap.String("from", string(from)),
		zap.String("to", string(in.NewStatus)),
	)
	d.audit.Record(ctx, audit.Entry{
		Action:     model.AuditActionOrderStatusChanged,
		EntityType: "order",
		EntityID:   order.ID.String(),
		Before:     map[string]any{"status": from},
		After:      map[string]any{"status": order.Status, "forced": forced, "history_id": history.ID},
		Actor:      actor,
	})

	if action := DeriveStockAction(from, in.NewStatus); !action.IsNone() && order.HasItems() {
		d.dispatchStockAction(ctx, actor, order, action, history.ID)
	}
	return order, nil
}

func validateStatusInput(in *UpdateStatusInput) error {
	if in == nil {
		return apperrors.ValidationErrors{{Field: "status", Message: "is required"}}
	}
	verrs := validation.Struct(in)
	if in.NewStatus != "" && !in.NewStatus.IsValid() {
		verrs.Add("status", "is not a known order status")
	}
	if in.NewStatus == model.OrderStatusCanceled && len(strings.TrimSpace(in.CancelReason)) < MinCancelReasonLength {
		verrs.Add("cancel_reason", fmt.Sprintf("must be at least %d characters", MinCancelReasonLength))
	}
	return verrs.Err()
}

func applyStatus(o *model.Order, in *UpdateStatusInput, now time.Time) {
	o.Status = in.NewStatus
	o.FulfillmentStatus = FulfillmentStatusFor(in.NewStatus)
	o.LegacyStatus = LegacyStatusFor(in.NewStatus)

	switch in.NewStatus {
	case model.OrderStatusConfirmed:
		o.ConfirmedAt = &now
	case model.OrderStatusShipped:
		o.ShippedAt = &now
	case model.OrderStatusDelivered:
		o.DeliveredAt = &now
	case model.OrderStatusCanceled:
		o.CanceledAt = &now
		reason := strings.TrimSpace(in.CancelReason)
		o.CancelReason = &reason
	}
}

// dispatchStockAction raises and posts the stock document for action.
// The source key ties the document to the history entry, so a repeated
// dispatch for the same transition never moves stock twice.
func (d *orderDomain) dispatchStockAction(ctx context.Context, actor *model.UserContext, order *model.Order, action model.StockAction, historyID uuid.UUID) {
	ctx, span := tracer.Start(ctx, "order.dispatchStockAction")
	defer span.End()
	span.SetAttributes(attribute.String("stock.action", string(action)))

	docType, ok := action.DocumentType()
	if !ok {
		return
	}
	sourceKey := fmt.Sprintf("order:%s:%s:%s", order.ID, action, historyID)

	doc, err := d.breaker.Execute(func() (*model.StockDocument, error) {
		warehouse, err := d.stock.EnsureDefaultWarehouse(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolve default warehouse: %w", err)
		}
		refType := model.ReferenceTypeOrder
		refID := order.ID.String()
		doc, _, err := d.stock.CreateAndPostDocument(ctx, actor, &inventory.CreateDocumentInput{
			Type:          docType,
			WarehouseID:   warehouse.ID,
			ReferenceType: &refType,
			ReferenceID:   &refID,
			Note:          fmt.Sprintf("%s for order %s", action, order.OrderCode),
			Lines:         stockLines(order.Items),
			SourceKey:     &sourceKey,
		})
		return doc, err
	})
	if err != nil {
		span.RecordError(err)
		d.metrics.RecordStockActionFailure(string(action))
		fields := []zap.Field{
			zap.String("order_id", order.ID.String()),
			zap.String("order_code", order.OrderCode),
			zap.String("action", string(action)),
			zap.String("source_key", sourceKey),
			zap.Error(err),
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			d.logger.Error("stock dispatch paused, order needs manual reconciliation", fields...)
			return
		}
		d.logger.Error("stock action failed, order needs manual reconciliation", fields...)
		return
	}
	d.logger.Info("stock action dispatched",
		zap.String("order_id", order.ID.String()),
		zap.String("action", string(action)),
		zap.String("document_code", doc.Code),
	)
}

// stockLines folds order items into one line per product, keeping first-seen order.
func stockLines(items []*model.OrderItem) []inventory.DocumentLineInput {
	index := make(map[uuid.UUID]int, len(items))
	lines := make([]inventory.DocumentLineInput, 0, len(items))
	for _, item := range items {
		if i, ok := index[item.ProductID]; ok {
			lines[i].Quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(lines)
		lines = append(lines, inventory.DocumentLineInput{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return lines
}

// AvailableTransitions returns the statuses an order may move to next.
func (d *orderDomain) AvailableTransitions(ctx context.Context, orderID uuid.UUID) ([]model.OrderStatus, error) {
	order, err := d.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return AllowedTransitions(order.Status), nil
}

// ListStatusHistory returns the transitions of an order, oldest first.
func (d *orderDomain) ListStatusHistory(ctx context.Context, orderID uuid.UUID) ([]*model.OrderStatusHistory, error) {
	if _, err := d.GetOrder(ctx, orderID); err != nil {
		return nil, err
	}
	return d.historyDB.ListByOrderID(ctx, orderID)
}

// ========== Payments ==========

// AddPayment records a payment and refreshes the paid and outstanding amounts.
func (d *orderDomain) AddPayment(ctx context.Context, actor *model.UserContext, orderID uuid.UUID, in *AddPaymentInput) (*model.Payment, *model.Order, error) {
	ctx, span := tracer.Start(ctx, "order.AddPayment")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", orderID.String()))

	if err := validatePaymentInput(in); err != nil {
		return nil, nil, err
	}
	amount := RoundMoney(in.Amount)

	var (
		order   *model.Order
		payment *model.Payment
		before  map[string]any
	)
	err := d.txPort.RunInTransaction(ctx, func(txCtx context.Context) error {
		var err error
		order, err = d.orderDB.GetByIDForUpdate(txCtx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return orderNotFound(orderID)
		}

		paid, err := d.paymentDB.SumByOrderID(txCtx, orderID)
		if err != nil {
			return fmt.Errorf("sum payments: %w", err)
		}
		outstanding := Outstanding(order.Total, paid)
		if amount.GreaterThan(outstanding) {
			return &OutstandingExceededError{Requested: amount, Outstanding: outstanding}
		}
		before = paymentSnapshot(order)

		now := d.now()
		paidAt := now
		if in.PaidAt != nil {
			paidAt = *in.PaidAt
		}
		payment = &model.Payment{
			ID:        uuid.New(),
			OrderID:   orderID,
			Amount:    amount,
			Method:    strings.TrimSpace(in.Method),
			Note:      in.Note,
			PaidAt:    paidAt,
			CreatedBy: actor.UserIDPtr(),
			CreatedAt: now,
		}
		if err := d.paymentDB.Create(txCtx, payment); err != nil {
			return fmt.Errorf("create payment: %w", err)
		}

		ApplyPaidAmount(order, paid.Add(amount))
		order.UpdatedAt = now
		return d.orderDB.Update(txCtx, order)
	})
	if err != nil {
		span.RecordError(err)
		return nil, nil, err
	}

	d.metrics.RecordPayment(payment.Method, string(order.PaymentState))
	d.logger.Info("payment recorded",
		zap.String("order_id", order.ID.String()),
		zap.String("amount", payment.Amount.StringFixed(MoneyPlaces)),
		zap.String("payment_state", string(order.PaymentState)),
	)
	after := paymentSnapshot(order)
	after["payment_id"] = payment.ID
	after["amount"] = payment.Amount.StringFixed(MoneyPlaces)
	d.audit.Record(ctx, audit.Entry{
		Action:     model.AuditActionOrderPaymentAdded,
		EntityType: "order",
		EntityID:   order.ID.String(),
		Before:     before,
		After:      after,
		Actor:      actor,
	})
	return payment, order, nil
}

func validatePaymentInput(in *AddPaymentInput) error {
	if in == nil {
		return apperrors.ValidationErrors{{Field: "amount", Message: "is required"}}
	}
	verrs := validation.Struct(in)
	if !RoundMoney(in.Amount).IsPositive() {
		verrs.Add("amount", "must be greater than 0")
	}
	return verrs.Err()
}

func paymentSnapshot(o *model.Order) map[string]any {
	return map[string]any{
		"paid_amount":        o.PaidAmount.StringFixed(MoneyPlaces),
		"outstanding_amount": o.OutstandingAmount.StringFixed(MoneyPlaces),
		"payment_state":      o.PaymentState,
	}
}

// ListPayments returns the payments of an order.
func (d *orderDomain) ListPayments(ctx context.Context, orderID uuid.UUID) ([]*model.Payment, error) {
	if _, err := d.GetOrder(ctx, orderID); err != nil {
		return nil, err
	}
	return d.paymentDB.ListByOrderID(ctx, orderID)
}

// ========== Reads ==========

// GetOrder returns an order with its items.
func (d *orderDomain) GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := d.orderDB.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, orderNotFound(id)
	}
	return order, nil
}

// GetOrderByCode returns the order with the given code.
func (d *orderDomain) GetOrderByCode(ctx context.Context, code string) (*model.Order, error) {
	order, err := d.orderDB.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, &apperrors.NotFoundError{Entity: "order", ID: code}
	}
	return order, nil
}

// ListOrders returns a page of orders, newest first.
func (d *orderDomain) ListOrders(ctx context.Context, filter *model.OrderFilter, page, pageSize int) ([]*model.Order, int64, error) {
	page, pageSize = pagination.Normalize(page, pageSize)
	return d.orderDB.List(ctx, filter, page, pageSize)
}
