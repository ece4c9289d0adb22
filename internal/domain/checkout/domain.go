package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/orderledger/server/internal/domain/audit"
	"github.com/orderledger/server/internal/domain/order"
	"github.com/orderledger/server/internal/model"
	"github.com/orderledger/server/internal/port/outbound"
	apperrors "github.com/orderledger/server/internal/utils/errors"
	"github.com/orderledger/server/internal/utils/metrics"
	"github.com/orderledger/server/internal/utils/validation"
)

var tracer = otel.Tracer("orderledger/checkout")

// Address is the shipping or billing address captured at checkout.
type Address struct {
	Recipient  string `json:"recipient,omitempty" validate:"max=255"`
	Phone      string `json:"phone,omitempty" validate:"max=50"`
	Line1      string `json:"line1" validate:"required,max=255"`
	Line2      string `json:"line2,omitempty" validate:"max=255"`
	Ward       string `json:"ward,omitempty" validate:"max=128"`
	District   string `json:"district,omitempty" validate:"max=128"`
	City       string `json:"city" validate:"required,max=128"`
	PostalCode string `json:"postal_code,omitempty" validate:"max=32"`
	Country    string `json:"country,omitempty" validate:"max=64"`
}

// ItemInput is one cart line.
type ItemInput struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int64     `json:"quantity" validate:"required,min=1"`
}

// Input describes a checkout.
type Input struct {
	Items           []ItemInput      `json:"items" validate:"required,min=1,dive"`
	CustomerName    string           `json:"customer_name" validate:"required,max=255"`
	CustomerEmail   string           `json:"customer_email" validate:"omitempty,email,max=255"`
	CustomerPhone   string           `json:"customer_phone" validate:"max=50"`
	BuyerType       *model.BuyerType `json:"buyer_type"`
	CompanyName     *string          `json:"company_name" validate:"omitempty,max=255"`
	TaxID           *string          `json:"tax_id" validate:"omitempty,max=64"`
	ShippingAddress *Address         `json:"shipping_address" validate:"required"`
	BillingAddress  *Address         `json:"billing_address" validate:"omitempty"`
	ShippingFee     decimal.Decimal  `json:"shipping_fee"`
	Notes           string           `json:"notes" validate:"max=2000"`

	// IdempotencyKey makes a retried checkout return the order it already created.
	IdempotencyKey string `json:"-"`
}

// CheckoutDomain defines the checkout service interface.
type CheckoutDomain interface {
	Checkout(ctx context.Context, actor *model.UserContext, in *Input) (*model.Order, error)
}

type checkoutDomain struct {
	orderDB   outbound.OrderDatabasePort
	historyDB outbound.OrderHistoryDatabasePort
	catalog   outbound.ProductCatalogPort
	profiles  outbound.CustomerProfilePort
	counter   outbound.CounterPort
	txPort    outbound.TransactionPort
	locker    outbound.LockerPort
	audit     audit.Sink
	cfg       *Config
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

// NewCheckoutDomain creates a new checkout domain. locker may be nil, in which
// case the unique checkout key column alone arbitrates concurrent retries.
func NewCheckoutDomain(
	orderDB outbound.OrderDatabasePort,
	historyDB outbound.OrderHistoryDatabasePort,
	catalog outbound.ProductCatalogPort,
	profiles outbound.CustomerProfilePort,
	counter outbound.CounterPort,
	txPort outbound.TransactionPort,
	locker outbound.LockerPort,
	auditSink audit.Sink,
	cfg *Config,
	m *metrics.Metrics,
	logger *zap.Logger,
) CheckoutDomain {
	return newCheckoutDomain(orderDB, historyDB, catalog, profiles, counter, txPort, locker, auditSink, cfg, m, logger)
}

func newCheckoutDomain(
	orderDB outbound.OrderDatabasePort,
	historyDB outbound.OrderHistoryDatabasePort,
	catalog outbound.ProductCatalogPort,
	profiles outbound.CustomerProfilePort,
	counter outbound.CounterPort,
	txPort outbound.TransactionPort,
	locker outbound.LockerPort,
	auditSink audit.Sink,
	cfg *Config,
	m *metrics.Metrics,
	logger *zap.Logger,
) *checkoutDomain {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	_ = cfg.Validate()

	return &checkoutDomain{
		orderDB:   orderDB,
		historyDB: historyDB,
		catalog:   catalog,
		profiles:  profiles,
		counter:   counter,
		txPort:    txPort,
		locker:    locker,
		audit:     auditSink,
		cfg:       cfg,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
}

// Checkout turns a cart into an order awaiting confirmation.
func (d *checkoutDomain) Checkout(ctx context.Context, actor *model.UserContext, in *Input) (*model.Order, error) {
	ctx, span := tracer.Start(ctx, "checkout.Checkout")
	defer span.End()

	o, result, err := d.checkout(ctx, actor, in)
	d.metrics.RecordCheckout(result)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return o, nil
}

func (d *checkoutDomain) checkout(ctx context.Context, actor *model.UserContext, in *Input) (*model.Order, string, error) {
	if err := validateInput(in); err != nil {
		return nil, "invalid", err
	}

	key := strings.TrimSpace(in.IdempotencyKey)
	if key != "" {
		if d.locker != nil {
			release, err := d.locker.Obtain(ctx, "checkout:"+key, d.cfg.LockTTL)
			if errors.Is(err, outbound.ErrLockNotObtained) {
				return nil, "conflict", apperrors.Conflict("a checkout with this idempotency key is in progress")
			}
			if err != nil {
				return nil, "error", fmt.Errorf("lock checkout key: %w", err)
			}
			defer func() {
				if err := release(context.WithoutCancel(ctx)); err != nil {
					d.logger.Warn("failed to release checkout lock", zap.String("key", key), zap.Error(err))
				}
			}()
		}

		existing, err := d.orderDB.GetByCheckoutKey(ctx, key)
		if err != nil {
			return nil, "error", err
		}
		if existing != nil {
			return existing, "replayed", nil
		}
	}

	buyer, err := d.resolveBuyer(ctx, actor, in)
	if err != nil {
		return nil, "error", err
	}
	items, subtotal, err := d.snapshotItems(ctx, in.Items)
	if err != nil {
		return nil, resultOf(err), err
	}

	shipping, err := json.Marshal(in.ShippingAddress)
	if err != nil {
		return nil, "error", fmt.Errorf("snapshot shipping address: %w", err)
	}
	billingAddr := in.BillingAddress
	if billingAddr == nil {
		billingAddr = in.ShippingAddress
	}
	billing, err := json.Marshal(billingAddr)
	if err != nil {
		return nil, "error", fmt.Errorf("snapshot billing address: %w", err)
	}

	now := d.now()
	o := &model.Order{
		ID:                uuid.New(),
		UserID:            actor.UserIDPtr(),
		Currency:          d.cfg.Currency,
		Subtotal:          subtotal,
		ShippingFee:       order.RoundMoney(in.ShippingFee),
		CustomerName:      strings.TrimSpace(in.CustomerName),
		CustomerEmail:     strings.TrimSpace(in.CustomerEmail),
		CustomerPhone:     strings.TrimSpace(in.CustomerPhone),
		BuyerType:         buyer.BuyerType,
		CompanyName:       buyer.CompanyName,
		TaxID:             buyer.TaxID,
		ShippingAddress:   shipping,
		BillingAddress:    billing,
		Status:            model.OrderStatusPendingConfirmation,
		FulfillmentStatus: order.FulfillmentStatusFor(model.OrderStatusPendingConfirmation),
		LegacyStatus:      order.LegacyStatusFor(model.OrderStatusPendingConfirmation),
		Notes:             in.Notes,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	o.Total = o.Subtotal.Add(o.ShippingFee)
	order.ApplyPaidAmount(o, decimal.Zero)
	if key != "" {
		o.CheckoutKey = &key
	}
	for _, item := range items {
		item.OrderID = o.ID
	}
	o.Items = items

	err = d.txPort.RunInTransaction(ctx, func(txCtx context.Context) error {
		code, number, err := d.allocateOrderCode(txCtx, now)
		if err != nil {
			return err
		}
		o.OrderCode, o.OrderNumber = code, number

		if err := d.orderDB.Create(txCtx, o); err != nil {
			return err
		}
		return d.historyDB.Create(txCtx, &model.OrderStatusHistory{
			ID:          uuid.New(),
			OrderID:     o.ID,
			ToStatus:    model.OrderStatusPendingConfirmation,
			ActorUserID: actor.UserIDPtr(),
			ActorRole:   actor.RoleOrSystem(),
			Note:        "order placed",
			CreatedAt:   now,
		})
	})
	if err != nil {
		if errors.Is(err, outbound.ErrDuplicateKey) && key != "" {
			// A concurrent checkout with the same key committed first.
			stored, getErr := d.orderDB.GetByCheckoutKey(ctx, key)
			if getErr == nil && stored != nil {
				return stored, "replayed", nil
			}
		}
		return nil, "error", err
	}

	d.logger.Info("order placed",
		zap.String("order_id", o.ID.String()),
		zap.String("order_code", o.OrderCode),
		zap.String("total", o.Total.StringFixed(order.MoneyPlaces)),
		zap.Int("items", len(o.Items)),
	)
	d.audit.Record(ctx, audit.Entry{
		Action:     model.AuditActionOrderCreated,
		EntityType: "order",
		EntityID:   o.ID.String(),
		After: map[string]any{
			"order_code": o.OrderCode,
			"status":     o.Status,
			"total":      o.Total.StringFixed(order.MoneyPlaces),
			"items":      len(o.Items),
		},
		Actor: actor,
	})
	return o, "success", nil
}

// allocateOrderCode must run inside the transaction that creates the order.
func (d *checkoutDomain) allocateOrderCode(ctx context.Context, at time.Time) (string, string, error) {
	year := at.UTC().Format("2006")
	seq, err := d.counter.Next(ctx, "order:"+year)
	if err != nil {
		return "", "", fmt.Errorf("allocate order code: %w", err)
	}
	return fmt.Sprintf("%s-%s-%06d", d.cfg.CodePrefix, year, seq), fmt.Sprintf("%s%06d", year, seq), nil
}

type buyerInfo struct {
	BuyerType   model.BuyerType
	CompanyName *string
	TaxID       *string
}

// resolveBuyer prefers the input and falls back to the remembered profile.
func (d *checkoutDomain) resolveBuyer(ctx context.Context, actor *model.UserContext, in *Input) (*buyerInfo, error) {
	info := &buyerInfo{BuyerType: model.BuyerTypePersonal, CompanyName: in.CompanyName, TaxID: in.TaxID}
	if in.BuyerType != nil {
		info.BuyerType = *in.BuyerType
		return info, nil
	}

	userID := actor.UserIDPtr()
	if userID == nil || d.profiles == nil {
		return info, nil
	}
	profile, err := d.profiles.GetByUserID(ctx, *userID)
	if err != nil {
		return nil, fmt.Errorf("load customer profile: %w", err)
	}
	if profile == nil {
		return info, nil
	}
	info.BuyerType = profile.BuyerType
	if info.CompanyName == nil {
		info.CompanyName = profile.CompanyName
	}
	if info.TaxID == nil {
		info.TaxID = profile.TaxID
	}
	return info, nil
}

// snapshotItems copies name, SKU and price from the catalog so later catalog
// edits never change a placed order.
func (d *checkoutDomain) snapshotItems(ctx context.Context, lines []ItemInput) ([]*model.OrderItem, decimal.Decimal, error) {
	ids := make([]uuid.UUID, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	products, err := d.catalog.GetByIDs(ctx, ids)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("load products: %w", err)
	}

	var verrs apperrors.ValidationErrors
	items := make([]*model.OrderItem, 0, len(lines))
	subtotal := decimal.Zero
	for i, l := range lines {
		p, ok := products[l.ProductID]
		if !ok {
			return nil, decimal.Zero, &apperrors.NotFoundError{Entity: "product", ID: l.ProductID.String()}
		}
		if !p.Active {
			verrs.Add(fmt.Sprintf("items[%d].product_id", i), "product is not available")
			continue
		}
		price := order.RoundMoney(p.Price)
		lineTotal := price.Mul(decimal.NewFromInt(l.Quantity))
		items = append(items, &model.OrderItem{
			ID:          uuid.New(),
			LineNo:      i + 1,
			ProductID:   p.ID,
			SKU:         p.SKU,
			ProductName: p.Name,
			Quantity:    l.Quantity,
			UnitPrice:   price,
			LineTotal:   lineTotal,
		})
		subtotal = subtotal.Add(lineTotal)
	}
	if err := verrs.Err(); err != nil {
		return nil, decimal.Zero, err
	}
	return items, subtotal, nil
}

func validateInput(in *Input) error {
	if in == nil {
		return apperrors.ValidationErrors{{Field: "items", Message: "is required"}}
	}
	verrs := validation.Struct(in)
	if in.BuyerType != nil {
		if !in.BuyerType.IsValid() {
			verrs.Add("buyer_type", "must be PERSONAL or BUSINESS")
		} else if *in.BuyerType == model.BuyerTypeBusiness && (in.CompanyName == nil || strings.TrimSpace(*in.CompanyName) == "") {
			verrs.Add("company_name", "is required for business buyers")
		}
	}
	if in.ShippingFee.IsNegative() {
		verrs.Add("shipping_fee", "must not be negative")
	}
	return verrs.Err()
}

func resultOf(err error) string {
	switch {
	case apperrors.IsValidation(err):
		return "invalid"
	case apperrors.IsNotFound(err):
		return "not_found"
	default:
		return "error"
	}
}
