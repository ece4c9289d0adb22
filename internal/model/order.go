package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the canonical status of an order.
type OrderStatus string

const (
	OrderStatusDraft               OrderStatus = "DRAFT"
	OrderStatusPendingConfirmation OrderStatus = "PENDING_CONFIRMATION"
	OrderStatusConfirmed           OrderStatus = "CONFIRMED"
	OrderStatusPacking             OrderStatus = "PACKING"
	OrderStatusShipped             OrderStatus = "SHIPPED"
	OrderStatusDelivered           OrderStatus = "DELIVERED"
	OrderStatusReturnRequested     OrderStatus = "RETURN_REQUESTED"
	OrderStatusReturned            OrderStatus = "RETURNED"
	OrderStatusCanceled            OrderStatus = "CANCELED"
	OrderStatusFailed              OrderStatus = "FAILED"
)

// OrderStatuses lists every canonical status in lifecycle order.
var OrderStatuses = []OrderStatus{
	OrderStatusDraft,
	OrderStatusPendingConfirmation,
	OrderStatusConfirmed,
	OrderStatusPacking,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusReturnRequested,
	OrderStatusReturned,
	OrderStatusCanceled,
	OrderStatusFailed,
}

// String returns the string representation of the status.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid checks if the status is a known order status.
func (s OrderStatus) IsValid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// FulfillmentStatus is the shipping-progress view of an order.
type FulfillmentStatus string

const (
	FulfillmentUnfulfilled FulfillmentStatus = "UNFULFILLED"
	FulfillmentPacking     FulfillmentStatus = "PACKING"
	FulfillmentShipped     FulfillmentStatus = "SHIPPED"
	FulfillmentDelivered   FulfillmentStatus = "DELIVERED"
	FulfillmentReturned    FulfillmentStatus = "RETURNED"
)

// LegacyOrderStatus is the display label kept for older consumers.
type LegacyOrderStatus string

const (
	LegacyStatusDraft           LegacyOrderStatus = "DRAFT"
	LegacyStatusPending         LegacyOrderStatus = "PENDING"
	LegacyStatusConfirmed       LegacyOrderStatus = "CONFIRMED"
	LegacyStatusProcessing      LegacyOrderStatus = "PROCESSING"
	LegacyStatusShipping        LegacyOrderStatus = "SHIPPING"
	LegacyStatusCompleted       LegacyOrderStatus = "COMPLETED"
	LegacyStatusReturnRequested LegacyOrderStatus = "RETURN_REQUESTED"
	LegacyStatusReturned        LegacyOrderStatus = "RETURNED"
	LegacyStatusCancelled       LegacyOrderStatus = "CANCELLED"
	LegacyStatusFailed          LegacyOrderStatus = "FAILED"
)

// PaymentState summarizes how much of an order has been paid.
type PaymentState string

const (
	PaymentStateUnpaid  PaymentState = "UNPAID"
	PaymentStatePartial PaymentState = "PARTIAL"
	PaymentStatePaid    PaymentState = "PAID"
)

// BuyerType classifies who placed the order.
type BuyerType string

const (
	BuyerTypePersonal BuyerType = "PERSONAL"
	BuyerTypeBusiness BuyerType = "BUSINESS"
)

// IsValid checks if the buyer type is known.
func (b BuyerType) IsValid() bool {
	return b == BuyerTypePersonal || b == BuyerTypeBusiness
}

// StockAction is the inventory effect implied by an order status transition.
// The zero value means no stock action.
type StockAction string

const (
	StockActionNone    StockAction = ""
	StockActionReserve StockAction = "RESERVE"
	StockActionDeduct  StockAction = "DEDUCT"
	StockActionRelease StockAction = "RELEASE"
	StockActionRestock StockAction = "RESTOCK"
)

// IsNone reports whether the action does nothing.
func (a StockAction) IsNone() bool {
	return a == StockActionNone
}

// DocumentType returns the stock document type that carries out the action.
func (a StockAction) DocumentType() (StockDocumentType, bool) {
	switch a {
	case StockActionReserve:
		return StockDocumentTypeReserve, true
	case StockActionDeduct:
		return StockDocumentTypeDeduct, true
	case StockActionRelease:
		return StockDocumentTypeRelease, true
	case StockActionRestock:
		return StockDocumentTypeRestock, true
	}
	return "", false
}

// Order represents one purchase transaction.
type Order struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrderCode   string     `json:"order_code" gorm:"uniqueIndex;not null"`
	OrderNumber string     `json:"order_number" gorm:"uniqueIndex;not null"`
	UserID      *uuid.UUID `json:"user_id,omitempty" gorm:"type:uuid;index"`
	CheckoutKey *string    `json:"-" gorm:"uniqueIndex"`

	Currency          string          `json:"currency" gorm:"not null;default:VND"`
	Subtotal          decimal.Decimal `json:"subtotal" gorm:"type:numeric(18,2);not null;default:0"`
	ShippingFee       decimal.Decimal `json:"shipping_fee" gorm:"type:numeric(18,2);not null;default:0"`
	Total             decimal.Decimal `json:"total" gorm:"type:numeric(18,2);not null;default:0"`
	PaidAmount        decimal.Decimal `json:"paid_amount" gorm:"type:numeric(18,2);not null;default:0"`
	OutstandingAmount decimal.Decimal `json:"outstanding_amount" gorm:"type:numeric(18,2);not null;default:0"`

	CustomerName    string          `json:"customer_name"`
	CustomerEmail   string          `json:"customer_email"`
	CustomerPhone   string          `json:"customer_phone"`
	BuyerType       BuyerType       `json:"buyer_type" gorm:"not null;default:PERSONAL"`
	CompanyName     *string         `json:"company_name,omitempty"`
	TaxID           *string         `json:"tax_id,omitempty"`
	ShippingAddress json.RawMessage `json:"shipping_address,omitempty" gorm:"type:jsonb"`
	BillingAddress  json.RawMessage `json:"billing_address,omitempty" gorm:"type:jsonb"`

	Status            OrderStatus       `json:"status" gorm:"not null;index"`
	FulfillmentStatus FulfillmentStatus `json:"fulfillment_status" gorm:"not null"`
	LegacyStatus      LegacyOrderStatus `json:"legacy_status" gorm:"not null"`
	PaymentState      PaymentState      `json:"payment_state" gorm:"not null;default:UNPAID"`

	Notes        string     `json:"notes,omitempty"`
	CancelReason *string    `json:"cancel_reason,omitempty"`
	ConfirmedAt  *time.Time `json:"confirmed_at,omitempty"`
	ShippedAt    *time.Time `json:"shipped_at,omitempty"`
	DeliveredAt  *time.Time `json:"delivered_at,omitempty"`
	CanceledAt   *time.Time `json:"canceled_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	// Relations
	Items []*OrderItem `json:"items,omitempty" gorm:"foreignKey:OrderID"`
}

// TableName returns the database table name.
func (Order) TableName() string {
	return "orders"
}

// HasItems reports whether the order carries any line items.
func (o *Order) HasItems() bool {
	return len(o.Items) > 0
}

// OrderItem is a line of an order with the product snapshot taken at checkout.
type OrderItem struct {
	ID          uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrderID     uuid.UUID       `json:"order_id" gorm:"type:uuid;not null;index"`
	LineNo      int             `json:"line_no" gorm:"not null"`
	ProductID   uuid.UUID       `json:"product_id" gorm:"type:uuid;not null"`
	SKU         string          `json:"sku"`
	ProductName string          `json:"product_name" gorm:"not null"`
	Quantity    int64           `json:"quantity" gorm:"not null"`
	UnitPrice   decimal.Decimal `json:"unit_price" gorm:"type:numeric(18,2);not null"`
	LineTotal   decimal.Decimal `json:"line_total" gorm:"type:numeric(18,2);not null"`
}

// TableName returns the database table name.
func (OrderItem) TableName() string {
	return "order_items"
}

// OrderStatusHistory is one append-only entry per status transition.
type OrderStatusHistory struct {
	ID           uuid.UUID    `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrderID      uuid.UUID    `json:"order_id" gorm:"type:uuid;not null;index"`
	FromStatus   *OrderStatus `json:"from_status,omitempty"`
	ToStatus     OrderStatus  `json:"to_status" gorm:"not null"`
	ActorUserID  *uuid.UUID   `json:"actor_user_id,omitempty" gorm:"type:uuid"`
	ActorRole    string       `json:"actor_role,omitempty"`
	Note         string       `json:"note,omitempty"`
	CustomerNote string       `json:"customer_note,omitempty"`
	Forced       bool         `json:"forced"`
	CreatedAt    time.Time    `json:"created_at"`
}

// TableName returns the database table name.
func (OrderStatusHistory) TableName() string {
	return "order_status_history"
}

// Payment is an append-only payment recorded against an order.
type Payment struct {
	ID        uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrderID   uuid.UUID       `json:"order_id" gorm:"type:uuid;not null;index"`
	Amount    decimal.Decimal `json:"amount" gorm:"type:numeric(18,2);not null"`
	Method    string          `json:"method" gorm:"not null"`
	Note      string          `json:"note,omitempty"`
	PaidAt    time.Time       `json:"paid_at"`
	CreatedBy *uuid.UUID      `json:"created_by,omitempty" gorm:"type:uuid"`
	CreatedAt time.Time       `json:"created_at"`
}

// TableName returns the database table name.
func (Payment) TableName() string {
	return "order_payments"
}

// OrderFilter represents filters for listing orders.
type OrderFilter struct {
	Status    *OrderStatus
	UserID    *uuid.UUID
	Search    string
	CreatedAt *TimeRange
}

// TimeRange bounds a query on a timestamp column. Either side may be nil.
type TimeRange struct {
	From *time.Time
	To   *time.Time
}
