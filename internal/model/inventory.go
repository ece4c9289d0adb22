package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockDocumentType identifies what a stock document does to inventory.
type StockDocumentType string

const (
	StockDocumentTypeGRN        StockDocumentType = "GRN"
	StockDocumentTypeIssue      StockDocumentType = "ISSUE"
	StockDocumentTypeAdjustment StockDocumentType = "ADJUSTMENT"
	StockDocumentTypeTransfer   StockDocumentType = "TRANSFER"
	StockDocumentTypeReserve    StockDocumentType = "RESERVE"
	StockDocumentTypeRelease    StockDocumentType = "RELEASE"
	StockDocumentTypeDeduct     StockDocumentType = "DEDUCT"
	StockDocumentTypeRestock    StockDocumentType = "RESTOCK"
)

// StockDocumentTypes lists all document types.
var StockDocumentTypes = []StockDocumentType{
	StockDocumentTypeGRN,
	StockDocumentTypeIssue,
	StockDocumentTypeAdjustment,
	StockDocumentTypeTransfer,
	StockDocumentTypeReserve,
	StockDocumentTypeRelease,
	StockDocumentTypeDeduct,
	StockDocumentTypeRestock,
}

// String returns the string representation of the type.
func (t StockDocumentType) String() string {
	return string(t)
}

// IsValid checks if the type is a known document type.
func (t StockDocumentType) IsValid() bool {
	for _, known := range StockDocumentTypes {
		if t == known {
			return true
		}
	}
	return false
}

// StockDocumentStatus is the lifecycle status of a stock document.
type StockDocumentStatus string

const (
	StockDocumentStatusDraft  StockDocumentStatus = "DRAFT"
	StockDocumentStatusPosted StockDocumentStatus = "POSTED"
	StockDocumentStatusVoid   StockDocumentStatus = "VOID"
)

// String returns the string representation of the status.
func (s StockDocumentStatus) String() string {
	return string(s)
}

// InventoryDirection is the coarse effect of a document type on stock.
type InventoryDirection string

const (
	DirectionIn       InventoryDirection = "IN"
	DirectionOut      InventoryDirection = "OUT"
	DirectionTransfer InventoryDirection = "TRANSFER"
	DirectionAdjust   InventoryDirection = "ADJUST"
)

// ReferenceType names what a stock document was raised for.
type ReferenceType string

const (
	ReferenceTypeOrder  ReferenceType = "ORDER"
	ReferenceTypePO     ReferenceType = "PO"
	ReferenceTypeManual ReferenceType = "MANUAL"
)

// IsValid checks if the reference type is known.
func (r ReferenceType) IsValid() bool {
	switch r {
	case ReferenceTypeOrder, ReferenceTypePO, ReferenceTypeManual:
		return true
	}
	return false
}

// Warehouse is a physical or logical stock location.
type Warehouse struct {
	ID        uuid.UUID            `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Code      string               `json:"code" gorm:"uniqueIndex;not null"`
	Name      string               `json:"name" gorm:"not null"`
	IsDefault bool                 `json:"is_default" gorm:"not null;default:false;index"`
	Active    bool                 `json:"active" gorm:"not null;default:true"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
	Locations []*WarehouseLocation `json:"locations,omitempty" gorm:"foreignKey:WarehouseID"`
}

// TableName returns the database table name.
func (Warehouse) TableName() string {
	return "warehouses"
}

// WarehouseLocation is an optional bin-level subdivision of a warehouse.
type WarehouseLocation struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	WarehouseID uuid.UUID `json:"warehouse_id" gorm:"type:uuid;not null;uniqueIndex:idx_location_code"`
	Code        string    `json:"code" gorm:"not null;uniqueIndex:idx_location_code"`
	Name        string    `json:"name"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName returns the database table name.
func (WarehouseLocation) TableName() string {
	return "warehouse_locations"
}

// InventoryItem is the current balance of one product at one warehouse.
// AvailableQty is always OnHandQty - ReservedQty.
type InventoryItem struct {
	ID           uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID    uuid.UUID  `json:"product_id" gorm:"type:uuid;not null;uniqueIndex:idx_inventory_product_warehouse"`
	WarehouseID  uuid.UUID  `json:"warehouse_id" gorm:"type:uuid;not null;uniqueIndex:idx_inventory_product_warehouse"`
	LocationID   *uuid.UUID `json:"location_id,omitempty" gorm:"type:uuid"`
	OnHandQty    int64      `json:"on_hand_qty" gorm:"not null;default:0"`
	ReservedQty  int64      `json:"reserved_qty" gorm:"not null;default:0"`
	AvailableQty int64      `json:"available_qty" gorm:"not null;default:0"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// TableName returns the database table name.
func (InventoryItem) TableName() string {
	return "inventory_items"
}

// SetBalances updates on-hand and reserved and recomputes available.
func (i *InventoryItem) SetBalances(onHand, reserved int64) {
	i.OnHandQty = onHand
	i.ReservedQty = reserved
	i.AvailableQty = onHand - reserved
}

// StockDocument is a unit of work that mutates inventory once posted.
type StockDocument struct {
	ID                uuid.UUID           `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Code              string              `json:"code" gorm:"uniqueIndex;not null"`
	Type              StockDocumentType   `json:"type" gorm:"not null;index"`
	Status            StockDocumentStatus `json:"status" gorm:"not null;index"`
	WarehouseID       uuid.UUID           `json:"warehouse_id" gorm:"type:uuid;not null"`
	TargetWarehouseID *uuid.UUID          `json:"target_warehouse_id,omitempty" gorm:"type:uuid"`
	ReferenceType     *ReferenceType      `json:"reference_type,omitempty" gorm:"index:idx_stock_doc_reference"`
	ReferenceID       *string             `json:"reference_id,omitempty" gorm:"index:idx_stock_doc_reference"`
	SourceKey         *string             `json:"source_key,omitempty" gorm:"uniqueIndex"`
	Note              string              `json:"note,omitempty"`
	CreatedBy         *uuid.UUID          `json:"created_by,omitempty" gorm:"type:uuid"`
	PostedBy          *uuid.UUID          `json:"posted_by,omitempty" gorm:"type:uuid"`
	PostedAt          *time.Time          `json:"posted_at,omitempty"`
	VoidedBy          *uuid.UUID          `json:"voided_by,omitempty" gorm:"type:uuid"`
	VoidedAt          *time.Time          `json:"voided_at,omitempty"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`

	// Relations
	Lines []*StockDocumentLine `json:"lines,omitempty" gorm:"foreignKey:DocumentID"`
}

// TableName returns the database table name.
func (StockDocument) TableName() string {
	return "stock_documents"
}

// StockDocumentLine is one product line of a stock document.
// Quantity is signed only for ADJUSTMENT documents.
type StockDocumentLine struct {
	ID               uuid.UUID           `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DocumentID       uuid.UUID           `json:"document_id" gorm:"type:uuid;not null;index"`
	LineNo           int                 `json:"line_no" gorm:"not null"`
	ProductID        uuid.UUID           `json:"product_id" gorm:"type:uuid;not null"`
	Quantity         int64               `json:"quantity" gorm:"not null"`
	UnitCost         decimal.NullDecimal `json:"unit_cost" gorm:"type:numeric(18,4)"`
	SourceLocationID *uuid.UUID          `json:"source_location_id,omitempty" gorm:"type:uuid"`
	TargetLocationID *uuid.UUID          `json:"target_location_id,omitempty" gorm:"type:uuid"`
}

// TableName returns the database table name.
func (StockDocumentLine) TableName() string {
	return "stock_document_lines"
}

// StockMovement is an immutable ledger entry. IdempotencyKey is unique.
type StockMovement struct {
	ID                uuid.UUID         `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DocumentID        uuid.UUID         `json:"document_id" gorm:"type:uuid;not null;index"`
	LineID            uuid.UUID         `json:"line_id" gorm:"type:uuid;not null"`
	ProductID         uuid.UUID         `json:"product_id" gorm:"type:uuid;not null;index:idx_movement_product_warehouse"`
	WarehouseID       uuid.UUID         `json:"warehouse_id" gorm:"type:uuid;not null;index:idx_movement_product_warehouse"`
	LocationID        *uuid.UUID        `json:"location_id,omitempty" gorm:"type:uuid"`
	Type              StockDocumentType `json:"type" gorm:"not null"`
	QtyChangeOnHand   int64             `json:"qty_change_on_hand" gorm:"not null"`
	QtyChangeReserved int64             `json:"qty_change_reserved" gorm:"not null"`
	OnHandAfter       int64             `json:"on_hand_after" gorm:"not null"`
	ReservedAfter     int64             `json:"reserved_after" gorm:"not null"`
	IdempotencyKey    string            `json:"idempotency_key" gorm:"uniqueIndex;not null"`
	CreatedBy         *uuid.UUID        `json:"created_by,omitempty" gorm:"type:uuid"`
	CreatedAt         time.Time         `json:"created_at"`
}

// TableName returns the database table name.
func (StockMovement) TableName() string {
	return "stock_movements"
}

// StockDocumentFilter represents filters for listing stock documents.
type StockDocumentFilter struct {
	Type          *StockDocumentType
	Status        *StockDocumentStatus
	WarehouseID   *uuid.UUID
	ReferenceType *ReferenceType
	ReferenceID   *string
}

// StockMovementFilter represents filters for listing stock movements.
type StockMovementFilter struct {
	ProductID   *uuid.UUID
	WarehouseID *uuid.UUID
	DocumentID  *uuid.UUID
	Type        *StockDocumentType
	CreatedAt   *TimeRange
}

// Counter is a sequence row scoped by a key such as "order:2026".
type Counter struct {
	Scope     string `gorm:"primaryKey"`
	Value     int64  `gorm:"not null;default:0"`
	UpdatedAt time.Time
}

// TableName returns the database table name.
func (Counter) TableName() string {
	return "counters"
}
