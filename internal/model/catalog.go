package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is the catalog view checkout reads to snapshot order lines.
type Product struct {
	ID        uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SKU       string          `json:"sku" gorm:"uniqueIndex;not null"`
	Name      string          `json:"name" gorm:"not null"`
	Price     decimal.Decimal `json:"price" gorm:"type:numeric(18,2);not null"`
	Active    bool            `json:"active" gorm:"not null;default:true"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// TableName returns the database table name.
func (Product) TableName() string {
	return "products"
}

// CustomerProfile holds the buyer classification remembered for a user.
type CustomerProfile struct {
	UserID      uuid.UUID `json:"user_id" gorm:"type:uuid;primaryKey"`
	BuyerType   BuyerType `json:"buyer_type" gorm:"not null;default:PERSONAL"`
	CompanyName *string   `json:"company_name,omitempty"`
	TaxID       *string   `json:"tax_id,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the database table name.
func (CustomerProfile) TableName() string {
	return "customer_profiles"
}
