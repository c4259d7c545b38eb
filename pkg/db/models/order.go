package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/shopward/shopward-backend/pkg/enums"
	"github.com/shopward/shopward-backend/pkg/types"
	"gorm.io/gorm"
)

// Order is the tenant-scoped order record. Status only changes through the
// transition engine; rows are never physically deleted.
type Order struct {
	ID              uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	StoreID         uuid.UUID            `gorm:"column:store_id;type:uuid;not null;uniqueIndex:ux_orders_store_number" json:"store_id"`
	OrderNumber     string               `gorm:"column:order_number;not null;uniqueIndex:ux_orders_store_number" json:"order_number"`
	CustomerID      *uuid.UUID           `gorm:"column:customer_id;type:uuid;index" json:"customer_id,omitempty"`
	CustomerName    string               `gorm:"column:customer_name;not null" json:"customer_name"`
	CustomerEmail   string               `gorm:"column:customer_email;not null" json:"customer_email"`
	Status          enums.OrderStatus    `gorm:"column:status;not null;default:'PENDING'" json:"status"`
	PaymentStatus   enums.PaymentStatus  `gorm:"column:payment_status;not null;default:'PENDING'" json:"payment_status"`
	ShippingStatus  enums.ShippingStatus `gorm:"column:shipping_status;not null;default:'PENDING'" json:"shipping_status"`
	PaymentMethod   *string              `gorm:"column:payment_method" json:"payment_method,omitempty"`
	Subtotal        decimal.Decimal      `gorm:"column:subtotal;type:numeric(12,2);not null" json:"subtotal"`
	Tax             decimal.Decimal      `gorm:"column:tax;type:numeric(12,2);not null" json:"tax"`
	Shipping        decimal.Decimal      `gorm:"column:shipping;type:numeric(12,2);not null" json:"shipping"`
	Discount        decimal.Decimal      `gorm:"column:discount;type:numeric(12,2);not null" json:"discount"`
	Total           decimal.Decimal      `gorm:"column:total;type:numeric(12,2);not null" json:"total"`
	Currency        string               `gorm:"column:currency;not null;default:'USD'" json:"currency"`
	ShippingAddress *types.Address       `gorm:"column:shipping_address;type:jsonb;serializer:json" json:"shipping_address,omitempty"`
	BillingAddress  *types.Address       `gorm:"column:billing_address;type:jsonb;serializer:json" json:"billing_address,omitempty"`
	TrackingNumber  *string              `gorm:"column:tracking_number" json:"tracking_number,omitempty"`
	TrackingURL     *string              `gorm:"column:tracking_url" json:"tracking_url,omitempty"`
	AdminNotes      string               `gorm:"column:admin_notes;not null;default:''" json:"admin_notes"`
	FulfilledAt     *time.Time           `gorm:"column:fulfilled_at" json:"fulfilled_at,omitempty"`
	CanceledAt      *time.Time           `gorm:"column:canceled_at" json:"canceled_at,omitempty"`
	Items           []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	Payments        []Payment            `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"payments,omitempty"`
	CreatedAt       time.Time            `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time            `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt       `gorm:"column:deleted_at;index" json:"-"`
}

// TotalsConsistent verifies total = subtotal + tax + shipping - discount.
func (o Order) TotalsConsistent() bool {
	expected := o.Subtotal.Add(o.Tax).Add(o.Shipping).Sub(o.Discount)
	return o.Total.Equal(expected)
}

// OrderItem is an immutable snapshot of the purchased product at checkout time.
type OrderItem struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID   uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index" json:"order_id"`
	ProductID *uuid.UUID      `gorm:"column:product_id;type:uuid" json:"product_id,omitempty"`
	VariantID *uuid.UUID      `gorm:"column:variant_id;type:uuid" json:"variant_id,omitempty"`
	Name      string          `gorm:"column:name;not null" json:"name"`
	SKU       string          `gorm:"column:sku;not null" json:"sku"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null" json:"unit_price"`
	Quantity  int             `gorm:"column:quantity;not null" json:"quantity"`
	Total     decimal.Decimal `gorm:"column:total;type:numeric(12,2);not null" json:"total"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// Payment records one gateway transaction against an order. Rows are updated
// in place on webhook confirmation, never replaced.
type Payment struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID       uuid.UUID           `gorm:"column:order_id;type:uuid;not null;index" json:"order_id"`
	IntentID      *string             `gorm:"column:intent_id;uniqueIndex" json:"intent_id,omitempty"`
	Amount        decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null" json:"amount"`
	Currency      string              `gorm:"column:currency;not null;default:'USD'" json:"currency"`
	Status        enums.PaymentStatus `gorm:"column:status;not null;default:'PENDING'" json:"status"`
	FailureReason *string             `gorm:"column:failure_reason" json:"failure_reason,omitempty"`
	RefundedAt    *time.Time          `gorm:"column:refunded_at" json:"refunded_at,omitempty"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
