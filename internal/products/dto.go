package products

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopward/shopward-backend/pkg/enums"
)

// CreateProductInput carries the fields accepted when creating a product.
type CreateProductInput struct {
	StoreID           uuid.UUID
	CategoryID        *uuid.UUID
	BrandID           *uuid.UUID
	SKU               string
	Name              string
	Slug              string
	Description       *string
	Price             decimal.Decimal
	CompareAtPrice    *decimal.Decimal
	TrackInventory    *bool
	Quantity          int
	LowStockThreshold *int
	Variants          []VariantInput
}

// VariantInput describes one variant row attached on create.
type VariantInput struct {
	SKU      string
	Name     string
	Price    *decimal.Decimal
	Quantity int
}

// UpdateProductInput carries the mutable product fields. Nil means unchanged.
type UpdateProductInput struct {
	CategoryID        *uuid.UUID
	BrandID           *uuid.UUID
	Name              *string
	Slug              *string
	Description       *string
	Price             *decimal.Decimal
	CompareAtPrice    *decimal.Decimal
	TrackInventory    *bool
	LowStockThreshold *int
	IsActive          *bool
}

// AdjustInventoryInput describes a single stock mutation.
type AdjustInventoryInput struct {
	StoreID   uuid.UUID
	ProductID uuid.UUID
	VariantID *uuid.UUID
	Delta     int
	Reason    enums.InventoryLogReason
	Note      *string
	ActorID   *uuid.UUID
}

// Filters describe the inputs supported by the product list.
type Filters struct {
	CategoryID *uuid.UUID
	BrandID    *uuid.UUID
	IsActive   *bool
	Query      string
}
