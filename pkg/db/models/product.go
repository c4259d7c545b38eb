package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/shopward/shopward-backend/pkg/enums"
	"gorm.io/gorm"
)

// Product is a store-scoped catalog entry. SKU is unique per store.
type Product struct {
	ID                uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	StoreID           uuid.UUID        `gorm:"column:store_id;type:uuid;not null;uniqueIndex:ux_products_store_sku" json:"store_id"`
	CategoryID        *uuid.UUID       `gorm:"column:category_id;type:uuid;index" json:"category_id,omitempty"`
	BrandID           *uuid.UUID       `gorm:"column:brand_id;type:uuid;index" json:"brand_id,omitempty"`
	SKU               string           `gorm:"column:sku;not null;uniqueIndex:ux_products_store_sku" json:"sku"`
	Name              string           `gorm:"column:name;not null" json:"name"`
	Slug              string           `gorm:"column:slug;not null" json:"slug"`
	Description       *string          `gorm:"column:description" json:"description,omitempty"`
	Price             decimal.Decimal  `gorm:"column:price;type:numeric(12,2);not null" json:"price"`
	CompareAtPrice    *decimal.Decimal `gorm:"column:compare_at_price;type:numeric(12,2)" json:"compare_at_price,omitempty"`
	TrackInventory    bool             `gorm:"column:track_inventory;not null;default:true" json:"track_inventory"`
	Quantity          int              `gorm:"column:quantity;not null;default:0" json:"quantity"`
	LowStockThreshold int              `gorm:"column:low_stock_threshold;not null;default:5" json:"low_stock_threshold"`
	IsActive          bool             `gorm:"column:is_active;not null;default:true" json:"is_active"`
	Variants          []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"variants,omitempty"`
	CreatedAt         time.Time        `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time        `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
	DeletedAt         gorm.DeletedAt   `gorm:"column:deleted_at;index" json:"-"`
}

// InventoryStatus derives the displayed stock state from quantity vs threshold.
func (p Product) InventoryStatus() enums.InventoryStatus {
	return enums.InventoryStatusFor(p.Quantity, p.LowStockThreshold)
}

// ProductVariant carries a per-variant price override and its own stock count.
type ProductVariant struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProductID uuid.UUID        `gorm:"column:product_id;type:uuid;not null;index" json:"product_id"`
	SKU       string           `gorm:"column:sku;not null" json:"sku"`
	Name      string           `gorm:"column:name;not null" json:"name"`
	Price     *decimal.Decimal `gorm:"column:price;type:numeric(12,2)" json:"price,omitempty"`
	Quantity  int              `gorm:"column:quantity;not null;default:0" json:"quantity"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// InventoryLog is an append-only record of every stock mutation.
type InventoryLog struct {
	ID          uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	StoreID     uuid.UUID                `gorm:"column:store_id;type:uuid;not null;index" json:"store_id"`
	ProductID   uuid.UUID                `gorm:"column:product_id;type:uuid;not null;index" json:"product_id"`
	VariantID   *uuid.UUID               `gorm:"column:variant_id;type:uuid" json:"variant_id,omitempty"`
	PreviousQty int                      `gorm:"column:previous_qty;not null" json:"previous_qty"`
	NewQty      int                      `gorm:"column:new_qty;not null" json:"new_qty"`
	Reason      enums.InventoryLogReason `gorm:"column:reason;not null" json:"reason"`
	Note        *string                  `gorm:"column:note" json:"note,omitempty"`
	ActorID     *uuid.UUID               `gorm:"column:actor_id;type:uuid" json:"actor_id,omitempty"`
	CreatedAt   time.Time                `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
