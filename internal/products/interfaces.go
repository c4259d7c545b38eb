package products

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopward/shopward-backend/pkg/db/models"
	"github.com/shopward/shopward-backend/pkg/pagination"
)

// Repository defines persistence operations for the catalog tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error)
	FindProduct(ctx context.Context, storeID, productID uuid.UUID) (*models.Product, error)
	FindProductBySKU(ctx context.Context, storeID uuid.UUID, sku string) (*models.Product, error)
	FindVariant(ctx context.Context, productID, variantID uuid.UUID) (*models.ProductVariant, error)
	ListProducts(ctx context.Context, storeID uuid.UUID, params pagination.Params, filters Filters) (*ProductList, error)
	UpdateProduct(ctx context.Context, storeID, productID uuid.UUID, updates map[string]any) error
	SoftDeleteProduct(ctx context.Context, storeID, productID uuid.UUID) error
	UpdateVariantQuantity(ctx context.Context, variantID uuid.UUID, quantity int) error
	CreateInventoryLog(ctx context.Context, entry *models.InventoryLog) error
	CountProductsInCategory(ctx context.Context, storeID, categoryID uuid.UUID) (int64, error)
	CountProductsInBrand(ctx context.Context, storeID, brandID uuid.UUID) (int64, error)
	CreateCategory(ctx context.Context, category *models.Category) (*models.Category, error)
	FindCategory(ctx context.Context, storeID, categoryID uuid.UUID) (*models.Category, error)
	ListCategories(ctx context.Context, storeID uuid.UUID) ([]models.Category, error)
	SoftDeleteCategory(ctx context.Context, storeID, categoryID uuid.UUID) error
	CreateBrand(ctx context.Context, brand *models.Brand) (*models.Brand, error)
	FindBrand(ctx context.Context, storeID, brandID uuid.UUID) (*models.Brand, error)
	ListBrands(ctx context.Context, storeID uuid.UUID) ([]models.Brand, error)
	SoftDeleteBrand(ctx context.Context, storeID, brandID uuid.UUID) error
}

// ProductList wraps the paginated products plus the next page cursor.
type ProductList struct {
	Products   []models.Product `json:"products"`
	NextCursor string           `json:"next_cursor,omitempty"`
}
