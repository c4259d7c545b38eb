package products

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/shopward/shopward-backend/pkg/db/models"
	"github.com/shopward/shopward-backend/pkg/enums"
	"github.com/shopward/shopward-backend/pkg/pagination"
)

func setupCatalogTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	products := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  store_id TEXT NOT NULL,
  category_id TEXT,
  brand_id TEXT,
  sku TEXT NOT NULL,
  name TEXT NOT NULL,
  slug TEXT NOT NULL,
  description TEXT,
  price NUMERIC NOT NULL,
  compare_at_price NUMERIC,
  track_inventory INTEGER NOT NULL DEFAULT 1,
  quantity INTEGER NOT NULL DEFAULT 0,
  low_stock_threshold INTEGER NOT NULL DEFAULT 5,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME,
  deleted_at DATETIME
);`
	variants := `
CREATE TABLE IF NOT EXISTS product_variants (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  sku TEXT NOT NULL,
  name TEXT NOT NULL,
  price NUMERIC,
  quantity INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	inventoryLogs := `
CREATE TABLE IF NOT EXISTS inventory_logs (
  id TEXT PRIMARY KEY,
  store_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  variant_id TEXT,
  previous_qty INTEGER NOT NULL,
  new_qty INTEGER NOT NULL,
  reason TEXT NOT NULL,
  note TEXT,
  actor_id TEXT,
  created_at DATETIME
);`
	categories := `
CREATE TABLE IF NOT EXISTS categories (
  id TEXT PRIMARY KEY,
  store_id TEXT NOT NULL,
  name TEXT NOT NULL,
  slug TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME,
  deleted_at DATETIME
);`
	brands := `
CREATE TABLE IF NOT EXISTS brands (
  id TEXT PRIMARY KEY,
  store_id TEXT NOT NULL,
  name TEXT NOT NULL,
  slug TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME,
  deleted_at DATETIME
);`

	for _, stmt := range []string{products, variants, inventoryLogs, categories, brands} {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, storeID uuid.UUID, sku, name string, createdAt time.Time, active bool) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:        uuid.New(),
		StoreID:   storeID,
		SKU:       sku,
		Name:      name,
		Slug:      name,
		Price:     decimal.NewFromFloat(19.99),
		Quantity:  10,
		IsActive:  active,
		CreatedAt: createdAt,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func TestRepositoryCreateAndFindProduct(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	storeID := uuid.New()

	product := &models.Product{
		ID:      uuid.New(),
		StoreID: storeID,
		SKU:     "TSHIRT-001",
		Name:    "Logo Tee",
		Slug:    "logo-tee",
		Price:   decimal.NewFromFloat(24.50),
		Variants: []models.ProductVariant{
			{ID: uuid.New(), SKU: "TSHIRT-001-S", Name: "Small", Quantity: 4},
			{ID: uuid.New(), SKU: "TSHIRT-001-M", Name: "Medium", Quantity: 6},
		},
	}
	_, err := repo.CreateProduct(ctx, product)
	require.NoError(t, err)

	found, err := repo.FindProduct(ctx, storeID, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "TSHIRT-001", found.SKU)
	assert.Len(t, found.Variants, 2)

	bySKU, err := repo.FindProductBySKU(ctx, storeID, "TSHIRT-001")
	require.NoError(t, err)
	assert.Equal(t, product.ID, bySKU.ID)

	_, err = repo.FindProduct(ctx, uuid.New(), product.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryListProductsFilters(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	storeID := uuid.New()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	seedProduct(t, db, storeID, "HAT-01", "Wool Hat", base, true)
	seedProduct(t, db, storeID, "HAT-02", "Straw Hat", base.Add(time.Minute), true)
	seedProduct(t, db, storeID, "MUG-01", "Coffee Mug", base.Add(2*time.Minute), false)
	seedProduct(t, db, uuid.New(), "HAT-03", "Other Store Hat", base, true)

	all, err := repo.ListProducts(ctx, storeID, pagination.Params{}, Filters{})
	require.NoError(t, err)
	require.Len(t, all.Products, 3)
	assert.Equal(t, "MUG-01", all.Products[0].SKU)

	active := true
	onlyActive, err := repo.ListProducts(ctx, storeID, pagination.Params{}, Filters{IsActive: &active})
	require.NoError(t, err)
	assert.Len(t, onlyActive.Products, 2)

	byQuery, err := repo.ListProducts(ctx, storeID, pagination.Params{}, Filters{Query: "hat"})
	require.NoError(t, err)
	assert.Len(t, byQuery.Products, 2)
}

func TestRepositoryListProductsPaginates(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	storeID := uuid.New()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	older := seedProduct(t, db, storeID, "PAGE-01", "First", base, true)
	newer := seedProduct(t, db, storeID, "PAGE-02", "Second", base.Add(time.Hour), true)

	first, err := repo.ListProducts(ctx, storeID, pagination.Params{Limit: 1}, Filters{})
	require.NoError(t, err)
	require.Len(t, first.Products, 1)
	assert.Equal(t, newer.ID, first.Products[0].ID)
	require.NotEmpty(t, first.NextCursor)

	second, err := repo.ListProducts(ctx, storeID, pagination.Params{Limit: 1, Cursor: first.NextCursor}, Filters{})
	require.NoError(t, err)
	require.Len(t, second.Products, 1)
	assert.Equal(t, older.ID, second.Products[0].ID)
	assert.Empty(t, second.NextCursor)
}

func TestRepositorySoftDeleteProduct(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	storeID := uuid.New()

	product := seedProduct(t, db, storeID, "GONE-01", "Doomed", time.Now().UTC(), true)
	require.NoError(t, repo.SoftDeleteProduct(ctx, storeID, product.ID))

	_, err := repo.FindProduct(ctx, storeID, product.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var count int64
	require.NoError(t, db.Unscoped().Model(&models.Product{}).Where("id = ?", product.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRepositoryVariantQuantityAndInventoryLog(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	storeID := uuid.New()

	product := seedProduct(t, db, storeID, "VAR-01", "Varied", time.Now().UTC(), true)
	variant := &models.ProductVariant{ID: uuid.New(), ProductID: product.ID, SKU: "VAR-01-A", Name: "A", Quantity: 3}
	require.NoError(t, db.Create(variant).Error)

	require.NoError(t, repo.UpdateVariantQuantity(ctx, variant.ID, 9))
	found, err := repo.FindVariant(ctx, product.ID, variant.ID)
	require.NoError(t, err)
	assert.Equal(t, 9, found.Quantity)

	entry := &models.InventoryLog{
		ID:          uuid.New(),
		StoreID:     storeID,
		ProductID:   product.ID,
		VariantID:   &variant.ID,
		PreviousQty: 3,
		NewQty:      9,
		Reason:      enums.InventoryReasonRestock,
	}
	require.NoError(t, repo.CreateInventoryLog(ctx, entry))

	var logged models.InventoryLog
	require.NoError(t, db.Where("product_id = ?", product.ID).First(&logged).Error)
	assert.Equal(t, enums.InventoryReasonRestock, logged.Reason)
	assert.Equal(t, 9, logged.NewQty)
}

func TestRepositoryCategoriesAndBrands(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	storeID := uuid.New()

	_, err := repo.CreateCategory(ctx, &models.Category{ID: uuid.New(), StoreID: storeID, Name: "Shirts", Slug: "shirts"})
	require.NoError(t, err)
	apparel, err := repo.CreateCategory(ctx, &models.Category{ID: uuid.New(), StoreID: storeID, Name: "Apparel", Slug: "apparel"})
	require.NoError(t, err)

	categories, err := repo.ListCategories(ctx, storeID)
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, "Apparel", categories[0].Name)

	require.NoError(t, repo.SoftDeleteCategory(ctx, storeID, apparel.ID))
	categories, err = repo.ListCategories(ctx, storeID)
	require.NoError(t, err)
	assert.Len(t, categories, 1)

	brand, err := repo.CreateBrand(ctx, &models.Brand{ID: uuid.New(), StoreID: storeID, Name: "Acme", Slug: "acme"})
	require.NoError(t, err)
	brands, err := repo.ListBrands(ctx, storeID)
	require.NoError(t, err)
	require.Len(t, brands, 1)
	assert.Equal(t, brand.ID, brands[0].ID)

	count, err := repo.CountProductsInBrand(ctx, storeID, brand.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}
