package products

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopward/shopward-backend/internal/audit"
	dbpkg "github.com/shopward/shopward-backend/pkg/db"
	"github.com/shopward/shopward-backend/pkg/db/models"
	"github.com/shopward/shopward-backend/pkg/enums"
	pkgerrors "github.com/shopward/shopward-backend/pkg/errors"
	"github.com/shopward/shopward-backend/pkg/outbox"
	"github.com/shopward/shopward-backend/pkg/outbox/payloads"
	"github.com/shopward/shopward-backend/pkg/pagination"
	"github.com/shopward/shopward-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type auditRecorder interface {
	Record(ctx context.Context, tx *gorm.DB, entry audit.Entry)
}

// Service defines catalog operations beyond repository reads.
type Service interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error)
	GetProduct(ctx context.Context, storeID, productID uuid.UUID) (*models.Product, error)
	ListProducts(ctx context.Context, storeID uuid.UUID, params pagination.Params, filters Filters) (*ProductList, error)
	UpdateProduct(ctx context.Context, storeID, productID uuid.UUID, input UpdateProductInput) (*models.Product, error)
	DeleteProduct(ctx context.Context, storeID, productID uuid.UUID) error
	AdjustInventory(ctx context.Context, input AdjustInventoryInput) (*models.Product, error)
	CreateCategory(ctx context.Context, storeID uuid.UUID, name, slug string) (*models.Category, error)
	ListCategories(ctx context.Context, storeID uuid.UUID) ([]models.Category, error)
	DeleteCategory(ctx context.Context, storeID, categoryID uuid.UUID) error
	CreateBrand(ctx context.Context, storeID uuid.UUID, name, slug string) (*models.Brand, error)
	ListBrands(ctx context.Context, storeID uuid.UUID) ([]models.Brand, error)
	DeleteBrand(ctx context.Context, storeID, brandID uuid.UUID) error
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
	audit  auditRecorder
}

// NewService builds a catalog service with the required dependencies.
func NewService(repo Repository, tx txRunner, outbox outboxPublisher, auditlog auditRecorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if auditlog == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	return &service{repo: repo, tx: tx, outbox: outbox, audit: auditlog}, nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	if input.StoreID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id required")
	}
	if input.SKU == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku required")
	}
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name required")
	}
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}

	track := true
	if input.TrackInventory != nil {
		track = *input.TrackInventory
	}
	threshold := 5
	if input.LowStockThreshold != nil {
		threshold = *input.LowStockThreshold
	}

	product := &models.Product{
		StoreID:           input.StoreID,
		CategoryID:        input.CategoryID,
		BrandID:           input.BrandID,
		SKU:               input.SKU,
		Name:              input.Name,
		Slug:              input.Slug,
		Description:       input.Description,
		Price:             input.Price,
		CompareAtPrice:    input.CompareAtPrice,
		TrackInventory:    track,
		Quantity:          input.Quantity,
		LowStockThreshold: threshold,
		IsActive:          true,
	}
	for _, v := range input.Variants {
		product.Variants = append(product.Variants, models.ProductVariant{
			SKU:      v.SKU,
			Name:     v.Name,
			Price:    v.Price,
			Quantity: v.Quantity,
		})
	}

	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		if dbpkg.IsUniqueViolation(err, "ux_products_store_sku") {
			return nil, pkgerrors.Newf(pkgerrors.CodeConflict, "A product with SKU %q already exists", input.SKU)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return created, nil
}

func (s *service) GetProduct(ctx context.Context, storeID, productID uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindProduct(ctx, storeID, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) ListProducts(ctx context.Context, storeID uuid.UUID, params pagination.Params, filters Filters) (*ProductList, error) {
	list, err := s.repo.ListProducts(ctx, storeID, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return list, nil
}

func (s *service) UpdateProduct(ctx context.Context, storeID, productID uuid.UUID, input UpdateProductInput) (*models.Product, error) {
	if _, err := s.GetProduct(ctx, storeID, productID); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.CategoryID != nil {
		updates["category_id"] = *input.CategoryID
	}
	if input.BrandID != nil {
		updates["brand_id"] = *input.BrandID
	}
	if input.Name != nil {
		updates["name"] = *input.Name
	}
	if input.Slug != nil {
		updates["slug"] = *input.Slug
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
		}
		updates["price"] = *input.Price
	}
	if input.CompareAtPrice != nil {
		updates["compare_at_price"] = *input.CompareAtPrice
	}
	if input.TrackInventory != nil {
		updates["track_inventory"] = *input.TrackInventory
	}
	if input.LowStockThreshold != nil {
		updates["low_stock_threshold"] = *input.LowStockThreshold
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if len(updates) == 0 {
		return s.GetProduct(ctx, storeID, productID)
	}

	if err := s.repo.UpdateProduct(ctx, storeID, productID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	return s.GetProduct(ctx, storeID, productID)
}

func (s *service) DeleteProduct(ctx context.Context, storeID, productID uuid.UUID) error {
	if _, err := s.GetProduct(ctx, storeID, productID); err != nil {
		return err
	}
	if err := s.repo.SoftDeleteProduct(ctx, storeID, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	return nil
}

// AdjustInventory applies a stock delta and appends the inventory log row in
// one transaction. Crossing the low stock threshold emits an outbox event.
func (s *service) AdjustInventory(ctx context.Context, input AdjustInventoryInput) (*models.Product, error) {
	if input.StoreID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id required")
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if input.Delta == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delta must not be zero")
	}
	if !input.Reason.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid inventory adjustment reason")
	}

	var result *models.Product
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		product, err := repo.FindProduct(ctx, input.StoreID, input.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}

		previous := product.Quantity
		variantID := input.VariantID
		if variantID != nil {
			variant, err := repo.FindVariant(ctx, product.ID, *variantID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load variant")
			}
			previous = variant.Quantity
		}

		next := previous + input.Delta
		if next < 0 {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict, "insufficient stock: adjustment would leave %d units", next)
		}

		if variantID != nil {
			if err := repo.UpdateVariantQuantity(ctx, *variantID, next); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update variant quantity")
			}
		} else {
			if err := repo.UpdateProduct(ctx, input.StoreID, product.ID, map[string]any{"quantity": next}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product quantity")
			}
			product.Quantity = next
		}

		entry := &models.InventoryLog{
			StoreID:     input.StoreID,
			ProductID:   product.ID,
			VariantID:   variantID,
			PreviousQty: previous,
			NewQty:      next,
			Reason:      input.Reason,
			Note:        input.Note,
			ActorID:     input.ActorID,
		}
		if err := repo.CreateInventoryLog(ctx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append inventory log")
		}

		s.audit.Record(ctx, tx, audit.Entry{
			StoreID:    &input.StoreID,
			Action:     "inventory.adjusted",
			EntityType: "product",
			EntityID:   product.ID.String(),
			Changes: types.JSONMap{
				"delta":        input.Delta,
				"previous_qty": previous,
				"new_qty":      next,
				"reason":       string(input.Reason),
			},
			ActorID: input.ActorID,
		})

		// low stock alert fires only when the decrement crosses the threshold
		if variantID == nil && product.TrackInventory &&
			previous > product.LowStockThreshold && next <= product.LowStockThreshold {
			event := outbox.DomainEvent{
				EventType:     enums.EventLowStock,
				AggregateType: enums.AggregateProduct,
				AggregateID:   product.ID,
				StoreID:       input.StoreID,
				Version:       1,
				Data: payloads.LowStockEvent{
					ProductID: product.ID,
					StoreID:   input.StoreID,
					SKU:       product.SKU,
					Name:      product.Name,
					Quantity:  next,
					Threshold: product.LowStockThreshold,
				},
			}
			if err := s.outbox.Emit(ctx, tx, event); err != nil {
				return err
			}
		}

		result = product
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) CreateCategory(ctx context.Context, storeID uuid.UUID, name, slug string) (*models.Category, error) {
	if storeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id required")
	}
	if name == "" || slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name and slug required")
	}
	category, err := s.repo.CreateCategory(ctx, &models.Category{StoreID: storeID, Name: name, Slug: slug})
	if err != nil {
		if dbpkg.IsUniqueViolation(err, "ux_categories_store_slug") {
			return nil, pkgerrors.Newf(pkgerrors.CodeConflict, "A category with slug %q already exists", slug)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create category")
	}
	return category, nil
}

func (s *service) ListCategories(ctx context.Context, storeID uuid.UUID) ([]models.Category, error) {
	rows, err := s.repo.ListCategories(ctx, storeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	return rows, nil
}

// DeleteCategory refuses while products still reference the category.
func (s *service) DeleteCategory(ctx context.Context, storeID, categoryID uuid.UUID) error {
	if _, err := s.repo.FindCategory(ctx, storeID, categoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
	}
	count, err := s.repo.CountProductsInCategory(ctx, storeID, categoryID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count category products")
	}
	if count > 0 {
		return pkgerrors.Newf(pkgerrors.CodeConflict, "Cannot delete category: %d products still assigned", count)
	}
	if err := s.repo.SoftDeleteCategory(ctx, storeID, categoryID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete category")
	}
	return nil
}

func (s *service) CreateBrand(ctx context.Context, storeID uuid.UUID, name, slug string) (*models.Brand, error) {
	if storeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id required")
	}
	if name == "" || slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name and slug required")
	}
	brand, err := s.repo.CreateBrand(ctx, &models.Brand{StoreID: storeID, Name: name, Slug: slug})
	if err != nil {
		if dbpkg.IsUniqueViolation(err, "ux_brands_store_slug") {
			return nil, pkgerrors.Newf(pkgerrors.CodeConflict, "A brand with slug %q already exists", slug)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create brand")
	}
	return brand, nil
}

func (s *service) ListBrands(ctx context.Context, storeID uuid.UUID) ([]models.Brand, error) {
	rows, err := s.repo.ListBrands(ctx, storeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list brands")
	}
	return rows, nil
}

// DeleteBrand refuses while products still reference the brand.
func (s *service) DeleteBrand(ctx context.Context, storeID, brandID uuid.UUID) error {
	if _, err := s.repo.FindBrand(ctx, storeID, brandID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "brand not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load brand")
	}
	count, err := s.repo.CountProductsInBrand(ctx, storeID, brandID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count brand products")
	}
	if count > 0 {
		return pkgerrors.Newf(pkgerrors.CodeConflict, "Cannot delete brand: %d products still assigned", count)
	}
	if err := s.repo.SoftDeleteBrand(ctx, storeID, brandID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete brand")
	}
	return nil
}
