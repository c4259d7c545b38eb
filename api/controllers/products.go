package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopward/shopward-backend/api/responses"
	"github.com/shopward/shopward-backend/api/validators"
	"github.com/shopward/shopward-backend/internal/products"
	"github.com/shopward/shopward-backend/pkg/enums"
	pkgerrors "github.com/shopward/shopward-backend/pkg/errors"
	"github.com/shopward/shopward-backend/pkg/logger"
	"github.com/shopward/shopward-backend/pkg/pagination"
)

type createProductRequest struct {
	CategoryID        *uuid.UUID            `json:"category_id,omitempty"`
	BrandID           *uuid.UUID            `json:"brand_id,omitempty"`
	SKU               string                `json:"sku" validate:"required,max=64"`
	Name              string                `json:"name" validate:"required,max=255"`
	Slug              string                `json:"slug" validate:"omitempty,max=255"`
	Description       *string               `json:"description,omitempty"`
	Price             decimal.Decimal       `json:"price" validate:"required"`
	CompareAtPrice    *decimal.Decimal      `json:"compare_at_price,omitempty"`
	TrackInventory    *bool                 `json:"track_inventory,omitempty"`
	Quantity          int                   `json:"quantity" validate:"min=0"`
	LowStockThreshold *int                  `json:"low_stock_threshold,omitempty"`
	Variants          []productVariantInput `json:"variants,omitempty" validate:"dive"`
}

type productVariantInput struct {
	SKU      string           `json:"sku" validate:"required,max=64"`
	Name     string           `json:"name" validate:"required,max=255"`
	Price    *decimal.Decimal `json:"price,omitempty"`
	Quantity int              `json:"quantity" validate:"min=0"`
}

type updateProductRequest struct {
	CategoryID        *uuid.UUID       `json:"category_id,omitempty"`
	BrandID           *uuid.UUID       `json:"brand_id,omitempty"`
	Name              *string          `json:"name,omitempty" validate:"omitempty,max=255"`
	Slug              *string          `json:"slug,omitempty" validate:"omitempty,max=255"`
	Description       *string          `json:"description,omitempty"`
	Price             *decimal.Decimal `json:"price,omitempty"`
	CompareAtPrice    *decimal.Decimal `json:"compare_at_price,omitempty"`
	TrackInventory    *bool            `json:"track_inventory,omitempty"`
	LowStockThreshold *int             `json:"low_stock_threshold,omitempty"`
	IsActive          *bool            `json:"is_active,omitempty"`
}

type adjustInventoryRequest struct {
	VariantID *uuid.UUID `json:"variant_id,omitempty"`
	Delta     int        `json:"delta" validate:"required"`
	Reason    string     `json:"reason" validate:"required"`
	Note      *string    `json:"note,omitempty"`
}

type taxonomyRequest struct {
	Name string `json:"name" validate:"required,max=255"`
	Slug string `json:"slug" validate:"omitempty,max=255"`
}

func CreateProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := parseStoreID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createProductRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := products.CreateProductInput{
			StoreID:           storeID,
			CategoryID:        body.CategoryID,
			BrandID:           body.BrandID,
			SKU:               validators.SanitizeString(body.SKU, 64),
			Name:              validators.SanitizeString(body.Name, 255),
			Slug:              validators.SanitizeString(body.Slug, 255),
			Description:       body.Description,
			Price:             body.Price,
			CompareAtPrice:    body.CompareAtPrice,
			TrackInventory:    body.TrackInventory,
			Quantity:          body.Quantity,
			LowStockThreshold: body.LowStockThreshold,
		}
		for _, v := range body.Variants {
			input.Variants = append(input.Variants, products.VariantInput{
				SKU:      validators.SanitizeString(v.SKU, 64),
				Name:     validators.SanitizeString(v.Name, 255),
				Price:    v.Price,
				Quantity: v.Quantity,
			})
		}

		product, err := svc.CreateProduct(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

func GetProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := parseStoreID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := parseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.GetProduct(r.Context(), storeID, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func ListProducts(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := parseStoreID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		filters := products.Filters{Query: strings.TrimSpace(r.URL.Query().Get("q"))}
		if filters.CategoryID, err = validators.ParseQueryUUID(r, "category_id"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filters.BrandID, err = validators.ParseQueryUUID(r, "brand_id"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("is_active")); raw != "" {
			active, parseErr := validators.ParseQueryBool(r, "is_active", false)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, parseErr)
				return
			}
			filters.IsActive = &active
		}

		list, err := svc.ListProducts(r.Context(), storeID, params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func UpdateProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := parseStoreID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := parseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateProductRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.UpdateProduct(r.Context(), storeID, productID, products.UpdateProductInput{
			CategoryID:        body.CategoryID,
			BrandID:           body.BrandID,
			Name:              body.Name,
			Slug:              body.Slug,
			Description:       body.Description,
			Price:             body.Price,
			CompareAtPrice:    body.CompareAtPrice,
			TrackInventory:    body.TrackInventory,
			LowStockThreshold: body.LowStockThreshold,
			IsActive:          body.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func DeleteProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := parseStoreID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := parseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteProduct(r.Context(), storeID, productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, nil)
	}
}

func AdjustInventory(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := parseStoreID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actorID, err := parseActorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := parseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body adjustInventoryRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		reason, err := enums.ParseInventoryLogReason(body.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid reason"))
			return
		}

		product, err := svc.AdjustInventory(r.Context(), products.AdjustInventoryInput{
			StoreID:   storeID,
			ProductID: productID,
			VariantID: body.VariantID,
			Delta:     body.Delta,
			Reason:    reason,
			Note:      body.Note,
			ActorID:   &actorID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func CreateCategory(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := parseStoreID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body taxonomyRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		category, err := svc.CreateCategory(r.Context(), storeID, validators.SanitizeString(body.Name, 255), validators.SanitizeString(body.Slug, 255))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, category)
	}
}

func ListCategories(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := parseStoreID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		categories, err := svc.ListCategories(r.Context(), storeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, categories)
	}
}

func DeleteCategory(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := parseStoreID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		categoryID, err := parseUUIDParam(r, "categoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteCategory(r.Context(), storeID, categoryID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, nil)
	}
}

func CreateBrand(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := parseStoreID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body taxonomyRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		brand, err := svc.CreateBrand(r.Context(), storeID, validators.SanitizeString(body.Name, 255), validators.SanitizeString(body.Slug, 255))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, brand)
	}
}

func ListBrands(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := parseStoreID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		brands, err := svc.ListBrands(r.Context(), storeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, brands)
	}
}

func DeleteBrand(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := parseStoreID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		brandID, err := parseUUIDParam(r, "brandId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteBrand(r.Context(), storeID, brandID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, nil)
	}
}
