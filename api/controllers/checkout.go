package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/shopward/shopward-backend/api/middleware"
	"github.com/shopward/shopward-backend/api/responses"
	"github.com/shopward/shopward-backend/api/validators"
	"github.com/shopward/shopward-backend/internal/checkout"
	pkgerrors "github.com/shopward/shopward-backend/pkg/errors"
	"github.com/shopward/shopward-backend/pkg/logger"
	"github.com/shopward/shopward-backend/pkg/types"
)

type validateCartRequest struct {
	Items []checkout.CartItemInput `json:"items" validate:"required,min=1,dive"`
}

type checkoutRequest struct {
	CustomerName    string                   `json:"customer_name" validate:"required,max=255"`
	CustomerEmail   string                   `json:"customer_email" validate:"required,email"`
	Items           []checkout.CartItemInput `json:"items" validate:"required,min=1,dive"`
	ShippingAddress types.Address            `json:"shipping_address" validate:"required"`
	BillingAddress  *types.Address           `json:"billing_address,omitempty"`
	Discount        *decimal.Decimal         `json:"discount,omitempty"`
	Currency        string                   `json:"currency,omitempty" validate:"omitempty,len=3"`
}

type estimateRequest struct {
	Subtotal        decimal.Decimal `json:"subtotal" validate:"required"`
	ShippingAddress types.Address   `json:"shipping_address" validate:"required"`
}

type estimateResponse struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
}

// ValidateCart checks price and stock for every line without mutating anything.
func ValidateCart(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := parseStoreID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body validateCartRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ValidateCart(r.Context(), storeID, body.Items)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// Checkout converts a validated cart into an order and a payment intent.
func Checkout(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
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

		var body checkoutRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := checkout.CheckoutInput{
			StoreID:         storeID,
			CustomerName:    validators.SanitizeString(body.CustomerName, 255),
			CustomerEmail:   validators.SanitizeString(body.CustomerEmail, 255),
			Items:           body.Items,
			ShippingAddress: body.ShippingAddress,
			BillingAddress:  body.BillingAddress,
			Currency:        body.Currency,
			ActorUserID:     actorID,
			ActorRole:       middleware.RoleFromContext(r.Context()),
		}
		if body.Discount != nil {
			input.Discount = *body.Discount
		}

		result, err := svc.Checkout(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// CheckoutEstimate quotes tax and shipping for a subtotal and destination
// without touching inventory.
func CheckoutEstimate(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body estimateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if body.Subtotal.IsNegative() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "subtotal must not be negative"))
			return
		}

		tax := checkout.CalculateTax(body.ShippingAddress, body.Subtotal)
		shipping := checkout.EstimateShipping(body.ShippingAddress, body.Subtotal)

		responses.WriteSuccess(w, estimateResponse{
			Subtotal: body.Subtotal,
			Tax:      tax,
			Shipping: shipping,
			Total:    body.Subtotal.Add(tax).Add(shipping),
		})
	}
}
