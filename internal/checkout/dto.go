package checkout

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopward/shopward-backend/pkg/db/models"
	"github.com/shopward/shopward-backend/pkg/types"
)

// CartItemInput is one requested line before validation.
type CartItemInput struct {
	ProductID uuid.UUID  `json:"product_id"`
	VariantID *uuid.UUID `json:"variant_id,omitempty"`
	Quantity  int        `json:"quantity"`
}

// ValidatedItem is a cart line with resolved price and stock.
type ValidatedItem struct {
	ProductID uuid.UUID       `json:"product_id"`
	VariantID *uuid.UUID      `json:"variant_id,omitempty"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// CartValidation is the full result of validating a cart: all lines are
// checked and all errors collected before returning.
type CartValidation struct {
	IsValid  bool            `json:"is_valid"`
	Errors   []string        `json:"errors,omitempty"`
	Items    []ValidatedItem `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// CheckoutInput captures everything needed to convert a cart into an order.
type CheckoutInput struct {
	StoreID         uuid.UUID
	CustomerID      *uuid.UUID
	CustomerName    string
	CustomerEmail   string
	Items           []CartItemInput
	ShippingAddress types.Address
	BillingAddress  *types.Address
	Discount        decimal.Decimal
	Currency        string
	ActorUserID     uuid.UUID
	ActorRole       string
}

// CheckoutResult returns the created order plus the gateway client secret the
// storefront uses to confirm payment.
type CheckoutResult struct {
	Order        *models.Order `json:"order"`
	ClientSecret string        `json:"client_secret,omitempty"`
}
