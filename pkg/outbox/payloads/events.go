package payloads

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderCreatedEvent is emitted when checkout succeeds.
type OrderCreatedEvent struct {
	OrderID       uuid.UUID       `json:"orderId"`
	StoreID       uuid.UUID       `json:"storeId"`
	OrderNumber   string          `json:"orderNumber"`
	CustomerName  string          `json:"customerName"`
	CustomerEmail string          `json:"customerEmail"`
	Total         decimal.Decimal `json:"total"`
	Currency      string          `json:"currency"`
	ItemCount     int             `json:"itemCount"`
}

// OrderStatusChangedEvent is emitted on every successful status transition.
type OrderStatusChangedEvent struct {
	OrderID        uuid.UUID `json:"orderId"`
	StoreID        uuid.UUID `json:"storeId"`
	OrderNumber    string    `json:"orderNumber"`
	CustomerEmail  string    `json:"customerEmail"`
	FromStatus     string    `json:"fromStatus"`
	ToStatus       string    `json:"toStatus"`
	TrackingNumber string    `json:"trackingNumber,omitempty"`
	TrackingURL    string    `json:"trackingUrl,omitempty"`
}

// PaymentSucceededEvent is emitted when the gateway confirms a payment.
type PaymentSucceededEvent struct {
	OrderID     uuid.UUID       `json:"orderId"`
	StoreID     uuid.UUID       `json:"storeId"`
	PaymentID   uuid.UUID       `json:"paymentId"`
	IntentID    string          `json:"intentId"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	OrderNumber string          `json:"orderNumber"`
}

// PaymentFailedEvent is emitted when the gateway reports a failed charge.
type PaymentFailedEvent struct {
	OrderID       uuid.UUID `json:"orderId"`
	StoreID       uuid.UUID `json:"storeId"`
	PaymentID     uuid.UUID `json:"paymentId"`
	IntentID      string    `json:"intentId"`
	OrderNumber   string    `json:"orderNumber"`
	FailureReason string    `json:"failureReason,omitempty"`
}

// LowStockEvent is emitted when an inventory decrement crosses the product's
// low stock threshold.
type LowStockEvent struct {
	ProductID uuid.UUID `json:"productId"`
	StoreID   uuid.UUID `json:"storeId"`
	SKU       string    `json:"sku"`
	Name      string    `json:"name"`
	Quantity  int       `json:"quantity"`
	Threshold int       `json:"threshold"`
}
