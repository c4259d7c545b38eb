package payments

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RefundInput captures an admin-initiated refund. Amount nil means a full
// refund of the captured payment.
type RefundInput struct {
	StoreID     uuid.UUID
	OrderID     uuid.UUID
	Amount      *decimal.Decimal
	Reason      string
	ActorUserID uuid.UUID
	ActorRole   string
}

// RefundResult reports the refunded payment and amount.
type RefundResult struct {
	PaymentID uuid.UUID       `json:"payment_id"`
	OrderID   uuid.UUID       `json:"order_id"`
	Amount    decimal.Decimal `json:"amount"`
	Full      bool            `json:"full"`
}
