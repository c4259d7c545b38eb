package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/shopward/shopward-backend/pkg/db/models"
	"github.com/shopward/shopward-backend/pkg/enums"
)

// UpdateStatusInput carries everything required to move an order through the
// lifecycle table.
type UpdateStatusInput struct {
	OrderID        uuid.UUID
	StoreID        uuid.UUID
	NewStatus      enums.OrderStatus
	TrackingNumber *string
	TrackingURL    *string
	AdminNote      *string
	ActorUserID    uuid.UUID
	ActorRole      string
}

// Filters describe the inputs supported by the order list.
type Filters struct {
	Status         *enums.OrderStatus
	PaymentStatus  *enums.PaymentStatus
	ShippingStatus *enums.ShippingStatus
	DateFrom       *time.Time
	DateTo         *time.Time
	Query          string
}

// OrderList wraps the paginated orders plus the next page cursor.
type OrderList struct {
	Orders     []models.Order `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}
