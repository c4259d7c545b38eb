package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopward/shopward-backend/pkg/db/models"
	"github.com/shopward/shopward-backend/pkg/pagination"
)

// Repository defines persistence operations for the orders tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateOrderItems(ctx context.Context, items []models.OrderItem) error
	FindOrder(ctx context.Context, storeID, orderID uuid.UUID) (*models.Order, error)
	ListOrders(ctx context.Context, storeID uuid.UUID, params pagination.Params, filters Filters) (*OrderList, error)
	ListOrdersForExport(ctx context.Context, storeID uuid.UUID, filters Filters) ([]models.Order, error)
	CountOrders(ctx context.Context, storeID uuid.UUID) (int64, error)
	UpdateOrder(ctx context.Context, storeID, orderID uuid.UUID, updates map[string]any) error
}
