package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopward/shopward-backend/internal/audit"
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

// Service defines order-level operations beyond repository reads.
type Service interface {
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, error)
	GetOrder(ctx context.Context, storeID, orderID uuid.UUID) (*models.Order, error)
	ListOrders(ctx context.Context, storeID uuid.UUID, params pagination.Params, filters Filters) (*OrderList, error)
	ExportCSV(ctx context.Context, storeID uuid.UUID, filters Filters) ([]byte, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
	audit  auditRecorder
}

// NewService builds an orders service with the required dependencies.
func NewService(repo Repository, tx txRunner, outbox outboxPublisher, auditlog auditRecorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
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

// GenerateOrderNumber formats the next order number for a tenant with the
// given current order count. The count-then-format window is racy under
// concurrent checkout; the unique (store_id, order_number) index is the only
// backstop.
func GenerateOrderNumber(count int64) string {
	return fmt.Sprintf("ORD-%05d", count+1)
}

// statusEvents maps lifecycle transitions to their outbox event types. PAID
// and PAYMENT_FAILED are reconciled by the payments service, which emits its
// own events.
var statusEvents = map[enums.OrderStatus]enums.OutboxEventType{
	enums.OrderStatusProcessing: enums.EventOrderProcessing,
	enums.OrderStatusShipped:    enums.EventOrderShipped,
	enums.OrderStatusDelivered:  enums.EventOrderDelivered,
	enums.OrderStatusCanceled:   enums.EventOrderCanceled,
	enums.OrderStatusRefunded:   enums.EventOrderRefunded,
}

func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.StoreID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id required")
	}
	if !input.NewStatus.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid order status %q", string(input.NewStatus))
	}
	if input.NewStatus == enums.OrderStatusShipped {
		if input.TrackingNumber == nil || strings.TrimSpace(*input.TrackingNumber) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "tracking number is required to mark an order shipped")
		}
	}

	var result *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindOrder(ctx, input.StoreID, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		if !CanTransition(order.Status, input.NewStatus) {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict,
				"invalid status transition: %s -> %s", order.Status, input.NewStatus)
		}

		now := time.Now().UTC()
		updates := map[string]any{"status": input.NewStatus}

		switch input.NewStatus {
		case enums.OrderStatusShipped:
			updates["shipping_status"] = enums.ShippingStatusInTransit
			updates["tracking_number"] = *input.TrackingNumber
			if input.TrackingURL != nil {
				updates["tracking_url"] = *input.TrackingURL
			}
			order.ShippingStatus = enums.ShippingStatusInTransit
			order.TrackingNumber = input.TrackingNumber
			order.TrackingURL = input.TrackingURL
		case enums.OrderStatusDelivered:
			updates["shipping_status"] = enums.ShippingStatusDelivered
			updates["fulfilled_at"] = now
			order.ShippingStatus = enums.ShippingStatusDelivered
			order.FulfilledAt = &now
		case enums.OrderStatusCanceled:
			updates["shipping_status"] = enums.ShippingStatusPending
			updates["canceled_at"] = now
			order.ShippingStatus = enums.ShippingStatusPending
			order.CanceledAt = &now
		case enums.OrderStatusRefunded:
			updates["payment_status"] = enums.PaymentStatusRefunded
			order.PaymentStatus = enums.PaymentStatusRefunded
		}

		if input.AdminNote != nil && strings.TrimSpace(*input.AdminNote) != "" {
			// notes are append-only; the full history lives in one field
			note := fmt.Sprintf("[%s] %s", now.Format(time.RFC3339), strings.TrimSpace(*input.AdminNote))
			if order.AdminNotes != "" {
				note = order.AdminNotes + "\n" + note
			}
			updates["admin_notes"] = note
			order.AdminNotes = note
		}

		if err := repo.UpdateOrder(ctx, input.StoreID, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		previous := order.Status
		order.Status = input.NewStatus

		s.audit.Record(ctx, tx, audit.Entry{
			StoreID:    &order.StoreID,
			Action:     "order.status_updated",
			EntityType: "order",
			EntityID:   order.ID.String(),
			Changes: types.JSONMap{
				"from_status": string(previous),
				"to_status":   string(input.NewStatus),
			},
			ActorID: actorIDPtr(input.ActorUserID),
		})

		if eventType, ok := statusEvents[input.NewStatus]; ok {
			event := outbox.DomainEvent{
				EventType:     eventType,
				AggregateType: enums.AggregateOrder,
				AggregateID:   order.ID,
				StoreID:       order.StoreID,
				Version:       1,
				Actor:         buildActor(input.ActorUserID, order.StoreID, input.ActorRole),
				Data: payloads.OrderStatusChangedEvent{
					OrderID:        order.ID,
					StoreID:        order.StoreID,
					OrderNumber:    order.OrderNumber,
					CustomerEmail:  order.CustomerEmail,
					FromStatus:     string(previous),
					ToStatus:       string(input.NewStatus),
					TrackingNumber: derefString(order.TrackingNumber),
					TrackingURL:    derefString(order.TrackingURL),
				},
			}
			if err := s.outbox.Emit(ctx, tx, event); err != nil {
				return err
			}
		}

		result = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) GetOrder(ctx context.Context, storeID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindOrder(ctx, storeID, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) ListOrders(ctx context.Context, storeID uuid.UUID, params pagination.Params, filters Filters) (*OrderList, error) {
	list, err := s.repo.ListOrders(ctx, storeID, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}

func (s *service) ExportCSV(ctx context.Context, storeID uuid.UUID, filters Filters) ([]byte, error) {
	rows, err := s.repo.ListOrdersForExport(ctx, storeID, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load orders for export")
	}
	return writeOrdersCSV(rows)
}

func buildActor(userID, storeID uuid.UUID, role string) *outbox.ActorRef {
	store := storeID
	return &outbox.ActorRef{
		UserID:  userID,
		StoreID: &store,
		Role:    role,
	}
}

func actorIDPtr(userID uuid.UUID) *uuid.UUID {
	if userID == uuid.Nil {
		return nil
	}
	return &userID
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
