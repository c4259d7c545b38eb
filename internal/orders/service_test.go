package orders

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopward/shopward-backend/internal/audit"
	"github.com/shopward/shopward-backend/pkg/db/models"
	"github.com/shopward/shopward-backend/pkg/enums"
	pkgerrors "github.com/shopward/shopward-backend/pkg/errors"
	"github.com/shopward/shopward-backend/pkg/outbox"
	"github.com/shopward/shopward-backend/pkg/pagination"
)

type stubOrdersRepo struct {
	order        *models.Order
	orderUpdates map[string]any
	exportRows   []models.Order
}

func (s *stubOrdersRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubOrdersRepo) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	return order, nil
}

func (s *stubOrdersRepo) CreateOrderItems(ctx context.Context, items []models.OrderItem) error {
	return nil
}

func (s *stubOrdersRepo) FindOrder(ctx context.Context, storeID, orderID uuid.UUID) (*models.Order, error) {
	if s.order == nil || s.order.StoreID != storeID || s.order.ID != orderID {
		return nil, gorm.ErrRecordNotFound
	}
	return s.order, nil
}

func (s *stubOrdersRepo) ListOrders(ctx context.Context, storeID uuid.UUID, params pagination.Params, filters Filters) (*OrderList, error) {
	return &OrderList{}, nil
}

func (s *stubOrdersRepo) ListOrdersForExport(ctx context.Context, storeID uuid.UUID, filters Filters) ([]models.Order, error) {
	return s.exportRows, nil
}

func (s *stubOrdersRepo) CountOrders(ctx context.Context, storeID uuid.UUID) (int64, error) {
	return 0, nil
}

func (s *stubOrdersRepo) UpdateOrder(ctx context.Context, storeID, orderID uuid.UUID, updates map[string]any) error {
	s.orderUpdates = updates
	return nil
}

type stubOutboxPublisher struct {
	event  outbox.DomainEvent
	called bool
	err    error
}

func (s *stubOutboxPublisher) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	if s.err != nil {
		return s.err
	}
	s.called = true
	s.event = event
	return nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubAuditRecorder struct {
	entries []audit.Entry
}

func (s *stubAuditRecorder) Record(_ context.Context, _ *gorm.DB, entry audit.Entry) {
	s.entries = append(s.entries, entry)
}

func newOrder(storeID uuid.UUID, status enums.OrderStatus) *models.Order {
	return &models.Order{
		ID:             uuid.New(),
		StoreID:        storeID,
		OrderNumber:    "ORD-00001",
		CustomerName:   "Jane Smith",
		CustomerEmail:  "jane@example.com",
		Status:         status,
		PaymentStatus:  enums.PaymentStatusPaid,
		ShippingStatus: enums.ShippingStatusPending,
	}
}

func TestUpdateStatusShipped(t *testing.T) {
	storeID := uuid.New()
	repo := &stubOrdersRepo{order: newOrder(storeID, enums.OrderStatusProcessing)}
	pub := &stubOutboxPublisher{}
	auditlog := &stubAuditRecorder{}
	svc, err := NewService(repo, stubTxRunner{}, pub, auditlog)
	if err != nil {
		t.Fatalf("service constructor failed: %v", err)
	}

	actorID := uuid.New()
	tracking := "1Z999AA10123456784"
	order, err := svc.UpdateStatus(context.Background(), UpdateStatusInput{
		OrderID:        repo.order.ID,
		StoreID:        storeID,
		NewStatus:      enums.OrderStatusShipped,
		TrackingNumber: &tracking,
		ActorUserID:    actorID,
		ActorRole:      "owner",
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if order.Status != enums.OrderStatusShipped {
		t.Fatalf("expected SHIPPED got %s", order.Status)
	}
	if order.ShippingStatus != enums.ShippingStatusInTransit {
		t.Fatalf("expected IN_TRANSIT got %s", order.ShippingStatus)
	}
	if repo.orderUpdates["tracking_number"] != tracking {
		t.Fatalf("tracking number not persisted: %v", repo.orderUpdates)
	}
	if !pub.called || pub.event.EventType != enums.EventOrderShipped {
		t.Fatalf("expected order.shipped event, got %+v", pub.event)
	}
	if len(auditlog.entries) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(auditlog.entries))
	}
	entry := auditlog.entries[0]
	if entry.Action != "order.status_updated" || entry.EntityType != "order" || entry.EntityID != order.ID.String() {
		t.Fatalf("audit entry = %+v", entry)
	}
	if entry.Changes["from_status"] != "PROCESSING" || entry.Changes["to_status"] != "SHIPPED" {
		t.Fatalf("audit changes = %v", entry.Changes)
	}
	if entry.ActorID == nil || *entry.ActorID != actorID {
		t.Fatalf("audit actor = %v, want %s", entry.ActorID, actorID)
	}
}

func TestUpdateStatusShippedRequiresTracking(t *testing.T) {
	storeID := uuid.New()
	repo := &stubOrdersRepo{order: newOrder(storeID, enums.OrderStatusProcessing)}
	svc, _ := NewService(repo, stubTxRunner{}, &stubOutboxPublisher{}, &stubAuditRecorder{})

	_, err := svc.UpdateStatus(context.Background(), UpdateStatusInput{
		OrderID:   repo.order.ID,
		StoreID:   storeID,
		NewStatus: enums.OrderStatusShipped,
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error got %v", err)
	}
	if repo.orderUpdates != nil {
		t.Fatal("no write may happen when tracking number is missing")
	}
}

func TestUpdateStatusRejectsIllegalTransition(t *testing.T) {
	storeID := uuid.New()
	repo := &stubOrdersRepo{order: newOrder(storeID, enums.OrderStatusPending)}
	svc, _ := NewService(repo, stubTxRunner{}, &stubOutboxPublisher{}, &stubAuditRecorder{})

	_, err := svc.UpdateStatus(context.Background(), UpdateStatusInput{
		OrderID:   repo.order.ID,
		StoreID:   storeID,
		NewStatus: enums.OrderStatusDelivered,
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict got %v", err)
	}
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Message() != "invalid status transition: PENDING -> DELIVERED" {
		t.Fatalf("unexpected message %v", err)
	}
	if repo.orderUpdates != nil {
		t.Fatal("illegal transition must not persist state")
	}
}

func TestUpdateStatusDeliveredStampsFulfilledAt(t *testing.T) {
	storeID := uuid.New()
	repo := &stubOrdersRepo{order: newOrder(storeID, enums.OrderStatusShipped)}
	svc, _ := NewService(repo, stubTxRunner{}, &stubOutboxPublisher{}, &stubAuditRecorder{})

	order, err := svc.UpdateStatus(context.Background(), UpdateStatusInput{
		OrderID:   repo.order.ID,
		StoreID:   storeID,
		NewStatus: enums.OrderStatusDelivered,
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if order.FulfilledAt == nil {
		t.Fatal("expected fulfilled_at stamp")
	}
	if order.ShippingStatus != enums.ShippingStatusDelivered {
		t.Fatalf("expected shipping DELIVERED got %s", order.ShippingStatus)
	}
}

func TestUpdateStatusCanceledResetsShipping(t *testing.T) {
	storeID := uuid.New()
	order := newOrder(storeID, enums.OrderStatusPaid)
	order.ShippingStatus = enums.ShippingStatusInTransit
	repo := &stubOrdersRepo{order: order}
	svc, _ := NewService(repo, stubTxRunner{}, &stubOutboxPublisher{}, &stubAuditRecorder{})

	updated, err := svc.UpdateStatus(context.Background(), UpdateStatusInput{
		OrderID:   order.ID,
		StoreID:   storeID,
		NewStatus: enums.OrderStatusCanceled,
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if updated.CanceledAt == nil {
		t.Fatal("expected canceled_at stamp")
	}
	if updated.ShippingStatus != enums.ShippingStatusPending {
		t.Fatalf("expected shipping reset to PENDING got %s", updated.ShippingStatus)
	}
}

func TestUpdateStatusAppendsAdminNote(t *testing.T) {
	storeID := uuid.New()
	order := newOrder(storeID, enums.OrderStatusPaid)
	order.AdminNotes = "[2025-01-02T10:00:00Z] first note"
	repo := &stubOrdersRepo{order: order}
	svc, _ := NewService(repo, stubTxRunner{}, &stubOutboxPublisher{}, &stubAuditRecorder{})

	note := "moved to fulfillment"
	updated, err := svc.UpdateStatus(context.Background(), UpdateStatusInput{
		OrderID:   order.ID,
		StoreID:   storeID,
		NewStatus: enums.OrderStatusProcessing,
		AdminNote: &note,
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if !strings.HasPrefix(updated.AdminNotes, "[2025-01-02T10:00:00Z] first note\n[") {
		t.Fatalf("expected appended note history, got %q", updated.AdminNotes)
	}
	if !strings.HasSuffix(updated.AdminNotes, "] moved to fulfillment") {
		t.Fatalf("expected new note with timestamp prefix, got %q", updated.AdminNotes)
	}
}

func TestUpdateStatusTenantMismatchIsNotFound(t *testing.T) {
	repo := &stubOrdersRepo{order: newOrder(uuid.New(), enums.OrderStatusPaid)}
	svc, _ := NewService(repo, stubTxRunner{}, &stubOutboxPublisher{}, &stubAuditRecorder{})

	_, err := svc.UpdateStatus(context.Background(), UpdateStatusInput{
		OrderID:   repo.order.ID,
		StoreID:   uuid.New(),
		NewStatus: enums.OrderStatusProcessing,
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found got %v", err)
	}
}

func TestGenerateOrderNumber(t *testing.T) {
	cases := []struct {
		count int64
		want  string
	}{
		{0, "ORD-00001"},
		{41, "ORD-00042"},
		{9999, "ORD-10000"},
	}
	for _, tc := range cases {
		if got := GenerateOrderNumber(tc.count); got != tc.want {
			t.Errorf("GenerateOrderNumber(%d) = %q, want %q", tc.count, got, tc.want)
		}
	}
}
