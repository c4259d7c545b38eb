package notifications

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopward/shopward-backend/pkg/db/models"
	"github.com/shopward/shopward-backend/pkg/enums"
	"github.com/shopward/shopward-backend/pkg/logger"
	"github.com/shopward/shopward-backend/pkg/mailer"
	"github.com/shopward/shopward-backend/pkg/outbox"
	"github.com/shopward/shopward-backend/pkg/outbox/idempotency"
	"github.com/shopward/shopward-backend/pkg/outbox/payloads"
)

type recordingNotificationRepo struct {
	created []*models.Notification
	err     error
}

func (r *recordingNotificationRepo) Create(_ context.Context, notification *models.Notification) error {
	if r.err != nil {
		return r.err
	}
	r.created = append(r.created, notification)
	return nil
}

type recordingMailer struct {
	sent []mailer.Message
	err  error
}

func (r *recordingMailer) Send(_ context.Context, msg mailer.Message) error {
	r.sent = append(r.sent, msg)
	return r.err
}

type memoryIdempotencyStore struct {
	keys map[string]bool
}

func (s *memoryIdempotencyStore) Get(context.Context, string) (string, error) {
	return "", nil
}

func (s *memoryIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "sw:idempotency:" + scope + ":" + id
}

func (s *memoryIdempotencyStore) SetNX(_ context.Context, key string, _ any, _ time.Duration) (bool, error) {
	if s.keys == nil {
		s.keys = make(map[string]bool)
	}
	if s.keys[key] {
		return false, nil
	}
	s.keys[key] = true
	return true, nil
}

func (s *memoryIdempotencyStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.keys, key)
	}
	return nil
}

func newTestDispatcher(t *testing.T, repo *recordingNotificationRepo, mail mailer.Sender) *Dispatcher {
	t.Helper()
	manager, err := idempotency.NewManager(&memoryIdempotencyStore{}, time.Hour)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	logg := logger.New(logger.Options{ServiceName: "test"})
	dispatcher, err := NewDispatcher(repo, &pubsub.Subscriber{}, manager, mail, logg)
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}
	return dispatcher
}

func eventMessage(t *testing.T, eventType enums.OutboxEventType, payload any) *pubsub.Message {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	envelope := outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       raw,
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return &pubsub.Message{
		ID:         uuid.NewString(),
		Attributes: map[string]string{"event_type": string(eventType)},
		Data:       data,
	}
}

func TestDispatcherOrderCreated(t *testing.T) {
	repo := &recordingNotificationRepo{}
	mail := &recordingMailer{}
	dispatcher := newTestDispatcher(t, repo, mail)

	storeID := uuid.New()
	msg := eventMessage(t, enums.EventOrderCreated, payloads.OrderCreatedEvent{
		OrderID:       uuid.New(),
		StoreID:       storeID,
		OrderNumber:   "ORD-00042",
		CustomerName:  "Jane Doe",
		CustomerEmail: "jane@example.com",
		Total:         decimal.RequireFromString("48.89"),
		Currency:      "USD",
		ItemCount:     2,
	})

	result := dispatcher.process(context.Background(), msg)
	if !result.ack || result.nack {
		t.Fatalf("expected ack, got %+v", result)
	}

	if len(repo.created) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(repo.created))
	}
	notification := repo.created[0]
	if notification.Type != enums.NotificationOrderCreated || notification.StoreID != storeID {
		t.Fatalf("notification = %+v", notification)
	}
	if notification.Data["order_number"] != "ORD-00042" {
		t.Fatalf("notification data = %v", notification.Data)
	}

	if len(mail.sent) != 1 || mail.sent[0].ToEmail != "jane@example.com" {
		t.Fatalf("mail = %+v", mail.sent)
	}
}

func TestDispatcherProcessingSendsConfirmation(t *testing.T) {
	repo := &recordingNotificationRepo{}
	mail := &recordingMailer{}
	dispatcher := newTestDispatcher(t, repo, mail)

	storeID := uuid.New()
	msg := eventMessage(t, enums.EventOrderProcessing, payloads.OrderStatusChangedEvent{
		OrderID:       uuid.New(),
		StoreID:       storeID,
		OrderNumber:   "ORD-00015",
		CustomerEmail: "jane@example.com",
		FromStatus:    "PENDING",
		ToStatus:      "PROCESSING",
	})

	result := dispatcher.process(context.Background(), msg)
	if !result.ack || result.nack {
		t.Fatalf("expected ack, got %+v", result)
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(repo.created))
	}
	notification := repo.created[0]
	if notification.Type != enums.NotificationOrderConfirmed || notification.StoreID != storeID {
		t.Fatalf("notification = %+v", notification)
	}
	if len(mail.sent) != 1 || mail.sent[0].ToEmail != "jane@example.com" {
		t.Fatalf("mail = %+v", mail.sent)
	}
	if !strings.Contains(mail.sent[0].PlainText, "ORD-00015") || !strings.Contains(mail.sent[0].PlainText, "confirmed") {
		t.Fatalf("email body = %q", mail.sent[0].PlainText)
	}
}

func TestDispatcherShippedIncludesTracking(t *testing.T) {
	repo := &recordingNotificationRepo{}
	mail := &recordingMailer{}
	dispatcher := newTestDispatcher(t, repo, mail)

	msg := eventMessage(t, enums.EventOrderShipped, payloads.OrderStatusChangedEvent{
		OrderID:        uuid.New(),
		StoreID:        uuid.New(),
		OrderNumber:    "ORD-00007",
		CustomerEmail:  "jane@example.com",
		FromStatus:     "PROCESSING",
		ToStatus:       "SHIPPED",
		TrackingNumber: "1Z999",
	})

	result := dispatcher.process(context.Background(), msg)
	if !result.ack {
		t.Fatalf("expected ack, got %+v", result)
	}
	if len(repo.created) != 1 || repo.created[0].Type != enums.NotificationOrderShipped {
		t.Fatalf("notifications = %+v", repo.created)
	}
	if len(mail.sent) != 1 {
		t.Fatalf("mail = %+v", mail.sent)
	}
	body := mail.sent[0].PlainText
	if !strings.Contains(body, "ORD-00007") || !strings.Contains(body, "1Z999") {
		t.Fatalf("email body = %q", body)
	}
}

func TestDispatcherReplayAcksWithoutDuplicates(t *testing.T) {
	repo := &recordingNotificationRepo{}
	dispatcher := newTestDispatcher(t, repo, nil)

	msg := eventMessage(t, enums.EventLowStock, payloads.LowStockEvent{
		ProductID: uuid.New(),
		StoreID:   uuid.New(),
		SKU:       "MUG-1",
		Name:      "Blue Mug",
		Quantity:  3,
		Threshold: 5,
	})

	first := dispatcher.process(context.Background(), msg)
	second := dispatcher.process(context.Background(), msg)
	if !first.ack || !second.ack {
		t.Fatalf("expected both deliveries acked: %+v %+v", first, second)
	}
	if len(repo.created) != 1 {
		t.Fatalf("replay must not duplicate notifications, got %d", len(repo.created))
	}
}

func TestDispatcherUnknownEventAcked(t *testing.T) {
	repo := &recordingNotificationRepo{}
	dispatcher := newTestDispatcher(t, repo, nil)

	msg := &pubsub.Message{
		ID:         uuid.NewString(),
		Attributes: map[string]string{"event_type": "something.else"},
		Data:       []byte("{}"),
	}
	result := dispatcher.process(context.Background(), msg)
	if !result.ack {
		t.Fatalf("unknown events must be acked: %+v", result)
	}
	if len(repo.created) != 0 {
		t.Fatal("no notification expected")
	}
}

func TestDispatcherRepoFailureNacksAndUnmarks(t *testing.T) {
	repo := &recordingNotificationRepo{err: context.DeadlineExceeded}
	dispatcher := newTestDispatcher(t, repo, nil)

	msg := eventMessage(t, enums.EventPaymentFailed, payloads.PaymentFailedEvent{
		OrderID:       uuid.New(),
		StoreID:       uuid.New(),
		PaymentID:     uuid.New(),
		OrderNumber:   "ORD-00009",
		FailureReason: "card declined",
	})

	result := dispatcher.process(context.Background(), msg)
	if !result.nack {
		t.Fatalf("expected nack, got %+v", result)
	}

	repo.err = nil
	retry := dispatcher.process(context.Background(), msg)
	if !retry.ack {
		t.Fatalf("retry should succeed: %+v", retry)
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected notification on retry, got %d", len(repo.created))
	}
}

func TestDispatcherEmailFailureDoesNotNack(t *testing.T) {
	repo := &recordingNotificationRepo{}
	mail := &recordingMailer{err: context.DeadlineExceeded}
	dispatcher := newTestDispatcher(t, repo, mail)

	msg := eventMessage(t, enums.EventOrderDelivered, payloads.OrderStatusChangedEvent{
		OrderID:       uuid.New(),
		StoreID:       uuid.New(),
		OrderNumber:   "ORD-00011",
		CustomerEmail: "jane@example.com",
		FromStatus:    "SHIPPED",
		ToStatus:      "DELIVERED",
	})

	result := dispatcher.process(context.Background(), msg)
	if !result.ack || result.nack {
		t.Fatalf("email failure must not nack: %+v", result)
	}
	if len(repo.created) != 1 {
		t.Fatalf("notification should still be created, got %d", len(repo.created))
	}
}
