package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/shopward/shopward-backend/pkg/db/models"
	"github.com/shopward/shopward-backend/pkg/enums"
	"github.com/shopward/shopward-backend/pkg/logger"
	"github.com/shopward/shopward-backend/pkg/mailer"
	"github.com/shopward/shopward-backend/pkg/outbox"
	"github.com/shopward/shopward-backend/pkg/outbox/idempotency"
	"github.com/shopward/shopward-backend/pkg/outbox/payloads"
	"github.com/shopward/shopward-backend/pkg/types"
)

const orderNotificationConsumer = "order-notifications"

type dispatcherRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
}

// Dispatcher watches published order and payment events and fans them out as
// in-app notifications plus best-effort customer email.
type Dispatcher struct {
	repo         dispatcherRepository
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	mail         mailer.Sender
	logg         *logger.Logger
}

// NewDispatcher builds the order notification dispatcher. The mail sender is
// optional; without one only in-app notifications are created.
func NewDispatcher(repo dispatcherRepository, subscription *pubsub.Subscriber, manager *idempotency.Manager, mail mailer.Sender, logg *logger.Logger) (*Dispatcher, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("orders subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Dispatcher{
		repo:         repo,
		subscription: subscription,
		idempotency:  manager,
		mail:         mail,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (d *Dispatcher) Run(ctx context.Context) error {
	return d.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := d.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (d *Dispatcher) process(ctx context.Context, msg *pubsub.Message) processResult {
	rawType := msg.Attributes["event_type"]
	logCtx := d.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": rawType,
	})

	eventType, err := enums.ParseOutboxEventType(rawType)
	if err != nil {
		d.logg.Info(logCtx, "skipping unknown event type")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		d.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		d.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := d.idempotency.CheckAndMarkProcessed(ctx, orderNotificationConsumer, eventID)
	if err != nil {
		d.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		d.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	if err := d.handleEvent(ctx, eventType, envelope.Data, logCtx); err != nil {
		d.logg.Error(logCtx, "notification handling failed", err)
		_ = d.idempotency.Delete(ctx, orderNotificationConsumer, eventID)
		return processResult{nack: true}
	}

	return processResult{ack: true}
}

func (d *Dispatcher) handleEvent(ctx context.Context, eventType enums.OutboxEventType, data json.RawMessage, logCtx context.Context) error {
	switch eventType {
	case enums.EventOrderCreated:
		var payload payloads.OrderCreatedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("parse order.created payload: %w", err)
		}
		return d.orderCreated(ctx, payload, logCtx)
	case enums.EventOrderProcessing, enums.EventOrderShipped, enums.EventOrderDelivered, enums.EventOrderCanceled, enums.EventOrderRefunded:
		var payload payloads.OrderStatusChangedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("parse status payload: %w", err)
		}
		return d.orderStatusChanged(ctx, eventType, payload, logCtx)
	case enums.EventPaymentSucceeded:
		var payload payloads.PaymentSucceededEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("parse payment.succeeded payload: %w", err)
		}
		return d.paymentSucceeded(ctx, payload, logCtx)
	case enums.EventPaymentFailed:
		var payload payloads.PaymentFailedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("parse payment.failed payload: %w", err)
		}
		return d.paymentFailed(ctx, payload, logCtx)
	case enums.EventLowStock:
		var payload payloads.LowStockEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("parse low stock payload: %w", err)
		}
		return d.lowStock(ctx, payload, logCtx)
	default:
		d.logg.Info(logCtx, "event type not handled")
		return nil
	}
}

func (d *Dispatcher) orderCreated(ctx context.Context, payload payloads.OrderCreatedEvent, logCtx context.Context) error {
	if payload.StoreID == uuid.Nil {
		return fmt.Errorf("store id missing")
	}
	notification := &models.Notification{
		StoreID: payload.StoreID,
		Type:    enums.NotificationOrderCreated,
		Title:   fmt.Sprintf("New order %s", payload.OrderNumber),
		Body:    fmt.Sprintf("%s placed order %s for %s %s.", payload.CustomerName, payload.OrderNumber, payload.Total, payload.Currency),
		Data: types.JSONMap{
			"order_id":     payload.OrderID.String(),
			"order_number": payload.OrderNumber,
		},
	}
	if err := d.repo.Create(ctx, notification); err != nil {
		return err
	}

	d.sendEmail(logCtx, mailer.Message{
		ToEmail:   payload.CustomerEmail,
		ToName:    payload.CustomerName,
		Subject:   fmt.Sprintf("Order %s received", payload.OrderNumber),
		PlainText: fmt.Sprintf("Thanks for your order! We received order %s totaling %s %s.", payload.OrderNumber, payload.Total, payload.Currency),
	})
	d.logg.Info(logCtx, "order created notification dispatched")
	return nil
}

func (d *Dispatcher) orderStatusChanged(ctx context.Context, eventType enums.OutboxEventType, payload payloads.OrderStatusChangedEvent, logCtx context.Context) error {
	if payload.StoreID == uuid.Nil {
		return fmt.Errorf("store id missing")
	}

	var (
		notifType enums.NotificationType
		title     string
		body      string
		emailBody string
	)
	switch eventType {
	case enums.EventOrderProcessing:
		notifType = enums.NotificationOrderConfirmed
		title = fmt.Sprintf("Order %s confirmed", payload.OrderNumber)
		body = fmt.Sprintf("Order %s is confirmed and being prepared.", payload.OrderNumber)
		emailBody = fmt.Sprintf("Your order %s is confirmed and being prepared for shipment.", payload.OrderNumber)
	case enums.EventOrderShipped:
		notifType = enums.NotificationOrderShipped
		title = fmt.Sprintf("Order %s shipped", payload.OrderNumber)
		body = fmt.Sprintf("Order %s is on its way.", payload.OrderNumber)
		emailBody = fmt.Sprintf("Your order %s has shipped.", payload.OrderNumber)
		if payload.TrackingNumber != "" {
			emailBody = fmt.Sprintf("%s Tracking number: %s.", emailBody, payload.TrackingNumber)
		}
		if payload.TrackingURL != "" {
			emailBody = fmt.Sprintf("%s Track it at %s", emailBody, payload.TrackingURL)
		}
	case enums.EventOrderDelivered:
		notifType = enums.NotificationOrderDelivered
		title = fmt.Sprintf("Order %s delivered", payload.OrderNumber)
		body = fmt.Sprintf("Order %s was delivered.", payload.OrderNumber)
		emailBody = fmt.Sprintf("Your order %s was delivered. Enjoy!", payload.OrderNumber)
	case enums.EventOrderCanceled:
		notifType = enums.NotificationOrderCanceled
		title = fmt.Sprintf("Order %s canceled", payload.OrderNumber)
		body = fmt.Sprintf("Order %s was canceled.", payload.OrderNumber)
		emailBody = fmt.Sprintf("Your order %s has been canceled.", payload.OrderNumber)
	case enums.EventOrderRefunded:
		notifType = enums.NotificationOrderRefunded
		title = fmt.Sprintf("Order %s refunded", payload.OrderNumber)
		body = fmt.Sprintf("Order %s was refunded.", payload.OrderNumber)
		emailBody = fmt.Sprintf("Your refund for order %s has been issued.", payload.OrderNumber)
	default:
		d.logg.Info(logCtx, "status change not handled")
		return nil
	}

	notification := &models.Notification{
		StoreID: payload.StoreID,
		Type:    notifType,
		Title:   title,
		Body:    body,
		Data: types.JSONMap{
			"order_id":     payload.OrderID.String(),
			"order_number": payload.OrderNumber,
			"from_status":  payload.FromStatus,
			"to_status":    payload.ToStatus,
		},
	}
	if err := d.repo.Create(ctx, notification); err != nil {
		return err
	}

	d.sendEmail(logCtx, mailer.Message{
		ToEmail:   payload.CustomerEmail,
		Subject:   title,
		PlainText: emailBody,
	})
	d.logg.Info(logCtx, "order status notification dispatched")
	return nil
}

func (d *Dispatcher) paymentSucceeded(ctx context.Context, payload payloads.PaymentSucceededEvent, logCtx context.Context) error {
	if payload.StoreID == uuid.Nil {
		return fmt.Errorf("store id missing")
	}
	notification := &models.Notification{
		StoreID: payload.StoreID,
		Type:    enums.NotificationOrderConfirmed,
		Title:   fmt.Sprintf("Order %s paid", payload.OrderNumber),
		Body:    fmt.Sprintf("Payment of %s %s for order %s was captured.", payload.Amount, payload.Currency, payload.OrderNumber),
		Data: types.JSONMap{
			"order_id":   payload.OrderID.String(),
			"payment_id": payload.PaymentID.String(),
		},
	}
	if err := d.repo.Create(ctx, notification); err != nil {
		return err
	}
	d.logg.Info(logCtx, "payment succeeded notification dispatched")
	return nil
}

func (d *Dispatcher) paymentFailed(ctx context.Context, payload payloads.PaymentFailedEvent, logCtx context.Context) error {
	if payload.StoreID == uuid.Nil {
		return fmt.Errorf("store id missing")
	}
	body := fmt.Sprintf("Payment for order %s failed.", payload.OrderNumber)
	if payload.FailureReason != "" {
		body = fmt.Sprintf("Payment for order %s failed: %s.", payload.OrderNumber, payload.FailureReason)
	}
	notification := &models.Notification{
		StoreID: payload.StoreID,
		Type:    enums.NotificationPaymentFailed,
		Title:   fmt.Sprintf("Payment failed for order %s", payload.OrderNumber),
		Body:    body,
		Data: types.JSONMap{
			"order_id":   payload.OrderID.String(),
			"payment_id": payload.PaymentID.String(),
		},
	}
	if err := d.repo.Create(ctx, notification); err != nil {
		return err
	}
	d.logg.Info(logCtx, "payment failed notification dispatched")
	return nil
}

func (d *Dispatcher) lowStock(ctx context.Context, payload payloads.LowStockEvent, logCtx context.Context) error {
	if payload.StoreID == uuid.Nil {
		return fmt.Errorf("store id missing")
	}
	notification := &models.Notification{
		StoreID: payload.StoreID,
		Type:    enums.NotificationLowStock,
		Title:   fmt.Sprintf("Low stock: %s", payload.Name),
		Body:    fmt.Sprintf("%s (%s) is down to %d units (threshold %d).", payload.Name, payload.SKU, payload.Quantity, payload.Threshold),
		Data: types.JSONMap{
			"product_id": payload.ProductID.String(),
			"sku":        payload.SKU,
		},
	}
	if err := d.repo.Create(ctx, notification); err != nil {
		return err
	}
	d.logg.Info(logCtx, "low stock notification dispatched")
	return nil
}

// sendEmail is best-effort: a committed notification never fails on delivery
// problems, they are logged and dropped.
func (d *Dispatcher) sendEmail(logCtx context.Context, msgs ...mailer.Message) {
	if d.mail == nil {
		return
	}
	var errs error
	for _, msg := range msgs {
		if msg.ToEmail == "" {
			continue
		}
		errs = multierr.Append(errs, d.mail.Send(logCtx, msg))
	}
	if errs != nil {
		d.logg.Error(logCtx, "email delivery failed", errs)
	}
}
