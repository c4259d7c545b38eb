package payments

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/shopward/shopward-backend/internal/audit"
	"github.com/shopward/shopward-backend/internal/orders"
	"github.com/shopward/shopward-backend/pkg/db/models"
	"github.com/shopward/shopward-backend/pkg/enums"
	pkgerrors "github.com/shopward/shopward-backend/pkg/errors"
	"github.com/shopward/shopward-backend/pkg/outbox"
	"github.com/shopward/shopward-backend/pkg/outbox/payloads"
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

// Service reconciles gateway state with orders and payments.
type Service interface {
	CreateIntent(ctx context.Context, tx *gorm.DB, order *models.Order) (string, error)
	HandlePaymentSucceeded(ctx context.Context, intent *stripe.PaymentIntent) error
	HandlePaymentFailed(ctx context.Context, intent *stripe.PaymentIntent) error
	Refund(ctx context.Context, input RefundInput) (*RefundResult, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	gateway StripePaymentClient
	outbox  outboxPublisher
	audit   auditRecorder
}

// NewService builds the payments service.
func NewService(repo Repository, tx txRunner, gateway StripePaymentClient, publisher outboxPublisher, auditlog auditRecorder) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payments repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "stripe client required")
	}
	if publisher == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "outbox publisher required")
	}
	if auditlog == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "audit recorder required")
	}
	return &service{repo: repo, tx: tx, gateway: gateway, outbox: publisher, audit: auditlog}, nil
}

// CreateIntent creates the gateway intent for a freshly created order and
// persists the PENDING payment row inside the caller's transaction. The order
// id travels in intent metadata so webhook delivery can find its way back.
func (s *service) CreateIntent(ctx context.Context, tx *gorm.DB, order *models.Order) (string, error) {
	if order == nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "order required")
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(toMinorUnits(order.Total)),
		Currency: stripe.String(strings.ToLower(order.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Metadata = map[string]string{
		"order_id":     order.ID.String(),
		"store_id":     order.StoreID.String(),
		"order_number": order.OrderNumber,
	}

	intent, err := s.gateway.CreateIntent(ctx, params)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodePayment, err, "create payment intent")
	}

	payment := &models.Payment{
		OrderID:  order.ID,
		IntentID: &intent.ID,
		Amount:   order.Total,
		Currency: order.Currency,
		Status:   enums.PaymentStatusPending,
	}
	if _, err := s.repo.WithTx(tx).CreatePayment(ctx, payment); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist payment")
	}

	return intent.ClientSecret, nil
}

// HandlePaymentSucceeded marks the payment and order paid. Replays are
// tolerated; an intent without order metadata is not.
func (s *service) HandlePaymentSucceeded(ctx context.Context, intent *stripe.PaymentIntent) error {
	orderID, err := orderIDFromIntent(intent)
	if err != nil {
		return err
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := findOrderForIntent(ctx, repo, orderID)
		if err != nil {
			return err
		}

		payment, err := s.findOrCreatePayment(ctx, repo, order, intent)
		if err != nil {
			return err
		}
		if payment.Status == enums.PaymentStatusPaid {
			return nil
		}

		if err := repo.UpdatePayment(ctx, payment.ID, map[string]any{
			"status":         enums.PaymentStatusPaid,
			"failure_reason": nil,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment")
		}

		orderUpdates := map[string]any{"payment_status": enums.PaymentStatusPaid}
		if method := paymentMethodOf(intent); method != "" {
			orderUpdates["payment_method"] = method
		}
		if orders.CanTransition(order.Status, enums.OrderStatusPaid) {
			orderUpdates["status"] = enums.OrderStatusPaid
		}
		if err := repo.UpdateOrder(ctx, order.ID, orderUpdates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPaymentSucceeded,
			AggregateType: enums.AggregatePayment,
			AggregateID:   payment.ID,
			StoreID:       order.StoreID,
			Version:       1,
			Data: payloads.PaymentSucceededEvent{
				OrderID:     order.ID,
				StoreID:     order.StoreID,
				PaymentID:   payment.ID,
				IntentID:    intent.ID,
				Amount:      payment.Amount,
				Currency:    payment.Currency,
				OrderNumber: order.OrderNumber,
			},
		})
	})
}

// HandlePaymentFailed records the failure and moves the order so the
// customer can retry.
func (s *service) HandlePaymentFailed(ctx context.Context, intent *stripe.PaymentIntent) error {
	orderID, err := orderIDFromIntent(intent)
	if err != nil {
		return err
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := findOrderForIntent(ctx, repo, orderID)
		if err != nil {
			return err
		}

		payment, err := s.findOrCreatePayment(ctx, repo, order, intent)
		if err != nil {
			return err
		}
		if payment.Status == enums.PaymentStatusPaid {
			// A success already landed; a stale failure must not undo it.
			return nil
		}

		reason := failureReasonOf(intent)
		paymentUpdates := map[string]any{"status": enums.PaymentStatusFailed}
		if reason != "" {
			paymentUpdates["failure_reason"] = reason
		}
		if err := repo.UpdatePayment(ctx, payment.ID, paymentUpdates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment")
		}

		orderUpdates := map[string]any{"payment_status": enums.PaymentStatusFailed}
		if orders.CanTransition(order.Status, enums.OrderStatusPaymentFailed) {
			orderUpdates["status"] = enums.OrderStatusPaymentFailed
		}
		if err := repo.UpdateOrder(ctx, order.ID, orderUpdates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPaymentFailed,
			AggregateType: enums.AggregatePayment,
			AggregateID:   payment.ID,
			StoreID:       order.StoreID,
			Version:       1,
			Data: payloads.PaymentFailedEvent{
				OrderID:       order.ID,
				StoreID:       order.StoreID,
				PaymentID:     payment.ID,
				IntentID:      intent.ID,
				OrderNumber:   order.OrderNumber,
				FailureReason: reason,
			},
		})
	})
}

// Refund reverses a captured payment through the gateway, then records the
// reversal. Partial refunds keep the payment PAID; a full refund also moves
// the order to REFUNDED.
func (s *service) Refund(ctx context.Context, input RefundInput) (*RefundResult, error) {
	if input.StoreID == uuid.Nil || input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id and order id required")
	}

	order, err := s.repo.FindOrderByID(ctx, input.OrderID)
	if err != nil || order.StoreID != input.StoreID {
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}

	payment, err := s.repo.FindLatestPaymentForOrder(ctx, order.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "Can only refund completed payments")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	if payment.Status != enums.PaymentStatusPaid {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "Can only refund completed payments")
	}
	if payment.IntentID == nil || strings.TrimSpace(*payment.IntentID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Payment intent ID not found")
	}

	amount := payment.Amount
	full := true
	if input.Amount != nil {
		if input.Amount.LessThanOrEqual(decimal.Zero) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund amount must be positive")
		}
		if input.Amount.GreaterThan(payment.Amount) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund amount exceeds captured payment")
		}
		amount = *input.Amount
		full = amount.Equal(payment.Amount)
	}

	if full && !orders.CanTransition(order.Status, enums.OrderStatusRefunded) {
		return nil, pkgerrors.Newf(pkgerrors.CodeStateConflict,
			"invalid status transition: %s -> %s", order.Status, enums.OrderStatusRefunded)
	}

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(*payment.IntentID),
		Reason:        stripe.String(string(stripe.RefundReasonRequestedByCustomer)),
	}
	if !full {
		params.Amount = stripe.Int64(toMinorUnits(amount))
	}
	if reason := strings.TrimSpace(input.Reason); reason != "" {
		params.Metadata = map[string]string{"reason": reason}
	}
	if _, err := s.gateway.CreateRefund(ctx, params); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePayment, err, "create refund")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		paymentUpdates := map[string]any{"refunded_at": time.Now().UTC()}
		if full {
			paymentUpdates["status"] = enums.PaymentStatusRefunded
		}
		if err := repo.UpdatePayment(ctx, payment.ID, paymentUpdates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment")
		}

		s.audit.Record(ctx, tx, audit.Entry{
			StoreID:    &order.StoreID,
			Action:     "payment.refunded",
			EntityType: "payment",
			EntityID:   payment.ID.String(),
			Changes: types.JSONMap{
				"order_id": order.ID.String(),
				"amount":   amount.String(),
				"full":     full,
			},
			ActorID: auditActorID(input.ActorUserID),
		})

		if !full {
			return nil
		}

		if err := repo.UpdateOrder(ctx, order.ID, map[string]any{
			"status":         enums.OrderStatusRefunded,
			"payment_status": enums.PaymentStatusRefunded,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderRefunded,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			StoreID:       order.StoreID,
			Version:       1,
			Actor:         refundActor(input),
			Data: payloads.OrderStatusChangedEvent{
				OrderID:       order.ID,
				StoreID:       order.StoreID,
				OrderNumber:   order.OrderNumber,
				CustomerEmail: order.CustomerEmail,
				FromStatus:    order.Status.String(),
				ToStatus:      enums.OrderStatusRefunded.String(),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	return &RefundResult{
		PaymentID: payment.ID,
		OrderID:   order.ID,
		Amount:    amount,
		Full:      full,
	}, nil
}

func (s *service) findOrCreatePayment(ctx context.Context, repo Repository, order *models.Order, intent *stripe.PaymentIntent) (*models.Payment, error) {
	payment, err := repo.FindPaymentByIntentID(ctx, intent.ID)
	if err == nil {
		return payment, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}

	// The intent was created out of band; reconcile by materializing the row.
	created := &models.Payment{
		OrderID:  order.ID,
		IntentID: &intent.ID,
		Amount:   fromMinorUnits(intent.Amount),
		Currency: strings.ToUpper(string(intent.Currency)),
		Status:   enums.PaymentStatusPending,
	}
	if _, err := repo.CreatePayment(ctx, created); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment")
	}
	return created, nil
}

func orderIDFromIntent(intent *stripe.PaymentIntent) (uuid.UUID, error) {
	if intent == nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "payment intent required")
	}
	raw := intent.Metadata["order_id"]
	if raw == "" {
		return uuid.Nil, pkgerrors.Newf(pkgerrors.CodePayment, "payment intent %s has no order_id metadata", intent.ID)
	}
	orderID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Newf(pkgerrors.CodePayment, "payment intent %s has malformed order_id metadata", intent.ID)
	}
	return orderID, nil
}

func findOrderForIntent(ctx context.Context, repo Repository, orderID uuid.UUID) (*models.Order, error) {
	order, err := repo.FindOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Newf(pkgerrors.CodePayment, "order %s referenced by payment intent not found", orderID)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func paymentMethodOf(intent *stripe.PaymentIntent) string {
	if len(intent.PaymentMethodTypes) > 0 {
		return intent.PaymentMethodTypes[0]
	}
	return ""
}

func failureReasonOf(intent *stripe.PaymentIntent) string {
	if intent.LastPaymentError == nil {
		return ""
	}
	if intent.LastPaymentError.Msg != "" {
		return intent.LastPaymentError.Msg
	}
	return string(intent.LastPaymentError.Code)
}

func auditActorID(userID uuid.UUID) *uuid.UUID {
	if userID == uuid.Nil {
		return nil
	}
	return &userID
}

func refundActor(input RefundInput) *outbox.ActorRef {
	if input.ActorUserID == uuid.Nil {
		return nil
	}
	store := input.StoreID
	return &outbox.ActorRef{UserID: input.ActorUserID, StoreID: &store, Role: input.ActorRole}
}

func toMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

func fromMinorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}
