package enums

import "fmt"

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateOrder   OutboxAggregateType = "order"
	AggregatePayment OutboxAggregateType = "payment"
	AggregateProduct OutboxAggregateType = "product"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateOrder,
	AggregatePayment,
	AggregateProduct,
}

// IsValid reports whether the value is a known aggregate type.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// OutboxEventType names the domain events emitted through the outbox.
type OutboxEventType string

const (
	EventOrderCreated     OutboxEventType = "order.created"
	EventOrderProcessing  OutboxEventType = "order.processing"
	EventOrderShipped     OutboxEventType = "order.shipped"
	EventOrderDelivered   OutboxEventType = "order.delivered"
	EventOrderCanceled    OutboxEventType = "order.canceled"
	EventOrderRefunded    OutboxEventType = "order.refunded"
	EventPaymentSucceeded OutboxEventType = "payment.succeeded"
	EventPaymentFailed    OutboxEventType = "payment.failed"
	EventLowStock         OutboxEventType = "inventory.low_stock"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOrderCreated,
	EventOrderProcessing,
	EventOrderShipped,
	EventOrderDelivered,
	EventOrderCanceled,
	EventOrderRefunded,
	EventPaymentSucceeded,
	EventPaymentFailed,
	EventLowStock,
}

// IsValid reports whether the value is a known event type.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into an OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid outbox event type %q", value)
}
