package orders

import (
	"github.com/shopward/shopward-backend/pkg/enums"
)

// transitions is the order lifecycle table: current status to the set of
// allowed next statuses. CANCELED and REFUNDED are terminal.
var transitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending: {
		enums.OrderStatusPaid,
		enums.OrderStatusPaymentFailed,
		enums.OrderStatusCanceled,
	},
	enums.OrderStatusPaymentFailed: {
		enums.OrderStatusPaid,
		enums.OrderStatusCanceled,
	},
	enums.OrderStatusPaid: {
		enums.OrderStatusProcessing,
		enums.OrderStatusCanceled,
		enums.OrderStatusRefunded,
	},
	enums.OrderStatusProcessing: {
		enums.OrderStatusShipped,
		enums.OrderStatusCanceled,
		enums.OrderStatusRefunded,
	},
	enums.OrderStatusShipped: {
		enums.OrderStatusDelivered,
		enums.OrderStatusCanceled,
	},
	enums.OrderStatusDelivered: {
		enums.OrderStatusRefunded,
	},
	enums.OrderStatusCanceled: {},
	enums.OrderStatusRefunded: {},
}

// CanTransition reports whether the lifecycle table allows from -> to.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// AllowedTransitions returns the allowed next statuses for the given status.
func AllowedTransitions(from enums.OrderStatus) []enums.OrderStatus {
	next := transitions[from]
	out := make([]enums.OrderStatus, len(next))
	copy(out, next)
	return out
}

// IsTerminal reports whether the status has no outgoing transitions.
func IsTerminal(status enums.OrderStatus) bool {
	return len(transitions[status]) == 0
}
