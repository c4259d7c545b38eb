package orders

import (
	"testing"

	"github.com/shopward/shopward-backend/pkg/enums"
)

func TestTransitionTableExhaustive(t *testing.T) {
	allowed := map[enums.OrderStatus]map[enums.OrderStatus]bool{
		enums.OrderStatusPending: {
			enums.OrderStatusPaid:          true,
			enums.OrderStatusPaymentFailed: true,
			enums.OrderStatusCanceled:      true,
		},
		enums.OrderStatusPaymentFailed: {
			enums.OrderStatusPaid:     true,
			enums.OrderStatusCanceled: true,
		},
		enums.OrderStatusPaid: {
			enums.OrderStatusProcessing: true,
			enums.OrderStatusCanceled:   true,
			enums.OrderStatusRefunded:   true,
		},
		enums.OrderStatusProcessing: {
			enums.OrderStatusShipped:  true,
			enums.OrderStatusCanceled: true,
			enums.OrderStatusRefunded: true,
		},
		enums.OrderStatusShipped: {
			enums.OrderStatusDelivered: true,
			enums.OrderStatusCanceled:  true,
		},
		enums.OrderStatusDelivered: {
			enums.OrderStatusRefunded: true,
		},
		enums.OrderStatusCanceled: {},
		enums.OrderStatusRefunded: {},
	}

	statuses := enums.OrderStatuses()
	if len(statuses) != 8 {
		t.Fatalf("expected 8 statuses got %d", len(statuses))
	}

	for _, from := range statuses {
		for _, to := range statuses {
			want := allowed[from][to]
			got := CanTransition(from, to)
			if got != want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestTerminalStatuses(t *testing.T) {
	for _, status := range enums.OrderStatuses() {
		terminal := status == enums.OrderStatusCanceled || status == enums.OrderStatusRefunded
		if IsTerminal(status) != terminal {
			t.Errorf("IsTerminal(%s) = %v, want %v", status, IsTerminal(status), terminal)
		}
	}
}

func TestAllowedTransitionsCopies(t *testing.T) {
	next := AllowedTransitions(enums.OrderStatusPending)
	if len(next) != 3 {
		t.Fatalf("expected 3 transitions from PENDING got %d", len(next))
	}
	next[0] = enums.OrderStatusRefunded
	if CanTransition(enums.OrderStatusPending, enums.OrderStatusRefunded) {
		t.Fatal("mutating the returned slice must not alter the table")
	}
}
