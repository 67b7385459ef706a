package orders

import "github.com/arjundesai/medikart-backend/pkg/enums"

// allowedTransitions is the authoritative edge set of the negotiation
// lifecycle. Every write of prescription_orders.status goes through a
// compare-and-swap against one of these edges.
var allowedTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusWaitingForQuotes: {
		enums.OrderStatusQuoted,
		enums.OrderStatusCancelled,
		enums.OrderStatusExpired,
	},
	enums.OrderStatusQuoted: {
		enums.OrderStatusAccepted,
		enums.OrderStatusExpired,
	},
	enums.OrderStatusAccepted: {
		enums.OrderStatusConverted,
		enums.OrderStatusExpired,
	},
}

// CanTransition reports whether the lifecycle admits the edge from → to.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}
