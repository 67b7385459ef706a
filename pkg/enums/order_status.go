package enums

import "fmt"

// OrderStatus tracks the lifecycle of a prescription order.
type OrderStatus string

const (
	OrderStatusWaitingForQuotes OrderStatus = "waiting_for_quotes"
	OrderStatusQuoted           OrderStatus = "quoted"
	OrderStatusAccepted         OrderStatus = "accepted"
	OrderStatusCancelled        OrderStatus = "cancelled"
	OrderStatusExpired          OrderStatus = "expired"
	OrderStatusConverted        OrderStatus = "converted"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusWaitingForQuotes,
	OrderStatusQuoted,
	OrderStatusAccepted,
	OrderStatusCancelled,
	OrderStatusExpired,
	OrderStatusConverted,
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status admits no further transitions.
func (o OrderStatus) IsTerminal() bool {
	switch o {
	case OrderStatusCancelled, OrderStatusExpired, OrderStatusConverted:
		return true
	}
	return false
}

// Rank orders statuses along the forward path so a poller can detect
// regressions. Terminal branches share the highest rank.
func (o OrderStatus) Rank() int {
	switch o {
	case OrderStatusWaitingForQuotes:
		return 0
	case OrderStatusQuoted:
		return 1
	case OrderStatusAccepted:
		return 2
	case OrderStatusCancelled, OrderStatusExpired, OrderStatusConverted:
		return 3
	}
	return -1
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
