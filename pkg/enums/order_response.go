package enums

import "fmt"

// OrderResponse is the decision an actor records against an open order.
type OrderResponse string

const (
	OrderResponseAccepted OrderResponse = "accepted"
	OrderResponseRejected OrderResponse = "rejected"
)

var validOrderResponses = []OrderResponse{
	OrderResponseAccepted,
	OrderResponseRejected,
}

// String implements fmt.Stringer.
func (o OrderResponse) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderResponse.
func (o OrderResponse) IsValid() bool {
	for _, candidate := range validOrderResponses {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOrderResponse converts raw input into an OrderResponse.
func ParseOrderResponse(value string) (OrderResponse, error) {
	for _, candidate := range validOrderResponses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order response %q", value)
}
