package types

import "github.com/shopspring/decimal"

// OrderLine is the immutable snapshot of one accepted quote line carried on
// a payable order.
type OrderLine struct {
	MedicineName string          `json:"medicine_name,omitempty"`
	Brand        string          `json:"brand,omitempty"`
	Price        decimal.Decimal `json:"price"`
	Quantity     int             `json:"quantity"`
}

// OrderLines is persisted as a jsonb array.
type OrderLines []OrderLine

// Total returns the summed line totals.
func (l OrderLines) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range l {
		total = total.Add(line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total
}
