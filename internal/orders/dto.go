package orders

import (
	"github.com/arjundesai/medikart-backend/pkg/db/models"
	"github.com/arjundesai/medikart-backend/pkg/enums"
	"github.com/arjundesai/medikart-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateOrderInput captures a customer's prescription upload.
type CreateOrderInput struct {
	Attachments      []string
	Notes            *string
	Address          *types.Address
	Mode             enums.AssignmentMode
	ChosenPharmacyID *uuid.UUID
}

// QuoteLineInput is one medicine line in a pharmacy's quote submission.
type QuoteLineInput struct {
	MedicineName *string
	Brand        *string
	Price        *decimal.Decimal
	Quantity     *int
	Available    bool
}

// SubmitQuoteInput is the full quote a pharmacy submits inside the window.
type SubmitQuoteInput struct {
	Mode  enums.QuoteMode
	Lines []QuoteLineInput
}

// AcceptQuoteInput carries the customer's acceptance of the standing quote.
type AcceptQuoteInput struct {
	Address        *types.Address
	PaymentStatus  enums.PaymentStatus
	PaymentDetails *types.JSONMap
}

// OrderList is one cursor page of prescription orders.
type OrderList struct {
	Orders     []models.PrescriptionOrder
	NextCursor string
}
