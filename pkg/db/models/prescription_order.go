package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/arjundesai/medikart-backend/pkg/enums"
	"github.com/arjundesai/medikart-backend/pkg/types"
)

// PrescriptionOrder is the system-of-record row for one quote negotiation.
// Status and QuoteExpiry are written exclusively through the orders
// repository; every status change is a compare-and-swap on the prior status.
type PrescriptionOrder struct {
	ID                 uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID         uuid.UUID           `gorm:"column:customer_id;type:uuid;not null;index"`
	AssignedPharmacyID *uuid.UUID          `gorm:"column:assigned_pharmacy_id;type:uuid;index"`
	Status             enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'waiting_for_quotes'"`
	AssignmentMode     enums.AssignmentMode `gorm:"column:assignment_mode;type:text;not null;default:'auto'"`
	Attachments        pq.StringArray      `gorm:"column:attachments;type:text[]"`
	Notes              *string             `gorm:"column:notes"`
	DeliveryAddress    *types.Address      `gorm:"column:delivery_address;type:jsonb;serializer:json"`
	QuoteExpiry        *time.Time          `gorm:"column:quote_expiry"`
	PaymentStatus      enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'pending'"`
	PaymentDetails     *types.JSONMap      `gorm:"column:payment_details;type:jsonb;serializer:json"`
	AcceptedQuoteID    *uuid.UUID          `gorm:"column:accepted_quote_id;type:uuid"`
	ConvertedOrderID   *uuid.UUID          `gorm:"column:converted_order_id;type:uuid"`
	QuotedAt           *time.Time          `gorm:"column:quoted_at"`
	AcceptedAt         *time.Time          `gorm:"column:accepted_at"`
	CancelledAt        *time.Time          `gorm:"column:cancelled_at"`
	ExpiredAt          *time.Time          `gorm:"column:expired_at"`
	ConvertedAt        *time.Time          `gorm:"column:converted_at"`
	Quotes             []Quote             `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
