package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/arjundesai/medikart-backend/pkg/types"
)

// PayableOrder is the standalone order produced by converting an accepted,
// paid prescription order. The unique index on SourceOrderID is what makes
// conversion idempotent: a retried convert hits the constraint and the
// caller reads back the already-created row.
type PayableOrder struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SourceOrderID uuid.UUID       `gorm:"column:source_order_id;type:uuid;not null;uniqueIndex:idx_payable_source_order"`
	CustomerID    uuid.UUID       `gorm:"column:customer_id;type:uuid;not null;index"`
	PharmacyID    uuid.UUID       `gorm:"column:pharmacy_id;type:uuid;not null"`
	Total         decimal.Decimal  `gorm:"column:total;type:numeric;not null"`
	Lines         types.OrderLines `gorm:"column:lines;type:jsonb;serializer:json"`
	PlacedAt      time.Time       `gorm:"column:placed_at;not null"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
