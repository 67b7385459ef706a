package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QuoteLine is one medicine inside a quote. Price and Quantity are present
// whenever the line is available; MedicineName or Brand is always present.
type QuoteLine struct {
	ID           uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	QuoteID      uuid.UUID        `gorm:"column:quote_id;type:uuid;not null;index"`
	MedicineName *string          `gorm:"column:medicine_name"`
	Brand        *string          `gorm:"column:brand"`
	Price        *decimal.Decimal `gorm:"column:price;type:numeric"`
	Quantity     *int             `gorm:"column:quantity"`
	Available    bool             `gorm:"column:available;not null"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
