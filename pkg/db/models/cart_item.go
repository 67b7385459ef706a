package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartItem is one medicine line in a customer's cart.
type CartItem struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID     uuid.UUID       `gorm:"column:cart_id;type:uuid;not null;index"`
	MedicineID uuid.UUID       `gorm:"column:medicine_id;type:uuid;not null"`
	PharmacyID uuid.UUID       `gorm:"column:pharmacy_id;type:uuid;not null"`
	Name       string          `gorm:"column:name;not null"`
	Price      decimal.Decimal `gorm:"column:price;type:numeric;not null"`
	Quantity   int             `gorm:"column:quantity;not null"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
