package models

import (
	"time"

	"github.com/google/uuid"
)

// CartRecord is the single active cart for a customer. PharmacyID is the
// bound pharmacy: set by the first item added to an empty cart, cleared only
// when the cart drains.
type CartRecord struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID uuid.UUID  `gorm:"column:customer_id;type:uuid;not null;uniqueIndex:idx_cart_customer"`
	PharmacyID *uuid.UUID `gorm:"column:pharmacy_id;type:uuid"`
	Items      []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
