package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/arjundesai/medikart-backend/pkg/types"
)

// Pharmacy is a fulfilment partner that receives prescription orders.
type Pharmacy struct {
	ID        uuid.UUID     `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string        `gorm:"column:name;not null"`
	Phone     *string       `gorm:"column:phone"`
	Address   types.Address `gorm:"column:address;type:jsonb;serializer:json"`
	IsActive  bool          `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time     `gorm:"column:updated_at;autoUpdateTime"`
}
