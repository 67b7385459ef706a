package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/arjundesai/medikart-backend/pkg/enums"
)

// Quote is one priced response a pharmacy submits inside the quote window.
type Quote struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	PharmacyID  uuid.UUID       `gorm:"column:pharmacy_id;type:uuid;not null"`
	Mode        enums.QuoteMode `gorm:"column:mode;type:text;not null"`
	SubmittedAt time.Time       `gorm:"column:submitted_at;not null"`
	Lines       []QuoteLine     `gorm:"foreignKey:QuoteID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
