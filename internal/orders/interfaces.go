package orders

import (
	"context"
	"time"

	"github.com/arjundesai/medikart-backend/pkg/db/models"
	"github.com/arjundesai/medikart-backend/pkg/enums"
	"github.com/arjundesai/medikart-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines the persistence surface required by the orders service.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.PrescriptionOrder) (*models.PrescriptionOrder, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.PrescriptionOrder, error)
	ListForPharmacy(ctx context.Context, pharmacyID uuid.UUID, params pagination.Params) (*OrderList, error)
	UpdateStatusCAS(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus, updates map[string]any) (bool, error)
	CreateQuote(ctx context.Context, quote *models.Quote) error
	CreatePayable(ctx context.Context, payable *models.PayableOrder) (*models.PayableOrder, error)
	FindPayableBySource(ctx context.Context, sourceOrderID uuid.UUID) (*models.PayableOrder, error)
	ListOpenExpiredBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.PrescriptionOrder, error)
}
