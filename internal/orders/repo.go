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

// repository is the GORM implementation of Repository.
type repository struct {
	db *gorm.DB
}

// NewRepository constructs an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Create inserts a new prescription order. Ids are assigned client-side so
// the quote graph can reference them before the row round-trips.
func (r *repository) Create(ctx context.Context, order *models.PrescriptionOrder) (*models.PrescriptionOrder, error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

// FindByID loads an order with its quotes and their lines.
func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.PrescriptionOrder, error) {
	var order models.PrescriptionOrder
	err := r.db.WithContext(ctx).
		Preload("Quotes", func(db *gorm.DB) *gorm.DB {
			return db.Order("submitted_at ASC")
		}).
		Preload("Quotes.Lines").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListForPharmacy pages the orders visible to a pharmacy: orders assigned to
// it plus unassigned open orders awaiting a first quote.
func (r *repository) ListForPharmacy(ctx context.Context, pharmacyID uuid.UUID, params pagination.Params) (*OrderList, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).
		Model(&models.PrescriptionOrder{}).
		Preload("Quotes", func(db *gorm.DB) *gorm.DB {
			return db.Order("submitted_at ASC")
		}).
		Preload("Quotes.Lines").
		Where("assigned_pharmacy_id = ? OR (assigned_pharmacy_id IS NULL AND status = ?)",
			pharmacyID, enums.OrderStatusWaitingForQuotes)

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.PrescriptionOrder
	if err := query.
		Order("created_at DESC, id DESC").
		Limit(limit + 1).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	list := &OrderList{Orders: rows}
	if len(rows) > limit {
		list.Orders = rows[:limit]
		last := list.Orders[limit-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return list, nil
}

// UpdateStatusCAS advances the order status only when the stored status still
// matches from. The boolean result reports whether the swap happened; zero
// rows affected means another writer won the race.
func (r *repository) UpdateStatusCAS(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus, updates map[string]any) (bool, error) {
	if updates == nil {
		updates = map[string]any{}
	}
	updates["status"] = to

	res := r.db.WithContext(ctx).
		Model(&models.PrescriptionOrder{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// CreateQuote inserts a quote with its lines.
func (r *repository) CreateQuote(ctx context.Context, quote *models.Quote) error {
	if quote.ID == uuid.Nil {
		quote.ID = uuid.New()
	}
	for i := range quote.Lines {
		if quote.Lines[i].ID == uuid.Nil {
			quote.Lines[i].ID = uuid.New()
		}
	}
	return r.db.WithContext(ctx).Create(quote).Error
}

// CreatePayable inserts the standalone payable order produced by conversion.
func (r *repository) CreatePayable(ctx context.Context, payable *models.PayableOrder) (*models.PayableOrder, error) {
	if payable.ID == uuid.Nil {
		payable.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(payable).Error; err != nil {
		return nil, err
	}
	return payable, nil
}

// FindPayableBySource loads the payable order created from the given
// prescription order, if any.
func (r *repository) FindPayableBySource(ctx context.Context, sourceOrderID uuid.UUID) (*models.PayableOrder, error) {
	var payable models.PayableOrder
	err := r.db.WithContext(ctx).
		Where("source_order_id = ?", sourceOrderID).
		First(&payable).Error
	if err != nil {
		return nil, err
	}
	return &payable, nil
}

// ListOpenExpiredBefore returns non-terminal orders whose quote window closed
// at or before cutoff, oldest window first.
func (r *repository) ListOpenExpiredBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.PrescriptionOrder, error) {
	open := []enums.OrderStatus{
		enums.OrderStatusWaitingForQuotes,
		enums.OrderStatusQuoted,
		enums.OrderStatusAccepted,
	}

	var rows []models.PrescriptionOrder
	query := r.db.WithContext(ctx).
		Where("status IN ? AND quote_expiry IS NOT NULL AND quote_expiry <= ?", open, cutoff).
		Order("quote_expiry ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
