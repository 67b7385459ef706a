package orders

import (
	"context"
	"testing"
	"time"

	"github.com/arjundesai/medikart-backend/pkg/db/models"
	"github.com/arjundesai/medikart-backend/pkg/enums"
	"github.com/arjundesai/medikart-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	prescriptionOrders := `
CREATE TABLE IF NOT EXISTS prescription_orders (
  id TEXT PRIMARY KEY,
  customer_id TEXT NOT NULL,
  assigned_pharmacy_id TEXT,
  status TEXT NOT NULL DEFAULT 'waiting_for_quotes',
  assignment_mode TEXT NOT NULL DEFAULT 'auto',
  attachments TEXT,
  notes TEXT,
  delivery_address TEXT,
  quote_expiry DATETIME,
  payment_status TEXT NOT NULL DEFAULT 'pending',
  payment_details TEXT,
  accepted_quote_id TEXT,
  converted_order_id TEXT,
  quoted_at DATETIME,
  accepted_at DATETIME,
  cancelled_at DATETIME,
  expired_at DATETIME,
  converted_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	quotes := `
CREATE TABLE IF NOT EXISTS quotes (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  pharmacy_id TEXT NOT NULL,
  mode TEXT NOT NULL,
  submitted_at DATETIME NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`
	quoteLines := `
CREATE TABLE IF NOT EXISTS quote_lines (
  id TEXT PRIMARY KEY,
  quote_id TEXT NOT NULL,
  medicine_name TEXT,
  brand TEXT,
  price NUMERIC,
  quantity INTEGER,
  available INTEGER NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`
	payableOrders := `
CREATE TABLE IF NOT EXISTS payable_orders (
  id TEXT PRIMARY KEY,
  source_order_id TEXT NOT NULL UNIQUE,
  customer_id TEXT NOT NULL,
  pharmacy_id TEXT NOT NULL,
  total NUMERIC NOT NULL,
  lines TEXT NOT NULL,
  placed_at DATETIME NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(prescriptionOrders).Error)
	require.NoError(t, db.Exec(quotes).Error)
	require.NoError(t, db.Exec(quoteLines).Error)
	require.NoError(t, db.Exec(payableOrders).Error)
	return db
}

func newOrder(t *testing.T, db *gorm.DB, status enums.OrderStatus, pharmacyID *uuid.UUID, expiry time.Time, created time.Time) *models.PrescriptionOrder {
	t.Helper()

	order := &models.PrescriptionOrder{
		ID:                 uuid.New(),
		CustomerID:         uuid.New(),
		AssignedPharmacyID: pharmacyID,
		Status:             status,
		AssignmentMode:     enums.AssignmentModeAuto,
		Attachments:        []string{"rx/scan.jpg"},
		QuoteExpiry:        &expiry,
		PaymentStatus:      enums.PaymentStatusPending,
		CreatedAt:          created,
		UpdatedAt:          created,
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func TestRepositoryUpdateStatusCASSingleWinner(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	now := time.Now().UTC()
	order := newOrder(t, db, enums.OrderStatusWaitingForQuotes, nil, now.Add(15*time.Minute), now)

	swapped, err := repo.UpdateStatusCAS(context.Background(), order.ID,
		enums.OrderStatusWaitingForQuotes, enums.OrderStatusQuoted,
		map[string]any{"quoted_at": now})
	require.NoError(t, err)
	assert.True(t, swapped)

	// The losing writer sees zero rows and must not override the winner.
	swapped, err = repo.UpdateStatusCAS(context.Background(), order.ID,
		enums.OrderStatusWaitingForQuotes, enums.OrderStatusExpired,
		map[string]any{"expired_at": now})
	require.NoError(t, err)
	assert.False(t, swapped)

	got, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusQuoted, got.Status)
	assert.Nil(t, got.ExpiredAt)
}

func TestRepositoryFindByIDLoadsQuoteGraph(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	now := time.Now().UTC()
	order := newOrder(t, db, enums.OrderStatusWaitingForQuotes, nil, now.Add(15*time.Minute), now)

	price := decimal.NewFromInt(20)
	qty := 2
	name := "Paracetamol 650mg"
	quote := &models.Quote{
		ID:          uuid.New(),
		OrderID:     order.ID,
		PharmacyID:  uuid.New(),
		Mode:        enums.QuoteModePartial,
		SubmittedAt: now,
		Lines: []models.QuoteLine{
			{ID: uuid.New(), MedicineName: &name, Price: &price, Quantity: &qty, Available: true},
		},
	}
	require.NoError(t, repo.CreateQuote(context.Background(), quote))

	got, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, got.Quotes, 1)
	require.Len(t, got.Quotes[0].Lines, 1)
	assert.Equal(t, enums.QuoteModePartial, got.Quotes[0].Mode)
	require.NotNil(t, got.Quotes[0].Lines[0].Price)
	assert.True(t, got.Quotes[0].Lines[0].Price.Equal(price))
}

func TestRepositoryListForPharmacyVisibility(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	pharmacyID := uuid.New()
	otherID := uuid.New()
	now := time.Now().UTC()
	expiry := now.Add(15 * time.Minute)

	mine := newOrder(t, db, enums.OrderStatusQuoted, &pharmacyID, expiry, now.Add(-3*time.Minute))
	unassigned := newOrder(t, db, enums.OrderStatusWaitingForQuotes, nil, expiry, now.Add(-2*time.Minute))
	newOrder(t, db, enums.OrderStatusQuoted, &otherID, expiry, now.Add(-1*time.Minute))

	list, err := repo.ListForPharmacy(context.Background(), pharmacyID, pagination.Params{Limit: 10})
	require.NoError(t, err)
	require.Len(t, list.Orders, 2)

	ids := map[uuid.UUID]bool{}
	for _, order := range list.Orders {
		ids[order.ID] = true
	}
	assert.True(t, ids[mine.ID])
	assert.True(t, ids[unassigned.ID])
}

func TestRepositoryListForPharmacyPagination(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	pharmacyID := uuid.New()
	now := time.Now().UTC()
	expiry := now.Add(15 * time.Minute)

	older := newOrder(t, db, enums.OrderStatusQuoted, &pharmacyID, expiry, now.Add(-2*time.Hour))
	newer := newOrder(t, db, enums.OrderStatusQuoted, &pharmacyID, expiry, now.Add(-1*time.Hour))

	first, err := repo.ListForPharmacy(context.Background(), pharmacyID, pagination.Params{Limit: 1})
	require.NoError(t, err)
	require.Len(t, first.Orders, 1)
	assert.Equal(t, newer.ID, first.Orders[0].ID)
	require.NotEmpty(t, first.NextCursor)

	second, err := repo.ListForPharmacy(context.Background(), pharmacyID, pagination.Params{Limit: 1, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Orders, 1)
	assert.Equal(t, older.ID, second.Orders[0].ID)
	assert.Empty(t, second.NextCursor)
}

func TestRepositoryPayableSourceOrderIsUnique(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	sourceID := uuid.New()
	build := func() *models.PayableOrder {
		return &models.PayableOrder{
			ID:            uuid.New(),
			SourceOrderID: sourceID,
			CustomerID:    uuid.New(),
			PharmacyID:    uuid.New(),
			Total:         decimal.NewFromInt(40),
			Lines:         nil,
			PlacedAt:      time.Now().UTC(),
		}
	}

	first, err := repo.CreatePayable(context.Background(), build())
	require.NoError(t, err)

	_, err = repo.CreatePayable(context.Background(), build())
	require.Error(t, err)

	got, err := repo.FindPayableBySource(context.Background(), sourceID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
}

func TestRepositoryListOpenExpiredBefore(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	now := time.Now().UTC()
	due := newOrder(t, db, enums.OrderStatusWaitingForQuotes, nil, now.Add(-time.Minute), now.Add(-20*time.Minute))
	newOrder(t, db, enums.OrderStatusQuoted, nil, now.Add(10*time.Minute), now.Add(-5*time.Minute))
	terminal := newOrder(t, db, enums.OrderStatusCancelled, nil, now.Add(-time.Minute), now.Add(-30*time.Minute))

	rows, err := repo.ListOpenExpiredBefore(context.Background(), now, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, due.ID, rows[0].ID)
	assert.NotEqual(t, terminal.ID, rows[0].ID)
}
