package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	cartsvc "github.com/arjundesai/medikart-backend/internal/cart"
	ordersvc "github.com/arjundesai/medikart-backend/internal/orders"
	"github.com/arjundesai/medikart-backend/pkg/config"
	"github.com/arjundesai/medikart-backend/pkg/db/models"
	"github.com/arjundesai/medikart-backend/pkg/enums"
	"github.com/arjundesai/medikart-backend/pkg/logger"
	"github.com/arjundesai/medikart-backend/pkg/pagination"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubCart struct{}

func (stubCart) AddItem(context.Context, uuid.UUID, cartsvc.AddItemInput) (*models.CartRecord, error) {
	return &models.CartRecord{}, nil
}

func (stubCart) RemoveOne(context.Context, uuid.UUID, uuid.UUID) (*models.CartRecord, error) {
	return &models.CartRecord{}, nil
}

func (stubCart) RemoveAll(context.Context, uuid.UUID, uuid.UUID) (*models.CartRecord, error) {
	return &models.CartRecord{}, nil
}

func (stubCart) Clear(context.Context, uuid.UUID) error { return nil }

func (stubCart) Get(context.Context, uuid.UUID) (*models.CartRecord, error) {
	return &models.CartRecord{}, nil
}

type stubOrders struct{}

func (stubOrders) Create(context.Context, uuid.UUID, ordersvc.CreateOrderInput) (*models.PrescriptionOrder, error) {
	return &models.PrescriptionOrder{}, nil
}

func (stubOrders) GetForCustomer(context.Context, uuid.UUID, uuid.UUID) (*models.PrescriptionOrder, error) {
	return &models.PrescriptionOrder{}, nil
}

func (stubOrders) ListForPharmacy(context.Context, uuid.UUID, pagination.Params) (*ordersvc.OrderList, error) {
	return &ordersvc.OrderList{}, nil
}

func (stubOrders) SubmitQuote(context.Context, uuid.UUID, uuid.UUID, ordersvc.SubmitQuoteInput) (*models.PrescriptionOrder, error) {
	return &models.PrescriptionOrder{}, nil
}

func (stubOrders) Respond(context.Context, enums.ActorRole, uuid.UUID, uuid.UUID, enums.OrderResponse) (*models.PrescriptionOrder, error) {
	return &models.PrescriptionOrder{}, nil
}

func (stubOrders) AcceptQuote(context.Context, uuid.UUID, uuid.UUID, ordersvc.AcceptQuoteInput) (*models.PrescriptionOrder, error) {
	return &models.PrescriptionOrder{}, nil
}

func (stubOrders) Convert(context.Context, uuid.UUID, uuid.UUID) (uuid.UUID, error) {
	return uuid.New(), nil
}

func (stubOrders) ExpireDue(context.Context) (int, error) { return 0, nil }

func newTestRouter() http.Handler {
	cfg := &config.Config{}
	cfg.App.Env = "test"
	logg := logger.New(logger.Options{ServiceName: "router-test", Level: zerolog.Disabled})
	return NewRouter(cfg, logg, stubPinger{}, stubPinger{}, stubCart{}, stubOrders{})
}

func TestRouterHealthLive(t *testing.T) {
	router := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestRouterCartRequiresCustomerIdentity(t *testing.T) {
	router := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestRouterCartAdmitsCustomer(t *testing.T) {
	router := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("X-Customer-Id", uuid.NewString())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestRouterPharmacyListRequiresPharmacyIdentity(t *testing.T) {
	router := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/pharmacy/orders", nil)
	req.Header.Set("X-Customer-Id", uuid.NewString())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}
