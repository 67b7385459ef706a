package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/arjundesai/medikart-backend/pkg/enums"
)

func TestRequireCustomerInjectsActor(t *testing.T) {
	customerID := uuid.New()
	var gotRole enums.ActorRole
	var gotID uuid.UUID
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRole, _ = ActorRoleFromContext(r.Context())
		gotID, _ = ActorIDFromContext(r.Context())
	})

	handler := RequireCustomer(nil)(next)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("X-Customer-Id", customerID.String())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if gotRole != enums.ActorRoleCustomer {
		t.Fatalf("unexpected role: %s", gotRole)
	}
	if gotID != customerID {
		t.Fatalf("unexpected actor id: %s", gotID)
	}
}

func TestRequireCustomerRejectsMissingHeader(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })

	handler := RequireCustomer(nil)(next)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
	if called {
		t.Fatal("next handler should not run")
	}
}

func TestRequirePharmacyRejectsMalformedID(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	handler := RequirePharmacy(nil)(next)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/pharmacy/orders", nil)
	req.Header.Set("X-Pharmacy-Id", "not-a-uuid")

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}
