package reconciler

import (
	"context"
	"fmt"
	"sync"

	"github.com/arjundesai/medikart-backend/internal/orders"
	"github.com/arjundesai/medikart-backend/pkg/db/models"
	"github.com/arjundesai/medikart-backend/pkg/pagination"
	"github.com/google/uuid"
)

// PharmacySource feeds the poller from the pharmacy's order list, walking
// every cursor page so a busy pharmacy never reconciles a truncated view.
type PharmacySource struct {
	svc        orders.Service
	pharmacyID uuid.UUID
	pageLimit  int
}

// NewPharmacySource builds a source over the pharmacy order list.
func NewPharmacySource(svc orders.Service, pharmacyID uuid.UUID) (*PharmacySource, error) {
	if svc == nil {
		return nil, fmt.Errorf("orders service required")
	}
	if pharmacyID == uuid.Nil {
		return nil, fmt.Errorf("pharmacy id required")
	}
	return &PharmacySource{
		svc:        svc,
		pharmacyID: pharmacyID,
		pageLimit:  pagination.MaxLimit,
	}, nil
}

// FetchOrders returns every order currently visible to the pharmacy.
func (s *PharmacySource) FetchOrders(ctx context.Context) ([]models.PrescriptionOrder, error) {
	var all []models.PrescriptionOrder
	cursor := ""
	for {
		page, err := s.svc.ListForPharmacy(ctx, s.pharmacyID, pagination.Params{
			Limit:  s.pageLimit,
			Cursor: cursor,
		})
		if err != nil {
			return nil, err
		}
		all = append(all, page.Orders...)
		if page.NextCursor == "" {
			return all, nil
		}
		cursor = page.NextCursor
	}
}

// CustomerSource feeds the poller from the set of orders a customer is
// actively watching.
type CustomerSource struct {
	svc        orders.Service
	customerID uuid.UUID

	mu       sync.Mutex
	watching map[uuid.UUID]struct{}
}

// NewCustomerSource builds a source over a customer's watched orders.
func NewCustomerSource(svc orders.Service, customerID uuid.UUID) (*CustomerSource, error) {
	if svc == nil {
		return nil, fmt.Errorf("orders service required")
	}
	if customerID == uuid.Nil {
		return nil, fmt.Errorf("customer id required")
	}
	return &CustomerSource{
		svc:        svc,
		customerID: customerID,
		watching:   map[uuid.UUID]struct{}{},
	}, nil
}

// Watch adds an order to the customer's polling set.
func (s *CustomerSource) Watch(orderID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watching[orderID] = struct{}{}
}

// Unwatch drops an order from the polling set, on view close or a terminal
// status.
func (s *CustomerSource) Unwatch(orderID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.watching, orderID)
}

// FetchOrders loads the current state of every watched order.
func (s *CustomerSource) FetchOrders(ctx context.Context) ([]models.PrescriptionOrder, error) {
	s.mu.Lock()
	ids := make([]uuid.UUID, 0, len(s.watching))
	for id := range s.watching {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	out := make([]models.PrescriptionOrder, 0, len(ids))
	for _, id := range ids {
		order, err := s.svc.GetForCustomer(ctx, s.customerID, id)
		if err != nil {
			return nil, err
		}
		out = append(out, *order)
	}
	return out, nil
}
