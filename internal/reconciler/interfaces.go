package reconciler

import (
	"context"

	"github.com/arjundesai/medikart-backend/pkg/db/models"
	"github.com/arjundesai/medikart-backend/pkg/enums"
	"github.com/google/uuid"
)

// Source yields the current order list for one actor. The poller treats the
// source as authoritative; whatever it returns overrides local optimism.
type Source interface {
	FetchOrders(ctx context.Context) ([]models.PrescriptionOrder, error)
}

// SeenStore persists the set of order ids an actor has already been alerted
// about, so the new-order event survives restarts without re-firing.
type SeenStore interface {
	Seen(ctx context.Context, orderID uuid.UUID) (bool, error)
	MarkSeen(ctx context.Context, orderID uuid.UUID) error
}

// Events are the typed notifications a poll cycle can emit. Nil callbacks
// are skipped.
type Events struct {
	NewOrder       func(order models.PrescriptionOrder)
	StatusChanged  func(order models.PrescriptionOrder, from, to enums.OrderStatus)
	WindowExpiring func(order models.PrescriptionOrder, secondsLeft int64)
}
