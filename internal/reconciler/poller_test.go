package reconciler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/arjundesai/medikart-backend/pkg/db/models"
	"github.com/arjundesai/medikart-backend/pkg/enums"
	"github.com/arjundesai/medikart-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type stubSource struct {
	orders []models.PrescriptionOrder
	errs   []error
	calls  int
}

func (s *stubSource) FetchOrders(ctx context.Context) ([]models.PrescriptionOrder, error) {
	s.calls++
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	out := make([]models.PrescriptionOrder, len(s.orders))
	copy(out, s.orders)
	return out, nil
}

type recorded struct {
	newOrders      []uuid.UUID
	statusChanges  [][3]string
	windowWarnings []uuid.UUID
}

func (r *recorded) events() Events {
	return Events{
		NewOrder: func(order models.PrescriptionOrder) {
			r.newOrders = append(r.newOrders, order.ID)
		},
		StatusChanged: func(order models.PrescriptionOrder, from, to enums.OrderStatus) {
			r.statusChanges = append(r.statusChanges, [3]string{order.ID.String(), from.String(), to.String()})
		},
		WindowExpiring: func(order models.PrescriptionOrder, secondsLeft int64) {
			r.windowWarnings = append(r.windowWarnings, order.ID)
		},
	}
}

func openOrder(status enums.OrderStatus, expiry time.Time) models.PrescriptionOrder {
	return models.PrescriptionOrder{
		ID:          uuid.New(),
		CustomerID:  uuid.New(),
		Status:      status,
		QuoteExpiry: &expiry,
	}
}

func newTestPoller(t *testing.T, source Source, rec *recorded, now func() time.Time) *Poller {
	t.Helper()

	poller, err := NewPoller(PollerParams{
		Source:        source,
		Seen:          NewMemorySeenStore(),
		Events:        rec.events(),
		Logger:        logger.New(logger.Options{ServiceName: "poller-test", Level: zerolog.Disabled}),
		Role:          enums.ActorRolePharmacy,
		Interval:      time.Second,
		FetchTimeout:  time.Second,
		FetchAttempts: 2,
		ExpiryWarn:    60 * time.Second,
		Now:           now,
	})
	if err != nil {
		t.Fatalf("build poller: %v", err)
	}
	return poller
}

func TestPollerNewOrderFiresOnce(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	order := openOrder(enums.OrderStatusWaitingForQuotes, now.Add(15*time.Minute))
	source := &stubSource{orders: []models.PrescriptionOrder{order}}
	rec := &recorded{}
	poller := newTestPoller(t, source, rec, func() time.Time { return now })

	for i := 0; i < 3; i++ {
		if err := poller.Poll(context.Background()); err != nil {
			t.Fatalf("poll %d: %v", i, err)
		}
	}

	if len(rec.newOrders) != 1 || rec.newOrders[0] != order.ID {
		t.Fatalf("expected exactly one new-order event, got %v", rec.newOrders)
	}
}

func TestPollerSeenSetSurvivesRestart(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	order := openOrder(enums.OrderStatusWaitingForQuotes, now.Add(15*time.Minute))
	source := &stubSource{orders: []models.PrescriptionOrder{order}}
	seen := NewMemorySeenStore()

	rec := &recorded{}
	first, err := NewPoller(PollerParams{
		Source: source,
		Seen:   seen,
		Events: rec.events(),
		Logger: logger.New(logger.Options{ServiceName: "poller-test", Level: zerolog.Disabled}),
		Role:   enums.ActorRolePharmacy,
	})
	if err != nil {
		t.Fatalf("build poller: %v", err)
	}
	if err := first.Poll(context.Background()); err != nil {
		t.Fatalf("poll: %v", err)
	}
	if len(rec.newOrders) != 1 {
		t.Fatalf("expected one alert before restart, got %v", rec.newOrders)
	}

	// A fresh poller over the same persisted seen set must stay silent.
	second, err := NewPoller(PollerParams{
		Source: source,
		Seen:   seen,
		Events: rec.events(),
		Logger: logger.New(logger.Options{ServiceName: "poller-test", Level: zerolog.Disabled}),
		Role:   enums.ActorRolePharmacy,
	})
	if err != nil {
		t.Fatalf("build poller: %v", err)
	}
	if err := second.Poll(context.Background()); err != nil {
		t.Fatalf("poll: %v", err)
	}
	if len(rec.newOrders) != 1 {
		t.Fatalf("restart must not re-fire the alert, got %v", rec.newOrders)
	}
}

func TestPollerStatusChangeDoesNotReAlert(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	order := openOrder(enums.OrderStatusWaitingForQuotes, now.Add(15*time.Minute))
	source := &stubSource{orders: []models.PrescriptionOrder{order}}
	rec := &recorded{}
	poller := newTestPoller(t, source, rec, func() time.Time { return now })

	if err := poller.Poll(context.Background()); err != nil {
		t.Fatalf("poll: %v", err)
	}

	source.orders[0].Status = enums.OrderStatusQuoted
	if err := poller.Poll(context.Background()); err != nil {
		t.Fatalf("poll: %v", err)
	}

	if len(rec.newOrders) != 1 {
		t.Fatalf("status change must not re-fire new-order, got %v", rec.newOrders)
	}
	if len(rec.statusChanges) != 1 {
		t.Fatalf("expected one status change, got %v", rec.statusChanges)
	}
	change := rec.statusChanges[0]
	if change[1] != "waiting_for_quotes" || change[2] != "quoted" {
		t.Fatalf("unexpected transition recorded: %v", change)
	}
}

func TestPollerDiscardsStatusRegression(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	order := openOrder(enums.OrderStatusQuoted, now.Add(15*time.Minute))
	source := &stubSource{orders: []models.PrescriptionOrder{order}}
	rec := &recorded{}
	poller := newTestPoller(t, source, rec, func() time.Time { return now })

	if err := poller.Poll(context.Background()); err != nil {
		t.Fatalf("poll: %v", err)
	}

	// A stale read claims the order went back to waiting; it must be dropped.
	source.orders[0].Status = enums.OrderStatusWaitingForQuotes
	if err := poller.Poll(context.Background()); err != nil {
		t.Fatalf("poll: %v", err)
	}
	if len(rec.statusChanges) != 0 {
		t.Fatalf("regression must not be surfaced, got %v", rec.statusChanges)
	}

	source.orders[0].Status = enums.OrderStatusAccepted
	if err := poller.Poll(context.Background()); err != nil {
		t.Fatalf("poll: %v", err)
	}
	if len(rec.statusChanges) != 1 || rec.statusChanges[0][1] != "quoted" {
		t.Fatalf("forward progress must still apply from the kept status, got %v", rec.statusChanges)
	}
}

func TestPollerPausedCycleSkipsFetch(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	source := &stubSource{}
	rec := &recorded{}
	poller := newTestPoller(t, source, rec, func() time.Time { return now })

	poller.Pause()
	if err := poller.Poll(context.Background()); err != nil {
		t.Fatalf("poll: %v", err)
	}
	if source.calls != 0 {
		t.Fatalf("paused poller must not fetch, got %d calls", source.calls)
	}

	poller.Resume()
	if err := poller.Poll(context.Background()); err != nil {
		t.Fatalf("poll: %v", err)
	}
	if source.calls == 0 {
		t.Fatal("resumed poller must fetch again")
	}
}

func TestPollerRetriesTransientFetchFailure(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	order := openOrder(enums.OrderStatusWaitingForQuotes, now.Add(15*time.Minute))
	source := &stubSource{
		orders: []models.PrescriptionOrder{order},
		errs:   []error{errors.New("connection reset")},
	}
	rec := &recorded{}
	poller := newTestPoller(t, source, rec, func() time.Time { return now })

	if err := poller.Poll(context.Background()); err != nil {
		t.Fatalf("expected retry to absorb one failure: %v", err)
	}
	if source.calls != 2 {
		t.Fatalf("expected 2 fetch attempts, got %d", source.calls)
	}
	if len(rec.newOrders) != 1 {
		t.Fatalf("expected the retried cycle to still reconcile, got %v", rec.newOrders)
	}
}

func TestPollerExhaustedRetriesFailTheCycle(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	source := &stubSource{
		errs: []error{errors.New("down"), errors.New("down"), errors.New("down")},
	}
	rec := &recorded{}
	poller := newTestPoller(t, source, rec, func() time.Time { return now })

	if err := poller.Poll(context.Background()); err == nil {
		t.Fatal("expected the cycle to fail after exhausting retries")
	}

	// The next tick polls again regardless.
	if err := poller.Poll(context.Background()); err != nil {
		t.Fatalf("expected recovery on the next cycle: %v", err)
	}
}

func TestPollerWarnsOnceInsideExpiryWindow(t *testing.T) {
	t.Parallel()

	current := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	order := openOrder(enums.OrderStatusQuoted, current.Add(15*time.Minute))
	source := &stubSource{orders: []models.PrescriptionOrder{order}}
	rec := &recorded{}
	poller := newTestPoller(t, source, rec, func() time.Time { return current })

	if err := poller.Poll(context.Background()); err != nil {
		t.Fatalf("poll: %v", err)
	}
	if len(rec.windowWarnings) != 0 {
		t.Fatalf("window is wide open, no warning expected: %v", rec.windowWarnings)
	}

	current = current.Add(14*time.Minute + 30*time.Second)
	for i := 0; i < 3; i++ {
		if err := poller.Poll(context.Background()); err != nil {
			t.Fatalf("poll: %v", err)
		}
	}
	if len(rec.windowWarnings) != 1 || rec.windowWarnings[0] != order.ID {
		t.Fatalf("expected exactly one expiry warning, got %v", rec.windowWarnings)
	}
}
