package reconciler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/arjundesai/medikart-backend/internal/expiry"
	"github.com/arjundesai/medikart-backend/pkg/db/models"
	"github.com/arjundesai/medikart-backend/pkg/enums"
	"github.com/arjundesai/medikart-backend/pkg/logger"
	"github.com/arjundesai/medikart-backend/pkg/metrics"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
)

const (
	eventNewOrder       = "new_order"
	eventStatusChanged  = "status_changed"
	eventWindowExpiring = "window_expiring"

	defaultInterval      = 3 * time.Second
	defaultFetchTimeout  = 5 * time.Second
	defaultFetchAttempts = 3
	fetchRetryBackoff    = 300 * time.Millisecond
)

// Poller re-fetches one actor's order list on a fixed interval and reconciles
// it against what the actor has already seen. New open orders fire a one-time
// event; status changes on known orders update the view without re-alerting.
// Observed statuses never regress: a stale fetch that claims an order moved
// backwards is discarded.
type Poller struct {
	source  Source
	seen    SeenStore
	events  Events
	logg    *logger.Logger
	metrics *metrics.PollerMetrics
	role    enums.ActorRole

	interval      time.Duration
	fetchTimeout  time.Duration
	fetchAttempts int
	expiryWarn    time.Duration
	now           func() time.Time

	mu         sync.Mutex
	paused     bool
	lastStatus map[uuid.UUID]enums.OrderStatus
	warned     map[uuid.UUID]struct{}
}

// PollerParams configure a Poller.
type PollerParams struct {
	Source        Source
	Seen          SeenStore
	Events        Events
	Logger        *logger.Logger
	Metrics       *metrics.PollerMetrics
	Role          enums.ActorRole
	Interval      time.Duration
	FetchTimeout  time.Duration
	FetchAttempts int
	ExpiryWarn    time.Duration
	Now           func() time.Time
}

// NewPoller builds a polling reconciler for one actor.
func NewPoller(params PollerParams) (*Poller, error) {
	if params.Source == nil {
		return nil, fmt.Errorf("order source required")
	}
	if params.Seen == nil {
		return nil, fmt.Errorf("seen store required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if !params.Role.IsValid() {
		return nil, fmt.Errorf("unknown actor role %q", params.Role)
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	fetchTimeout := params.FetchTimeout
	if fetchTimeout <= 0 {
		fetchTimeout = defaultFetchTimeout
	}
	attempts := params.FetchAttempts
	if attempts <= 0 {
		attempts = defaultFetchAttempts
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Poller{
		source:        params.Source,
		seen:          params.Seen,
		events:        params.Events,
		logg:          params.Logger,
		metrics:       params.Metrics,
		role:          params.Role,
		interval:      interval,
		fetchTimeout:  fetchTimeout,
		fetchAttempts: attempts,
		expiryWarn:    params.ExpiryWarn,
		now:           now,
		lastStatus:    map[uuid.UUID]enums.OrderStatus{},
		warned:        map[uuid.UUID]struct{}{},
	}, nil
}

// Pause suspends reconciliation, used while a dialog is holding user input so
// the view under the user's hands does not flicker.
func (p *Poller) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = true
}

// Resume re-enables reconciliation after Pause.
func (p *Poller) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = false
}

// Run polls until the context is cancelled. A failed cycle is logged and
// retried on the next tick; transport trouble never stops the loop.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.Poll(ctx); err != nil {
				logCtx := p.logg.WithActorRole(ctx, p.role.String())
				p.logg.Warn(logCtx, fmt.Sprintf("poll cycle failed: %v", err))
			}
		}
	}
}

// Poll runs one reconciliation cycle.
func (p *Poller) Poll(ctx context.Context) error {
	p.mu.Lock()
	paused := p.paused
	p.mu.Unlock()
	if paused {
		return nil
	}

	if p.metrics != nil {
		p.metrics.IncCycle(p.role.String())
	}

	orders, err := p.fetch(ctx)
	if err != nil {
		if p.metrics != nil {
			p.metrics.IncFetchFailure(p.role.String())
		}
		return err
	}

	for i := range orders {
		if err := p.reconcile(ctx, orders[i]); err != nil {
			return err
		}
	}
	return nil
}

// fetch loads the order list with a bounded timeout, retrying transient
// failures a fixed number of times before giving the cycle up.
func (p *Poller) fetch(ctx context.Context) ([]models.PrescriptionOrder, error) {
	var orders []models.PrescriptionOrder
	start := time.Now()

	backoff := retry.WithMaxRetries(uint64(p.fetchAttempts-1), retry.NewConstant(fetchRetryBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		fetchCtx, cancel := context.WithTimeout(ctx, p.fetchTimeout)
		defer cancel()

		fetched, err := p.source.FetchOrders(fetchCtx)
		if err != nil {
			return retry.RetryableError(err)
		}
		orders = fetched
		return nil
	})

	if p.metrics != nil {
		p.metrics.ObserveFetch(p.role.String(), time.Since(start))
	}
	if err != nil {
		return nil, fmt.Errorf("fetch orders: %w", err)
	}
	return orders, nil
}

func (p *Poller) reconcile(ctx context.Context, order models.PrescriptionOrder) error {
	seen, err := p.seen.Seen(ctx, order.ID)
	if err != nil {
		return fmt.Errorf("read seen set: %w", err)
	}

	if !seen {
		if err := p.seen.MarkSeen(ctx, order.ID); err != nil {
			return fmt.Errorf("mark order seen: %w", err)
		}
		p.recordStatus(order.ID, order.Status)

		// Only an open, never-touched order is worth an alert; anything
		// further along is backfill from before this actor was watching.
		if order.Status == enums.OrderStatusWaitingForQuotes {
			p.emitNewOrder(order)
		}
		p.maybeWarnExpiry(order)
		return nil
	}

	prev, tracked := p.previousStatus(order.ID)
	if tracked && order.Status.Rank() < prev.Rank() {
		logCtx := p.logg.WithOrderID(ctx, order.ID.String())
		p.logg.Warn(logCtx, fmt.Sprintf("discarding stale status %s behind %s", order.Status, prev))
		return nil
	}
	if !tracked || order.Status != prev {
		p.recordStatus(order.ID, order.Status)
		if tracked {
			p.emitStatusChanged(order, prev)
		}
	}

	p.maybeWarnExpiry(order)
	return nil
}

func (p *Poller) previousStatus(orderID uuid.UUID) (enums.OrderStatus, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	status, ok := p.lastStatus[orderID]
	return status, ok
}

func (p *Poller) recordStatus(orderID uuid.UUID, status enums.OrderStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastStatus[orderID] = status
}

func (p *Poller) emitNewOrder(order models.PrescriptionOrder) {
	if p.metrics != nil {
		p.metrics.IncEvent(p.role.String(), eventNewOrder)
	}
	if p.events.NewOrder != nil {
		p.events.NewOrder(order)
	}
}

func (p *Poller) emitStatusChanged(order models.PrescriptionOrder, prev enums.OrderStatus) {
	if p.metrics != nil {
		p.metrics.IncEvent(p.role.String(), eventStatusChanged)
	}
	if p.events.StatusChanged != nil {
		p.events.StatusChanged(order, prev, order.Status)
	}
}

// maybeWarnExpiry fires a single heads-up event when an open order's window
// drops inside the configured warning threshold.
func (p *Poller) maybeWarnExpiry(order models.PrescriptionOrder) {
	if p.expiryWarn <= 0 || order.QuoteExpiry == nil || order.Status.IsTerminal() {
		return
	}

	left := expiry.SecondsLeft(*order.QuoteExpiry, p.now())
	if left <= 0 || left > int64(p.expiryWarn/time.Second) {
		return
	}

	p.mu.Lock()
	if _, already := p.warned[order.ID]; already {
		p.mu.Unlock()
		return
	}
	p.warned[order.ID] = struct{}{}
	p.mu.Unlock()

	if p.metrics != nil {
		p.metrics.IncEvent(p.role.String(), eventWindowExpiring)
	}
	if p.events.WindowExpiring != nil {
		p.events.WindowExpiring(order, left)
	}
}
