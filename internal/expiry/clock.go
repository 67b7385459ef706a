package expiry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/arjundesai/medikart-backend/pkg/logger"
	"github.com/google/uuid"
)

// SecondsLeft computes the whole seconds remaining until expiry, floored at
// zero. Remaining time is always derived from the server-issued absolute
// timestamp, never from a locally started stopwatch.
func SecondsLeft(expiry, now time.Time) int64 {
	left := expiry.Sub(now) / time.Second
	if left < 0 {
		return 0
	}
	return int64(left)
}

// Handler receives the id of an order whose quote window just closed.
type Handler func(orderID uuid.UUID)

// Clock is a read model over quote deadlines. It never advances order state
// itself; it counts down tracked windows on a fixed tick and fires the
// expired handler exactly once per order id.
type Clock struct {
	mu       sync.Mutex
	expiries map[uuid.UUID]time.Time
	fired    map[uuid.UUID]struct{}

	tick    time.Duration
	now     func() time.Time
	handler Handler
	logg    *logger.Logger

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// ClockParams configure the expiry clock.
type ClockParams struct {
	Tick    time.Duration
	Now     func() time.Time
	Handler Handler
	Logger  *logger.Logger
}

// NewClock builds an expiry clock. Tick defaults to one second.
func NewClock(params ClockParams) (*Clock, error) {
	if params.Handler == nil {
		return nil, fmt.Errorf("expired handler required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	tick := params.Tick
	if tick <= 0 {
		tick = time.Second
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Clock{
		expiries: map[uuid.UUID]time.Time{},
		fired:    map[uuid.UUID]struct{}{},
		tick:     tick,
		now:      now,
		handler:  params.Handler,
		logg:     params.Logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// Track starts counting down the given order's quote window.
func (c *Clock) Track(orderID uuid.UUID, expiry time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expiries[orderID] = expiry
}

// Untrack stops watching the order, on view close or a terminal status. It
// also releases the fired marker, so a long-lived process does not
// accumulate an entry for every order id it ever watched.
func (c *Clock) Untrack(orderID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.expiries, orderID)
	delete(c.fired, orderID)
}

// SecondsLeft reports the remaining window for a tracked order.
func (c *Clock) SecondsLeft(orderID uuid.UUID) (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	expiry, ok := c.expiries[orderID]
	if !ok {
		return 0, false
	}
	return SecondsLeft(expiry, c.now()), true
}

// Run ticks the clock until the context is cancelled or Stop is called.
func (c *Clock) Run(ctx context.Context) {
	defer close(c.done)
	ticker := time.NewTicker(c.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stop:
			return
		case <-ticker.C:
			c.Advance()
		}
	}
}

// Stop halts the tick loop and waits for it to exit.
func (c *Clock) Stop() {
	c.once.Do(func() { close(c.stop) })
	<-c.done
}

// Advance performs one tick: every tracked order whose window just reached
// zero fires the handler once and stops being tracked.
func (c *Clock) Advance() {
	now := c.now()

	c.mu.Lock()
	var due []uuid.UUID
	for orderID, expiry := range c.expiries {
		if SecondsLeft(expiry, now) > 0 {
			continue
		}
		if _, already := c.fired[orderID]; already {
			delete(c.expiries, orderID)
			continue
		}
		c.fired[orderID] = struct{}{}
		delete(c.expiries, orderID)
		due = append(due, orderID)
	}
	c.mu.Unlock()

	// Handlers run outside the lock so they may call back into the clock.
	for _, orderID := range due {
		logCtx := c.logg.WithOrderID(context.Background(), orderID.String())
		c.logg.Info(logCtx, "quote window reached zero")
		c.handler(orderID)
	}
}
