package expiry

import (
	"testing"
	"time"

	"github.com/arjundesai/medikart-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func TestSecondsLeftFloorsAtZero(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	if got := SecondsLeft(now.Add(900*time.Second), now); got != 900 {
		t.Fatalf("expected 900, got %d", got)
	}
	if got := SecondsLeft(now.Add(1500*time.Millisecond), now); got != 1 {
		t.Fatalf("expected floor to 1, got %d", got)
	}
	if got := SecondsLeft(now, now); got != 0 {
		t.Fatalf("expected 0 at the deadline, got %d", got)
	}
	if got := SecondsLeft(now.Add(-time.Minute), now); got != 0 {
		t.Fatalf("expected 0 past the deadline, got %d", got)
	}
}

func TestSecondsLeftMonotonicOverTicks(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	expiry := start.Add(5 * time.Second)

	prev := SecondsLeft(expiry, start)
	for i := 1; i <= 8; i++ {
		cur := SecondsLeft(expiry, start.Add(time.Duration(i)*time.Second))
		if cur > prev {
			t.Fatalf("seconds left increased from %d to %d", prev, cur)
		}
		if cur < 0 {
			t.Fatalf("seconds left went negative: %d", cur)
		}
		prev = cur
	}
	if prev != 0 {
		t.Fatalf("expected countdown to settle at 0, got %d", prev)
	}
}

func TestClockFiresExpiredExactlyOnce(t *testing.T) {
	t.Parallel()

	current := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	var fired []uuid.UUID
	clock := newTestClock(t, &current, func(orderID uuid.UUID) {
		fired = append(fired, orderID)
	})

	orderID := uuid.New()
	clock.Track(orderID, current.Add(3*time.Second))

	clock.Advance()
	if len(fired) != 0 {
		t.Fatalf("window still open, nothing should fire: %v", fired)
	}

	current = current.Add(3 * time.Second)
	clock.Advance()
	clock.Advance()
	clock.Advance()
	if len(fired) != 1 || fired[0] != orderID {
		t.Fatalf("expected exactly one signal for %s, got %v", orderID, fired)
	}

	// Re-tracking an already fired order must stay silent.
	clock.Track(orderID, current.Add(-time.Second))
	clock.Advance()
	if len(fired) != 1 {
		t.Fatalf("re-tracked order fired again: %v", fired)
	}
}

func TestClockUntrackCancelsCountdown(t *testing.T) {
	t.Parallel()

	current := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	var fired []uuid.UUID
	clock := newTestClock(t, &current, func(orderID uuid.UUID) {
		fired = append(fired, orderID)
	})

	orderID := uuid.New()
	clock.Track(orderID, current.Add(time.Second))
	clock.Untrack(orderID)

	current = current.Add(time.Minute)
	clock.Advance()
	if len(fired) != 0 {
		t.Fatalf("untracked order must not fire: %v", fired)
	}
	if _, ok := clock.SecondsLeft(orderID); ok {
		t.Fatal("untracked order must not report seconds left")
	}
}

func TestClockUntrackReleasesFiredMarker(t *testing.T) {
	t.Parallel()

	current := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	clock := newTestClock(t, &current, func(uuid.UUID) {})

	// A watcher tracks many orders over its lifetime; once an order reaches
	// a terminal status and is untracked, the clock must hold no residue.
	for i := 0; i < 50; i++ {
		orderID := uuid.New()
		clock.Track(orderID, current.Add(time.Second))
		current = current.Add(2 * time.Second)
		clock.Advance()
		clock.Untrack(orderID)
	}

	clock.mu.Lock()
	defer clock.mu.Unlock()
	if len(clock.expiries) != 0 {
		t.Fatalf("expected no tracked orders, got %d", len(clock.expiries))
	}
	if len(clock.fired) != 0 {
		t.Fatalf("expected no fired markers after untrack, got %d", len(clock.fired))
	}
}

func TestClockSecondsLeftForTrackedOrder(t *testing.T) {
	t.Parallel()

	current := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	clock := newTestClock(t, &current, func(uuid.UUID) {})

	orderID := uuid.New()
	clock.Track(orderID, current.Add(120*time.Second))

	left, ok := clock.SecondsLeft(orderID)
	if !ok || left != 120 {
		t.Fatalf("expected 120 seconds left, got %d ok=%v", left, ok)
	}

	current = current.Add(45 * time.Second)
	left, ok = clock.SecondsLeft(orderID)
	if !ok || left != 75 {
		t.Fatalf("expected 75 seconds left, got %d ok=%v", left, ok)
	}
}

func newTestClock(t *testing.T, current *time.Time, handler Handler) *Clock {
	t.Helper()

	clock, err := NewClock(ClockParams{
		Now:     func() time.Time { return *current },
		Handler: handler,
		Logger:  logger.New(logger.Options{ServiceName: "expiry-test", Level: zerolog.Disabled}),
	})
	if err != nil {
		t.Fatalf("build clock: %v", err)
	}
	return clock
}
