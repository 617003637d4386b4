// Package battery emulates the debounce delay a watch applies before it
// reports a lost phone link.
package battery

import (
	"context"
	"errors"
	"sync"
	"time"
)

// DefaultTickInterval is one debounce tick.
const DefaultTickInterval = time.Second

// DefaultTicks is how many ticks the Bluetooth disconnect countdown lasts.
const DefaultTicks = 25

// ErrActive is returned when a timer for the same subject is still running.
var ErrActive = errors.New("debounce timer already running")

// Callbacks receive timer progress. Exactly one of OnCancel and OnComplete
// is invoked, at most once.
type Callbacks struct {
	// OnTick receives the completed fraction in (0, 1].
	OnTick     func(fraction float64)
	OnCancel   func()
	OnComplete func()
}

// Timer is a cancellable countdown.
type Timer struct {
	interval time.Duration

	mu        sync.Mutex
	remaining int
	cancelled bool
	completed bool
	stop      chan struct{}
	finished  chan struct{}
}

// NewTimer returns a Timer ticking every interval (DefaultTickInterval when
// non-positive).
func NewTimer(interval time.Duration) *Timer {
	if interval <= 0 {
		interval = DefaultTickInterval
	}

	return &Timer{
		interval: interval,
		stop:     make(chan struct{}),
		finished: make(chan struct{}),
	}
}

// Start runs the countdown in the background. Cancelling ctx is equivalent
// to Cancel. Start must be called once.
func (t *Timer) Start(ctx context.Context, totalTicks int, cb Callbacks) {
	t.mu.Lock()
	t.remaining = totalTicks
	t.mu.Unlock()

	go t.run(ctx, totalTicks, cb)
}

// Run is Start that blocks until the countdown ends, returning true when it
// completed and false when it was cancelled.
func (t *Timer) Run(ctx context.Context, totalTicks int, cb Callbacks) bool {
	t.Start(ctx, totalTicks, cb)
	<-t.finished

	t.mu.Lock()
	defer t.mu.Unlock()

	return t.completed
}

// Cancel stops the countdown at the next tick boundary. It has no effect
// once the countdown completed.
func (t *Timer) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.cancelled && !t.completed {
		t.cancelled = true
		close(t.stop)
	}
}

// Cancelled reports whether Cancel took effect.
func (t *Timer) Cancelled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.cancelled
}

// Remaining returns the ticks still to run.
func (t *Timer) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.remaining
}

// Done is closed after the final callback returned.
func (t *Timer) Done() <-chan struct{} {
	return t.finished
}

func (t *Timer) run(ctx context.Context, totalTicks int, cb Callbacks) {
	defer close(t.finished)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for tick := 1; tick <= totalTicks; tick++ {
		select {
		case <-ctx.Done():
			t.Cancel()
		case <-t.stop:
		case <-ticker.C:
		}

		// A tick and a cancel can arrive together; cancel wins.
		t.mu.Lock()
		if t.cancelled {
			t.mu.Unlock()

			if cb.OnCancel != nil {
				cb.OnCancel()
			}

			return
		}

		t.remaining = totalTicks - tick
		// Once the last tick is recorded a Cancel is a no-op.
		t.completed = t.remaining == 0
		t.mu.Unlock()

		if cb.OnTick != nil {
			cb.OnTick(float64(tick) / float64(totalTicks))
		}
	}

	t.mu.Lock()
	if totalTicks <= 0 && !t.cancelled {
		t.completed = true
	}
	completed := t.completed
	t.mu.Unlock()

	if !completed {
		if cb.OnCancel != nil {
			cb.OnCancel()
		}

		return
	}

	if cb.OnComplete != nil {
		cb.OnComplete()
	}
}
