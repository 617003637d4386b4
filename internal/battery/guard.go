package battery

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Guard allows at most one running Timer per subject.
type Guard struct {
	interval time.Duration

	mu     sync.Mutex
	active map[string]*Timer
}

// NewGuard returns a Guard whose timers tick every interval.
func NewGuard(interval time.Duration) *Guard {
	return &Guard{interval: interval, active: make(map[string]*Timer)}
}

// Start begins a countdown for subject, or returns ErrActive while a
// previous one is still running. The slot frees itself once the final
// callback has returned.
func (g *Guard) Start(ctx context.Context, subject string, totalTicks int, cb Callbacks) (*Timer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, busy := g.active[subject]; busy {
		return nil, fmt.Errorf("%s: %w", subject, ErrActive)
	}

	t := NewTimer(g.interval)
	g.active[subject] = t

	t.Start(ctx, totalTicks, cb)

	go func() {
		<-t.Done()

		g.mu.Lock()
		if g.active[subject] == t {
			delete(g.active, subject)
		}
		g.mu.Unlock()
	}()

	return t, nil
}

// Active returns the running timer for subject.
func (g *Guard) Active(subject string) (*Timer, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	t, ok := g.active[subject]

	return t, ok
}

// Cancel cancels subject's running timer, reporting whether one existed.
func (g *Guard) Cancel(subject string) bool {
	t, ok := g.Active(subject)
	if ok {
		t.Cancel()
	}

	return ok
}
