// Package display keeps a connection to the emulator's remote display
// alive, retrying on a fixed interval until it connects, the retry ceiling
// is reached, or the user gives up.
package display

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/pebble-dev/pebblectl/internal/observability"
)

// Defaults for the reconnect loop.
const (
	DefaultCeiling  = 30
	DefaultInterval = 2 * time.Second
)

// Dialer opens a display connection.
type Dialer interface {
	Dial(ctx context.Context) (Conn, error)
}

// Conn is an open display connection.
type Conn interface {
	// Wait blocks until the connection drops and returns the reason.
	Wait(ctx context.Context) error

	// SendKey presses or releases an X11 keysym.
	SendKey(ctx context.Context, keysym uint32, down bool) error

	Close() error
}

// Observer is told about every state transition.
type Observer func(State)

// Loop drives a Dialer through the reconnect state machine. A Loop runs once.
type Loop struct {
	dialer   Dialer
	interval time.Duration
	observer Observer

	cancelOnce sync.Once
	cancelled  chan struct{}

	mu    sync.Mutex
	state State
	conn  Conn
}

// NewLoop returns a loop over dialer. Non-positive ceiling or interval
// select the defaults.
func NewLoop(dialer Dialer, ceiling int, interval time.Duration, observer Observer) *Loop {
	if ceiling <= 0 {
		ceiling = DefaultCeiling
	}

	if interval <= 0 {
		interval = DefaultInterval
	}

	return &Loop{
		dialer:    dialer,
		interval:  interval,
		observer:  observer,
		cancelled: make(chan struct{}),
		state:     State{Ceiling: ceiling, Status: StatusConnecting},
	}
}

// State returns the current snapshot.
func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.state
}

// Conn returns the live connection, or nil when not connected.
func (l *Loop) Conn() Conn {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.conn
}

// Cancel stops the loop at its next suspension point. Safe to call from an
// Observer and more than once.
func (l *Loop) Cancel() {
	l.cancelOnce.Do(func() { close(l.cancelled) })
}

// Run connects and reconnects until the loop is exhausted or cancelled, and
// returns the terminal state. Cancelling ctx is equivalent to Cancel.
func (l *Loop) Run(ctx context.Context) State {
	logger := observability.FromContext(ctx).With(slog.String("component", "display"))

	ctx, stop := context.WithCancel(ctx)
	defer stop()

	go func() {
		select {
		case <-l.cancelled:
			stop()
		case <-ctx.Done():
		}
	}()

	interval := backoff.NewConstantBackOff(l.interval)

	l.notify(l.State())

	for {
		if ctx.Err() != nil || l.isCancelled() {
			l.dropConn()
			return l.transition(eventCancel, nil)
		}

		st := l.State()

		switch st.Status {
		case StatusConnecting:
			l.connect(ctx, logger)
		case StatusConnected:
			l.hold(ctx, logger)
		case StatusRetrying:
			select {
			case <-ctx.Done():
			case <-l.cancelled:
			case <-time.After(interval.NextBackOff()):
				l.transition(eventRetry, nil)
			}
		case StatusExhausted, StatusCancelled:
			return st
		}
	}
}

func (l *Loop) dropConn() {
	l.mu.Lock()
	conn := l.conn
	l.conn = nil
	l.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
}

func (l *Loop) isCancelled() bool {
	select {
	case <-l.cancelled:
		return true
	default:
		return false
	}
}

func (l *Loop) connect(ctx context.Context, logger *slog.Logger) {
	conn, err := l.dialer.Dial(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}

		st := l.transition(eventDisconnected, err)
		logger.Debug(
			"display connection failed",
			slog.String("event.type", "display.dial.failed"),
			slog.Int("display.attempt", st.Attempt),
			slog.String("error", err.Error()),
		)

		return
	}

	l.mu.Lock()
	l.conn = conn
	l.mu.Unlock()

	l.transition(eventConnected, nil)
	logger.Info("display connected", slog.String("event.type", "display.connected"))
}

func (l *Loop) hold(ctx context.Context, logger *slog.Logger) {
	conn := l.Conn()
	reason := conn.Wait(ctx)

	l.mu.Lock()
	l.conn = nil
	l.mu.Unlock()

	_ = conn.Close()

	if ctx.Err() != nil {
		return
	}

	if reason == nil {
		reason = errors.New("display closed the connection")
	}

	st := l.transition(eventDisconnected, reason)
	logger.Info(
		"display disconnected",
		slog.String("event.type", "display.disconnected"),
		slog.Int("display.attempt", st.Attempt),
		slog.String("error", reason.Error()),
	)
}

func (l *Loop) transition(ev event, reason error) State {
	l.mu.Lock()
	prev := l.state
	l.state = l.state.apply(ev, reason)
	next := l.state
	l.mu.Unlock()

	if next.Status != prev.Status || next.Attempt != prev.Attempt {
		l.notify(next)
	}

	return next
}

func (l *Loop) notify(st State) {
	if l.observer != nil {
		l.observer(st)
	}
}
