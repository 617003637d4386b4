package session

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/pebble-dev/pebblectl/internal/observability"
)

// Options configure sessions created by a Registry.
type Options struct {
	// Shell is the shell the backend runs; it selects the marker syntax.
	Shell string

	// CompletionTimeout bounds Send waits (DefaultCompletionTimeout when zero).
	CompletionTimeout time.Duration

	// InterruptSettle is slept after an interrupt so the shell can redraw its
	// prompt before the next line arrives.
	InterruptSettle time.Duration
}

// Registry maps session names to their live Session.
type Registry struct {
	factory Factory
	opts    Options

	mu       sync.Mutex
	sessions map[string]*Session
	group    singleflight.Group
}

// NewRegistry returns a Registry that starts backends with factory.
func NewRegistry(factory Factory, opts Options) *Registry {
	return &Registry{
		factory:  factory,
		opts:     opts,
		sessions: make(map[string]*Session),
	}
}

// Acquire returns the live session for name, starting one if none exists or
// the previous one has exited. Concurrent callers share a single creation.
func (r *Registry) Acquire(ctx context.Context, name string) (*Session, error) {
	if s := r.live(name); s != nil {
		return s, nil
	}

	v, err, _ := r.group.Do(name, func() (any, error) {
		if s := r.live(name); s != nil {
			return s, nil
		}

		s, err := r.start(ctx, name)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.sessions[name] = s
		r.mu.Unlock()

		return s, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*Session), nil //nolint:forcetypeassert // group.Do only returns *Session values
}

// Lookup returns the live session for name without creating one.
func (r *Registry) Lookup(name string) (*Session, bool) {
	s := r.live(name)
	return s, s != nil
}

// Close terminates and forgets the named session, as when the user closes
// its terminal. The next Acquire starts a fresh one.
func (r *Registry) Close(name string) error {
	r.mu.Lock()
	s := r.sessions[name]
	delete(r.sessions, name)
	r.mu.Unlock()

	if s == nil {
		return nil
	}

	if err := s.close(); err != nil {
		return fmt.Errorf("close session %q: %w", name, err)
	}

	return nil
}

// CloseAll terminates every session.
func (r *Registry) CloseAll() {
	for _, name := range r.Names() {
		_ = r.Close(name)
	}
}

// Names lists registered session names in sorted order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.sessions))
	for name := range r.sessions {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

func (r *Registry) live(name string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[name]
	if !ok {
		return nil
	}

	if s.Closed() {
		delete(r.sessions, name)
		return nil
	}

	return s
}

func (r *Registry) start(ctx context.Context, name string) (*Session, error) {
	logger := sessionLogger(ctx, name)
	s := newSession(name, r.opts, logger)

	backend, err := r.factory(ctx, name, s.handleOutput)
	if err != nil {
		return nil, fmt.Errorf("start session %q: %w", name, err)
	}

	s.backend = backend

	observability.FromContext(ctx).Info(
		"session started",
		slog.String("component", "session"),
		slog.String("event.type", "session.start"),
		slog.String("session.name", name),
	)

	return s, nil
}
