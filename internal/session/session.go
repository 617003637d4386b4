// Package session owns the shared interactive shell that toolchain commands
// run in. A Registry hands out at most one live Session per name and
// transparently replaces sessions whose shell has exited.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pebble-dev/pebblectl/internal/ansi"
	"github.com/pebble-dev/pebblectl/internal/observability"
)

// DefaultName is the logical name of the shared build/install session.
const DefaultName = "Pebble Run"

// DefaultCompletionTimeout bounds how long Send waits for a marker.
const DefaultCompletionTimeout = 10 * time.Minute

// Errors returned by Send when waiting for completion.
var (
	ErrWaitCancelled     = errors.New("wait for command completion cancelled")
	ErrSuperseded        = errors.New("command superseded by a newer submission")
	ErrCompletionTimeout = errors.New("timed out waiting for command completion")
	ErrSessionClosed     = errors.New("session closed before command completed")
)

// Completion reports how a submitted line finished.
type Completion struct {
	Token    string
	ExitCode int

	// Tracked is false when the line was sent fire-and-forget; ExitCode is
	// then meaningless.
	Tracked bool
}

// Succeeded reports whether a tracked line exited zero. Untracked
// submissions count as successful.
func (c Completion) Succeeded() bool {
	return !c.Tracked || c.ExitCode == 0
}

type outcome struct {
	completion Completion
	err        error
}

type pending struct {
	token string
	line  string
	done  chan outcome
}

// Session is one live shell. Submissions are totally ordered.
type Session struct {
	name    string
	shell   string
	backend Backend

	// sendMu serializes writes so interrupt-then-send is atomic.
	sendMu sync.Mutex

	mu      sync.Mutex
	pending *pending
	lines   ansi.LineBuffer

	completionTimeout time.Duration
	interruptSettle   time.Duration
	logger            *slog.Logger
}

func newSession(name string, opts Options, logger *slog.Logger) *Session {
	timeout := opts.CompletionTimeout
	if timeout <= 0 {
		timeout = DefaultCompletionTimeout
	}

	return &Session{
		name:              name,
		shell:             opts.Shell,
		completionTimeout: timeout,
		interruptSettle:   opts.InterruptSettle,
		logger:            logger,
	}
}

// Name returns the session's logical name.
func (s *Session) Name() string {
	return s.name
}

// Closed reports whether the underlying process has exited.
func (s *Session) Closed() bool {
	select {
	case <-s.backend.Done():
		return true
	default:
		return false
	}
}

// Interrupt sends Ctrl-C to the foreground command. The session stays open.
func (s *Session) Interrupt() error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	return s.interruptLocked()
}

func (s *Session) interruptLocked() error {
	s.logger.Debug("interrupting session", slog.String("event.type", "session.interrupt"))

	if err := s.backend.Interrupt(); err != nil {
		return fmt.Errorf("interrupt session %q: %w", s.name, err)
	}

	if s.interruptSettle > 0 {
		time.Sleep(s.interruptSettle)
	}

	return nil
}

// Ticket is a submitted line whose completion can be awaited.
type Ticket struct {
	s *Session
	p *pending
}

// Token identifies the submission.
func (t Ticket) Token() string {
	return t.p.token
}

// Wait blocks until the submission completes, is superseded, ctx is
// cancelled, or the completion timeout elapses. Cancelling the wait leaves
// the command running. Untracked submissions return immediately.
func (t Ticket) Wait(ctx context.Context) (Completion, error) {
	return t.s.await(ctx, t.p)
}

// Submit writes line without waiting. With wait set and a backend that
// tracks completion, the returned Ticket resolves when the line finishes.
func (s *Session) Submit(line string, wait bool) (Ticket, error) {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	return s.submitLocked(line, wait)
}

// SubmitExclusive interrupts whatever is running and submits line with no
// other submission able to slip in between.
func (s *Session) SubmitExclusive(line string, wait bool) (Ticket, error) {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	if err := s.interruptLocked(); err != nil {
		return Ticket{}, err
	}

	return s.submitLocked(line, wait)
}

// Send is Submit followed by Wait.
func (s *Session) Send(ctx context.Context, line string, wait bool) (Completion, error) {
	t, err := s.Submit(line, wait)
	if err != nil {
		return Completion{}, err
	}

	return t.Wait(ctx)
}

// SendExclusive is SubmitExclusive followed by Wait.
func (s *Session) SendExclusive(ctx context.Context, line string, wait bool) (Completion, error) {
	t, err := s.SubmitExclusive(line, wait)
	if err != nil {
		return Completion{}, err
	}

	return t.Wait(ctx)
}

func (s *Session) submitLocked(line string, wait bool) (Ticket, error) {
	p := &pending{token: newToken(), line: line}
	input := line

	tracked := wait && s.backend.TracksCompletion()
	if tracked {
		p.done = make(chan outcome, 1)
		input = withMarker(s.shell, line, p.token)

		s.mu.Lock()
		if prev := s.pending; prev != nil {
			prev.done <- outcome{err: ErrSuperseded}
		}
		s.pending = p
		s.mu.Unlock()
	}

	if _, err := s.backend.Write([]byte(input + "\r")); err != nil {
		if tracked {
			s.clearPending(p)
		}

		return Ticket{}, fmt.Errorf("write to session %q: %w", s.name, err)
	}

	s.logger.Debug(
		"command submitted",
		slog.String("event.type", "session.send"),
		slog.String("session.token", p.token),
		slog.Bool("session.wait", tracked),
	)

	return Ticket{s: s, p: p}, nil
}

func (s *Session) await(ctx context.Context, p *pending) (Completion, error) {
	if p.done == nil {
		return Completion{Token: p.token}, nil
	}

	timer := time.NewTimer(s.completionTimeout)
	defer timer.Stop()

	select {
	case out := <-p.done:
		return out.completion, out.err
	case <-ctx.Done():
		s.clearPending(p)
		return Completion{Token: p.token}, ErrWaitCancelled
	case <-timer.C:
		s.clearPending(p)
		return Completion{Token: p.token}, ErrCompletionTimeout
	case <-s.backend.Done():
		s.clearPending(p)
		return Completion{Token: p.token}, ErrSessionClosed
	}
}

func (s *Session) clearPending(p *pending) {
	s.mu.Lock()
	if s.pending == p {
		s.pending = nil
	}
	s.mu.Unlock()
}

// handleOutput is the backend's output callback. It resolves the pending
// submission when its marker line appears.
func (s *Session) handleOutput(chunk []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, line := range s.lines.Write(chunk) {
		token, code, ok := parseMarker(line)
		if !ok {
			continue
		}

		if s.pending == nil || s.pending.token != token {
			s.logger.Debug("ignoring stale completion marker", slog.String("session.token", token))
			continue
		}

		s.pending.done <- outcome{completion: Completion{Token: token, ExitCode: code, Tracked: true}}
		s.pending = nil

		s.logger.Debug(
			"command completed",
			slog.String("event.type", "session.complete"),
			slog.String("session.token", token),
			slog.Int("process.exit_code", code),
		)
	}
}

func (s *Session) close() error {
	return s.backend.Close()
}

func sessionLogger(ctx context.Context, name string) *slog.Logger {
	return observability.FromContext(ctx).With(
		slog.String("component", "session"),
		slog.String("session.name", name),
	)
}
