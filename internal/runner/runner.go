// Package runner composes toolchain command lines and dispatches them into
// the shared session, interrupting whatever ran there before.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/pebble-dev/pebblectl/internal/observability"
	"github.com/pebble-dev/pebblectl/internal/session"
	"github.com/pebble-dev/pebblectl/internal/terminal"
	"github.com/pebble-dev/pebblectl/internal/toolchain"
)

// DefaultLogsTimeout bounds logged installs inside Codespaces.
const DefaultLogsTimeout = 10 * time.Minute

// Sessions hands out the shared session.
type Sessions interface {
	Acquire(ctx context.Context, name string) (*session.Session, error)
}

// Runner sends commands into one named session. Calls never interleave: each
// interrupts the previous foreground command before its own line is written.
type Runner struct {
	Sessions    Sessions
	SessionName string
	Binary      string
	Env         terminal.Environment

	// LogsTimeout applies to logged installs when Env names a Codespace.
	LogsTimeout time.Duration

	// Wait makes build/install and control commands block until they finish.
	// Project creation always waits.
	Wait bool

	mu sync.Mutex
}

// New returns a Runner over sessions with defaults applied.
func New(sessions Sessions, env terminal.Environment) *Runner {
	return &Runner{
		Sessions:    sessions,
		SessionName: session.DefaultName,
		Binary:      toolchain.DefaultBinary,
		Env:         env,
		LogsTimeout: DefaultLogsTimeout,
	}
}

// RunBuildAndInstall builds the project in the session's directory and
// installs it on target.
func (r *Runner) RunBuildAndInstall(ctx context.Context, target Target, flags Flags) (session.Completion, error) {
	var timeout time.Duration
	if r.Env.RemoteContainer && r.Env.WorkspaceID != "" {
		timeout = r.LogsTimeout
	}

	line := BuildAndInstallCommand(r.binary(), target, flags, timeout)

	ctx, span := observability.StartSpan(ctx, "runner", "runner.build_install",
		attribute.String("runner.target", target.String()),
		attribute.Bool("runner.logs", flags.Logs),
	)

	c, err := r.dispatch(ctx, line, r.Wait)
	observability.EndSpan(span, err)

	return c, err
}

// Control runs an emulator-control or housekeeping action.
func (r *Runner) Control(ctx context.Context, action Action, platform string, vnc bool) (session.Completion, error) {
	if action.Emulator && platform == "" {
		return session.Completion{}, fmt.Errorf("%s needs an emulator platform", action.Name)
	}

	return r.dispatch(ctx, quote(action.Argv(r.binary(), platform, vnc)...), r.Wait)
}

// NewProject creates project name under dir from kind's template and waits
// for the toolchain to finish so the caller can inspect the exit status.
func (r *Runner) NewProject(ctx context.Context, dir, name string, kind ProjectKind) (session.Completion, error) {
	argv := append([]string{r.binary(), "new-project"}, kind.flags()...)
	argv = append(argv, name)

	return r.dispatch(ctx, cdAndRun(dir, argv...), true)
}

// Interrupt stops the session's foreground command.
func (r *Runner) Interrupt(ctx context.Context) error {
	s, err := r.Sessions.Acquire(ctx, r.sessionName())
	if err != nil {
		return fmt.Errorf("acquire session: %w", err)
	}

	return s.Interrupt()
}

// dispatch interrupts the session and submits line under the runner lock,
// then waits outside it so a later call can interrupt this one.
func (r *Runner) dispatch(ctx context.Context, line string, wait bool) (session.Completion, error) {
	r.mu.Lock()

	s, err := r.Sessions.Acquire(ctx, r.sessionName())
	if err != nil {
		r.mu.Unlock()
		return session.Completion{}, fmt.Errorf("acquire session: %w", err)
	}

	ticket, err := s.SubmitExclusive(line, wait)
	r.mu.Unlock()

	if err != nil {
		return session.Completion{}, fmt.Errorf("submit to session %q: %w", s.Name(), err)
	}

	observability.FromContext(ctx).Info(
		"command dispatched",
		slog.String("component", "runner"),
		slog.String("event.type", "runner.dispatch"),
		slog.String("session.name", s.Name()),
		slog.String("session.token", ticket.Token()),
		slog.String("runner.command", line),
	)

	return ticket.Wait(ctx)
}

func (r *Runner) binary() string {
	if r.Binary == "" {
		return toolchain.DefaultBinary
	}

	return r.Binary
}

func (r *Runner) sessionName() string {
	if r.SessionName == "" {
		return session.DefaultName
	}

	return r.SessionName
}
