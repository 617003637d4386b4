// Package orchestrator implements the user-facing pebble actions on top of
// the toolchain gate, the shared session runner, the display reconnect loop
// and the debounce timers.
//
// Every action follows the same order: resolve the target (asking the user
// when nothing is configured), gate on a fresh toolchain probe, then send the
// command into the shared session.
package orchestrator

import (
	"errors"
	"time"

	"github.com/pebble-dev/pebblectl/internal/battery"
	"github.com/pebble-dev/pebblectl/internal/display"
	clierrors "github.com/pebble-dev/pebblectl/internal/errors"
	"github.com/pebble-dev/pebblectl/internal/output"
	"github.com/pebble-dev/pebblectl/internal/prompt"
	"github.com/pebble-dev/pebblectl/internal/runner"
	"github.com/pebble-dev/pebblectl/internal/session"
	"github.com/pebble-dev/pebblectl/internal/state"
	"github.com/pebble-dev/pebblectl/internal/terminal"
	"github.com/pebble-dev/pebblectl/internal/toolchain"
	"github.com/pebble-dev/pebblectl/internal/update"
)

// Settings is the persisted configuration the orchestrator reads and, when
// the user agrees, writes.
type Settings interface {
	DefaultPlatform() string
	PhoneIP() string
	Set(key string, value interface{}) error
}

// Workspace remembers where projects were last created.
type Workspace interface {
	LastPathOr(fallback string) string
	RememberPath(dir string) error
}

// StateWorkspace is the Workspace backed by the state file.
type StateWorkspace struct{}

// LastPathOr implements Workspace.
func (StateWorkspace) LastPathOr(fallback string) string {
	st, err := state.Load()
	if err != nil {
		return fallback
	}

	return st.LastPathOr(fallback)
}

// RememberPath implements Workspace.
func (StateWorkspace) RememberPath(dir string) error {
	return state.RememberPath(dir)
}

// Orchestrator runs pebble actions.
type Orchestrator struct {
	Prober   toolchain.Prober
	Upgrader *update.Upgrader
	Policy   toolchain.Policy
	Runner   *runner.Runner

	Settings  Settings
	Workspace Workspace
	Chooser   prompt.Chooser
	Out       *output.Writer
	Env       terminal.Environment

	// Dialer reaches the emulator display.
	Dialer        display.Dialer
	RetryCeiling  int
	RetryInterval time.Duration

	// Debounce guards the Bluetooth disconnect countdown.
	Debounce      *battery.Guard
	DebounceTicks int

	// CompletionTimeout is reported when a wait times out.
	CompletionTimeout time.Duration
}

func (o *Orchestrator) chooser() prompt.Chooser {
	if o.Chooser == nil {
		return prompt.Disabled{}
	}

	return o.Chooser
}

func (o *Orchestrator) out() *output.Writer {
	if o.Out == nil {
		return output.Default()
	}

	return o.Out
}

// completionError maps the outcome of a session command to what the user
// sees. Cancelled and superseded waits are normal outcomes.
func (o *Orchestrator) completionError(what string, c session.Completion, err error) error {
	switch {
	case errors.Is(err, session.ErrWaitCancelled):
		o.out().Muted("Stopped waiting for %s; it keeps running in the session", what)
		return nil
	case errors.Is(err, session.ErrSuperseded):
		o.out().Muted("%s was interrupted by a newer command", what)
		return nil
	case errors.Is(err, session.ErrCompletionTimeout):
		return clierrors.WaitTimedOut(o.CompletionTimeout.String())
	case errors.Is(err, session.ErrSessionClosed):
		return clierrors.Wrap(clierrors.ExitExecution, "Session exited before "+what+" finished", err)
	case err != nil:
		return clierrors.Wrap(clierrors.ExitGeneral, what+" failed", err)
	case !c.Succeeded():
		return clierrors.CommandFailed(what, c.ExitCode)
	default:
		return nil
	}
}
