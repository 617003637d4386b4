package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pebble-dev/pebblectl/internal/battery"
	"github.com/pebble-dev/pebblectl/internal/config"
	"github.com/pebble-dev/pebblectl/internal/display"
	clierrors "github.com/pebble-dev/pebblectl/internal/errors"
	"github.com/pebble-dev/pebblectl/internal/orchestrator"
	"github.com/pebble-dev/pebblectl/internal/output"
	"github.com/pebble-dev/pebblectl/internal/prompt"
	"github.com/pebble-dev/pebblectl/internal/runner"
	"github.com/pebble-dev/pebblectl/internal/session"
	"github.com/pebble-dev/pebblectl/internal/terminal"
	"github.com/pebble-dev/pebblectl/internal/toolchain"
	"github.com/pebble-dev/pebblectl/internal/update"
)

// app holds the collaborators one command invocation works with.
type app struct {
	cfg      *config.Config
	out      *output.Writer
	env      terminal.Environment
	prober   *toolchain.Probe
	upgrader *update.Upgrader
	policy   toolchain.Policy
	registry *session.Registry
	runner   *runner.Runner
	orch     *orchestrator.Orchestrator
}

// newApp wires the orchestrator from configuration. Callers must defer
// close so the shared session's shell is stopped on exit.
func newApp(cmd *cobra.Command) (*app, error) {
	out := output.FromContext(cmd.Context())
	cfg := config.Load()
	env := terminal.DetectEnvironment()

	policy, err := policyFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	commander := toolchain.ExecCommander{}
	binary := cfg.ToolBinary()

	shell := cfg.SessionShell()
	if shell == "" {
		shell = session.DefaultShell()
	}

	var mirror io.Writer = out.Out
	if out.JSON || out.Quiet {
		mirror = io.Discard
	}

	dir, err := os.Getwd()
	if err != nil {
		dir = ""
	}

	registry := session.NewRegistry(
		session.NewPTYFactory(session.PTYOptions{Shell: shell, Dir: dir, Mirror: mirror}),
		session.Options{
			Shell:             shell,
			CompletionTimeout: cfg.CompletionTimeout(),
			InterruptSettle:   cfg.InterruptSettle(),
		},
	)

	r := runner.New(registry, env)
	r.SessionName = cfg.SessionName()
	r.Binary = binary
	r.LogsTimeout = cfg.LogsTimeout()
	// The session lives only as long as this process, so every command waits.
	r.Wait = true

	a := &app{
		cfg:      cfg,
		out:      out,
		env:      env,
		prober:   toolchain.NewProbe(commander, binary),
		upgrader: update.NewUpgrader(commander, binary, cfg.UpgradeCommand()),
		policy:   policy,
		registry: registry,
		runner:   r,
	}

	a.orch = &orchestrator.Orchestrator{
		Prober:            a.prober,
		Upgrader:          a.upgrader,
		Policy:            policy,
		Runner:            r,
		Settings:          cfg,
		Workspace:         orchestrator.StateWorkspace{},
		Chooser:           prompt.ForTerminal(out.Terminal(), out.NoInput, os.Stdin, os.Stderr),
		Out:               out,
		Env:               env,
		Dialer:            display.NewWSDialer(cfg.DisplayURL()),
		RetryCeiling:      cfg.RetryCeiling(),
		RetryInterval:     cfg.RetryInterval(),
		Debounce:          battery.NewGuard(cfg.BatteryTick()),
		DebounceTicks:     cfg.BatteryTicks(),
		CompletionTimeout: cfg.CompletionTimeout(),
	}

	return a, nil
}

func (a *app) close() {
	a.registry.CloseAll()
}

func policyFromConfig(cfg *config.Config) (toolchain.Policy, error) {
	policy := toolchain.DefaultPolicy()

	for _, item := range []struct {
		key    string
		target *toolchain.Version
	}{
		{config.KeyMinToolVersion, &policy.MinTool},
		{config.KeyMinSDKVersion, &policy.MinSDK},
	} {
		raw := cfg.GetString(item.key)
		if raw == "" {
			continue
		}

		v := toolchain.ParseVersion(raw)
		if v == nil {
			return policy, clierrors.InvalidArgument(item.key, raw, "a version like 5.0.6")
		}

		*item.target = *v
	}

	return policy, nil
}

// signalContext is cancelled on Ctrl-C or SIGTERM. Cancelling stops waits
// and loops; commands already running in the session are left alone.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}
