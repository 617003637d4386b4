package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"

	"github.com/google/shlex"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	clierrors "github.com/pebble-dev/pebblectl/internal/errors"
	"github.com/pebble-dev/pebblectl/internal/observability"
	"github.com/pebble-dev/pebblectl/internal/orchestrator"
	"github.com/pebble-dev/pebblectl/internal/output"
	"github.com/pebble-dev/pebblectl/internal/prompt"
	"github.com/pebble-dev/pebblectl/internal/runner"
	"github.com/pebble-dev/pebblectl/internal/toolchain"
)

const sessionHelp = `Commands:
  run [-e platform] [--phone] [--ip addr] [--logs] [--vnc]
  battery <percent> [--charging]
  bluetooth <on|off>
  bt-disconnect
  cancel
  tap <direction>
  time-format <12h|24h>
  timeline-peek <on|off>
  app-config | kill | wipe
  press <button>...
  watch
  new-project [name] [--type c|simple|js] [--dir path]
  status
  interrupt
  help
  exit`

func newSessionCmd() *cobra.Command {
	var req orchestrator.EmulatorRequest

	cmd := &cobra.Command{
		Use:   "session",
		Short: "Keep one pebble session open for many commands",
		Long: `Start the shared pebble shell session and read commands from the terminal,
running each one in that session. The session, its working directory and any
running emulator stay alive between commands until you type exit.

Ctrl-C stops waiting for the current command; it keeps running in the
session. Type interrupt to stop it.`,
		Example: `  pebblectl session
  pebblectl session -e basalt`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt)
			defer signal.Stop(sigCh)

			repl := &sessionREPL{
				orch:     a.orch,
				runner:   a.runner,
				out:      a.out,
				defaults: req,
				signals:  sigCh,
			}

			return repl.run(cmd.Context(), cmd.InOrStdin())
		},
	}

	cmd.Flags().StringVarP(&req.Platform, "emulator", "e", "", "Default emulator platform for this session")
	cmd.Flags().BoolVar(&req.VNC, "vnc", false, "Target emulators started with --vnc")

	_ = cmd.RegisterFlagCompletionFunc("emulator", completePlatforms)

	return cmd
}

// sessionREPL dispatches typed commands into one orchestrator.
type sessionREPL struct {
	orch     *orchestrator.Orchestrator
	runner   *runner.Runner
	out      *output.Writer
	defaults orchestrator.EmulatorRequest
	signals  <-chan os.Signal

	// background tracks a running bt-disconnect countdown.
	background sync.WaitGroup
	countdown  bool
}

func (r *sessionREPL) run(ctx context.Context, in io.Reader) error {
	logger := observability.FromContext(ctx).With(slog.String("component", "session_repl"))

	// The reader only scans when asked so prompts inside a command can read
	// stdin themselves.
	want := make(chan struct{})
	lines := make(chan string)
	readErr := make(chan error, 1)

	go func() {
		scanner := bufio.NewScanner(in)
		for range want {
			if !scanner.Scan() {
				err := scanner.Err()
				if err == nil {
					err = io.EOF
				}

				readErr <- err

				return
			}

			lines <- scanner.Text()
		}
	}()
	defer close(want)
	defer r.stopCountdown()

	r.out.Muted("Type help for commands, exit to quit.")

	pending := false

	for {
		if !pending {
			r.out.Print("pebble> ")
			want <- struct{}{}
			pending = true
		}

		select {
		case <-ctx.Done():
			return nil
		case <-r.signals:
			r.out.Println()
			r.out.Muted("Type exit to quit")
			r.out.Print("pebble> ")
		case err := <-readErr:
			r.out.Println()

			if errors.Is(err, io.EOF) {
				return nil
			}

			return err
		case line := <-lines:
			pending = false

			if quit := r.handle(ctx, logger, line); quit {
				return nil
			}
		}
	}
}

// handle runs one line. It reports whether the session should end.
func (r *sessionREPL) handle(ctx context.Context, logger *slog.Logger, line string) bool {
	argv, err := shlex.Split(line)
	if err != nil {
		r.out.Failure("Cannot parse %q: %v", line, err)
		return false
	}

	if len(argv) == 0 {
		return false
	}

	switch argv[0] {
	case "exit", "quit":
		return true
	case "help", "?":
		r.out.Println(sessionHelp)
		return false
	case "cancel":
		if r.orch.CancelDebounce() {
			r.out.Muted("Countdown cancelled")
		} else {
			r.out.Muted("No Bluetooth countdown running")
		}

		return false
	}

	cmdCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Drop a stale Ctrl-C from the prompt before the command starts.
	select {
	case <-r.signals:
	default:
	}

	go func() {
		select {
		case <-r.signals:
			cancel()
		case <-cmdCtx.Done():
		}
	}()

	logger.Debug("session command", slog.String("event.type", "session_repl.command"), slog.String("repl.command", argv[0]))

	if err := r.dispatch(cmdCtx, argv[0], argv[1:]); err != nil {
		r.report(err)
	}

	return false
}

func (r *sessionREPL) report(err error) {
	if prompt.IsCancelled(err) {
		r.out.Muted("Cancelled")
		return
	}

	var cliErr *clierrors.CLIError
	if clierrors.As(err, &cliErr) {
		r.out.Failure("%s", cliErr.Message)

		if cliErr.Hint != "" {
			r.out.Info("%s", cliErr.Hint)
		}

		return
	}

	r.out.Failure("%s", err)
}

func (r *sessionREPL) dispatch(ctx context.Context, name string, args []string) error {
	switch name {
	case "run":
		req, err := parseSessionRun(args, r.defaults)
		if err != nil {
			return err
		}

		return r.orch.Run(ctx, req)
	case "bt-disconnect":
		return r.startCountdown(ctx)
	case "press":
		return r.orch.PressButtons(ctx, args...)
	case "watch":
		return r.orch.WatchDisplay(ctx)
	case "new-project":
		req, err := parseSessionProject(args)
		if err != nil {
			return err
		}

		_, err = r.orch.NewProject(ctx, req)

		return err
	case "status":
		st, err := r.orch.EnsureToolchain(ctx)
		if err != nil {
			return err
		}

		r.out.Success("pebble tool %s, SDK %s", toolchain.FormatVersion(st.Tool), toolchain.FormatVersion(st.SDK))

		return nil
	case "interrupt":
		if err := r.runner.Interrupt(ctx); err != nil {
			return err
		}

		r.out.Muted("Interrupted")

		return nil
	}

	action, err := sessionAction(name, args)
	if err != nil {
		return err
	}

	if err := r.orch.Emulate(ctx, r.defaults, action); err != nil {
		return err
	}

	if ctx.Err() == nil {
		r.out.Success("Sent %s", action.Name)
	}

	return nil
}

// startCountdown resolves the platform in the foreground, then runs the
// Bluetooth countdown in the background until it ends or cancel is typed.
func (r *sessionREPL) startCountdown(ctx context.Context) error {
	p, err := r.orch.SelectPlatform(ctx, r.defaults.Platform)
	if err != nil {
		return err
	}

	req := r.defaults
	req.Platform = p.ID

	r.countdown = true
	r.background.Add(1)

	go func() {
		defer r.background.Done()

		if err := r.orch.DisconnectBluetooth(context.WithoutCancel(ctx), req); err != nil {
			r.report(err)
		}
	}()

	r.out.Muted("Type cancel to reconnect before the countdown ends")

	return nil
}

// stopCountdown cancels a running countdown, which reconnects Bluetooth, and
// waits for it to finish.
func (r *sessionREPL) stopCountdown() {
	if r.countdown {
		r.orch.CancelDebounce()
	}

	r.background.Wait()
}

func parseSessionRun(args []string, defaults orchestrator.EmulatorRequest) (orchestrator.RunRequest, error) {
	req := orchestrator.RunRequest{Platform: defaults.Platform, VNC: defaults.VNC}

	fs := pflag.NewFlagSet("run", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVarP(&req.Platform, "emulator", "e", req.Platform, "")
	fs.BoolVar(&req.Phone, "phone", false, "")
	fs.StringVar(&req.PhoneIP, "ip", "", "")
	fs.BoolVar(&req.Logs, "logs", false, "")
	fs.BoolVar(&req.VNC, "vnc", req.VNC, "")

	if err := fs.Parse(args); err != nil {
		return req, clierrors.New(clierrors.ExitUsage, err.Error()).WithHint("Type help for commands")
	}

	return req, nil
}

func parseSessionProject(args []string) (orchestrator.ProjectRequest, error) {
	var req orchestrator.ProjectRequest

	fs := pflag.NewFlagSet("new-project", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVarP(&req.Kind, "type", "t", "", "")
	fs.StringVar(&req.Dir, "dir", "", "")

	if err := fs.Parse(args); err != nil {
		return req, clierrors.New(clierrors.ExitUsage, err.Error()).WithHint("Type help for commands")
	}

	if fs.NArg() > 1 {
		return req, clierrors.New(clierrors.ExitUsage, "new-project takes at most one name")
	}

	req.Name = fs.Arg(0)

	return req, nil
}

// sessionAction parses an emulator-control command line.
func sessionAction(name string, args []string) (runner.Action, error) {
	arg := func() (string, error) {
		if len(args) == 0 {
			return "", clierrors.New(clierrors.ExitUsage, fmt.Sprintf("%s needs an argument", name)).WithHint("Type help for commands")
		}

		return args[0], nil
	}

	switch name {
	case "battery":
		v, err := arg()
		if err != nil {
			return runner.Action{}, err
		}

		percent, err := strconv.Atoi(v)
		if err != nil {
			return runner.Action{}, clierrors.InvalidArgument("battery percent", v, "a number from 0 to 100")
		}

		charging := len(args) > 1 && args[1] == "--charging"

		action, err := runner.Battery(percent, charging)
		if err != nil {
			return runner.Action{}, clierrors.InvalidArgument("battery percent", v, "a number from 0 to 100")
		}

		return action, nil
	case "bluetooth":
		v, err := arg()
		if err != nil {
			return runner.Action{}, err
		}

		on, err := parseOnOff("bluetooth state", v)
		if err != nil {
			return runner.Action{}, err
		}

		return runner.Bluetooth(on), nil
	case "tap":
		v, err := arg()
		if err != nil {
			return runner.Action{}, err
		}

		action, err := runner.Tap(v)
		if err != nil {
			return runner.Action{}, clierrors.InvalidArgument("tap direction", v, strings.Join(runner.TapDirections, ", "))
		}

		return action, nil
	case "time-format":
		v, err := arg()
		if err != nil {
			return runner.Action{}, err
		}

		action, err := runner.TimeFormat(v)
		if err != nil {
			return runner.Action{}, clierrors.InvalidArgument("time format", v, "12h or 24h")
		}

		return action, nil
	case "timeline-peek":
		v, err := arg()
		if err != nil {
			return runner.Action{}, err
		}

		on, err := parseOnOff("timeline quick view", v)
		if err != nil {
			return runner.Action{}, err
		}

		return runner.TimelineQuickView(on), nil
	case "app-config":
		return runner.AppConfig(), nil
	case "kill":
		return runner.Kill(), nil
	case "wipe":
		return runner.Wipe(), nil
	default:
		return runner.Action{}, clierrors.New(clierrors.ExitUsage, fmt.Sprintf("Unknown command %q", name)).WithHint("Type help for commands")
	}
}
