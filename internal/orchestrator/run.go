package orchestrator

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/pebble-dev/pebblectl/internal/observability"
	"github.com/pebble-dev/pebblectl/internal/runner"
)

// RunRequest describes one build-and-install.
type RunRequest struct {
	// Platform is an explicit emulator platform; empty falls back to the
	// saved default or a prompt.
	Platform string

	// Phone installs on a phone instead of the emulator. PhoneIP may be
	// empty to use the saved address or a prompt.
	Phone   bool
	PhoneIP string

	Logs bool
	VNC  bool

	// Display watches the emulator's remote display while and after the
	// install runs. It implies VNC.
	Display bool
}

// Run resolves the target, gates on the toolchain, and builds and installs
// the project in the shared session. With Display set the reconnect loop
// runs alongside the install and Run returns when it ends.
func (o *Orchestrator) Run(ctx context.Context, req RunRequest) error {
	target, err := o.resolveTarget(ctx, req)
	if err != nil {
		return err
	}

	if _, err := o.EnsureToolchain(ctx); err != nil {
		return err
	}

	_, emulator := target.(runner.Emulator)
	watch := req.Display && emulator && o.Dialer != nil
	flags := runner.Flags{Logs: req.Logs, VNC: emulator && (req.VNC || req.Display)}

	observability.FromContext(ctx).Info("build and install requested",
		slog.String("component", "orchestrator"),
		slog.String("event.type", "orchestrator.run"),
		slog.String("runner.target", target.String()),
		slog.Bool("runner.logs", flags.Logs),
		slog.Bool("display.watch", watch),
	)

	if !watch {
		return o.install(ctx, target, flags)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return o.install(gctx, target, flags)
	})

	g.Go(func() error {
		return o.WatchDisplay(gctx)
	})

	return g.Wait()
}

func (o *Orchestrator) install(ctx context.Context, target runner.Target, flags runner.Flags) error {
	c, err := o.Runner.RunBuildAndInstall(ctx, target, flags)
	if err := o.completionError("pebble build/install", c, err); err != nil {
		return err
	}

	if err == nil && c.Tracked {
		o.out().Success("Installed on %s", target)
	}

	return nil
}

func (o *Orchestrator) resolveTarget(ctx context.Context, req RunRequest) (runner.Target, error) {
	if req.Phone || req.PhoneIP != "" {
		ip, err := o.SelectPhone(ctx, req.PhoneIP)
		if err != nil {
			return nil, err
		}

		return runner.Phone{Address: ip}, nil
	}

	p, err := o.SelectPlatform(ctx, req.Platform)
	if err != nil {
		return nil, err
	}

	return runner.Emulator{Platform: p.ID}, nil
}
