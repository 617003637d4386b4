package orchestrator

import (
	"context"
	"errors"
	"log/slog"

	"github.com/pebble-dev/pebblectl/internal/battery"
	clierrors "github.com/pebble-dev/pebblectl/internal/errors"
	"github.com/pebble-dev/pebblectl/internal/observability"
	"github.com/pebble-dev/pebblectl/internal/runner"
)

// bluetoothSubject keys the Bluetooth disconnect countdown in the guard.
const bluetoothSubject = "bluetooth"

// EmulatorRequest targets an emulator-control action.
type EmulatorRequest struct {
	Platform string
	VNC      bool
}

// Emulate runs action against the emulator. Actions that do not target an
// emulator (kill, wipe) skip platform selection.
func (o *Orchestrator) Emulate(ctx context.Context, req EmulatorRequest, action runner.Action) error {
	if action.Name == runner.AppConfig().Name && o.Env.RemoteContainer {
		return clierrors.UnsupportedInRemoteContainer("open the app config page")
	}

	var platform string

	if action.Emulator {
		p, err := o.SelectPlatform(ctx, req.Platform)
		if err != nil {
			return err
		}

		platform = p.ID
	}

	if _, err := o.EnsureToolchain(ctx); err != nil {
		return err
	}

	c, err := o.Runner.Control(ctx, action, platform, req.VNC)

	return o.completionError("pebble "+action.Name, c, err)
}

// DisconnectBluetooth drops the emulated phone link and counts down the
// watch's debounce delay. Cancelling the countdown (ctx or CancelDebounce)
// reconnects the link; letting it finish leaves the link down.
func (o *Orchestrator) DisconnectBluetooth(ctx context.Context, req EmulatorRequest) error {
	if _, busy := o.Debounce.Active(bluetoothSubject); busy {
		return clierrors.DebounceActive("Bluetooth disconnect")
	}

	p, err := o.SelectPlatform(ctx, req.Platform)
	if err != nil {
		return err
	}

	if _, err := o.EnsureToolchain(ctx); err != nil {
		return err
	}

	c, err := o.Runner.Control(ctx, runner.Bluetooth(false), p.ID, req.VNC)
	if err := o.completionError("pebble emu-bt-connection", c, err); err != nil {
		return err
	}

	ticks := o.DebounceTicks
	if ticks <= 0 {
		ticks = battery.DefaultTicks
	}

	bar := o.out().Progress("Bluetooth debounce")

	timer, err := o.Debounce.Start(ctx, bluetoothSubject, ticks, battery.Callbacks{
		OnTick: bar.Update,
	})
	if err != nil {
		if errors.Is(err, battery.ErrActive) {
			return clierrors.DebounceActive("Bluetooth disconnect")
		}

		return err
	}

	<-timer.Done()

	logger := observability.FromContext(ctx).With(
		slog.String("component", "orchestrator"),
		slog.String("debounce.subject", bluetoothSubject),
	)

	if !timer.Cancelled() {
		bar.Done("Phone link reported as lost")
		logger.Info("debounce completed", slog.String("event.type", "debounce.complete"))

		return nil
	}

	bar.Done("Countdown cancelled, reconnecting")
	logger.Info("debounce cancelled", slog.String("event.type", "debounce.cancel"),
		slog.Int("debounce.remaining", timer.Remaining()))

	// The reversal must run even though ctx is what cancelled the countdown.
	revert := context.WithoutCancel(ctx)
	c, err = o.Runner.Control(revert, runner.Bluetooth(true), p.ID, req.VNC)

	return o.completionError("pebble emu-bt-connection", c, err)
}

// CancelDebounce cancels a running Bluetooth countdown. It reports whether
// one was running.
func (o *Orchestrator) CancelDebounce() bool {
	return o.Debounce.Cancel(bluetoothSubject)
}
