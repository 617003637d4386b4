package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/pebble-dev/pebblectl/internal/display"
	clierrors "github.com/pebble-dev/pebblectl/internal/errors"
	"github.com/pebble-dev/pebblectl/internal/output"
)

// WatchDisplay keeps the emulator display connected until ctx ends or the
// retry ceiling is reached. Only exhaustion is an error.
func (o *Orchestrator) WatchDisplay(ctx context.Context) error {
	loop := display.NewLoop(o.Dialer, o.RetryCeiling, o.RetryInterval, o.renderDisplayState)

	final := loop.Run(ctx)

	if final.Status == display.StatusExhausted {
		return clierrors.ConnectionExhausted(final.Attempt, final.Reason)
	}

	return nil
}

func (o *Orchestrator) renderDisplayState(st display.State) {
	w := o.out()

	switch st.Status {
	case display.StatusConnecting:
		if st.Attempt == 0 {
			w.Println(w.Badge(output.ToneMuted, "display"), "connecting")
		}
	case display.StatusConnected:
		w.Println(w.Badge(output.ToneSuccess, "display"), "connected")
	case display.StatusRetrying:
		w.Println(w.Badge(output.ToneWarning, "display"),
			fmt.Sprintf("waiting for emulator (attempt %d/%d)", st.Attempt, st.Ceiling))
	case display.StatusExhausted:
		w.Println(w.Badge(output.ToneFailure, "display"), "gave up")
	case display.StatusCancelled:
		w.Println(w.Badge(output.ToneMuted, "display"), "stopped")
	}
}

// PressButtons connects to the display once and presses each named button
// in order.
func (o *Orchestrator) PressButtons(ctx context.Context, names ...string) error {
	buttons := make([]display.Button, 0, len(names))

	for _, name := range names {
		b, err := display.ParseButton(name)
		if err != nil {
			return clierrors.InvalidArgument("button", name, "back, up, select or down")
		}

		buttons = append(buttons, b)
	}

	conn, err := o.Dialer.Dial(ctx)
	if err != nil {
		return clierrors.Wrap(clierrors.ExitConnection, "Emulator display unreachable", err).
			WithHint("Start the emulator with 'pebblectl run --vnc' first")
	}
	defer conn.Close()

	pressed := make([]string, 0, len(buttons))

	for _, b := range buttons {
		if err := display.Press(ctx, conn, b); err != nil {
			return clierrors.Wrap(clierrors.ExitConnection, "Failed to press "+b.Name, err)
		}

		pressed = append(pressed, b.Name)
	}

	o.out().Success("Pressed %s", strings.Join(pressed, ", "))

	return nil
}
