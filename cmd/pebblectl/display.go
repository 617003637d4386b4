package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pebble-dev/pebblectl/internal/display"
)

func newDisplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "display",
		Short: "Watch and control the emulator display",
		Long: `Connect to the emulator's remote display endpoint (display.url), which the
emulator serves when started with --vnc.`,
	}

	cmd.AddCommand(newDisplayWatchCmd())
	cmd.AddCommand(newDisplayPressCmd())

	return cmd
}

func newDisplayWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow the emulator display connection",
		Long: `Connect to the emulator display and reconnect whenever it drops, until
display.retry_ceiling consecutive attempts fail or you press Ctrl-C.`,
		Example: `  pebblectl display watch
  PEBBLECTL_DISPLAY_RETRY_CEILING=60 pebblectl display watch`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			ctx, stop := signalContext(cmd)
			defer stop()

			return a.orch.WatchDisplay(ctx)
		},
	}
}

func newDisplayPressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "press <button>...",
		Short: "Press watch buttons on the emulator",
		Long: fmt.Sprintf(`Press one or more watch buttons through the emulator display, in order.

Buttons: %s`, strings.Join(display.ButtonNames(), ", ")),
		Example: `  pebblectl display press select
  pebblectl display press up up select back`,
		Args:      cobra.MinimumNArgs(1),
		ValidArgs: display.ButtonNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			ctx, stop := signalContext(cmd)
			defer stop()

			return a.orch.PressButtons(ctx, args...)
		},
	}
}
