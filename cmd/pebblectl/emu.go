package main

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	clierrors "github.com/pebble-dev/pebblectl/internal/errors"
	"github.com/pebble-dev/pebblectl/internal/orchestrator"
	"github.com/pebble-dev/pebblectl/internal/runner"
)

func newEmuCmd() *cobra.Command {
	var req orchestrator.EmulatorRequest

	cmd := &cobra.Command{
		Use:   "emu",
		Short: "Control a running emulator",
		Long: `Send control commands to the emulator through the shared pebble session.

Each command interrupts whatever the session is running, then sends the
control command. The platform comes from --emulator, the saved default
platform, or a prompt.`,
	}

	cmd.PersistentFlags().StringVarP(&req.Platform, "emulator", "e", "", "Emulator platform ("+strings.Join(runner.PlatformIDs(), ", ")+")")
	cmd.PersistentFlags().BoolVar(&req.VNC, "vnc", false, "Target an emulator started with --vnc")

	_ = cmd.RegisterFlagCompletionFunc("emulator", completePlatforms)

	cmd.AddCommand(newEmuBatteryCmd(&req))
	cmd.AddCommand(newEmuBluetoothCmd(&req))
	cmd.AddCommand(newEmuBTDisconnectCmd(&req))
	cmd.AddCommand(newEmuTapCmd(&req))
	cmd.AddCommand(newEmuTimeFormatCmd(&req))
	cmd.AddCommand(newEmuTimelinePeekCmd(&req))
	cmd.AddCommand(newEmuAppConfigCmd(&req))
	cmd.AddCommand(newEmuKillCmd(&req))
	cmd.AddCommand(newEmuWipeCmd(&req))

	return cmd
}

// emulate runs action with the shared emulator flags.
func emulate(cmd *cobra.Command, req *orchestrator.EmulatorRequest, action runner.Action) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signalContext(cmd)
	defer stop()

	if err := a.orch.Emulate(ctx, *req, action); err != nil {
		return err
	}

	if ctx.Err() == nil {
		a.out.Success("Sent %s", action.Name)
	}

	return nil
}

func parseOnOff(name, value string) (bool, error) {
	switch strings.ToLower(value) {
	case "on", "yes", "true":
		return true, nil
	case "off", "no", "false":
		return false, nil
	default:
		return false, clierrors.InvalidArgument(name, value, "on or off")
	}
}

func newEmuBatteryCmd(req *orchestrator.EmulatorRequest) *cobra.Command {
	var charging bool

	cmd := &cobra.Command{
		Use:   "battery <percent>",
		Short: "Set the emulated battery level",
		Long:  `Set the emulated battery charge (0-100) and whether the charger is connected.`,
		Example: `  pebblectl emu battery 20
  pebblectl emu battery 80 --charging -e basalt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			percent, err := strconv.Atoi(args[0])
			if err != nil {
				return clierrors.InvalidArgument("battery percent", args[0], "a number from 0 to 100")
			}

			action, err := runner.Battery(percent, charging)
			if err != nil {
				return clierrors.InvalidArgument("battery percent", args[0], "a number from 0 to 100")
			}

			return emulate(cmd, req, action)
		},
	}

	cmd.Flags().BoolVar(&charging, "charging", false, "Report the charger as connected")

	return cmd
}

func newEmuBluetoothCmd(req *orchestrator.EmulatorRequest) *cobra.Command {
	return &cobra.Command{
		Use:       "bluetooth <on|off>",
		Short:     "Connect or disconnect the emulated phone",
		Long:      `Set whether the emulator reports its phone connection as up or down.`,
		Example:   `  pebblectl emu bluetooth off`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			on, err := parseOnOff("bluetooth state", args[0])
			if err != nil {
				return err
			}

			return emulate(cmd, req, runner.Bluetooth(on))
		},
	}
}

func newEmuBTDisconnectCmd(req *orchestrator.EmulatorRequest) *cobra.Command {
	return &cobra.Command{
		Use:   "bt-disconnect",
		Short: "Drop the phone link long enough to notice",
		Long: `Disconnect the emulated phone and hold it down while a progress bar runs,
long enough for the watch to report the link as lost.

Press Ctrl-C to cut the wait short; the link is then reconnected.`,
		Example: `  pebblectl emu bt-disconnect -e basalt`,
		Args:    noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			ctx, stop := signalContext(cmd)
			defer stop()

			return a.orch.DisconnectBluetooth(ctx, *req)
		},
	}
}

func newEmuTapCmd(req *orchestrator.EmulatorRequest) *cobra.Command {
	return &cobra.Command{
		Use:       "tap <direction>",
		Short:     "Emulate a wrist tap",
		Long:      `Emulate an accelerometer tap along an axis: ` + strings.Join(runner.TapDirections, ", ") + `.`,
		Example:   `  pebblectl emu tap x+`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: runner.TapDirections,
		RunE: func(cmd *cobra.Command, args []string) error {
			action, err := runner.Tap(args[0])
			if err != nil {
				return clierrors.InvalidArgument("tap direction", args[0], strings.Join(runner.TapDirections, ", "))
			}

			return emulate(cmd, req, action)
		},
	}
}

func newEmuTimeFormatCmd(req *orchestrator.EmulatorRequest) *cobra.Command {
	return &cobra.Command{
		Use:       "time-format <12h|24h>",
		Short:     "Switch the emulated clock format",
		Long:      `Switch the emulator between 12-hour and 24-hour time display.`,
		Example:   `  pebblectl emu time-format 24h`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"12h", "24h"},
		RunE: func(cmd *cobra.Command, args []string) error {
			action, err := runner.TimeFormat(args[0])
			if err != nil {
				return clierrors.InvalidArgument("time format", args[0], "12h or 24h")
			}

			return emulate(cmd, req, action)
		},
	}
}

func newEmuTimelinePeekCmd(req *orchestrator.EmulatorRequest) *cobra.Command {
	return &cobra.Command{
		Use:       "timeline-peek <on|off>",
		Short:     "Toggle the timeline quick view",
		Long:      `Show or hide the timeline quick view overlay on the emulator.`,
		Example:   `  pebblectl emu timeline-peek on`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			on, err := parseOnOff("timeline quick view", args[0])
			if err != nil {
				return err
			}

			return emulate(cmd, req, runner.TimelineQuickView(on))
		},
	}
}

func newEmuAppConfigCmd(req *orchestrator.EmulatorRequest) *cobra.Command {
	return &cobra.Command{
		Use:   "app-config",
		Short: "Open the app configuration page",
		Long: `Open the installed app's configuration page in a browser. Not available
inside a remote container, where no local browser can be opened.`,
		Example: `  pebblectl emu app-config -e basalt`,
		Args:    noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return emulate(cmd, req, runner.AppConfig())
		},
	}
}

func newEmuKillCmd(req *orchestrator.EmulatorRequest) *cobra.Command {
	return &cobra.Command{
		Use:     "kill",
		Short:   "Stop the emulator",
		Long:    `Stop every running emulator and its helper processes.`,
		Example: `  pebblectl emu kill`,
		Args:    noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return emulate(cmd, req, runner.Kill())
		},
	}
}

func newEmuWipeCmd(req *orchestrator.EmulatorRequest) *cobra.Command {
	return &cobra.Command{
		Use:     "wipe",
		Short:   "Wipe emulator state",
		Long:    `Remove all emulator state (installed apps, settings) and cached SDK data.`,
		Example: `  pebblectl emu wipe`,
		Args:    noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return emulate(cmd, req, runner.Wipe())
		},
	}
}
