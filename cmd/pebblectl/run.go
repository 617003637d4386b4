package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/pebble-dev/pebblectl/internal/orchestrator"
	"github.com/pebble-dev/pebblectl/internal/runner"
)

func newRunCmd() *cobra.Command {
	var req orchestrator.RunRequest

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Build the project and install it on a target",
		Long: `Build the project in the current directory and install it on an emulator
or a phone, in the shared pebble session.

The installed pebble tool and SDK are checked first. A missing or outdated
tool is upgraded and a missing SDK is installed before anything is built.

Without --emulator or --phone the saved default platform is used. When none
is saved you are asked to pick one and offered to save it.`,
		Example: `  pebblectl run --emulator basalt
  pebblectl run -e chalk --logs
  pebblectl run --phone --ip 192.168.1.20
  pebblectl run -e emery --display`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			ctx, stop := signalContext(cmd)
			defer stop()

			return a.orch.Run(ctx, req)
		},
	}

	cmd.Flags().StringVarP(&req.Platform, "emulator", "e", "", "Emulator platform ("+strings.Join(runner.PlatformIDs(), ", ")+")")
	cmd.Flags().BoolVar(&req.Phone, "phone", false, "Install on a phone instead of the emulator")
	cmd.Flags().StringVar(&req.PhoneIP, "ip", "", "Phone IP address (implies --phone)")
	cmd.Flags().BoolVar(&req.Logs, "logs", false, "Stream app logs after installing")
	cmd.Flags().BoolVar(&req.VNC, "vnc", false, "Start the emulator with a VNC display")
	cmd.Flags().BoolVar(&req.Display, "display", false, "Watch the emulator display while it runs (implies --vnc)")

	cmd.MarkFlagsMutuallyExclusive("emulator", "phone")
	cmd.MarkFlagsMutuallyExclusive("emulator", "ip")

	_ = cmd.RegisterFlagCompletionFunc("emulator", completePlatforms)

	return cmd
}

func completePlatforms(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return runner.PlatformIDs(), cobra.ShellCompDirectiveNoFileComp
}
