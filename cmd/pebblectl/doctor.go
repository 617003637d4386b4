package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/pebble-dev/pebblectl/internal/display"
	"github.com/pebble-dev/pebblectl/internal/doctor"
	"github.com/pebble-dev/pebblectl/internal/output"
)

// DoctorResult is the JSON form of one check.
type DoctorResult struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func newDoctorCmd() *cobra.Command {
	var displayTimeout time.Duration

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose common issues",
		Long: `Run diagnostic checks on the pebble toolchain and its surroundings.

Checks performed:
  - pebble tool presence and version against the minimum
  - Active SDK version against the minimum
  - Installed SDKs
  - Emulator display endpoint reachability
  - Config file location and workspace environment`,
		Example: `  pebblectl doctor
  pebblectl doctor --json`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			runner := doctor.New(doctor.Deps{
				Prober:         a.prober,
				Policy:         a.policy,
				Upgrader:       a.upgrader,
				Dialer:         display.NewWSDialer(a.cfg.DisplayURL()),
				DisplayURL:     a.cfg.DisplayURL(),
				ConfigFile:     a.cfg.File(),
				Env:            a.env,
				DisplayTimeout: displayTimeout,
			})
			results := runner.Run(cmd.Context())

			if a.out.JSON {
				rows := make([]DoctorResult, len(results))
				for i, r := range results {
					rows[i] = DoctorResult{Name: r.Name, Status: r.Status.String(), Message: r.Message, Detail: r.Detail}
				}

				return a.out.PrintJSON(rows)
			}

			renderDoctor(a.out, results)

			return nil
		},
	}

	cmd.Flags().DurationVar(&displayTimeout, "display-timeout", 3*time.Second, "How long to wait for the emulator display")

	return cmd
}

func renderDoctor(out *output.Writer, results []doctor.Result) {
	out.Println("pebblectl doctor")
	out.Println("================")
	out.Println()

	doctor.RenderResults(results, out.Print, out.Success, out.Warning, out.Failure, out.Muted)

	passed, failed, warnings := doctor.Summary(results)

	out.Println()
	out.Print("%d passed", passed)

	if failed > 0 {
		out.Print(", %d failed", failed)
	}

	if warnings > 0 {
		out.Print(", %d warning(s)", warnings)
	}

	out.Println()
}
