package main

import (
	"fmt"

	"github.com/spf13/cobra"

	clierrors "github.com/pebble-dev/pebblectl/internal/errors"
	"github.com/pebble-dev/pebblectl/internal/output"
	"github.com/pebble-dev/pebblectl/internal/toolchain"
	"github.com/pebble-dev/pebblectl/internal/update"
)

func newToolchainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "toolchain",
		Short: "Inspect and upgrade the pebble toolchain",
		Long: `Inspect the installed pebble tool and SDKs, upgrade the tool, and install
or activate SDKs.

The minimum versions come from toolchain.min_tool_version and
toolchain.min_sdk_version.`,
	}

	cmd.AddCommand(newToolchainStatusCmd())
	cmd.AddCommand(newToolchainUpgradeCmd())
	cmd.AddCommand(newToolchainSDKCmd())

	return cmd
}

// ToolchainStatus is the JSON form of "toolchain status".
type ToolchainStatus struct {
	Tool        string `json:"tool"`
	SDK         string `json:"sdk"`
	MinTool     string `json:"minTool"`
	MinSDK      string `json:"minSdk"`
	UpgradeTool bool   `json:"upgradeTool"`
	InstallSDK  bool   `json:"installSdk"`
	Ready       bool   `json:"ready"`
}

func newToolchainStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show installed versions and what is missing",
		Long: `Probe the pebble tool and report its version, the active SDK, and whether
either is below the required minimum. Nothing is installed.`,
		Example: `  pebblectl toolchain status
  pebblectl toolchain status --json`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			decision := a.policy.Decide(a.prober.Probe(cmd.Context()))
			status := ToolchainStatus{
				Tool:        toolchain.FormatVersion(decision.Status.Tool),
				SDK:         toolchain.FormatVersion(decision.Status.SDK),
				MinTool:     a.policy.MinTool.String(),
				MinSDK:      a.policy.MinSDK.String(),
				UpgradeTool: decision.UpgradeTool,
				InstallSDK:  decision.InstallSDK,
				Ready:       decision.Ready(),
			}

			if a.out.JSON {
				return a.out.PrintJSON(status)
			}

			a.out.KeyValues([][2]string{
				{"Tool", fmt.Sprintf("%s (minimum %s)", status.Tool, status.MinTool)},
				{"Active SDK", fmt.Sprintf("%s (minimum %s)", status.SDK, status.MinSDK)},
			})
			a.out.Println()

			switch {
			case !decision.Status.Installed():
				a.out.Warning("pebble tool not installed; run 'pebblectl toolchain upgrade'")
			case decision.UpgradeTool:
				a.out.Warning("pebble tool is outdated; run 'pebblectl toolchain upgrade'")
			case decision.InstallSDK:
				a.out.Warning("SDK missing or outdated; run 'pebblectl toolchain sdk install'")
			default:
				a.out.Success("Toolchain ready")
			}

			return nil
		},
	}
}

func newToolchainUpgradeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upgrade",
		Short: "Install or upgrade the pebble tool",
		Long: `Run the configured upgrade command (toolchain.upgrade_command) and report
the resulting version. If the active SDK is missing or outdated afterwards,
the latest SDK is installed as well.`,
		Example: `  pebblectl toolchain upgrade
  PEBBLECTL_TOOLCHAIN_UPGRADE_COMMAND="pipx upgrade pebble-tool" pebblectl toolchain upgrade`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()

			res := withSpinner(a.out, "Upgrading pebble tool", func() update.Result {
				return a.upgrader.Upgrade(ctx)
			})
			if !res.OK {
				return clierrors.UpgradeFailed(res.ExitCode, res.Message())
			}

			// The gate re-probes and installs an SDK when one is still needed.
			st, err := a.orch.EnsureToolchain(ctx)
			if err != nil {
				return err
			}

			a.out.Success("pebble tool %s, SDK %s", toolchain.FormatVersion(st.Tool), toolchain.FormatVersion(st.SDK))

			return nil
		},
	}
}

func newToolchainSDKCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sdk",
		Short: "Manage installed SDKs",
		Long:  `List, install and activate pebble SDKs.`,
	}

	cmd.AddCommand(newToolchainSDKListCmd())
	cmd.AddCommand(newToolchainSDKInstallCmd())
	cmd.AddCommand(newToolchainSDKActivateCmd())

	return cmd
}

// SDKInfo is the JSON form of one "toolchain sdk list" row.
type SDKInfo struct {
	Version   string `json:"version"`
	Installed bool   `json:"installed"`
	Active    bool   `json:"active"`
}

func newToolchainSDKListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List installed and available SDKs",
		Long:  `List the SDKs reported by "pebble sdk list", marking the active one.`,
		Example: `  pebblectl toolchain sdk list
  pebblectl toolchain sdk list --json`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			entries, res := a.upgrader.ListSDKs(cmd.Context())
			if !res.OK {
				return clierrors.Wrap(clierrors.ExitToolchain, "Could not list SDKs", fmt.Errorf("%s", res.Message())).
					WithHint("Check the pebble tool with 'pebblectl doctor'")
			}

			infos := make([]SDKInfo, len(entries))
			for i, e := range entries {
				infos[i] = SDKInfo{Version: e.Version.String(), Installed: e.Installed, Active: e.Active}
			}

			if a.out.JSON {
				return a.out.PrintJSON(infos)
			}

			if len(infos) == 0 {
				a.out.Muted("No SDKs reported")
				return nil
			}

			for _, info := range infos {
				switch {
				case info.Active:
					a.out.Print("* %s %s\n", info.Version, a.out.Badge(output.ToneSuccess, "active"))
				case info.Installed:
					a.out.Print("  %s %s\n", info.Version, a.out.Badge(output.ToneInfo, "installed"))
				default:
					a.out.Print("  %s\n", info.Version)
				}
			}

			return nil
		},
	}
}

func newToolchainSDKInstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "install [version]",
		Short: "Install an SDK",
		Long:  `Install an SDK version, or the latest one when no version is given.`,
		Example: `  pebblectl toolchain sdk install
  pebblectl toolchain sdk install 4.6`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version := update.LatestSDK
			if len(args) == 1 {
				if toolchain.ParseVersion(args[0]) == nil && args[0] != update.LatestSDK {
					return clierrors.InvalidArgument("SDK version", args[0], "a version like 4.6 or 'latest'")
				}

				version = args[0]
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			res := withSpinner(a.out, "Installing SDK "+version, func() update.Result {
				return a.upgrader.InstallSDK(cmd.Context(), version)
			})
			if !res.OK {
				return clierrors.SDKInstallFailed(version, res.ExitCode, res.Message())
			}

			a.out.Success("Installed SDK %s", version)

			return nil
		},
	}
}

func newToolchainSDKActivateCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "activate <version>",
		Short:   "Make an installed SDK the active one",
		Long:    `Activate an installed SDK so builds use it.`,
		Example: `  pebblectl toolchain sdk activate 4.5`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v := toolchain.ParseVersion(args[0])
			if v == nil {
				return clierrors.InvalidArgument("SDK version", args[0], "a version like 4.5")
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			res := a.upgrader.ActivateSDK(cmd.Context(), *v)
			if !res.OK {
				return clierrors.SDKActivateFailed(v.String(), res.ExitCode, res.Message())
			}

			a.out.Success("Activated SDK %s", v)

			return nil
		},
	}
}

// withSpinner runs fn behind a spinner, skipping it in JSON mode so stdout
// stays parseable.
func withSpinner(out *output.Writer, message string, fn func() update.Result) update.Result {
	if out.JSON {
		return fn()
	}

	spin := out.Spinner(message)
	spin.Start()

	res := fn()
	if res.OK {
		spin.StopWithSuccess("")
	} else {
		spin.StopWithFailure("")
	}

	return res
}
