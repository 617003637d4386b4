package main

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pebble-dev/pebblectl/internal/config"
	clierrors "github.com/pebble-dev/pebblectl/internal/errors"
	"github.com/pebble-dev/pebblectl/internal/output"
	"github.com/pebble-dev/pebblectl/internal/runner"
	"github.com/pebble-dev/pebblectl/internal/toolchain"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `View and modify pebblectl configuration settings.

Settings are read from config.yaml in the pebblectl config directory and can
be overridden with PEBBLECTL_* environment variables, for example
PEBBLECTL_DEFAULT_PLATFORM or PEBBLECTL_DISPLAY_URL.`,
	}

	cmd.AddCommand(newConfigListCmd())
	cmd.AddCommand(newConfigGetCmd())
	cmd.AddCommand(newConfigSetCmd())

	return cmd
}

func newConfigListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configuration settings",
		Long:  `Display every configuration setting and its current value, defaults included.`,
		Example: `  pebblectl config list
  pebblectl config list --json`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())
			cfg := config.Load()

			if out.JSON {
				settings := make(map[string]any, len(config.KnownKeys()))
				for _, key := range config.KnownKeys() {
					settings[key] = cfg.Get(key)
				}

				return out.PrintJSON(settings)
			}

			for _, key := range config.KnownKeys() {
				out.Print("%s = %v\n", key, cfg.Get(key))
			}

			if cfg.File() != "" {
				out.Println()
				out.Muted("Config file: %s", cfg.File())
			}

			return nil
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "get <key>",
		Short:   "Get a configuration value",
		Long:    `Retrieve and display the current value of a single configuration key.`,
		Example: `  pebblectl config get default_platform`,
		Args:    cobra.ExactArgs(1),
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}

			return config.KnownKeys(), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())
			key := args[0]

			if !config.IsKnownKey(key) {
				return unknownKey(key)
			}

			value := config.Load().Get(key)

			if out.JSON {
				return out.PrintJSON(map[string]any{key: value})
			}

			if value == nil || value == "" {
				out.Muted("%s is not set", key)
				return nil
			}

			out.Print("%s = %v\n", key, value)

			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration key to the given value. The value is checked and then
persisted to the config file.`,
		Example: `  pebblectl config set default_platform basalt
  pebblectl config set phone_ip 192.168.1.20
  pebblectl config set display.retry_interval 5s`,
		Args: cobra.ExactArgs(2),
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			switch {
			case len(args) == 0:
				return config.KnownKeys(), cobra.ShellCompDirectiveNoFileComp
			case len(args) == 1 && args[0] == config.KeyDefaultPlatform:
				return runner.PlatformIDs(), cobra.ShellCompDirectiveNoFileComp
			default:
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())

			value, err := normalizeSetting(args[0], args[1])
			if err != nil {
				return err
			}

			if err := config.Load().Set(args[0], value); err != nil {
				return clierrors.ConfigFailed("set config", err)
			}

			out.Success("Set %s = %v", args[0], value)

			return nil
		},
	}
}

// normalizeSetting validates value for key and converts it to the type
// stored in the config file.
func normalizeSetting(key, value string) (any, error) {
	value = strings.TrimSpace(value)

	switch key {
	case config.KeyDefaultPlatform:
		p, ok := runner.LookupPlatform(value)
		if !ok {
			return nil, clierrors.UnknownPlatform(value, runner.PlatformIDs())
		}

		return p.ID, nil
	case config.KeyPhoneIP:
		if net.ParseIP(value) == nil {
			return nil, clierrors.InvalidArgument("phone IP", value, "an IPv4 or IPv6 address")
		}

		return value, nil
	case config.KeyMinToolVersion, config.KeyMinSDKVersion:
		v := toolchain.ParseVersion(value)
		if v == nil {
			return nil, clierrors.InvalidArgument(key, value, "a version like 5.0.6")
		}

		return v.String(), nil
	case config.KeyRetryCeiling, config.KeyBatteryTicks:
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return nil, clierrors.InvalidArgument(key, value, "a positive whole number")
		}

		return n, nil
	case config.KeyRetryInterval, config.KeyCompletionTimeout, config.KeyBatteryTick, config.KeyLogsTimeout:
		d, err := time.ParseDuration(value)
		if err != nil || d <= 0 {
			return nil, clierrors.InvalidArgument(key, value, "a duration like 2s or 10m")
		}

		return d.String(), nil
	case config.KeyInterruptSettle:
		d, err := time.ParseDuration(value)
		if err != nil || d < 0 {
			return nil, clierrors.InvalidArgument(key, value, "a duration like 100ms, or 0 to disable")
		}

		return d.String(), nil
	default:
		if !config.IsKnownKey(key) {
			return nil, unknownKey(key)
		}

		return value, nil
	}
}

func unknownKey(key string) error {
	return clierrors.New(clierrors.ExitConfig, fmt.Sprintf("Unknown config key %q", key)).
		WithHint("Known keys: " + strings.Join(config.KnownKeys(), ", "))
}
