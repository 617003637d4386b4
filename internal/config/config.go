// Package config handles pebblectl configuration using Viper.
//
// Configuration sources (in priority order):
//  1. Command-line flags (bound by the cmd package)
//  2. Environment variables (PEBBLECTL_*)
//  3. Config file (<config root>/pebblectl/config.yaml)
//  4. Built-in defaults
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/pebble-dev/pebblectl/internal/paths"
)

// Keys understood by pebblectl.
const (
	KeyDefaultPlatform   = "default_platform"
	KeyPhoneIP           = "phone_ip"
	KeyMinToolVersion    = "toolchain.min_tool_version"
	KeyMinSDKVersion     = "toolchain.min_sdk_version"
	KeyUpgradeCommand    = "toolchain.upgrade_command"
	KeyToolBinary        = "toolchain.binary"
	KeyDisplayURL        = "display.url"
	KeyRetryCeiling      = "display.retry_ceiling"
	KeyRetryInterval     = "display.retry_interval"
	KeySessionShell      = "session.shell"
	KeySessionName       = "session.name"
	KeyCompletionTimeout = "session.completion_timeout"
	KeyInterruptSettle   = "session.interrupt_settle"
	KeyBatteryTick       = "battery.tick_interval"
	KeyBatteryTicks      = "battery.ticks"
	KeyLogsTimeout       = "run.logs_timeout"
)

const (
	// DefaultMinToolVersion is the lowest accepted pebble tool version.
	DefaultMinToolVersion = "5.0.6"
	// DefaultMinSDKVersion is the lowest accepted active SDK version.
	DefaultMinSDKVersion = "4.5.0"
	// DefaultUpgradeCommand installs or upgrades the pebble tool.
	DefaultUpgradeCommand = "uv tool install --upgrade pebble-tool"
	// DefaultDisplayURL is the emulator's websockify endpoint.
	DefaultDisplayURL = "ws://localhost:6080/websockify"
	// DefaultRetryCeiling is the number of consecutive reconnect failures
	// tolerated before giving up.
	DefaultRetryCeiling = 30
	// DefaultRetryInterval is the fixed delay between reconnect attempts.
	DefaultRetryInterval = 2 * time.Second
	// DefaultSessionName names the shared shell session.
	DefaultSessionName = "Pebble Run"
	// DefaultCompletionTimeout bounds how long a tracked command may run.
	DefaultCompletionTimeout = 10 * time.Minute
	// DefaultInterruptSettle is the pause after Ctrl-C before the next line.
	DefaultInterruptSettle = 100 * time.Millisecond
	// DefaultBatteryTick is the countdown step for the Bluetooth debounce.
	DefaultBatteryTick = time.Second
	// DefaultBatteryTicks is the countdown length for the Bluetooth debounce.
	DefaultBatteryTicks = 25
	// DefaultLogsTimeout bounds logged installs in remote workspaces.
	DefaultLogsTimeout = 10 * time.Minute
)

var knownKeys = map[string]bool{
	KeyDefaultPlatform:   true,
	KeyPhoneIP:           true,
	KeyMinToolVersion:    true,
	KeyMinSDKVersion:     true,
	KeyUpgradeCommand:    true,
	KeyToolBinary:        true,
	KeyDisplayURL:        true,
	KeyRetryCeiling:      true,
	KeyRetryInterval:     true,
	KeySessionShell:      true,
	KeySessionName:       true,
	KeyCompletionTimeout: true,
	KeyInterruptSettle:   true,
	KeyBatteryTick:       true,
	KeyBatteryTicks:      true,
	KeyLogsTimeout:       true,
}

// IsKnownKey reports whether key is a recognized configuration key.
func IsKnownKey(key string) bool {
	return knownKeys[key]
}

// KnownKeys returns every recognized key, sorted.
func KnownKeys() []string {
	keys := make([]string, 0, len(knownKeys))
	for k := range knownKeys {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

// Config holds the pebblectl configuration.
type Config struct {
	v    *viper.Viper
	file string
}

// Load reads configuration from all sources.
func Load() *Config {
	dir, err := paths.ConfigRoot()
	if err != nil {
		dir = ""
	}

	return LoadFrom(dir)
}

// LoadFrom reads configuration with dir as the config file directory. An
// empty dir disables the config file.
func LoadFrom(dir string) *Config {
	v := viper.New()

	v.SetDefault(KeyDefaultPlatform, "")
	v.SetDefault(KeyPhoneIP, "")
	v.SetDefault(KeyMinToolVersion, DefaultMinToolVersion)
	v.SetDefault(KeyMinSDKVersion, DefaultMinSDKVersion)
	v.SetDefault(KeyUpgradeCommand, DefaultUpgradeCommand)
	v.SetDefault(KeyToolBinary, "pebble")
	v.SetDefault(KeyDisplayURL, DefaultDisplayURL)
	v.SetDefault(KeyRetryCeiling, DefaultRetryCeiling)
	v.SetDefault(KeyRetryInterval, DefaultRetryInterval)
	v.SetDefault(KeySessionShell, "")
	v.SetDefault(KeySessionName, DefaultSessionName)
	v.SetDefault(KeyCompletionTimeout, DefaultCompletionTimeout)
	v.SetDefault(KeyInterruptSettle, DefaultInterruptSettle)
	v.SetDefault(KeyBatteryTick, DefaultBatteryTick)
	v.SetDefault(KeyBatteryTicks, DefaultBatteryTicks)
	v.SetDefault(KeyLogsTimeout, DefaultLogsTimeout)

	cfg := &Config{v: v}

	if dir != "" {
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		cfg.file = filepath.Join(dir, "config.yaml")
	}

	v.SetEnvPrefix("PEBBLECTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if dir != "" {
		// Read config file (ignore if not found, but warn on other errors)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				fmt.Fprintf(os.Stderr, "Warning: error reading config file: %v\n", err)
			}
		}
	}

	return cfg
}

// Viper exposes the underlying instance so flags can be bound to keys.
func (c *Config) Viper() *viper.Viper {
	return c.v
}

// File returns the path config.yaml is read from and written to.
func (c *Config) File() string {
	return c.file
}

// Get returns a configuration value.
func (c *Config) Get(key string) interface{} {
	return c.v.Get(key)
}

// GetString returns a configuration value as string.
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt returns a configuration value as int.
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetDuration returns a configuration value as a duration.
func (c *Config) GetDuration(key string) time.Duration {
	return c.v.GetDuration(key)
}

// Set sets a configuration value and persists it.
func (c *Config) Set(key string, value interface{}) error {
	if !IsKnownKey(key) {
		return fmt.Errorf("unknown config key %q", key)
	}

	c.v.Set(key, value)

	if c.file == "" {
		return fmt.Errorf("no config directory available")
	}

	if err := os.MkdirAll(filepath.Dir(c.file), 0o700); err != nil {
		return err
	}

	return c.v.WriteConfigAs(c.file)
}

// All returns all configuration as a map.
func (c *Config) All() map[string]interface{} {
	return c.v.AllSettings()
}

// DefaultPlatform returns the saved emulator platform, or "" when unset.
func (c *Config) DefaultPlatform() string {
	return c.GetString(KeyDefaultPlatform)
}

// PhoneIP returns the saved phone address, or "" when unset.
func (c *Config) PhoneIP() string {
	return c.GetString(KeyPhoneIP)
}

// ToolBinary returns the pebble executable name or path.
func (c *Config) ToolBinary() string {
	return c.GetString(KeyToolBinary)
}

// UpgradeCommand returns the command used to install or upgrade the tool.
func (c *Config) UpgradeCommand() string {
	return c.GetString(KeyUpgradeCommand)
}

// DisplayURL returns the emulator display endpoint.
func (c *Config) DisplayURL() string {
	return c.GetString(KeyDisplayURL)
}

// RetryCeiling returns the reconnect failure ceiling.
func (c *Config) RetryCeiling() int {
	if n := c.GetInt(KeyRetryCeiling); n > 0 {
		return n
	}

	return DefaultRetryCeiling
}

// RetryInterval returns the reconnect delay.
func (c *Config) RetryInterval() time.Duration {
	return positive(c.GetDuration(KeyRetryInterval), DefaultRetryInterval)
}

// SessionShell returns the configured session shell, or "" for the default.
func (c *Config) SessionShell() string {
	return c.GetString(KeySessionShell)
}

// SessionName returns the shared session's name.
func (c *Config) SessionName() string {
	if s := c.GetString(KeySessionName); s != "" {
		return s
	}

	return DefaultSessionName
}

// CompletionTimeout returns how long a tracked command may run.
func (c *Config) CompletionTimeout() time.Duration {
	return positive(c.GetDuration(KeyCompletionTimeout), DefaultCompletionTimeout)
}

// InterruptSettle returns the pause after an interrupt. Zero disables it.
func (c *Config) InterruptSettle() time.Duration {
	if d := c.GetDuration(KeyInterruptSettle); d >= 0 {
		return d
	}

	return DefaultInterruptSettle
}

// BatteryTick returns the debounce countdown step.
func (c *Config) BatteryTick() time.Duration {
	return positive(c.GetDuration(KeyBatteryTick), DefaultBatteryTick)
}

// BatteryTicks returns the debounce countdown length.
func (c *Config) BatteryTicks() int {
	if n := c.GetInt(KeyBatteryTicks); n > 0 {
		return n
	}

	return DefaultBatteryTicks
}

// LogsTimeout returns the install timeout used in remote workspaces.
func (c *Config) LogsTimeout() time.Duration {
	return positive(c.GetDuration(KeyLogsTimeout), DefaultLogsTimeout)
}

func positive(d, fallback time.Duration) time.Duration {
	if d > 0 {
		return d
	}

	return fallback
}
