// Package errors provides structured CLI error types for pebblectl.
//
// CLIError wraps errors with user-facing messages, hints, and exit codes
// so every command reports failures the same way.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Exit codes for CLI errors.
const (
	ExitSuccess    = 0  // Successful execution
	ExitGeneral    = 1  // General error
	ExitToolchain  = 2  // Toolchain missing, outdated, or failed to upgrade
	ExitConnection = 3  // Remote display connection failure
	ExitConfig     = 4  // Configuration error
	ExitTimeout    = 5  // Wait timed out
	ExitExecution  = 6  // Toolchain command exited non-zero
	ExitUsage      = 64 // Command line usage error (BSD convention)
)

// maxHintLen bounds how much captured stderr is echoed back as a hint.
const maxHintLen = 400

// CLIError represents a user-facing CLI error with actionable guidance.
type CLIError struct {
	// Message is the primary error message shown to the user.
	Message string

	// Hint provides actionable guidance on how to fix the error.
	Hint string

	// Cause is the underlying error, if any.
	Cause error

	// Code is the exit code for the CLI.
	Code int
}

// Error implements the error interface.
func (e *CLIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}

	return e.Message
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *CLIError) Unwrap() error {
	return e.Cause
}

// New creates a new CLIError with the given message and exit code.
func New(code int, message string) *CLIError {
	return &CLIError{
		Message: message,
		Code:    code,
	}
}

// Wrap wraps an existing error with a CLIError.
func Wrap(code int, message string, cause error) *CLIError {
	return &CLIError{
		Message: message,
		Cause:   cause,
		Code:    code,
	}
}

// WithHint adds a hint to the error.
func (e *CLIError) WithHint(hint string) *CLIError {
	e.Hint = hint
	return e
}

// As is a convenience function for errors.As with CLIError.
func As(err error, target **CLIError) bool {
	return errors.As(err, target)
}

// --- Toolchain ---

// ToolUnavailable returns an error when the pebble tool still cannot be
// probed after an upgrade.
func ToolUnavailable(binary string) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("%s not found or not runnable", binary),
		Hint:    "Run 'pebblectl toolchain upgrade' or install pebble-tool with uv",
		Code:    ExitToolchain,
	}
}

// ToolOutdated returns an error when the installed tool is still below the
// minimum after an upgrade.
func ToolOutdated(installed, minimum string) *CLIError {
	if installed == "" {
		installed = "not installed"
	}

	return &CLIError{
		Message: fmt.Sprintf("pebble tool %s is older than the required %s", installed, minimum),
		Hint:    "Run 'pebblectl toolchain upgrade' to update it",
		Code:    ExitToolchain,
	}
}

// UpgradeFailed returns an error when the toolchain upgrade command failed.
// stderr is surfaced verbatim (truncated) as the hint.
func UpgradeFailed(exitCode int, stderr string) *CLIError {
	return commandFailed("Toolchain upgrade failed", exitCode, stderr,
		"Check that uv is installed and on PATH, then retry 'pebblectl toolchain upgrade'")
}

// SDKInstallFailed returns an error when 'pebble sdk install' failed.
func SDKInstallFailed(version string, exitCode int, stderr string) *CLIError {
	return commandFailed(fmt.Sprintf("SDK install (%s) failed", version), exitCode, stderr,
		"Run 'pebblectl toolchain sdk list' to see available SDK versions")
}

// SDKActivateFailed returns an error when 'pebble sdk activate' failed.
func SDKActivateFailed(version string, exitCode int, stderr string) *CLIError {
	return commandFailed(fmt.Sprintf("SDK activate (%s) failed", version), exitCode, stderr,
		"Install the SDK first with 'pebblectl toolchain sdk install'")
}

// CommandFailed returns an error for a toolchain command that exited non-zero
// inside the shared session.
func CommandFailed(what string, exitCode int) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("%s exited with code %d", what, exitCode),
		Hint:    "See the session output above for details",
		Code:    ExitExecution,
	}
}

func commandFailed(message string, exitCode int, stderr, fallbackHint string) *CLIError {
	hint := strings.TrimSpace(stderr)
	if hint == "" {
		hint = fallbackHint
	} else if len(hint) > maxHintLen {
		hint = hint[:maxHintLen] + "..."
	}

	if exitCode > 0 {
		message = fmt.Sprintf("%s (exit code %d)", message, exitCode)
	}

	return &CLIError{
		Message: message,
		Hint:    hint,
		Code:    ExitToolchain,
	}
}

// --- Session and display ---

// ConnectionExhausted returns an error when the display reconnect loop hit its
// retry ceiling.
func ConnectionExhausted(attempts int, cause error) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Emulator display unreachable after %d attempts", attempts),
		Hint:    "Make sure the emulator was started with --vnc, then run 'pebblectl display' again",
		Cause:   cause,
		Code:    ExitConnection,
	}
}

// WaitTimedOut returns an error when a command did not report completion in time.
func WaitTimedOut(timeout string) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("No completion reported within %s", timeout),
		Hint:    "The command keeps running in the session; raise session.completion_timeout to wait longer",
		Code:    ExitTimeout,
	}
}

// --- Usage and environment ---

// CannotPrompt returns an error when interactive prompts are unavailable.
func CannotPrompt(what, flag string) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Cannot prompt for %s in non-interactive mode", what),
		Hint:    fmt.Sprintf("Pass %s or set it with 'pebblectl config set'", flag),
		Code:    ExitUsage,
	}
}

// UnknownPlatform returns an error for an unsupported emulator platform.
func UnknownPlatform(platform string, supported []string) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Unknown emulator platform: %s", platform),
		Hint:    fmt.Sprintf("Supported platforms: %s", strings.Join(supported, ", ")),
		Code:    ExitUsage,
	}
}

// InvalidArgument returns a usage error for a malformed argument value.
func InvalidArgument(name, value, expected string) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Invalid %s: %q", name, value),
		Hint:    fmt.Sprintf("Expected %s", expected),
		Code:    ExitUsage,
	}
}

// UnsupportedInRemoteContainer returns an error for actions that need a local display.
func UnsupportedInRemoteContainer(action string) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Cannot %s inside a dev container or Codespace", action),
		Hint:    "Run this command from a local checkout",
		Code:    ExitGeneral,
	}
}

// DebounceActive returns an error when a debounce countdown is already running.
func DebounceActive(subject string) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("A %s countdown is already running", subject),
		Hint:    "Wait for it to finish or cancel it first",
		Code:    ExitGeneral,
	}
}

// ConfigFailed returns an error for configuration or state save failures.
func ConfigFailed(operation string, cause error) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Failed to %s", operation),
		Hint:    "Check file permissions for your pebblectl config directory or run 'pebblectl doctor'",
		Cause:   cause,
		Code:    ExitConfig,
	}
}
