// Package update upgrades the pebble toolchain and manages its installed
// SDKs. Every operation reports a Result value; process failures never
// surface as Go errors.
package update

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/shlex"
	"go.opentelemetry.io/otel/attribute"

	"github.com/pebble-dev/pebblectl/internal/observability"
	"github.com/pebble-dev/pebblectl/internal/toolchain"
)

// DefaultUpgradeCommand installs or upgrades the toolchain with uv.
const DefaultUpgradeCommand = "uv tool install --upgrade pebble-tool"

// LatestSDK selects the newest available SDK for InstallSDK.
const LatestSDK = "latest"

// Result is the outcome of one external toolchain command.
type Result struct {
	OK       bool
	ExitCode int
	Stdout   string
	Stderr   string

	// Err is set when the command could not be run at all.
	Err error
}

// Message summarizes a failed Result for display.
func (r Result) Message() string {
	if r.OK {
		return ""
	}

	if r.Err != nil {
		return r.Err.Error()
	}

	if msg := strings.TrimSpace(r.Stderr); msg != "" {
		return msg
	}

	return fmt.Sprintf("exit status %d", r.ExitCode)
}

func resultFrom(exec toolchain.ExecResult) Result {
	return Result{
		OK:       exec.Succeeded(),
		ExitCode: exec.ExitCode,
		Stdout:   exec.Stdout,
		Stderr:   exec.Stderr,
		Err:      exec.Err,
	}
}

// Upgrader runs the package-manager and SDK commands.
type Upgrader struct {
	Commander toolchain.Commander

	// Binary is the toolchain executable (toolchain.DefaultBinary when empty).
	Binary string

	// UpgradeCommand is the shell-style package-manager command line.
	UpgradeCommand string
}

// NewUpgrader returns an Upgrader with defaults applied.
func NewUpgrader(commander toolchain.Commander, binary, upgradeCommand string) *Upgrader {
	if binary == "" {
		binary = toolchain.DefaultBinary
	}

	if strings.TrimSpace(upgradeCommand) == "" {
		upgradeCommand = DefaultUpgradeCommand
	}

	return &Upgrader{Commander: commander, Binary: binary, UpgradeCommand: upgradeCommand}
}

// Upgrade runs the configured upgrade command. Success does not imply any
// particular resulting version; callers must probe again.
func (u *Upgrader) Upgrade(ctx context.Context) Result {
	argv, err := shlex.Split(u.UpgradeCommand)
	if err != nil || len(argv) == 0 {
		if err == nil {
			err = fmt.Errorf("empty upgrade command")
		}

		return Result{ExitCode: -1, Err: fmt.Errorf("parse upgrade command %q: %w", u.UpgradeCommand, err)}
	}

	return u.run(ctx, "toolchain.upgrade", argv[0], argv[1:]...)
}

// InstallSDK runs "pebble sdk install <version>". version is LatestSDK or a
// version string.
func (u *Upgrader) InstallSDK(ctx context.Context, version string) Result {
	version = strings.TrimSpace(version)
	if version == "" {
		version = LatestSDK
	}

	return u.run(ctx, "toolchain.sdk_install", u.Binary, "sdk", "install", version)
}

// ActivateSDK runs "pebble sdk activate <version>".
func (u *Upgrader) ActivateSDK(ctx context.Context, version toolchain.Version) Result {
	return u.run(ctx, "toolchain.sdk_activate", u.Binary, "sdk", "activate", version.String())
}

// ListSDKs runs "pebble sdk list" and parses its output.
func (u *Upgrader) ListSDKs(ctx context.Context) ([]SDKEntry, Result) {
	result := u.run(ctx, "toolchain.sdk_list", u.Binary, "sdk", "list")
	if !result.OK {
		return nil, result
	}

	return ParseSDKList(result.Stdout), result
}

func (u *Upgrader) run(ctx context.Context, spanName, name string, args ...string) Result {
	ctx, span := observability.StartSpan(ctx, "update", spanName,
		attribute.String("process.command", name),
		attribute.String("process.args", strings.Join(args, " ")),
	)

	logger := observability.FromContext(ctx).With(
		slog.String("component", "update"),
		slog.String("process.command", name),
	)
	logger.Info("running toolchain command", slog.String("event.type", spanName+".start"), slog.Any("process.args", args))

	result := resultFrom(u.Commander.Run(ctx, name, args...))

	span.SetAttributes(attribute.Int("process.exit_code", result.ExitCode))

	if result.OK {
		logger.Info("toolchain command finished", slog.String("event.type", spanName+".ok"))
		observability.EndSpan(span, nil)

		return result
	}

	logger.Warn(
		"toolchain command failed",
		slog.String("event.type", spanName+".failed"),
		slog.Int("process.exit_code", result.ExitCode),
		slog.String("process.stderr", strings.TrimSpace(result.Stderr)),
	)

	spanErr := result.Err
	if spanErr == nil {
		spanErr = fmt.Errorf("%s exited with status %d", name, result.ExitCode)
	}

	observability.EndSpan(span, spanErr)

	return result
}
