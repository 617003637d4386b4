package orchestrator

import (
	"context"
	"log/slog"

	clierrors "github.com/pebble-dev/pebblectl/internal/errors"
	"github.com/pebble-dev/pebblectl/internal/observability"
	"github.com/pebble-dev/pebblectl/internal/toolchain"
	"github.com/pebble-dev/pebblectl/internal/update"
)

// EnsureToolchain probes the toolchain and, when the policy requires it,
// upgrades the tool and then installs the latest SDK. Each step is checked
// and the probe repeated before moving on, so the returned Status reflects
// what is actually installed.
func (o *Orchestrator) EnsureToolchain(ctx context.Context) (status toolchain.Status, err error) {
	ctx, span := observability.StartSpan(ctx, "orchestrator", "orchestrator.ensure_toolchain")
	defer func() { observability.EndSpan(span, err) }()

	logger := observability.FromContext(ctx).With(slog.String("component", "orchestrator"))

	status = o.Prober.Probe(ctx)
	decision := o.Policy.Decide(status)

	logger.Debug("toolchain gate evaluated",
		slog.String("event.type", "toolchain.gate"),
		slog.String("toolchain.version", toolchain.FormatVersion(status.Tool)),
		slog.String("toolchain.sdk_version", toolchain.FormatVersion(status.SDK)),
		slog.Bool("toolchain.upgrade_required", decision.UpgradeTool),
		slog.Bool("toolchain.sdk_required", decision.InstallSDK),
	)

	if decision.UpgradeTool {
		if status, err = o.upgradeTool(ctx, status); err != nil {
			return status, err
		}
	}

	if o.Policy.NeedsSDKInstall(status) {
		if status, err = o.installSDK(ctx, status); err != nil {
			return status, err
		}
	}

	return status, nil
}

func (o *Orchestrator) upgradeTool(ctx context.Context, before toolchain.Status) (toolchain.Status, error) {
	msg := "Upgrading pebble tool"
	if !before.Installed() {
		msg = "Installing pebble tool"
	}

	sp := o.out().Spinner(msg)
	sp.Start()

	res := o.Upgrader.Upgrade(ctx)
	if !res.OK {
		sp.StopWithFailure("")
		return before, clierrors.UpgradeFailed(res.ExitCode, res.Message())
	}

	after := o.Prober.Probe(ctx)

	switch {
	case !after.Installed():
		sp.StopWithFailure("")
		return after, clierrors.ToolUnavailable(o.Upgrader.Binary)
	case o.Policy.NeedsToolUpgrade(after):
		sp.StopWithFailure("")
		return after, clierrors.ToolOutdated(after.Tool.String(), o.Policy.MinTool.String())
	}

	sp.StopWithSuccess("pebble tool v" + after.Tool.String())

	return after, nil
}

func (o *Orchestrator) installSDK(ctx context.Context, before toolchain.Status) (toolchain.Status, error) {
	sp := o.out().Spinner("Installing latest Pebble SDK")
	sp.Start()

	res := o.Upgrader.InstallSDK(ctx, update.LatestSDK)
	if !res.OK {
		sp.StopWithFailure("")
		return before, clierrors.SDKInstallFailed(update.LatestSDK, res.ExitCode, res.Message())
	}

	after := o.Prober.Probe(ctx)
	if o.Policy.NeedsSDKInstall(after) {
		sp.StopWithFailure("")
		return after, clierrors.SDKInstallFailed(update.LatestSDK, 0,
			"Active SDK is "+toolchain.FormatVersion(after.SDK)+", need "+o.Policy.MinSDK.String()+" or newer")
	}

	sp.StopWithSuccess("Pebble SDK v" + after.SDK.String() + " active")

	return after, nil
}
