// Package doctor provides diagnostic checks for the pebble development setup.
//
// This package implements a check framework that validates:
//   - pebble tool availability and version
//   - active SDK version
//   - SDK installation state as reported by the tool
//   - emulator display reachability
//   - configuration file location and remote workspace detection
package doctor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/pebble-dev/pebblectl/internal/buildinfo"
	"github.com/pebble-dev/pebblectl/internal/display"
	"github.com/pebble-dev/pebblectl/internal/terminal"
	"github.com/pebble-dev/pebblectl/internal/toolchain"
	"github.com/pebble-dev/pebblectl/internal/update"
)

// Status represents the result of a diagnostic check.
type Status int

const (
	// StatusPass indicates the check passed.
	StatusPass Status = iota
	// StatusWarn indicates a non-critical issue.
	StatusWarn
	// StatusFail indicates a critical failure.
	StatusFail
)

// String returns the lowercase name used in JSON output.
func (s Status) String() string {
	switch s {
	case StatusPass:
		return "pass"
	case StatusWarn:
		return "warn"
	default:
		return "fail"
	}
}

// Result holds the outcome of a single check.
type Result struct {
	Name    string `json:"name"`
	Status  Status `json:"-"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"` // Optional additional detail
}

// Check is a diagnostic check function.
type Check func(ctx context.Context) Result

// Deps are the collaborators the default checks inspect.
type Deps struct {
	Prober   toolchain.Prober
	Policy   toolchain.Policy
	Upgrader *update.Upgrader
	Dialer   display.Dialer

	// DisplayURL is reported alongside the reachability result.
	DisplayURL string

	// ConfigFile is the path config.yaml is read from.
	ConfigFile string

	Env terminal.Environment

	// DisplayTimeout bounds the single display dial. Defaults to 3s.
	DisplayTimeout time.Duration
}

// Runner executes diagnostic checks.
type Runner struct {
	checks []namedCheck
}

type namedCheck struct {
	name  string
	check Check
}

// New creates a diagnostic runner with the default checks for deps.
func New(deps Deps) *Runner {
	r := &Runner{}

	r.AddCheck("pebblectl", checkBuild)
	r.AddCheck("Pebble Tool", deps.checkTool)
	r.AddCheck("Active SDK", deps.checkSDK)

	if deps.Upgrader != nil {
		r.AddCheck("Installed SDKs", deps.checkInstalledSDKs)
	}

	if deps.Dialer != nil {
		r.AddCheck("Emulator Display", deps.checkDisplay)
	}

	r.AddCheck("Config", deps.checkConfig)
	r.AddCheck("Workspace", deps.checkWorkspace)

	return r
}

// AddCheck registers a diagnostic check.
func (r *Runner) AddCheck(name string, check Check) {
	r.checks = append(r.checks, namedCheck{name: name, check: check})
}

// Run executes all registered checks and returns the results.
func (r *Runner) Run(ctx context.Context) []Result {
	results := make([]Result, 0, len(r.checks))

	for _, nc := range r.checks {
		result := nc.check(ctx)
		result.Name = nc.name
		results = append(results, result)
	}

	return results
}

// Summary returns counts of passed, failed, and warning checks.
func Summary(results []Result) (passed, failed, warnings int) {
	for _, r := range results {
		switch r.Status {
		case StatusPass:
			passed++
		case StatusFail:
			failed++
		case StatusWarn:
			warnings++
		}
	}

	return passed, failed, warnings
}

func checkBuild(context.Context) Result {
	if buildinfo.Version == "dev" {
		return Result{Status: StatusWarn, Message: "Development build"}
	}

	return Result{Status: StatusPass, Message: "v" + buildinfo.Version}
}

// checkTool verifies the pebble tool is installed and new enough.
func (d Deps) checkTool(ctx context.Context) Result {
	s := d.Prober.Probe(ctx)
	if !s.Installed() {
		return Result{
			Status:  StatusFail,
			Message: "Not found or not runnable",
			Detail:  "Run 'pebblectl toolchain upgrade' to install pebble-tool",
		}
	}

	msg := fmt.Sprintf("%s v%s", s.ToolName, s.Tool)
	if path, err := exec.LookPath(binaryOf(d.Prober)); err == nil {
		msg += " at " + path
	}

	if d.Policy.NeedsToolUpgrade(s) {
		return Result{
			Status:  StatusFail,
			Message: msg,
			Detail:  fmt.Sprintf("Version %s or newer is required; run 'pebblectl toolchain upgrade'", d.Policy.MinTool),
		}
	}

	return Result{Status: StatusPass, Message: msg}
}

// checkSDK verifies the active SDK meets the minimum.
func (d Deps) checkSDK(ctx context.Context) Result {
	s := d.Prober.Probe(ctx)

	switch {
	case !s.Installed():
		return Result{Status: StatusWarn, Message: "Unknown (tool not available)"}
	case s.SDK == nil:
		return Result{
			Status:  StatusFail,
			Message: "No active SDK",
			Detail:  "Run 'pebblectl toolchain sdk install'",
		}
	case d.Policy.NeedsSDKInstall(s):
		return Result{
			Status:  StatusFail,
			Message: "v" + s.SDK.String(),
			Detail:  fmt.Sprintf("SDK %s or newer is required; run 'pebblectl toolchain sdk install'", d.Policy.MinSDK),
		}
	default:
		return Result{Status: StatusPass, Message: "v" + s.SDK.String()}
	}
}

// checkInstalledSDKs lists what 'pebble sdk list' reports as installed.
func (d Deps) checkInstalledSDKs(ctx context.Context) Result {
	entries, res := d.Upgrader.ListSDKs(ctx)
	if !res.OK {
		return Result{
			Status:  StatusWarn,
			Message: "Could not list SDKs",
			Detail:  res.Message(),
		}
	}

	installed := 0

	for _, e := range entries {
		if e.Installed {
			installed++
		}
	}

	if installed == 0 {
		return Result{Status: StatusWarn, Message: "None installed"}
	}

	msg := fmt.Sprintf("%d installed", installed)
	if active, ok := update.ActiveSDK(entries); ok {
		msg += ", " + active.Version.String() + " active"
	}

	return Result{Status: StatusPass, Message: msg}
}

// checkDisplay dials the emulator display once. An unreachable display is
// only a warning because the emulator may simply not be running.
func (d Deps) checkDisplay(ctx context.Context) Result {
	timeout := d.DisplayTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()

	conn, err := d.Dialer.Dial(dialCtx)
	if err != nil {
		return Result{
			Status:  StatusWarn,
			Message: d.DisplayURL + " unreachable",
			Detail:  "Start the emulator with 'pebblectl run --emulator <platform> --vnc'",
		}
	}

	_ = conn.Close()

	return Result{
		Status:  StatusPass,
		Message: fmt.Sprintf("%s (%dms)", d.DisplayURL, time.Since(start).Milliseconds()),
	}
}

func (d Deps) checkConfig(context.Context) Result {
	if d.ConfigFile == "" {
		return Result{Status: StatusWarn, Message: "No config directory available"}
	}

	if _, err := os.Stat(d.ConfigFile); err != nil {
		return Result{Status: StatusPass, Message: d.ConfigFile + " (not created yet)"}
	}

	return Result{Status: StatusPass, Message: d.ConfigFile}
}

func (d Deps) checkWorkspace(context.Context) Result {
	switch {
	case d.Env.WorkspaceID != "":
		return Result{Status: StatusPass, Message: "Codespace " + d.Env.WorkspaceID}
	case d.Env.RemoteContainer:
		return Result{Status: StatusPass, Message: "Dev container", Detail: "App config pages are unavailable"}
	default:
		return Result{Status: StatusPass, Message: "Local"}
	}
}

func binaryOf(p toolchain.Prober) string {
	if probe, ok := p.(*toolchain.Probe); ok {
		return probe.Binary
	}

	return toolchain.DefaultBinary
}

// RenderResults formats diagnostic results to the given output functions.
func RenderResults(results []Result, printFn, successFn, warningFn, failureFn, mutedFn func(format string, args ...any)) {
	maxNameLen := 0
	for _, r := range results {
		if len(r.Name) > maxNameLen {
			maxNameLen = len(r.Name)
		}
	}

	for _, r := range results {
		width := maxNameLen + 4

		switch r.Status {
		case StatusPass:
			successFn("%-*s%s", width, r.Name, r.Message)
		case StatusWarn:
			warningFn("%-*s%s", width, r.Name, r.Message)
		case StatusFail:
			failureFn("%-*s%s", width, r.Name, r.Message)
		default:
			printFn("%s %-*s%s\n", r.Status.Symbol(), width, r.Name, r.Message)
		}

		if r.Detail != "" {
			mutedFn("    %s", r.Detail)
		}
	}
}

// Symbol returns the status symbol for display.
func (s Status) Symbol() string {
	switch s {
	case StatusPass:
		return checkMark
	case StatusWarn:
		return warningMark
	case StatusFail:
		return xMark
	default:
		return "?"
	}
}

const (
	checkMark   = "\u2713" // ✓
	xMark       = "\u2717" // ✗
	warningMark = "\u26A0" // ⚠
)
