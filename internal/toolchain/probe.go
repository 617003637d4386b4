package toolchain

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/pebble-dev/pebblectl/internal/observability"
)

// DefaultBinary is the toolchain executable name.
const DefaultBinary = "pebble"

var (
	toolBannerPattern = regexp.MustCompile(`(?i)^\s*(.+?)\s+v(\d+(?:\.\d+){0,2})\b`)
	sdkClausePattern  = regexp.MustCompile(`(?i)\(\s*active\s+sdk:\s*v(\d+(?:\.\d+){0,2})\s*\)`)
)

// Status is the toolchain state observed by one probe. Nil fields mean the
// tool is not installed or its output could not be parsed.
type Status struct {
	Tool *Version
	SDK  *Version

	// ToolName is the name printed in the version banner.
	ToolName string

	// Raw is the unparsed banner, kept for diagnostics.
	Raw string
}

// Installed reports whether a tool version was detected.
func (s Status) Installed() bool {
	return s.Tool != nil
}

// Prober queries the toolchain for its current versions.
type Prober interface {
	Probe(ctx context.Context) Status
}

// Probe runs "<binary> --version" and parses the banner. It never fails: any
// execution error yields a Status with both versions absent. Results are not
// cached because the tool can be upgraded out-of-band between calls.
type Probe struct {
	Commander Commander
	Binary    string
}

// NewProbe returns a Probe for binary (DefaultBinary when empty).
func NewProbe(commander Commander, binary string) *Probe {
	if binary == "" {
		binary = DefaultBinary
	}

	return &Probe{Commander: commander, Binary: binary}
}

// Probe implements Prober.
func (p *Probe) Probe(ctx context.Context) Status {
	ctx, span := observability.StartSpan(ctx, "toolchain", "toolchain.probe",
		attribute.String("toolchain.binary", p.Binary))

	result := p.Commander.Run(ctx, p.Binary, "--version")
	if !result.Succeeded() {
		observability.FromContext(ctx).Debug(
			"toolchain probe failed",
			slog.String("component", "toolchain"),
			slog.String("event.type", "toolchain.probe.failed"),
			slog.Int("process.exit_code", result.ExitCode),
			slog.String("process.stderr", strings.TrimSpace(result.Stderr)),
		)
		observability.EndSpan(span, result.Err)

		return Status{}
	}

	// Some releases print the banner on stderr.
	banner := strings.TrimSpace(result.Stdout)
	if banner == "" {
		banner = strings.TrimSpace(result.Stderr)
	}

	status := ParseBanner(banner)

	span.SetAttributes(
		attribute.String("toolchain.version", FormatVersion(status.Tool)),
		attribute.String("toolchain.sdk_version", FormatVersion(status.SDK)),
	)
	observability.EndSpan(span, nil)

	observability.FromContext(ctx).Debug(
		"toolchain probed",
		slog.String("component", "toolchain"),
		slog.String("event.type", "toolchain.probe"),
		slog.String("toolchain.version", FormatVersion(status.Tool)),
		slog.String("toolchain.sdk_version", FormatVersion(status.SDK)),
	)

	return status
}

// ParseBanner extracts versions from a banner such as
// "Pebble Tool v5.0.6 (active SDK: v4.5)". Only the first non-empty line is
// considered. A banner without the SDK clause yields a nil SDK.
func ParseBanner(banner string) Status {
	line := firstLine(banner)
	status := Status{Raw: banner}

	m := toolBannerPattern.FindStringSubmatch(line)
	if m == nil {
		return status
	}

	status.Tool = ParseVersion(m[2])
	if status.Tool == nil {
		return status
	}

	status.ToolName = strings.TrimSpace(m[1])

	if sm := sdkClausePattern.FindStringSubmatch(line); sm != nil {
		status.SDK = ParseVersion(sm[1])
	}

	return status
}

// FormatBanner renders s in the banner grammar ParseBanner accepts.
func FormatBanner(s Status) string {
	if s.Tool == nil {
		return ""
	}

	name := s.ToolName
	if name == "" {
		name = "Pebble Tool"
	}

	banner := name + " v" + s.Tool.String()
	if s.SDK != nil {
		banner += " (active SDK: v" + s.SDK.String() + ")"
	}

	return banner
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}

	return ""
}

var _ Prober = (*Probe)(nil)
