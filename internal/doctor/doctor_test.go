package doctor

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pebble-dev/pebblectl/internal/display"
	"github.com/pebble-dev/pebblectl/internal/terminal"
	"github.com/pebble-dev/pebblectl/internal/toolchain"
	"github.com/pebble-dev/pebblectl/internal/update"
)

type staticProber struct {
	status toolchain.Status
}

func (p staticProber) Probe(context.Context) toolchain.Status { return p.status }

type staticCommander struct {
	result toolchain.ExecResult
}

func (c staticCommander) Run(context.Context, string, ...string) toolchain.ExecResult {
	return c.result
}

type stubDialer struct {
	err error
}

type nopConn struct{}

func (nopConn) Wait(context.Context) error                  { return nil }
func (nopConn) SendKey(context.Context, uint32, bool) error { return nil }
func (nopConn) Close() error                                { return nil }

func (d stubDialer) Dial(context.Context) (display.Conn, error) {
	if d.err != nil {
		return nil, d.err
	}

	return nopConn{}, nil
}

func installed(tool, sdk string) toolchain.Status {
	s := toolchain.Status{ToolName: "Pebble Tool", Tool: toolchain.ParseVersion(tool)}
	if sdk != "" {
		s.SDK = toolchain.ParseVersion(sdk)
	}

	return s
}

func resultByName(t *testing.T, results []Result, name string) Result {
	t.Helper()

	for _, r := range results {
		if r.Name == name {
			return r
		}
	}

	t.Fatalf("no result named %q", name)

	return Result{}
}

func TestRunner_ToolAndSDK(t *testing.T) {
	tests := []struct {
		name     string
		status   toolchain.Status
		wantTool Status
		wantSDK  Status
	}{
		{name: "ready", status: installed("5.0.6", "4.5.0"), wantTool: StatusPass, wantSDK: StatusPass},
		{name: "absent", status: toolchain.Status{}, wantTool: StatusFail, wantSDK: StatusWarn},
		{name: "old tool", status: installed("4.9.0", "4.5.0"), wantTool: StatusFail, wantSDK: StatusPass},
		{name: "no sdk", status: installed("5.1.0", ""), wantTool: StatusPass, wantSDK: StatusFail},
		{name: "old sdk", status: installed("5.1.0", "4.3"), wantTool: StatusPass, wantSDK: StatusFail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := New(Deps{
				Prober: staticProber{status: tt.status},
				Policy: toolchain.DefaultPolicy(),
			}).Run(context.Background())

			if got := resultByName(t, results, "Pebble Tool").Status; got != tt.wantTool {
				t.Errorf("tool status = %v, want %v", got, tt.wantTool)
			}

			if got := resultByName(t, results, "Active SDK").Status; got != tt.wantSDK {
				t.Errorf("sdk status = %v, want %v", got, tt.wantSDK)
			}
		})
	}
}

func TestRunner_Display(t *testing.T) {
	deps := Deps{
		Prober:     staticProber{status: installed("5.0.6", "4.5.0")},
		Policy:     toolchain.DefaultPolicy(),
		DisplayURL: "ws://localhost:6080/websockify",
	}

	deps.Dialer = stubDialer{}
	if got := resultByName(t, New(deps).Run(context.Background()), "Emulator Display"); got.Status != StatusPass {
		t.Errorf("reachable display = %v, want pass", got.Status)
	}

	deps.Dialer = stubDialer{err: errors.New("connection refused")}

	got := resultByName(t, New(deps).Run(context.Background()), "Emulator Display")
	if got.Status != StatusWarn {
		t.Errorf("unreachable display = %v, want warn", got.Status)
	}

	if !strings.Contains(got.Message, "unreachable") {
		t.Errorf("message = %q", got.Message)
	}
}

func TestRunner_InstalledSDKs(t *testing.T) {
	out := "Installed SDKs:\n4.5 (active)\n4.3\n\nAvailable SDKs:\n4.6\n"
	deps := Deps{
		Prober:   staticProber{status: installed("5.0.6", "4.5.0")},
		Policy:   toolchain.DefaultPolicy(),
		Upgrader: update.NewUpgrader(staticCommander{result: toolchain.ExecResult{Stdout: out}}, "pebble", ""),
	}

	got := resultByName(t, New(deps).Run(context.Background()), "Installed SDKs")
	if got.Status != StatusPass || got.Message != "2 installed, 4.5.0 active" {
		t.Fatalf("Installed SDKs = %+v", got)
	}
}

func TestRunner_ConfigAndWorkspace(t *testing.T) {
	deps := Deps{
		Prober:     staticProber{},
		ConfigFile: filepath.Join(t.TempDir(), "config.yaml"),
		Env:        terminal.Environment{RemoteContainer: true, WorkspaceID: "fluffy-robot"},
	}

	results := New(deps).Run(context.Background())

	if got := resultByName(t, results, "Config"); !strings.Contains(got.Message, "not created yet") {
		t.Errorf("Config message = %q", got.Message)
	}

	if got := resultByName(t, results, "Workspace"); got.Message != "Codespace fluffy-robot" {
		t.Errorf("Workspace message = %q", got.Message)
	}
}

func TestSummary(t *testing.T) {
	passed, failed, warnings := Summary([]Result{
		{Status: StatusPass}, {Status: StatusPass}, {Status: StatusFail}, {Status: StatusWarn},
	})

	if passed != 2 || failed != 1 || warnings != 1 {
		t.Fatalf("Summary() = %d, %d, %d", passed, failed, warnings)
	}
}

func TestRenderResults(t *testing.T) {
	var lines []string

	record := func(prefix string) func(string, ...any) {
		return func(format string, args ...any) {
			lines = append(lines, prefix+fmt.Sprintf(format, args...))
		}
	}

	RenderResults([]Result{
		{Name: "Pebble Tool", Status: StatusPass, Message: "v5.0.6"},
		{Name: "SDK", Status: StatusFail, Message: "No active SDK", Detail: "install one"},
	}, record("print:"), record("ok:"), record("warn:"), record("fail:"), record("muted:"))

	want := []string{
		"ok:Pebble Tool    v5.0.6",
		"fail:SDK            No active SDK",
		"muted:    install one",
	}

	if strings.Join(lines, "\n") != strings.Join(want, "\n") {
		t.Fatalf("RenderResults() =\n%s\nwant\n%s", strings.Join(lines, "\n"), strings.Join(want, "\n"))
	}
}
