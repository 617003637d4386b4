package update

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/pebble-dev/pebblectl/internal/toolchain"
)

type recordingCommander struct {
	calls  [][]string
	result toolchain.ExecResult
}

func (c *recordingCommander) Run(_ context.Context, name string, args ...string) toolchain.ExecResult {
	c.calls = append(c.calls, append([]string{name}, args...))
	return c.result
}

func TestUpgrade_DefaultCommand(t *testing.T) {
	cmd := &recordingCommander{}
	u := NewUpgrader(cmd, "", "")

	result := u.Upgrade(context.Background())
	if !result.OK {
		t.Fatalf("Upgrade() OK = false: %s", result.Message())
	}

	if len(cmd.calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(cmd.calls))
	}

	got := strings.Join(cmd.calls[0], " ")
	if got != DefaultUpgradeCommand {
		t.Fatalf("command = %q, want %q", got, DefaultUpgradeCommand)
	}
}

func TestUpgrade_QuotedCustomCommand(t *testing.T) {
	cmd := &recordingCommander{}
	u := NewUpgrader(cmd, "", `pipx install --force "pebble-tool>=5.0.6"`)

	u.Upgrade(context.Background())

	want := []string{"pipx", "install", "--force", "pebble-tool>=5.0.6"}
	if strings.Join(cmd.calls[0], "|") != strings.Join(want, "|") {
		t.Fatalf("argv = %q, want %q", cmd.calls[0], want)
	}
}

func TestUpgrade_UnparseableCommand(t *testing.T) {
	cmd := &recordingCommander{}
	u := &Upgrader{Commander: cmd, Binary: "pebble", UpgradeCommand: `uv "unterminated`}

	result := u.Upgrade(context.Background())
	if result.OK || result.Err == nil {
		t.Fatalf("Upgrade() = %+v, want failure with Err", result)
	}

	if len(cmd.calls) != 0 {
		t.Fatalf("commander called %d times", len(cmd.calls))
	}
}

func TestUpgrade_FailureIsAValue(t *testing.T) {
	tests := []struct {
		name        string
		exec        toolchain.ExecResult
		wantMessage string
	}{
		{
			name:        "non-zero exit",
			exec:        toolchain.ExecResult{ExitCode: 2, Stderr: "error: network unreachable\n"},
			wantMessage: "error: network unreachable",
		},
		{
			name:        "missing binary",
			exec:        toolchain.ExecResult{ExitCode: -1, Err: errors.New("uv not found in PATH")},
			wantMessage: "uv not found in PATH",
		},
		{
			name:        "silent failure",
			exec:        toolchain.ExecResult{ExitCode: 3},
			wantMessage: "exit status 3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := NewUpgrader(&recordingCommander{result: tt.exec}, "", "")

			result := u.Upgrade(context.Background())
			if result.OK {
				t.Fatal("OK = true")
			}

			if result.ExitCode != tt.exec.ExitCode {
				t.Errorf("ExitCode = %d, want %d", result.ExitCode, tt.exec.ExitCode)
			}

			if got := result.Message(); got != tt.wantMessage {
				t.Errorf("Message() = %q, want %q", got, tt.wantMessage)
			}
		})
	}
}

func TestInstallSDK(t *testing.T) {
	tests := []struct {
		version string
		want    string
	}{
		{version: "latest", want: "pebble sdk install latest"},
		{version: "", want: "pebble sdk install latest"},
		{version: "4.5", want: "pebble sdk install 4.5"},
	}

	for _, tt := range tests {
		cmd := &recordingCommander{}
		NewUpgrader(cmd, "", "").InstallSDK(context.Background(), tt.version)

		if got := strings.Join(cmd.calls[0], " "); got != tt.want {
			t.Errorf("InstallSDK(%q) ran %q, want %q", tt.version, got, tt.want)
		}
	}
}

func TestActivateSDK(t *testing.T) {
	cmd := &recordingCommander{}
	NewUpgrader(cmd, "pebble", "").ActivateSDK(context.Background(), toolchain.Version{Major: 4, Minor: 5})

	if got := strings.Join(cmd.calls[0], " "); got != "pebble sdk activate 4.5.0" {
		t.Fatalf("ran %q", got)
	}
}

func TestListSDKs(t *testing.T) {
	cmd := &recordingCommander{result: toolchain.ExecResult{Stdout: "Installed SDKs:\n4.5 (active)\n4.3\n\nAvailable SDKs:\n4.6\n4.5\n"}}

	entries, result := NewUpgrader(cmd, "", "").ListSDKs(context.Background())
	if !result.OK {
		t.Fatalf("OK = false: %s", result.Message())
	}

	if len(entries) != 3 {
		t.Fatalf("entries = %+v, want 3", entries)
	}

	active, ok := ActiveSDK(entries)
	if !ok || active.Version.String() != "4.5.0" {
		t.Fatalf("active = %+v, %v", active, ok)
	}
}

func TestListSDKs_Failure(t *testing.T) {
	cmd := &recordingCommander{result: toolchain.ExecResult{ExitCode: 1, Stderr: "no sdk"}}

	entries, result := NewUpgrader(cmd, "", "").ListSDKs(context.Background())
	if result.OK || entries != nil {
		t.Fatalf("ListSDKs() = %+v, %+v", entries, result)
	}
}
