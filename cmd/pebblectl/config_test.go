package main

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pebble-dev/pebblectl/internal/config"
	clierrors "github.com/pebble-dev/pebblectl/internal/errors"
	"github.com/pebble-dev/pebblectl/internal/output"
	"github.com/pebble-dev/pebblectl/internal/terminal"
	"github.com/pebble-dev/pebblectl/internal/testutil"
)

func testWriter() (*output.Writer, *bytes.Buffer) {
	var buf bytes.Buffer

	term := &terminal.Info{IsTTY: false, NoColor: true, Width: 80, Height: 24}

	return output.NewWriter(&buf, &buf, term), &buf
}

func TestConfigGet_Env_Golden(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("PEBBLECTL_DEFAULT_PLATFORM", "chalk")

	out, buf := testWriter()
	cmd := newConfigGetCmd()
	cmd.SetArgs([]string{"default_platform"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetContext(out.WithContext(t.Context()))

	if err := cmd.Execute(); err != nil {
		t.Fatalf("config get should succeed: %v", err)
	}

	testutil.AssertGolden(t, buf.String(), "config_get_env.golden")
}

func TestConfigGet_Unset_Golden(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	out, buf := testWriter()
	cmd := newConfigGetCmd()
	cmd.SetArgs([]string{"phone_ip"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetContext(out.WithContext(t.Context()))

	if err := cmd.Execute(); err != nil {
		t.Fatalf("config get should succeed for unset key: %v", err)
	}

	testutil.AssertGolden(t, buf.String(), "config_get_unset.golden")
}

func TestConfigGet_UnknownKey(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	out, _ := testWriter()
	cmd := newConfigGetCmd()
	cmd.SetArgs([]string{"api.url"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetContext(out.WithContext(t.Context()))

	err := cmd.Execute()

	var cliErr *clierrors.CLIError
	if !clierrors.As(err, &cliErr) || cliErr.Code != clierrors.ExitConfig {
		t.Fatalf("err = %v, want ExitConfig CLIError", err)
	}

	if !strings.Contains(cliErr.Hint, config.KeyDefaultPlatform) {
		t.Errorf("hint = %q, want it to list known keys", cliErr.Hint)
	}
}

func TestConfigSet_PersistsNormalizedPlatform(t *testing.T) {
	root := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", root)

	out, buf := testWriter()
	cmd := newConfigSetCmd()
	cmd.SetArgs([]string{"default_platform", "Pebble Time"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetContext(out.WithContext(t.Context()))

	if err := cmd.Execute(); err != nil {
		t.Fatalf("config set should succeed: %v", err)
	}

	if got := buf.String(); got != "✓ Set default_platform = basalt\n" {
		t.Errorf("output = %q", got)
	}

	saved := config.LoadFrom(filepath.Join(root, "pebblectl"))
	if got := saved.DefaultPlatform(); got != "basalt" {
		t.Errorf("saved default_platform = %q, want basalt", got)
	}
}

func TestConfigList_ShowsDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	out, buf := testWriter()
	cmd := newConfigListCmd()
	cmd.SetArgs([]string{})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetContext(out.WithContext(t.Context()))

	if err := cmd.Execute(); err != nil {
		t.Fatalf("config list should succeed: %v", err)
	}

	for _, want := range []string{
		"display.url = ws://localhost:6080/websockify\n",
		"display.retry_ceiling = 30\n",
		"toolchain.min_tool_version = 5.0.6\n",
		"Config file: ",
	} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("output missing %q:\n%s", want, buf.String())
		}
	}
}

func TestNormalizeSetting(t *testing.T) {
	tests := []struct {
		key     string
		value   string
		want    any
		wantErr bool
	}{
		{key: config.KeyDefaultPlatform, value: "Chalk", want: "chalk"},
		{key: config.KeyDefaultPlatform, value: "Pebble 2", want: "diorite"},
		{key: config.KeyDefaultPlatform, value: "pebble-3", wantErr: true},
		{key: config.KeyPhoneIP, value: " 10.0.0.7 ", want: "10.0.0.7"},
		{key: config.KeyPhoneIP, value: "phone.local", wantErr: true},
		{key: config.KeyMinToolVersion, value: "v5.1", want: "5.1.0"},
		{key: config.KeyMinSDKVersion, value: "four", wantErr: true},
		{key: config.KeyRetryCeiling, value: "12", want: 12},
		{key: config.KeyRetryCeiling, value: "0", wantErr: true},
		{key: config.KeyRetryInterval, value: "500ms", want: "500ms"},
		{key: config.KeyCompletionTimeout, value: "soon", wantErr: true},
		{key: config.KeyInterruptSettle, value: "0", want: "0s"},
		{key: config.KeyInterruptSettle, value: "-1s", wantErr: true},
		{key: config.KeySessionName, value: "Pebble Run 2", want: "Pebble Run 2"},
		{key: "api.url", value: "x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			got, err := normalizeSetting(tt.key, tt.value)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("normalizeSetting(%q, %q) = %v, want error", tt.key, tt.value, got)
				}

				return
			}

			if err != nil {
				t.Fatalf("normalizeSetting(%q, %q) error = %v", tt.key, tt.value, err)
			}

			if got != tt.want {
				t.Errorf("normalizeSetting(%q, %q) = %#v, want %#v", tt.key, tt.value, got, tt.want)
			}
		})
	}
}
