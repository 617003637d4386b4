package terminal

import "testing"

func TestInfo_ColorEnabled(t *testing.T) {
	tests := []struct {
		name string
		info Info
		want bool
	}{
		{name: "tty with color", info: Info{IsTTY: true}, want: true},
		{name: "not a tty", info: Info{IsTTY: false}, want: false},
		{name: "NO_COLOR", info: Info{IsTTY: true, NoColor: true}, want: false},
		{name: "--no-color", info: Info{IsTTY: true, ForceFlag: true}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.info.ColorEnabled(); got != tt.want {
				t.Errorf("ColorEnabled() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInfo_InteractiveNeedsBothEnds(t *testing.T) {
	info := Info{IsTTY: true, StdinIsTTY: false}
	if info.InteractiveEnabled() {
		t.Error("InteractiveEnabled() = true with piped stdin")
	}

	info.StdinIsTTY = true
	if !info.InteractiveEnabled() {
		t.Error("InteractiveEnabled() = false with tty on both ends")
	}
}

func TestEnvironmentFrom(t *testing.T) {
	tests := []struct {
		name       string
		env        map[string]string
		wantRemote bool
		wantID     string
	}{
		{name: "local", env: map[string]string{}, wantRemote: false},
		{name: "dev container", env: map[string]string{"REMOTE_CONTAINERS": "true"}, wantRemote: true},
		{name: "codespace", env: map[string]string{"CODESPACES": "true", "CODESPACE_NAME": "fluffy-space"}, wantRemote: true, wantID: "fluffy-space"},
		{name: "name implies remote", env: map[string]string{"CODESPACE_NAME": "x"}, wantRemote: true, wantID: "x"},
		{name: "false flag", env: map[string]string{"REMOTE_CONTAINERS": "false"}, wantRemote: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := environmentFrom(func(key string) string { return tt.env[key] })

			if got.RemoteContainer != tt.wantRemote {
				t.Errorf("RemoteContainer = %v, want %v", got.RemoteContainer, tt.wantRemote)
			}

			if got.WorkspaceID != tt.wantID {
				t.Errorf("WorkspaceID = %q, want %q", got.WorkspaceID, tt.wantID)
			}
		})
	}
}
