// Package terminal detects terminal capabilities and the surrounding
// process environment.
//
// This package handles:
//   - TTY detection for stdout and stdin
//   - NO_COLOR / TERM=dumb support
//   - Terminal dimensions (used to size the session PTY)
//   - Remote container detection (dev containers, Codespaces)
package terminal

import (
	"os"
	"strings"

	"golang.org/x/term"
)

// Info holds terminal capability information.
type Info struct {
	IsTTY      bool
	StdinIsTTY bool
	NoColor    bool
	Width      int
	Height     int
	ForceFlag  bool // Set when --no-color flag is used
}

// Detect returns terminal information for the current process.
func Detect() *Info {
	stdoutFD := int(os.Stdout.Fd())
	isTTY := term.IsTerminal(stdoutFD)

	width, height := 80, 24

	if isTTY {
		if w, h, err := term.GetSize(stdoutFD); err == nil {
			width, height = w, h
		}
	}

	// https://no-color.org/
	_, noColor := os.LookupEnv("NO_COLOR")

	if os.Getenv("TERM") == "dumb" {
		noColor = true
	}

	return &Info{
		IsTTY:      isTTY,
		StdinIsTTY: term.IsTerminal(int(os.Stdin.Fd())),
		NoColor:    noColor,
		Width:      width,
		Height:     height,
	}
}

// ColorEnabled returns true if colored output should be used.
func (t *Info) ColorEnabled() bool {
	if t.ForceFlag {
		return false
	}

	return t.IsTTY && !t.NoColor
}

// InteractiveEnabled returns true if interactive prompts are allowed.
func (t *Info) InteractiveEnabled() bool {
	return t.IsTTY && t.StdinIsTTY
}

// SpinnersEnabled returns true if spinners should be used.
func (t *Info) SpinnersEnabled() bool {
	return t.IsTTY && !t.NoColor
}

// Environment describes where pebblectl is running.
type Environment struct {
	// RemoteContainer is set inside VS Code dev containers and GitHub Codespaces.
	RemoteContainer bool

	// WorkspaceID identifies the remote workspace (the Codespace name).
	// Empty outside Codespaces.
	WorkspaceID string
}

// DetectEnvironment inspects the process environment.
func DetectEnvironment() Environment {
	return environmentFrom(os.Getenv)
}

func environmentFrom(getenv func(string) string) Environment {
	env := Environment{
		WorkspaceID: strings.TrimSpace(getenv("CODESPACE_NAME")),
	}

	for _, key := range []string{"REMOTE_CONTAINERS", "CODESPACES"} {
		v := strings.ToLower(strings.TrimSpace(getenv(key)))
		if v == "1" || v == "true" {
			env.RemoteContainer = true
		}
	}

	if env.WorkspaceID != "" {
		env.RemoteContainer = true
	}

	return env
}
