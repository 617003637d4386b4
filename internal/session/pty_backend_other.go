//go:build !unix

package session

import (
	"context"
	"errors"
	"io"
	"os"
	"time"
)

// PTYOptions configure PTY-backed sessions.
type PTYOptions struct {
	Shell            string
	Dir              string
	Mirror           io.Writer
	ShutdownDeadline time.Duration
}

// DefaultShell returns $SHELL, or cmd.exe when it is unset.
func DefaultShell() string {
	if sh := os.Getenv("SHELL"); sh != "" {
		return sh
	}

	return "cmd.exe"
}

// NewPTYFactory returns a Factory that always fails: PTY sessions need a
// unix host.
func NewPTYFactory(_ PTYOptions) Factory {
	return func(context.Context, string, func([]byte)) (Backend, error) {
		return nil, errors.New("interactive sessions are not supported on this platform")
	}
}
