package session

import (
	"context"
	"errors"
)

// ErrBackendClosed is returned when writing to a backend whose process exited.
var ErrBackendClosed = errors.New("session backend closed")

// Backend is the process behind a Session: usually a shell on a PTY.
type Backend interface {
	// Write sends raw input to the process.
	Write(p []byte) (int, error)

	// Interrupt stops the foreground command without ending the process.
	Interrupt() error

	// Done is closed once the process has exited.
	Done() <-chan struct{}

	// Close terminates the process.
	Close() error

	// TracksCompletion reports whether the backend echoes marker output that
	// lets a Session detect when a submitted line has finished.
	TracksCompletion() bool
}

// Factory starts a Backend for the named session. onOutput receives every
// chunk the process writes and must not block.
type Factory func(ctx context.Context, name string, onOutput func([]byte)) (Backend, error)
