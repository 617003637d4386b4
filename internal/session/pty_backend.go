//go:build unix

package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"
	"golang.org/x/sys/unix"

	"github.com/pebble-dev/pebblectl/internal/ansi"
	"github.com/pebble-dev/pebblectl/internal/observability"
)

// ErrShellNotReady is returned when the shell exits or stays silent before
// it runs its first command.
var ErrShellNotReady = errors.New("shell did not become ready")

const (
	defaultShutdownDeadline = 3 * time.Second
	defaultReadyTimeout     = 10 * time.Second
	ptyRows                 = 40
	ptyCols                 = 250
)

// PTYOptions configure PTY-backed sessions.
type PTYOptions struct {
	// Shell is the program to run; see DefaultShell.
	Shell string

	// Dir is the shell's starting directory.
	Dir string

	// Mirror receives a copy of everything the shell prints.
	Mirror io.Writer

	// ShutdownDeadline is how long Close waits after SIGTERM before SIGKILL.
	ShutdownDeadline time.Duration

	// ReadyTimeout bounds how long StartPTY waits for the shell to run its
	// first command.
	ReadyTimeout time.Duration
}

// DefaultShell returns $SHELL, or /bin/sh when it is unset.
func DefaultShell() string {
	if sh := os.Getenv("SHELL"); sh != "" {
		return sh
	}

	return "/bin/sh"
}

// PTYBackend runs an interactive shell on a pseudo-terminal.
type PTYBackend struct {
	mu   sync.Mutex
	ptmx *os.File
	cmd  *exec.Cmd
	pgid int

	done      chan struct{}
	ready     chan struct{}
	closeOnce sync.Once
	deadline  time.Duration
}

// NewPTYFactory returns a Factory that starts PTY backends with opts.
func NewPTYFactory(opts PTYOptions) Factory {
	return func(ctx context.Context, name string, onOutput func([]byte)) (Backend, error) {
		return StartPTY(ctx, opts, onOutput)
	}
}

// StartPTY launches the shell and returns once it has run a first command,
// so its signal handlers are in place before anything can send Ctrl-C. The
// process outlives ctx; only Close ends it.
func StartPTY(ctx context.Context, opts PTYOptions, onOutput func([]byte)) (*PTYBackend, error) {
	shell := opts.Shell
	if shell == "" {
		shell = DefaultShell()
	}

	observability.FromContext(ctx).Debug(
		"starting session PTY",
		slog.String("component", "session"),
		slog.String("event.type", "session.pty.start"),
		slog.String("session.shell", shell),
	)

	cmd := exec.Command(shell) //nolint:gosec,noctx // G204: shell comes from pebblectl configuration; lifetime is managed by Close
	cmd.Dir = opts.Dir
	cmd.Env = append(os.Environ(), "TERM=xterm-256color")

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: ptyRows, Cols: ptyCols})
	if err != nil {
		return nil, fmt.Errorf("start %s on pty: %w", shell, err)
	}

	b := &PTYBackend{
		ptmx:     ptmx,
		cmd:      cmd,
		done:     make(chan struct{}),
		ready:    make(chan struct{}),
		deadline: opts.ShutdownDeadline,
	}

	if pgid, pgErr := unix.Getpgid(cmd.Process.Pid); pgErr == nil {
		b.pgid = pgid
	}

	token := newToken()

	go b.readOutput(ptmx, opts.Mirror, onOutput, token)

	go func() {
		_ = cmd.Wait()
		close(b.done)
	}()

	if err := b.waitReady(ctx, token, opts.ReadyTimeout); err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("start %s on pty: %w", shell, err)
	}

	return b, nil
}

func (b *PTYBackend) waitReady(ctx context.Context, token string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = defaultReadyTimeout
	}

	if _, err := b.Write([]byte(readyLine(token) + "\r")); err != nil {
		return err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-b.ready:
		return nil
	case <-b.done:
		return fmt.Errorf("%w: shell exited", ErrShellNotReady)
	case <-timer.C:
		return fmt.Errorf("%w after %s", ErrShellNotReady, timeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *PTYBackend) readOutput(ptmx *os.File, mirror io.Writer, onOutput func([]byte), readyToken string) {
	buf := make([]byte, 4096)

	var lines ansi.LineBuffer

	ready := false

	for {
		n, err := ptmx.Read(buf)
		if n > 0 {
			if !ready {
				for _, line := range lines.Write(buf[:n]) {
					if isReadyLine(line, readyToken) {
						ready = true
						close(b.ready)

						break
					}
				}
			}

			if mirror != nil {
				_, _ = mirror.Write(buf[:n])
			}

			if onOutput != nil {
				onOutput(buf[:n])
			}
		}

		if err != nil {
			return
		}
	}
}

// Write implements Backend.
func (b *PTYBackend) Write(p []byte) (int, error) {
	b.mu.Lock()
	ptmx := b.ptmx
	b.mu.Unlock()

	if ptmx == nil {
		return 0, ErrBackendClosed
	}

	select {
	case <-b.done:
		return 0, ErrBackendClosed
	default:
	}

	n, err := ptmx.Write(p)
	if err != nil {
		return n, fmt.Errorf("write pty: %w", err)
	}

	return n, nil
}

// Interrupt writes ETX, which the line discipline turns into SIGINT for the
// foreground job.
func (b *PTYBackend) Interrupt() error {
	_, err := b.Write([]byte{0x03})
	return err
}

// Done implements Backend.
func (b *PTYBackend) Done() <-chan struct{} {
	return b.done
}

// TracksCompletion implements Backend.
func (b *PTYBackend) TracksCompletion() bool {
	return true
}

// Close terminates the shell's process group, escalating to SIGKILL.
func (b *PTYBackend) Close() error {
	b.closeOnce.Do(func() {
		b.mu.Lock()
		ptmx := b.ptmx
		cmd := b.cmd
		pgid := b.pgid
		b.ptmx = nil
		b.mu.Unlock()

		if ptmx != nil {
			_ = ptmx.Close()
		}

		if cmd == nil || cmd.Process == nil {
			return
		}

		sendSignal(cmd.Process.Pid, pgid, unix.SIGTERM)

		deadline := b.deadline
		if deadline <= 0 {
			deadline = defaultShutdownDeadline
		}

		select {
		case <-b.done:
			return
		case <-time.After(deadline):
			sendSignal(cmd.Process.Pid, pgid, unix.SIGKILL)
		}

		select {
		case <-b.done:
		case <-time.After(deadline):
		}
	})

	return nil
}

func sendSignal(pid, pgid int, sig syscall.Signal) {
	if pgid > 0 {
		if err := unix.Kill(-pgid, sig); err == nil || errors.Is(err, unix.ESRCH) {
			return
		}
	}

	if pid <= 0 {
		return
	}

	_ = unix.Kill(pid, sig)
}

var _ Backend = (*PTYBackend)(nil)
