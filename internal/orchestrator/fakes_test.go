package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"io"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pebble-dev/pebblectl/internal/battery"
	"github.com/pebble-dev/pebblectl/internal/display"
	"github.com/pebble-dev/pebblectl/internal/output"
	"github.com/pebble-dev/pebblectl/internal/prompt"
	"github.com/pebble-dev/pebblectl/internal/runner"
	"github.com/pebble-dev/pebblectl/internal/session"
	"github.com/pebble-dev/pebblectl/internal/terminal"
	"github.com/pebble-dev/pebblectl/internal/toolchain"
	"github.com/pebble-dev/pebblectl/internal/update"
)

// sequenceProber returns its statuses in order and then repeats the last.
type sequenceProber struct {
	mu       sync.Mutex
	statuses []toolchain.Status
	calls    int
}

func (p *sequenceProber) Probe(context.Context) toolchain.Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	i := min(p.calls, len(p.statuses)-1)
	p.calls++

	return p.statuses[i]
}

func status(tool, sdk string) toolchain.Status {
	return toolchain.Status{
		ToolName: "Pebble Tool",
		Tool:     toolchain.ParseVersion(tool),
		SDK:      toolchain.ParseVersion(sdk),
	}
}

// recordingCommander records package-manager and SDK commands.
type recordingCommander struct {
	mu      sync.Mutex
	calls   []string
	results map[string]toolchain.ExecResult
}

func (c *recordingCommander) Run(_ context.Context, name string, args ...string) toolchain.ExecResult {
	key := strings.Join(append([]string{name}, args...), " ")

	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls = append(c.calls, key)

	return c.results[key]
}

func (c *recordingCommander) commands() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]string(nil), c.calls...)
}

var markerCommand = regexp.MustCompile(`__pebblectl_done ([0-9a-f-]{36}) \$\?`)

// shellBackend completes every tracked line with exitCode.
type shellBackend struct {
	mu       sync.Mutex
	writes   []string
	onOutput func([]byte)
	done     chan struct{}
	exitCode int
}

func (b *shellBackend) Write(p []byte) (int, error) {
	b.mu.Lock()
	b.writes = append(b.writes, string(p))
	code := b.exitCode
	b.mu.Unlock()

	if m := markerCommand.FindStringSubmatch(string(p)); m != nil {
		b.onOutput([]byte("__pebblectl_done " + m[1] + " " + strconv.Itoa(code) + "\r\n"))
	}

	return len(p), nil
}

func (b *shellBackend) Interrupt() error {
	_, err := b.Write([]byte{0x03})
	return err
}

func (b *shellBackend) Done() <-chan struct{}  { return b.done }
func (b *shellBackend) Close() error           { return nil }
func (b *shellBackend) TracksCompletion() bool { return true }

// lines returns the submitted command lines, without interrupts.
func (b *shellBackend) lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []string

	for _, w := range b.writes {
		if w != "\x03" {
			out = append(out, w)
		}
	}

	return out
}

type memSettings struct {
	mu     sync.Mutex
	values map[string]string
}

func (s *memSettings) get(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.values[key]
}

func (s *memSettings) DefaultPlatform() string { return s.get("default_platform") }
func (s *memSettings) PhoneIP() string         { return s.get("phone_ip") }

func (s *memSettings) Set(key string, value interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.values == nil {
		s.values = make(map[string]string)
	}

	str, ok := value.(string)
	if !ok {
		return errors.New("not a string")
	}

	s.values[key] = str

	return nil
}

type memWorkspace struct {
	last       string
	remembered []string
}

func (w *memWorkspace) LastPathOr(fallback string) string {
	if w.last == "" {
		return fallback
	}

	return w.last
}

func (w *memWorkspace) RememberPath(dir string) error {
	w.remembered = append(w.remembered, dir)
	return nil
}

type failingDialer struct {
	mu    sync.Mutex
	dials int
}

func (d *failingDialer) Dial(context.Context) (display.Conn, error) {
	d.mu.Lock()
	d.dials++
	d.mu.Unlock()

	return nil, errors.New("connection refused")
}

type harness struct {
	o        *Orchestrator
	prober   *sequenceProber
	cmd      *recordingCommander
	backend  *shellBackend
	settings *memSettings
	stdout   *bytes.Buffer
	stderr   *bytes.Buffer
}

// newHarness wires an Orchestrator around fakes. answers feeds the line
// chooser.
func newHarness(t *testing.T, answers string, statuses ...toolchain.Status) *harness {
	t.Helper()

	if len(statuses) == 0 {
		statuses = []toolchain.Status{status("5.0.6", "4.5.0")}
	}

	h := &harness{
		prober:   &sequenceProber{statuses: statuses},
		cmd:      &recordingCommander{results: map[string]toolchain.ExecResult{}},
		backend:  &shellBackend{done: make(chan struct{})},
		settings: &memSettings{},
		stdout:   &bytes.Buffer{},
		stderr:   &bytes.Buffer{},
	}

	reg := session.NewRegistry(func(_ context.Context, _ string, onOutput func([]byte)) (session.Backend, error) {
		h.backend.onOutput = onOutput
		return h.backend, nil
	}, session.Options{Shell: "/bin/bash", CompletionTimeout: time.Second})

	r := runner.New(reg, terminal.Environment{})
	r.Wait = true

	var chooser prompt.Chooser = prompt.Disabled{}
	if answers != "" {
		chooser = prompt.NewLine(strings.NewReader(answers), io.Discard)
	}

	h.o = &Orchestrator{
		Prober:            h.prober,
		Upgrader:          update.NewUpgrader(h.cmd, "pebble", ""),
		Policy:            toolchain.DefaultPolicy(),
		Runner:            r,
		Settings:          h.settings,
		Workspace:         &memWorkspace{},
		Chooser:           chooser,
		Out:               output.NewWriter(h.stdout, h.stderr, &terminal.Info{}),
		Dialer:            &failingDialer{},
		RetryCeiling:      3,
		RetryInterval:     time.Millisecond,
		Debounce:          battery.NewGuard(5 * time.Millisecond),
		DebounceTicks:     25,
		CompletionTimeout: time.Second,
	}

	return h
}
