package session

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

var submittedMarker = regexp.MustCompile(`__pebblectl_done ([0-9a-f-]{36}) \$\?`)

// fakeBackend records input. When exitCode is set it answers every marker
// command the way a shell would: echo the input, then print the marker.
type fakeBackend struct {
	mu       sync.Mutex
	writes   []string
	onOutput func([]byte)
	done     chan struct{}
	once     sync.Once

	tracks   bool
	exitCode *int
}

func newFakeBackend(onOutput func([]byte), tracks bool) *fakeBackend {
	return &fakeBackend{onOutput: onOutput, done: make(chan struct{}), tracks: tracks}
}

func (f *fakeBackend) Write(p []byte) (int, error) {
	select {
	case <-f.done:
		return 0, ErrBackendClosed
	default:
	}

	f.mu.Lock()
	f.writes = append(f.writes, string(p))
	code := f.exitCode
	f.mu.Unlock()

	input := strings.TrimSuffix(string(p), "\r")
	f.onOutput([]byte(input + "\r\n"))

	if code != nil {
		if m := submittedMarker.FindStringSubmatch(input); m != nil {
			f.onOutput([]byte("\x1b[32mok\x1b[0m\r\n__pebblectl_done " + m[1] + " " + strconv.Itoa(*code) + "\r\n$ "))
		}
	}

	return len(p), nil
}

func (f *fakeBackend) Interrupt() error {
	_, err := f.Write([]byte{0x03})
	return err
}

func (f *fakeBackend) Done() <-chan struct{} { return f.done }

func (f *fakeBackend) Close() error {
	f.once.Do(func() { close(f.done) })
	return nil
}

func (f *fakeBackend) TracksCompletion() bool { return f.tracks }

func (f *fakeBackend) respondWith(code int) {
	f.mu.Lock()
	f.exitCode = &code
	f.mu.Unlock()
}

func (f *fakeBackend) inputs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.writes...)
}

// fakeFactory hands out fakeBackends and remembers them.
type fakeFactory struct {
	mu       sync.Mutex
	backends []*fakeBackend
	tracks   bool
	started  chan struct{}
	release  chan struct{}
}

func (f *fakeFactory) start(_ context.Context, _ string, onOutput func([]byte)) (Backend, error) {
	if f.started != nil {
		f.started <- struct{}{}
	}

	if f.release != nil {
		<-f.release
	}

	b := newFakeBackend(onOutput, f.tracks)

	f.mu.Lock()
	f.backends = append(f.backends, b)
	f.mu.Unlock()

	return b, nil
}

func (f *fakeFactory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.backends)
}

func (f *fakeFactory) last() *fakeBackend {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.backends[len(f.backends)-1]
}
