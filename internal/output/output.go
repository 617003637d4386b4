// Package output writes everything pebblectl shows the user.
//
// A Writer carries the global presentation flags (--json, --quiet,
// --no-color, --no-input) so commands never consult them directly. Status
// lines, spinners and progress bars degrade to plain text when stdout is not
// a terminal.
package output

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/pebble-dev/pebblectl/internal/terminal"
)

// Status symbols.
const (
	CheckMark   = "✓"
	XMark       = "✗"
	WarningMark = "⚠"
	InfoMark    = "ℹ"
)

type contextKey struct{}

// Writer handles CLI output in normal, quiet and JSON modes.
type Writer struct {
	Out     io.Writer
	Err     io.Writer
	JSON    bool
	Quiet   bool
	Verbose bool
	NoInput bool

	terminal *terminal.Info
	tones    tones
}

type tones struct {
	success *color.Color
	failure *color.Color
	warning *color.Color
	info    *color.Color
	muted   *color.Color
}

// Default returns a Writer on stdout/stderr for the detected terminal.
func Default() *Writer {
	return NewWriter(os.Stdout, os.Stderr, terminal.Detect())
}

// NewWriter returns a Writer on out and errOut.
func NewWriter(out, errOut io.Writer, term *terminal.Info) *Writer {
	w := &Writer{
		Out:      out,
		Err:      errOut,
		terminal: term,
		tones: tones{
			success: color.New(color.FgGreen),
			failure: color.New(color.FgRed),
			warning: color.New(color.FgYellow),
			info:    color.New(color.FgCyan),
			muted:   color.New(color.FgHiBlack),
		},
	}

	if !term.ColorEnabled() {
		color.NoColor = true
	}

	return w
}

// WithContext stores w in ctx.
func (w *Writer) WithContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, w)
}

// FromContext returns the Writer stored in ctx, or Default().
func FromContext(ctx context.Context) *Writer {
	if w, ok := ctx.Value(contextKey{}).(*Writer); ok {
		return w
	}

	return Default()
}

// Terminal returns the terminal the Writer renders for.
func (w *Writer) Terminal() *terminal.Info {
	return w.terminal
}

// SetNoColor applies --no-color.
func (w *Writer) SetNoColor(disabled bool) {
	w.terminal.ForceFlag = disabled
	if disabled {
		color.NoColor = true
	}
}

// Print writes formatted text to stdout unless quiet.
func (w *Writer) Print(format string, args ...any) {
	if !w.Quiet {
		fmt.Fprintf(w.Out, format, args...)
	}
}

// Println writes a line to stdout unless quiet.
func (w *Writer) Println(args ...any) {
	if !w.Quiet {
		fmt.Fprintln(w.Out, args...)
	}
}

// PrintJSON writes v as indented JSON. JSON is written even in quiet mode.
func (w *Writer) PrintJSON(v any) error {
	enc := json.NewEncoder(w.Out)
	enc.SetIndent("", "  ")

	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json output: %w", err)
	}

	return nil
}

// Error writes formatted text to stderr.
func (w *Writer) Error(format string, args ...any) {
	fmt.Fprintf(w.Err, format, args...)
}

// Errorln writes a line to stderr.
func (w *Writer) Errorln(args ...any) {
	fmt.Fprintln(w.Err, args...)
}

// Write implements io.Writer on stdout; quiet mode discards.
func (w *Writer) Write(p []byte) (int, error) {
	if w.Quiet {
		return len(p), nil
	}

	n, err := w.Out.Write(p)
	if err != nil {
		return n, fmt.Errorf("write output: %w", err)
	}

	return n, nil
}

// Debug writes only in verbose mode.
func (w *Writer) Debug(format string, args ...any) {
	if w.Verbose {
		w.tones.muted.Fprintf(w.Out, "[debug] "+format+"\n", args...)
	}
}

// Success writes a check-marked line.
func (w *Writer) Success(format string, args ...any) {
	if !w.Quiet {
		w.status(w.Out, w.tones.success, CheckMark, fmt.Sprintf(format, args...))
	}
}

// Failure writes an X-marked line to stderr, even in quiet mode.
func (w *Writer) Failure(format string, args ...any) {
	w.status(w.Err, w.tones.failure, XMark, fmt.Sprintf(format, args...))
}

// Warning writes a warning line.
func (w *Writer) Warning(format string, args ...any) {
	if !w.Quiet {
		w.status(w.Out, w.tones.warning, WarningMark, fmt.Sprintf(format, args...))
	}
}

// Info writes an informational line.
func (w *Writer) Info(format string, args ...any) {
	if !w.Quiet {
		w.status(w.Out, w.tones.info, InfoMark, fmt.Sprintf(format, args...))
	}
}

// Muted writes de-emphasized text. User cancellations are reported this way.
func (w *Writer) Muted(format string, args ...any) {
	if w.Quiet {
		return
	}

	msg := fmt.Sprintf(format, args...)
	if w.terminal.ColorEnabled() {
		w.tones.muted.Fprintln(w.Out, msg)
		return
	}

	fmt.Fprintln(w.Out, msg)
}

func (w *Writer) status(out io.Writer, tone *color.Color, mark, msg string) {
	if w.terminal.ColorEnabled() {
		tone.Fprint(out, mark+" ")
		fmt.Fprintln(out, msg)

		return
	}

	fmt.Fprintln(out, mark+" "+msg)
}
