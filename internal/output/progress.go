package output

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
)

const progressWidth = 30

// Progress renders a countdown or download bar on a single, redrawn line.
// Without a TTY it prints a line at each tenth instead.
type Progress struct {
	w     *Writer
	label string
	bar   progress.Model
	live  bool
	step  int
}

// Progress starts a bar labelled label.
func (w *Writer) Progress(label string) *Progress {
	return &Progress{
		w:     w,
		label: label,
		bar:   progress.New(progress.WithDefaultGradient(), progress.WithWidth(progressWidth)),
		live:  w.terminal.IsTTY && w.terminal.ColorEnabled(),
		step:  -1,
	}
}

// Update draws fraction, clamped to [0, 1].
func (p *Progress) Update(fraction float64) {
	if p.w.Quiet || p.w.JSON {
		return
	}

	fraction = math.Max(0, math.Min(1, fraction))

	if p.live {
		fmt.Fprintf(p.w.Out, "\r%s %s", p.label, p.bar.ViewAs(fraction))
		return
	}

	step := int(fraction * 10)
	if step == p.step {
		return
	}

	p.step = step
	fmt.Fprintf(p.w.Out, "%s %s\n", p.label, plainBar(fraction))
}

// Done ends the bar's line and writes message as a muted note.
func (p *Progress) Done(message string) {
	if p.w.Quiet || p.w.JSON {
		return
	}

	if p.live {
		fmt.Fprintln(p.w.Out)
	}

	if message != "" {
		p.w.Muted("%s", message)
	}
}

func plainBar(fraction float64) string {
	filled := int(math.Round(fraction * 20))

	return fmt.Sprintf("[%s%s] %3.0f%%", strings.Repeat("#", filled), strings.Repeat(".", 20-filled), fraction*100)
}
