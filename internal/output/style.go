package output

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Tone picks the color of a badge.
type Tone int

// Badge tones.
const (
	ToneInfo Tone = iota
	ToneSuccess
	ToneWarning
	ToneFailure
	ToneMuted
)

var toneColors = map[Tone]lipgloss.Color{
	ToneInfo:    lipgloss.Color("6"),
	ToneSuccess: lipgloss.Color("2"),
	ToneWarning: lipgloss.Color("3"),
	ToneFailure: lipgloss.Color("1"),
	ToneMuted:   lipgloss.Color("8"),
}

// Badge renders label as a short colored tag, or "[label]" without color.
func (w *Writer) Badge(tone Tone, label string) string {
	if !w.terminal.ColorEnabled() {
		return "[" + label + "]"
	}

	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("0")).
		Background(toneColors[tone]).
		Padding(0, 1).
		Render(label)
}

// KeyValues prints aligned "key  value" rows.
func (w *Writer) KeyValues(rows [][2]string) {
	if w.Quiet {
		return
	}

	width := 0
	for _, row := range rows {
		width = max(width, lipgloss.Width(row[0]))
	}

	keyStyle := lipgloss.NewStyle().Width(width + 2)
	if w.terminal.ColorEnabled() {
		keyStyle = keyStyle.Bold(true)
	}

	for _, row := range rows {
		if w.terminal.ColorEnabled() {
			fmt.Fprintln(w.Out, keyStyle.Render(row[0])+row[1])
			continue
		}

		fmt.Fprintln(w.Out, row[0]+strings.Repeat(" ", width+2-len(row[0]))+row[1])
	}
}
