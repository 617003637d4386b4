// Package ansi turns raw PTY output into plain text lines.
package ansi

import (
	"strings"

	xansi "github.com/charmbracelet/x/ansi"
)

// maxPartial bounds the unterminated tail kept between writes. A single line
// longer than this is flushed as-is.
const maxPartial = 64 << 10

// Strip removes ANSI escape sequences from s.
func Strip(s string) string {
	return xansi.Strip(s)
}

// LineBuffer accumulates output chunks and yields complete, escape-free lines.
// Carriage returns are treated as line breaks so shell progress output and
// CRLF line endings both split cleanly. Not safe for concurrent use.
type LineBuffer struct {
	partial strings.Builder
}

// Write appends chunk and returns every line completed by it.
func (b *LineBuffer) Write(chunk []byte) []string {
	var lines []string

	for _, c := range chunk {
		if c == '\n' || c == '\r' {
			if b.partial.Len() > 0 {
				lines = append(lines, Strip(b.partial.String()))
				b.partial.Reset()
			}

			continue
		}

		b.partial.WriteByte(c)

		if b.partial.Len() >= maxPartial {
			lines = append(lines, Strip(b.partial.String()))
			b.partial.Reset()
		}
	}

	return lines
}

// Pending returns the current unterminated line without consuming it.
func (b *LineBuffer) Pending() string {
	return Strip(b.partial.String())
}
