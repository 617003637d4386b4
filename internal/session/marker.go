package session

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const (
	markerTag = "__pebblectl_done"
	readyTag  = "__pebblectl_ready"
)

// The shell echoes the submitted line back, which contains the marker
// command with a literal status variable. Only the printed marker has digits
// after the token.
var markerPattern = regexp.MustCompile(markerTag + ` ([0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}) (\d+)`)

func newToken() string {
	return uuid.NewString()
}

// withMarker appends a command that prints the completion marker for token
// once line has finished, carrying line's exit status.
func withMarker(shell, line, token string) string {
	status := "$?"
	if filepath.Base(shell) == "fish" {
		status = "$status"
	}

	return line + "; printf '%s %s %d\\n' " + markerTag + " " + token + " " + status
}

// readyLine asks the shell to print the readiness marker for token. The
// command text never contains readyTag itself, so the terminal's echo of the
// line cannot be mistaken for the shell running it.
func readyLine(token string) string {
	return "printf '%s_ready %s\\n' __pebblectl " + token
}

// isReadyLine reports whether line is the readiness marker for token.
func isReadyLine(line, token string) bool {
	return strings.Contains(line, readyTag+" "+token)
}

// parseMarker extracts token and exit status from one output line.
func parseMarker(line string) (token string, exitCode int, ok bool) {
	m := markerPattern.FindStringSubmatch(line)
	if m == nil {
		return "", 0, false
	}

	code, err := strconv.Atoi(m[2])
	if err != nil {
		return "", 0, false
	}

	return m[1], code, true
}
