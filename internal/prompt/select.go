package prompt

import (
	"io"

	"github.com/pebble-dev/pebblectl/internal/terminal"
)

// ForTerminal picks the Chooser for the current process: huh forms on an
// interactive terminal, line prompts otherwise, and Disabled when noInput is
// set.
func ForTerminal(info *terminal.Info, noInput bool, in io.Reader, formOut io.Writer) Chooser {
	if noInput {
		return Disabled{}
	}

	if info != nil && info.InteractiveEnabled() {
		return NewHuh(formOut)
	}

	return NewLine(in, formOut)
}
