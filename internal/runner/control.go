package runner

import (
	"fmt"
	"strconv"
)

// Action is one emulator-control or housekeeping command.
type Action struct {
	// Name is the toolchain subcommand.
	Name string

	// Args follow the subcommand.
	Args []string

	// Emulator adds --emulator <platform> [--vnc] when the action targets
	// a running emulator.
	Emulator bool
}

// Argv renders the action for binary against platform.
func (a Action) Argv(binary, platform string, vnc bool) []string {
	argv := []string{binary, a.Name}

	if a.Emulator {
		argv = append(argv, "--emulator", platform)
		if vnc {
			argv = append(argv, "--vnc")
		}
	}

	return append(argv, a.Args...)
}

// Battery sets the emulated charge level and charger state.
func Battery(percent int, charging bool) (Action, error) {
	if percent < 0 || percent > 100 {
		return Action{}, fmt.Errorf("battery percent %d out of range 0-100", percent)
	}

	args := []string{"--percent", strconv.Itoa(percent)}
	if charging {
		args = append(args, "--charging")
	}

	return Action{Name: "emu-battery", Args: args, Emulator: true}, nil
}

// Bluetooth sets whether the emulated phone link is connected.
func Bluetooth(connected bool) Action {
	state := "no"
	if connected {
		state = "yes"
	}

	return Action{Name: "emu-bt-connection", Args: []string{"--connected", state}, Emulator: true}
}

// TapDirections are the accelerometer axes accepted by Tap.
var TapDirections = []string{"x+", "x-", "y+", "y-", "z+", "z-"}

// Tap emulates a wrist tap along direction.
func Tap(direction string) (Action, error) {
	for _, d := range TapDirections {
		if d == direction {
			return Action{Name: "emu-tap", Args: []string{"--direction", direction}, Emulator: true}, nil
		}
	}

	return Action{}, fmt.Errorf("unknown tap direction %q", direction)
}

// TimeFormat switches the emulated clock between 12h and 24h display.
func TimeFormat(format string) (Action, error) {
	switch format {
	case "12h", "24h":
		return Action{Name: "emu-time-format", Args: []string{"--format", format}, Emulator: true}, nil
	default:
		return Action{}, fmt.Errorf("unknown time format %q", format)
	}
}

// TimelineQuickView toggles the timeline peek overlay.
func TimelineQuickView(on bool) Action {
	state := "off"
	if on {
		state = "on"
	}

	return Action{Name: "emu-set-timeline-quick-view", Args: []string{state}, Emulator: true}
}

// AppConfig opens the running app's configuration page.
func AppConfig() Action {
	return Action{Name: "emu-app-config", Emulator: true}
}

// Kill stops the emulator and its helper processes.
func Kill() Action {
	return Action{Name: "kill"}
}

// Wipe removes emulator state and cached SDK data.
func Wipe() Action {
	return Action{Name: "wipe"}
}

// ProjectKind selects the new-project template.
type ProjectKind string

// Project templates.
const (
	ProjectC       ProjectKind = "C"
	ProjectCSimple ProjectKind = "C Simple"
	ProjectCAndJS  ProjectKind = "C and JS"
)

// ProjectKinds lists templates in prompt order.
var ProjectKinds = []ProjectKind{ProjectC, ProjectCSimple, ProjectCAndJS}

// Detail is the short description shown next to the template name.
func (k ProjectKind) Detail() string {
	switch k {
	case ProjectCSimple:
		return "Minimal"
	case ProjectCAndJS:
		return "With PebbleKit JS"
	default:
		return "Default"
	}
}

func (k ProjectKind) flags() []string {
	switch k {
	case ProjectCSimple:
		return []string{"--c", "--simple"}
	case ProjectCAndJS:
		return []string{"--c", "--javascript"}
	default:
		return []string{"--c"}
	}
}

// ParseProjectKind accepts a template name or a short alias (c, simple, js).
func ParseProjectKind(s string) (ProjectKind, bool) {
	switch s {
	case "c", "C", "":
		return ProjectC, true
	case "simple", "c-simple", string(ProjectCSimple):
		return ProjectCSimple, true
	case "js", "javascript", "c-js", string(ProjectCAndJS):
		return ProjectCAndJS, true
	}

	return "", false
}
