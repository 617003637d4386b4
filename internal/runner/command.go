package runner

import (
	"strconv"
	"strings"
	"time"

	"al.essio.dev/pkg/shellescape"
)

// Target is where an application gets installed.
type Target interface {
	installArgs() []string
	String() string
}

// Emulator targets a local emulator instance.
type Emulator struct {
	Platform string
}

func (e Emulator) installArgs() []string {
	return []string{"--emulator", e.Platform}
}

func (e Emulator) String() string {
	return "emulator " + e.Platform
}

// Phone targets a phone running the Pebble app in developer mode.
type Phone struct {
	Address string
}

func (p Phone) installArgs() []string {
	return []string{"--phone", p.Address}
}

func (p Phone) String() string {
	return "phone " + p.Address
}

// Flags are optional install switches.
type Flags struct {
	// Logs keeps the install attached, streaming app logs.
	Logs bool

	// VNC starts the emulator with its remote display enabled.
	VNC bool
}

// quote renders argv as one shell-safe command.
func quote(argv ...string) string {
	return shellescape.QuoteCommand(argv)
}

// BuildAndInstallCommand composes "build && install" so the install only runs
// after a successful build. A positive logsTimeout wraps logged installs in
// timeout(1).
func BuildAndInstallCommand(binary string, target Target, flags Flags, logsTimeout time.Duration) string {
	install := append([]string{binary, "install"}, target.installArgs()...)

	if flags.Logs {
		install = append(install, "--logs")
	}

	if _, ok := target.(Emulator); ok && flags.VNC {
		install = append(install, "--vnc")
	}

	if flags.Logs && logsTimeout > 0 {
		install = append([]string{"timeout", strconv.Itoa(int(logsTimeout.Seconds()))}, install...)
	}

	return quote(binary, "build") + " && " + quote(install...)
}

// cdAndRun changes into dir before running argv.
func cdAndRun(dir string, argv ...string) string {
	return strings.Join([]string{quote("cd", dir), quote(argv...)}, " && ")
}
