// Package toolchain probes the installed pebble tool and decides whether it,
// or its active SDK, must be upgraded before a build can run.
package toolchain

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Version is a major.minor.patch triple. Missing components parse as 0.
type Version struct {
	Major uint64
	Minor uint64
	Patch uint64
}

// Minimum versions accepted by the default Policy.
var (
	DefaultMinTool = MustParseVersion("5.0.6")
	DefaultMinSDK  = MustParseVersion("4.5")
)

// ParseVersion parses "5", "5.0", "v5.0.6" and similar. Pre-release and
// build suffixes are ignored for ordering. Malformed input returns nil.
func ParseVersion(s string) *Version {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	sv, err := semver.NewVersion(s)
	if err != nil {
		return nil
	}

	return &Version{Major: sv.Major(), Minor: sv.Minor(), Patch: sv.Patch()}
}

// MustParseVersion is ParseVersion for constants; it panics on malformed input.
func MustParseVersion(s string) Version {
	v := ParseVersion(s)
	if v == nil {
		panic(fmt.Sprintf("toolchain: malformed version %q", s))
	}

	return *v
}

// String formats v as "major.minor.patch".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compare returns -1, 0 or 1 as v is less than, equal to, or greater than o.
func (v Version) Compare(o Version) int {
	return v.semver().Compare(o.semver())
}

// Less reports whether v orders before o.
func (v Version) Less(o Version) bool {
	return v.Compare(o) < 0
}

func (v Version) semver() *semver.Version {
	return semver.New(v.Major, v.Minor, v.Patch, "", "")
}

// FormatVersion renders an optional version, using "none" for absent.
func FormatVersion(v *Version) string {
	if v == nil {
		return "none"
	}

	return v.String()
}
