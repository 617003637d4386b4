package runner

import "strings"

// Platform is a watch model the emulator can boot.
type Platform struct {
	// Name is the marketing name shown in prompts.
	Name string

	// ID is the identifier the toolchain expects after --emulator.
	ID string
}

// Platforms lists the emulator platforms in prompt order.
var Platforms = []Platform{
	{Name: "Pebble Classic", ID: "aplite"},
	{Name: "Pebble Time", ID: "basalt"},
	{Name: "Pebble Time Round", ID: "chalk"},
	{Name: "Pebble 2", ID: "diorite"},
	{Name: "Pebble Time 2", ID: "emery"},
}

// PlatformIDs returns the platform identifiers in prompt order.
func PlatformIDs() []string {
	ids := make([]string, len(Platforms))
	for i, p := range Platforms {
		ids[i] = p.ID
	}

	return ids
}

// LookupPlatform resolves an identifier or marketing name, case-insensitively.
func LookupPlatform(s string) (Platform, bool) {
	s = strings.TrimSpace(s)

	for _, p := range Platforms {
		if strings.EqualFold(p.ID, s) || strings.EqualFold(p.Name, s) {
			return p, true
		}
	}

	return Platform{}, false
}
