package update

import (
	"strings"

	"github.com/pebble-dev/pebblectl/internal/toolchain"
)

// SDKEntry is one line of "pebble sdk list".
type SDKEntry struct {
	Version   toolchain.Version
	Installed bool
	Active    bool
}

// ParseSDKList parses "pebble sdk list" output. The installed section lists
// local SDKs, one marked "(active)"; the available section lists SDKs that
// can be downloaded. An available SDK that is also installed is reported
// once. Lines that do not start with a version are ignored.
func ParseSDKList(out string) []SDKEntry {
	var (
		entries   []SDKEntry
		installed = true
		seen      = make(map[toolchain.Version]int)
	)

	for _, raw := range strings.Split(out, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		lower := strings.ToLower(line)

		switch {
		case strings.HasPrefix(lower, "installed"):
			installed = true
			continue
		case strings.HasPrefix(lower, "available"):
			installed = false
			continue
		}

		fields := strings.Fields(line)

		v := toolchain.ParseVersion(fields[0])
		if v == nil {
			continue
		}

		active := strings.Contains(lower, "(active)")

		if idx, ok := seen[*v]; ok {
			entries[idx].Installed = entries[idx].Installed || installed
			entries[idx].Active = entries[idx].Active || active

			continue
		}

		seen[*v] = len(entries)
		entries = append(entries, SDKEntry{Version: *v, Installed: installed, Active: active})
	}

	return entries
}

// ActiveSDK returns the active entry, if any.
func ActiveSDK(entries []SDKEntry) (SDKEntry, bool) {
	for _, e := range entries {
		if e.Active {
			return e, true
		}
	}

	return SDKEntry{}, false
}
