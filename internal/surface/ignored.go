package surface

import (
	"slices"
	"strings"
)

// IgnoredApps is the settings surface's sorted mirror of the ignored
// application list. The daemon is the source of truth; the mirror changes
// only after the daemon acknowledges an add or remove.
type IgnoredApps struct {
	names []string
}

// NewIgnoredApps builds a mirror from the daemon's list.
func NewIgnoredApps(names []string) IgnoredApps {
	out := slices.Clone(names)
	slices.Sort(out)
	return IgnoredApps{names: slices.Compact(out)}
}

// Names returns the mirrored names in sorted order.
func (a IgnoredApps) Names() []string { return a.names }

// Len returns the number of names.
func (a IgnoredApps) Len() int { return len(a.names) }

// Contains reports whether name is present (exact match).
func (a IgnoredApps) Contains(name string) bool {
	_, found := slices.BinarySearch(a.names, name)
	return found
}

// Candidate trims input and reports whether it should be sent to the daemon:
// false for blank input and for names already present.
func (a IgnoredApps) Candidate(input string) (string, bool) {
	name := strings.TrimSpace(input)
	if name == "" || a.Contains(name) {
		return name, false
	}
	return name, true
}

// Insert adds an acknowledged name, keeping the mirror sorted.
func (a *IgnoredApps) Insert(name string) {
	i, found := slices.BinarySearch(a.names, name)
	if found {
		return
	}
	a.names = slices.Insert(a.names, i, name)
}

// Remove deletes an acknowledged name. Absent names are ignored.
func (a *IgnoredApps) Remove(name string) {
	i, found := slices.BinarySearch(a.names, name)
	if !found {
		return
	}
	a.names = slices.Delete(a.names, i, i+1)
}

// AppNameFromPath returns the final segment of a path from the file picker.
// Both / and \ separate segments.
func AppNameFromPath(path string) string {
	path = strings.TrimRight(path, `/\`)
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}
