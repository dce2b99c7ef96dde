// Package refindex maps the references a compiled unit declares to the
// locations of their artifacts on disk.
package refindex

import (
	"path/filepath"
	"strings"
)

// DefaultReferenceOnlySegments are the directory names that mark reference-only
// artifacts: stubs that describe an API surface but cannot be loaded.
var DefaultReferenceOnlySegments = []string{"ref"}

// ReferenceEntry is one declared reference. Identity may itself be a full
// path for path-based references. An empty Location means the reference has
// no known artifact.
type ReferenceEntry struct {
	Identity string `json:"identity" yaml:"identity"`
	Location string `json:"location,omitempty" yaml:"location,omitempty"`
}

// Index maps declared identities to locations. Later entries with the same
// identity overwrite earlier ones. An Index is immutable once built.
type Index struct {
	locations map[string]string
	order     []string
	byStem    map[string][]ReferenceEntry
}

// Build constructs an Index from the declared references. It performs no I/O.
func Build(entries []ReferenceEntry) *Index {
	idx := &Index{
		locations: make(map[string]string, len(entries)),
		order:     make([]string, 0, len(entries)),
		byStem:    make(map[string][]ReferenceEntry),
	}

	for _, e := range entries {
		if _, seen := idx.locations[e.Identity]; !seen {
			idx.order = append(idx.order, e.Identity)
		}

		idx.locations[e.Identity] = e.Location
	}

	for _, ident := range idx.order {
		loc := idx.locations[ident]
		if loc == "" {
			continue
		}

		key := strings.ToLower(Stem(loc))
		idx.byStem[key] = append(idx.byStem[key], ReferenceEntry{Identity: ident, Location: loc})
	}

	return idx
}

// Len returns the number of distinct identities.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}

	return len(idx.order)
}

// Lookup returns the location recorded for identity. The boolean reports
// whether the identity is present, even when its location is absent.
func (idx *Index) Lookup(ident string) (string, bool) {
	if idx == nil {
		return "", false
	}

	loc, ok := idx.locations[ident]

	return loc, ok
}

// Entries returns the distinct entries in order of first declaration, each
// carrying its winning location.
func (idx *Index) Entries() []ReferenceEntry {
	if idx == nil {
		return nil
	}

	out := make([]ReferenceEntry, 0, len(idx.order))
	for _, ident := range idx.order {
		out = append(out, ReferenceEntry{Identity: ident, Location: idx.locations[ident]})
	}

	return out
}

// Candidates returns the entries whose location base filename, without
// extension, equals simpleName case-insensitively. Entries without a location
// are never candidates. The result must not be modified.
func (idx *Index) Candidates(simpleName string) []ReferenceEntry {
	if idx == nil {
		return nil
	}

	return idx.byStem[strings.ToLower(simpleName)]
}

// Stem returns the base filename of location without its extension.
// Both slash styles are treated as separators.
func Stem(location string) string {
	base := location
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}

	return strings.TrimSuffix(base, filepath.Ext(base))
}

// IsReferenceOnly reports whether location lies under a directory named like
// one of segments. It looks at the path shape only, never at file content.
func IsReferenceOnly(location string, segments []string) bool {
	dirs := strings.FieldsFunc(location, func(r rune) bool { return r == '/' || r == '\\' })
	if len(dirs) > 0 {
		dirs = dirs[:len(dirs)-1]
	}

	for _, dir := range dirs {
		for _, seg := range segments {
			if strings.EqualFold(dir, seg) {
				return true
			}
		}
	}

	return false
}
