// Package identity models the (name, version, locale, key) tuple that uniquely
// identifies a loadable module, and the readers that recover it from disk.
package identity

import (
	"errors"
	"strings"

	"github.com/Masterminds/semver"
)

// ErrEmptyName is returned when a display name carries no simple name.
var ErrEmptyName = errors.New("identity: empty module name")

// Well-known values written when a module declares no locale or signing key.
const (
	NeutralLocale = "neutral"
	NullKeyToken  = "null"
)

const (
	fieldVersion = "version"
	fieldCulture = "culture"
	fieldKey     = "publickeytoken"
)

// Identity is the full identity tuple of a module.
// An empty field means "not stated".
type Identity struct {
	Name     string `yaml:"name"`
	Version  string `yaml:"version"`
	Locale   string `yaml:"locale"`
	KeyToken string `yaml:"key_token"`
}

// Parse reads a module display name. Both the long form
//
//	Foo, Version=1.0.0, Culture=neutral, PublicKeyToken=abc123
//
// and the positional short form "Foo,1.0.0,neutral,abc123" are accepted.
// Unknown key=value fields are ignored.
func Parse(display string) (Identity, error) {
	parts := strings.Split(display, ",")

	id := Identity{Name: strings.TrimSpace(parts[0])}
	if id.Name == "" {
		return Identity{}, ErrEmptyName
	}

	positional := []*string{&id.Version, &id.Locale, &id.KeyToken}

	for i, raw := range parts[1:] {
		part := strings.TrimSpace(raw)

		key, value, ok := strings.Cut(part, "=")
		if !ok {
			if i < len(positional) {
				*positional[i] = part
			}

			continue
		}

		value = strings.TrimSpace(value)

		switch strings.ToLower(strings.TrimSpace(key)) {
		case fieldVersion:
			id.Version = value
		case fieldCulture:
			id.Locale = value
		case fieldKey:
			id.KeyToken = value
		}
	}

	return id, nil
}

// String renders the long display form, omitting fields that are not stated.
func (id Identity) String() string {
	var sb strings.Builder

	sb.WriteString(id.Name)

	if id.Version != "" {
		sb.WriteString(", Version=")
		sb.WriteString(id.Version)
	}

	if id.Locale != "" {
		sb.WriteString(", Culture=")
		sb.WriteString(id.Locale)
	}

	if id.KeyToken != "" {
		sb.WriteString(", PublicKeyToken=")
		sb.WriteString(id.KeyToken)
	}

	return sb.String()
}

// Normalize fills the locale and key with their neutral values when absent.
// Match normalizes both sides so that "Culture=neutral" and an absent
// culture are the same thing.
func (id Identity) Normalize() Identity {
	if id.Locale == "" {
		id.Locale = NeutralLocale
	}

	if id.KeyToken == "" {
		id.KeyToken = NullKeyToken
	}

	return id
}

// Match reports whether the on-disk identity is exactly the requested one.
// Both sides are normalized first, so a request that states no locale or key
// only matches a module that declares none. Name, locale and key compare
// case-insensitively; versions by semantic-version equality (so "1.0" and
// "v1.0.0" are the same version), and an unstated version only matches an
// unstated one. There is no range or compatibility matching.
func Match(requested, onDisk Identity) bool {
	requested = requested.Normalize()
	onDisk = onDisk.Normalize()

	return strings.EqualFold(requested.Name, onDisk.Name) &&
		versionsEqual(requested.Version, onDisk.Version) &&
		strings.EqualFold(requested.Locale, onDisk.Locale) &&
		strings.EqualFold(requested.KeyToken, onDisk.KeyToken)
}

func versionsEqual(a, b string) bool {
	if a == "" || b == "" {
		return a == b
	}

	va, errA := semver.NewVersion(a)
	vb, errB := semver.NewVersion(b)

	if errA != nil || errB != nil {
		return strings.EqualFold(a, b)
	}

	return va.Equal(vb)
}
