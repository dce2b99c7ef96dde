package identity

import (
	"debug/buildinfo"
	"errors"
	"fmt"
	"os"
	"path"
	"regexp"

	"gopkg.in/yaml.v3"
)

// ErrNoIdentityRecord is returned when a file carries no readable identity header.
var ErrNoIdentityRecord = errors.New("identity: no identity record")

// DefaultManifestSuffix is appended to a module location to find its manifest.
const DefaultManifestSuffix = ".identity.yaml"

// majorSuffix matches the "/vN" element Go appends to major-version module paths.
var majorSuffix = regexp.MustCompile(`^v[0-9]+$`)

// Reader reads the identity header of the module stored at location without
// loading the module itself.
type Reader interface {
	ReadIdentity(location string) (Identity, error)
}

// ReaderFunc adapts a function to the Reader interface.
type ReaderFunc func(location string) (Identity, error)

// ReadIdentity calls f(location).
func (f ReaderFunc) ReadIdentity(location string) (Identity, error) {
	return f(location)
}

// BuildInfoReader reads the module identity record the Go linker embeds in
// executables and plugins. The main module path provides the name (its last
// element, major-version suffix dropped), the main module version provides the
// version and the module checksum stands in for the signing key.
type BuildInfoReader struct{}

// ReadIdentity implements Reader.
func (BuildInfoReader) ReadIdentity(location string) (Identity, error) {
	info, err := buildinfo.ReadFile(location)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %s: %w", ErrNoIdentityRecord, location, err)
	}

	modPath := info.Main.Path
	if modPath == "" {
		modPath = info.Path
	}

	if modPath == "" {
		return Identity{}, fmt.Errorf("%w: %s: empty module path", ErrNoIdentityRecord, location)
	}

	return Identity{
		Name:     ModuleName(modPath),
		Version:  info.Main.Version,
		KeyToken: info.Main.Sum,
	}.Normalize(), nil
}

// ModuleName returns the simple name of a module path: its last element, or
// the one before it when the last is a major-version suffix such as "v2".
func ModuleName(modPath string) string {
	base := path.Base(modPath)
	if majorSuffix.MatchString(base) {
		base = path.Base(path.Dir(modPath))
	}

	return base
}

// ManifestReader reads a YAML identity manifest stored next to the module,
// for artifacts that carry no embedded record:
//
//	name: Foo
//	version: 1.0.0
//	locale: neutral
//	key_token: 9f2c
type ManifestReader struct {
	// Suffix is appended to the module location; DefaultManifestSuffix when empty.
	Suffix string
}

// ReadIdentity implements Reader.
func (r ManifestReader) ReadIdentity(location string) (Identity, error) {
	suffix := r.Suffix
	if suffix == "" {
		suffix = DefaultManifestSuffix
	}

	data, err := os.ReadFile(location + suffix)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %s: %w", ErrNoIdentityRecord, location, err)
	}

	var id Identity

	err = yaml.Unmarshal(data, &id)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %s: decode manifest: %w", ErrNoIdentityRecord, location, err)
	}

	if id.Name == "" {
		return Identity{}, fmt.Errorf("%w: %s", ErrEmptyName, location+suffix)
	}

	return id.Normalize(), nil
}

// ChainReader tries each reader in order and returns the first identity found.
type ChainReader []Reader

// ReadIdentity implements Reader.
func (c ChainReader) ReadIdentity(location string) (Identity, error) {
	errs := make([]error, 0, len(c))

	for _, r := range c {
		id, err := r.ReadIdentity(location)
		if err == nil {
			return id, nil
		}

		errs = append(errs, err)
	}

	if len(errs) == 0 {
		return Identity{}, fmt.Errorf("%w: %s: no readers configured", ErrNoIdentityRecord, location)
	}

	return Identity{}, errors.Join(errs...)
}
