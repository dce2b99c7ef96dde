// Package loader loads module artifacts into the running process.
package loader

import (
	"errors"
	"fmt"
	"os"
	goplugin "plugin"

	"github.com/Sumatoshi-tech/modcache/pkg/identity"
)

// Sentinel errors for module loading.
var (
	ErrModuleTooLarge = errors.New("module exceeds size limit")
	ErrMissingSymbol  = errors.New("module missing entry symbol")
)

// Module is a loaded module, or a builtin one obtained ahead of time.
type Module struct {
	// Name is the simple name the module was requested under.
	Name string

	// Location is the artifact path; empty for builtins.
	Location string

	// Identity is the identity read from the artifact header.
	Identity identity.Identity

	// Value is the loader-specific handle (a *plugin.Plugin, an entry
	// symbol, or whatever a builtin was registered with).
	Value any
}

// Loader loads the module stored at location and returns its handle.
// Implementations may be called concurrently and reentrantly.
type Loader interface {
	Load(location string) (any, error)
}

// Func adapts a function to the Loader interface.
type Func func(location string) (any, error)

// Load calls f(location).
func (f Func) Load(location string) (any, error) {
	return f(location)
}

// PluginLoader opens Go plugins built with -buildmode=plugin.
type PluginLoader struct {
	// Symbol, when set, is looked up after opening and returned as the
	// handle instead of the *plugin.Plugin.
	Symbol string
}

// Load implements Loader.
func (l PluginLoader) Load(location string) (any, error) {
	dl, err := goplugin.Open(location)
	if err != nil {
		return nil, fmt.Errorf("open plugin %s: %w", location, err)
	}

	if l.Symbol == "" {
		return dl, nil
	}

	sym, err := dl.Lookup(l.Symbol)
	if err != nil {
		return nil, fmt.Errorf("%w: %s in %s: %w", ErrMissingSymbol, l.Symbol, location, err)
	}

	return sym, nil
}

// CheckSize returns ErrModuleTooLarge when the file at location is larger
// than maxBytes. A non-positive maxBytes disables the check.
func CheckSize(location string, maxBytes int64) error {
	if maxBytes <= 0 {
		return nil
	}

	info, err := os.Stat(location)
	if err != nil {
		return fmt.Errorf("stat %s: %w", location, err)
	}

	if info.Size() > maxBytes {
		return fmt.Errorf("%w: %s is %d bytes, limit %d", ErrModuleTooLarge, location, info.Size(), maxBytes)
	}

	return nil
}
