// Package hook wires a resolution function into a host's module-loading
// fallback extension point.
package hook

import (
	"sync"
	"sync/atomic"
)

// ResolveFunc is the fallback resolver shape hosts call when their own module
// lookup fails. requester identifies the module whose load triggered the
// request and may be nil. A false result is a normal miss.
type ResolveFunc func(name string, requester any) (handle any, found bool)

// Installer is the host extension point a ResolveFunc is installed into.
type Installer interface {
	Install(fn ResolveFunc)
}

// InstallerFunc adapts a function to the Installer interface.
type InstallerFunc func(fn ResolveFunc)

// Install calls f(fn).
func (f InstallerFunc) Install(fn ResolveFunc) {
	f(fn)
}

// Registrar installs a resolver exactly once, however many goroutines call
// Register. There is no way to uninstall.
type Registrar struct {
	installer  Installer
	once       sync.Once
	registered atomic.Bool
}

// NewRegistrar creates a Registrar installing into installer.
func NewRegistrar(installer Installer) *Registrar {
	return &Registrar{installer: installer}
}

// Register installs fn on the first call. Later calls, including ones with a
// different fn, are no-ops. Concurrent callers return only after the
// installation has completed.
func (r *Registrar) Register(fn ResolveFunc) {
	r.once.Do(func() {
		if r.installer != nil {
			r.installer.Install(fn)
		}

		r.registered.Store(true)
	})
}

// Registered reports whether Register has completed.
func (r *Registrar) Registered() bool {
	return r.registered.Load()
}

// Chain is an in-process host fallback chain. Fallbacks are consulted in the
// order they were installed; the first hit wins.
type Chain struct {
	mu        sync.RWMutex
	fallbacks []ResolveFunc
}

// Install implements Installer.
func (c *Chain) Install(fn ResolveFunc) {
	if fn == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.fallbacks = append(c.fallbacks, fn)
}

// Len returns the number of installed fallbacks.
func (c *Chain) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.fallbacks)
}

// Resolve consults each fallback in turn. The chain lock is not held while a
// fallback runs, so fallbacks may resolve reentrantly through the chain.
func (c *Chain) Resolve(name string, requester any) (any, bool) {
	c.mu.RLock()
	fallbacks := c.fallbacks
	c.mu.RUnlock()

	for _, fn := range fallbacks {
		if handle, ok := fn(name, requester); ok {
			return handle, true
		}
	}

	return nil, false
}
