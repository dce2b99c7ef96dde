// Package metadata produces the extension catalog the analyzer consults while
// checking a compiled unit. Extensions are contributed by startup hooks that a
// pluggable Locator discovers.
package metadata

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
)

// Sentinel errors for catalog construction.
var (
	ErrDuplicateExtension = errors.New("duplicate extension")
	ErrEmptyExtensionName = errors.New("extension name is empty")
)

// Extension is the metadata one extension declares.
type Extension struct {
	// Name identifies the extension.
	Name string

	// Module is the simple name of the module that provides it.
	Module string

	// Bindings are the binding names the extension handles.
	Bindings []string
}

func (e Extension) clone() Extension {
	e.Bindings = slices.Clone(e.Bindings)

	return e
}

// Startup is a contribution point that registers extensions.
type Startup interface {
	Name() string
	Configure(b *Builder) error
}

// Locator reports the startups to run when producing a catalog.
type Locator interface {
	Startups() ([]Startup, error)
}

// NoStartups is a Locator that reports none.
type NoStartups struct{}

// Startups implements Locator.
func (NoStartups) Startups() ([]Startup, error) { return nil, nil }

// StaticLocator reports a fixed list of startups.
type StaticLocator []Startup

// Startups implements Locator.
func (s StaticLocator) Startups() ([]Startup, error) { return slices.Clone(s), nil }

// StartupFunc adapts a name and a function to the Startup interface.
type StartupFunc struct {
	ID  string
	Run func(b *Builder) error
}

// Name implements Startup.
func (s StartupFunc) Name() string { return s.ID }

// Configure implements Startup.
func (s StartupFunc) Configure(b *Builder) error { return s.Run(b) }

// Factory produces a catalog from the startups a locator reports.
type Factory interface {
	Produce(ctx context.Context, locator Locator) (*Catalog, error)
}

// FactoryFunc adapts a function to the Factory interface.
type FactoryFunc func(ctx context.Context, locator Locator) (*Catalog, error)

// Produce calls f(ctx, locator).
func (f FactoryFunc) Produce(ctx context.Context, locator Locator) (*Catalog, error) {
	return f(ctx, locator)
}

// Builder collects extensions while startups run.
type Builder struct {
	extensions map[string]Extension
}

// AddExtension registers ext. Names must be unique within a catalog.
func (b *Builder) AddExtension(ext Extension) error {
	if ext.Name == "" {
		return ErrEmptyExtensionName
	}

	if _, exists := b.extensions[ext.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateExtension, ext.Name)
	}

	ext.Bindings = slices.Clone(ext.Bindings)
	b.extensions[ext.Name] = ext

	return nil
}

// CatalogFactory is the default Factory: it runs every startup in the order
// the locator reports them and freezes the result.
type CatalogFactory struct{}

// Produce implements Factory.
func (CatalogFactory) Produce(ctx context.Context, locator Locator) (*Catalog, error) {
	if locator == nil {
		locator = NoStartups{}
	}

	startups, err := locator.Startups()
	if err != nil {
		return nil, fmt.Errorf("locate startups: %w", err)
	}

	b := &Builder{extensions: make(map[string]Extension)}

	for _, s := range startups {
		ctxErr := ctx.Err()
		if ctxErr != nil {
			return nil, fmt.Errorf("produce catalog: %w", ctxErr)
		}

		err = s.Configure(b)
		if err != nil {
			return nil, fmt.Errorf("startup %s: %w", s.Name(), err)
		}
	}

	return newCatalog(b.extensions), nil
}

// Catalog is the immutable extension metadata consumed by the analyzer.
type Catalog struct {
	extensions []Extension
	byName     map[string]int
	byBinding  map[string]int
}

func newCatalog(exts map[string]Extension) *Catalog {
	c := &Catalog{
		extensions: make([]Extension, 0, len(exts)),
		byName:     make(map[string]int, len(exts)),
		byBinding:  make(map[string]int),
	}

	for _, ext := range exts {
		c.extensions = append(c.extensions, ext)
	}

	sort.Slice(c.extensions, func(i, j int) bool { return c.extensions[i].Name < c.extensions[j].Name })

	for i, ext := range c.extensions {
		c.byName[ext.Name] = i

		for _, binding := range ext.Bindings {
			if _, taken := c.byBinding[binding]; !taken {
				c.byBinding[binding] = i
			}
		}
	}

	return c
}

// Extensions returns all extensions sorted by name.
func (c *Catalog) Extensions() []Extension {
	out := make([]Extension, len(c.extensions))
	for i, ext := range c.extensions {
		out[i] = ext.clone()
	}

	return out
}

// Extension returns the extension registered under name.
func (c *Catalog) Extension(name string) (Extension, bool) {
	i, ok := c.byName[name]
	if !ok {
		return Extension{}, false
	}

	return c.extensions[i].clone(), true
}

// ForBinding returns the extension handling binding. When several do, the
// first by name wins.
func (c *Catalog) ForBinding(binding string) (Extension, bool) {
	i, ok := c.byBinding[binding]
	if !ok {
		return Extension{}, false
	}

	return c.extensions[i].clone(), true
}

// Len returns the number of extensions.
func (c *Catalog) Len() int {
	return len(c.extensions)
}
