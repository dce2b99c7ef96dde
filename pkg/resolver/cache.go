// Package resolver implements the resolution cache: an index from declared
// references to artifacts, rebuilt once per analysis pass, and a best-effort
// fallback resolver that loads referenced modules on demand.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/modcache/internal/cache"
	"github.com/Sumatoshi-tech/modcache/pkg/hook"
	"github.com/Sumatoshi-tech/modcache/pkg/identity"
	"github.com/Sumatoshi-tech/modcache/pkg/loader"
	"github.com/Sumatoshi-tech/modcache/pkg/metadata"
	"github.com/Sumatoshi-tech/modcache/pkg/observability"
	"github.com/Sumatoshi-tech/modcache/pkg/refindex"
)

// ErrNilCatalog is returned when a metadata factory reports success without a catalog.
var ErrNilCatalog = errors.New("metadata factory returned no catalog")

// Options configures a Cache. Zero values select the defaults noted per field.
type Options struct {
	// Reader reads identity headers; identity.BuildInfoReader by default.
	Reader identity.Reader

	// Loader loads matching modules; loader.PluginLoader by default.
	Loader loader.Loader

	// Factory produces the metadata catalog; metadata.CatalogFactory by default.
	Factory metadata.Factory

	// Locator is handed to Factory; metadata.NoStartups by default.
	Locator metadata.Locator

	// Builtins are resolved before the index. Nil selects DefaultBuiltins;
	// pass an empty map for none.
	Builtins map[string]*loader.Module

	// Registrar, when set, receives the resolve function on the first Build.
	Registrar *hook.Registrar

	// ReferenceOnlySegments are directory names marking unloadable
	// reference artifacts; refindex.DefaultReferenceOnlySegments by default.
	ReferenceOnlySegments []string

	// MaxModuleSize skips candidates larger than this many bytes. Zero disables.
	MaxModuleSize int64

	Logger  *slog.Logger
	Metrics *observability.ResolverMetrics
	Tracer  trace.Tracer
}

// snapshot is the state one Build publishes. It is never mutated.
type snapshot struct {
	index      *refindex.Index
	catalog    *metadata.Catalog
	generation int
}

// Cache is the resolution cache. Build and Resolve may be called from any
// goroutine; Resolve may be reentered from within a module load.
type Cache struct {
	// mu serializes rebuilds. Resolve never takes it.
	mu      sync.Mutex
	current atomic.Pointer[snapshot]

	builtins map[string]*loader.Module
	resolved *cache.Store[string, *loader.Module]

	reader      identity.Reader
	loader      loader.Loader
	factory     metadata.Factory
	locator     metadata.Locator
	registrar   *hook.Registrar
	refSegments []string
	maxSize     int64

	logger  *slog.Logger
	metrics *observability.ResolverMetrics
	tracer  trace.Tracer
}

// New creates a Cache. Nothing resolves until the first successful Build.
func New(opts Options) *Cache {
	c := &Cache{
		builtins:    opts.Builtins,
		resolved:    cache.NewStore[string, *loader.Module](),
		reader:      opts.Reader,
		loader:      opts.Loader,
		factory:     opts.Factory,
		locator:     opts.Locator,
		registrar:   opts.Registrar,
		refSegments: opts.ReferenceOnlySegments,
		maxSize:     opts.MaxModuleSize,
		logger:      observability.Component(opts.Logger, "resolver"),
		metrics:     opts.Metrics,
		tracer:      opts.Tracer,
	}

	if c.builtins == nil {
		c.builtins = DefaultBuiltins()
	}

	if c.reader == nil {
		c.reader = identity.BuildInfoReader{}
	}

	if c.loader == nil {
		c.loader = loader.PluginLoader{}
	}

	if c.factory == nil {
		c.factory = metadata.CatalogFactory{}
	}

	if c.locator == nil {
		c.locator = metadata.NoStartups{}
	}

	if c.refSegments == nil {
		c.refSegments = refindex.DefaultReferenceOnlySegments
	}

	if c.tracer == nil {
		c.tracer = nooptrace.NewTracerProvider().Tracer("modcache")
	}

	return c
}

// Build brings the index and metadata catalog up to date with the declared
// references of the unit under analysis. When the reference count equals the
// previous successful build's and a catalog exists, it returns immediately,
// so a same-count substitution is not detected. A metadata factory failure is
// returned and the previous state stays current.
func (c *Cache) Build(ctx context.Context, entries []refindex.ReferenceEntry) error {
	if c.registrar != nil {
		c.registrar.Register(c.ResolveFunc())
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	count := len(entries)

	if cur := c.current.Load(); cur != nil && cur.generation == count && cur.catalog != nil {
		c.metrics.RecordBuild(ctx, observability.BuildSkipped, 0)

		return nil
	}

	start := time.Now()

	ctx, span := c.tracer.Start(ctx, "modcache.build", trace.WithAttributes(attribute.Int(observability.AttrReferences, count)))
	defer span.End()

	idx := refindex.Build(entries)

	catalog, err := c.factory.Produce(ctx, c.locator)
	if err == nil && catalog == nil {
		err = ErrNilCatalog
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "produce metadata")
		c.metrics.RecordBuild(ctx, observability.BuildFailed, time.Since(start))

		return fmt.Errorf("produce metadata: %w", err)
	}

	c.current.Store(&snapshot{index: idx, catalog: catalog, generation: count})
	span.SetAttributes(
		attribute.Int(observability.AttrDistinct, idx.Len()),
		attribute.Int(observability.AttrExtensions, catalog.Len()),
	)

	elapsed := time.Since(start)
	c.metrics.RecordBuild(ctx, observability.BuildRebuilt, elapsed)
	c.logger.InfoContext(ctx, "reference index rebuilt",
		slog.Int("references", count),
		slog.Int("distinct", idx.Len()),
		slog.Int("extensions", catalog.Len()),
		slog.Duration("elapsed", elapsed),
	)

	return nil
}

// Tooling returns the current metadata catalog, or nil before the first
// successful Build.
func (c *Cache) Tooling() *metadata.Catalog {
	if snap := c.current.Load(); snap != nil {
		return snap.catalog
	}

	return nil
}

// Generation returns the reference count of the last successful Build.
func (c *Cache) Generation() int {
	if snap := c.current.Load(); snap != nil {
		return snap.generation
	}

	return 0
}

// Index returns the current reference index, or nil before the first
// successful Build.
func (c *Cache) Index() *refindex.Index {
	if snap := c.current.Load(); snap != nil {
		return snap.index
	}

	return nil
}

// Len returns the number of modules retained in the resolved cache.
func (c *Cache) Len() int {
	return c.resolved.Len()
}

// Builtins returns the builtin module names, sorted.
func (c *Cache) Builtins() []string {
	names := make([]string, 0, len(c.builtins))
	for name := range c.builtins {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// ResolveFunc returns Resolve in the shape hosts install as a fallback.
// The handle is the *loader.Module.
func (c *Cache) ResolveFunc() hook.ResolveFunc {
	return func(name string, requester any) (any, bool) {
		mod, ok := c.Resolve(name, requester)
		if !ok {
			return nil, false
		}

		return mod, true
	}
}
