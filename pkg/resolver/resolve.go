package resolver

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/modcache/pkg/identity"
	"github.com/Sumatoshi-tech/modcache/pkg/loader"
	"github.com/Sumatoshi-tech/modcache/pkg/observability"
	"github.com/Sumatoshi-tech/modcache/pkg/refindex"
)

// Resolve returns the module satisfying name, a display name such as
// "Foo, Version=1.0.0" or a bare simple name. A module on disk must carry
// exactly the requested identity: a field the name leaves out must be absent
// from the module too. requester identifies the
// module whose load triggered the request and may be nil. It never fails:
// anything that goes wrong is a miss.
func (c *Cache) Resolve(name string, requester any) (*loader.Module, bool) {
	res := c.ResolveDetailed(name, requester)

	return res.Module, res.Found()
}

// ResolveDetailed is ResolveContext without a caller context.
func (c *Cache) ResolveDetailed(name string, requester any) Result {
	return c.ResolveContext(context.Background(), name, requester)
}

// ResolveContext is Resolve with the reason for the outcome. Load spans and
// logs are recorded under ctx.
//
// Lookup order: builtins, then modules already resolved under the same simple
// name, then index entries whose file name matches the simple name and whose
// location is not a reference-only artifact. Only those candidates have their
// identity header read; the first whose identity matches the request is
// loaded and retained for the life of the cache.
func (c *Cache) ResolveContext(ctx context.Context, name string, requester any) Result {
	res := c.resolve(ctx, name, requester)

	c.metrics.RecordResolve(ctx, res.outcome())

	if !res.Found() {
		c.logger.DebugContext(ctx, "resolve miss",
			slog.String("name", name),
			slog.String("reason", res.Reason.String()),
			slog.Int("candidates", res.Candidates),
			slog.Any("requester", requester),
		)
	}

	return res
}

func (c *Cache) resolve(ctx context.Context, name string, requester any) Result {
	snap := c.current.Load()
	if snap == nil {
		return Result{Reason: NotBuilt}
	}

	req, err := identity.Parse(name)
	if err != nil {
		return Result{Reason: InvalidName}
	}

	if mod, ok := c.builtins[req.Name]; ok {
		return Result{Module: mod, Reason: Hit, Tier: TierBuiltin}
	}

	if mod, ok := c.resolved.Get(req.Name); ok {
		return Result{Module: mod, Reason: Hit, Tier: TierCached}
	}

	reason := NoCandidate
	candidates := 0

	for _, cand := range snap.index.Candidates(req.Name) {
		if refindex.IsReferenceOnly(cand.Location, c.refSegments) {
			continue
		}

		candidates++

		mod, stage := c.tryCandidate(ctx, req, cand, requester)
		if mod == nil {
			reason = furthest(reason, stage)

			continue
		}

		retained, inserted := c.resolved.Insert(req.Name, mod)
		if inserted {
			c.metrics.RecordRetained(ctx)
		}

		return Result{Module: retained, Reason: Hit, Tier: TierLoaded, Candidates: candidates}
	}

	return Result{Reason: reason, Candidates: candidates}
}

// tryCandidate reads the candidate's identity and loads it when it matches.
// It returns the reason the candidate was rejected when the module is nil.
func (c *Cache) tryCandidate(
	ctx context.Context, req identity.Identity, cand refindex.ReferenceEntry, requester any,
) (*loader.Module, Reason) {
	err := loader.CheckSize(cand.Location, c.maxSize)
	if err != nil {
		c.logger.DebugContext(ctx, "candidate skipped", slog.String("location", cand.Location), slog.Any("error", err))

		return nil, LoadFailed
	}

	onDisk, err := c.readIdentity(ctx, cand.Location)
	if err != nil {
		c.logger.DebugContext(ctx, "identity header unreadable",
			slog.String("location", cand.Location), slog.Any("error", err))

		return nil, IdentityMismatch
	}

	if !identity.Match(req, onDisk) {
		c.logger.DebugContext(ctx, "identity mismatch",
			slog.String("requested", req.String()), slog.String("found", onDisk.String()))

		return nil, IdentityMismatch
	}

	ctx, span := c.tracer.Start(ctx, "modcache.load", trace.WithAttributes(
		attribute.String(observability.AttrLocation, cand.Location),
		attribute.String(observability.AttrRequester, fmt.Sprint(requester)),
	))
	defer span.End()

	// No lock is held here: the load may resolve its own dependencies
	// through this cache.
	handle, err := c.load(cand.Location)
	c.metrics.RecordLoad(ctx, err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load module")
		c.logger.WarnContext(ctx, "module load failed",
			slog.String("location", cand.Location),
			slog.String("identity", onDisk.String()),
			slog.Any("requester", requester),
			slog.Any("error", err),
		)

		return nil, LoadFailed
	}

	return &loader.Module{
		Name:     req.Name,
		Location: cand.Location,
		Identity: onDisk,
		Value:    handle,
	}, Hit
}

func (c *Cache) readIdentity(ctx context.Context, location string) (id identity.Identity, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("read identity %s: panic: %v", location, r)
		}
	}()

	c.metrics.RecordIdentityRead(ctx)

	return c.reader.ReadIdentity(location)
}

func (c *Cache) load(location string) (handle any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("load %s: panic: %v", location, r)
		}
	}()

	return c.loader.Load(location)
}
