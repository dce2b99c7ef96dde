package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricResolveTotal   = "modcache.resolve.total"
	metricIdentityReads  = "modcache.identity.reads.total"
	metricLoadsTotal     = "modcache.loads.total"
	metricBuildsTotal    = "modcache.builds.total"
	metricBuildDuration  = "modcache.build.duration.seconds"
	metricResolvedModule = "modcache.resolved.modules"

	attrOutcome = "outcome"
	attrStatus  = "status"
	attrResult  = "result"

	statusOK    = "ok"
	statusError = "error"
)

// Build results recorded by RecordBuild.
const (
	BuildRebuilt = "rebuilt"
	BuildSkipped = "skipped"
	BuildFailed  = "failed"
)

// buildBucketBoundaries covers 100µs to 10s; rebuilds are bounded by the
// reference count and metadata construction.
var buildBucketBoundaries = []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10}

// ResolverMetrics holds the OTel instruments for the resolution cache.
// All methods are safe to call on a nil receiver (no-op).
type ResolverMetrics struct {
	resolveTotal    metric.Int64Counter
	identityReads   metric.Int64Counter
	loadsTotal      metric.Int64Counter
	buildsTotal     metric.Int64Counter
	buildDuration   metric.Float64Histogram
	resolvedModules metric.Int64UpDownCounter
}

// NewResolverMetrics creates resolver metric instruments from the given meter.
func NewResolverMetrics(mt metric.Meter) (*ResolverMetrics, error) {
	b := newMetricBuilder(mt)

	rm := &ResolverMetrics{
		resolveTotal:    b.counter(metricResolveTotal, "Resolution requests by outcome", "{request}"),
		identityReads:   b.counter(metricIdentityReads, "Identity header reads", "{read}"),
		loadsTotal:      b.counter(metricLoadsTotal, "Module loads by status", "{load}"),
		buildsTotal:     b.counter(metricBuildsTotal, "Build calls by result", "{build}"),
		buildDuration:   b.histogram(metricBuildDuration, "Index and metadata rebuild duration", "s", buildBucketBoundaries...),
		resolvedModules: b.upDownCounter(metricResolvedModule, "Modules retained in the resolved cache", "{module}"),
	}

	if b.err != nil {
		return nil, b.err
	}

	return rm, nil
}

// RecordResolve counts one resolution request with its outcome
// (builtin, cached, loaded, or a miss reason).
func (rm *ResolverMetrics) RecordResolve(ctx context.Context, outcome string) {
	if rm == nil {
		return
	}

	rm.resolveTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrOutcome, outcome)))
}

// RecordIdentityRead counts one identity header read.
func (rm *ResolverMetrics) RecordIdentityRead(ctx context.Context) {
	if rm == nil {
		return
	}

	rm.identityReads.Add(ctx, 1)
}

// RecordLoad counts one module load attempt.
func (rm *ResolverMetrics) RecordLoad(ctx context.Context, err error) {
	if rm == nil {
		return
	}

	status := statusOK
	if err != nil {
		status = statusError
	}

	rm.loadsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrStatus, status)))
}

// RecordRetained counts a module newly retained in the resolved cache.
func (rm *ResolverMetrics) RecordRetained(ctx context.Context) {
	if rm == nil {
		return
	}

	rm.resolvedModules.Add(ctx, 1)
}

// RecordBuild counts one Build call. Duration is recorded for rebuilds only.
func (rm *ResolverMetrics) RecordBuild(ctx context.Context, result string, duration time.Duration) {
	if rm == nil {
		return
	}

	rm.buildsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))

	if result == BuildRebuilt {
		rm.buildDuration.Record(ctx, duration.Seconds())
	}
}
