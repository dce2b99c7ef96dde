package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Sumatoshi-tech/modcache/pkg/observability"
)

func filteredProvider(t *testing.T, logger *slog.Logger, keepPaths bool) (*sdktrace.TracerProvider, *tracetest.InMemoryExporter) {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	filter := observability.NewAttributeFilter(sdktrace.NewSimpleSpanProcessor(exporter), logger, keepPaths)
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(filter),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	t.Cleanup(func() { require.NoError(t, tp.Shutdown(context.Background())) })

	return tp, exporter
}

func TestAttributeFilter_AllowsKnownKeys(t *testing.T) {
	t.Parallel()

	tp, exporter := filteredProvider(t, nil, false)

	_, span := tp.Tracer("test").Start(context.Background(), "op")
	span.SetAttributes(
		attribute.Int(observability.AttrReferences, 12),
		attribute.String("error.type", "timeout"),
		attribute.String("http.method", "GET"),
	)
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)

	attrs := spanAttrMap(spans[0])
	assert.Equal(t, int64(12), attrs[observability.AttrReferences])
	assert.Equal(t, "timeout", attrs["error.type"])
	assert.Equal(t, "GET", attrs["http.method"])
}

func TestAttributeFilter_StripsPathsAndUnknownKeys(t *testing.T) {
	t.Parallel()

	tp, exporter := filteredProvider(t, nil, false)

	_, span := tp.Tracer("test").Start(context.Background(), "op")
	span.SetAttributes(
		attribute.String(observability.AttrLocation, "/home/alice/plugins/Foo.so"),
		attribute.String(observability.AttrRequester, "Bar"),
		attribute.String("user.id", "12345"),
		attribute.Int(observability.AttrDistinct, 3),
	)
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)

	attrs := spanAttrMap(spans[0])
	assert.NotContains(t, attrs, observability.AttrLocation)
	assert.NotContains(t, attrs, observability.AttrRequester)
	assert.NotContains(t, attrs, "user.id")
	assert.Equal(t, int64(3), attrs[observability.AttrDistinct])
}

func TestAttributeFilter_KeepPaths(t *testing.T) {
	t.Parallel()

	tp, exporter := filteredProvider(t, nil, true)

	_, span := tp.Tracer("test").Start(context.Background(), "op")
	span.SetAttributes(attribute.String(observability.AttrLocation, "/opt/plugins/Foo.so"))
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "/opt/plugins/Foo.so", spanAttrMap(spans[0])[observability.AttrLocation])
}

func TestAttributeFilter_LogsDroppedKeys(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	tp, exporter := filteredProvider(t, logger, false)

	_, span := tp.Tracer("test").Start(context.Background(), "op")
	span.SetAttributes(attribute.String("user.secret", "val"))
	span.End()

	// Attributes are filtered when the exporter reads them.
	_ = exporter.GetSpans()

	assert.Contains(t, buf.String(), "user.secret")
	assert.Contains(t, buf.String(), "dropped")
}

// spanAttrMap converts a span's attributes into a map for easy assertion.
func spanAttrMap(s tracetest.SpanStub) map[string]any {
	m := make(map[string]any, len(s.Attributes))
	for _, a := range s.Attributes {
		m[string(a.Key)] = a.Value.AsInterface()
	}

	return m
}
