package observability

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Span attribute keys set by modcache.
const (
	AttrReferences = "modcache.references"
	AttrDistinct   = "modcache.distinct"
	AttrExtensions = "modcache.extensions"
	AttrLocation   = "modcache.location"
	AttrRequester  = "modcache.requester"
)

var allowedPrefixes = []string{
	"modcache.",
	"error.",
	"http.",
}

// pathKeys carry host filesystem paths or host objects. They are stripped
// unless the filter was built with keepPaths.
var pathKeys = map[string]bool{
	AttrLocation:  true,
	AttrRequester: true,
}

// attributeFilter is a SpanProcessor that strips attributes outside the
// allow-list before forwarding to a delegate processor.
type attributeFilter struct {
	delegate  sdktrace.SpanProcessor
	logger    *slog.Logger
	keepPaths bool
}

// NewAttributeFilter returns a SpanProcessor that filters span attributes.
// Keys under modcache., error. and http. pass; module locations and
// requesters pass only when keepPaths is set. When logger is non-nil,
// dropped keys are logged at debug level.
func NewAttributeFilter(delegate sdktrace.SpanProcessor, logger *slog.Logger, keepPaths bool) sdktrace.SpanProcessor {
	return &attributeFilter{delegate: delegate, logger: logger, keepPaths: keepPaths}
}

// OnStart delegates to the wrapped processor.
func (f *attributeFilter) OnStart(parent context.Context, s sdktrace.ReadWriteSpan) {
	f.delegate.OnStart(parent, s)
}

// OnEnd filters attributes, then delegates to the wrapped processor.
func (f *attributeFilter) OnEnd(s sdktrace.ReadOnlySpan) {
	f.delegate.OnEnd(&filteredSpan{ReadOnlySpan: s, filter: f})
}

// Shutdown delegates to the wrapped processor.
func (f *attributeFilter) Shutdown(ctx context.Context) error {
	err := f.delegate.Shutdown(ctx)
	if err != nil {
		return fmt.Errorf("attribute filter shutdown: %w", err)
	}

	return nil
}

// ForceFlush delegates to the wrapped processor.
func (f *attributeFilter) ForceFlush(ctx context.Context) error {
	err := f.delegate.ForceFlush(ctx)
	if err != nil {
		return fmt.Errorf("attribute filter flush: %w", err)
	}

	return nil
}

func (f *attributeFilter) isAllowed(key string) bool {
	if pathKeys[key] {
		if f.keepPaths {
			return true
		}

		f.drop(key)

		return false
	}

	for _, prefix := range allowedPrefixes {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}

	if key == "error" {
		return true
	}

	f.drop(key)

	return false
}

func (f *attributeFilter) drop(key string) {
	if f.logger != nil {
		f.logger.Debug("span attribute dropped", "key", key)
	}
}

// filteredSpan wraps a ReadOnlySpan and returns only allowed attributes.
type filteredSpan struct {
	sdktrace.ReadOnlySpan

	filter *attributeFilter
}

// Attributes returns only the allowed attributes.
func (s *filteredSpan) Attributes() []attribute.KeyValue {
	orig := s.ReadOnlySpan.Attributes()
	filtered := make([]attribute.KeyValue, 0, len(orig))

	for _, kv := range orig {
		if s.filter.isAllowed(string(kv.Key)) {
			filtered = append(filtered, kv)
		}
	}

	return filtered
}
