package resolver_test

import (
	"context"
	"testing"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/iter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/modcache/pkg/loader"
)

func TestResolve_ConcurrentColdCallersConverge(t *testing.T) {
	t.Parallel()

	h := newHarness(fooBarHeaders(), nil)
	require.NoError(t, h.cache.Build(context.Background(), fooBarRefs()))

	const callers = 8

	got := iter.Map(make([]struct{}, callers), func(*struct{}) *loader.Module {
		mod, ok := h.cache.Resolve("Foo, Version=1.0", nil)
		if !ok {
			return nil
		}

		return mod
	})

	require.Len(t, got, callers)

	for _, mod := range got {
		require.NotNil(t, mod)
		assert.Same(t, got[0], mod)
	}

	assert.Equal(t, 1, h.cache.Len())
}

func TestResolve_ConcurrentWithRebuilds(t *testing.T) {
	t.Parallel()

	h := newHarness(fooBarHeaders(), nil)
	require.NoError(t, h.cache.Build(context.Background(), fooBarRefs()))

	var wg conc.WaitGroup

	for i := range 32 {
		wg.Go(func() {
			if i%4 == 0 {
				assert.NoError(t, h.cache.Build(context.Background(), fooBarRefs()[:1+i%8/4]))

				return
			}

			// Foo is in every reference set built here.
			_, ok := h.cache.Resolve("Foo, Version=1.0", nil)
			assert.True(t, ok)
		})
	}

	wg.Wait()

	assert.Equal(t, 1, h.cache.Len())
}
