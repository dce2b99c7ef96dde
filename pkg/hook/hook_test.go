package hook_test

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/modcache/pkg/hook"
)

func missing(string, any) (any, bool) { return nil, false }

func TestRegistrar_InstallsOnceUnderConcurrency(t *testing.T) {
	t.Parallel()

	var installs atomic.Int32

	reg := hook.NewRegistrar(hook.InstallerFunc(func(hook.ResolveFunc) {
		installs.Add(1)
	}))

	const callers = 32

	var wg sync.WaitGroup

	for range callers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			reg.Register(missing)
		}()
	}

	wg.Wait()

	assert.Equal(t, int32(1), installs.Load())
	assert.True(t, reg.Registered())
}

func TestRegistrar_LaterCallsAreNoOps(t *testing.T) {
	t.Parallel()

	chain := &hook.Chain{}
	reg := hook.NewRegistrar(chain)

	assert.False(t, reg.Registered())

	reg.Register(func(string, any) (any, bool) { return "first", true })
	reg.Register(func(string, any) (any, bool) { return "second", true })

	assert.Equal(t, 1, chain.Len())

	handle, ok := chain.Resolve("Foo", nil)
	assert.True(t, ok)
	assert.Equal(t, "first", handle)
}

func TestRegistrar_NilInstaller(t *testing.T) {
	t.Parallel()

	reg := hook.NewRegistrar(nil)
	reg.Register(missing)

	assert.True(t, reg.Registered())
}

func TestChain_FirstHitWins(t *testing.T) {
	t.Parallel()

	chain := &hook.Chain{}
	chain.Install(missing)
	chain.Install(func(name string, _ any) (any, bool) { return "a:" + name, name == "Foo" })
	chain.Install(func(name string, _ any) (any, bool) { return "b:" + name, true })
	chain.Install(nil)

	assert.Equal(t, 3, chain.Len())

	handle, ok := chain.Resolve("Foo", nil)
	assert.True(t, ok)
	assert.Equal(t, "a:Foo", handle)

	handle, ok = chain.Resolve("Bar", nil)
	assert.True(t, ok)
	assert.Equal(t, "b:Bar", handle)
}

func TestChain_EmptyMisses(t *testing.T) {
	t.Parallel()

	handle, ok := (&hook.Chain{}).Resolve("Foo", nil)
	assert.False(t, ok)
	assert.Nil(t, handle)
}

func TestChain_ReentrantResolve(t *testing.T) {
	t.Parallel()

	chain := &hook.Chain{}
	chain.Install(func(name string, requester any) (any, bool) {
		if name == "Outer" {
			// Loading Outer needs Inner, resolved through the same chain.
			inner, ok := chain.Resolve("Inner", name)

			return inner, ok
		}

		return "handle:" + name + ":" + requester.(string), true
	})

	handle, ok := chain.Resolve("Outer", nil)
	assert.True(t, ok)
	assert.Equal(t, "handle:Inner:Outer", handle)
}
