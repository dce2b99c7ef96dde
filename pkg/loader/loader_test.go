package loader_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/modcache/pkg/loader"
)

func TestPluginLoader_RejectsNonPlugin(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "Foo.so")
	require.NoError(t, os.WriteFile(path, []byte("not a shared object"), 0o600))

	_, err := loader.PluginLoader{Symbol: "Module"}.Load(path)
	require.Error(t, err)
}

func TestPluginLoader_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := loader.PluginLoader{}.Load(filepath.Join(t.TempDir(), "missing.so"))
	require.Error(t, err)
}

func TestFunc(t *testing.T) {
	t.Parallel()

	l := loader.Func(func(location string) (any, error) {
		return "loaded:" + location, nil
	})

	handle, err := l.Load("/a/Foo.so")
	require.NoError(t, err)
	assert.Equal(t, "loaded:/a/Foo.so", handle)
}

func TestCheckSize(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "Foo.so")
	require.NoError(t, os.WriteFile(path, make([]byte, 128), 0o600))

	require.NoError(t, loader.CheckSize(path, 0))
	require.NoError(t, loader.CheckSize(path, 128))
	require.ErrorIs(t, loader.CheckSize(path, 64), loader.ErrModuleTooLarge)

	require.Error(t, loader.CheckSize(filepath.Join(t.TempDir(), "missing.so"), 64))
}
