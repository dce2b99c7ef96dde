package identity_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/modcache/pkg/identity"
)

var errUnreadable = errors.New("unreadable")

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestBuildInfoReader_ReadsRunningBinary(t *testing.T) {
	t.Parallel()

	exe, err := os.Executable()
	require.NoError(t, err)

	id, err := identity.BuildInfoReader{}.ReadIdentity(exe)
	require.NoError(t, err)

	assert.NotEmpty(t, id.Name)
	assert.Equal(t, identity.NeutralLocale, id.Locale)
	assert.NotEmpty(t, id.KeyToken)
}

func TestBuildInfoReader_NotABinary(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "Foo.so")
	writeFile(t, path, "not an object file")

	_, err := identity.BuildInfoReader{}.ReadIdentity(path)
	require.ErrorIs(t, err, identity.ErrNoIdentityRecord)
}

func TestManifestReader(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "Foo.so")
	writeFile(t, path+identity.DefaultManifestSuffix, "name: Foo\nversion: 1.0\n")

	id, err := identity.ManifestReader{}.ReadIdentity(path)
	require.NoError(t, err)

	assert.Equal(t, identity.Identity{
		Name:     "Foo",
		Version:  "1.0",
		Locale:   identity.NeutralLocale,
		KeyToken: identity.NullKeyToken,
	}, id)
}

func TestManifestReader_CustomSuffix(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "Foo.so")
	writeFile(t, path+".yml", "name: Foo\nlocale: de-DE\nkey_token: abc\n")

	id, err := identity.ManifestReader{Suffix: ".yml"}.ReadIdentity(path)
	require.NoError(t, err)

	assert.Equal(t, "de-DE", id.Locale)
	assert.Equal(t, "abc", id.KeyToken)
}

func TestManifestReader_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	_, err := identity.ManifestReader{}.ReadIdentity(filepath.Join(dir, "missing.so"))
	require.ErrorIs(t, err, identity.ErrNoIdentityRecord)

	unnamed := filepath.Join(dir, "Unnamed.so")
	writeFile(t, unnamed+identity.DefaultManifestSuffix, "version: 1.0\n")

	_, err = identity.ManifestReader{}.ReadIdentity(unnamed)
	require.ErrorIs(t, err, identity.ErrEmptyName)

	broken := filepath.Join(dir, "Broken.so")
	writeFile(t, broken+identity.DefaultManifestSuffix, "name: [unterminated\n")

	_, err = identity.ManifestReader{}.ReadIdentity(broken)
	require.ErrorIs(t, err, identity.ErrNoIdentityRecord)
}

func TestChainReader(t *testing.T) {
	t.Parallel()

	failing := identity.ReaderFunc(func(string) (identity.Identity, error) {
		return identity.Identity{}, errUnreadable
	})
	found := identity.ReaderFunc(func(location string) (identity.Identity, error) {
		return identity.Identity{Name: filepath.Base(location)}, nil
	})

	id, err := identity.ChainReader{failing, found}.ReadIdentity("/a/Foo")
	require.NoError(t, err)
	assert.Equal(t, "Foo", id.Name)

	_, err = identity.ChainReader{failing, failing}.ReadIdentity("/a/Foo")
	require.ErrorIs(t, err, errUnreadable)

	_, err = identity.ChainReader{}.ReadIdentity("/a/Foo")
	require.ErrorIs(t, err, identity.ErrNoIdentityRecord)
}

func TestModuleName(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"github.com/acme/widgets":    "widgets",
		"github.com/acme/widgets/v3": "widgets",
		"example.com/tools/vault":    "vault",
		"single":                     "single",
		"github.com/acme/v2go":       "v2go",
	}

	for path, want := range tests {
		assert.Equal(t, want, identity.ModuleName(path), path)
	}
}
