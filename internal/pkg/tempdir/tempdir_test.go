package tempdir

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_CreateAndRelease(t *testing.T) {
	svc := NewService(filepath.Join(t.TempDir(), "tmp"))

	h, err := svc.CreateScoped("outline-abc")
	require.NoError(t, err)
	assert.DirExists(t, h.Path())
	assert.Equal(t, svc.Root(), filepath.Dir(h.Path()))

	require.NoError(t, os.WriteFile(filepath.Join(h.Path(), "doc.txt"), []byte("x"), 0o600))

	require.NoError(t, svc.Release(h))
	assert.NoDirExists(t, h.Path())

	assert.NoError(t, svc.Release(h), "second release is a no-op")
}

func TestService_ScopedDirsAreDistinct(t *testing.T) {
	svc := NewService(t.TempDir())

	a, err := svc.CreateScoped("")
	require.NoError(t, err)
	b, err := svc.CreateScoped("")
	require.NoError(t, err)
	assert.NotEqual(t, a.Path(), b.Path())
}

func TestService_ReleaseNil(t *testing.T) {
	assert.Error(t, NewService(t.TempDir()).Release(nil))
}
