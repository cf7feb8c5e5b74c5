package fsutil

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exercise(t *testing.T, fsys FileSystem, dir string) {
	t.Helper()

	require.NoError(t, fsys.MkdirAll(dir, 0755))
	assert.True(t, fsys.Exists(dir))

	name := filepath.Join(dir, "clip.mp4")
	w, err := fsys.Create(name)
	require.NoError(t, err)
	_, err = w.Write([]byte("not really a video"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.True(t, fsys.Exists(name))

	info, err := fsys.Stat(name)
	require.NoError(t, err)
	assert.Equal(t, int64(18), info.Size())
	assert.False(t, info.IsDir())

	f, err := fsys.Open(name)
	require.NoError(t, err)
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.Equal(t, "not really a video", string(data))

	require.NoError(t, fsys.Remove(name))
	assert.False(t, fsys.Exists(name))
	assert.Error(t, fsys.Remove(name))

	_, err = fsys.Open(name)
	assert.Error(t, err)
	_, err = fsys.Stat(name)
	assert.Error(t, err)
}

func TestOSFileSystem(t *testing.T) {
	exercise(t, OSFileSystem{}, filepath.Join(t.TempDir(), "media"))
}

func TestMemoryFileSystem(t *testing.T) {
	m := NewMemoryFileSystem()
	exercise(t, m, "/tmp/media")
	assert.Equal(t, 0, m.Len())

	info, err := m.Stat("/tmp")
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
