package fsutil

import (
	"errors"
	"io"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryFileSystem_CreateThenRead(t *testing.T) {
	m := NewMemoryFileSystem()

	w, err := m.Create("out/training.txt")
	require.NoError(t, err)
	_, err = io.WriteString(w, "1 2 3\n")
	require.NoError(t, err)

	// Content is published on Close.
	got, err := m.ReadFile("out/training.txt")
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, w.Close())
	got, err = m.ReadFile("out/./training.txt")
	require.NoError(t, err)
	assert.Equal(t, "1 2 3\n", string(got))
	assert.True(t, m.Exists("out/training.txt"))
}

func TestMemoryFileSystem_CreateTruncates(t *testing.T) {
	m := NewMemoryFileSystem()
	m.WriteFile("a.txt", []byte("old content"))

	w, err := m.Create("a.txt")
	require.NoError(t, err)
	_, _ = io.WriteString(w, "new")
	require.NoError(t, w.Close())

	got, err := m.ReadFile("a.txt")
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))
}

func TestMemoryFileSystem_OpenMissing(t *testing.T) {
	m := NewMemoryFileSystem()
	_, err := m.Open("missing.off")
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.False(t, m.Exists("missing.off"))
}

func TestOSFileSystem_RoundTrip(t *testing.T) {
	var osfs OSFileSystem
	path := filepath.Join(t.TempDir(), "points.txt")

	w, err := osfs.Create(path)
	require.NoError(t, err)
	_, err = io.WriteString(w, "0.5 1.5\n")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	assert.True(t, osfs.Exists(path))

	r, err := osfs.Open(path)
	require.NoError(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "0.5 1.5\n", string(data))
}
