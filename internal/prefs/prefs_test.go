package prefs_test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vrckit/localize/internal/prefs"
)

func TestFileStore(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "prefs.yaml")
	s := prefs.NewFileStore(path)

	v, ok, err := s.Load("ui")
	require.NoError(t, err)
	require.False(t, ok)
	require.Zero(t, v)

	require.NoError(t, s.Save("ui", "ja"))
	require.NoError(t, s.Save("tooltips", "de"))
	require.NoError(t, s.Save("ui", "fr"))

	// A second store sees the persisted file.
	v, ok, err = prefs.NewFileStore(path).Load("ui")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "fr", v)

	all, err := s.All()
	require.NoError(t, err)
	require.Equal(t, map[string]string{"ui": "fr", "tooltips": "de"}, all)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temporary files left")

	if runtime.GOOS != "windows" {
		fi, err := os.Stat(path)
		require.NoError(t, err)
		require.Equal(t, os.FileMode(0o644), fi.Mode().Perm())
	}
}

func TestFileStoreInvalid(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "prefs.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- not\n- a map\n"), 0o644))
	s := prefs.NewFileStore(path)

	_, _, err := s.Load("ui")
	require.Error(t, err)
	require.Error(t, s.Save("ui", "ja"))
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	s := prefs.NewMemoryStore()
	_, ok, err := s.Load("ui")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Save("ui", "ja"))
	v, ok, err := s.Load("ui")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "ja", v)
}
