package installer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestApplyFile_CreatesMissingTarget writes a new file together with its parent folders.
func TestApplyFile_CreatesMissingTarget(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "a", "b", "file.txt")

	require.NoError(t, applyFile(path, []byte("data"), 0o644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "data", string(data))
}

// TestApplyFile_ReplacesExistingFile swaps content without leaving the old copy behind.
func TestApplyFile_ReplacesExistingFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "file.txt")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

	require.NoError(t, applyFile(path, []byte("new"), 0o644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "new", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

// TestApplyFile_RefusesLiveDirectory leaves a live folder and its contents in place.
func TestApplyFile_RefusesLiveDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "blocked.txt")
	require.NoError(t, os.MkdirAll(path, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(path, "operator-data.txt"), []byte("keep"), 0o644))

	err := applyFile(path, []byte("shipped"), 0o644)
	require.ErrorIs(t, err, ErrLiveNotFile)
	require.ErrorContains(t, err, "is a directory")

	data, err := os.ReadFile(filepath.Join(path, "operator-data.txt"))
	require.NoError(t, err)
	require.Equal(t, "keep", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}
