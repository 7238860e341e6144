package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListFilesReturnsSortedRelativePaths(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("b"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "c.txt"), []byte("c"), 0644))

	files, err := ListFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.txt", filepath.Join("sub", "c.txt")}, files)
}

func TestListFilesMissingDirIsNotAnError(t *testing.T) {
	files, err := ListFiles(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestListFilesEmptyDir(t *testing.T) {
	files, err := ListFiles(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestIsGlob(t *testing.T) {
	assert.True(t, IsGlob("*.go"))
	assert.True(t, IsGlob("**/*_test.go"))
	assert.True(t, IsGlob("file?.txt"))
	assert.False(t, IsGlob("plain.go"))
}

func TestListGlobMatchesPattern(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("a"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("b"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "c.go"), []byte("c"), 0644))

	matches := ListGlob(dir, []string{"**/*.go"})
	assert.ElementsMatch(t, []string{"a.go", filepath.Join("sub", "c.go")}, matches)
}
