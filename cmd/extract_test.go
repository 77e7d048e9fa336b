package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandResourceArgsFiles(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "export.json")
	require.NoError(t, os.WriteFile(file, []byte("{}"), 0644))

	paths, err := expandResourceArgs([]string{file}, "*.json")
	require.NoError(t, err)
	assert.Equal(t, []string{file}, paths)
}

func TestExpandResourceArgsDirectoryGlob(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.json", "b.json", "shot.png", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}

	paths, err := expandResourceArgs([]string{dir}, "*.{json,png}")
	require.NoError(t, err)
	require.Len(t, paths, 3)
	assert.Equal(t, filepath.Join(dir, "a.json"), paths[0])
	assert.Equal(t, filepath.Join(dir, "b.json"), paths[1])
	assert.Equal(t, filepath.Join(dir, "shot.png"), paths[2])
}

func TestExpandResourceArgsMissingPath(t *testing.T) {
	_, err := expandResourceArgs([]string{"/no/such/path"}, "*.json")
	assert.Error(t, err)
}

func TestExpandResourceArgsBadGlob(t *testing.T) {
	_, err := expandResourceArgs([]string{t.TempDir()}, "[")
	assert.Error(t, err)
}
