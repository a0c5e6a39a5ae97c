package packagejson

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFile_ReplacesInPlace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(`{"name":"old"}`), 0o600))

	require.NoError(t, WriteFile(path, []byte(`{"name":"new"}`), 0o640))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"name":"new"}`, string(data))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteFile_FailureLeavesTargetAndNoTempFile(t *testing.T) {
	dir := t.TempDir()
	// A non-empty directory cannot be replaced by a rename.
	target := filepath.Join(dir, FileName)
	require.NoError(t, os.MkdirAll(filepath.Join(target, "keep"), 0o755))

	err := WriteFile(target, []byte(`{}`), 0o644)
	require.Error(t, err)

	info, err := os.Stat(target)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWrite_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", FileName)
	require.NoError(t, Write(path, Descriptor{"name": "@acme/core", "description": "a<b>"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"description\": \"a<b>\",\n  \"name\": \"@acme/core\"\n}\n", string(data))

	d, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, "@acme/core", d.Name())
}
