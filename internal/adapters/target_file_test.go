package adapters

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poetry-migrate/internal/types"
)

func TestTargetFileAdapterReadMissing(t *testing.T) {
	data, err := NewTargetFileAdapter().Read(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestTargetFileAdapterReadUnreadable(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "pyproject.toml")
	require.NoError(t, os.Mkdir(target, 0o755))

	_, err := NewTargetFileAdapter().Read(dir)
	require.Error(t, err)
	var writeErr *types.WriteError
	require.True(t, errors.As(err, &writeErr))
	assert.Equal(t, target, writeErr.Path)
}

func TestTargetFileAdapterWriteReplacesAtomically(t *testing.T) {
	dir := t.TempDir()
	adapter := NewTargetFileAdapter()
	writeFile(t, filepath.Join(dir, "pyproject.toml"), "[tool.black]\n")

	path, err := adapter.Write(dir, []byte("[tool.poetry]\nname = 'pkg'\n"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "pyproject.toml"), path)

	data, err := adapter.Read(dir)
	require.NoError(t, err)
	assert.Equal(t, "[tool.poetry]\nname = 'pkg'\n", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file left behind")
}

func TestTargetFileAdapterWriteError(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent")
	_, err := NewTargetFileAdapter().Write(missing, []byte("x = 1\n"))
	require.Error(t, err)
	var writeErr *types.WriteError
	require.True(t, errors.As(err, &writeErr))
}
