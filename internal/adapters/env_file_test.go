package adapters

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvFileAdapterLoadsDefaultFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".env"), "POETRY_HTTP_BASIC_INTERNAL_USERNAME=ci\n# comment\nPOETRY_HTTP_BASIC_INTERNAL_PASSWORD=\"s3cret\"\n")

	values, err := NewEnvFileAdapter().Load(dir, "")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"POETRY_HTTP_BASIC_INTERNAL_USERNAME": "ci",
		"POETRY_HTTP_BASIC_INTERNAL_PASSWORD": "s3cret",
	}, values)
}

func TestEnvFileAdapterMissingFiles(t *testing.T) {
	values, err := NewEnvFileAdapter().Load(t.TempDir(), "")
	require.NoError(t, err)
	assert.Empty(t, values)

	_, err = NewEnvFileAdapter().Load(t.TempDir(), "creds.env")
	require.Error(t, err)
}
