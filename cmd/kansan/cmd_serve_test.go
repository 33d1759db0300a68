package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spboyer/kansan/internal/scheme"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const oneScheme = `schemes:
  - key: A
    max_total: 100
    subjects:
      - name: Math
        points: 100
        base: 100
`

func TestLoadSchemes_DefaultWhenNoFile(t *testing.T) {
	cat, err := loadSchemes("")
	require.NoError(t, err)
	assert.Equal(t, []string{"文系", "理系"}, cat.Keys())
}

func TestReloadSchemes_KeepsCatalogOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schemes.yaml")
	require.NoError(t, os.WriteFile(path, []byte(oneScheme), 0644))

	var catalogs scheme.Holder
	require.NoError(t, reloadSchemes(path, &catalogs))
	first := catalogs.Load()
	assert.Equal(t, []string{"A"}, first.Keys())

	require.NoError(t, os.WriteFile(path, []byte("schemes: [{key: B}]\n"), 0644))
	require.Error(t, reloadSchemes(path, &catalogs))
	assert.Same(t, first, catalogs.Load())
}

func TestServeCommand_BadSchemesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")

	_, err := runRoot(t, "serve", "--schemes", path, "--port", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.yaml")
}
