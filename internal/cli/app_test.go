package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setConfigPath(t *testing.T, path string) {
	t.Helper()
	old := configPath
	configPath = path
	t.Cleanup(func() { configPath = old })
}

func TestNewAppFromConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	cfg := fmt.Sprintf(
		"storage:\n  database_path: %s\n  keyword_index_path: %s\nembedding:\n  provider: local\n",
		filepath.Join(dir, "corpus.db"), filepath.Join(dir, "keyword.bleve"))
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))
	setConfigPath(t, cfgPath)

	a, err := newApp()
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.store)
	assert.NotNil(t, a.index)
	assert.NotNil(t, a.embedder)
	assert.NotNil(t, a.search)
	assert.Nil(t, a.reranker)
	assert.Equal(t, "local", a.embedder.Provider())
}

func TestNewAppWithoutConfigFile(t *testing.T) {
	// Default config uses relative data paths, so run from a temp dir.
	t.Chdir(t.TempDir())
	setConfigPath(t, "")

	a, err := newApp()
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.store)
	assert.NotNil(t, a.search)
	assert.FileExists(t, filepath.Join("data", "corpus.db"))
}

func TestNewAppWithReranker(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	cfg := fmt.Sprintf(
		"storage:\n  database_path: %s\n  keyword_index_path: %s\n"+
			"embedding:\n  provider: local\nreranker:\n  base_url: http://localhost:9300\n",
		filepath.Join(dir, "corpus.db"), filepath.Join(dir, "keyword.bleve"))
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))
	setConfigPath(t, cfgPath)

	a, err := newApp()
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.reranker)
}

func TestNewAppBadConfigPath(t *testing.T) {
	setConfigPath(t, filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := newApp()
	require.Error(t, err)
}
