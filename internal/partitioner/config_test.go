package partitioner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigValid(t *testing.T) {
	path := writeConfig(t, `
k: 4
window: 100
subp: 2
dataset: testdata/edges.txt
scorer: hdrf
backend: local
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.K)
	assert.Equal(t, 100, cfg.Window)
	assert.Equal(t, 2, cfg.Subp)
	assert.Equal(t, "hdrf", cfg.Scorer)
	assert.Equal(t, "local", cfg.Backend)
	assert.False(t, cfg.Async)
}

func TestLoadConfigRejectsUnknownScorer(t *testing.T) {
	path := writeConfig(t, `
k: 4
window: 100
subp: 2
dataset: testdata/edges.txt
scorer: magic
backend: local
`)
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigRejectsMissingRequiredFields(t *testing.T) {
	path := writeConfig(t, `
window: 100
subp: 2
dataset: testdata/edges.txt
scorer: greedy
backend: local
`)
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigRejectsBadCrashMode(t *testing.T) {
	path := writeConfig(t, `
k: 4
window: 100
subp: 2
dataset: testdata/edges.txt
scorer: greedy
backend: local
crash_mode: 1
`)
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	assert.Error(t, err)
}
