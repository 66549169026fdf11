package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "clipforge_export", cfg.WorkDirName)
}

func TestLoadYAMLOverrides(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "clipforge.yaml")
	require.NoError(t, os.WriteFile(p, []byte("data_dir: /srv/data\nwork_dir_name: custom_export\n"), 0o644))

	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "/srv/data", cfg.DataDir)
	assert.Equal(t, "custom_export", cfg.WorkDirName)
}

func TestTranscriptionAPIKeyAbsent(t *testing.T) {
	os.Unsetenv(TranscriptionAPIKeyEnv)
	_, ok := TranscriptionAPIKey()
	assert.False(t, ok)
}

func TestTranscriptionAPIKeyPresent(t *testing.T) {
	t.Setenv(TranscriptionAPIKeyEnv, "secret")
	key, ok := TranscriptionAPIKey()
	assert.True(t, ok)
	assert.Equal(t, "secret", key)
}
