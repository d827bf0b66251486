package factory

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schmitthub/testdock/internal/config"
)

func TestNew(t *testing.T) {
	f := New("1.0.0", "abc123")

	assert.Equal(t, "1.0.0", f.Version)
	assert.Equal(t, "abc123", f.Commit)
	assert.NotNil(t, f.IOStreams)
	assert.NotNil(t, f.Config)
}

func TestFactory_Config_Cached(t *testing.T) {
	t.Chdir(t.TempDir())

	f := New("1.0.0", "abc123")
	cfg1, err := f.Config()
	require.NoError(t, err)
	cfg2, err := f.Config()
	require.NoError(t, err)

	assert.Same(t, cfg1, cfg2)
}

func TestFactory_Config_UsesConfigPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("docker_options:\n  image: redis\n"), 0o644))

	f := New("1.0.0", "abc123")
	f.ConfigPath = path

	cfg, err := f.Config()
	require.NoError(t, err)
	assert.Equal(t, "redis", cfg.DockerOptions.Image)
}

func TestFactory_Config_MissingExplicitPath(t *testing.T) {
	f := New("1.0.0", "abc123")
	f.ConfigPath = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := f.Config()
	assert.True(t, config.IsConfigNotFound(err))
}

func TestFactory_Config_DebugFlag(t *testing.T) {
	t.Chdir(t.TempDir())

	f := New("1.0.0", "abc123")
	f.Debug = true

	cfg, err := f.Config()
	require.NoError(t, err)
	assert.True(t, cfg.Debug)
}
