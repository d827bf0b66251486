package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsNop(t *testing.T) {
	saved := Log
	t.Cleanup(func() { Log = saved })

	Log = zerolog.Nop()
	assert.Equal(t, zerolog.Disabled, Log.GetLevel())
	// Events on a disabled logger are nil but safe to use.
	Info().Str("k", "v").Msg("dropped")
}

func TestInit_Levels(t *testing.T) {
	saved := Log
	t.Cleanup(func() { Log = saved })

	Init(false)
	assert.Equal(t, zerolog.InfoLevel, Log.GetLevel())

	Init(true)
	assert.Equal(t, zerolog.DebugLevel, Log.GetLevel())
}

func TestInitWithFile_WritesJSON(t *testing.T) {
	saved := Log
	t.Cleanup(func() {
		CloseFileWriter()
		Log = saved
		ClearContext()
	})

	tmpDir := t.TempDir()
	require.NoError(t, InitWithFile(true, tmpDir, &LoggingConfig{MaxSizeMB: 1}))

	SetContext("nginx", "run-1")
	Info().Msg("container ready")
	require.NoError(t, CloseFileWriter())

	data, err := os.ReadFile(filepath.Join(tmpDir, LogFileName))
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `"message":"container ready"`)
	assert.Contains(t, out, `"image":"nginx"`)
	assert.Contains(t, out, `"run":"run-1"`)
}

func TestInitWithFile_DisabledFallsBackToConsole(t *testing.T) {
	saved := Log
	t.Cleanup(func() { Log = saved })

	disabled := false
	tmpDir := t.TempDir()
	require.NoError(t, InitWithFile(false, tmpDir, &LoggingConfig{FileEnabled: &disabled}))

	assert.Empty(t, GetLogFilePath())
	_, err := os.Stat(filepath.Join(tmpDir, LogFileName))
	assert.True(t, os.IsNotExist(err))
}

func TestGetLogFilePath(t *testing.T) {
	saved := Log
	t.Cleanup(func() {
		CloseFileWriter()
		Log = saved
	})

	tmpDir := t.TempDir()
	require.NoError(t, InitWithFile(false, tmpDir, &LoggingConfig{}))
	assert.True(t, strings.HasSuffix(GetLogFilePath(), LogFileName))

	require.NoError(t, CloseFileWriter())
	assert.Empty(t, GetLogFilePath())
	// double close is harmless
	assert.NoError(t, CloseFileWriter())
}

func TestLoggingConfigDefaults(t *testing.T) {
	cfg := &LoggingConfig{}
	assert.True(t, cfg.IsFileEnabled())
	assert.Equal(t, 50, cfg.GetMaxSizeMB())
	assert.Equal(t, 7, cfg.GetMaxAgeDays())
	assert.Equal(t, 3, cfg.GetMaxBackups())

	off := false
	cfg = &LoggingConfig{FileEnabled: &off, MaxSizeMB: 20, MaxAgeDays: 14, MaxBackups: 5}
	assert.False(t, cfg.IsFileEnabled())
	assert.Equal(t, 20, cfg.GetMaxSizeMB())
	assert.Equal(t, 14, cfg.GetMaxAgeDays())
	assert.Equal(t, 5, cfg.GetMaxBackups())
}
