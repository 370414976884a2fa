package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/danmu-serde/pkg/serde/format"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, DefaultMaxDepth, cfg.Serde.MaxDepth)
	assert.Equal(t, format.KindJSON, cfg.Serde.Format.Kind)
	assert.Equal(t, format.CompressionNone, cfg.Serde.Format.Compression)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.True(t, cfg.Log.Stdout)
}

func TestLoadWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.True(t, cfg.Serde.AutoRegister)
	assert.Equal(t, DefaultMaxDepth, cfg.Serde.MaxDepth)
	assert.EqualValues(t, "sonic", cfg.Serde.Format.JSONBackend)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
serde:
  format:
    kind: msgpack
    compression: zstd
    min-compress-size: 128
  max-depth: 16
  ignore-enum-case: true
  auto-register: false
log:
  level: debug
  format: json
logging:
  serde:
    level: warn
    stdout: true
metrics:
  enable: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, format.KindMsgpack, cfg.Serde.Format.Kind)
	assert.Equal(t, format.CompressionZstd, cfg.Serde.Format.Compression)
	assert.Equal(t, 128, cfg.Serde.Format.MinCompressSize)
	assert.Equal(t, 16, cfg.Serde.MaxDepth)
	assert.True(t, cfg.Serde.IgnoreEnumCase)
	assert.False(t, cfg.Serde.AutoRegister)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "warn", cfg.Logging["serde"].Level)
	assert.True(t, cfg.Metrics.Enable)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("SERDE_SERDE_MAX_DEPTH", "8")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Serde.MaxDepth)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
