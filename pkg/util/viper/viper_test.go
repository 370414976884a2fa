package viper

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Format   string `mapstructure:"format"`
	MaxDepth int    `mapstructure:"max-depth"`
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "serde.yaml")
	require.NoError(t, os.WriteFile(path, []byte("serde:\n  format: msgpack\n  max-depth: 12\n"), 0o600))

	cfg := New()
	require.NoError(t, cfg.LoadFile(path))

	var s sample
	require.NoError(t, cfg.UnmarshalKey("serde", &s))
	assert.Equal(t, "msgpack", s.Format)
	assert.Equal(t, 12, s.MaxDepth)
	assert.True(t, cfg.IsSet("serde.format"))
}

func TestLoadFileMissing(t *testing.T) {
	cfg := New()
	assert.Error(t, cfg.LoadFile(filepath.Join(t.TempDir(), "absent.yaml")))
}

func TestDefaultsAndBytes(t *testing.T) {
	cfg := New()
	cfg.SetDefault("serde.max-depth", 64)
	require.NoError(t, cfg.LoadBytes("json", []byte(`{"serde":{"format":"json"}}`)))

	var s sample
	require.NoError(t, cfg.UnmarshalKey("serde", &s))
	assert.Equal(t, "json", s.Format)
	assert.Equal(t, 64, s.MaxDepth)
}

func TestBindEnv(t *testing.T) {
	t.Setenv("SERDETEST_SERDE_FORMAT", "msgpack")

	cfg := New()
	cfg.SetDefault("serde.format", "json")
	cfg.BindEnv("SERDETEST")

	var root struct {
		Serde sample `mapstructure:"serde"`
	}
	require.NoError(t, cfg.Unmarshal(&root))
	assert.Equal(t, "msgpack", root.Serde.Format)
}
