package application

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/danmu-serde/pkg/serde"
)

type Order struct {
	ID    int
	Items []string
}

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRunWithConfigFlag(t *testing.T) {
	path := writeConfig(t, `
serde:
  format:
    kind: msgpack
  max-depth: 10
log:
  level: warn
logging:
  serde:
    level: error
metrics:
  enable: true
`)
	app := New(WithRegisterer(prometheus.NewRegistry()))
	require.NoError(t, app.RunWithArgs([]string{"--config", path}))
	defer app.Close()

	assert.Equal(t, 10, app.Config().Serde.MaxDepth)
	assert.Equal(t, "msgpack", app.Serializer().Format().Name())
	assert.Equal(t, 10, app.Serializer().MaxDepth())
}

func TestRunRoundTrip(t *testing.T) {
	path := writeConfig(t, "serde:\n  max-depth: 8\n")
	app := New()
	require.NoError(t, app.RunWithArgs([]string{"--config=" + path}))
	defer app.Close()

	text, err := app.Serializer().SerializeToString(Order{ID: 1, Items: []string{"a"}}, false, nil)
	require.NoError(t, err)
	assert.Equal(t, `{"id":1,"items":["a"]}`, text)

	out, err := serde.Deserialize[Order](app.Serializer(), text)
	require.NoError(t, err)
	assert.Equal(t, Order{ID: 1, Items: []string{"a"}}, out)
}

func TestRunEnvPath(t *testing.T) {
	path := writeConfig(t, "serde:\n  ignore-enum-case: true\n")
	t.Setenv(ConfigPathEnv, path)

	app := New()
	require.NoError(t, app.RunWithArgs(nil))
	defer app.Close()
	assert.True(t, app.Config().Serde.IgnoreEnumCase)
}

func TestRunWithoutConfigFile(t *testing.T) {
	app := New()
	require.NoError(t, app.RunWithArgs(nil))
	defer app.Close()
	assert.Equal(t, "json", app.Serializer().Format().Name())
	assert.NotNil(t, app.Logger("unknown"))
}

func TestRunErrors(t *testing.T) {
	app := New()
	assert.Error(t, app.RunWithArgs([]string{"--config"}))
	assert.Error(t, app.RunWithArgs([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}))

	path := writeConfig(t, "serde:\n  format:\n    kind: xml\n")
	assert.Error(t, app.RunWithArgs([]string{"--config", path}))
}
