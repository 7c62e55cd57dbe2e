package conf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	config, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "neuraform", config.Name)
	assert.Equal(t, "info", config.Log.Level)
	assert.Equal(t, "policy.yaml", config.Policy.File)
	assert.Equal(t, 1024, config.Audit.QueueSize)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()

	err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(`
name: neuraform-test
log:
  level: debug
policy:
  file: /etc/neuraform/policy.yaml
  watch: true
router:
  probe_timeout: 2s
`), 0o600)
	require.NoError(t, err)

	chdir(t, dir)

	config, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "neuraform-test", config.Name)
	assert.Equal(t, "debug", config.Log.Level)
	assert.Equal(t, "/etc/neuraform/policy.yaml", config.Policy.File)
	assert.True(t, config.Policy.Watch)
	assert.Equal(t, "2s", config.Router.ProbeTimeout.String())

	// Untouched sections keep their defaults.
	assert.Equal(t, 1024, config.Audit.QueueSize)
}

func TestLoadEnvOverride(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("NEURAFORM_LOG_LEVEL", "warn")
	t.Setenv("NEURAFORM_POLICY_FILE", "/tmp/p.yaml")

	config, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "warn", config.Log.Level)
	assert.Equal(t, "/tmp/p.yaml", config.Policy.File)
}

func chdir(t *testing.T, dir string) {
	t.Helper()

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))

	t.Cleanup(func() {
		_ = os.Chdir(wd)
	})
}
