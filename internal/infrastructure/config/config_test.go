package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8900", cfg.Relay.Port)
	assert.Equal(t, "ws://localhost:8900/ws", cfg.Relay.URL)
	assert.Equal(t, "rod", cfg.Gate.Driver)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("RELAY_URL", "ws://relay.internal:9000/ws")
	t.Setenv("GATE_DRIVER", "exec")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "ws://relay.internal:9000/ws", cfg.Relay.URL)
	assert.Equal(t, "exec", cfg.Gate.Driver)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFile(t *testing.T) {
	t.Setenv("GATE_DRIVER", "exec")

	dir := t.TempDir()
	path := filepath.Join(dir, "popgate.yaml")
	body := `
relay:
  url: ws://file.example:7777/ws
gate:
  driver: rod
  headless: true
logging:
  level: warn
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	// File wins over environment.
	assert.Equal(t, "rod", cfg.Gate.Driver)
	assert.True(t, cfg.Gate.Headless)
	assert.Equal(t, "ws://file.example:7777/ws", cfg.Relay.URL)
	assert.Equal(t, "warn", cfg.Logging.Level)
	// Keys absent from the file keep their defaults.
	assert.Equal(t, "8900", cfg.Relay.Port)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
