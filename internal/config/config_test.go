package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rileyhilliard/rbnvfd/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points HOME and the working directory at empty temp dirs so no
// real config leaks into a test.
func isolate(t *testing.T) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	oldWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(oldWd) })
	return dir
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, CurrentConfigVersion, cfg.Version)
	assert.Empty(t, cfg.Callsign)

	assert.Equal(t, "rbn.telegraphy.de:7000", cfg.RBN.Addr)
	assert.Equal(t, 10*time.Second, cfg.RBN.DialTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.RBN.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.RBN.LoginTimeout)
	assert.Equal(t, 4096, cfg.RBN.EventBuffer)

	assert.Equal(t, 10*time.Minute, cfg.Spots.MaxAge)
	assert.Equal(t, 0, cfg.Spots.MinSNR)
	assert.Equal(t, "frequency", cfg.Spots.Sort)
	assert.Equal(t, 5*time.Second, cfg.Spots.PurgeInterval)

	assert.Empty(t, cfg.Display.Port)
	assert.Equal(t, 3*time.Second, cfg.Display.ScrollInterval)
	assert.Equal(t, 250*time.Millisecond, cfg.Display.RefreshInterval)
	assert.False(t, cfg.Display.ForceIdle)

	assert.Equal(t, "disabled", cfg.Radio.Backend)
	assert.Equal(t, "localhost:4532", cfg.Radio.Addr)
	assert.Equal(t, 1, cfg.Radio.Rig)

	assert.Empty(t, cfg.Metrics.Listen)
	assert.Equal(t, "auto", cfg.Output.Color)

	// Defaults are valid on their own; only the callsign is missing.
	assert.NoError(t, Validate(cfg))
	err := Validate(cfg, RequireCallsign())
	assert.True(t, errors.IsCode(err, errors.ErrNotConfigured))
}

func TestLoad(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	configPath := filepath.Join(dir, ConfigFileName)

	content := `
version: 1
callsign: w6jsv
rbn:
  addr: localhost:7300
  read_timeout: 250ms
spots:
  max_age: 15m
  min_snr: 10
  sort: Recency
display:
  port: ~/vfd
  scroll_interval: 5s
  force_idle: true
radio:
  backend: RIGCTLD
  addr: shack-pi:4532
metrics:
  listen: ":9108"
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "W6JSV", cfg.Callsign)
	assert.Equal(t, "localhost:7300", cfg.RBN.Addr)
	assert.Equal(t, 250*time.Millisecond, cfg.RBN.ReadTimeout)
	assert.Equal(t, 10*time.Second, cfg.RBN.DialTimeout, "unset keys keep defaults")
	assert.Equal(t, 15*time.Minute, cfg.Spots.MaxAge)
	assert.Equal(t, 10, cfg.Spots.MinSNR)
	assert.Equal(t, "recency", cfg.Spots.Sort)
	assert.Equal(t, filepath.Join(os.Getenv("HOME"), "vfd"), cfg.Display.Port)
	assert.Equal(t, 5*time.Second, cfg.Display.ScrollInterval)
	assert.True(t, cfg.Display.ForceIdle)
	assert.Equal(t, "rigctld", cfg.Radio.Backend)
	assert.Equal(t, "shack-pi:4532", cfg.Radio.Addr)
	assert.Equal(t, ":9108", cfg.Metrics.Listen)

	assert.NoError(t, Validate(cfg, RequireCallsign()))
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("version: 1\ncallsign: W6JSV\n"), 0644))

	t.Setenv("RBNVFD_CALLSIGN", "k9lc")
	t.Setenv("RBNVFD_DISPLAY_PORT", "/dev/ttyACM0")
	t.Setenv("RBNVFD_SPOTS_MIN_SNR", "12")

	cfg, err := Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, "K9LC", cfg.Callsign)
	assert.Equal(t, "/dev/ttyACM0", cfg.Display.Port)
	assert.Equal(t, 12, cfg.Spots.MinSNR)
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path/rbnvfd.yaml")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "Config file not found")
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}

func TestLoadInvalidValue(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("spots:\n  max_age: forever\n"), 0644))

	_, err := Load(configPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid config format")
}

func TestFind(t *testing.T) {
	t.Run("explicit path exists", func(t *testing.T) {
		isolate(t)
		path := filepath.Join(t.TempDir(), "custom.yaml")
		require.NoError(t, os.WriteFile(path, []byte("version: 1"), 0644))

		got, err := Find(path)
		require.NoError(t, err)
		assert.Equal(t, path, got)
	})

	t.Run("explicit path not found", func(t *testing.T) {
		isolate(t)
		_, err := Find("/nonexistent/config.yaml")
		assert.Error(t, err)
	})

	t.Run("current directory wins over global", func(t *testing.T) {
		dir := isolate(t)
		require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("version: 1"), 0644))
		require.NoError(t, Write(GlobalConfigPath(), DefaultConfig()))

		got, err := Find("")
		require.NoError(t, err)
		assert.Equal(t, ConfigFileName, filepath.Base(got))
	})

	t.Run("global config", func(t *testing.T) {
		isolate(t)
		require.NoError(t, Write(GlobalConfigPath(), DefaultConfig()))

		got, err := Find("")
		require.NoError(t, err)
		assert.Equal(t, GlobalConfigPath(), got)
	})

	t.Run("nothing found", func(t *testing.T) {
		isolate(t)
		got, err := Find("")
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestLoadOrDefault(t *testing.T) {
	isolate(t)

	cfg, path, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Equal(t, DefaultConfig(), cfg)

	t.Setenv("RBNVFD_CALLSIGN", "w6jsv")
	cfg, _, err = LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, "W6JSV", cfg.Callsign, "env applies without a file")
}
