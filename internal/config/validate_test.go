package config

import (
	"testing"
	"time"

	"github.com/rileyhilliard/rbnvfd/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr string
	}{
		{
			name:   "defaults with callsign",
			modify: func(c *Config) { c.Callsign = "W6JSV" },
		},
		{
			name:   "portable callsign",
			modify: func(c *Config) { c.Callsign = "VP2V/W6JSV" },
		},
		{
			name:    "future version",
			modify:  func(c *Config) { c.Version = CurrentConfigVersion + 1 },
			wantErr: "from the future",
		},
		{
			name:    "bad callsign",
			modify:  func(c *Config) { c.Callsign = "W6 JSV" },
			wantErr: "doesn't look like a callsign",
		},
		{
			name:    "trailing slash",
			modify:  func(c *Config) { c.Callsign = "W6JSV/" },
			wantErr: "doesn't look like a callsign",
		},
		{
			name:    "rbn addr without port",
			modify:  func(c *Config) { c.RBN.Addr = "rbn.telegraphy.de" },
			wantErr: "rbn.addr must be host:port",
		},
		{
			name:    "rbn addr without host",
			modify:  func(c *Config) { c.RBN.Addr = ":7000" },
			wantErr: "rbn.addr is missing a host",
		},
		{
			name:    "zero read timeout",
			modify:  func(c *Config) { c.RBN.ReadTimeout = 0 },
			wantErr: "rbn.read_timeout must be positive",
		},
		{
			name:    "empty event buffer",
			modify:  func(c *Config) { c.RBN.EventBuffer = 0 },
			wantErr: "rbn.event_buffer must be at least 1",
		},
		{
			name:    "negative max age",
			modify:  func(c *Config) { c.Spots.MaxAge = -time.Minute },
			wantErr: "spots.max_age must be positive",
		},
		{
			name:    "unknown sort",
			modify:  func(c *Config) { c.Spots.Sort = "snr" },
			wantErr: "spots.sort must be one of",
		},
		{
			name:   "negative min snr allowed",
			modify: func(c *Config) { c.Spots.MinSNR = -5 },
		},
		{
			name: "refresh slower than scroll",
			modify: func(c *Config) {
				c.Display.ScrollInterval = time.Second
				c.Display.RefreshInterval = 2 * time.Second
			},
			wantErr: "must not exceed display.scroll_interval",
		},
		{
			name:    "unknown backend",
			modify:  func(c *Config) { c.Radio.Backend = "flrig" },
			wantErr: "radio.backend must be one of",
		},
		{
			name: "rigctld without addr",
			modify: func(c *Config) {
				c.Radio.Backend = "rigctld"
				c.Radio.Addr = ""
			},
			wantErr: "radio.addr must be host:port",
		},
		{
			name: "disabled backend ignores addr",
			modify: func(c *Config) {
				c.Radio.Addr = ""
				c.Radio.Timeout = 0
			},
		},
		{
			name: "omnirig rig out of range",
			modify: func(c *Config) {
				c.Radio.Backend = "omnirig"
				c.Radio.Rig = 3
			},
			wantErr: "radio.rig must be 1 or 2",
		},
		{
			name:    "bad color",
			modify:  func(c *Config) { c.Output.Color = "rainbow" },
			wantErr: "output.color must be one of",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.True(t, errors.IsCode(err, errors.ErrConfig))
		})
	}
}

func TestValidate_Nil(t *testing.T) {
	err := Validate(nil)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}

func TestValidate_RequireCallsign(t *testing.T) {
	cfg := DefaultConfig()

	assert.NoError(t, Validate(cfg), "inspecting config doesn't need a callsign")

	err := Validate(cfg, RequireCallsign())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrNotConfigured))
	assert.Contains(t, err.Error(), "No callsign configured")

	cfg.Callsign = "W6JSV"
	assert.NoError(t, Validate(cfg, RequireCallsign()))
}

func TestValidateMetricsListen(t *testing.T) {
	assert.NoError(t, ValidateMetricsListen(""))
	assert.NoError(t, ValidateMetricsListen(":9108"))
	assert.NoError(t, ValidateMetricsListen("127.0.0.1:9108"))

	err := ValidateMetricsListen("9108")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}
