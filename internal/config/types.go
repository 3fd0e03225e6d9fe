package config

import "time"

// CurrentConfigVersion is the schema version for the config file.
// Increment when making breaking changes to the config structure.
const CurrentConfigVersion = 1

// Config represents the complete config.yaml file.
type Config struct {
	Version  int           `yaml:"version" mapstructure:"version"`
	Callsign string        `yaml:"callsign" mapstructure:"callsign"`
	RBN      RBNConfig     `yaml:"rbn" mapstructure:"rbn"`
	Spots    SpotsConfig   `yaml:"spots" mapstructure:"spots"`
	Display  DisplayConfig `yaml:"display" mapstructure:"display"`
	Radio    RadioConfig   `yaml:"radio" mapstructure:"radio"`
	Metrics  MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
	Output   OutputConfig  `yaml:"output" mapstructure:"output"`
}

// RBNConfig controls the connection to the spot server.
type RBNConfig struct {
	// Addr is the telnet server as host:port.
	Addr string `yaml:"addr" mapstructure:"addr"`

	DialTimeout time.Duration `yaml:"dial_timeout" mapstructure:"dial_timeout"`

	// ReadTimeout bounds each blocking read so the session notices cancellation.
	ReadTimeout time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`

	// LoginTimeout is how long to wait for the callsign prompt.
	LoginTimeout time.Duration `yaml:"login_timeout" mapstructure:"login_timeout"`

	// EventBuffer is the capacity of the spot channel. Spots arriving while it
	// is full are dropped.
	EventBuffer int `yaml:"event_buffer" mapstructure:"event_buffer"`
}

// SpotsConfig controls aggregation and filtering.
type SpotsConfig struct {
	// MaxAge is how long a station stays listed after it was last spotted.
	MaxAge time.Duration `yaml:"max_age" mapstructure:"max_age"`

	// MinSNR hides stations whose best report is weaker.
	MinSNR int `yaml:"min_snr" mapstructure:"min_snr"`

	// Sort is "frequency" or "recency".
	Sort string `yaml:"sort" mapstructure:"sort"`

	// PurgeInterval is how often stale records are evicted.
	PurgeInterval time.Duration `yaml:"purge_interval" mapstructure:"purge_interval"`
}

// DisplayConfig controls the VFD and its schedule.
type DisplayConfig struct {
	// Port is the serial device, e.g. /dev/ttyUSB0. Empty runs without a device.
	Port string `yaml:"port" mapstructure:"port"`

	// ScrollInterval is how long each pair of spots stays on screen.
	ScrollInterval time.Duration `yaml:"scroll_interval" mapstructure:"scroll_interval"`

	// ForceIdle shows the idle pattern even when there are spots.
	ForceIdle bool `yaml:"force_idle" mapstructure:"force_idle"`

	// RefreshInterval is the display tick.
	RefreshInterval time.Duration `yaml:"refresh_interval" mapstructure:"refresh_interval"`

	// Seed fixes the idle pattern. Zero seeds from the clock.
	Seed int64 `yaml:"seed" mapstructure:"seed"`
}

// RadioConfig selects the tuning backend.
type RadioConfig struct {
	// Backend is "disabled", "rigctld" or "omnirig".
	Backend string `yaml:"backend" mapstructure:"backend"`

	// Addr is the rigctld host:port.
	Addr string `yaml:"addr" mapstructure:"addr"`

	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// Rig is the OmniRig rig number, 1 or 2.
	Rig int `yaml:"rig" mapstructure:"rig"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	// Listen is the address for /metrics, e.g. ":9108". Empty disables it.
	Listen string `yaml:"listen" mapstructure:"listen"`
}

// OutputConfig controls terminal output formatting.
type OutputConfig struct {
	// Color mode: "auto", "always", or "never".
	// "auto" disables color when output is piped.
	Color string `yaml:"color" mapstructure:"color"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentConfigVersion,
		RBN: RBNConfig{
			Addr:         "rbn.telegraphy.de:7000",
			DialTimeout:  10 * time.Second,
			ReadTimeout:  500 * time.Millisecond,
			LoginTimeout: 30 * time.Second,
			EventBuffer:  4096,
		},
		Spots: SpotsConfig{
			MaxAge:        10 * time.Minute,
			MinSNR:        0,
			Sort:          "frequency",
			PurgeInterval: 5 * time.Second,
		},
		Display: DisplayConfig{
			ScrollInterval:  3 * time.Second,
			RefreshInterval: 250 * time.Millisecond,
		},
		Radio: RadioConfig{
			Backend: "disabled",
			Addr:    "localhost:4532",
			Timeout: 2 * time.Second,
			Rig:     1,
		},
		Output: OutputConfig{
			Color: "auto",
		},
	}
}
