package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rileyhilliard/rbnvfd/internal/errors"
	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the config file looked up in the working directory.
	ConfigFileName = "rbnvfd.yaml"
	// GlobalConfigDir is the directory for the per-user config.
	GlobalConfigDir = ".config/rbnvfd"
	// GlobalConfigFile is the per-user config file name.
	GlobalConfigFile = "config.yaml"
	// EnvPrefix prefixes environment overrides, e.g. RBNVFD_CALLSIGN or
	// RBNVFD_DISPLAY_PORT.
	EnvPrefix = "RBNVFD"
)

// Load reads config from the specified path.
func Load(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Config file not found",
				"Run 'rbnvfd init' to create a config file, or specify one with --config")
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to read config file",
			"Check the file exists and is valid YAML")
	}

	return parseConfig(v, path)
}

// Find locates the config file using the search order:
// 1. Explicit path (from --config flag)
// 2. rbnvfd.yaml in the current directory
// 3. ~/.config/rbnvfd/config.yaml
//
// Returns the path to the config file, or empty string if not found.
func Find(explicit string) (string, error) {
	// 1. Explicit path takes precedence
	if explicit != "" {
		explicit = Expand(explicit)
		if _, err := os.Stat(explicit); err != nil {
			if os.IsNotExist(err) {
				return "", errors.WrapWithCode(err, errors.ErrConfig,
					"Specified config file not found: "+explicit,
					"Check the path is correct")
			}
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot access config file: "+explicit,
				"Check file permissions")
		}
		return explicit, nil
	}

	// 2. Current directory
	if cwd, err := os.Getwd(); err == nil {
		localConfig := filepath.Join(cwd, ConfigFileName)
		if _, err := os.Stat(localConfig); err == nil {
			return localConfig, nil
		}
	}

	// 3. Per-user config
	if path := GlobalConfigPath(); path != "" {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", nil
}

// GlobalConfigPath returns ~/.config/rbnvfd/config.yaml, or "" without a home directory.
func GlobalConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, GlobalConfigDir, GlobalConfigFile)
}

// LoadOrDefault loads config from the found path, or returns defaults if none
// exists. The returned path is empty when defaults are used. Environment
// overrides apply either way.
func LoadOrDefault(explicit string) (*Config, string, error) {
	path, err := Find(explicit)
	if err != nil {
		return nil, "", err
	}

	if path == "" {
		cfg, err := parseConfig(newViper(), "")
		return cfg, "", err
	}

	cfg, err := Load(path)
	return cfg, path, err
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// parseConfig converts viper config to our Config struct with defaults merged in.
func parseConfig(v *viper.Viper, path string) (*Config, error) {
	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		where := "the environment"
		if path != "" {
			where = path
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid config format",
			"Check the YAML syntax and value types in "+where)
	}

	cfg.Callsign = strings.ToUpper(strings.TrimSpace(cfg.Callsign))
	cfg.Display.Port = Expand(cfg.Display.Port)
	cfg.Spots.Sort = strings.ToLower(strings.TrimSpace(cfg.Spots.Sort))
	cfg.Radio.Backend = strings.ToLower(strings.TrimSpace(cfg.Radio.Backend))

	return cfg, nil
}

// setDefaults registers every key with viper. Besides filling gaps in the
// file this is what lets AutomaticEnv override keys the file never mentions.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("version", d.Version)
	v.SetDefault("callsign", d.Callsign)

	v.SetDefault("rbn.addr", d.RBN.Addr)
	v.SetDefault("rbn.dial_timeout", d.RBN.DialTimeout.String())
	v.SetDefault("rbn.read_timeout", d.RBN.ReadTimeout.String())
	v.SetDefault("rbn.login_timeout", d.RBN.LoginTimeout.String())
	v.SetDefault("rbn.event_buffer", d.RBN.EventBuffer)

	v.SetDefault("spots.max_age", d.Spots.MaxAge.String())
	v.SetDefault("spots.min_snr", d.Spots.MinSNR)
	v.SetDefault("spots.sort", d.Spots.Sort)
	v.SetDefault("spots.purge_interval", d.Spots.PurgeInterval.String())

	v.SetDefault("display.port", d.Display.Port)
	v.SetDefault("display.scroll_interval", d.Display.ScrollInterval.String())
	v.SetDefault("display.force_idle", d.Display.ForceIdle)
	v.SetDefault("display.refresh_interval", d.Display.RefreshInterval.String())
	v.SetDefault("display.seed", d.Display.Seed)

	v.SetDefault("radio.backend", d.Radio.Backend)
	v.SetDefault("radio.addr", d.Radio.Addr)
	v.SetDefault("radio.timeout", d.Radio.Timeout.String())
	v.SetDefault("radio.rig", d.Radio.Rig)

	v.SetDefault("metrics.listen", d.Metrics.Listen)
	v.SetDefault("output.color", d.Output.Color)
}
