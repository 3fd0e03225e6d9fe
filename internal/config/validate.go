package config

import (
	"fmt"
	"net"
	"regexp"
	"strings"
	"time"

	"github.com/rileyhilliard/rbnvfd/internal/errors"
)

// callsignPattern accepts amateur callsigns with optional portable
// prefixes and suffixes, e.g. W6JSV, VP2V/W6JSV, DL1ABC/P.
var callsignPattern = regexp.MustCompile(`^[A-Z0-9]+(/[A-Z0-9]+)*$`)

// ValidSorts are the accepted values for spots.sort.
var ValidSorts = []string{"frequency", "recency"}

// ValidBackends are the accepted values for radio.backend.
var ValidBackends = []string{"disabled", "rigctld", "omnirig"}

// ValidationOption controls validation behavior.
type ValidationOption func(*validationContext)

type validationContext struct {
	requireCallsign bool
}

// RequireCallsign makes a missing callsign a validation error. Commands that
// connect to the spot server use it; commands that only inspect config don't.
func RequireCallsign() ValidationOption {
	return func(c *validationContext) { c.requireCallsign = true }
}

// Validate checks the config for errors and returns structured error messages.
func Validate(cfg *Config, opts ...ValidationOption) error {
	ctx := &validationContext{}
	for _, opt := range opts {
		opt(ctx)
	}

	if cfg == nil {
		return errors.New(errors.ErrConfig,
			"Config is nil",
			"This is unexpected - try reloading the configuration.")
	}

	// Check version
	if cfg.Version > CurrentConfigVersion {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("This config is from the future (version %d, but rbnvfd only knows up to %d)", cfg.Version, CurrentConfigVersion),
			"Upgrade rbnvfd or regenerate the file with 'rbnvfd init --force'")
	}

	if err := validateCallsign(cfg.Callsign, ctx.requireCallsign); err != nil {
		return err
	}

	if err := validateRBN(cfg.RBN); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'rbn' section in your config.yaml.")
	}

	if err := validateSpots(cfg.Spots); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'spots' section in your config.yaml.")
	}

	if err := validateDisplay(cfg.Display); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'display' section in your config.yaml.")
	}

	if err := validateRadio(cfg.Radio); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'radio' section in your config.yaml.")
	}

	if err := validateOutput(cfg.Output); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'output' section in your config.yaml.")
	}

	return nil
}

func validateCallsign(callsign string, required bool) error {
	if callsign == "" {
		if required {
			return errors.New(errors.ErrNotConfigured,
				"No callsign configured",
				"Run 'rbnvfd init', set 'callsign' in config.yaml, or pass --callsign")
		}
		return nil
	}
	if !callsignPattern.MatchString(callsign) {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("'%s' doesn't look like a callsign", callsign),
			"Use letters, digits and '/' only, e.g. W6JSV or VP2V/W6JSV")
	}
	return nil
}

func validateRBN(c RBNConfig) error {
	if err := validateAddr("rbn.addr", c.Addr, true); err != nil {
		return err
	}
	if err := positive("rbn.dial_timeout", c.DialTimeout); err != nil {
		return err
	}
	if err := positive("rbn.read_timeout", c.ReadTimeout); err != nil {
		return err
	}
	if err := positive("rbn.login_timeout", c.LoginTimeout); err != nil {
		return err
	}
	if c.EventBuffer < 1 {
		return fmt.Errorf("rbn.event_buffer must be at least 1, got %d", c.EventBuffer)
	}
	return nil
}

func validateSpots(c SpotsConfig) error {
	if err := positive("spots.max_age", c.MaxAge); err != nil {
		return err
	}
	if err := positive("spots.purge_interval", c.PurgeInterval); err != nil {
		return err
	}
	if !contains(ValidSorts, c.Sort) {
		return fmt.Errorf("spots.sort must be one of %s, got '%s'", strings.Join(ValidSorts, ", "), c.Sort)
	}
	return nil
}

func validateDisplay(c DisplayConfig) error {
	if err := positive("display.scroll_interval", c.ScrollInterval); err != nil {
		return err
	}
	if err := positive("display.refresh_interval", c.RefreshInterval); err != nil {
		return err
	}
	if c.RefreshInterval > c.ScrollInterval {
		return fmt.Errorf("display.refresh_interval (%s) must not exceed display.scroll_interval (%s)",
			c.RefreshInterval, c.ScrollInterval)
	}
	return nil
}

func validateRadio(c RadioConfig) error {
	if !contains(ValidBackends, c.Backend) {
		return fmt.Errorf("radio.backend must be one of %s, got '%s'", strings.Join(ValidBackends, ", "), c.Backend)
	}
	if c.Backend == "rigctld" {
		if err := validateAddr("radio.addr", c.Addr, true); err != nil {
			return err
		}
		if err := positive("radio.timeout", c.Timeout); err != nil {
			return err
		}
	}
	if c.Backend == "omnirig" && (c.Rig < 1 || c.Rig > 2) {
		return fmt.Errorf("radio.rig must be 1 or 2, got %d", c.Rig)
	}
	return nil
}

// validateOutput checks output configuration.
func validateOutput(c OutputConfig) error {
	validColors := []string{"auto", "always", "never", ""}
	if !contains(validColors, c.Color) {
		return fmt.Errorf("output.color must be one of auto, always, never, got '%s'", c.Color)
	}
	return nil
}

// ValidateMetricsListen checks a metrics listen address; empty is allowed.
func ValidateMetricsListen(addr string) error {
	if addr == "" {
		return nil
	}
	if err := validateAddr("metrics.listen", addr, false); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Use host:port or :port, e.g. :9108")
	}
	return nil
}

func validateAddr(field, addr string, needHost bool) error {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("%s must be host:port, got '%s'", field, addr)
	}
	if needHost && host == "" {
		return fmt.Errorf("%s is missing a host, got '%s'", field, addr)
	}
	if port == "" {
		return fmt.Errorf("%s is missing a port, got '%s'", field, addr)
	}
	return nil
}

func positive(field string, d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("%s must be positive, got %s", field, d)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
