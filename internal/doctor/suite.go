package doctor

import (
	"github.com/rileyhilliard/rbnvfd/internal/config"
	"github.com/rileyhilliard/rbnvfd/internal/radio"
)

// NewChecks builds the full set of checks. cfg may be nil when the config
// failed to load; only the config checks run then.
func NewChecks(cfgPath string, cfg *config.Config) []Check {
	checks := []Check{
		&ConfigFileCheck{ConfigPath: cfgPath},
		&ConfigSchemaCheck{ConfigPath: cfgPath},
	}
	if cfg == nil {
		return checks
	}

	checks = append(checks,
		&CallsignCheck{Callsign: cfg.Callsign},
		&RBNServerCheck{Addr: cfg.RBN.Addr, Timeout: cfg.RBN.DialTimeout},
		&MetricsListenCheck{Addr: cfg.Metrics.Listen},
		&DisplayPortCheck{Path: cfg.Display.Port},
	)
	if cfg.Display.Port != "" {
		checks = append(checks, &DisplayLockCheck{Path: cfg.Display.Port})
	}
	checks = append(checks,
		&RadioCheck{Options: radio.Options{
			Backend: cfg.Radio.Backend,
			Addr:    cfg.Radio.Addr,
			Timeout: cfg.Radio.Timeout,
			Rig:     cfg.Radio.Rig,
		}},
	)
	return checks
}
