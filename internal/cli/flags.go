package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rileyhilliard/rbnvfd/internal/errors"
	"github.com/rileyhilliard/rbnvfd/internal/radio"
)

// ParseDuration parses a duration flag. Returns zero duration if the flag is empty.
func ParseDuration(flag string) (time.Duration, error) {
	if flag == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(flag)
	if err != nil {
		return 0, errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("'%s' doesn't look like a valid duration", flag),
			"Try something like 250ms, 5s, or 2m.")
	}
	if d < 0 {
		return 0, errors.New(errors.ErrConfig,
			fmt.Sprintf("'%s' is negative", flag),
			"Durations must be positive.")
	}
	return d, nil
}

// ParseFrequency parses a frequency in kHz, e.g. "14025.3".
func ParseFrequency(arg string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(arg), 64)
	if err != nil || f <= 0 {
		return 0, errors.New(errors.ErrConfig,
			fmt.Sprintf("'%s' is not a frequency", arg),
			"Give the frequency in kHz, e.g. 14025.0")
	}
	return f, nil
}

// ParseModeArg parses an optional mode argument. An empty argument picks the
// mode a spot at freqKHz with no mode tag would get.
func ParseModeArg(arg string, freqKHz float64) (radio.Mode, error) {
	if arg == "" {
		return radio.ModeFromSpot("", freqKHz), nil
	}
	m, ok := radio.ParseMode(arg)
	if !ok {
		return 0, errors.New(errors.ErrConfig,
			fmt.Sprintf("Unknown mode '%s'", arg),
			"Use one of: cw, lsb, usb")
	}
	return m, nil
}
