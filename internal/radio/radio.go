// Package radio tunes a transceiver to a spotted station.
//
// Backends form a closed set selected by name: "disabled", "rigctld" and
// "omnirig". Control failures only ever reach the caller of Tune.
package radio

import (
	"fmt"
	"strings"
	"time"

	"github.com/rileyhilliard/rbnvfd/internal/errors"
	"github.com/rileyhilliard/rbnvfd/internal/logger"
)

// Backend names accepted by New.
const (
	BackendDisabled = "disabled"
	BackendRigctld  = "rigctld"
	BackendOmniRig  = "omnirig"
)

// Backends lists every backend name, in the order shown to users.
var Backends = []string{BackendDisabled, BackendRigctld, BackendOmniRig}

// Mode is an operating mode understood by every backend.
type Mode int

const (
	ModeCW Mode = iota
	ModeLSB
	ModeUSB
)

// String returns the hamlib token for the mode.
func (m Mode) String() string {
	switch m {
	case ModeLSB:
		return "LSB"
	case ModeUSB:
		return "USB"
	default:
		return "CW"
	}
}

// ParseMode parses a mode name as typed on the command line.
func ParseMode(s string) (Mode, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CW":
		return ModeCW, true
	case "LSB":
		return ModeLSB, true
	case "USB":
		return ModeUSB, true
	}
	return ModeCW, false
}

// VoiceMode is the conventional sideband for a frequency: LSB below 10 MHz.
func VoiceMode(freqKHz float64) Mode {
	if freqKHz < 10000 {
		return ModeLSB
	}
	return ModeUSB
}

// ModeFromSpot maps a spot's mode tag to a radio mode. Digital and phone
// tags tune the band's sideband; anything unrecognized is treated as CW.
func ModeFromSpot(tag string, freqKHz float64) Mode {
	t := strings.ToUpper(strings.TrimSpace(tag))
	switch {
	case t == "CW":
		return ModeCW
	case t == "LSB":
		return ModeLSB
	case t == "USB":
		return ModeUSB
	case t == "SSB", t == "PHONE", t == "RTTY", t == "FT8", t == "FT4",
		t == "JT65", t == "JT9", t == "MSK144", t == "DATA",
		strings.HasPrefix(t, "PSK"), strings.HasPrefix(t, "BPSK"):
		return VoiceMode(freqKHz)
	}
	return ModeCW
}

// Controller is a tuning backend.
type Controller interface {
	Connect() error
	Disconnect()
	Tune(frequencyKHz float64, mode Mode) error
	IsConnected() bool
	Name() string
}

// ErrDisabled is returned by Tune on the disabled backend.
var ErrDisabled = errors.New(errors.ErrNotConfigured,
	"Radio control is disabled",
	"Set 'radio.backend' to rigctld in config.yaml")

// ErrNotConnected is returned by Tune before a successful Connect.
var ErrNotConnected = errors.New(errors.ErrConnection,
	"Radio is not connected",
	"Connect to the radio backend first")

// Options selects and configures a backend.
type Options struct {
	Backend string
	Addr    string // rigctld host:port
	Timeout time.Duration
	Rig     int // OmniRig rig number
}

// Default rigctld settings.
const (
	DefaultRigctldAddr = "localhost:4532"
	DefaultTimeout     = 2 * time.Second
)

// New builds the controller named by opts.Backend. An empty name is disabled.
func New(opts Options, log logger.Logger) (Controller, error) {
	if log == nil {
		log = logger.Noop()
	}
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", BackendDisabled:
		return Disabled{}, nil
	case BackendRigctld:
		return NewRigctld(opts.Addr, opts.Timeout, log), nil
	case BackendOmniRig:
		rig := opts.Rig
		if rig == 0 {
			rig = 1
		}
		return &OmniRig{rig: rig}, nil
	}
	return nil, errors.New(errors.ErrConfig,
		fmt.Sprintf("Unknown radio backend %q", opts.Backend),
		fmt.Sprintf("Use one of: %s", strings.Join(Backends, ", ")))
}

// Disabled is the backend used when no radio is attached.
type Disabled struct{}

func (Disabled) Connect() error           { return nil }
func (Disabled) Disconnect()              {}
func (Disabled) Tune(float64, Mode) error { return ErrDisabled }
func (Disabled) IsConnected() bool        { return false }
func (Disabled) Name() string             { return BackendDisabled }
