package cli

import (
	"fmt"
	"os"

	"github.com/rileyhilliard/rbnvfd/internal/radio"
	"github.com/rileyhilliard/rbnvfd/internal/ui"
	"github.com/spf13/cobra"
)

// tuneCmd sends the radio to a frequency without starting the station.
var tuneCmd = &cobra.Command{
	Use:   "tune <kHz> [cw|lsb|usb]",
	Short: "Tune the radio to a frequency",
	Long: `Tune the configured radio backend to a frequency in kHz.

Without a mode, CW is used. Configure the backend with radio.backend
(rigctld or omnirig).

Examples:
  rbnvfd tune 14025.0
  rbnvfd tune 7185 lsb`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		modeArg := ""
		if len(args) > 1 {
			modeArg = args[1]
		}
		return tuneCommand(args[0], modeArg)
	},
}

// tuneCommand tunes the configured backend once.
func tuneCommand(freqArg, modeArg string) error {
	freq, err := ParseFrequency(freqArg)
	if err != nil {
		return err
	}
	mode, err := ParseModeArg(modeArg, freq)
	if err != nil {
		return err
	}

	cfg, _, err := loadConfig(false)
	if err != nil {
		return err
	}

	rc, err := radio.New(radio.Options{
		Backend: cfg.Radio.Backend,
		Addr:    cfg.Radio.Addr,
		Timeout: cfg.Radio.Timeout,
		Rig:     cfg.Radio.Rig,
	}, nil)
	if err != nil {
		return err
	}
	defer rc.Disconnect()

	spinner := ui.NewSpinner(fmt.Sprintf("Tuning %s to %.1f kHz %s", rc.Name(), freq, mode), os.Stdout)
	spinner.Start()
	if err := tuneRadio(rc, freq, mode); err != nil {
		spinner.Fail()
		return err
	}
	spinner.Success()
	return nil
}
