package cli

import (
	"fmt"
	"os"

	"github.com/rileyhilliard/rbnvfd/internal/ui"
	"github.com/spf13/cobra"
)

// Global flags
var (
	cfgFile       string
	noColor       bool
	callsignFlag  string
	metricsListen string
)

var rootCmd = &cobra.Command{
	Use:   "rbnvfd",
	Short: "Reverse Beacon Network spots on a 20x2 VFD",
	Long: `rbnvfd logs into the Reverse Beacon Network telnet feed, aggregates the
CW and RTTY spots it receives per station and band, and cycles them across a
20x2 vacuum fluorescent display on a serial port.

When no stations are heard the display shows a sparse random pattern so the
phosphor wears evenly.

Examples:
  rbnvfd init
  rbnvfd run
  rbnvfd monitor
  rbnvfd tune 14025.0 cw`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			ui.DisableColors()
		}
	},
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.ErrorStyle().Render(ui.SymbolFail)+" "+err.Error())
		os.Exit(1)
	}
}

// Config returns the --config flag value.
func Config() string {
	return cfgFile
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./rbnvfd.yaml or ~/.config/rbnvfd/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVar(&callsignFlag, "callsign", "", "callsign sent at the RBN login prompt (overrides config)")
	rootCmd.PersistentFlags().StringVar(&metricsListen, "metrics-listen", "", "serve Prometheus metrics on this address, e.g. :9108")
}
