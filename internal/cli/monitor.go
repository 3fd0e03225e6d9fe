package cli

import (
	"context"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rileyhilliard/rbnvfd/internal/errors"
	"github.com/rileyhilliard/rbnvfd/internal/logger"
	"github.com/rileyhilliard/rbnvfd/internal/monitor"
	"github.com/rileyhilliard/rbnvfd/internal/ui"
	"github.com/spf13/cobra"
)

var monitorIntervalFlag string

// monitorCmd runs the station behind the interactive dashboard.
var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Interactive dashboard for spots, the display and the radio",
	Long: `Run the station with a full-screen dashboard: the aggregated spot table,
a live copy of what the VFD shows, connection state and spot rate.

Keyboard shortcuts:
  q / Ctrl+C  Quit
  c           Connect to the RBN
  d           Disconnect
  r           Reopen the display
  i           Toggle the idle pattern
  t / Enter   Tune the radio to the selected spot
  up/k        Previous spot
  down/j      Next spot
  ?           Show help

Examples:
  rbnvfd monitor
  rbnvfd monitor --interval 1s`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		interval, err := parseInterval(monitorIntervalFlag)
		if err != nil {
			return err
		}
		return monitorCommand(cmd.Context(), interval)
	},
}

func init() {
	monitorCmd.Flags().StringVar(&monitorIntervalFlag, "interval", monitor.DefaultInterval.String(), "dashboard refresh interval (e.g. 250ms, 1s)")
}

// parseInterval parses the dashboard refresh interval.
func parseInterval(s string) (time.Duration, error) {
	d, err := ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 50*time.Millisecond {
		return 0, errors.New(errors.ErrConfig,
			"Interval too short",
			"Minimum interval is 50ms")
	}
	return d, nil
}

// monitorCommand runs the dashboard until the user quits.
func monitorCommand(ctx context.Context, interval time.Duration) error {
	if !ui.IsTerminal(os.Stdout) {
		return errors.New(errors.ErrConfig,
			"monitor needs an interactive terminal",
			"Use 'rbnvfd run' when output is redirected")
	}

	cfg, _, err := loadConfig(false)
	if err != nil {
		return err
	}

	tail := logger.NewTailLogger(50)
	st, err := NewStation(cfg, StationOptions{
		Log: func(prefix string) logger.Logger { return logger.WithPrefix(tail, prefix) },
	})
	if err != nil {
		return err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	if err := st.Start(ctx); err != nil {
		return err
	}
	defer st.Close()

	if cfg.Callsign == "" {
		tail.Warn("no callsign configured; set one with 'rbnvfd config set callsign <CALL>'")
	}

	model := monitor.NewModel(st, interval, tail.Messages)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Dashboard failed",
			"Check terminal compatibility or use 'rbnvfd run'")
	}
	return nil
}
