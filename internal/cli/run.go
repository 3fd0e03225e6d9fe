package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rileyhilliard/rbnvfd/internal/errors"
	"github.com/rileyhilliard/rbnvfd/internal/logger"
	"github.com/rileyhilliard/rbnvfd/internal/rbn"
	"github.com/spf13/cobra"
)

var runNoDevice bool

// runCmd streams spots to the display without a UI.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Stream RBN spots to the display",
	Long: `Log in to the Reverse Beacon Network and drive the VFD until interrupted.

Status changes are logged to stderr. Reconnection is manual: when the
session drops or the display is unplugged, send SIGHUP to reconnect and
reopen whatever was lost.

Examples:
  rbnvfd run
  rbnvfd run --callsign N0CALL
  rbnvfd run --metrics-listen :9108
  kill -HUP $(pidof rbnvfd)`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCommand(cmd.Context(), runNoDevice)
	},
}

func init() {
	runCmd.Flags().BoolVar(&runNoDevice, "no-device", false, "ignore display.port and only log")
}

// runCommand runs the station headless until SIGINT or SIGTERM.
func runCommand(parent context.Context, noDevice bool) error {
	cfg, path, err := loadConfig(true)
	if err != nil {
		return err
	}

	st, err := NewStation(cfg, StationOptions{NoDevice: noDevice})
	if err != nil {
		return err
	}

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logger.NewEnvLogger("[rbnvfd]")
	if path != "" {
		log.Info("using config %s", path)
	}

	if err := st.Start(ctx); err != nil {
		return err
	}
	defer st.Close()

	hup := notifyRecover()
	defer signal.Stop(hup)

	return superviseStation(ctx, st, hup, log)
}

// superviseStation logs session changes and runs Recover on each hup until
// ctx is done.
func superviseStation(ctx context.Context, st *Station, hup <-chan os.Signal, log logger.Logger) error {
	updates := st.Client.Updates()
	for {
		select {
		case <-ctx.Done():
			log.Info("shutting down")
			return nil

		case s, ok := <-updates:
			if !ok {
				return nil
			}
			logStatus(log, s)

		case <-hup:
			log.Info("reconnecting on request")
			st.Recover()
		}
	}
}

func logStatus(log logger.Logger, s rbn.Status) {
	switch {
	case s.LastError != nil && s.State == rbn.Disconnected:
		log.Warn("session ended: %s (send SIGHUP to reconnect)", errors.Summary(s.LastError))
	case s.State == rbn.Streaming:
		log.Info("streaming spots as %s", s.Callsign)
	default:
		log.Info("%s", s.State)
	}
}
