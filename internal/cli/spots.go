package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rileyhilliard/rbnvfd/internal/errors"
	"github.com/rileyhilliard/rbnvfd/internal/logger"
	"github.com/rileyhilliard/rbnvfd/internal/rbn"
	"github.com/rileyhilliard/rbnvfd/internal/ui"
	"github.com/spf13/cobra"
)

var spotsForFlag string

// spotsCmd listens for a while and prints what was heard.
var spotsCmd = &cobra.Command{
	Use:   "spots",
	Short: "Listen for a while and print the aggregated spots",
	Long: `Log in to the RBN, collect spots for the given time, then print one row per
station and band. The display is not touched.

Examples:
  rbnvfd spots
  rbnvfd spots --for 2m`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := ParseDuration(spotsForFlag)
		if err != nil {
			return err
		}
		if d == 0 {
			return errors.New(errors.ErrConfig,
				"Listening time must be positive",
				"Try --for 30s")
		}
		return spotsCommand(cmd.Context(), cmd.OutOrStdout(), d)
	},
}

func init() {
	spotsCmd.Flags().StringVar(&spotsForFlag, "for", "30s", "how long to listen")
}

func spotsCommand(parent context.Context, w io.Writer, listen time.Duration) error {
	cfg, _, err := loadConfig(true)
	if err != nil {
		return err
	}

	tail := logger.NewTailLogger(20)
	st, err := NewStation(cfg, StationOptions{
		NoDevice: true,
		Log:      func(prefix string) logger.Logger { return logger.WithPrefix(tail, prefix) },
	})
	if err != nil {
		return err
	}

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := st.Start(ctx); err != nil {
		return err
	}
	defer st.Close()

	spinner := ui.NewSpinner(fmt.Sprintf("Listening on %s for %s", st.Client.Addr(), listen), os.Stderr)
	spinner.Start()
	if err := collectSpots(ctx, st, listen); err != nil {
		spinner.Fail(errors.Summary(err))
		return err
	}
	spinner.Success()

	spots := st.Driver.Visible()
	if len(spots) == 0 {
		fmt.Fprintln(w, ui.MutedStyle().Render("No spots heard"))
		return nil
	}
	fmt.Fprint(w, ui.RenderSpotTable(spots, time.Now()))
	return nil
}

// collectSpots waits out the listening window. It ends early on interrupt,
// or with an error when the session ends on its own.
func collectSpots(ctx context.Context, st *Station, listen time.Duration) error {
	timer := time.NewTimer(listen)
	defer timer.Stop()

	updates := st.Client.Updates()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
			return nil
		case s, ok := <-updates:
			if !ok {
				return nil
			}
			if s.State == rbn.Disconnected && s.LastError != nil {
				return s.LastError
			}
		}
	}
}
