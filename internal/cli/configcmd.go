package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/rileyhilliard/rbnvfd/internal/config"
	"github.com/rileyhilliard/rbnvfd/internal/errors"
	"github.com/rileyhilliard/rbnvfd/internal/ui"
	"github.com/spf13/cobra"
)

// configCmd groups the config subcommands.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change configuration",
	Long: `Inspect and edit the rbnvfd configuration file.

Examples:
  rbnvfd config show
  rbnvfd config path
  rbnvfd config set display.port /dev/ttyUSB0
  rbnvfd config set spots.min_snr 10`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Print the configuration after defaults, the config file, environment
variables (RBNVFD_*) and flags have been applied.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShow(cmd.OutOrStdout())
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file in use",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return configPath(cmd.OutOrStdout())
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a value in the config file",
	Long: `Set a dotted key in the config file, keeping its comments and layout.
The change is validated and rolled back if it makes the config invalid.

Examples:
  rbnvfd config set callsign N0CALL
  rbnvfd config set display.scroll_interval 5s
  rbnvfd config set radio.backend rigctld`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return configSet(cmd.OutOrStdout(), args[0], args[1])
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configSetCmd)
}

func configShow(w io.Writer) error {
	cfg, path, err := loadConfig(false)
	if err != nil {
		return err
	}
	data, err := config.Marshal(cfg)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to render config",
			"This shouldn't happen - please report this bug")
	}

	source := path
	if source == "" {
		source = "defaults (no config file found)"
	}
	fmt.Fprintf(w, "# source: %s\n", source)
	_, err = w.Write(data)
	return err
}

func configPath(w io.Writer) error {
	path, err := config.Find(Config())
	if err != nil {
		return err
	}
	if path == "" {
		return errors.New(errors.ErrNotConfigured,
			"No config file found",
			"Run 'rbnvfd init' to create one")
	}
	fmt.Fprintln(w, path)
	return nil
}

// configSet edits one key and restores the previous file if the result
// fails to load or validate.
func configSet(w io.Writer, key, value string) error {
	path, err := config.Find(Config())
	if err != nil {
		return err
	}
	if path == "" {
		return errors.New(errors.ErrNotConfigured,
			"No config file found",
			"Run 'rbnvfd init' to create one")
	}

	if !config.KnownKey(key) {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Unknown config key '%s'", key),
			"Run 'rbnvfd config show' to list the keys")
	}

	original, err := os.ReadFile(path)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot read config file: "+path,
			"Check file permissions")
	}

	if err := config.SetValue(path, key, value); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Cannot set '%s'", key),
			"Keys are dotted paths such as display.port or spots.min_snr")
	}

	cfg, err := config.Load(path)
	if err == nil {
		err = config.Validate(cfg)
	}
	if err == nil {
		err = config.ValidateMetricsListen(cfg.Metrics.Listen)
	}
	if err != nil {
		if restoreErr := os.WriteFile(path, original, 0644); restoreErr != nil {
			return errors.WrapWithCode(restoreErr, errors.ErrConfig,
				"Failed to restore config after an invalid change",
				"Fix "+path+" by hand")
		}
		return err
	}

	fmt.Fprintf(w, "%s %s = %s\n", ui.SymbolSuccess, key, value)
	return nil
}
