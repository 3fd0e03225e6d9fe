package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/rileyhilliard/rbnvfd/internal/config"
	"github.com/rileyhilliard/rbnvfd/internal/errors"
	"github.com/rileyhilliard/rbnvfd/internal/radio"
	"github.com/rileyhilliard/rbnvfd/internal/ui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// InitOptions holds options for the init command.
type InitOptions struct {
	Callsign       string // Pre-specified callsign
	Port           string // Pre-specified display serial port
	Backend        string // Pre-specified radio backend
	Path           string // Where to write; empty uses ./rbnvfd.yaml
	Overwrite      bool   // Overwrite existing config without asking
	NonInteractive bool   // Skip prompts, use flags and defaults
}

var (
	initPortFlag    string
	initBackendFlag string
	initGlobal      bool
	initForce       bool
	initNonInteract bool
)

// initCmd creates a new config file
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an rbnvfd.yaml configuration",
	Long: `Create a configuration file with your callsign, the display's serial port
and the radio backend used for tuning.

Prompts interactively when run in a terminal. Use --callsign and the flags
below to skip the prompts.

Examples:
  rbnvfd init
  rbnvfd init --callsign N0CALL --port /dev/ttyUSB0
  rbnvfd init --global --force`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if initGlobal {
			path = config.GlobalConfigPath()
		}
		nonInteractive := initNonInteract || !term.IsTerminal(int(os.Stdin.Fd()))
		_, err := Init(InitOptions{
			Callsign:       callsignFlag,
			Port:           initPortFlag,
			Backend:        initBackendFlag,
			Path:           path,
			Overwrite:      initForce,
			NonInteractive: nonInteractive,
		})
		return err
	},
}

func init() {
	initCmd.Flags().StringVar(&initPortFlag, "port", "", "display serial port, e.g. /dev/ttyUSB0")
	initCmd.Flags().StringVar(&initBackendFlag, "radio", "", "radio backend: disabled, rigctld or omnirig")
	initCmd.Flags().BoolVar(&initGlobal, "global", false, "write ~/.config/rbnvfd/config.yaml instead of ./rbnvfd.yaml")
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite existing config")
	initCmd.Flags().BoolVar(&initNonInteract, "non-interactive", false, "don't prompt; use flags and defaults")
}

// Init writes a new config file and returns its path. An empty path and nil
// error mean the user declined to overwrite.
func Init(opts InitOptions) (string, error) {
	configPath := opts.Path
	if configPath == "" {
		configPath = filepath.Join(".", config.ConfigFileName)
	}

	if _, err := os.Stat(configPath); err == nil && !opts.Overwrite {
		if opts.NonInteractive {
			return "", errors.New(errors.ErrConfig,
				fmt.Sprintf("Config file already exists: %s", configPath),
				"Use --force to overwrite")
		}

		var overwrite bool
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("Config file '%s' already exists. Overwrite?", configPath)).
					Value(&overwrite),
			),
		)
		if err := form.Run(); err != nil {
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to get user input",
				"Try running with --force to overwrite")
		}
		if !overwrite {
			fmt.Println("Cancelled.")
			return "", nil
		}
	}

	cfg := config.DefaultConfig()
	cfg.Callsign = strings.ToUpper(strings.TrimSpace(opts.Callsign))
	cfg.Display.Port = strings.TrimSpace(opts.Port)
	if opts.Backend != "" {
		cfg.Radio.Backend = strings.ToLower(strings.TrimSpace(opts.Backend))
	}

	if opts.NonInteractive {
		if cfg.Callsign == "" {
			return "", errors.New(errors.ErrNotConfigured,
				"Callsign is required in non-interactive mode",
				"Provide --callsign or run interactively")
		}
	} else if err := promptConfig(cfg); err != nil {
		return "", err
	}

	if err := config.Validate(cfg, config.RequireCallsign()); err != nil {
		return "", err
	}

	if err := config.Write(configPath, cfg); err != nil {
		return "", err
	}

	fmt.Printf("%s Created %s\n\n", ui.SymbolSuccess, configPath)
	fmt.Println("Next steps:")
	fmt.Println("  rbnvfd run      - Stream spots to the display")
	fmt.Println("  rbnvfd monitor  - Watch spots in the terminal")
	if cfg.Display.Port == "" {
		fmt.Println("  rbnvfd config set display.port /dev/ttyUSB0")
	}

	return configPath, nil
}

// promptConfig asks for the values a first run needs, starting from cfg.
func promptConfig(cfg *config.Config) error {
	backendOptions := make([]huh.Option[string], 0, len(radio.Backends))
	for _, b := range radio.Backends {
		backendOptions = append(backendOptions, huh.NewOption(b, b))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Callsign").
				Description("Sent at the RBN login prompt").
				Placeholder("N0CALL").
				Value(&cfg.Callsign).
				Validate(func(s string) error {
					c := config.DefaultConfig()
					c.Callsign = strings.ToUpper(strings.TrimSpace(s))
					if err := config.Validate(c, config.RequireCallsign()); err != nil {
						return fmt.Errorf("%s", errors.Summary(err))
					}
					return nil
				}),
			huh.NewInput().
				Title("Display serial port (optional)").
				Description("The VFD's serial device; leave empty to run without one").
				Placeholder("/dev/ttyUSB0").
				Value(&cfg.Display.Port),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Radio backend").
				Description("Used to tune the radio to a selected spot").
				Options(backendOptions...).
				Value(&cfg.Radio.Backend),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("rigctld address").
				Placeholder(radio.DefaultRigctldAddr).
				Value(&cfg.Radio.Addr),
		).WithHideFunc(func() bool { return cfg.Radio.Backend != radio.BackendRigctld }),
	)

	if err := form.Run(); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to get user input",
			"Check terminal compatibility or use --non-interactive with --callsign")
	}

	cfg.Callsign = strings.ToUpper(strings.TrimSpace(cfg.Callsign))
	cfg.Display.Port = strings.TrimSpace(cfg.Display.Port)
	if strings.TrimSpace(cfg.Radio.Addr) == "" {
		cfg.Radio.Addr = radio.DefaultRigctldAddr
	}
	return nil
}
