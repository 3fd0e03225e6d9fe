package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/rbnvfd/internal/config"
	"github.com/rileyhilliard/rbnvfd/internal/doctor"
	"github.com/rileyhilliard/rbnvfd/internal/errors"
	"github.com/rileyhilliard/rbnvfd/internal/ui"
	"github.com/spf13/cobra"
)

var doctorJSON bool

// doctorCmd diagnoses configuration, network, display and radio issues
var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose config, network, display and radio issues",
	Long: `Run diagnostic checks to find common setup problems.

Checks:
  - Config file and values
  - Callsign
  - RBN server reachability and login prompt
  - Metrics listen address
  - Display serial port
  - Radio backend

Examples:
  rbnvfd doctor
  rbnvfd doctor --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return doctorCommand(cmd.OutOrStdout(), doctorJSON)
	},
}

func init() {
	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false, "output in JSON format")
}

// DoctorOutput represents the JSON output for doctor command.
type DoctorOutput struct {
	Categories []CategoryOutput `json:"categories"`
	Summary    SummaryOutput    `json:"summary"`
}

// CategoryOutput represents a category of check results.
type CategoryOutput struct {
	Name    string               `json:"name"`
	Results []doctor.CheckResult `json:"results"`
}

// SummaryOutput summarizes the check results.
type SummaryOutput struct {
	Pass     int  `json:"pass"`
	Warn     int  `json:"warn"`
	Fail     int  `json:"fail"`
	AllClear bool `json:"all_clear"`
}

// doctorCommand runs every check and reports. It returns an error when any
// check fails so scripts can rely on the exit code.
func doctorCommand(w io.Writer, asJSON bool) error {
	cfg, _, err := config.LoadOrDefault(Config())
	if err == nil && callsignFlag != "" {
		cfg.Callsign = strings.ToUpper(strings.TrimSpace(callsignFlag))
	}
	if err != nil {
		cfg = nil // config checks report the error
	}

	checks := doctor.NewChecks(Config(), cfg)
	results := doctor.RunAllParallel(checks)

	if asJSON {
		err = outputDoctorJSON(w, checks, results)
	} else {
		outputDoctorText(w, checks, results)
	}
	if err != nil {
		return err
	}

	if doctor.HasFailures(results) {
		return errors.New(errors.ErrConfig,
			doctor.Summary(results),
			"Fix the failed checks above and run 'rbnvfd doctor' again")
	}
	return nil
}

// groupResults returns category names in first-seen order and the result
// indices for each.
func groupResults(checks []doctor.Check) ([]string, map[string][]int) {
	grouped := make(map[string][]int)
	var order []string
	for i, check := range checks {
		cat := check.Category()
		if _, ok := grouped[cat]; !ok {
			order = append(order, cat)
		}
		grouped[cat] = append(grouped[cat], i)
	}
	return order, grouped
}

func outputDoctorJSON(w io.Writer, checks []doctor.Check, results []doctor.CheckResult) error {
	order, grouped := groupResults(checks)

	output := DoctorOutput{Categories: make([]CategoryOutput, 0, len(order))}
	for _, cat := range order {
		co := CategoryOutput{Name: cat}
		for _, idx := range grouped[cat] {
			co.Results = append(co.Results, results[idx])
		}
		output.Categories = append(output.Categories, co)
	}

	counts := doctor.CountByStatus(results)
	output.Summary = SummaryOutput{
		Pass:     counts[doctor.StatusPass],
		Warn:     counts[doctor.StatusWarn],
		Fail:     counts[doctor.StatusFail],
		AllClear: !doctor.HasIssues(results),
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}

func outputDoctorText(w io.Writer, checks []doctor.Check, results []doctor.CheckResult) {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(ui.ColorInfo)

	order, grouped := groupResults(checks)
	for _, category := range order {
		fmt.Fprintln(w, headerStyle.Render(category))
		for _, idx := range grouped[category] {
			renderCheckResult(w, results[idx])
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, strings.Repeat("━", 60))
	fmt.Fprintln(w)

	if !doctor.HasIssues(results) {
		fmt.Fprintf(w, "%s %s\n", ui.SuccessStyle().Render(ui.SymbolSuccess), doctor.Summary(results))
	} else {
		fmt.Fprintf(w, "%s %s\n", ui.ErrorStyle().Render(ui.SymbolFail), doctor.Summary(results))
	}
	fmt.Fprintln(w)
}

// renderCheckResult renders a single check result.
func renderCheckResult(w io.Writer, result doctor.CheckResult) {
	var symbol string
	var style lipgloss.Style

	switch result.Status {
	case doctor.StatusPass:
		symbol, style = ui.SymbolComplete, ui.SuccessStyle()
	case doctor.StatusWarn:
		symbol, style = ui.SymbolComplete, ui.WarningStyle()
	default:
		symbol, style = ui.SymbolFail, ui.ErrorStyle()
	}

	fmt.Fprintf(w, "  %s %s\n", style.Render(symbol), result.Message)

	if result.Suggestion != "" && result.Status != doctor.StatusPass {
		for _, line := range strings.Split(result.Suggestion, "\n") {
			fmt.Fprintf(w, "    %s\n", ui.MutedStyle().Render(line))
		}
	}
}
