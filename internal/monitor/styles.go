package monitor

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/rbnvfd/internal/rbn"
	"github.com/rileyhilliard/rbnvfd/internal/ui"
)

// Dashboard color palette
const (
	ColorSurfaceBg = lipgloss.Color("#12121A")
	ColorBorder    = lipgloss.Color("#2A2A4A")

	ColorHealthy  = lipgloss.Color("#39FF14")
	ColorWarning  = lipgloss.Color("#FFAA00")
	ColorCritical = lipgloss.Color("#FF0055")

	ColorTextPrimary   = lipgloss.Color("#FFFFFF")
	ColorTextSecondary = lipgloss.Color("#B4B4D0")
	ColorTextMuted     = lipgloss.Color("#6B6B8D")

	ColorAccent = lipgloss.Color("#5CFFD6")
)

// Base styles for the dashboard
var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary).
			Background(ColorSurfaceBg).
			Bold(true).
			Padding(0, 1)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Padding(0, 1)

	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorTextSecondary)

	ValueStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary)

	// VFD glass: phosphor glyphs on a near-black panel.
	VFDStyle = lipgloss.NewStyle().
			Foreground(ui.ColorVFDGlow).
			Background(ui.ColorVFDDark).
			Border(lipgloss.ThickBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	MessageStyle = lipgloss.NewStyle().
			Foreground(ColorTextSecondary).
			Italic(true)

	ErrorTextStyle = lipgloss.NewStyle().
			Foreground(ColorCritical)
)

// ConnSymbol returns the glyph and style for a connection state.
func ConnSymbol(s rbn.ConnState) (string, lipgloss.Style) {
	switch s {
	case rbn.Streaming:
		return ui.SymbolComplete, lipgloss.NewStyle().Foreground(ColorHealthy)
	case rbn.Connecting, rbn.AwaitingPrompt:
		return ui.SymbolProgress, lipgloss.NewStyle().Foreground(ColorWarning)
	default:
		return ui.SymbolPending, lipgloss.NewStyle().Foreground(ColorTextMuted)
	}
}

// DeviceSymbol returns the glyph and style for the display device.
func DeviceSymbol(path string, open bool, err error) (string, lipgloss.Style) {
	switch {
	case path == "":
		return ui.SymbolSkipped, lipgloss.NewStyle().Foreground(ColorTextMuted)
	case open && err == nil:
		return ui.SymbolComplete, lipgloss.NewStyle().Foreground(ColorHealthy)
	case open:
		return ui.SymbolProgress, lipgloss.NewStyle().Foreground(ColorWarning)
	default:
		return ui.SymbolFail, lipgloss.NewStyle().Foreground(ColorCritical)
	}
}

// levelStyle colors a log line by level.
func levelStyle(level string) lipgloss.Style {
	switch level {
	case "error":
		return lipgloss.NewStyle().Foreground(ColorCritical)
	case "warn":
		return lipgloss.NewStyle().Foreground(ColorWarning)
	default:
		return lipgloss.NewStyle().Foreground(ColorTextMuted)
	}
}
