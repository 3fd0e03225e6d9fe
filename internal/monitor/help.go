package monitor

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type helpSection struct {
	title string
	keys  [][2]string
}

var helpSections = []helpSection{
	{"Session", [][2]string{
		{KeyConnect, "Log in to the RBN"},
		{KeyDisconnect, "Drop the RBN session"},
		{KeyQuit + " / " + KeyQuitAlt, "Quit"},
	}},
	{"Display", [][2]string{
		{KeyReopen, "Reopen the serial port"},
		{KeyIdle, "Force the idle pattern on or off"},
	}},
	{"Spots", [][2]string{
		{"up / k, down / j", "Move the selection"},
		{KeyTune + " / " + KeyTuneAlt, "Tune the radio to the selection"},
	}},
	{"", [][2]string{
		{KeyToggleHelp + " / " + KeyCollapse, "Close this help"},
	}},
}

var (
	helpBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorAccent).
			Background(ColorSurfaceBg).
			Padding(1, 2)

	helpTitleStyle   = lipgloss.NewStyle().Foreground(ColorAccent).Bold(true)
	helpSectionStyle = lipgloss.NewStyle().Foreground(ColorTextSecondary).Underline(true)
	helpKeyStyle     = lipgloss.NewStyle().Foreground(ColorTextPrimary).Bold(true).Width(20)
	helpDescStyle    = lipgloss.NewStyle().Foreground(ColorTextSecondary)
)

func (m Model) renderHelpOverlay() string {
	var b strings.Builder
	b.WriteString(helpTitleStyle.Render("Keyboard Shortcuts"))
	b.WriteString("\n")

	for _, sec := range helpSections {
		b.WriteString("\n")
		if sec.title != "" {
			b.WriteString(helpSectionStyle.Render(sec.title) + "\n")
		}
		for _, kv := range sec.keys {
			b.WriteString(helpKeyStyle.Render(kv[0]) + helpDescStyle.Render(kv[1]) + "\n")
		}
	}

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
		helpBoxStyle.Render(strings.TrimRight(b.String(), "\n")),
		lipgloss.WithWhitespaceChars(" "))
}
