package monitor

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/rbnvfd/internal/display"
	"github.com/rileyhilliard/rbnvfd/internal/ui"
)

// renderDashboard renders the complete dashboard view.
func (m Model) renderDashboard() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, m.renderVFD(), " ", m.renderStatus()))
	b.WriteString("\n")

	if len(m.snap.Spots) == 0 {
		b.WriteString(LabelStyle.Render("  No spots yet"))
	} else {
		b.WriteString(m.table.View())
	}
	b.WriteString("\n")

	b.WriteString(m.renderMessage())
	b.WriteString("\n")
	b.WriteString(m.renderLogs())
	b.WriteString(m.renderFooter())

	return b.String()
}

// renderHeader renders the title bar with connection state and spot rate.
func (m Model) renderHeader() string {
	sym, symStyle := ConnSymbol(m.snap.Conn.State)

	title := lipgloss.NewStyle().
		Foreground(ColorAccent).
		Bold(true).
		Render("rbnvfd")

	call := m.snap.Callsign
	if call == "" {
		call = "no callsign"
	}

	stats := LabelStyle.Render(fmt.Sprintf(" | %s | ", call)) +
		symStyle.Render(sym) + " " +
		ValueStyle.Render(m.snap.Conn.State.String()) +
		LabelStyle.Render(fmt.Sprintf(" | %d stations | %.0f spots/min ", len(m.snap.Spots), m.rates.Current()))

	return HeaderStyle.Render(title+stats) + " " + ui.RenderSparkline(m.rates.Last(30), 30)
}

// renderVFD draws the 20x2 preview the way the glass shows it.
func (m Model) renderVFD() string {
	f := m.snap.Frame
	if f == (display.Frame{}) {
		f = display.Blank()
	}
	return VFDStyle.Render(f.String())
}

// renderStatus summarizes device, radio and session counters.
func (m Model) renderStatus() string {
	devSym, devStyle := DeviceSymbol(m.snap.DevicePath, m.snap.DeviceOpen, m.snap.DeviceErr)
	dev := m.snap.DevicePath
	if dev == "" {
		dev = "no display port"
	}

	mode := m.snap.Mode.String()
	if m.snap.ForceIdle {
		mode += " (forced)"
	}

	radioSym := ui.SymbolSkipped
	if m.snap.RadioConnected {
		radioSym = ui.SymbolComplete
	}

	lines := []string{
		devStyle.Render(devSym) + " " + ValueStyle.Render(dev) + LabelStyle.Render("  "+mode),
		LabelStyle.Render(radioSym+" radio ") + ValueStyle.Render(m.snap.Radio),
		LabelStyle.Render(fmt.Sprintf("%d spots  %d dropped  %d malformed  %d connects",
			m.snap.Stats.Spots, m.snap.Stats.Dropped, m.snap.Stats.Parser.Malformed, m.snap.Stats.Connects)),
	}
	if err := m.snap.DeviceErr; err != nil {
		lines = append(lines, ErrorTextStyle.Render(firstLine(err.Error())))
	} else if err := m.snap.Conn.LastError; err != nil {
		lines = append(lines, ErrorTextStyle.Render(firstLine(err.Error())))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderMessage() string {
	if m.message == "" {
		return ""
	}
	if m.messageErr {
		return ErrorTextStyle.Render(m.message)
	}
	return MessageStyle.Render(m.message)
}

// renderLogs shows the most recent warnings and info lines.
func (m Model) renderLogs() string {
	if m.logs == nil {
		return ""
	}
	msgs := m.logs()
	if len(msgs) > logLines {
		msgs = msgs[len(msgs)-logLines:]
	}
	var b strings.Builder
	for _, msg := range msgs {
		b.WriteString(levelStyle(msg.Level).Render(strings.TrimSpace(msg.Message)))
		b.WriteString("\n")
	}
	return b.String()
}

// renderFooter renders the keyboard help footer.
func (m Model) renderFooter() string {
	hints := []string{
		"q quit",
		"c connect",
		"d disconnect",
		"r reopen display",
		"i idle",
		"t tune",
		"? help",
	}

	return FooterStyle.Render(strings.Join(hints, " | "))
}
