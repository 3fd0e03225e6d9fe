package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/rbnvfd/internal/spot"
)

// TableColumn defines a table column with name and width.
type TableColumn struct {
	Title string
	Width int
}

// SpotColumns are the columns of the live spot table.
var SpotColumns = []TableColumn{
	{Title: "kHz", Width: 9},
	{Title: "Call", Width: 10},
	{Title: "Mode", Width: 5},
	{Title: "SNR", Width: 4},
	{Title: "WPM", Width: 4},
	{Title: "#", Width: 4},
	{Title: "Spotter", Width: 10},
	{Title: "Age", Width: 6},
}

// SpotRow formats one aggregated spot for SpotColumns.
func SpotRow(s spot.AggregatedSpot, now time.Time) table.Row {
	return table.Row{
		fmt.Sprintf("%.1f", s.FrequencyKHz),
		s.Call,
		s.Mode,
		fmt.Sprintf("%d", s.HighestSNR),
		fmt.Sprintf("%.0f", s.AverageSpeed),
		fmt.Sprintf("%d", s.Count),
		s.LastSpotter,
		FormatAge(s.Age(now)),
	}
}

// SpotRows formats a snapshot for SpotColumns.
func SpotRows(spots []spot.AggregatedSpot, now time.Time) []table.Row {
	rows := make([]table.Row, len(spots))
	for i, s := range spots {
		rows[i] = SpotRow(s, now)
	}
	return rows
}

// FormatAge renders an age compactly: 42s, 3m05s, 1h02m.
func FormatAge(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Truncate(time.Second)
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
	}
}

// NewTable creates a new Bubbles table with default styling.
func NewTable(columns []TableColumn, rows []table.Row, height int) table.Model {
	cols := make([]table.Column, len(columns))
	for i, c := range columns {
		cols[i] = table.Column{
			Title: c.Title,
			Width: c.Width,
		}
	}

	t := table.New(
		table.WithColumns(cols),
		table.WithRows(rows),
		table.WithHeight(height),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ColorMuted).
		BorderBottom(true).
		Bold(true).
		Foreground(ColorPrimary)
	s.Cell = s.Cell.
		Foreground(ColorPrimary)
	s.Selected = s.Selected.
		Foreground(ColorPrimary).
		Background(ColorSecondary).
		Bold(false)

	t.SetStyles(s)
	return t
}

// RenderSpotTable renders a non-interactive spot table for plain CLI output.
func RenderSpotTable(spots []spot.AggregatedSpot, now time.Time) string {
	if len(spots) == 0 {
		return MutedStyle().Render("No spots")
	}

	var b strings.Builder
	header := make([]string, len(SpotColumns))
	for i, c := range SpotColumns {
		header[i] = padRight(c.Title, c.Width)
	}
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(strings.TrimRight(strings.Join(header, " "), " ")))
	b.WriteString("\n")

	for _, s := range spots {
		row := SpotRow(s, now)
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = padRight(cell, SpotColumns[i].Width)
		}
		b.WriteString(strings.TrimRight(strings.Join(cells, " "), " "))
		b.WriteString("\n")
	}
	return b.String()
}

// padRight pads a string to the specified visible width.
func padRight(s string, width int) string {
	visibleLen := lipgloss.Width(s)
	if visibleLen >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visibleLen)
}
