package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Sparkline block characters representing 8 vertical levels (lowest to highest).
const sparklineBlocks = "▁▂▃▄▅▆▇█"

var sparklineBlockRunes = []rune(sparklineBlocks)

// RenderSparkline draws the most recent width samples, scaled from zero to
// the window's peak.
func RenderSparkline(data []float64, width int) string {
	if len(data) == 0 || width <= 0 {
		return ""
	}

	if len(data) > width {
		data = data[len(data)-width:]
	}

	peak := 0.0
	for _, v := range data {
		if v > peak {
			peak = v
		}
	}

	var sb strings.Builder
	sb.Grow(len(data) * 3)

	top := len(sparklineBlockRunes) - 1
	for _, v := range data {
		level := 0
		if peak > 0 && v > 0 {
			level = int(v / peak * float64(top))
			if level > top {
				level = top
			}
		}
		sb.WriteRune(sparklineBlockRunes[level])
	}

	return lipgloss.NewStyle().Foreground(rateColor(data[len(data)-1], peak)).Render(sb.String())
}

// rateColor is muted when the band has gone quiet, info otherwise.
func rateColor(last, peak float64) lipgloss.Color {
	switch {
	case peak == 0 || last == 0:
		return ColorMuted
	case last >= peak*0.5:
		return ColorSuccess
	default:
		return ColorInfo
	}
}
