package ui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderSparkline_Empty(t *testing.T) {
	assert.Empty(t, RenderSparkline(nil, 10))
	assert.Empty(t, RenderSparkline([]float64{}, 10))
	assert.Empty(t, RenderSparkline([]float64{1, 2, 3}, 0))
	assert.Empty(t, RenderSparkline([]float64{1, 2, 3}, -5))
}

func TestRenderSparkline_ScalesFromZero(t *testing.T) {
	result := stripANSI(RenderSparkline([]float64{0, 7, 14}, 10))
	assert.Equal(t, "▁▄█", result)
}

func TestRenderSparkline_QuietBand(t *testing.T) {
	result := stripANSI(RenderSparkline([]float64{0, 0, 0, 0}, 10))
	assert.Equal(t, "▁▁▁▁", result, "no activity stays on the floor")
}

func TestRenderSparkline_FlatNonZero(t *testing.T) {
	result := stripANSI(RenderSparkline([]float64{5, 5, 5}, 10))
	assert.Equal(t, "███", result)
}

func TestRenderSparkline_WidthTruncation(t *testing.T) {
	data := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	result := stripANSI(RenderSparkline(data, 4))
	assert.Len(t, []rune(result), 4, "keeps only the most recent samples")
}

func TestRateColor(t *testing.T) {
	assert.Equal(t, ColorMuted, rateColor(0, 0))
	assert.Equal(t, ColorMuted, rateColor(0, 10))
	assert.Equal(t, ColorSuccess, rateColor(8, 10))
	assert.Equal(t, ColorInfo, rateColor(2, 10))
}

func stripANSI(s string) string {
	var result strings.Builder
	inEscape := false
	for _, r := range s {
		if r == '\033' {
			inEscape = true
			continue
		}
		if inEscape {
			if r == 'm' {
				inEscape = false
			}
			continue
		}
		result.WriteRune(r)
	}
	return result.String()
}
