// Package display decides what the 20x2 VFD shows on each tick.
//
// Frame is the fixed character geometry, Format lays a spot out on one row,
// and Scheduler advances a rotating cursor over the current snapshot or falls
// back to the idle animation when there is nothing to show.
package display

import (
	"fmt"
	"strings"

	"github.com/rileyhilliard/rbnvfd/internal/spot"
)

// Display geometry.
const (
	Rows = 2
	Cols = 20
)

// Frame is one full screen of printable ASCII.
type Frame [Rows][Cols]byte

// Blank returns a frame of spaces.
func Blank() Frame {
	var f Frame
	for r := range f {
		for c := range f[r] {
			f[r][c] = ' '
		}
	}
	return f
}

// Set writes ch at row r, column c. Out-of-range positions are ignored and
// non-printable characters become spaces.
func (f *Frame) Set(r, c int, ch byte) {
	if r < 0 || r >= Rows || c < 0 || c >= Cols {
		return
	}
	f[r][c] = printable(ch)
}

// SetRow writes s left-aligned into row r, padding with spaces and truncating at Cols.
func (f *Frame) SetRow(r int, s string) {
	if r < 0 || r >= Rows {
		return
	}
	for c := 0; c < Cols; c++ {
		ch := byte(' ')
		if c < len(s) {
			ch = s[c]
		}
		f[r][c] = printable(ch)
	}
}

// Row returns row r as a string.
func (f Frame) Row(r int) string {
	if r < 0 || r >= Rows {
		return ""
	}
	return string(f[r][:])
}

// IsBlank reports whether every cell is a space.
func (f Frame) IsBlank() bool {
	return f == Blank()
}

// String renders the frame as newline-separated rows.
func (f Frame) String() string {
	rows := make([]string, Rows)
	for r := range rows {
		rows[r] = f.Row(r)
	}
	return strings.Join(rows, "\n")
}

func printable(ch byte) byte {
	if ch < 0x20 || ch > 0x7e {
		return ' '
	}
	return ch
}

// Format lays out one spot on a display row:
//
//	cols 0-6   mean frequency in kHz, one decimal
//	col  7     space
//	cols 8-16  callsign, truncated to 9
//	cols 17-19 highest SNR in dB
func Format(s spot.AggregatedSpot) string {
	freq := fmt.Sprintf("%7.1f", s.FrequencyKHz)
	if len(freq) > 7 {
		// VHF and up: drop the decimal to keep the column.
		freq = fmt.Sprintf("%7.0f", s.FrequencyKHz)
	}
	if len(freq) > 7 {
		freq = freq[:7]
	}

	call := s.Call
	if len(call) > 9 {
		call = call[:9]
	}

	snr := s.HighestSNR
	if snr > 999 {
		snr = 999
	}
	if snr < -99 {
		snr = -99
	}

	return fmt.Sprintf("%s %-9s%3d", freq, call, snr)
}

// FrameOf renders up to two spots, one per row.
func FrameOf(spots ...spot.AggregatedSpot) Frame {
	f := Blank()
	for r := 0; r < Rows && r < len(spots); r++ {
		f.SetRow(r, Format(spots[r]))
	}
	return f
}
