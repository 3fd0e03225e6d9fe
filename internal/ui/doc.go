// Package ui provides terminal output helpers for rbnvfd's CLI.
//
// It holds the shared lipgloss palette and status symbols, a line spinner for
// blocking operations like tuning the radio, sparklines for spot rates, and
// the spot table used by both the monitor and one-shot commands.
//
// # Color
//
// ConfigureColor applies the output.color setting ("auto", "always",
// "never"). DisableColors forces termenv's ASCII profile for --no-color.
//
// # Spinner
//
//	s := ui.NewSpinner("Tuning 14033.2 kHz", os.Stdout)
//	s.Start()
//	// ... do work ...
//	s.Success() // or s.Fail() or s.Skip()
package ui
