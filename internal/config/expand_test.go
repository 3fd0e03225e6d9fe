package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty string", "", ""},
		{"bare tilde", "~", home},
		{"tilde path", "~/.config/rbnvfd/config.yaml", filepath.Join(home, ".config/rbnvfd/config.yaml")},
		{"absolute path unchanged", "/dev/ttyUSB0", "/dev/ttyUSB0"},
		{"other user unchanged", "~bob/x", "~bob/x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExpandTilde(tt.input))
		})
	}
}

func TestExpand(t *testing.T) {
	t.Setenv("USER", "w6jsv")
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty string", "", ""},
		{"home variable", "${HOME}/vfd", home + "/vfd"},
		{"user variable", "/run/${USER}/vfd", "/run/w6jsv/vfd"},
		{"tilde", "~/vfd", filepath.Join(home, "vfd")},
		{"device path unchanged", "/dev/serial/by-id/usb-FTDI", "/dev/serial/by-id/usb-FTDI"},
		{"unknown variable kept", "/dev/${PORT}", "/dev/${PORT}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Expand(tt.input))
		})
	}
}

func TestUserName_Fallbacks(t *testing.T) {
	t.Setenv("USER", "")
	t.Setenv("LOGNAME", "logname-user")
	assert.Equal(t, "logname-user", userName())

	t.Setenv("LOGNAME", "")
	t.Setenv("USERNAME", "")
	assert.Equal(t, "user", userName())
}
