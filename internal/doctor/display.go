package doctor

import (
	"fmt"
	"os"

	"github.com/rileyhilliard/rbnvfd/internal/errors"
	"github.com/rileyhilliard/rbnvfd/internal/lock"
)

// DisplayPortCheck verifies the VFD's serial device exists and is writable.
// It does not open the port.
type DisplayPortCheck struct {
	Path string
}

func (c *DisplayPortCheck) Name() string     { return "display_port" }
func (c *DisplayPortCheck) Category() string { return CategoryDisplay }

func (c *DisplayPortCheck) Run() CheckResult {
	if c.Path == "" {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusWarn,
			Message:    "No display port configured; frames only go to the preview",
			Suggestion: "Run 'rbnvfd config set display.port /dev/ttyUSB0'",
		}
	}

	info, err := os.Stat(c.Path)
	if err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    fmt.Sprintf("%s not found", c.Path),
			Suggestion: "Plug in the display or fix 'display.port'",
		}
	}

	if info.Mode()&os.ModeCharDevice == 0 {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusWarn,
			Message:    fmt.Sprintf("%s is not a serial device", c.Path),
			Suggestion: "Point 'display.port' at the adapter's tty, e.g. /dev/ttyUSB0",
		}
	}

	if err := writable(c.Path); err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    fmt.Sprintf("%s is not writable: %v", c.Path, err),
			Suggestion: "Add your user to the group that owns the device (often dialout)",
		}
	}

	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: fmt.Sprintf("Display port %s", c.Path),
	}
}

// DisplayLockCheck reports whether another rbnvfd holds the display.
type DisplayLockCheck struct {
	Path    string
	LockDir string // empty uses the system temp directory
}

func (c *DisplayLockCheck) Name() string     { return "display_lock" }
func (c *DisplayLockCheck) Category() string { return CategoryDisplay }

func (c *DisplayLockCheck) Run() CheckResult {
	l, err := lock.Acquire(c.LockDir, c.Path)
	if err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusWarn,
			Message:    errors.Summary(err),
			Suggestion: "Stop the other rbnvfd before starting a new one",
		}
	}
	_ = l.Release()
	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: fmt.Sprintf("No other rbnvfd is using %s", c.Path),
	}
}
