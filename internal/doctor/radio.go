package doctor

import (
	"fmt"

	"github.com/rileyhilliard/rbnvfd/internal/errors"
	"github.com/rileyhilliard/rbnvfd/internal/radio"
)

// RadioCheck connects to the configured tuning backend and disconnects.
type RadioCheck struct {
	Options radio.Options
}

func (c *RadioCheck) Name() string     { return "radio_backend" }
func (c *RadioCheck) Category() string { return CategoryRadio }

func (c *RadioCheck) Run() CheckResult {
	rc, err := radio.New(c.Options, nil)
	if err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    errors.Summary(err),
			Suggestion: "Set 'radio.backend' to disabled, rigctld or omnirig",
		}
	}

	if rc.Name() == radio.BackendDisabled {
		return CheckResult{
			Name:    c.Name(),
			Status:  StatusPass,
			Message: "No radio backend; tuning is disabled",
		}
	}

	if err := rc.Connect(); err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    errors.Summary(err),
			Suggestion: "Check the radio is on and the backend is running",
		}
	}
	rc.Disconnect()

	msg := fmt.Sprintf("Connected to %s", rc.Name())
	if c.Options.Addr != "" && rc.Name() == radio.BackendRigctld {
		msg += " at " + c.Options.Addr
	}
	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: msg,
	}
}
