package radio

import (
	"fmt"
	"runtime"

	"github.com/rileyhilliard/rbnvfd/internal/errors"
)

// OmniRig is the Windows OmniRig COM bridge. The COM server is not reachable
// from this build, so Connect always fails and the controller never connects.
type OmniRig struct {
	rig int
}

// Name implements Controller.
func (o *OmniRig) Name() string { return BackendOmniRig }

// Rig returns the OmniRig rig number (1 or 2).
func (o *OmniRig) Rig() int { return o.rig }

// Connect implements Controller.
func (o *OmniRig) Connect() error {
	return errors.New(errors.ErrConnection,
		fmt.Sprintf("OmniRig rig %d is not available on %s", o.rig, runtime.GOOS),
		"Use the rigctld backend instead")
}

func (o *OmniRig) Disconnect() {}

// Tune implements Controller.
func (o *OmniRig) Tune(float64, Mode) error {
	return ErrNotConnected
}

func (o *OmniRig) IsConnected() bool { return false }
