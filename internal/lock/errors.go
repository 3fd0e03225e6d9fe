package lock

import "errors"

// ErrLocked means a live process already drives the display.
var ErrLocked = errors.New("display is locked by another process")
