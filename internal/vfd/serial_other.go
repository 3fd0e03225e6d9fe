//go:build !linux

package vfd

import (
	"fmt"
	"runtime"
)

// OpenSerial is only implemented for Linux tty devices.
func OpenSerial(path string) (Port, error) {
	return nil, fmt.Errorf("serial display %s: not supported on %s", path, runtime.GOOS)
}
