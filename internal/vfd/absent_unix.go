//go:build unix

package vfd

import (
	"github.com/rileyhilliard/rbnvfd/internal/errors"
	"golang.org/x/sys/unix"
)

// isDeviceGone matches the errnos a tty returns after a USB adapter is unplugged.
func isDeviceGone(err error) bool {
	for _, errno := range []unix.Errno{unix.ENXIO, unix.ENODEV, unix.EIO, unix.EBADF} {
		if errors.Is(err, errno) {
			return true
		}
	}
	return false
}
