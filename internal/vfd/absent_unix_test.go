//go:build unix

package vfd

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/sys/unix"
)

func TestDisplay_UnpluggedErrno(t *testing.T) {
	for _, errno := range []unix.Errno{unix.ENXIO, unix.ENODEV, unix.EIO} {
		t.Run(errno.Error(), func(t *testing.T) {
			assertUnplugged(t, &os.PathError{Op: "write", Path: "/dev/ttyTEST", Err: errno})
		})
	}
}

func TestIsDeviceGone(t *testing.T) {
	assert.True(t, isDeviceGone(unix.EBADF))
	assert.False(t, isDeviceGone(unix.EAGAIN))
	assert.False(t, isDeviceGone(nil))
}
