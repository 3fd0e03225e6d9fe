//go:build !unix

package vfd

func isDeviceGone(error) bool {
	return false
}
