//go:build !unix

package cli

import "os"

// notifyRecover returns a channel that never fires; there is no SIGHUP here.
func notifyRecover() chan os.Signal {
	return make(chan os.Signal, 1)
}
