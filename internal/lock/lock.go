// Package lock keeps two rbnvfd processes from driving the same display.
//
// A lock is a directory created with mkdir, which is atomic, holding an
// info.json that names the owner. A lock whose owner process is gone on
// this host is stale and is taken over.
package lock

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rileyhilliard/rbnvfd/internal/errors"
)

// Lock is an acquired device lock.
type Lock struct {
	Dir  string    // The lock directory
	Info *LockInfo // Info about the lock holder (us)
}

// DirFor returns the lock directory for device under baseDir. An empty
// baseDir uses the system temp directory.
func DirFor(baseDir, device string) string {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	h := sha256.Sum256([]byte(device))
	return filepath.Join(baseDir, fmt.Sprintf("rbnvfd-%x.lock", h[:8]))
}

// Acquire takes the lock for device without waiting. It fails with an
// error wrapping ErrLocked when another live process holds it.
func Acquire(baseDir, device string) (*Lock, error) {
	dir := DirFor(baseDir, device)
	infoFile := filepath.Join(dir, "info.json")
	info := NewLockInfo(device)

	for attempt := 0; attempt < 2; attempt++ {
		err := os.Mkdir(dir, 0755)
		if err == nil {
			data, err := info.Marshal()
			if err == nil {
				err = os.WriteFile(infoFile, data, 0644)
			}
			if err != nil {
				_ = os.RemoveAll(dir)
				return nil, errors.WrapWithCode(err, errors.ErrLock,
					"Failed to write lock info file",
					"Check disk space and permissions on "+filepath.Dir(dir))
			}
			return &Lock{Dir: dir, Info: info}, nil
		}
		if !os.IsExist(err) {
			return nil, errors.WrapWithCode(err, errors.ErrLock,
				"Failed to create lock directory "+dir,
				"Check permissions on "+filepath.Dir(dir))
		}

		if !isStale(infoFile) {
			break
		}
		if err := os.RemoveAll(dir); err != nil {
			break
		}
	}

	return nil, errors.WrapWithCode(ErrLocked, errors.ErrLock,
		fmt.Sprintf("%s is in use by %s", device, Holder(dir)),
		"Stop the other rbnvfd, or run with --no-device")
}

// Release removes the lock. Releasing a nil lock is a no-op.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}
	if err := os.RemoveAll(l.Dir); err != nil {
		return errors.WrapWithCode(err, errors.ErrLock,
			fmt.Sprintf("Failed to remove lock directory: %s", l.Dir),
			"Remove it by hand")
	}
	return nil
}

// Holder describes who holds the lock in dir.
func Holder(dir string) string {
	data, err := os.ReadFile(filepath.Join(dir, "info.json"))
	if err != nil {
		return "unknown"
	}
	info, err := ParseLockInfo(data)
	if err != nil {
		return "unknown"
	}
	return info.String()
}

// infoGrace is how long a lock directory may exist without its info file
// before it counts as abandoned.
const infoGrace = 5 * time.Second

// isStale reports whether the lock's owner is a dead process on this host.
// A garbled info file is stale; a lock from another host never is.
func isStale(infoFile string) bool {
	data, err := os.ReadFile(infoFile)
	if os.IsNotExist(err) {
		st, statErr := os.Stat(filepath.Dir(infoFile))
		return statErr == nil && time.Since(st.ModTime()) > infoGrace
	}
	if err != nil {
		return false
	}
	info, err := ParseLockInfo(data)
	if err != nil {
		return true
	}
	hostname, _ := os.Hostname()
	if info.Hostname != hostname {
		return false
	}
	return !processAlive(info.PID)
}
