package lock

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// LockInfo is the owner record written to info.json.
type LockInfo struct {
	User     string    `json:"user"`
	Hostname string    `json:"hostname"`
	Started  time.Time `json:"started"`
	PID      int       `json:"pid"`
	Device   string    `json:"device"`
}

// NewLockInfo describes this process as the holder of device.
func NewLockInfo(device string) *LockInfo {
	info := &LockInfo{
		User:     os.Getenv("USER"),
		Started:  time.Now(),
		PID:      os.Getpid(),
		Device:   device,
		Hostname: "unknown",
	}
	if h, err := os.Hostname(); err == nil {
		info.Hostname = h
	}
	if info.User == "" {
		info.User = "unknown"
	}
	return info
}

// Age is how long the lock has been held.
func (i *LockInfo) Age() time.Duration { return time.Since(i.Started) }

func (i *LockInfo) Marshal() ([]byte, error) { return json.Marshal(i) }

// ParseLockInfo decodes an info.json payload.
func ParseLockInfo(data []byte) (*LockInfo, error) {
	info := new(LockInfo)
	if err := json.Unmarshal(data, info); err != nil {
		return nil, err
	}
	return info, nil
}

// String names the holder as user@host (pid N).
func (i *LockInfo) String() string {
	return fmt.Sprintf("%s@%s (pid %d)", i.User, i.Hostname, i.PID)
}
