// Package vfd drives a 20x2 VFD character display over a serial line.
//
// Each character is preceded by a cursor-position command, so the device never
// depends on its own cursor state. After one full write only cells that changed
// are sent again; after an open or a failed write the next write is full.
package vfd

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rileyhilliard/rbnvfd/internal/display"
	"github.com/rileyhilliard/rbnvfd/internal/errors"
	"github.com/rileyhilliard/rbnvfd/internal/logger"
)

// Serial line settings: 9600 baud, 8 data bits, no parity, 1 stop bit.
const (
	BaudRate = 9600
	DataBits = 8
	StopBits = 1
)

// DefaultWriteTimeout bounds one frame write. A full frame is 360 bytes,
// well under half a second at 9600 baud.
const DefaultWriteTimeout = 2 * time.Second

// CmdPosition moves the cursor; it is followed by one byte holding row*Cols+col.
const CmdPosition byte = 0x10

// ErrAlreadyOpen is returned when opening a display that is already open.
var ErrAlreadyOpen = errors.New(errors.ErrDeviceWrite,
	"Display is already open",
	"Close it before reopening")

// Port is the byte sink behind a display.
type Port interface {
	io.Writer
	io.Closer
}

// deadliner is implemented by ports that can bound a write, such as *os.File.
type deadliner interface {
	SetWriteDeadline(t time.Time) error
}

// Opener opens the port at path.
type Opener func(path string) (Port, error)

// Writer accepts frames.
type Writer interface {
	WriteFrame(f display.Frame) error
}

// Display is a serial VFD with an explicit open/closed state. A write that
// finds the device gone closes the port; it stays closed until Open or Reopen.
type Display struct {
	mu           sync.Mutex
	ioMu         sync.Mutex // serializes writes; held without mu during I/O
	path         string
	opener       Opener
	log          logger.Logger
	writeTimeout time.Duration

	port   Port
	shown  display.Frame
	synced bool // shown matches what the device displays
}

// Option configures a Display.
type Option func(*Display)

// WithOpener replaces the serial opener, for tests or other transports.
func WithOpener(o Opener) Option {
	return func(d *Display) { d.opener = o }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(d *Display) { d.log = l }
}

// WithWriteTimeout bounds each frame write on ports that support deadlines.
// Zero or less disables the deadline.
func WithWriteTimeout(d time.Duration) Option {
	return func(disp *Display) { disp.writeTimeout = d }
}

// New creates a closed display bound to a serial device path.
func New(path string, opts ...Option) *Display {
	d := &Display{
		path:         path,
		opener:       OpenSerial,
		log:          logger.NewEnvLogger("[vfd]"),
		writeTimeout: DefaultWriteTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Path returns the device path.
func (d *Display) Path() string {
	return d.path
}

// IsOpen reports whether the port is open.
func (d *Display) IsOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.port != nil
}

// Open opens the port. It fails with ErrAlreadyOpen if the display is open.
func (d *Display) Open() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.port != nil {
		return ErrAlreadyOpen
	}
	if d.path == "" {
		return errors.New(errors.ErrNotConfigured,
			"No display port configured",
			"Set 'display.port' in config.yaml (e.g. /dev/ttyUSB0)")
	}

	port, err := d.opener(d.path)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrDeviceAbsent,
			fmt.Sprintf("Cannot open display at %s", d.path),
			"Check the cable and that you can access the serial device")
	}

	d.port = port
	d.synced = false
	d.log.Info("opened %s at %d baud", d.path, BaudRate)
	return nil
}

// Reopen opens a display that was closed or lost. It never touches an open port.
func (d *Display) Reopen() error {
	if d.IsOpen() {
		return ErrAlreadyOpen
	}
	d.log.Info("reopening %s", d.path)
	return d.Open()
}

// Close closes the port. Closing a closed display is a no-op.
func (d *Display) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closeLocked()
}

func (d *Display) closeLocked() error {
	if d.port == nil {
		return nil
	}
	err := d.port.Close()
	d.port = nil
	d.synced = false
	return err
}

// WriteFrame sends the cells of f that differ from what the device shows.
// The state lock is not held during the write, so IsOpen and Close never
// wait on the device; a port with deadlines gives up after the write timeout.
func (d *Display) WriteFrame(f display.Frame) error {
	d.ioMu.Lock()
	defer d.ioMu.Unlock()

	d.mu.Lock()
	port := d.port
	if port == nil {
		d.mu.Unlock()
		return errors.New(errors.ErrDeviceAbsent,
			"Display is not open",
			"Reopen the display once it is connected")
	}
	buf := d.encode(f)
	d.mu.Unlock()

	if len(buf) == 0 {
		return nil
	}

	err := d.writePort(port, buf)

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.port != port {
		// Closed or reopened while writing; the new port starts unsynced.
		if err == nil {
			return nil
		}
		return errors.WrapWithCode(err, errors.ErrDeviceAbsent,
			"Display closed during write",
			"Reopen the display once it is connected")
	}

	if err != nil {
		d.synced = false
		if isAbsent(err) {
			_ = d.closeLocked()
			d.log.Warn("display at %s disappeared: %v", d.path, err)
			return errors.WrapWithCode(err, errors.ErrDeviceAbsent,
				"Display disconnected",
				"Reconnect the display and reopen it")
		}
		return errors.WrapWithCode(err, errors.ErrDeviceWrite,
			"Display write failed",
			"The frame will be resent on the next tick")
	}

	d.shown = f
	d.synced = true
	return nil
}

func (d *Display) writePort(port Port, buf []byte) error {
	if dl, ok := port.(deadliner); ok && d.writeTimeout > 0 {
		if err := dl.SetWriteDeadline(time.Now().Add(d.writeTimeout)); err == nil {
			defer func() { _ = dl.SetWriteDeadline(time.Time{}) }()
		}
	}
	_, err := port.Write(buf)
	return err
}

// encode emits position+character triples for every cell that needs sending.
func (d *Display) encode(f display.Frame) []byte {
	buf := make([]byte, 0, display.Rows*display.Cols*2)
	for r := 0; r < display.Rows; r++ {
		for c := 0; c < display.Cols; c++ {
			if d.synced && d.shown[r][c] == f[r][c] {
				continue
			}
			buf = append(buf, CmdPosition, byte(r*display.Cols+c), f[r][c])
		}
	}
	return buf
}

// isAbsent reports whether a write error means the device is gone rather
// than a transient failure.
func isAbsent(err error) bool {
	if errors.Is(err, os.ErrClosed) {
		return true
	}
	return isDeviceGone(err)
}
