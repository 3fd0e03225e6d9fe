package vfd

import (
	"sync"

	"github.com/rileyhilliard/rbnvfd/internal/display"
)

// Preview keeps the last frame it was given, for on-screen rendering.
type Preview struct {
	mu     sync.RWMutex
	frame  display.Frame
	writes uint64
}

// NewPreview returns a preview holding a blank frame.
func NewPreview() *Preview {
	return &Preview{frame: display.Blank()}
}

// WriteFrame records f. It never fails.
func (p *Preview) WriteFrame(f display.Frame) error {
	p.mu.Lock()
	p.frame = f
	p.writes++
	p.mu.Unlock()
	return nil
}

// Frame returns the last frame written.
func (p *Preview) Frame() display.Frame {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.frame
}

// Writes returns how many frames have been written.
func (p *Preview) Writes() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.writes
}

// Multi fans a frame out to every writer and returns the first error.
// All writers receive the frame even when an earlier one fails.
type Multi []Writer

// WriteFrame implements Writer.
func (m Multi) WriteFrame(f display.Frame) error {
	var first error
	for _, w := range m {
		if w == nil {
			continue
		}
		if err := w.WriteFrame(f); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// IsOpen reports whether any writer in m that tracks a device is open.
func (m Multi) IsOpen() bool {
	for _, w := range m {
		if o, ok := w.(interface{ IsOpen() bool }); ok && o.IsOpen() {
			return true
		}
	}
	return false
}
