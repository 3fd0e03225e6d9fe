package monitor

import "time"

// DefaultHistorySize is the number of rate samples kept for the sparkline.
const DefaultHistorySize = 120

// RateHistory turns a monotonically increasing counter into per-minute
// rates, one sample per Push.
type RateHistory struct {
	buf      *ringBuffer
	last     int64
	lastTime time.Time
}

// NewRateHistory creates a history holding size samples.
func NewRateHistory(size int) *RateHistory {
	if size < 1 {
		size = 1
	}
	return &RateHistory{buf: newRingBuffer(size)}
}

// Push records the counter value at t. The first push only sets the baseline.
// A counter that went backwards is treated as a fresh baseline.
func (h *RateHistory) Push(total int64, t time.Time) {
	if h.lastTime.IsZero() || total < h.last || !t.After(h.lastTime) {
		h.last, h.lastTime = total, t
		return
	}
	perMinute := float64(total-h.last) / t.Sub(h.lastTime).Minutes()
	h.buf.push(perMinute)
	h.last, h.lastTime = total, t
}

// Last returns up to n samples, oldest first.
func (h *RateHistory) Last(n int) []float64 {
	return h.buf.getLast(n)
}

// Current returns the most recent rate, or 0 with no samples.
func (h *RateHistory) Current() float64 {
	last := h.buf.getLast(1)
	if len(last) == 0 {
		return 0
	}
	return last[0]
}

// Len returns the number of samples stored.
func (h *RateHistory) Len() int {
	return h.buf.count
}

type ringBuffer struct {
	data  []float64
	head  int
	count int
	size  int
}

func newRingBuffer(size int) *ringBuffer {
	return &ringBuffer{
		data: make([]float64, size),
		size: size,
	}
}

func (r *ringBuffer) push(value float64) {
	r.data[r.head] = value
	r.head = (r.head + 1) % r.size
	if r.count < r.size {
		r.count++
	}
}

// getLast returns the last count values in chronological order (oldest first).
func (r *ringBuffer) getLast(count int) []float64 {
	if count <= 0 || r.count == 0 {
		return nil
	}

	if count > r.count {
		count = r.count
	}

	result := make([]float64, count)

	// head points to the next write position, so the most recent value is at head-1
	start := (r.head - count + r.size) % r.size

	for i := 0; i < count; i++ {
		result[i] = r.data[(start+i)%r.size]
	}

	return result
}
