package display

import (
	"math/rand"
	"time"

	"github.com/rileyhilliard/rbnvfd/internal/spot"
)

// IdleProbability is the chance that an idle tick shows a character.
const IdleProbability = 0.2

// DefaultScrollInterval is used when Config.ScrollInterval is not positive.
const DefaultScrollInterval = 3 * time.Second

// Mode is what the scheduler rendered last.
type Mode int

const (
	ModeNone Mode = iota
	ModeStatic
	ModeRotating
	ModeIdle
)

// String returns a human-readable mode name.
func (m Mode) String() string {
	switch m {
	case ModeStatic:
		return "static"
	case ModeRotating:
		return "rotating"
	case ModeIdle:
		return "idle"
	default:
		return "none"
	}
}

// Config controls scheduling.
type Config struct {
	ScrollInterval time.Duration
	// ForceIdle runs the idle animation even when spots are available.
	ForceIdle bool
}

// State is carried from one Next call to the following one. The zero value
// is the initial state.
type State struct {
	Mode        Mode
	Cursor      int
	LastAdvance time.Time
	Frame       Frame
}

// Scheduler picks the next frame. It never blocks and does no I/O.
// The random source makes idle frames reproducible; a Scheduler is not safe
// for concurrent use.
type Scheduler struct {
	cfg Config
	rng *rand.Rand
}

// New creates a scheduler. A nil src seeds from the clock.
func New(cfg Config, src rand.Source) *Scheduler {
	if cfg.ScrollInterval <= 0 {
		cfg.ScrollInterval = DefaultScrollInterval
	}
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &Scheduler{cfg: cfg, rng: rand.New(src)}
}

// Config returns the effective configuration.
func (s *Scheduler) Config() Config {
	return s.cfg
}

// SetForceIdle toggles forced idle mode.
func (s *Scheduler) SetForceIdle(on bool) {
	s.cfg.ForceIdle = on
}

// Next returns the frame to show at now for the given ordered snapshot.
func (s *Scheduler) Next(now time.Time, snapshot []spot.AggregatedSpot, st State) (Frame, State) {
	if s.cfg.ForceIdle || len(snapshot) == 0 {
		return s.nextIdle(now, st)
	}
	if len(snapshot) <= Rows {
		// Everything fits: no rotation.
		next := State{Mode: ModeStatic, LastAdvance: now, Frame: FrameOf(snapshot...)}
		return next.Frame, next
	}
	return s.nextRotating(now, snapshot, st)
}

func (s *Scheduler) nextRotating(now time.Time, snapshot []spot.AggregatedSpot, st State) (Frame, State) {
	n := len(snapshot)
	next := st

	switch {
	case st.Mode != ModeRotating:
		next.Cursor = 0
		next.LastAdvance = now
	case s.due(now, st):
		next.Cursor = (st.Cursor + 1) % n
		next.LastAdvance = now
	default:
		// Same page, fresh numbers. The snapshot may have shrunk.
		next.Cursor = st.Cursor % n
	}

	next.Mode = ModeRotating
	next.Frame = FrameOf(snapshot[next.Cursor], snapshot[(next.Cursor+1)%n])
	return next.Frame, next
}

func (s *Scheduler) nextIdle(now time.Time, st State) (Frame, State) {
	if st.Mode == ModeIdle && !s.due(now, st) {
		return st.Frame, st
	}

	frame := Blank()
	if s.rng.Float64() < IdleProbability {
		r := s.rng.Intn(Rows)
		c := s.rng.Intn(Cols)
		ch := byte('!' + s.rng.Intn('~'-'!'+1))
		frame.Set(r, c, ch)
	}

	next := State{Mode: ModeIdle, LastAdvance: now, Frame: frame}
	return frame, next
}

func (s *Scheduler) due(now time.Time, st State) bool {
	return st.LastAdvance.IsZero() || now.Sub(st.LastAdvance) >= s.cfg.ScrollInterval
}
