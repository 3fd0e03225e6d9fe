// Package pipeline runs the periodic half of the spot pipeline: it ingests
// events into the store, evicts stale records, and renders the display.
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/rileyhilliard/rbnvfd/internal/display"
	"github.com/rileyhilliard/rbnvfd/internal/errors"
	"github.com/rileyhilliard/rbnvfd/internal/logger"
	"github.com/rileyhilliard/rbnvfd/internal/metrics"
	"github.com/rileyhilliard/rbnvfd/internal/spot"
	"github.com/rileyhilliard/rbnvfd/internal/vfd"
)

// Defaults for Options.
const (
	DefaultMaxAge          = 10 * time.Minute
	DefaultRefreshInterval = 250 * time.Millisecond
	DefaultPurgeInterval   = 5 * time.Second
)

// Options configures a Driver.
type Options struct {
	MaxAge          time.Duration
	MinSNR          int
	Order           spot.Order
	RefreshInterval time.Duration // display tick
	PurgeInterval   time.Duration // eviction tick
	Now             func() time.Time
}

func (o Options) withDefaults() Options {
	if o.MaxAge <= 0 {
		o.MaxAge = DefaultMaxAge
	}
	if o.RefreshInterval <= 0 {
		o.RefreshInterval = DefaultRefreshInterval
	}
	if o.PurgeInterval <= 0 {
		o.PurgeInterval = DefaultPurgeInterval
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// TickResult describes one display tick.
type TickResult struct {
	Spots int
	Mode  display.Mode
	Frame display.Frame
	Wrote bool
	Err   error
}

type opener interface {
	IsOpen() bool
}

// Driver owns the scheduler state and pushes frames to a writer. Tick and
// Purge may be called directly; Run calls them on tickers.
type Driver struct {
	store  *spot.Store
	sched  *display.Scheduler
	writer vfd.Writer
	opts   Options
	log    logger.Logger

	writeMu sync.Mutex // serializes ticks; held across the device write

	mu       sync.Mutex // guards the fields below; never held during I/O
	state    display.State
	shown    display.Frame
	synced   bool   // shown was written successfully
	resyncs  uint64 // bumped by Resync so an in-flight write cannot clear it
	lastErr  error
	lastCode string
}

// New creates a driver.
func New(store *spot.Store, sched *display.Scheduler, writer vfd.Writer, opts Options, log logger.Logger) *Driver {
	if log == nil {
		log = logger.Noop()
	}
	return &Driver{
		store:  store,
		sched:  sched,
		writer: writer,
		opts:   opts.withDefaults(),
		log:    log,
	}
}

// Options returns the effective options.
func (d *Driver) Options() Options {
	return d.opts
}

// Run ingests from events and ticks until ctx is done.
func (d *Driver) Run(ctx context.Context, events <-chan spot.RawSpot) {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		d.store.Consume(ctx, events)
	}()

	refresh := time.NewTicker(d.opts.RefreshInterval)
	purge := time.NewTicker(d.opts.PurgeInterval)
	defer func() {
		refresh.Stop()
		purge.Stop()
		wg.Wait()
	}()

	d.Tick()
	for {
		select {
		case <-ctx.Done():
			return
		case <-purge.C:
			d.Purge()
		case <-refresh.C:
			d.Tick()
		}
	}
}

// Purge evicts records older than MaxAge and returns how many were removed.
func (d *Driver) Purge() int {
	n := d.store.Evict(d.opts.Now(), d.opts.MaxAge)
	if n > 0 {
		d.log.Debug("evicted %d stale spots", n)
	}
	metrics.UpdateStore(d.store.Len(), n)
	return n
}

// Visible returns the spots the display is drawing from.
func (d *Driver) Visible() []spot.AggregatedSpot {
	return d.store.Snapshot(d.snapshotOptions(d.opts.Now()))
}

func (d *Driver) snapshotOptions(now time.Time) spot.SnapshotOptions {
	return spot.SnapshotOptions{
		Order:     d.opts.Order,
		MinSNR:    d.opts.MinSNR,
		FilterSNR: true,
		MaxAge:    d.opts.MaxAge,
		Now:       now,
	}
}

// Tick renders one frame and writes it when it differs from the last
// successful write, or when the last write failed. The state lock is
// released while the writer runs, so State, LastError and SetForceIdle
// never wait on the device.
func (d *Driver) Tick() TickResult {
	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	start := time.Now()
	now := d.opts.Now()
	snap := d.store.Snapshot(d.snapshotOptions(now))

	d.mu.Lock()
	frame, st := d.sched.Next(now, snap, d.state)
	d.state = st
	needWrite := !d.synced || frame != d.shown
	gen := d.resyncs
	d.mu.Unlock()

	res := TickResult{Spots: len(snap), Mode: st.Mode, Frame: frame}
	if needWrite {
		err := d.writer.WriteFrame(frame)
		res.Wrote = true
		res.Err = err

		d.mu.Lock()
		d.record(frame, err, gen)
		d.mu.Unlock()
	}

	if o, ok := d.writer.(opener); ok {
		metrics.SetDeviceOpen(o.IsOpen())
	}
	metrics.RecordTick(st.Mode.String(), time.Since(start).Seconds())
	return res
}

// record updates write bookkeeping. Errors are logged when their code changes
// so a missing display does not flood the log every tick.
// A Resync that landed during the write keeps the next tick full.
// Callers hold d.mu.
func (d *Driver) record(frame display.Frame, err error, gen uint64) {
	code := errors.CodeOf(err)
	if err != nil && code == "" {
		code = errors.ErrDeviceWrite
	}
	metrics.RecordFrameWrite(code)

	if err == nil {
		d.shown = frame
		d.synced = gen == d.resyncs
		if d.lastErr != nil {
			d.log.Info("display writes recovered")
		}
		d.lastErr = nil
		d.lastCode = ""
		return
	}

	d.synced = false
	if code != d.lastCode {
		d.log.Warn("display write failed: %s", errors.Summary(err))
	}
	d.lastErr = err
	d.lastCode = code
}

// State returns the scheduler state after the last tick.
func (d *Driver) State() display.State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// LastError returns the last write error, or nil if the last write succeeded.
func (d *Driver) LastError() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastErr
}

// SetForceIdle toggles the idle pattern regardless of spots.
func (d *Driver) SetForceIdle(on bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sched.SetForceIdle(on)
}

// ForceIdle reports whether the idle pattern is forced.
func (d *Driver) ForceIdle() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sched.Config().ForceIdle
}

// Resync forces the next tick to write even if the frame is unchanged.
func (d *Driver) Resync() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.synced = false
	d.resyncs++
}
