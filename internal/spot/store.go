package spot

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Order selects how Snapshot sorts its result.
type Order int

const (
	// ByFrequency sorts ascending by mean frequency.
	ByFrequency Order = iota
	// ByRecency sorts most recently seen first.
	ByRecency
)

// String returns the config spelling of the order.
func (o Order) String() string {
	switch o {
	case ByRecency:
		return "recency"
	default:
		return "frequency"
	}
}

// ParseOrder maps a config value to an Order. Unknown values fall back to ByFrequency.
func ParseOrder(s string) (Order, bool) {
	switch s {
	case "frequency", "freq", "":
		return ByFrequency, true
	case "recency", "recent":
		return ByRecency, true
	default:
		return ByFrequency, false
	}
}

// SnapshotOptions controls Snapshot ordering and filtering.
type SnapshotOptions struct {
	Order Order
	// MinSNR hides records whose highest SNR is below it. It applies when
	// FilterSNR is set or MinSNR is nonzero, so a zero floor can still hide
	// negative reports.
	MinSNR    int
	FilterSNR bool
	// MaxAge hides records last seen MaxAge or more before Now. Zero disables the filter.
	MaxAge time.Duration
	Now    time.Time
}

// Store aggregates RawSpots per Key. All mutation goes through one lock and
// Snapshot hands out copies, so callers never see a half-merged record.
type Store struct {
	mu    sync.RWMutex
	spots map[Key]*AggregatedSpot
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{spots: make(map[Key]*AggregatedSpot)}
}

// Ingest creates the record for the spot's key or merges into the existing one.
func (s *Store) Ingest(raw RawSpot) {
	key := KeyOf(raw)

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.spots[key]; ok {
		existing.merge(raw)
		return
	}
	s.spots[key] = newAggregated(raw)
}

// Evict removes every record whose last observation is maxAge or more before
// now and returns how many were removed.
func (s *Store) Evict(now time.Time, maxAge time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, rec := range s.spots {
		if now.Sub(rec.LastSeen) >= maxAge {
			delete(s.spots, key)
			removed++
		}
	}
	return removed
}

// Snapshot returns an ordered copy of the current records.
func (s *Store) Snapshot(opts SnapshotOptions) []AggregatedSpot {
	s.mu.RLock()
	out := make([]AggregatedSpot, 0, len(s.spots))
	for _, rec := range s.spots {
		if (opts.FilterSNR || opts.MinSNR != 0) && rec.HighestSNR < opts.MinSNR {
			continue
		}
		if opts.MaxAge > 0 && opts.Now.Sub(rec.LastSeen) >= opts.MaxAge {
			continue
		}
		out = append(out, *rec)
	}
	s.mu.RUnlock()

	sortSpots(out, opts.Order)
	return out
}

// Get returns a copy of the record for key.
func (s *Store) Get(key Key) (AggregatedSpot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.spots[key]
	if !ok {
		return AggregatedSpot{}, false
	}
	return *rec, true
}

// Len returns the number of live records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.spots)
}

// Clear drops every record.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spots = make(map[Key]*AggregatedSpot)
}

// Consume ingests spots from ch until it is closed or ctx is done.
func (s *Store) Consume(ctx context.Context, ch <-chan RawSpot) {
	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-ch:
			if !ok {
				return
			}
			s.Ingest(raw)
		}
	}
}

func sortSpots(spots []AggregatedSpot, order Order) {
	switch order {
	case ByRecency:
		sort.Slice(spots, func(i, j int) bool {
			if !spots[i].LastSeen.Equal(spots[j].LastSeen) {
				return spots[i].LastSeen.After(spots[j].LastSeen)
			}
			return lessByKey(spots[i], spots[j])
		})
	default:
		sort.Slice(spots, func(i, j int) bool {
			if spots[i].FrequencyKHz != spots[j].FrequencyKHz {
				return spots[i].FrequencyKHz < spots[j].FrequencyKHz
			}
			return lessByKey(spots[i], spots[j])
		})
	}
}

func lessByKey(a, b AggregatedSpot) bool {
	if a.Call != b.Call {
		return a.Call < b.Call
	}
	return a.CenterKHz < b.CenterKHz
}
