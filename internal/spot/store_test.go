package spot

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func raw(call string, freq float64, snr, speed int, at time.Time) RawSpot {
	return RawSpot{Spotter: "W6JSV", Call: call, FrequencyKHz: freq, SNR: snr, Speed: speed, Mode: "CW", SeenAt: at}
}

func TestCenterKHz(t *testing.T) {
	tests := []struct {
		freq float64
		want int64
	}{
		{14033.0, 14033},
		{14032.6, 14033},
		{14033.4, 14033},
		{14033.5, 14034},
		{14032.5, 14033},
		{14032.4, 14032},
		{7000.49, 7000},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CenterKHz(tt.freq), "freq %v", tt.freq)
	}
}

func TestStore_IngestCreatesRecord(t *testing.T) {
	s := NewStore()
	s.Ingest(raw("WO6W", 14033.0, 24, 28, fixedNow))

	rec, ok := s.Get(Key{Call: "WO6W", CenterKHz: 14033})
	require.True(t, ok)
	assert.Equal(t, 1, rec.Count)
	assert.Equal(t, 14033.0, rec.FrequencyKHz)
	assert.Equal(t, 28.0, rec.AverageSpeed)
	assert.Equal(t, 24, rec.HighestSNR)
	assert.Equal(t, "CW", rec.Mode)
	assert.Equal(t, fixedNow, rec.FirstSeen)
	assert.Equal(t, fixedNow, rec.LastSeen)
}

func TestStore_RunningMeanIsExactAndOrderIndependent(t *testing.T) {
	freqs := []float64{14032.6, 14033.0, 14033.4, 14032.9, 14033.1, 14032.7}
	speeds := []int{20, 28, 31, 25, 22, 30}
	snrs := []int{5, 24, 17, 33, 8, 12}

	var sumF, sumS float64
	maxSNR := 0
	for i := range freqs {
		sumF += freqs[i]
		sumS += float64(speeds[i])
		if snrs[i] > maxSNR {
			maxSNR = snrs[i]
		}
	}
	n := float64(len(freqs))

	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 5; round++ {
		perm := rng.Perm(len(freqs))
		s := NewStore()
		for i, idx := range perm {
			s.Ingest(raw("WO6W", freqs[idx], snrs[idx], speeds[idx], fixedNow.Add(time.Duration(i)*time.Second)))
		}

		require.Equal(t, 1, s.Len())
		rec, ok := s.Get(Key{Call: "WO6W", CenterKHz: 14033})
		require.True(t, ok)
		assert.Equal(t, len(freqs), rec.Count)
		assert.InDelta(t, sumF/n, rec.FrequencyKHz, 1e-9)
		assert.InDelta(t, sumS/n, rec.AverageSpeed, 1e-9)
		assert.Equal(t, maxSNR, rec.HighestSNR)
	}
}

func TestStore_CountEqualsMerges(t *testing.T) {
	s := NewStore()
	for i := 0; i < 250; i++ {
		s.Ingest(raw("K1ABC", 7025.2, i%40, 20, fixedNow))
	}
	rec, ok := s.Get(Key{Call: "K1ABC", CenterKHz: 7025})
	require.True(t, ok)
	assert.Equal(t, 250, rec.Count)
}

func TestStore_BucketBoundaries(t *testing.T) {
	t.Run("same bucket merges", func(t *testing.T) {
		s := NewStore()
		s.Ingest(raw("WO6W", 14032.6, 10, 20, fixedNow))
		s.Ingest(raw("WO6W", 14033.4, 10, 20, fixedNow))
		assert.Equal(t, 1, s.Len())
	})

	t.Run("under 1 kHz apart but different buckets", func(t *testing.T) {
		s := NewStore()
		s.Ingest(raw("WO6W", 14032.4, 10, 20, fixedNow))
		s.Ingest(raw("WO6W", 14032.6, 10, 20, fixedNow))
		assert.Equal(t, 2, s.Len())
	})

	t.Run("different calls never merge", func(t *testing.T) {
		s := NewStore()
		s.Ingest(raw("WO6W", 14033.0, 10, 20, fixedNow))
		s.Ingest(raw("N6TV", 14033.0, 10, 20, fixedNow))
		assert.Equal(t, 2, s.Len())
	})
}

func TestStore_CenterNeverRekeys(t *testing.T) {
	s := NewStore()
	// Mean drifts toward 14033.49 but the record stays in the 14033 bucket.
	s.Ingest(raw("WO6W", 14032.5, 10, 20, fixedNow))
	for i := 0; i < 10; i++ {
		s.Ingest(raw("WO6W", 14033.49, 10, 20, fixedNow))
	}
	snap := s.Snapshot(SnapshotOptions{})
	require.Len(t, snap, 1)
	assert.Equal(t, int64(14033), snap[0].CenterKHz)
}

func TestStore_LastSeenNeverMovesBackwards(t *testing.T) {
	s := NewStore()
	s.Ingest(raw("WO6W", 14033.0, 10, 20, fixedNow))
	s.Ingest(raw("WO6W", 14033.0, 10, 20, fixedNow.Add(-time.Minute)))

	rec, _ := s.Get(Key{Call: "WO6W", CenterKHz: 14033})
	assert.Equal(t, fixedNow, rec.LastSeen)
	assert.Equal(t, 2, rec.Count)
}

func TestStore_ModeAndSpotterOverwritten(t *testing.T) {
	s := NewStore()
	s.Ingest(raw("WO6W", 14080.0, 10, 45, fixedNow))
	next := raw("WO6W", 14080.2, 3, 45, fixedNow.Add(time.Second))
	next.Mode = "RTTY"
	next.Spotter = "K9LC"
	s.Ingest(next)

	rec, _ := s.Get(Key{Call: "WO6W", CenterKHz: 14080})
	assert.Equal(t, "RTTY", rec.Mode)
	assert.Equal(t, "K9LC", rec.LastSpotter)
	assert.Equal(t, 10, rec.HighestSNR)
}

func TestStore_EvictBoundary(t *testing.T) {
	maxAge := 10 * time.Minute
	t0 := fixedNow

	tests := []struct {
		name    string
		now     time.Time
		present bool
	}{
		{"just created", t0, true},
		{"one nanosecond before expiry", t0.Add(maxAge - time.Nanosecond), true},
		{"exactly at expiry", t0.Add(maxAge), false},
		{"well past expiry", t0.Add(2 * maxAge), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore()
			s.Ingest(raw("WO6W", 14033.0, 24, 28, t0))

			s.Evict(tt.now, maxAge)
			snap := s.Snapshot(SnapshotOptions{Now: tt.now})
			if tt.present {
				assert.Len(t, snap, 1)
			} else {
				assert.Empty(t, snap)
			}
		})
	}
}

func TestStore_EvictReturnsCount(t *testing.T) {
	s := NewStore()
	s.Ingest(raw("OLD1", 7010.0, 10, 20, fixedNow.Add(-time.Hour)))
	s.Ingest(raw("OLD2", 7011.0, 10, 20, fixedNow.Add(-time.Hour)))
	s.Ingest(raw("NEW", 7012.0, 10, 20, fixedNow))

	assert.Equal(t, 2, s.Evict(fixedNow, 30*time.Minute))
	assert.Equal(t, 1, s.Len())
}

func TestStore_SnapshotOrdering(t *testing.T) {
	s := NewStore()
	s.Ingest(raw("MID", 14025.0, 10, 20, fixedNow.Add(2*time.Second)))
	s.Ingest(raw("LOW", 7025.0, 10, 20, fixedNow.Add(3*time.Second)))
	s.Ingest(raw("HIGH", 21025.0, 10, 20, fixedNow.Add(1*time.Second)))

	byFreq := s.Snapshot(SnapshotOptions{Order: ByFrequency})
	require.Len(t, byFreq, 3)
	assert.Equal(t, []string{"LOW", "MID", "HIGH"}, calls(byFreq))

	byRecency := s.Snapshot(SnapshotOptions{Order: ByRecency})
	assert.Equal(t, []string{"LOW", "MID", "HIGH"}, calls(byRecency))

	s.Ingest(raw("HIGH", 21025.0, 10, 20, fixedNow.Add(10*time.Second)))
	byRecency = s.Snapshot(SnapshotOptions{Order: ByRecency})
	assert.Equal(t, []string{"HIGH", "LOW", "MID"}, calls(byRecency))
}

func TestStore_SnapshotFilters(t *testing.T) {
	s := NewStore()
	s.Ingest(raw("WEAK", 7025.0, 3, 20, fixedNow))
	s.Ingest(raw("STALE", 7030.0, 30, 20, fixedNow.Add(-20*time.Minute)))
	s.Ingest(raw("GOOD", 7035.0, 30, 20, fixedNow))

	snap := s.Snapshot(SnapshotOptions{MinSNR: 10, MaxAge: 10 * time.Minute, Now: fixedNow})
	assert.Equal(t, []string{"GOOD"}, calls(snap))
}

func TestStore_SnapshotZeroSNRFloor(t *testing.T) {
	s := NewStore()
	s.Ingest(raw("JA1ABC", 14080.0, -3, 45, fixedNow))
	s.Ingest(raw("WO6W", 14033.0, 0, 28, fixedNow))

	assert.Len(t, s.Snapshot(SnapshotOptions{}), 2, "no filter by default")

	snap := s.Snapshot(SnapshotOptions{MinSNR: 0, FilterSNR: true})
	assert.Equal(t, []string{"WO6W"}, calls(snap))
}

func TestStore_SnapshotDoesNotAlias(t *testing.T) {
	s := NewStore()
	s.Ingest(raw("WO6W", 14033.0, 24, 28, fixedNow))

	snap := s.Snapshot(SnapshotOptions{})
	require.Len(t, snap, 1)

	s.Ingest(raw("WO6W", 14033.4, 40, 20, fixedNow.Add(time.Second)))
	assert.Equal(t, 1, snap[0].Count)
	assert.Equal(t, 24, snap[0].HighestSNR)

	snap[0].Count = 99
	rec, _ := s.Get(snap[0].Key())
	assert.Equal(t, 2, rec.Count)
}

func TestStore_Clear(t *testing.T) {
	s := NewStore()
	s.Ingest(raw("WO6W", 14033.0, 24, 28, fixedNow))
	s.Clear()
	assert.Zero(t, s.Len())
}

func TestStore_Consume(t *testing.T) {
	s := NewStore()
	ch := make(chan RawSpot, 4)
	ch <- raw("WO6W", 14033.0, 24, 28, fixedNow)
	ch <- raw("WO6W", 14033.4, 31, 26, fixedNow)
	close(ch)

	s.Consume(context.Background(), ch)

	rec, ok := s.Get(Key{Call: "WO6W", CenterKHz: 14033})
	require.True(t, ok)
	assert.Equal(t, 2, rec.Count)
}

func TestStore_ConsumeStopsOnCancel(t *testing.T) {
	s := NewStore()
	ch := make(chan RawSpot)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		s.Consume(ctx, ch)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Consume did not return after cancel")
	}
}

func TestStore_ConcurrentIngestAndSnapshot(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 2000; i++ {
			s.Ingest(raw("WO6W", 14033.0, i%50, 20, fixedNow))
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			for _, rec := range s.Snapshot(SnapshotOptions{}) {
				// Every record observed must be internally consistent.
				assert.GreaterOrEqual(t, rec.Count, 1)
				assert.Equal(t, 14033.0, rec.FrequencyKHz)
			}
			s.Evict(fixedNow, time.Hour)
		}
	}()

	wg.Wait()
	rec, _ := s.Get(Key{Call: "WO6W", CenterKHz: 14033})
	assert.Equal(t, 2000, rec.Count)
}

// End to end: two telnet lines for the same transmission collapse into one record.
func TestParserIntoStore(t *testing.T) {
	p := NewParser(fixedClock, nil)
	s := NewStore()

	first := p.Feed([]byte(lineWO6W))
	require.Len(t, first, 1)
	assert.Equal(t, RawSpot{
		Spotter: "W6JSV", Call: "WO6W", FrequencyKHz: 14033.0,
		SNR: 24, Speed: 28, Mode: "CW", SeenAt: fixedNow,
	}, first[0])
	s.Ingest(first[0])

	second := p.Feed([]byte(lineWO6WHigh))
	require.Len(t, second, 1)
	s.Ingest(second[0])

	require.Equal(t, 1, s.Len())
	rec, ok := s.Get(Key{Call: "WO6W", CenterKHz: 14033})
	require.True(t, ok)
	assert.Equal(t, 2, rec.Count)
	assert.Equal(t, 31, rec.HighestSNR)
	assert.InDelta(t, 14033.2, rec.FrequencyKHz, 1e-9)
	assert.InDelta(t, 27.0, rec.AverageSpeed, 1e-9)
}

func TestParseOrder(t *testing.T) {
	o, ok := ParseOrder("recency")
	assert.True(t, ok)
	assert.Equal(t, ByRecency, o)
	assert.Equal(t, "recency", o.String())

	o, ok = ParseOrder("frequency")
	assert.True(t, ok)
	assert.Equal(t, ByFrequency, o)

	_, ok = ParseOrder("alphabetical")
	assert.False(t, ok)
}

func calls(spots []AggregatedSpot) []string {
	out := make([]string, len(spots))
	for i, s := range spots {
		out[i] = s.Call
	}
	return out
}
