// Package spot holds the RBN spot data model, the telnet line parser, and the
// aggregating store that merges repeated reports of the same transmission.
package spot

import (
	"math"
	"time"
)

// RawSpot is one observation read off the wire.
type RawSpot struct {
	Spotter      string    // Reporting skimmer callsign
	Call         string    // Spotted station callsign
	FrequencyKHz float64   // Reported frequency in kHz
	SNR          int       // Signal-to-noise ratio in dB
	Speed        int       // Keying speed in WPM
	Mode         string    // Mode tag as reported (CW, RTTY, FT8, ...)
	SeenAt       time.Time // When the line was parsed
}

// Key identifies one logical transmission: a callsign on an integer-kHz bucket.
type Key struct {
	Call      string
	CenterKHz int64
}

// KeyOf returns the aggregation key for a raw spot.
func KeyOf(s RawSpot) Key {
	return Key{Call: s.Call, CenterKHz: CenterKHz(s.FrequencyKHz)}
}

// CenterKHz buckets a frequency to the nearest integer kHz, rounding exact
// .5 values up (toward +inf) so the result never depends on banker's rounding.
func CenterKHz(freqKHz float64) int64 {
	return int64(math.Floor(freqKHz + 0.5))
}

// AggregatedSpot is the running summary for one Key.
type AggregatedSpot struct {
	Call         string
	FrequencyKHz float64 // Running mean of reported frequencies
	CenterKHz    int64   // Bucket this record was created in; never changes
	HighestSNR   int
	AverageSpeed float64 // Running mean of reported speeds
	Count        int
	Mode         string // Most recent mode tag
	LastSpotter  string // Skimmer behind the most recent report
	FirstSeen    time.Time
	LastSeen     time.Time
}

// Key returns the aggregation key of the record.
func (a AggregatedSpot) Key() Key {
	return Key{Call: a.Call, CenterKHz: a.CenterKHz}
}

// Age returns how long ago the record was last refreshed.
func (a AggregatedSpot) Age(now time.Time) time.Duration {
	return now.Sub(a.LastSeen)
}

func newAggregated(s RawSpot) *AggregatedSpot {
	return &AggregatedSpot{
		Call:         s.Call,
		FrequencyKHz: s.FrequencyKHz,
		CenterKHz:    CenterKHz(s.FrequencyKHz),
		HighestSNR:   s.SNR,
		AverageSpeed: float64(s.Speed),
		Count:        1,
		Mode:         s.Mode,
		LastSpotter:  s.Spotter,
		FirstSeen:    s.SeenAt,
		LastSeen:     s.SeenAt,
	}
}

// merge folds one more observation into the record using an exact
// incremental mean, so every report carries equal weight.
func (a *AggregatedSpot) merge(s RawSpot) {
	a.Count++
	n := float64(a.Count)
	a.FrequencyKHz += (s.FrequencyKHz - a.FrequencyKHz) / n
	a.AverageSpeed += (float64(s.Speed) - a.AverageSpeed) / n
	if s.SNR > a.HighestSNR {
		a.HighestSNR = s.SNR
	}
	a.Mode = s.Mode
	a.LastSpotter = s.Spotter
	if s.SeenAt.After(a.LastSeen) {
		a.LastSeen = s.SeenAt
	}
}
