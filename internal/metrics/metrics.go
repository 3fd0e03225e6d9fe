// Package metrics provides Prometheus metrics for the spot pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Ingestion metrics
	Connects        prometheus.Counter
	ConnectionState prometheus.Gauge
	SessionErrors   *prometheus.CounterVec
	SpotsReceived   prometheus.Counter
	SpotsDropped    prometheus.Counter
	MalformedLines  prometheus.Counter

	// Store metrics
	ActiveSpots  prometheus.Gauge
	SpotsEvicted prometheus.Counter

	// Display metrics
	FramesWritten  prometheus.Counter
	WriteErrors    *prometheus.CounterVec
	DeviceOpen     prometheus.Gauge
	TickDuration   prometheus.Histogram
	SchedulerModes *prometheus.CounterVec

	// Radio metrics
	TuneRequests *prometheus.CounterVec
}

// NewMetrics creates a Metrics instance registered with reg.
// A nil reg registers with the Prometheus default registry.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "rbnvfd"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		// Ingestion metrics
		Connects: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rbn",
			Name:      "connects_total",
			Help:      "Total number of connection attempts to the spot server",
		}),
		ConnectionState: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "rbn",
			Name:      "connection_state",
			Help:      "Connection state: 0 disconnected, 1 connecting, 2 awaiting prompt, 3 streaming",
		}),
		SessionErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rbn",
			Name:      "session_errors_total",
			Help:      "Total number of sessions ended by an error, by error code",
		}, []string{"code"}),
		SpotsReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rbn",
			Name:      "spots_received_total",
			Help:      "Total number of spots parsed from the stream",
		}),
		SpotsDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rbn",
			Name:      "spots_dropped_total",
			Help:      "Total number of spots dropped because the event buffer was full",
		}),
		MalformedLines: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rbn",
			Name:      "malformed_lines_total",
			Help:      "Total number of spot lines that did not match the grammar",
		}),

		// Store metrics
		ActiveSpots: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "active_spots",
			Help:      "Number of aggregated spots currently held",
		}),
		SpotsEvicted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "spots_evicted_total",
			Help:      "Total number of aggregated spots evicted for age",
		}),

		// Display metrics
		FramesWritten: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "display",
			Name:      "frames_written_total",
			Help:      "Total number of frames written to the display",
		}),
		WriteErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "display",
			Name:      "write_errors_total",
			Help:      "Total number of failed display writes, by error code",
		}, []string{"code"}),
		DeviceOpen: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "display",
			Name:      "device_open",
			Help:      "1 when the display port is open",
		}),
		TickDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "display",
			Name:      "tick_duration_seconds",
			Help:      "Time spent evicting, scheduling and writing one display tick",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		}),
		SchedulerModes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "display",
			Name:      "ticks_total",
			Help:      "Total number of display ticks, by scheduler mode",
		}, []string{"mode"}),

		// Radio metrics
		TuneRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "radio",
			Name:      "tune_requests_total",
			Help:      "Total number of tune requests, by backend and status",
		}, []string{"backend", "status"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("", nil)

// RecordConnect increments the connection attempts counter.
func RecordConnect() {
	DefaultMetrics.Connects.Inc()
}

// SetConnectionState sets the connection state gauge.
func SetConnectionState(state int) {
	DefaultMetrics.ConnectionState.Set(float64(state))
}

// RecordSessionError records a session that ended with an error.
func RecordSessionError(code string) {
	if code == "" {
		code = "unknown"
	}
	DefaultMetrics.SessionErrors.WithLabelValues(code).Inc()
}

// RecordSpots adds received and dropped spot counts.
func RecordSpots(received, dropped int) {
	if received > 0 {
		DefaultMetrics.SpotsReceived.Add(float64(received))
	}
	if dropped > 0 {
		DefaultMetrics.SpotsDropped.Add(float64(dropped))
	}
}

// RecordMalformed adds malformed line counts.
func RecordMalformed(n int64) {
	if n > 0 {
		DefaultMetrics.MalformedLines.Add(float64(n))
	}
}

// UpdateStore sets the active spot gauge and adds evictions.
func UpdateStore(active, evicted int) {
	DefaultMetrics.ActiveSpots.Set(float64(active))
	if evicted > 0 {
		DefaultMetrics.SpotsEvicted.Add(float64(evicted))
	}
}

// RecordTick records one display tick.
func RecordTick(mode string, seconds float64) {
	DefaultMetrics.SchedulerModes.WithLabelValues(mode).Inc()
	DefaultMetrics.TickDuration.Observe(seconds)
}

// RecordFrameWrite records a display write outcome. code is empty on success.
func RecordFrameWrite(code string) {
	if code == "" {
		DefaultMetrics.FramesWritten.Inc()
		return
	}
	DefaultMetrics.WriteErrors.WithLabelValues(code).Inc()
}

// SetDeviceOpen sets the device open gauge.
func SetDeviceOpen(open bool) {
	v := 0.0
	if open {
		v = 1
	}
	DefaultMetrics.DeviceOpen.Set(v)
}

// RecordTune records a tune request.
func RecordTune(backend string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	DefaultMetrics.TuneRequests.WithLabelValues(backend, status).Inc()
}
