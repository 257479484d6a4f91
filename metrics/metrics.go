// Package metrics exposes Prometheus collectors for the HTTP/2 engine:
// frame counts by type, an active stream gauge, and a connection send-window
// gauge, grounded on the client_golang idioms the rest of the
// dependency pack uses for service instrumentation.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Collector holds the engine's metrics. A Connection updates FramesReceived;
// no code in this module updates the other collectors. It is optional;
// a nil *Collector (the zero value for an embedder that never wires one
// in) simply means nothing is recorded — callers check for nil before use.
type Collector struct {
	FramesReceived *prometheus.CounterVec
	FramesSent     *prometheus.CounterVec
	ActiveStreams  prometheus.Gauge
	ConnWindow     prometheus.Gauge
	GoAwaysSent    prometheus.Counter
	StreamErrors   *prometheus.CounterVec
}

// New registers and returns a fresh Collector on reg. Pass
// prometheus.DefaultRegisterer for process-wide metrics, or a fresh
// *prometheus.Registry in tests to avoid collisions across parallel cases.
func New(reg prometheus.Registerer) *Collector {
	c := &Collector{
		FramesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "h2engine",
			Name:      "frames_received_total",
			Help:      "HTTP/2 frames received, by type.",
		}, []string{"type"}),
		FramesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "h2engine",
			Name:      "frames_sent_total",
			Help:      "HTTP/2 frames sent, by type.",
		}, []string{"type"}),
		ActiveStreams: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "h2engine",
			Name:      "active_streams",
			Help:      "Streams currently open on the connection.",
		}),
		ConnWindow: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "h2engine",
			Name:      "connection_send_window_bytes",
			Help:      "Remaining connection-level flow-control send window.",
		}),
		GoAwaysSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "h2engine",
			Name:      "goaways_sent_total",
			Help:      "GOAWAY frames sent.",
		}),
		StreamErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "h2engine",
			Name:      "stream_errors_total",
			Help:      "Streams that ended via RST_STREAM, by error code.",
		}, []string{"code"}),
	}

	reg.MustRegister(
		c.FramesReceived, c.FramesSent, c.ActiveStreams,
		c.ConnWindow, c.GoAwaysSent, c.StreamErrors,
	)
	return c
}
