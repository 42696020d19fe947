// Package metrics exports frame loop counters for Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/teslashibe/go-markerpose/pkg/bridge"
)

const namespace = "markerpose"

// Metrics holds the collectors of one bridge on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	frames        *prometheus.CounterVec
	applied       prometheus.Counter
	markers       prometheus.Gauge
	frameInterval prometheus.Histogram
	clients       *prometheus.GaugeVec
	calibration   prometheus.Gauge
}

// New creates the collectors and registers them, together with the Go
// runtime and process collectors, on a new registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		frames: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "frames_total",
				Help:      "Total number of frames by estimation status",
			},
			[]string{"status"}, // status: success, failure
		),
		applied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_applied_total",
			Help:      "Frames whose position was applied to the scene object",
		}),
		markers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "markers_detected",
			Help:      "Markers detected in the last frame",
		}),
		frameInterval: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "frame_interval_seconds",
			Help:      "Time between consecutive frames in seconds",
			Buckets:   []float64{.005, .01, .02, .033, .05, .1, .25, .5, 1},
		}),
		clients: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "websocket_clients",
				Help:      "Connected websocket clients per stream",
			},
			[]string{"stream"},
		),
		calibration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "calibration_loaded",
			Help:      "1 when the camera calibration was loaded at start",
		}),
	}

	m.registry.MustRegister(
		m.frames,
		m.applied,
		m.markers,
		m.frameInterval,
		m.clients,
		m.calibration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveStart records the result of a bridge start.
func (m *Metrics) ObserveStart(res bridge.StartResult) {
	if res.CalibrationLoaded {
		m.calibration.Set(1)
	} else {
		m.calibration.Set(0)
	}
}

// ObserveFrame records one frame. markers is the number of markers the
// frame detected.
func (m *Metrics) ObserveFrame(res bridge.FrameResult, markers int) {
	status := "success"
	if !res.Status.OK() {
		status = "failure"
	}
	m.frames.WithLabelValues(status).Inc()
	if res.Applied {
		m.applied.Inc()
	}
	m.markers.Set(float64(markers))
	if res.Delta > 0 {
		m.frameInterval.Observe(res.Delta.Seconds())
	}
}

// SetClients records the number of subscribers of a stream.
func (m *Metrics) SetClients(stream string, n int) {
	m.clients.WithLabelValues(stream).Set(float64(n))
}
