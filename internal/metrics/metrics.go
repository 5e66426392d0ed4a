// Package metrics exposes render counters for Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors of one process. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	framesPushed prometheus.Counter
	compose      prometheus.Histogram
	runs         *prometheus.CounterVec
	runSeconds   prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		framesPushed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "slides2video",
			Name:      "frames_pushed_total",
			Help:      "Frames handed to the encoder sink.",
		}),
		compose: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "slides2video",
			Name:      "compose_seconds",
			Help:      "Time spent compositing one frame.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "slides2video",
			Name:      "runs_total",
			Help:      "Finished runs by result.",
		}, []string{"result"}),
		runSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "slides2video",
			Name:      "run_seconds",
			Help:      "Wall time of finished runs.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
	}
	m.registry.MustRegister(m.framesPushed, m.compose, m.runs, m.runSeconds)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) FramePushed() {
	if m == nil {
		return
	}
	m.framesPushed.Inc()
}

func (m *Metrics) ObserveCompose(d time.Duration) {
	if m == nil {
		return
	}
	m.compose.Observe(d.Seconds())
}

// RunFinished records a run outcome: "completed", "failed" or "canceled".
func (m *Metrics) RunFinished(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(result).Inc()
	m.runSeconds.Observe(d.Seconds())
}
