package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	snapshots   *prometheus.CounterVec
	ticksStored *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
	probability *prometheus.GaugeVec
	latency     *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		snapshots: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zephyr_snapshots_total",
				Help: "Total forecast/market snapshots persisted",
			},
			[]string{"model", "city"},
		),
		ticksStored: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zephyr_quote_ticks_total",
				Help: "Total quote ticks forwarded to a backend",
			},
			[]string{"backend", "ticker"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zephyr_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		probability: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "zephyr_event_probability",
				Help: "Last computed forecast probability per event",
			},
			[]string{"event_id"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "zephyr_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordSnapshot records one persisted snapshot.
func (r *Recorder) RecordSnapshot(model, city string) {
	r.snapshots.WithLabelValues(model, city).Inc()
}

// RecordTickStored records a quote tick sent to a backend.
func (r *Recorder) RecordTickStored(backend, ticker string) {
	r.ticksStored.WithLabelValues(backend, ticker).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordProbability records the latest forecast probability for an event.
func (r *Recorder) RecordProbability(eventID string, p float64) {
	r.probability.WithLabelValues(eventID).Set(p)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
