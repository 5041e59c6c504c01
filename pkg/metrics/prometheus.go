package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	runsTotal      *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	trainingLoss   prometheus.Gauge
	latency        *prometheus.HistogramVec
	publishedTotal *prometheus.CounterVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		runsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hemopulse_runs_total",
				Help: "Total number of forecasting runs, by trigger",
			},
			[]string{"trigger"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hemopulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		trainingLoss: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "hemopulse_training_loss",
				Help: "Final training loss of the most recent model fit",
			},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hemopulse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		publishedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hemopulse_snapshots_published_total",
				Help: "Snapshots delivered to an external sink, by backend",
			},
			[]string{"backend"},
		),
	}
}

// RecordRun counts one forecasting run.
func (r *Recorder) RecordRun(trigger string) {
	r.runsTotal.WithLabelValues(trigger).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordTrainingLoss records the loss of the latest fit.
func (r *Recorder) RecordTrainingLoss(loss float64) {
	r.trainingLoss.Set(loss)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordPublished counts one delivered snapshot.
func (r *Recorder) RecordPublished(backend string) {
	r.publishedTotal.WithLabelValues(backend).Inc()
}
