package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	signalsIngested *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	storeSize       *prometheus.GaugeVec
	latency         *prometheus.HistogramVec
}

// New registers the recorder on the default registry.
func New() *Recorder {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the recorder on reg.
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		signalsIngested: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signaldesk_signals_ingested_total",
				Help: "Signals accepted, by source",
			},
			[]string{"source"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signaldesk_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		storeSize: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "signaldesk_store_signals",
				Help: "Signals held by the store after the last append",
			},
			[]string{"backend"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "signaldesk_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordSignalIngested counts one accepted signal. An empty source is reported as "unknown".
func (r *Recorder) RecordSignalIngested(source string) {
	if source == "" {
		source = "unknown"
	}
	r.signalsIngested.WithLabelValues(source).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

func (r *Recorder) RecordStoreSize(backend string, n int) {
	r.storeSize.WithLabelValues(backend).Set(float64(n))
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordSignalIngested(string)   {}
func (Nop) RecordError(string)            {}
func (Nop) RecordStoreSize(string, int)   {}
func (Nop) RecordLatency(string, float64) {}
