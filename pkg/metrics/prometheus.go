package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	fetchesTotal *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	lastPrice    *prometheus.GaugeVec
	latency      *prometheus.HistogramVec
	batchUnits   *prometheus.CounterVec
	cacheHits    *prometheus.CounterVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		fetchesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockmind_provider_fetches_total",
				Help: "Total number of provider fetches",
			},
			[]string{"kind", "symbol"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockmind_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stockmind_last_price",
				Help: "Last recorded price for a symbol",
			},
			[]string{"symbol"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockmind_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		batchUnits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockmind_batch_units_total",
				Help: "Per-symbol batch outcomes by task and status",
			},
			[]string{"task", "status"},
		),
		cacheHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockmind_cache_requests_total",
				Help: "Cache lookups by kind and result",
			},
			[]string{"kind", "result"},
		),
	}
}

// RecordFetch records a provider fetch for a symbol.
func (r *Recorder) RecordFetch(kind, symbol string) {
	r.fetchesTotal.WithLabelValues(kind, symbol).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordBatchUnit records the outcome of one symbol within a batch run.
func (r *Recorder) RecordBatchUnit(task, status string) {
	r.batchUnits.WithLabelValues(task, status).Inc()
}

// RecordCacheLookup records a cache hit or miss for a data kind.
func (r *Recorder) RecordCacheLookup(kind, result string) {
	r.cacheHits.WithLabelValues(kind, result).Inc()
}
