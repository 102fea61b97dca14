package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lexai"

// Metrics holds the pipeline's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry         *prometheus.Registry
	records          *prometheus.CounterVec
	chunksInserted   prometheus.Counter
	embeddings       *prometheus.CounterVec
	embeddingBacklog prometheus.Gauge
	searchDuration   *prometheus.HistogramVec
}

// New creates collectors on a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingestion_records_total",
			Help:      "Source records seen by ingestion, by outcome.",
		}, []string{"outcome"}),
		chunksInserted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_inserted_total",
			Help:      "Chunks newly written to the store.",
		}),
		embeddings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embeddings_total",
			Help:      "Chunk embedding attempts, by outcome.",
		}, []string{"outcome"}),
		embeddingBacklog: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "embedding_backlog",
			Help:      "Chunks still waiting for an embedding at the start of the last sweep.",
		}),
		searchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Similarity search latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
	}
	m.registry.MustRegister(
		m.records,
		m.chunksInserted,
		m.embeddings,
		m.embeddingBacklog,
		m.searchDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Record outcomes
const (
	OutcomeProcessed = "processed"
	OutcomeSkipped   = "skipped"
	OutcomeMalformed = "malformed"
	OutcomeFailed    = "failed"
	OutcomeUpdated   = "updated"
)

// RecordOutcome counts one source record
func (m *Metrics) RecordOutcome(outcome string) {
	if m == nil {
		return
	}
	m.records.WithLabelValues(outcome).Inc()
}

// ChunksInserted counts newly stored chunks
func (m *Metrics) ChunksInserted(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.chunksInserted.Add(float64(n))
}

// EmbeddingOutcome counts one embedding attempt
func (m *Metrics) EmbeddingOutcome(outcome string) {
	if m == nil {
		return
	}
	m.embeddings.WithLabelValues(outcome).Inc()
}

// SetEmbeddingBacklog records the number of unembedded chunks
func (m *Metrics) SetEmbeddingBacklog(n int) {
	if m == nil {
		return
	}
	m.embeddingBacklog.Set(float64(n))
}

// ObserveSearch records one search's latency
func (m *Metrics) ObserveSearch(start time.Time, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.searchDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
