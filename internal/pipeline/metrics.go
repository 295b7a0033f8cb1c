package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Query outcome label values.
const (
	outcomeAnswered     = "answered"
	outcomeBlocked      = "blocked"
	outcomeNoContext    = "no_context"
	outcomeBackendError = "backend_error"
)

// Metrics holds pipeline instrumentation.
type Metrics struct {
	queriesTotal  *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	documentsIng  prometheus.Counter
	chunksIng     prometheus.Counter
}

// NewMetrics creates and registers pipeline metrics. A nil registerer uses
// the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		queriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "answerd_queries_total",
				Help: "Queries processed, labeled by outcome (answered, blocked, no_context, backend_error).",
			},
			[]string{"outcome"},
		),
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "answerd_stage_duration_seconds",
				Help:    "Duration of pipeline stages in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		documentsIng: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "answerd_documents_ingested_total",
			Help: "Documents successfully chunked, embedded, and persisted.",
		}),
		chunksIng: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "answerd_chunks_ingested_total",
			Help: "Chunks persisted to the vector store.",
		}),
	}

	reg.MustRegister(m.queriesTotal, m.stageDuration, m.documentsIng, m.chunksIng)
	return m
}

func (m *Metrics) recordQuery(outcome string) {
	if m == nil {
		return
	}
	m.queriesTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) observeStage(stage string, seconds float64) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(seconds)
}

func (m *Metrics) recordIngest(documents, chunks int) {
	if m == nil {
		return
	}
	m.documentsIng.Add(float64(documents))
	m.chunksIng.Add(float64(chunks))
}
