package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PipelineMetrics counts classification work per batch and per document.
type PipelineMetrics struct {
	registry *prometheus.Registry

	batchTotal    *prometheus.CounterVec
	batchDuration *prometheus.HistogramVec
	documentTotal *prometheus.CounterVec
}

func NewPipelineMetrics(service string) *PipelineMetrics {
	registry := prometheus.NewRegistry()

	batchTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "duply",
			Subsystem: "pipeline",
			Name:      "batch_total",
			Help:      "Total classified batches by status.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
		[]string{"status"},
	)
	batchDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "duply",
			Subsystem: "pipeline",
			Name:      "batch_duration_seconds",
			Help:      "Batch round-trip duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
		[]string{"status"},
	)
	documentTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "duply",
			Subsystem: "pipeline",
			Name:      "document_total",
			Help:      "Total documents by outcome (classified, extraction_failed, insufficient_text, coverage_gap, batch_failed).",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
		[]string{"status"},
	)

	registry.MustRegister(batchTotal, batchDuration, documentTotal)

	return &PipelineMetrics{
		registry:      registry,
		batchTotal:    batchTotal,
		batchDuration: batchDuration,
		documentTotal: documentTotal,
	}
}

func (m *PipelineMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *PipelineMetrics) BatchFinished(status string, seconds float64) {
	m.batchTotal.WithLabelValues(status).Inc()
	m.batchDuration.WithLabelValues(status).Observe(seconds)
}

func (m *PipelineMetrics) DocumentFinished(status string) {
	m.documentTotal.WithLabelValues(status).Inc()
}
