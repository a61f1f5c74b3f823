// Package metrics exposes pipeline counters to Prometheus. A nil *Metrics
// is valid and records nothing, so components can be built without one.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "reputation"

// Metrics holds the registered collectors.
type Metrics struct {
	registry *prometheus.Registry

	ItemsAnnotated  *prometheus.CounterVec
	SentimentSource *prometheus.CounterVec
	ThreatLevels    *prometheus.CounterVec
	ModelRequests   *prometheus.CounterVec
	ModelLatency    *prometheus.HistogramVec
	Translations    *prometheus.CounterVec
	IngestRows      *prometheus.CounterVec
	BatchDuration   prometheus.Histogram
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		ItemsAnnotated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "items_annotated_total",
				Help:      "Items processed by the annotation pass",
			},
			[]string{"kind", "status"},
		),
		SentimentSource: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sentiment_results_total",
				Help:      "Sentiment results by language track and source",
			},
			[]string{"track", "source"},
		),
		ThreatLevels: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "threat_assessments_total",
				Help:      "Threat assessments by level",
			},
			[]string{"level"},
		),
		ModelRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "model_requests_total",
				Help:      "Model backend calls by provider and outcome",
			},
			[]string{"provider", "outcome"},
		),
		ModelLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "model_request_duration_seconds",
				Help:      "Model backend call latency",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"provider"},
		),
		Translations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "translations_total",
				Help:      "Machine translation attempts by outcome",
			},
			[]string{"outcome"},
		),
		IngestRows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ingest_rows_total",
				Help:      "Ingested rows by outcome",
			},
			[]string{"outcome"},
		),
		BatchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "batch_duration_seconds",
				Help:      "Wall time of a full annotation pass",
				Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
			},
		),
	}

	reg.MustRegister(
		m.ItemsAnnotated,
		m.SentimentSource,
		m.ThreatLevels,
		m.ModelRequests,
		m.ModelLatency,
		m.Translations,
		m.IngestRows,
		m.BatchDuration,
	)
	return m
}

// Registry returns the underlying registry, nil for a nil receiver.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func (m *Metrics) ItemAnnotated(kind, status string) {
	if m == nil {
		return
	}
	m.ItemsAnnotated.WithLabelValues(kind, status).Inc()
}

func (m *Metrics) Sentiment(track, source string) {
	if m == nil {
		return
	}
	m.SentimentSource.WithLabelValues(track, source).Inc()
}

func (m *Metrics) Threat(level string) {
	if m == nil {
		return
	}
	m.ThreatLevels.WithLabelValues(level).Inc()
}

// ModelCall records one backend call.
func (m *Metrics) ModelCall(provider string, started time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.ModelRequests.WithLabelValues(provider, outcome).Inc()
	m.ModelLatency.WithLabelValues(provider).Observe(time.Since(started).Seconds())
}

func (m *Metrics) Translation(outcome string) {
	if m == nil {
		return
	}
	m.Translations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IngestRow(outcome string) {
	if m == nil {
		return
	}
	m.IngestRows.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Batch(started time.Time) {
	if m == nil {
		return
	}
	m.BatchDuration.Observe(time.Since(started).Seconds())
}
