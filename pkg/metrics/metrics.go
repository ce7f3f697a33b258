// Package metrics defines the Prometheus metric collectors used across the
// pipeline services and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the pipeline.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	RequestsSubmittedTotal prometheus.Counter
	BatchesEnqueuedTotal   prometheus.Counter
	BatchesProcessedTotal  *prometheus.CounterVec
	DuplicateBatchesTotal  prometheus.Counter
	RecordsEnrichedTotal   prometheus.Counter
	EnrichFailuresTotal    *prometheus.CounterVec
	BatchProcessDuration   prometheus.Histogram
	AggregationsTotal      *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		RequestsSubmittedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "enrichment_requests_submitted_total",
				Help: "Total enrichment requests accepted for processing.",
			},
		),
		BatchesEnqueuedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "contact_batches_enqueued_total",
				Help: "Total contact batches published to the queue.",
			},
		),
		BatchesProcessedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contact_batches_processed_total",
				Help: "Total contact batches processed by workers, by outcome.",
			},
			[]string{"outcome"},
		),
		DuplicateBatchesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "contact_batches_duplicate_total",
				Help: "Redelivered batches whose completion increment was skipped.",
			},
		),
		RecordsEnrichedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "contacts_enriched_total",
				Help: "Total contact records enriched and persisted.",
			},
		),
		EnrichFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contact_enrich_failures_total",
				Help: "Total enrichment failures by missing field.",
			},
			[]string{"field"},
		),
		BatchProcessDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "contact_batch_process_duration_seconds",
				Help:    "Time spent enriching and persisting one batch.",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
		),
		AggregationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "result_aggregations_total",
				Help: "Total artifact aggregations by outcome.",
			},
			[]string{"outcome"},
		),
	}

	prometheus.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.RequestsSubmittedTotal,
		m.BatchesEnqueuedTotal,
		m.BatchesProcessedTotal,
		m.DuplicateBatchesTotal,
		m.RecordsEnrichedTotal,
		m.EnrichFailuresTotal,
		m.BatchProcessDuration,
		m.AggregationsTotal,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
