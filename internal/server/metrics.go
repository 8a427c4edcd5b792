package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yaklabco/docqa/pkg/plan"
)

const metricsNamespace = "docqa"

// Review outcomes recorded by reviewsTotal.
const (
	outcomeAccepted     = "accepted"
	outcomeMalformed    = "malformed"
	outcomeBackendError = "backend_error"
	outcomeBadRequest   = "bad_request"
	outcomeError        = "error"
)

// Metrics holds the server's Prometheus collectors. It implements service.Observer.
type Metrics struct {
	registry *prometheus.Registry

	// reviewsTotal counts /review and /v1/validate calls.
	// Labels: endpoint, outcome (accepted, malformed, backend_error, bad_request, error)
	reviewsTotal *prometheus.CounterVec

	// malformedTotal counts rejected edit batches.
	// Labels: kind (NotFound, AmbiguousMatch, ForbiddenRegion, Overlap, InvalidOutput)
	malformedTotal *prometheus.CounterVec

	// attempts is the number of model calls needed per accepted review.
	attempts prometheus.Histogram

	// pipelineDuration is the time spent planning, applying and diffing one batch.
	pipelineDuration prometheus.Histogram

	// duplicatesTotal counts model issues dropped as duplicates of lint findings.
	duplicatesTotal prometheus.Counter

	// requestDuration measures HTTP handling time.
	// Labels: method, route, status
	requestDuration *prometheus.HistogramVec
}

// NewMetrics registers the collectors on a fresh registry, along with the Go
// runtime and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		reviewsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "reviews_total",
			Help:      "Review requests by endpoint and outcome",
		}, []string{"endpoint", "outcome"}),
		malformedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "malformed_tool_calls_total",
			Help:      "Rejected edit batches by failure kind",
		}, []string{"kind"}),
		attempts: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "review_attempts",
			Help:      "Model calls per accepted review",
			Buckets:   []float64{1, 2, 3, 4, 5},
		}),
		pipelineDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "Edit pipeline duration in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),
		duplicatesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "duplicates_filtered_total",
			Help:      "Model issues dropped because a lint finding covers the same text",
		}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Malformed implements service.Observer.
func (m *Metrics) Malformed(kind plan.FailureKind) {
	m.malformedTotal.WithLabelValues(string(kind)).Inc()
}

// PipelineDuration implements service.Observer.
func (m *Metrics) PipelineDuration(d time.Duration) {
	m.pipelineDuration.Observe(d.Seconds())
}

// DuplicatesFiltered implements service.Observer.
func (m *Metrics) DuplicatesFiltered(n int) {
	if n > 0 {
		m.duplicatesTotal.Add(float64(n))
	}
}

func (m *Metrics) review(endpoint, outcome string) {
	m.reviewsTotal.WithLabelValues(endpoint, outcome).Inc()
}
