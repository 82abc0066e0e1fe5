package stats

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/prasenjit/servicevirt/internal/models"
)

const (
	promNamespace = "servicevirt"
	promSubsystem = "dispatch"

	outcomeSuccess = "success"
	outcomeFailure = "failure"
	unmatchedLabel = "unmatched"
)

// Metrics exports dispatch counters and latencies in the Prometheus format
type Metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates the dispatch metrics on their own registry
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: promNamespace,
			Subsystem: promSubsystem,
			Name:      "requests_total",
			Help:      "Total number of dispatched requests.",
		}, []string{"operation", "status", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: promNamespace,
			Subsystem: promSubsystem,
			Name:      "duration_seconds",
			Help:      "Duration of dispatches in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "outcome"}),
	}

	m.registry.MustRegister(m.requests)
	m.registry.MustRegister(m.duration)
	m.registry.MustRegister(collectors.NewGoCollector())
	m.registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return m
}

// Observe records one dispatch event
func (m *Metrics) Observe(event *models.Event) {
	operation := event.OperationName
	if operation == "" {
		operation = event.OperationID
	}
	if operation == "" {
		operation = unmatchedLabel
	}

	outcome := outcomeSuccess
	if event.Failed() {
		outcome = outcomeFailure
	}

	m.requests.WithLabelValues(operation, string(event.OperationStatus), outcome).Inc()
	m.duration.WithLabelValues(operation, outcome).Observe(event.Duration.Seconds())
}

// Registry returns the registry backing the metrics
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
