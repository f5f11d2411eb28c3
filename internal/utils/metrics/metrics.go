package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics. All Record methods are safe on a nil
// receiver so domain services can run without instrumentation in tests.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Upstream collaborator metrics
	UpstreamRequestsTotal   *prometheus.CounterVec
	UpstreamRequestDuration *prometheus.HistogramVec
	UpstreamBreakerState    *prometheus.GaugeVec
	EnvelopeShapesTotal     *prometheus.CounterVec

	// Domain metrics
	MembershipDecisionsTotal   *prometheus.CounterVec
	InvitationTransitionsTotal *prometheus.CounterVec
	SubmissionsTotal           *prometheus.CounterVec
	RosterPlaceholdersTotal    prometheus.Counter
	StaleResultsDroppedTotal   *prometheus.CounterVec

	// Storage metrics
	DBQueryDuration  *prometheus.HistogramVec
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec
}

// New creates a new Metrics instance registered on the default registry.
func New(namespace string) *Metrics {
	return NewWithRegistry(namespace, prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics registered on reg.
func NewWithRegistry(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "labportal"
	}
	f := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),

		UpstreamRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "upstream",
				Name:      "requests_total",
				Help:      "Requests issued to external collaborators",
			},
			[]string{"collaborator", "outcome"},
		),
		UpstreamRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "upstream",
				Name:      "request_duration_seconds",
				Help:      "External collaborator request duration in seconds",
				Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"collaborator"},
		),
		UpstreamBreakerState: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "upstream",
				Name:      "breaker_open",
				Help:      "Circuit breaker state per collaborator (1=open, 0=closed or half-open)",
			},
			[]string{"collaborator"},
		),
		EnvelopeShapesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "upstream",
				Name:      "envelope_shapes_total",
				Help:      "Response envelope shapes seen per collaborator",
			},
			[]string{"collaborator", "shape"},
		),

		MembershipDecisionsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "membership",
				Name:      "decisions_total",
				Help:      "Membership rule decisions by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		InvitationTransitionsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "invitation",
				Name:      "transitions_total",
				Help:      "Invitation state transitions by resulting status",
			},
			[]string{"status"},
		),
		SubmissionsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "submission",
				Name:      "created_total",
				Help:      "Submission attempts by outcome",
			},
			[]string{"outcome"},
		),
		RosterPlaceholdersTotal: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "roster",
				Name:      "placeholder_rows_total",
				Help:      "Roster rows rendered with a placeholder user",
			},
		),
		StaleResultsDroppedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "roster",
				Name:      "stale_results_dropped_total",
				Help:      "Results discarded because a newer request for the same key started",
			},
			[]string{"view"},
		),

		DBQueryDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "db",
				Name:      "query_duration_seconds",
				Help:      "Database query duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"operation"},
		),
		CacheHitsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "hits_total",
				Help:      "Total number of cache hits",
			},
			[]string{"cache"},
		),
		CacheMissesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "misses_total",
				Help:      "Total number of cache misses",
			},
			[]string{"cache"},
		),
	}
}

// --- Convenience methods ---

// RecordHTTPRequest records an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	statusStr := statusCodeToString(status)
	m.HTTPRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordUpstream records one request to an external collaborator.
func (m *Metrics) RecordUpstream(collaborator, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.UpstreamRequestsTotal.WithLabelValues(collaborator, outcome).Inc()
	m.UpstreamRequestDuration.WithLabelValues(collaborator).Observe(duration.Seconds())
}

// SetBreakerOpen sets the breaker state of a collaborator.
func (m *Metrics) SetBreakerOpen(collaborator string, open bool) {
	if m == nil {
		return
	}
	value := 0.0
	if open {
		value = 1.0
	}
	m.UpstreamBreakerState.WithLabelValues(collaborator).Set(value)
}

// RecordEnvelopeShape records which envelope shape a collaborator answered with.
func (m *Metrics) RecordEnvelopeShape(collaborator, shape string) {
	if m == nil {
		return
	}
	m.EnvelopeShapesTotal.WithLabelValues(collaborator, shape).Inc()
}

// RecordMembershipDecision records a membership rule outcome.
func (m *Metrics) RecordMembershipDecision(operation, outcome string) {
	if m == nil {
		return
	}
	m.MembershipDecisionsTotal.WithLabelValues(operation, outcome).Inc()
}

// RecordInvitationTransition records an invitation reaching status.
func (m *Metrics) RecordInvitationTransition(status string) {
	if m == nil {
		return
	}
	m.InvitationTransitionsTotal.WithLabelValues(status).Inc()
}

// RecordSubmission records a submission attempt.
func (m *Metrics) RecordSubmission(outcome string) {
	if m == nil {
		return
	}
	m.SubmissionsTotal.WithLabelValues(outcome).Inc()
}

// RecordRosterPlaceholders adds n placeholder roster rows.
func (m *Metrics) RecordRosterPlaceholders(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.RosterPlaceholdersTotal.Add(float64(n))
}

// RecordStaleResult records a dropped out-of-order result.
func (m *Metrics) RecordStaleResult(view string) {
	if m == nil {
		return
	}
	m.StaleResultsDroppedTotal.WithLabelValues(view).Inc()
}

// RecordDBQuery records a database query.
func (m *Metrics) RecordDBQuery(operation string, duration time.Duration) {
	if m == nil {
		return
	}
	m.DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordCacheHit records a cache hit.
func (m *Metrics) RecordCacheHit(cache string) {
	if m == nil {
		return
	}
	m.CacheHitsTotal.WithLabelValues(cache).Inc()
}

// RecordCacheMiss records a cache miss.
func (m *Metrics) RecordCacheMiss(cache string) {
	if m == nil {
		return
	}
	m.CacheMissesTotal.WithLabelValues(cache).Inc()
}

// statusCodeToString converts an HTTP status code to a string category.
func statusCodeToString(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
