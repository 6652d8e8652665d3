package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Histogram bucket definitions.
var (
	httpDurationBuckets    = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
	backendDurationBuckets = []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}
	bodySizeBuckets        = []float64{100, 1024, 10240, 102400, 1048576}
)

// Metrics holds all Prometheus metric instruments for the service.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPRequestSizeBytes  *prometheus.HistogramVec
	HTTPResponseSizeBytes *prometheus.HistogramVec

	// Session metrics
	SessionsOpenedTotal prometheus.Counter
	SessionsSweptTotal  prometheus.Counter
	SessionsActive      prometheus.Gauge

	// Form operation metrics
	FormOperationsTotal *prometheus.CounterVec

	// Backend collaborator metrics
	BackendRequestsTotal       *prometheus.CounterVec
	BackendRequestDuration     *prometheus.HistogramVec
	BackendCircuitBreakerState *prometheus.GaugeVec
	BackendRetriesTotal        *prometheus.CounterVec

	// Lookup metrics
	ORCIDLookupsTotal        *prometheus.CounterVec
	StaleResponsesSuppressed prometheus.Counter

	// Vocabulary metrics
	VocabularyLoadsTotal     *prometheus.CounterVec
	VocabularySearchDuration prometheus.Histogram

	// Import metrics
	CSVRowsTotal *prometheus.CounterVec

	// Submission metrics
	SubmissionsTotal *prometheus.CounterVec
}

// InitMetrics creates and registers all Prometheus metric instruments.
func InitMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		// HTTP
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "curate_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path_pattern", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "curate_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: httpDurationBuckets,
		}, []string{"method", "path_pattern"}),
		HTTPRequestSizeBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "curate_http_request_size_bytes",
			Help:    "HTTP request body size in bytes.",
			Buckets: bodySizeBuckets,
		}, []string{"method", "path_pattern"}),
		HTTPResponseSizeBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "curate_http_response_size_bytes",
			Help:    "HTTP response body size in bytes.",
			Buckets: bodySizeBuckets,
		}, []string{"method", "path_pattern"}),

		// Sessions
		SessionsOpenedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "curate_sessions_opened_total",
			Help: "Total number of curation sessions opened.",
		}),
		SessionsSweptTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "curate_sessions_swept_total",
			Help: "Total number of expired sessions removed by the sweeper.",
		}),
		SessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "curate_sessions_active",
			Help: "Number of unexpired draft sessions.",
		}),

		// Form operations
		FormOperationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "curate_form_operations_total",
			Help: "Total number of form operations applied.",
		}, []string{"op", "status"}),

		// Backend
		BackendRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "curate_backend_requests_total",
			Help: "Total number of backend collaborator requests.",
		}, []string{"service_id", "status"}),
		BackendRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "curate_backend_request_duration_seconds",
			Help:    "Backend request duration in seconds.",
			Buckets: backendDurationBuckets,
		}, []string{"service_id"}),
		BackendCircuitBreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "curate_backend_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open).",
		}, []string{"service_id"}),
		BackendRetriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "curate_backend_retries_total",
			Help: "Total number of backend request retries.",
		}, []string{"service_id"}),

		// Lookups
		ORCIDLookupsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "curate_orcid_lookups_total",
			Help: "Total number of ORCID record lookups.",
		}, []string{"outcome"}),
		StaleResponsesSuppressed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "curate_stale_lookup_responses_suppressed_total",
			Help: "Total number of lookup responses discarded as stale.",
		}),

		// Vocabularies
		VocabularyLoadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "curate_vocabulary_loads_total",
			Help: "Total number of vocabulary tree loads.",
		}, []string{"vocabulary", "status"}),
		VocabularySearchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "curate_vocabulary_search_duration_seconds",
			Help:    "Vocabulary search duration in seconds.",
			Buckets: backendDurationBuckets,
		}),

		// Imports
		CSVRowsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "curate_csv_rows_total",
			Help: "Total number of CSV import rows processed.",
		}, []string{"kind", "status"}),

		// Submissions
		SubmissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "curate_submissions_total",
			Help: "Total number of submission attempts.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		// HTTP
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestSizeBytes,
		m.HTTPResponseSizeBytes,
		// Sessions
		m.SessionsOpenedTotal,
		m.SessionsSweptTotal,
		m.SessionsActive,
		// Form operations
		m.FormOperationsTotal,
		// Backend
		m.BackendRequestsTotal,
		m.BackendRequestDuration,
		m.BackendCircuitBreakerState,
		m.BackendRetriesTotal,
		// Lookups
		m.ORCIDLookupsTotal,
		m.StaleResponsesSuppressed,
		// Vocabularies
		m.VocabularyLoadsTotal,
		m.VocabularySearchDuration,
		// Imports
		m.CSVRowsTotal,
		// Submissions
		m.SubmissionsTotal,
	)

	return m
}

// --- Recording helpers ---

// RecordHTTPRequest records HTTP request metrics.
func (m *Metrics) RecordHTTPRequest(method, pathPattern string, status int, duration time.Duration, reqSize, respSize int) {
	statusStr := strconv.Itoa(status)
	m.HTTPRequestsTotal.WithLabelValues(method, pathPattern, statusStr).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, pathPattern).Observe(duration.Seconds())
	m.HTTPRequestSizeBytes.WithLabelValues(method, pathPattern).Observe(float64(reqSize))
	m.HTTPResponseSizeBytes.WithLabelValues(method, pathPattern).Observe(float64(respSize))
}

// RecordSessionOpened records a newly opened session.
func (m *Metrics) RecordSessionOpened() {
	m.SessionsOpenedTotal.Inc()
	m.SessionsActive.Inc()
}

// RecordSessionClosed records a deleted or submitted session.
func (m *Metrics) RecordSessionClosed() {
	m.SessionsActive.Dec()
}

// RecordSessionsSwept records expired sessions removed by the sweeper.
func (m *Metrics) RecordSessionsSwept(count int) {
	m.SessionsSweptTotal.Add(float64(count))
	m.SessionsActive.Sub(float64(count))
}

// RecordFormOperation records one form operation.
func (m *Metrics) RecordFormOperation(op, status string) {
	m.FormOperationsTotal.WithLabelValues(op, status).Inc()
}

// RecordBackendRequest records a backend collaborator request.
func (m *Metrics) RecordBackendRequest(serviceID string, status int, duration time.Duration) {
	m.BackendRequestsTotal.WithLabelValues(serviceID, strconv.Itoa(status)).Inc()
	m.BackendRequestDuration.WithLabelValues(serviceID).Observe(duration.Seconds())
}

// SetBackendCircuitBreakerState sets the circuit breaker state for a service.
// State: 0=closed, 1=half-open, 2=open.
func (m *Metrics) SetBackendCircuitBreakerState(serviceID string, state float64) {
	m.BackendCircuitBreakerState.WithLabelValues(serviceID).Set(state)
}

// RecordBackendRetry records a backend request retry.
func (m *Metrics) RecordBackendRetry(serviceID string) {
	m.BackendRetriesTotal.WithLabelValues(serviceID).Inc()
}

// RecordORCIDLookup records one ORCID lookup with its outcome
// (hit, miss, error).
func (m *Metrics) RecordORCIDLookup(outcome string) {
	m.ORCIDLookupsTotal.WithLabelValues(outcome).Inc()
}

// RecordStaleResponseSuppressed records a lookup response discarded because
// newer input superseded it.
func (m *Metrics) RecordStaleResponseSuppressed() {
	m.StaleResponsesSuppressed.Inc()
}

// RecordVocabularyLoad records a vocabulary tree load.
func (m *Metrics) RecordVocabularyLoad(vocabulary, status string) {
	m.VocabularyLoadsTotal.WithLabelValues(vocabulary, status).Inc()
}

// RecordVocabularySearch records a vocabulary search.
func (m *Metrics) RecordVocabularySearch(duration time.Duration) {
	m.VocabularySearchDuration.Observe(duration.Seconds())
}

// RecordCSVRows records processed CSV import rows.
func (m *Metrics) RecordCSVRows(kind string, accepted, rejected int) {
	m.CSVRowsTotal.WithLabelValues(kind, "accepted").Add(float64(accepted))
	m.CSVRowsTotal.WithLabelValues(kind, "rejected").Add(float64(rejected))
}

// RecordSubmission records a submission attempt with its outcome
// (accepted, rejected, session_expired, backend_error).
func (m *Metrics) RecordSubmission(outcome string) {
	m.SubmissionsTotal.WithLabelValues(outcome).Inc()
}

// --- HTTP Middleware ---

// MetricsMiddleware returns HTTP middleware that records request metrics using
// chi's route pattern (not the actual URL path) to avoid label cardinality
// explosion.
func (m *Metrics) MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &metricsResponseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		duration := time.Since(start)
		pathPattern := routePattern(r)
		reqSize := 0
		if r.ContentLength > 0 {
			reqSize = int(r.ContentLength)
		}

		m.RecordHTTPRequest(r.Method, pathPattern, sw.status, duration, reqSize, sw.bytes)
	})
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// routePattern extracts chi's route pattern from the request context.
// Falls back to the raw URL path if no pattern is found.
func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return r.URL.Path
	}
	pattern := strings.Join(rctx.RoutePatterns, "")
	// chi route patterns have trailing /*, remove it.
	pattern = strings.TrimSuffix(pattern, "/*")
	if pattern == "" {
		return r.URL.Path
	}
	return pattern
}

// metricsResponseWriter wraps http.ResponseWriter to capture status and bytes.
type metricsResponseWriter struct {
	http.ResponseWriter
	status  int
	bytes   int
	written bool
}

func (w *metricsResponseWriter) WriteHeader(code int) {
	if !w.written {
		w.status = code
		w.written = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *metricsResponseWriter) Write(b []byte) (int, error) {
	if !w.written {
		w.written = true
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}
