package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Request metrics
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cp_assist_requests_total",
		Help: "Total number of ask requests processed",
	}, []string{"status"})

	intentsRouted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cp_assist_intents_routed_total",
		Help: "Total number of requests routed, by resolved intent",
	}, []string{"intent"})

	// Model metrics
	modelRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cp_assist_model_request_duration_seconds",
		Help:    "Duration of model requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"model", "status"})

	modelRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cp_assist_model_requests_total",
		Help: "Total number of model requests",
	}, []string{"model", "status"})

	// Hint metrics
	hintsIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cp_assist_hints_issued_total",
		Help: "Total number of hints issued",
	})

	hintLimitHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cp_assist_hint_limit_hits_total",
		Help: "Total number of hint requests refused at the configured maximum",
	})

	// Cache metrics
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cp_assist_cache_hits_total",
		Help: "Total number of answer cache hits",
	})

	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cp_assist_cache_misses_total",
		Help: "Total number of answer cache misses",
	})

	// Rate limit metrics
	rateLimitExceeded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cp_assist_rate_limit_exceeded_total",
		Help: "Total number of rate limit exceeded events",
	})
)

// Metrics provides methods to record metrics
type Metrics struct{}

// NewMetrics creates a new metrics instance
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordRequest records a processed ask request
func (m *Metrics) RecordRequest(status string) {
	requestsTotal.WithLabelValues(status).Inc()
}

// RecordIntentRouted records the resolved intent of a routed request
func (m *Metrics) RecordIntentRouted(intent string) {
	intentsRouted.WithLabelValues(intent).Inc()
}

// RecordModelRequest records a model request
func (m *Metrics) RecordModelRequest(model, status string, duration time.Duration) {
	modelRequestDuration.WithLabelValues(model, status).Observe(duration.Seconds())
	modelRequestsTotal.WithLabelValues(model, status).Inc()
}

// RecordHintIssued records a newly persisted hint
func (m *Metrics) RecordHintIssued() {
	hintsIssued.Inc()
}

// RecordHintLimitHit records a hint request refused at the maximum
func (m *Metrics) RecordHintLimitHit() {
	hintLimitHits.Inc()
}

// RecordCacheHit records an answer cache hit
func (m *Metrics) RecordCacheHit() {
	cacheHits.Inc()
}

// RecordCacheMiss records an answer cache miss
func (m *Metrics) RecordCacheMiss() {
	cacheMisses.Inc()
}

// RecordRateLimitExceeded records a rejected request
func (m *Metrics) RecordRateLimitExceeded() {
	rateLimitExceeded.Inc()
}

// StartMetricsServer starts the metrics HTTP server
func StartMetricsServer(port int, path string) error {
	router := mux.NewRouter()
	router.Handle(path, promhttp.Handler())

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	addr := fmt.Sprintf(":%d", port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return server.ListenAndServe()
}
