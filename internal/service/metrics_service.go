package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Enrollment attempt outcomes recorded by MetricsService.
const (
	OutcomeEnrolled        = "enrolled"
	OutcomeUnenrolled      = "unenrolled"
	OutcomeFull            = "full"
	OutcomeConflict        = "time_conflict"
	OutcomeDuplicate       = "duplicate"
	OutcomeCancelled       = "cancelled"
	OutcomeCompensated     = "compensated"
	OutcomeContention      = "contention"
	OutcomeReenrollBlocked = "reenroll_blocked"
)

// MetricsSnapshot is a JSON summary of the process counters.
type MetricsSnapshot struct {
	RequestsTotal            uint64    `json:"requestsTotal"`
	AverageRequestDurationMs float64   `json:"averageRequestDurationMs"`
	CacheHits                uint64    `json:"cacheHits"`
	CacheMisses              uint64    `json:"cacheMisses"`
	CacheHitRatio            float64   `json:"cacheHitRatio"`
	EnrollmentsSucceeded     uint64    `json:"enrollmentsSucceeded"`
	CapacityRetries          uint64    `json:"capacityRetries"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generatedAt"`
}

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry           *prometheus.Registry
	handler            http.Handler
	requestDuration    *prometheus.HistogramVec
	requestTotal       *prometheus.CounterVec
	cacheLatency       prometheus.Observer
	cacheWrite         prometheus.Observer
	cacheHitRatio      prometheus.Gauge
	cacheHits          prometheus.Counter
	cacheMisses        prometheus.Counter
	storeDuration      *prometheus.HistogramVec
	enrollmentAttempts *prometheus.CounterVec
	capacityRetries    prometheus.Counter
	sessionsCreated    prometheus.Counter
	messagesSent       prometheus.Counter

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	enrolledCount        uint64
	retryCount           uint64
}

// NewMetricsService registers the HTTP, cache, store and booking collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	storeDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "store_operation_duration_seconds",
		Help:    "Duration of session store operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	enrollmentAttempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "enrollment_attempts_total",
		Help: "Enrollment ledger operations by outcome",
	}, []string{"outcome"})

	capacityRetries := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "capacity_cas_retries_total",
		Help: "Registration count updates retried after losing a compare-and-swap",
	})

	sessionsCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sessions_created_total",
		Help: "Class sessions created",
	})

	messagesSent := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "messages_sent_total",
		Help: "Trainer messages appended",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		storeDuration, enrollmentAttempts, capacityRetries, sessionsCreated, messagesSent, goroutines)

	return &MetricsService{
		registry:           registry,
		handler:            promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:    requestDuration,
		requestTotal:       requestTotal,
		cacheLatency:       cacheLatency,
		cacheWrite:         cacheWrite,
		cacheHitRatio:      cacheHitRatio,
		cacheHits:          cacheHits,
		cacheMisses:        cacheMisses,
		storeDuration:      storeDuration,
		enrollmentAttempts: enrollmentAttempts,
		capacityRetries:    capacityRetries,
		sessionsCreated:    sessionsCreated,
		messagesSent:       messagesSent,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	if total := hits + misses; total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveStore records timing of a session store call.
func (m *MetricsService) ObserveStore(operation string, duration time.Duration) {
	if m == nil {
		return
	}
	m.storeDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordEnrollment counts an enrollment ledger outcome.
func (m *MetricsService) RecordEnrollment(outcome string) {
	if m == nil {
		return
	}
	m.enrollmentAttempts.WithLabelValues(outcome).Inc()
	if outcome == OutcomeEnrolled {
		atomic.AddUint64(&m.enrolledCount, 1)
	}
}

// RecordCapacityRetry counts a lost compare-and-swap on a registration count.
func (m *MetricsService) RecordCapacityRetry() {
	if m == nil {
		return
	}
	m.capacityRetries.Inc()
	atomic.AddUint64(&m.retryCount, 1)
}

// RecordSessionsCreated adds n created sessions.
func (m *MetricsService) RecordSessionsCreated(n int) {
	if m == nil {
		return
	}
	m.sessionsCreated.Add(float64(n))
}

// RecordMessageSent counts one appended message.
func (m *MetricsService) RecordMessageSent() {
	if m == nil {
		return
	}
	m.messagesSent.Inc()
}

// Snapshot returns aggregated metrics for the JSON status endpoint.
func (m *MetricsService) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var cacheRatio float64
	if totalLookups := hits + misses; totalLookups > 0 {
		cacheRatio = float64(hits) / float64(totalLookups)
	}

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	return MetricsSnapshot{
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		CacheHits:                hits,
		CacheMisses:              misses,
		CacheHitRatio:            cacheRatio,
		EnrollmentsSucceeded:     atomic.LoadUint64(&m.enrolledCount),
		CapacityRetries:          atomic.LoadUint64(&m.retryCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
