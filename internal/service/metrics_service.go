package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/peoplehub/hr-access-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP
// surface and the validation engine.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	fanOutSize      prometheus.Histogram
	transitions     *prometheus.CounterVec
	resolutions     *prometheus.CounterVec
	tasksCompleted  prometheus.Counter
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
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

	fanOutSize := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "validation_fanout_size",
		Help:    "Validation records created per fan-out",
		Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21},
	})

	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "access_request_transitions_total",
		Help: "Access request state transitions",
	}, []string{"from", "to"})

	resolutions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "validation_resolutions_total",
		Help: "Validation records resolved",
	}, []string{"state"})

	tasksCompleted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fulfillment_tasks_completed_total",
		Help: "Fulfillment tasks marked done",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, fanOutSize, transitions, resolutions, tasksCompleted, cacheHits, cacheMisses, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		fanOutSize:      fanOutSize,
		transitions:     transitions,
		resolutions:     resolutions,
		tasksCompleted:  tasksCompleted,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
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

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveFanOut records how many validation records a fan-out created.
func (m *MetricsService) ObserveFanOut(created int) {
	if m == nil {
		return
	}
	m.fanOutSize.Observe(float64(created))
}

// RecordTransition counts an aggregate state transition.
func (m *MetricsService) RecordTransition(from, to models.AccessRequestState) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(string(from), string(to)).Inc()
}

// RecordResolution counts a validation resolution by terminal state.
func (m *MetricsService) RecordResolution(state models.ValidationState) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(string(state)).Inc()
}

// RecordTaskCompleted counts a completed fulfillment task.
func (m *MetricsService) RecordTaskCompleted() {
	if m == nil {
		return
	}
	m.tasksCompleted.Inc()
}

// RecordCacheOperation counts cache hits and misses.
func (m *MetricsService) RecordCacheOperation(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}
