// Package metrics provides Prometheus metrics for the standings service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every metric of the service.
type Manager struct {
	namespace        string
	subsystem        string
	latencyBuckets   []float64
	iterationBuckets []float64
	registry         prometheus.Registerer

	// Solver
	solves         *prometheus.CounterVec
	solveLatency   *prometheus.HistogramVec
	iterations     *prometheus.HistogramVec
	lastDelta      prometheus.Gauge
	notConverged   prometheus.Counter
	competitors    prometheus.Gauge
	matchesPerRank prometheus.Histogram

	// Replay jobs
	replayJobs    *prometheus.CounterVec
	replayFrames  prometheus.Counter
	replayLatency prometheus.Histogram
	digestHits    prometheus.Counter

	// Queue, workers and store
	queueSize      prometheus.Gauge
	queueCapacity  prometheus.Gauge
	queueEnqueued  prometheus.Counter
	queueRejected  prometheus.Counter
	workerCount    prometheus.Gauge
	workerActive   prometheus.Gauge
	storeSize      prometheus.Gauge
	storeEvictions prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
	errorsByType      *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec

	// System
	memoryUsage    prometheus.Gauge
	goroutineCount prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its metrics.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "standings",
		subsystem:        "engine",
		latencyBuckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 5000},
		iterationBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric
	auto := promauto.With(m.registry)

	m.solves = auto.NewCounterVec(m.counterOpts("solves_total",
		"Total number of rank solves by stopping policy"), []string{"policy"})
	m.solveLatency = auto.NewHistogramVec(m.histogramOpts("solve_latency_milliseconds",
		"Rank solve latency in milliseconds", m.latencyBuckets), []string{"policy"})
	m.iterations = auto.NewHistogramVec(m.histogramOpts("solve_iterations",
		"Power iteration steps per solve", m.iterationBuckets), []string{"policy"})
	m.lastDelta = auto.NewGauge(m.gaugeOpts("solve_last_delta",
		"L1 distance between the last two score vectors of the latest solve"))
	m.notConverged = auto.NewCounter(m.counterOpts("solve_not_converged_total",
		"Convergence solves that hit the iteration cap"))
	m.competitors = auto.NewGauge(m.gaugeOpts("competitors",
		"Competitors in the latest solved defeat graph"))
	m.matchesPerRank = auto.NewHistogram(m.histogramOpts("matches_per_request",
		"Match records per ranking request", prometheus.ExponentialBuckets(1, 4, 10)))

	m.replayJobs = auto.NewCounterVec(m.counterOpts("replay_jobs_total",
		"Replay jobs by final status"), []string{"status"})
	m.replayFrames = auto.NewCounter(m.counterOpts("replay_frames_total",
		"Replay frames computed"))
	m.replayLatency = auto.NewHistogram(m.histogramOpts("replay_latency_milliseconds",
		"Time to compute every frame of a replay job", m.latencyBuckets))
	m.digestHits = auto.NewCounter(m.counterOpts("replay_digest_hits_total",
		"Replay submissions answered by an existing job with the same match list"))

	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Current replay queue length"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Replay queue capacity"))
	m.queueEnqueued = auto.NewCounter(m.counterOpts("queue_enqueue_total", "Replay jobs enqueued"))
	m.queueRejected = auto.NewCounter(m.counterOpts("queue_rejected_total", "Replay jobs rejected because the queue was full"))
	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count", "Configured replay workers"))
	m.workerActive = auto.NewGauge(m.gaugeOpts("worker_active_count", "Replay workers currently running a job"))
	m.storeSize = auto.NewGauge(m.gaugeOpts("store_size", "Replay jobs retained in the job store"))
	m.storeEvictions = auto.NewCounter(m.counterOpts("store_evictions_total", "Replay jobs evicted from the job store"))

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total",
		"Total number of HTTP requests by endpoint and method"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", m.latencyBuckets), []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = auto.NewCounterVec(m.counterOpts("errors_by_component_total",
		"Errors by component"), []string{"component", "error_type"})
	m.errorsByType = auto.NewCounterVec(m.counterOpts("errors_by_type_total",
		"Errors by type and severity"), []string{"error_type", "severity"})
	m.errorsByEndpoint = auto.NewCounterVec(m.counterOpts("errors_by_endpoint_total",
		"Errors by endpoint"), []string{"endpoint", "method", "error_type"})

	m.memoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "Heap memory in use"))
	m.goroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
}

// RecordSolve records one completed solve.
func RecordSolve(policy string, latencyMs float64, iterations int, delta float64, converged bool) {
	globalManager.recordSolve(policy, latencyMs, iterations, delta, converged)
}

func (m *Manager) recordSolve(policy string, latencyMs float64, iterations int, delta float64, converged bool) {
	m.solves.WithLabelValues(policy).Inc()
	m.solveLatency.WithLabelValues(policy).Observe(latencyMs)
	m.iterations.WithLabelValues(policy).Observe(float64(iterations))
	m.lastDelta.Set(delta)
	if policy == "convergence" && !converged {
		m.notConverged.Inc()
	}
}

// UpdateCompetitors sets the competitor count of the latest solve.
func UpdateCompetitors(n int) { globalManager.competitors.Set(float64(n)) }

// RecordRankRequest records the size of a ranking request.
func RecordRankRequest(matches int) { globalManager.matchesPerRank.Observe(float64(matches)) }

// RecordReplayJob counts a finished replay job by status.
func RecordReplayJob(status string) { globalManager.replayJobs.WithLabelValues(status).Inc() }

// RecordReplayFrames adds n computed frames.
func RecordReplayFrames(n int) { globalManager.replayFrames.Add(float64(n)) }

// RecordReplayLatency records the wall time of a replay job.
func RecordReplayLatency(latencyMs float64) { globalManager.replayLatency.Observe(latencyMs) }

// RecordDigestHit counts a duplicate replay submission.
func RecordDigestHit() { globalManager.digestHits.Inc() }

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() { globalManager.queueEnqueued.Inc() }

// RecordQueueRejected increments the rejected enqueue counter.
func RecordQueueRejected() { globalManager.queueRejected.Inc() }

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

// UpdateWorkerActiveCount sets the number of busy workers.
func UpdateWorkerActiveCount(count int) { globalManager.workerActive.Set(float64(count)) }

// UpdateStoreSize sets the number of retained replay jobs.
func UpdateStoreSize(size int) { globalManager.storeSize.Set(float64(size)) }

// RecordStoreEviction increments the eviction counter.
func RecordStoreEviction() { globalManager.storeEvictions.Inc() }

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorsByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the heap memory in use.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.memoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) { globalManager.goroutineCount.Set(float64(count)) }

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
