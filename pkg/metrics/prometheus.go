// Package metrics provides Prometheus metrics for the lottoheat service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Win ingestion
	winsSubmitted prometheus.Counter
	winsDuplicate prometheus.Counter
	winsRejected  prometheus.Counter
	winsVerified  prometheus.Counter
	votes         *prometheus.CounterVec

	// Heat scoring
	heatRecomputes       prometheus.Counter
	heatRecomputeLatency prometheus.Histogram
	heatErrors           prometheus.Counter

	// Recommendations
	recommendationRequests *prometheus.CounterVec
	recommendationLatency  prometheus.Histogram
	gamesExcluded          prometheus.Counter
	recommendationsByTier  *prometheus.GaugeVec

	// Leaderboard
	leaderboardSize    prometheus.Gauge
	leaderboardUpdates prometheus.Counter
	leaderboardStale   prometheus.Counter
	leaderboardQueries prometheus.Histogram

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Workers
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// Scheduled refresh
	refreshRuns     *prometheus.CounterVec
	refreshDuration prometheus.Histogram
	refreshLastUnix prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpRateLimited     *prometheus.CounterVec

	errorsByComponent *prometheus.CounterVec

	// Process
	systemMemoryBytes   prometheus.Gauge
	systemGoroutines    prometheus.Gauge
	systemGCPauseMillis prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "lottoheat",
		histogramBuckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 1000},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: m.histogramBuckets,
	})
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.winsSubmitted = m.counter("wins_submitted_total", "Win records accepted for scoring")
	m.winsDuplicate = m.counter("wins_duplicate_total", "Win submissions dropped as duplicates")
	m.winsRejected = m.counter("wins_rejected_total", "Win submissions rejected by validation or backpressure")
	m.winsVerified = m.counter("wins_verified_total", "Win records that crossed the community verification threshold")
	m.votes = m.counterVec("votes_total", "Community votes on win records", "direction")

	m.heatRecomputes = m.counter("heat_recomputes_total", "Store heat score recomputations")
	m.heatRecomputeLatency = m.histogram("heat_recompute_latency_milliseconds", "Heat score recompute latency in milliseconds")
	m.heatErrors = m.counter("heat_errors_total", "Failed heat score recomputations")

	m.recommendationRequests = m.counterVec("recommendation_requests_total", "Recommendation and analysis requests", "kind")
	m.recommendationLatency = m.histogram("recommendation_latency_milliseconds", "Recommendation ranking latency in milliseconds")
	m.gamesExcluded = m.counter("games_excluded_total", "Games skipped by ranking for unusable prize data")
	m.recommendationsByTier = m.gaugeVec("recommendations_last", "Games per tier in the last recommendation", "tier")

	m.leaderboardSize = m.gauge("leaderboard_size", "Stores tracked by the hot-store leaderboard")
	m.leaderboardUpdates = m.counter("leaderboard_updates_total", "Leaderboard upserts")
	m.leaderboardStale = m.counter("leaderboard_stale_updates_total", "Leaderboard upserts dropped for an older catalog version")
	m.leaderboardQueries = m.histogram("leaderboard_query_latency_milliseconds", "Leaderboard query latency in milliseconds")

	m.queueSize = m.gauge("queue_size", "Pending heat recompute jobs")
	m.queueCapacity = m.gauge("queue_capacity", "Heat recompute queue capacity")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Queue size / capacity")
	m.queueEnqueued = m.counter("queue_enqueue_total", "Jobs enqueued")
	m.queueDequeued = m.counter("queue_dequeue_total", "Jobs dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Jobs rejected because the queue was full or closed")

	m.workerCount = m.gauge("worker_count", "Configured recompute workers")
	m.workerActiveCount = m.gauge("worker_active_count", "Workers currently processing a job")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Per-job worker latency in milliseconds")
	m.workerErrors = m.counter("worker_errors_total", "Jobs that failed in a worker")

	m.refreshRuns = m.counterVec("refresh_runs_total", "Scheduled leaderboard refresh runs", "result")
	m.refreshDuration = m.histogram("refresh_duration_milliseconds", "Scheduled refresh duration in milliseconds")
	m.refreshLastUnix = m.gauge("refresh_last_unix", "Unix time of the last completed refresh")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by route, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})
	m.httpRateLimited = m.counterVec("http_rate_limited_total", "Requests refused by the rate limiter", "endpoint")

	m.errorsByComponent = m.counterVec("errors_by_component_total", "Errors by component and type", "component", "error_type")

	m.systemMemoryBytes = m.gauge("system_memory_bytes", "Heap bytes allocated")
	m.systemGoroutines = m.gauge("system_goroutines", "Live goroutines")
	m.systemGCPauseMillis = m.gauge("system_gc_pause_milliseconds", "Average GC pause in milliseconds")
}

func (m *Manager) gaugeVec(name, help string, labels ...string) *prometheus.GaugeVec {
	return promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func ms(d time.Duration) float64 { return float64(d) / float64(time.Millisecond) }

// RecordWinSubmitted increments accepted win submissions.
func RecordWinSubmitted() { globalManager.winsSubmitted.Inc() }

// RecordWinDuplicate increments duplicate win submissions.
func RecordWinDuplicate() { globalManager.winsDuplicate.Inc() }

// RecordWinRejected increments rejected win submissions.
func RecordWinRejected() { globalManager.winsRejected.Inc() }

// RecordWinVerified increments records that became verified.
func RecordWinVerified() { globalManager.winsVerified.Inc() }

// RecordVote counts a vote by direction.
func RecordVote(up bool) {
	dir := "down"
	if up {
		dir = "up"
	}
	globalManager.votes.WithLabelValues(dir).Inc()
}

// RecordHeatRecompute counts a recompute and observes its latency.
func RecordHeatRecompute(d time.Duration) {
	globalManager.heatRecomputes.Inc()
	globalManager.heatRecomputeLatency.Observe(ms(d))
}

// RecordHeatError increments failed recomputes.
func RecordHeatError() { globalManager.heatErrors.Inc() }

// RecordRecommendation counts a request of the given kind and observes its latency.
func RecordRecommendation(kind string, d time.Duration) {
	globalManager.recommendationRequests.WithLabelValues(kind).Inc()
	globalManager.recommendationLatency.Observe(ms(d))
}

// RecordGamesExcluded adds n games skipped for unusable data.
func RecordGamesExcluded(n int) {
	if n > 0 {
		globalManager.gamesExcluded.Add(float64(n))
	}
}

// UpdateRecommendationTiers sets the per-tier counts of the last response.
func UpdateRecommendationTiers(safe, moderate, insane int) {
	globalManager.recommendationsByTier.WithLabelValues("safe").Set(float64(safe))
	globalManager.recommendationsByTier.WithLabelValues("moderate").Set(float64(moderate))
	globalManager.recommendationsByTier.WithLabelValues("insane").Set(float64(insane))
}

// UpdateLeaderboardSize sets the number of stores in the leaderboard.
func UpdateLeaderboardSize(n int) { globalManager.leaderboardSize.Set(float64(n)) }

// RecordLeaderboardUpdate increments leaderboard upserts.
func RecordLeaderboardUpdate() { globalManager.leaderboardUpdates.Inc() }

// RecordLeaderboardStale increments upserts dropped as out of date.
func RecordLeaderboardStale() { globalManager.leaderboardStale.Inc() }

// RecordLeaderboardQuery observes a leaderboard query.
func RecordLeaderboardQuery(d time.Duration) { globalManager.leaderboardQueries.Observe(ms(d)) }

// UpdateQueueSize sets the queue backlog.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(ratio float64) { globalManager.queueUtilization.Set(ratio) }

// RecordQueueEnqueue increments enqueued jobs.
func RecordQueueEnqueue() { globalManager.queueEnqueued.Inc() }

// RecordQueueDequeue increments dequeued jobs.
func RecordQueueDequeue() { globalManager.queueDequeued.Inc() }

// RecordQueueEnqueueError increments refused enqueues.
func RecordQueueEnqueueError() { globalManager.queueEnqueueErrors.Inc() }

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(n int) { globalManager.workerCount.Set(float64(n)) }

// UpdateWorkerActiveCount sets the number of busy workers.
func UpdateWorkerActiveCount(n int) { globalManager.workerActiveCount.Set(float64(n)) }

// RecordWorkerProcessingLatency observes one job.
func RecordWorkerProcessingLatency(d time.Duration) {
	globalManager.workerProcessingLatency.Observe(ms(d))
}

// RecordWorkerError increments failed jobs.
func RecordWorkerError() { globalManager.workerErrors.Inc() }

// RecordRefresh counts a scheduled refresh and its outcome.
func RecordRefresh(d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	globalManager.refreshRuns.WithLabelValues(result).Inc()
	globalManager.refreshDuration.Observe(ms(d))
	if err == nil {
		globalManager.refreshLastUnix.Set(float64(time.Now().Unix()))
	}
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordRateLimited counts a request refused by the limiter.
func RecordRateLimited(endpoint string) { globalManager.httpRateLimited.WithLabelValues(endpoint).Inc() }

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets allocated heap bytes.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryBytes.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(n int) { globalManager.systemGoroutines.Set(float64(n)) }

// RecordSystemGCPauseTime sets the average GC pause.
func RecordSystemGCPauseTime(millis float64) { globalManager.systemGCPauseMillis.Set(millis) }

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
