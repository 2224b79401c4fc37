// Package metrics provides Prometheus metrics for the snakedraft optimizer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector exported by the optimizer.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Evolution
	generations     prometheus.Counter
	bestFitness     prometheus.Gauge
	meanFitness     prometheus.Gauge
	fitnessStdDev   prometheus.Gauge
	bestEverFitness prometheus.Gauge
	diversity       prometheus.Gauge
	draftDuration   prometheus.Histogram
	scoringDuration prometheus.Histogram
	evolveDuration  prometheus.Histogram
	picks           prometheus.Counter

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Workers
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// Hall of fame and checkpoints
	hallOfFameSize          prometheus.Gauge
	repositoryUpdateLatency prometheus.Histogram
	checkpoints             prometheus.Counter
	checkpointErrors        prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // registry served by /healthz

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "snakedraft",
		subsystem:        "evolution",
		histogramBuckets: prometheus.ExponentialBuckets(0.05, 2, 16),
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

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.generations = m.counter("generations_total", "Total number of completed generations")
	m.bestFitness = m.gauge("best_fitness", "Best lineup fitness in the latest generation")
	m.meanFitness = m.gauge("mean_fitness", "Mean lineup fitness in the latest generation")
	m.fitnessStdDev = m.gauge("fitness_stddev", "Standard deviation of lineup fitness in the latest generation")
	m.bestEverFitness = m.gauge("best_ever_fitness", "Best lineup fitness observed in this run")
	m.diversity = m.gauge("population_diversity", "Mean pairwise L1 distance between genomes")
	m.draftDuration = m.histogram("draft_duration_milliseconds", "Time spent simulating one snake draft")
	m.scoringDuration = m.histogram("scoring_duration_milliseconds", "Time spent scoring every roster of one generation")
	m.evolveDuration = m.histogram("evolve_duration_milliseconds", "Time spent building the next generation")
	m.picks = m.counter("picks_total", "Total number of athletes drafted")

	m.queueSize = m.gauge("queue_size", "Number of scoring jobs waiting in the queue")
	m.queueCapacity = m.gauge("queue_capacity", "Capacity of the scoring job queue")
	m.queueEnqueued = m.counter("queue_enqueue_total", "Total number of scoring jobs enqueued")
	m.queueDequeued = m.counter("queue_dequeue_total", "Total number of scoring jobs dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Total number of rejected scoring jobs")

	m.workerActiveCount = m.gauge("worker_active_count", "Number of running scoring workers")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Time a worker spends on one roster")
	m.workerErrors = m.counter("worker_errors_total", "Total number of failed scoring jobs")

	m.hallOfFameSize = m.gauge("hall_of_fame_size", "Number of strategies kept in the hall of fame")
	m.repositoryUpdateLatency = m.histogram("repository_update_latency_milliseconds", "Hall of fame insert latency")
	m.checkpoints = m.counter("checkpoints_total", "Total number of saved checkpoints")
	m.checkpointErrors = m.counter("checkpoint_errors_total", "Total number of failed checkpoint saves")

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "http",
		Name:        "requests_total",
		Help:        "Total number of HTTP requests",
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   "http",
		Name:        "request_duration_milliseconds",
		Help:        "HTTP request duration",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "errors_by_component_total",
		Help:        "Errors grouped by component and type",
		ConstLabels: m.constLabels,
	}, []string{"component", "error_type"})

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
}

// Evolution.

// RecordGeneration records the fitness summary of a completed generation.
func RecordGeneration(best, mean, stddev, diversity float64) {
	globalManager.generations.Inc()
	globalManager.bestFitness.Set(best)
	globalManager.meanFitness.Set(mean)
	globalManager.fitnessStdDev.Set(stddev)
	globalManager.diversity.Set(diversity)
}

// UpdateBestEverFitness sets the run-wide best fitness.
func UpdateBestEverFitness(fitness float64) {
	globalManager.bestEverFitness.Set(fitness)
}

// RecordDraftDuration records one draft simulation.
func RecordDraftDuration(latencyMs float64) {
	globalManager.draftDuration.Observe(latencyMs)
}

// RecordScoringDuration records scoring of a whole generation.
func RecordScoringDuration(latencyMs float64) {
	globalManager.scoringDuration.Observe(latencyMs)
}

// RecordEvolveDuration records the selection/recombination step.
func RecordEvolveDuration(latencyMs float64) {
	globalManager.evolveDuration.Observe(latencyMs)
}

// RecordPicks adds n drafted athletes.
func RecordPicks(n int) {
	globalManager.picks.Add(float64(n))
}

// Queue.

// UpdateQueueSize sets the current queue depth.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// Workers.

// UpdateWorkerActiveCount sets the number of running workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records the time spent on one job.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// Hall of fame and checkpoints.

// UpdateHallOfFameSize sets the number of stored strategies.
func UpdateHallOfFameSize(count int) {
	globalManager.hallOfFameSize.Set(float64(count))
}

// RecordRepositoryUpdateLatency records a hall of fame insert.
func RecordRepositoryUpdateLatency(latencyMs float64) {
	globalManager.repositoryUpdateLatency.Observe(latencyMs)
}

// RecordCheckpoint increments the saved checkpoint counter.
func RecordCheckpoint() {
	globalManager.checkpoints.Inc()
}

// RecordCheckpointError increments the failed checkpoint counter.
func RecordCheckpointError() {
	globalManager.checkpointErrors.Inc()
}

// HTTP.

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Errors.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// System.

// UpdateSystemMemoryUsage sets the heap usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// Init replaces the global manager with one built from opts on a fresh
// registry. Call it once at startup, before any metric is recorded.
func Init(opts ...Option) {
	customRegistry = prometheus.NewRegistry()
	globalManager = NewManager(append([]Option{WithPrometheusRegistry(customRegistry)}, opts...)...)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
