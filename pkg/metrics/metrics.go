// Package metrics provides performance tracking and observability for
// Borealis using Prometheus metrics. It offers collectors for pipeline
// indicators including throughput, latency, drop rates, and queue depth.
//
// # Overview
//
// The metrics package provides:
//   - Prometheus-compatible metrics collection
//   - Pre-defined metrics for pipeline operations
//   - Throughput and latency tracking utilities
//   - Thread-safe metric recording
//   - Automatic metric registration
//
// # Basic Usage
//
//	// Record processed records
//	metrics.RecordsProcessed.WithLabelValues("standard", "success").Inc()
//
//	// Track processing latency
//	timer := metrics.NewTimer("process_record")
//	coordinator.ProcessRecord(line)
//	duration := timer.Stop()
//	metrics.ProcessingLatency.WithLabelValues("sequential").Observe(float64(duration.Nanoseconds()))
//
//	// Track throughput
//	tracker := metrics.NewThroughputTracker("stream")
//	for line := range lines {
//	    process(line)
//	    tracker.Increment(1)
//	}
//	throughput := tracker.GetAndReset()
//
// # Metric Types
//
// Counter: Monotonically increasing values (e.g., total records processed)
// Gauge: Values that can go up or down (e.g., queue depth)
// Histogram: Distribution of values (e.g., latency percentiles)
//
// # Performance Considerations
//
// Metrics are designed to have minimal overhead:
//   - Lock-free atomic operations where possible
//   - Efficient histogram buckets
//   - Lazy evaluation of expensive calculations
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecordsProcessed tracks the total number of records processed by the
	// pipeline. Labels: parser (which parser claimed the line), status
	// (success/failure)
	//
	// Example:
	//	metrics.RecordsProcessed.WithLabelValues("standard", "success").Inc()
	RecordsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "borealis_records_processed_total",
			Help: "Total number of records processed",
		},
		[]string{"parser", "status"},
	)

	// RecordsDropped tracks lines that never became records.
	// Labels: reason (unparseable, malformed)
	RecordsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "borealis_records_dropped_total",
			Help: "Total number of input lines dropped before processing",
		},
		[]string{"reason"},
	)

	// AlertsEmitted tracks alerts appended to the alert log.
	// Labels: kind (high_temp, low_temp, high_humidity, low_humidity, low_battery)
	AlertsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "borealis_alerts_emitted_total",
			Help: "Total number of alerts emitted",
		},
		[]string{"kind"},
	)

	// ObserverFailures tracks observer callbacks that panicked or returned
	// an error. Labels: observer
	ObserverFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "borealis_observer_failures_total",
			Help: "Total number of observer notification failures",
		},
		[]string{"observer"},
	)

	// SinkFailures tracks failed sink writes. Labels: sink
	SinkFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "borealis_sink_failures_total",
			Help: "Total number of sink write failures",
		},
		[]string{"sink"},
	)

	// QueueDepth tracks queue depths. Labels: queue_name
	QueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "borealis_queue_depth",
			Help: "Current queue depth",
		},
		[]string{"queue_name"},
	)

	// ActiveWorkers tracks how many pool workers are executing a task
	ActiveWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "borealis_active_workers",
			Help: "Number of worker pool slots currently busy",
		},
	)

	// TasksSubmitted counts tasks handed to the worker pool
	TasksSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "borealis_pool_tasks_submitted_total",
			Help: "Total number of tasks submitted to the worker pool",
		},
	)

	// TasksCompleted counts tasks that ran to completion, successfully or not
	TasksCompleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "borealis_pool_tasks_completed_total",
			Help: "Total number of tasks completed by the worker pool",
		},
	)

	// TasksFailed counts tasks that returned an error or panicked
	TasksFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "borealis_pool_tasks_failed_total",
			Help: "Total number of tasks that failed in the worker pool",
		},
	)

	// MailboxDepth tracks actor inbox backlogs. Labels: actor
	MailboxDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "borealis_actor_mailbox_depth",
			Help: "Current actor mailbox depth",
		},
		[]string{"actor"},
	)

	// ProcessingLatency tracks the distribution of per-record latencies in
	// nanoseconds. The histogram buckets are optimized for sub-millisecond
	// latency tracking. Labels: mode (sequential/pool/stream)
	//
	// Example:
	//	start := time.Now()
	//	coordinator.ProcessRecord(line)
	//	metrics.ProcessingLatency.WithLabelValues("pool").
	//	    Observe(float64(time.Since(start).Nanoseconds()))
	ProcessingLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "borealis_record_processing_latency_nanoseconds",
			Help: "Per-record processing latency in nanoseconds",
			Buckets: []float64{
				100,    // 100ns - Ultra-low latency operations
				1000,   // 1μs - Memory operations
				10000,  // 10μs - Fast I/O operations
				100000, // 100μs - Contended operations
				1e6,    // 1ms - Standard processing
				1e7,    // 10ms - Complex fan-out
				1e8,    // 100ms - Slow sinks
				1e9,    // 1s - Degenerate cases
			},
		},
		[]string{"mode"},
	)

	// BatchDuration tracks whole-run durations per execution mode in seconds
	BatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "borealis_batch_duration_seconds",
			Help:    "Duration of full pipeline runs in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		},
		[]string{"mode"},
	)

	// Throughput tracks records per second. Labels: mode
	Throughput = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "borealis_throughput_records_per_second",
			Help: "Current throughput in records per second",
		},
		[]string{"mode"},
	)
)

// Collector provides a centralized metrics recording interface for one
// component. It binds the component name once so call sites stay terse,
// and forwards to the package-level Prometheus collectors.
type Collector struct {
	name      string
	startTime time.Time
}

// NewCollector creates a new metrics collector for a component.
// The name parameter identifies the component in metrics labels.
//
// Example:
//
//	collector := metrics.NewCollector("coordinator")
//	collector.RecordProcessed("standard", nil)
//	collector.SetQueueDepth("stream", queue.Len())
func NewCollector(name string) *Collector {
	return &Collector{
		name:      name,
		startTime: time.Now(),
	}
}

// Name returns the component name the collector was created with
func (c *Collector) Name() string {
	return c.name
}

// StartTime returns when the collector was created
func (c *Collector) StartTime() time.Time {
	return c.startTime
}

// Uptime returns the elapsed time since the collector was created
func (c *Collector) Uptime() time.Duration {
	return time.Since(c.startTime)
}

// RecordProcessed increments the processed counter, deriving the status
// label from err
func (c *Collector) RecordProcessed(parser string, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	RecordsProcessed.WithLabelValues(parser, status).Inc()
}

// RecordDropped increments the dropped counter for a reason
func (c *Collector) RecordDropped(reason string) {
	RecordsDropped.WithLabelValues(reason).Inc()
}

// RecordAlert increments the alert counter for an alert kind
func (c *Collector) RecordAlert(kind string) {
	AlertsEmitted.WithLabelValues(kind).Inc()
}

// RecordObserverFailure increments the observer failure counter
func (c *Collector) RecordObserverFailure(observer string) {
	ObserverFailures.WithLabelValues(observer).Inc()
}

// RecordSinkFailure increments the sink failure counter
func (c *Collector) RecordSinkFailure(sink string) {
	SinkFailures.WithLabelValues(sink).Inc()
}

// SetQueueDepth records the current depth of a named queue
func (c *Collector) SetQueueDepth(queue string, depth int) {
	QueueDepth.WithLabelValues(queue).Set(float64(depth))
}

// SetMailboxDepth records the current depth of an actor mailbox
func (c *Collector) SetMailboxDepth(actor string, depth int) {
	MailboxDepth.WithLabelValues(actor).Set(float64(depth))
}

// ObserveProcessing records one per-record latency observation
func (c *Collector) ObserveProcessing(mode string, d time.Duration) {
	ProcessingLatency.WithLabelValues(mode).Observe(float64(d.Nanoseconds()))
}

// ObserveBatch records one whole-run duration observation
func (c *Collector) ObserveBatch(mode string, d time.Duration) {
	BatchDuration.WithLabelValues(mode).Observe(d.Seconds())
}

// Timer provides a simple timing mechanism for measuring operation durations.
// It captures the start time on creation and calculates elapsed time on stop.
type Timer struct {
	start time.Time
	name  string
}

// NewTimer creates a new timer and starts timing immediately.
// The name parameter is for identification in logs or metrics.
//
// Example:
//
//	timer := metrics.NewTimer("pipeline_run")
//	coordinator.RunSequential(ctx, lines)
//	duration := timer.Stop()
//	logger.Info("run finished", zap.Duration("duration", duration))
func NewTimer(name string) *Timer {
	return &Timer{
		start: time.Now(),
		name:  name,
	}
}

// Stop stops the timer and returns the elapsed duration since creation.
// The timer can be stopped multiple times, each returning the total
// elapsed time since creation.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}

// ThroughputTracker tracks throughput (records per second) over time
// windows. It automatically updates the Throughput gauge when queried.
// Thread-safe for concurrent use.
type ThroughputTracker struct {
	mu        sync.Mutex
	count     int64
	lastReset time.Time
	mode      string
}

// NewThroughputTracker creates a new throughput tracker for an execution
// mode. The mode parameter is used as the metric label.
//
// Example:
//
//	tracker := metrics.NewThroughputTracker("stream")
//	for line := range lines {
//	    process(line)
//	    tracker.Increment(1)
//	}
//	throughput := tracker.GetAndReset()
//	logger.Info("throughput", zap.Float64("records_per_sec", throughput))
func NewThroughputTracker(mode string) *ThroughputTracker {
	return &ThroughputTracker{
		lastReset: time.Now(),
		mode:      mode,
	}
}

// Increment adds n to the record count. Safe for concurrent use.
func (t *ThroughputTracker) Increment(n int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.count += n
}

// GetAndReset calculates the current throughput (records/second),
// updates the Prometheus gauge, resets the counter, and returns
// the calculated throughput. Safe for concurrent use.
func (t *ThroughputTracker) GetAndReset() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	elapsed := time.Since(t.lastReset).Seconds()
	if elapsed == 0 {
		return 0
	}

	throughput := float64(t.count) / elapsed

	t.count = 0
	t.lastReset = time.Now()

	Throughput.WithLabelValues(t.mode).Set(throughput)

	return throughput
}
