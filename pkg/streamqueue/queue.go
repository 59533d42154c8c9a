// Package streamqueue provides the bounded producer/consumer line queue
// behind the streaming ingest mode.
//
// # Lifecycle
//
// A Queue is single-use: construct, Start exactly one consumer, Produce
// from any number of goroutines, Stop. Produce blocks while the queue is
// full, which is the backpressure mechanism the streaming mode relies on,
// so a full queue with no running consumer blocks producers indefinitely.
// After Stop the queue drains whatever is buffered and every later
// Produce fails with ErrorTypeQueueClosed.
//
// # Events
//
// Subscribers registered with OnRawData are invoked synchronously inside
// Produce, after the line is enqueued and before Produce returns.
//
// Example:
//
//	q := streamqueue.New(config.QueueConfig{Capacity: 100})
//	if err := q.Start(coordinator.ProcessRecord); err != nil {
//		return err
//	}
//	for _, line := range lines {
//		if err := q.Produce(line); err != nil {
//			return err
//		}
//	}
//	return q.Stop()
package streamqueue

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/borealis/pkg/config"
	"github.com/ajitpratap0/borealis/pkg/errors"
	"github.com/ajitpratap0/borealis/pkg/logger"
	"github.com/ajitpratap0/borealis/pkg/metrics"
)

const (
	defaultCapacity    = 100
	defaultStopTimeout = 5 * time.Second

	queueName = "stream"
)

// Queue is a bounded FIFO of raw input lines with a single consumer.
type Queue struct {
	// mu guards closed and subscribers. Producers hold it shared across
	// the channel send so Stop cannot close the channel under them;
	// Start shares it too, so a consumer can still be attached while
	// producers sit blocked on a full queue.
	mu          sync.RWMutex
	closed      bool
	subscribers []func(string)

	running atomic.Bool

	ch          chan string
	done        chan struct{}
	stopTimeout time.Duration

	produced atomic.Int64
	consumed atomic.Int64

	logger    *zap.Logger
	collector *metrics.Collector
}

// New builds a stopped-state queue from cfg. Capacity and StopTimeout
// fall back to 100 lines and 5 seconds when unset.
func New(cfg config.QueueConfig) *Queue {
	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	stopTimeout := cfg.StopTimeout
	if stopTimeout <= 0 {
		stopTimeout = defaultStopTimeout
	}

	return &Queue{
		ch:          make(chan string, capacity),
		done:        make(chan struct{}),
		stopTimeout: stopTimeout,
		logger:      logger.Get().With(zap.String("component", "streamqueue")),
		collector:   metrics.NewCollector("streamqueue"),
	}
}

// OnRawData registers a callback fired synchronously inside every
// successful Produce. Register before producing begins; a callback
// added mid-stream only sees lines produced after registration.
func (q *Queue) OnRawData(fn func(raw string)) {
	if fn == nil {
		return
	}
	q.mu.Lock()
	q.subscribers = append(q.subscribers, fn)
	q.mu.Unlock()
}

// Produce enqueues one raw line, blocking while the queue is full.
// Fails with ErrorTypeQueueClosed once Stop has been called.
func (q *Queue) Produce(raw string) error {
	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		return errors.New(errors.ErrorTypeQueueClosed, "streaming queue is stopped")
	}

	// The read lock spans the send so Stop cannot close the channel
	// underneath a blocked producer.
	q.ch <- raw
	q.produced.Add(1)
	q.collector.SetQueueDepth(queueName, len(q.ch))
	subscribers := q.subscribers
	q.mu.RUnlock()

	for _, fn := range subscribers {
		fn(raw)
	}
	return nil
}

// Start spawns the single consumer goroutine, which drains lines in
// FIFO order and hands each to process. A panic inside process is
// logged and the consumer moves on to the next line. A second Start
// without an intervening Stop fails with ErrorTypeAlreadyRunning.
func (q *Queue) Start(process func(raw string)) error {
	if process == nil {
		return errors.New(errors.ErrorTypeValidation, "queue consumer requires a process function")
	}

	// Shared lock: producers blocked on a full queue also hold it
	// shared, and attaching the consumer is exactly what frees them.
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return errors.New(errors.ErrorTypeQueueClosed, "streaming queue is stopped")
	}
	if !q.running.CompareAndSwap(false, true) {
		return errors.New(errors.ErrorTypeAlreadyRunning, "streaming queue consumer already running")
	}

	go q.consume(process)

	q.logger.Debug("streaming queue consumer started",
		zap.Int("capacity", cap(q.ch)))
	return nil
}

// Stop marks the queue complete and waits up to the configured stop
// timeout for the consumer to finish draining. Returns nil after a
// clean drain, ErrorTypeTimeout when the window elapses with the
// consumer still running. Safe to call more than once.
func (q *Queue) Stop() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	if !q.running.Load() {
		// Never started; nothing to drain.
		return nil
	}

	select {
	case <-q.done:
		q.logger.Debug("streaming queue drained",
			zap.Int64("produced", q.produced.Load()),
			zap.Int64("consumed", q.consumed.Load()))
		return nil
	case <-time.After(q.stopTimeout):
		q.logger.Warn("streaming queue consumer did not drain in time",
			zap.Duration("timeout", q.stopTimeout),
			zap.Int64("produced", q.produced.Load()),
			zap.Int64("consumed", q.consumed.Load()))
		return errors.New(errors.ErrorTypeTimeout, "streaming queue consumer did not drain in time").
			WithDetail("timeout", q.stopTimeout.String())
	}
}

// Depth reports the number of buffered lines.
func (q *Queue) Depth() int {
	return len(q.ch)
}

// Capacity reports the queue bound.
func (q *Queue) Capacity() int {
	return cap(q.ch)
}

// Produced reports the number of lines accepted by Produce.
func (q *Queue) Produced() int64 {
	return q.produced.Load()
}

// Consumed reports the number of lines handed to the consumer.
func (q *Queue) Consumed() int64 {
	return q.consumed.Load()
}

// consume drains the channel until Stop closes it.
func (q *Queue) consume(process func(string)) {
	defer close(q.done)

	for raw := range q.ch {
		q.invoke(process, raw)
		q.consumed.Add(1)
		q.collector.SetQueueDepth(queueName, len(q.ch))
	}
}

// invoke shields the consumer loop from a panicking process function.
func (q *Queue) invoke(process func(string), raw string) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("queue consumer failed on line",
				zap.Any("panic", r),
				zap.String("line", raw))
		}
	}()

	process(raw)
}
