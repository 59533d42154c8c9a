// Package workerpool provides the bounded executor behind the
// pipeline's pool mode. A fixed set of workers pulls tasks from an
// unbuffered dispatch channel, so Submit suspends the caller until a
// worker is free instead of queueing unbounded work.
//
// # Futures
//
// Submitted tasks complete a Future carrying the return value or the
// failure. Task panics are recovered and surface as the future's
// error; the pool itself survives any task.
//
// # Generics
//
// Go methods cannot introduce type parameters, so the typed entry
// points Submit and ProcessBatch are top-level functions taking the
// pool as their first argument. SubmitVoid has no type parameter and
// lives on the pool.
//
// Example:
//
//	p := workerpool.New(0) // 0 selects runtime.NumCPU()
//	defer p.Shutdown()
//
//	f := workerpool.Submit(p, func() (int, error) { return compute(), nil })
//	n, err := f.Get(ctx)
package workerpool

import (
	"context"
	stderrors "errors"
	"runtime"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/ajitpratap0/borealis/pkg/errors"
	"github.com/ajitpratap0/borealis/pkg/logger"
	"github.com/ajitpratap0/borealis/pkg/metrics"
	stringpool "github.com/ajitpratap0/borealis/pkg/strings"
)

// Pool is a bounded executor with a fixed number of workers.
type Pool struct {
	mu      sync.RWMutex
	stopped bool

	dispatch chan func()
	wg       sync.WaitGroup
	workers  int

	submitted atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64

	logger *zap.Logger
}

// New starts a pool. workers <= 0 selects the logical CPU count.
func New(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	p := &Pool{
		dispatch: make(chan func()),
		workers:  workers,
		logger:   logger.Get().With(zap.String("component", "workerpool")),
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}

	p.logger.Debug("worker pool started", zap.Int("workers", workers))
	return p
}

// Workers returns the pool parallelism.
func (p *Pool) Workers() int { return p.workers }

// worker executes dispatched tasks until the channel closes.
func (p *Pool) worker() {
	defer p.wg.Done()

	for fn := range p.dispatch {
		metrics.ActiveWorkers.Inc()
		fn()
		metrics.ActiveWorkers.Dec()
	}
}

// submit hands one wrapped task to an idle worker, suspending the
// caller until a slot frees. Fails once the pool is shut down.
func (p *Pool) submit(fn func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		return errors.New(errors.ErrorTypeTerminated, "worker pool is shut down")
	}

	p.dispatch <- fn
	p.submitted.Add(1)
	metrics.TasksSubmitted.Inc()
	return nil
}

// Shutdown stops intake and waits for in-flight tasks to finish.
// Safe to call more than once.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	if !p.stopped {
		p.stopped = true
		close(p.dispatch)
	}
	p.mu.Unlock()

	p.wg.Wait()
}

// Stats is a point-in-time snapshot of pool counters.
type Stats struct {
	Workers   int   `json:"workers"`
	Submitted int64 `json:"submitted"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
}

// Stats returns the current pool counters.
func (p *Pool) Stats() Stats {
	return Stats{
		Workers:   p.workers,
		Submitted: p.submitted.Load(),
		Completed: p.completed.Load(),
		Failed:    p.failed.Load(),
	}
}

// Future is the pending result of a submitted task.
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// newFuture creates an incomplete future.
func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// complete resolves the future exactly once.
func (f *Future[T]) complete(value T, err error) {
	f.value = value
	f.err = err
	close(f.done)
}

// Done returns a channel closed when the future resolves.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Get waits for the task and returns its value and error. A context
// cancellation surfaces as ErrorTypeTimeout without affecting the
// still-running task.
func (f *Future[T]) Get(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, errors.Wrap(ctx.Err(), errors.ErrorTypeTimeout, "future wait cancelled")
	}
}

// Wait blocks like Get but discards the value.
func (f *Future[T]) Wait(ctx context.Context) error {
	_, err := f.Get(ctx)
	return err
}

// Submit schedules fn on the pool and returns its future. The caller
// suspends until a worker slot is free. If the pool is already shut
// down, the returned future is resolved with the failure.
func Submit[T any](p *Pool, fn func() (T, error)) *Future[T] {
	f := newFuture[T]()

	wrapped := func() {
		defer func() {
			if r := recover(); r != nil {
				p.completed.Add(1)
				p.failed.Add(1)
				metrics.TasksCompleted.Inc()
				metrics.TasksFailed.Inc()
				p.logger.Error("task panicked", zap.Any("panic", r))
				var zero T
				f.complete(zero, errors.New(errors.ErrorTypeInternal,
					stringpool.Sprintf("task panicked: %v", r)))
			}
		}()

		value, err := fn()
		p.completed.Add(1)
		metrics.TasksCompleted.Inc()
		if err != nil {
			p.failed.Add(1)
			metrics.TasksFailed.Inc()
		}
		f.complete(value, err)
	}

	if err := p.submit(wrapped); err != nil {
		var zero T
		f.complete(zero, err)
	}
	return f
}

// SubmitVoid schedules a task with no return value.
func (p *Pool) SubmitVoid(fn func() error) *Future[struct{}] {
	return Submit(p, func() (struct{}, error) {
		return struct{}{}, fn()
	})
}

// ProcessBatch submits one task per item and waits for all of them,
// returning after the slowest completes. Failures are joined into a
// single error; the batch always runs to completion.
func ProcessBatch[T any](p *Pool, items []T, fn func(T) error) error {
	if len(items) == 0 {
		return nil
	}

	futures := make([]*Future[struct{}], 0, len(items))
	for _, item := range items {
		item := item
		futures = append(futures, p.SubmitVoid(func() error {
			return fn(item)
		}))
	}

	var failures []error
	for _, f := range futures {
		if err := f.Wait(context.Background()); err != nil {
			failures = append(failures, err)
		}
	}

	if len(failures) == 0 {
		return nil
	}
	return errors.Wrap(stderrors.Join(failures...), errors.ErrorTypeInternal,
		stringpool.Sprintf("%d of %d batch tasks failed", len(failures), len(items)))
}

// Process-wide default pool, lazily constructed. Components take a
// *Pool dependency; the default exists for the CLI entry points.
var (
	defaultMu   sync.Mutex
	defaultPool *Pool
)

// Default returns the shared pool, creating it on first use with
// runtime.NumCPU() workers.
func Default() *Pool {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultPool == nil {
		defaultPool = New(0)
	}
	return defaultPool
}

// ResetDefault shuts down and clears the shared pool. Tests use this
// to isolate pool state.
func ResetDefault() {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultPool != nil {
		defaultPool.Shutdown()
		defaultPool = nil
	}
}
