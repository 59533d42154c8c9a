// Package observer implements the record broadcast channel of the
// pipeline. A Broadcaster holds an ordered set of observers and hands
// every processed record to each of them in attach order.
//
// # Delivery
//
// Notify snapshots the observer list under a read lock and invokes the
// callbacks without holding it, so observers may attach and detach
// concurrently with deliveries. A panicking observer is logged and
// counted; it never aborts the loop or unseats other observers.
//
// Example:
//
//	b := observer.NewBroadcaster()
//	b.Attach(observer.NewTemperatureMonitor(25, 30))
//	b.Attach(observer.NewStatsCollector())
//	b.Notify(rec)
package observer

import (
	"sync"

	"go.uber.org/zap"

	"github.com/ajitpratap0/borealis/pkg/logger"
	"github.com/ajitpratap0/borealis/pkg/metrics"
	"github.com/ajitpratap0/borealis/pkg/sensor"
)

// Observer receives every record the pipeline processes. OnRecord may
// be invoked from any goroutine; implementations guard their own state.
type Observer interface {
	// Name identifies the observer in logs and failure metrics.
	Name() string
	// OnRecord is called once per processed record.
	OnRecord(rec *sensor.Record)
}

// Broadcaster fans processed records out to attached observers.
type Broadcaster struct {
	mu        sync.RWMutex
	observers []Observer
	logger    *zap.Logger
	collector *metrics.Collector
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		logger:    logger.Get().With(zap.String("component", "observer")),
		collector: metrics.NewCollector("observer"),
	}
}

// Attach adds an observer. Insertion is set-like; attaching an already
// attached observer reports false and changes nothing.
func (b *Broadcaster) Attach(obs Observer) bool {
	if obs == nil {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, existing := range b.observers {
		if existing == obs {
			return false
		}
	}
	b.observers = append(b.observers, obs)
	b.logger.Debug("observer attached", zap.String("observer", obs.Name()))
	return true
}

// Detach removes an observer and reports whether it was attached.
func (b *Broadcaster) Detach(obs Observer) bool {
	if obs == nil {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for i, existing := range b.observers {
		if existing == obs {
			b.observers = append(b.observers[:i], b.observers[i+1:]...)
			b.logger.Debug("observer detached", zap.String("observer", obs.Name()))
			return true
		}
	}
	return false
}

// Count returns the number of attached observers.
func (b *Broadcaster) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.observers)
}

// Notify delivers the record to every observer in attach order. The
// list is snapshotted first, so callbacks run without the broadcaster
// lock. A panicking observer is logged and skipped.
func (b *Broadcaster) Notify(rec *sensor.Record) {
	if rec == nil {
		return
	}

	b.mu.RLock()
	snapshot := make([]Observer, len(b.observers))
	copy(snapshot, b.observers)
	b.mu.RUnlock()

	for _, obs := range snapshot {
		b.deliver(obs, rec)
	}
}

// deliver invokes one observer, containing any panic.
func (b *Broadcaster) deliver(obs Observer, rec *sensor.Record) {
	defer func() {
		if r := recover(); r != nil {
			b.collector.RecordObserverFailure(obs.Name())
			b.logger.Error("observer panicked",
				zap.String("observer", obs.Name()),
				zap.Any("panic", r),
				zap.String("serial", rec.Serial))
		}
	}()
	obs.OnRecord(rec)
}
