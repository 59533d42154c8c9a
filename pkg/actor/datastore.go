package actor

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/borealis/pkg/errors"
	"github.com/ajitpratap0/borealis/pkg/logger"
	"github.com/ajitpratap0/borealis/pkg/metrics"
	"github.com/ajitpratap0/borealis/pkg/sensor"
)

// StatsResult is the reply to an Analyze query: how many distinct
// sensors reported the queried type, and the per-field means across
// every record of those sensors. Battery is a percentage of capacity.
type StatsResult struct {
	Count        int     `json:"count"`
	Temperature  float64 `json:"temperature"`
	Humidity     float64 `json:"humidity"`
	BatteryLevel float64 `json:"battery_level"`
}

// Status is the reply to a Status query.
type Status struct {
	// Processed counts every record ingested since start
	Processed int64 `json:"processed"`
	// ActiveSensors counts distinct serials in storage
	ActiveSensors int `json:"active_sensors"`
}

type dataStoreOp int

const (
	dsIngest dataStoreOp = iota
	dsAnalyze
	dsStatus
	dsHistory
	dsStop
)

// dataStoreMsg is the single mailbox message shape. Reply channels are
// buffered so the actor never blocks answering a caller that gave up.
type dataStoreMsg struct {
	op           dataStoreOp
	rec          sensor.Record
	sensorType   string // also carries the serial for history queries
	statsReply   chan StatsResult
	statReply    chan Status
	historyReply chan []sensor.Record
}

// DataStoreActor owns the per-sensor record history. All state lives
// on the drain goroutine; the exported methods only pass messages.
type DataStoreActor struct {
	mu      sync.RWMutex
	stopped bool

	mailbox chan dataStoreMsg
	done    chan struct{}
	timeout time.Duration

	// processed mirrors the drain goroutine's counter for cheap
	// post-shutdown reads
	processed atomic.Int64

	// goroutine-owned state
	storage map[string][]sensor.Record

	logger    *zap.Logger
	collector *metrics.Collector
}

// NewDataStoreActor starts a data-store actor with the given mailbox
// capacity and request deadline.
func NewDataStoreActor(mailboxSize int, timeout time.Duration) *DataStoreActor {
	if mailboxSize <= 0 {
		mailboxSize = 100
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	a := &DataStoreActor{
		mailbox:   make(chan dataStoreMsg, mailboxSize),
		done:      make(chan struct{}),
		timeout:   timeout,
		storage:   make(map[string][]sensor.Record),
		logger:    logger.Get().With(zap.String("actor", "datastore")),
		collector: metrics.NewCollector("datastore"),
	}
	go a.run()
	return a
}

// Ingest enqueues one record. Records without a serial are accepted
// and dropped by the actor. Blocks while the mailbox is full; fails
// once the actor is stopped.
func (a *DataStoreActor) Ingest(rec sensor.Record) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.stopped {
		return errors.New(errors.ErrorTypeTerminated, "data store actor is stopped")
	}
	a.mailbox <- dataStoreMsg{op: dsIngest, rec: rec}
	return nil
}

// Analyze asks for aggregated statistics over sensors that reported
// the given type. Fails with ErrorTypeTimeout when no reply arrives
// within the deadline.
func (a *DataStoreActor) Analyze(sensorType string) (StatsResult, error) {
	reply := make(chan StatsResult, 1)

	a.mu.RLock()
	if a.stopped {
		a.mu.RUnlock()
		return StatsResult{}, errors.New(errors.ErrorTypeTerminated, "data store actor is stopped")
	}
	a.mailbox <- dataStoreMsg{op: dsAnalyze, sensorType: sensorType, statsReply: reply}
	a.mu.RUnlock()

	select {
	case res := <-reply:
		return res, nil
	case <-time.After(a.timeout):
		return StatsResult{}, errors.New(errors.ErrorTypeTimeout, "analyze request timed out").
			WithDetail("type", sensorType).
			WithDetail("timeout", a.timeout.String())
	}
}

// Status asks for the processed counter and distinct sensor count.
// Fails with ErrorTypeTimeout when no reply arrives within the
// deadline.
func (a *DataStoreActor) Status() (Status, error) {
	reply := make(chan Status, 1)

	a.mu.RLock()
	if a.stopped {
		a.mu.RUnlock()
		return Status{}, errors.New(errors.ErrorTypeTerminated, "data store actor is stopped")
	}
	a.mailbox <- dataStoreMsg{op: dsStatus, statReply: reply}
	a.mu.RUnlock()

	select {
	case res := <-reply:
		return res, nil
	case <-time.After(a.timeout):
		return Status{}, errors.New(errors.ErrorTypeTimeout, "status request timed out").
			WithDetail("timeout", a.timeout.String())
	}
}

// Stop enqueues the drain sentinel and waits for the goroutine to
// exit. Messages accepted before Stop are processed first. Stop is
// idempotent.
func (a *DataStoreActor) Stop() {
	a.mu.Lock()
	if !a.stopped {
		a.stopped = true
		a.mailbox <- dataStoreMsg{op: dsStop}
	}
	a.mu.Unlock()
	<-a.done
}

// Processed reads the mirrored record counter without a mailbox round-trip.
func (a *DataStoreActor) Processed() int64 {
	return a.processed.Load()
}

// run is the single consumer of the mailbox.
func (a *DataStoreActor) run() {
	defer close(a.done)

	for msg := range a.mailbox {
		a.collector.SetMailboxDepth("datastore", len(a.mailbox))

		switch msg.op {
		case dsIngest:
			a.ingest(msg.rec)
		case dsAnalyze:
			msg.statsReply <- a.analyze(msg.sensorType)
		case dsStatus:
			msg.statReply <- Status{
				Processed:     a.processed.Load(),
				ActiveSensors: len(a.storage),
			}
		case dsHistory:
			history := a.storage[msg.sensorType]
			out := make([]sensor.Record, len(history))
			copy(out, history)
			msg.historyReply <- out
		case dsStop:
			a.logger.Debug("data store actor draining complete",
				zap.Int64("processed", a.processed.Load()),
				zap.Int("sensors", len(a.storage)))
			return
		}
	}
}

// ingest appends the record to its serial's history.
func (a *DataStoreActor) ingest(rec sensor.Record) {
	if rec.Serial == "" {
		return
	}
	a.storage[rec.Serial] = append(a.storage[rec.Serial], rec)
	a.processed.Add(1)
}

// analyze aggregates every record of the sensors whose history holds
// at least one record of the requested type.
func (a *DataStoreActor) analyze(sensorType string) StatsResult {
	res := StatsResult{}

	var tempSum, humSum, batSum float64
	var tempN, humN, batN int

	for _, history := range a.storage {
		matched := false
		for i := range history {
			if history[i].Type == sensorType {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}

		res.Count++
		for i := range history {
			r := &history[i]
			if r.HasTemperature() {
				tempSum += r.Temperature
				tempN++
			}
			if r.HasHumidity() {
				humSum += r.Humidity
				humN++
			}
			if r.HasBattery() {
				batSum += r.BatteryPercent()
				batN++
			}
		}
	}

	if tempN > 0 {
		res.Temperature = tempSum / float64(tempN)
	}
	if humN > 0 {
		res.Humidity = humSum / float64(humN)
	}
	if batN > 0 {
		res.BatteryLevel = batSum / float64(batN)
	}
	return res
}

// History returns a copy of one sensor's stored records, answered
// through the mailbox so it reflects everything ingested before the
// call. Intended for tests and diagnostics.
func (a *DataStoreActor) History(serial string) ([]sensor.Record, error) {
	res := make(chan []sensor.Record, 1)

	a.mu.RLock()
	if a.stopped {
		a.mu.RUnlock()
		return nil, errors.New(errors.ErrorTypeTerminated, "data store actor is stopped")
	}
	a.mailbox <- dataStoreMsg{op: dsHistory, sensorType: serial, historyReply: res}
	a.mu.RUnlock()

	select {
	case h := <-res:
		return h, nil
	case <-time.After(a.timeout):
		return nil, errors.New(errors.ErrorTypeTimeout, "history request timed out").
			WithDetail("serial", serial)
	}
}
