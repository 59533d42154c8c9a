package actor

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/borealis/pkg/config"
	"github.com/ajitpratap0/borealis/pkg/errors"
	"github.com/ajitpratap0/borealis/pkg/logger"
	"github.com/ajitpratap0/borealis/pkg/metrics"
	"github.com/ajitpratap0/borealis/pkg/sensor"
	stringpool "github.com/ajitpratap0/borealis/pkg/strings"
)

// Alert kinds, in emission order.
const (
	AlertHighTemp     = "HIGH TEMP ALERT"
	AlertLowTemp      = "LOW TEMP ALERT"
	AlertHighHumidity = "HIGH HUMIDITY ALERT"
	AlertLowHumidity  = "LOW HUMIDITY ALERT"
	AlertLowBattery   = "LOW BATTERY ALERT"
)

// Thresholds holds one type's alert trigger levels. Battery is a
// percentage of capacity.
type Thresholds struct {
	TempHigh   float64 `json:"temp_high"`
	TempLow    float64 `json:"temp_low"`
	HumHigh    float64 `json:"hum_high"`
	HumLow     float64 `json:"hum_low"`
	BatteryLow float64 `json:"battery_low"`
}

// ThresholdsFromConfig maps the alert configuration onto a threshold
// set.
func ThresholdsFromConfig(cfg config.AlertConfig) Thresholds {
	return Thresholds{
		TempHigh:   cfg.TempHigh,
		TempLow:    cfg.TempLow,
		HumHigh:    cfg.HumHigh,
		HumLow:     cfg.HumLow,
		BatteryLow: cfg.BatteryLow,
	}
}

type alertOp int

const (
	alIngest alertOp = iota
	alLog
	alStop
)

type alertMsg struct {
	op       alertOp
	rec      sensor.Record
	logReply chan string
}

// AlertActor evaluates records against per-type thresholds and keeps
// an ordered alert log. State lives on the drain goroutine.
type AlertActor struct {
	mu      sync.RWMutex
	stopped bool

	mailbox chan alertMsg
	done    chan struct{}
	timeout time.Duration

	// emitted mirrors the drain goroutine's alert count for cheap
	// post-shutdown reads
	emitted atomic.Int64

	// goroutine-owned state
	thresholds map[string]Thresholds
	defaults   Thresholds
	log        []string

	logger    *zap.Logger
	collector *metrics.Collector
	// now is swappable for deterministic timestamps in tests
	now func() time.Time
}

// NewAlertActor starts an alert actor. The default thresholds apply to
// every sensor type until overridden per type.
func NewAlertActor(mailboxSize int, timeout time.Duration, defaults Thresholds) *AlertActor {
	if mailboxSize <= 0 {
		mailboxSize = 100
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	a := &AlertActor{
		mailbox: make(chan alertMsg, mailboxSize),
		done:    make(chan struct{}),
		timeout: timeout,
		thresholds: map[string]Thresholds{
			sensor.TypeTemperature: defaults,
			sensor.TypeHumidity:    defaults,
			sensor.TypeBattery:     defaults,
		},
		defaults:  defaults,
		logger:    logger.Get().With(zap.String("actor", "alert")),
		collector: metrics.NewCollector("alert"),
		now:       time.Now,
	}
	go a.run()
	return a
}

// Ingest enqueues one record for threshold evaluation. Blocks while
// the mailbox is full; fails once the actor is stopped.
func (a *AlertActor) Ingest(rec sensor.Record) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.stopped {
		return errors.New(errors.ErrorTypeTerminated, "alert actor is stopped")
	}
	a.mailbox <- alertMsg{op: alIngest, rec: rec}
	return nil
}

// Log returns the alert log joined by newlines. Fails with
// ErrorTypeTimeout when no reply arrives within the deadline.
func (a *AlertActor) Log() (string, error) {
	reply := make(chan string, 1)

	a.mu.RLock()
	if a.stopped {
		a.mu.RUnlock()
		return "", errors.New(errors.ErrorTypeTerminated, "alert actor is stopped")
	}
	a.mailbox <- alertMsg{op: alLog, logReply: reply}
	a.mu.RUnlock()

	select {
	case log := <-reply:
		return log, nil
	case <-time.After(a.timeout):
		return "", errors.New(errors.ErrorTypeTimeout, "alert log request timed out").
			WithDetail("timeout", a.timeout.String())
	}
}

// Stop enqueues the drain sentinel and waits for the goroutine to
// exit. Messages accepted before Stop are processed first. Stop is
// idempotent.
func (a *AlertActor) Stop() {
	a.mu.Lock()
	if !a.stopped {
		a.stopped = true
		a.mailbox <- alertMsg{op: alStop}
	}
	a.mu.Unlock()
	<-a.done
}

// Emitted reads the mirrored alert counter without a mailbox round-trip.
func (a *AlertActor) Emitted() int64 {
	return a.emitted.Load()
}

// run is the single consumer of the mailbox.
func (a *AlertActor) run() {
	defer close(a.done)

	for msg := range a.mailbox {
		a.collector.SetMailboxDepth("alert", len(a.mailbox))

		switch msg.op {
		case alIngest:
			a.evaluate(msg.rec)
		case alLog:
			msg.logReply <- strings.Join(a.log, "\n")
		case alStop:
			a.logger.Debug("alert actor draining complete",
				zap.Int("alerts", len(a.log)))
			return
		}
	}
}

// evaluate emits at most one alert per dimension, in fixed order:
// temperature, humidity, battery.
func (a *AlertActor) evaluate(rec sensor.Record) {
	th, ok := a.thresholds[rec.Type]
	if !ok {
		th = a.defaults
	}
	ts := a.now().Format("15:04:05")

	if rec.HasTemperature() {
		switch {
		case rec.Temperature > th.TempHigh:
			a.append(AlertHighTemp, "high_temp", reading(ts, AlertHighTemp, rec.Serial, rec.Temperature, th.TempHigh, "°C"))
		case rec.Temperature < th.TempLow:
			a.append(AlertLowTemp, "low_temp", reading(ts, AlertLowTemp, rec.Serial, rec.Temperature, th.TempLow, "°C"))
		}
	}

	if rec.HasHumidity() {
		switch {
		case rec.Humidity > th.HumHigh:
			a.append(AlertHighHumidity, "high_humidity", reading(ts, AlertHighHumidity, rec.Serial, rec.Humidity, th.HumHigh, "%"))
		case rec.Humidity < th.HumLow:
			a.append(AlertLowHumidity, "low_humidity", reading(ts, AlertLowHumidity, rec.Serial, rec.Humidity, th.HumLow, "%"))
		}
	}

	if rec.HasBattery() {
		if pct := rec.BatteryPercent(); pct < th.BatteryLow {
			line := stringpool.Sprintf("[%s] %s: Sensor %s battery at %.1f%% (threshold: %s%%)",
				ts, AlertLowBattery, rec.Serial, pct, stringpool.ValueToString(th.BatteryLow))
			a.append(AlertLowBattery, "low_battery", line)
		}
	}
}

// append records one alert line.
func (a *AlertActor) append(kind, metricKind, line string) {
	a.log = append(a.log, line)
	a.emitted.Add(1)
	a.collector.RecordAlert(metricKind)
	a.logger.Warn("alert emitted", zap.String("kind", kind), zap.String("alert", line))
}

// reading renders a threshold-crossing alert line. Values print with
// minimal decimals, matching the device units.
func reading(ts, kind, serial string, value, threshold float64, unit string) string {
	return stringpool.Concat(
		"[", ts, "] ", kind, ": Sensor ", serial,
		" reported ", stringpool.ValueToString(value), unit,
		" (threshold: ", stringpool.ValueToString(threshold), unit, ")")
}
