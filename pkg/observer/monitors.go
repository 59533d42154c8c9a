package observer

import (
	"sync"

	"go.uber.org/zap"

	"github.com/ajitpratap0/borealis/pkg/logger"
	"github.com/ajitpratap0/borealis/pkg/sensor"
)

// TemperatureMonitor watches temperature records and logs when a
// reading crosses the warning or critical threshold. Non-temperature
// records are ignored.
type TemperatureMonitor struct {
	mu        sync.Mutex
	warn      float64
	critical  float64
	warnings  int
	criticals int
	logger    *zap.Logger
}

// NewTemperatureMonitor creates a temperature monitor with the given
// thresholds.
func NewTemperatureMonitor(warn, critical float64) *TemperatureMonitor {
	return &TemperatureMonitor{
		warn:     warn,
		critical: critical,
		logger:   logger.Get().With(zap.String("observer", "temperature_monitor")),
	}
}

// Name identifies the monitor.
func (t *TemperatureMonitor) Name() string { return "temperature_monitor" }

// OnRecord classifies temperature readings against the thresholds.
func (t *TemperatureMonitor) OnRecord(rec *sensor.Record) {
	if rec.Type != sensor.TypeTemperature || !rec.HasTemperature() {
		return
	}

	switch {
	case rec.Temperature > t.critical:
		t.mu.Lock()
		t.criticals++
		t.mu.Unlock()
		t.logger.Warn("critical temperature",
			zap.String("serial", rec.Serial),
			zap.Float64("temperature", rec.Temperature),
			zap.Float64("threshold", t.critical))
	case rec.Temperature > t.warn:
		t.mu.Lock()
		t.warnings++
		t.mu.Unlock()
		t.logger.Info("elevated temperature",
			zap.String("serial", rec.Serial),
			zap.Float64("temperature", rec.Temperature),
			zap.Float64("threshold", t.warn))
	}
}

// Counts returns how many warning and critical readings were seen.
func (t *TemperatureMonitor) Counts() (warnings, criticals int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.warnings, t.criticals
}

// BatteryMonitor watches battery charge and logs sensors whose
// level/max ratio falls below the threshold. Records without battery
// data are ignored.
type BatteryMonitor struct {
	mu     sync.Mutex
	low    float64 // level/max ratio
	count  int
	logger *zap.Logger
}

// NewBatteryMonitor creates a battery monitor with the given ratio
// threshold.
func NewBatteryMonitor(low float64) *BatteryMonitor {
	return &BatteryMonitor{
		low:    low,
		logger: logger.Get().With(zap.String("observer", "battery_monitor")),
	}
}

// Name identifies the monitor.
func (b *BatteryMonitor) Name() string { return "battery_monitor" }

// OnRecord flags records whose charge ratio undercuts the threshold.
func (b *BatteryMonitor) OnRecord(rec *sensor.Record) {
	if !rec.HasBattery() {
		return
	}

	if ratio := rec.BatteryLevel / rec.BatteryMax; ratio < b.low {
		b.mu.Lock()
		b.count++
		b.mu.Unlock()
		b.logger.Warn("low battery",
			zap.String("serial", rec.Serial),
			zap.Float64("ratio", ratio),
			zap.Float64("threshold", b.low))
	}
}

// LowCount returns how many low-charge readings were seen.
func (b *BatteryMonitor) LowCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// StatsCollector counts notified records per sensor type.
type StatsCollector struct {
	mu     sync.Mutex
	counts map[string]int
	total  int
}

// NewStatsCollector creates an empty collector.
func NewStatsCollector() *StatsCollector {
	return &StatsCollector{counts: make(map[string]int)}
}

// Name identifies the collector.
func (s *StatsCollector) Name() string { return "stats_collector" }

// OnRecord counts the record under its type; untyped records count
// as unknown.
func (s *StatsCollector) OnRecord(rec *sensor.Record) {
	key := rec.Type
	if key == "" {
		key = sensor.TypeUnknown
	}

	s.mu.Lock()
	s.counts[key]++
	s.total++
	s.mu.Unlock()
}

// Counts returns a copy of the per-type counts.
func (s *StatsCollector) Counts() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]int, len(s.counts))
	for k, v := range s.counts {
		out[k] = v
	}
	return out
}

// Total returns the number of records seen.
func (s *StatsCollector) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}
