// Package analyzer provides per-type statistical analysis of sensor
// records. Each analyzer accumulates one dimension of the stream
// (temperature, humidity, battery charge) and renders a plain-text
// report on demand.
//
// # Dispatch
//
// The Manager routes records by sensor type. A record reaches the
// analyzer registered for its type, and the battery analyzer
// additionally sees every record regardless of type, because battery
// fields ride along on temperature and humidity lines.
//
// # Concurrency
//
// The manager's registry is guarded by its own mutex, and every
// analyzer guards its accumulated state independently, so pool-mode
// pipelines may call AnalyzeData from many goroutines at once.
//
// Example:
//
//	m := analyzer.NewManager()
//	m.Register(sensor.TypeTemperature, analyzer.NewTemperatureAnalyzer(25, 30))
//	m.AnalyzeData(rec)
//	for label, report := range m.ResultsAll() {
//	    fmt.Println(label, report)
//	}
package analyzer

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/ajitpratap0/borealis/pkg/config"
	"github.com/ajitpratap0/borealis/pkg/logger"
	"github.com/ajitpratap0/borealis/pkg/sensor"
)

// Analyzer accumulates readings of one sensor dimension.
type Analyzer interface {
	// Name returns the report label, e.g. "Temperature".
	Name() string
	// Analyze folds one record into the accumulated state. Records
	// without a usable reading for this dimension are ignored.
	Analyze(rec *sensor.Record)
	// Report renders the accumulated state as a text report.
	Report() string
}

// Factory constructs a fresh analyzer. Variants are parameterized by
// their thresholds at factory construction, so new variants plug into
// the manager without changing it.
type Factory func() Analyzer

// Defaults returns the standard factory set wired to the configured
// thresholds, keyed by the sensor type each analyzer consumes.
func Defaults(cfg config.AnalyzerConfig) map[string]Factory {
	return map[string]Factory{
		sensor.TypeTemperature: func() Analyzer { return NewTemperatureAnalyzer(cfg.TempWarn, cfg.TempCritical) },
		sensor.TypeHumidity:    func() Analyzer { return NewHumidityAnalyzer(cfg.HumLow, cfg.HumHigh) },
		sensor.TypeBattery:     func() Analyzer { return NewBatteryAnalyzer(cfg.BatteryLow) },
	}
}

// Manager routes records to analyzers by sensor type.
type Manager struct {
	mu        sync.Mutex
	analyzers map[string]Analyzer
	order     []string // registration order, for stable reports
	logger    *zap.Logger
}

// NewManager creates an empty analyzer manager.
func NewManager() *Manager {
	return &Manager{
		analyzers: make(map[string]Analyzer),
		logger:    logger.Get().With(zap.String("component", "analyzer")),
	}
}

// NewManagerFromFactories builds a manager holding one analyzer per
// factory. Factories are instantiated in sorted key order so report
// ordering is stable.
func NewManagerFromFactories(factories map[string]Factory) *Manager {
	m := NewManager()

	keys := make([]string, 0, len(factories))
	for key := range factories {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		m.Register(key, factories[key]())
	}
	return m
}

// Register binds an analyzer to a sensor type, replacing any previous
// binding for that type.
func (m *Manager) Register(sensorType string, a Analyzer) {
	if sensorType == "" || a == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.analyzers[sensorType]; !exists {
		m.order = append(m.order, sensorType)
	}
	m.analyzers[sensorType] = a
	m.logger.Debug("analyzer registered",
		zap.String("type", sensorType),
		zap.String("analyzer", a.Name()))
}

// Get returns the analyzer bound to a sensor type.
func (m *Manager) Get(sensorType string) (Analyzer, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.analyzers[sensorType]
	return a, ok
}

// AnalyzeData dispatches a record to the analyzer registered for its
// type. The battery analyzer additionally receives every record, since
// any line may carry battery fields. Dispatch happens outside the
// manager lock; analyzers serialize their own state.
func (m *Manager) AnalyzeData(rec *sensor.Record) {
	if rec == nil {
		return
	}

	m.mu.Lock()
	typed := m.analyzers[rec.Type]
	battery := m.analyzers[sensor.TypeBattery]
	m.mu.Unlock()

	if typed != nil {
		typed.Analyze(rec)
	}
	if battery != nil && rec.Type != sensor.TypeBattery {
		battery.Analyze(rec)
	}
}

// ResultsAll renders every registered analyzer's report, keyed by the
// analyzer's label.
func (m *Manager) ResultsAll() map[string]string {
	m.mu.Lock()
	targets := make([]Analyzer, 0, len(m.order))
	for _, key := range m.order {
		targets = append(targets, m.analyzers[key])
	}
	m.mu.Unlock()

	results := make(map[string]string, len(targets))
	for _, a := range targets {
		results[a.Name()] = a.Report()
	}
	return results
}
