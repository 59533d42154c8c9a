// Package sink fans processed output to its destinations.
//
// A sink couples one Formatter with one Transport, keeping the two
// axes independently extensible: formatters decide what a record looks
// like, transports decide where the bytes go. The Manager drives many
// sinks at once with per-sink failure isolation, so a full disk behind
// one file sink never silences the console.
//
// # Registries
//
// Formatters and transports register factories under config names, so
// a sinks config section like
//
//	sinks:
//	  - format: text
//	    transport: console
//	  - format: json
//	    transport: compressed
//	    path: sensors.json.gz
//	    compression: gzip
//
// builds without the caller naming concrete types.
//
// # Flushing
//
// Display flushes its transport before returning: once Display returns
// normally the line is out of process buffers. Compressed transports
// are the exception; their frames finalize on Close.
package sink

import (
	"sync"

	"go.uber.org/zap"

	"github.com/ajitpratap0/borealis/pkg/composite"
	"github.com/ajitpratap0/borealis/pkg/config"
	"github.com/ajitpratap0/borealis/pkg/errors"
	"github.com/ajitpratap0/borealis/pkg/logger"
	"github.com/ajitpratap0/borealis/pkg/metrics"
	"github.com/ajitpratap0/borealis/pkg/sensor"
	stringpool "github.com/ajitpratap0/borealis/pkg/strings"
)

// Sink pairs a formatter with a transport.
type Sink struct {
	name      string
	formatter Formatter
	transport Transport
}

// NewSink couples a formatter with a transport under a display name
// used in logs and failure metrics.
func NewSink(name string, formatter Formatter, transport Transport) *Sink {
	if name == "" {
		name = stringpool.Concat(formatter.Name(), "-", transport.Name())
	}
	return &Sink{
		name:      name,
		formatter: formatter,
		transport: transport,
	}
}

// Name returns the sink display name.
func (s *Sink) Name() string { return s.name }

// Formatter returns the formatting half of the pair.
func (s *Sink) Formatter() Formatter { return s.formatter }

// Transport returns the output half of the pair.
func (s *Sink) Transport() Transport { return s.transport }

// Display formats and writes one record, then flushes.
func (s *Sink) Display(rec *sensor.Record) error {
	return s.emit(s.formatter.FormatRecord(rec))
}

// DisplayStats formats and writes labeled aggregated stats, then flushes.
func (s *Sink) DisplayStats(label string, stats composite.Stats) error {
	return s.emit(s.formatter.FormatStats(label, stats))
}

// DisplayAlert formats and writes one alert line, then flushes.
func (s *Sink) DisplayAlert(alert string) error {
	return s.emit(s.formatter.FormatAlert(alert))
}

// emit writes one formatted line and honors the flush-on-display
// guarantee. Empty lines (nil records) are dropped silently.
func (s *Sink) emit(line string) error {
	if line == "" {
		return nil
	}
	if err := s.transport.Write(line); err != nil {
		return err
	}
	return s.transport.Flush()
}

// Close finalizes the transport.
func (s *Sink) Close() error {
	return s.transport.Close()
}

// Manager fans records out to every registered sink. One failing sink
// is logged and counted but never unregistered, and never blocks the
// others.
type Manager struct {
	mu        sync.RWMutex
	sinks     []*Sink
	logger    *zap.Logger
	collector *metrics.Collector
}

// NewManager returns an empty sink manager.
func NewManager() *Manager {
	return &Manager{
		logger:    logger.Get().With(zap.String("component", "sink_manager")),
		collector: metrics.NewCollector("sinks"),
	}
}

// FromConfig builds a manager with one sink per config entry.
func FromConfig(cfgs []config.SinkConfig) (*Manager, error) {
	m := NewManager()
	for _, cfg := range cfgs {
		s, err := FromSinkConfig(cfg)
		if err != nil {
			_ = m.CloseAll()
			return nil, err
		}
		m.Register(s)
	}
	return m, nil
}

// FromSinkConfig builds one sink from its config entry.
func FromSinkConfig(cfg config.SinkConfig) (*Sink, error) {
	formatter, err := NewFormatter(cfg.Format)
	if err != nil {
		return nil, err
	}
	transport, err := NewTransport(cfg)
	if err != nil {
		return nil, err
	}
	return NewSink("", formatter, transport), nil
}

// Register adds a sink to the fan-out set.
func (m *Manager) Register(s *Sink) {
	if s == nil {
		return
	}
	m.mu.Lock()
	m.sinks = append(m.sinks, s)
	m.mu.Unlock()

	m.logger.Debug("sink registered", zap.String("sink", s.Name()))
}

// Sinks returns a snapshot of the registered sinks.
func (m *Manager) Sinks() []*Sink {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Sink, len(m.sinks))
	copy(out, m.sinks)
	return out
}

// Display writes one record to every sink. A failing sink is logged,
// counted, and skipped; the record still reaches the remaining sinks.
func (m *Manager) Display(rec *sensor.Record) {
	for _, s := range m.Sinks() {
		if err := s.Display(rec); err != nil {
			m.reportFailure(s, err)
		}
	}
}

// DisplayStats writes labeled stats to every sink.
func (m *Manager) DisplayStats(label string, stats composite.Stats) {
	for _, s := range m.Sinks() {
		if err := s.DisplayStats(label, stats); err != nil {
			m.reportFailure(s, err)
		}
	}
}

// DisplayAlert writes one alert line to every sink.
func (m *Manager) DisplayAlert(alert string) {
	for _, s := range m.Sinks() {
		if err := s.DisplayAlert(alert); err != nil {
			m.reportFailure(s, err)
		}
	}
}

// reportFailure logs and counts one sink failure.
func (m *Manager) reportFailure(s *Sink, err error) {
	m.collector.RecordSinkFailure(s.Name())
	m.logger.Error("sink write failed",
		zap.String("sink", s.Name()),
		zap.Error(err))
}

// CloseAll finalizes every sink and joins their close failures.
func (m *Manager) CloseAll() error {
	m.mu.Lock()
	sinks := m.sinks
	m.sinks = nil
	m.mu.Unlock()

	var failed int
	var first error
	for _, s := range sinks {
		if err := s.Close(); err != nil {
			failed++
			if first == nil {
				first = err
			}
			m.logger.Error("sink close failed",
				zap.String("sink", s.Name()),
				zap.Error(err))
		}
	}

	if failed == 0 {
		return nil
	}
	return errors.Wrap(first, errors.ErrorTypeSinkIO,
		stringpool.Sprintf("%d of %d sinks failed to close", failed, len(sinks)))
}
