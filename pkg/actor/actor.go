// Package actor implements the mailbox-driven storage and alerting
// subsystem. Each actor owns its state on a single goroutine that
// drains a bounded mailbox channel, so no locks guard the state
// itself; callers interact only through messages.
//
// # Actors
//
// DataStoreActor keeps the full per-sensor record history and answers
// aggregation queries. AlertActor evaluates every record against its
// threshold table and keeps an ordered alert log.
//
// # Request-reply
//
// Queries carry a buffered reply channel inside the message. Callers
// wait on the reply with a hard deadline (default 5s) and receive an
// ErrorTypeTimeout failure when the actor cannot answer in time. The
// actor side never blocks on replies.
//
// # Shutdown
//
// Stop enqueues a sentinel behind all previously accepted messages and
// waits for the drain goroutine to exit, so everything sent before
// Stop is fully processed.
//
// Example:
//
//	sys := actor.NewSubsystem(cfg.Actors, cfg.Alerts)
//	sys.Send(rec)
//	stats, err := sys.AnalyzeType(sensor.TypeTemperature)
//	sys.Shutdown()
package actor

import (
	"go.uber.org/zap"

	"github.com/ajitpratap0/borealis/pkg/config"
	"github.com/ajitpratap0/borealis/pkg/logger"
	"github.com/ajitpratap0/borealis/pkg/sensor"
)

// Subsystem bundles the data-store and alert actors behind one intake.
type Subsystem struct {
	store  *DataStoreActor
	alerts *AlertActor
	logger *zap.Logger
}

// NewSubsystem starts both actors with mailbox size and request
// deadline from cfg and alert thresholds from alertCfg.
func NewSubsystem(cfg config.ActorConfig, alertCfg config.AlertConfig) *Subsystem {
	return &Subsystem{
		store:  NewDataStoreActor(cfg.MailboxSize, cfg.RequestTimeout),
		alerts: NewAlertActor(cfg.MailboxSize, cfg.RequestTimeout, ThresholdsFromConfig(alertCfg)),
		logger: logger.Get().With(zap.String("component", "actor")),
	}
}

// Send fans one record to both actors. It blocks only while a full
// mailbox makes room and fails once the subsystem is shut down.
func (s *Subsystem) Send(rec *sensor.Record) error {
	if rec == nil {
		return nil
	}
	if err := s.store.Ingest(*rec); err != nil {
		return err
	}
	return s.alerts.Ingest(*rec)
}

// AnalyzeType asks the data store for aggregated statistics over the
// sensors that reported the given type.
func (s *Subsystem) AnalyzeType(sensorType string) (StatsResult, error) {
	return s.store.Analyze(sensorType)
}

// Status asks the data store for its processed counter and the number
// of distinct sensors stored.
func (s *Subsystem) Status() (Status, error) {
	return s.store.Status()
}

// GetProcessed returns how many records the data store has ingested.
func (s *Subsystem) GetProcessed() (int64, error) {
	status, err := s.store.Status()
	if err != nil {
		return 0, err
	}
	return status.Processed, nil
}

// GetAlerts returns the alert log joined by newlines.
func (s *Subsystem) GetAlerts() (string, error) {
	return s.alerts.Log()
}

// DataStore exposes the storage actor.
func (s *Subsystem) DataStore() *DataStoreActor { return s.store }

// Alerts exposes the alert actor.
func (s *Subsystem) Alerts() *AlertActor { return s.alerts }

// Shutdown drains both mailboxes and waits for the actors to exit.
// Messages accepted before Shutdown are fully processed.
func (s *Subsystem) Shutdown() {
	s.store.Stop()
	s.alerts.Stop()
	s.logger.Info("actor subsystem stopped",
		zap.Int64("processed", s.store.Processed()),
		zap.Int64("alerts", s.alerts.Emitted()))
}
