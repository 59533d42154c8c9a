// Package pipeline wires the parsing, aggregation, analysis, actor,
// and output subsystems into one record flow and drives it in three
// execution modes.
//
// # Flow
//
// Every raw line travels the same path regardless of mode:
//
//  1. Parser selection. The first registered parser whose CanParse
//     claims the line parses it; a line nobody claims is a drop.
//  2. The record lands in the composite tree, the type registry, the
//     per-type analyzers, both actors, every sink, and every observer.
//
// A failure at any step after selection is logged with the raw line
// and the pipeline moves on. One malformed or panicking line never
// takes down the run.
//
// # Modes
//
// RunSequential processes lines in order on the calling goroutine.
// RunPool fans them across the shared worker pool and waits for the
// batch. RunStream pushes them through the bounded queue whose
// consumer goroutine does the processing. Per-record semantics are
// identical in all three; only scheduling differs.
//
// # Shutdown
//
// Shutdown stops the subsystems in dependency order: streaming queue
// first, then the worker pool, then the actors, and finally the sinks.
// Everything accepted before Shutdown is fully processed and flushed.
//
// Example:
//
//	coord, err := pipeline.New(config.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	defer coord.Shutdown()
//
//	summary, err := coord.Run(ctx, config.ModePool, lines)
package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/ajitpratap0/borealis/pkg/actor"
	"github.com/ajitpratap0/borealis/pkg/analyzer"
	"github.com/ajitpratap0/borealis/pkg/composite"
	"github.com/ajitpratap0/borealis/pkg/config"
	"github.com/ajitpratap0/borealis/pkg/errors"
	"github.com/ajitpratap0/borealis/pkg/logger"
	"github.com/ajitpratap0/borealis/pkg/metrics"
	"github.com/ajitpratap0/borealis/pkg/observability"
	"github.com/ajitpratap0/borealis/pkg/observer"
	"github.com/ajitpratap0/borealis/pkg/parser"
	"github.com/ajitpratap0/borealis/pkg/registry"
	"github.com/ajitpratap0/borealis/pkg/sink"
	"github.com/ajitpratap0/borealis/pkg/streamqueue"
	stringpool "github.com/ajitpratap0/borealis/pkg/strings"
	"github.com/ajitpratap0/borealis/pkg/workerpool"
)

// Coordinator owns every subsystem of the record flow and drives raw
// lines through them. It is safe for concurrent ProcessRecord calls;
// the Run drivers themselves are meant to be called one at a time.
type Coordinator struct {
	cfg *config.Config

	// Record path, in processing order. Parsers are tried in
	// registration order.
	parsers   []parser.Parser
	registry  *registry.Registry
	tree      *composite.Manager
	analyzers *analyzer.Manager
	actors    *actor.Subsystem
	observers *observer.Broadcaster
	sinks     *sink.Manager

	// Execution
	pool  *workerpool.Pool
	queue *streamqueue.Queue

	// Counters
	processed atomic.Int64
	dropped   atomic.Int64
	failed    atomic.Int64

	// Last run, guarded by mu
	mu           sync.Mutex
	modeLabel    string
	lastLines    int
	lastDuration time.Duration

	shutdownOnce sync.Once
	logger       *zap.Logger
	collector    *metrics.Collector
}

// New builds a coordinator from cfg, wiring the default monitors onto
// the broadcaster and one sink per configured entry. A nil cfg gets
// the standard defaults.
func New(cfg *config.Config) (*Coordinator, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	sinks, err := sink.FromConfig(cfg.Sinks)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "pipeline sink construction failed")
	}

	observers := observer.NewBroadcaster()
	observers.Attach(observer.NewTemperatureMonitor(cfg.Observers.TempWarn, cfg.Observers.TempCritical))
	observers.Attach(observer.NewBatteryMonitor(cfg.Observers.BatteryLow))
	observers.Attach(observer.NewStatsCollector())

	return &Coordinator{
		cfg:       cfg,
		parsers:   parser.Chain(),
		registry:  registry.New(),
		tree:      composite.NewManager(cfg.Manufacturers.Prefixes),
		analyzers: analyzer.NewManagerFromFactories(analyzer.Defaults(cfg.Analyzers)),
		actors:    actor.NewSubsystem(cfg.Actors, cfg.Alerts),
		observers: observers,
		sinks:     sinks,
		pool:      workerpool.New(cfg.Pool.Workers),
		queue:     streamqueue.New(cfg.Queue),
		modeLabel: cfg.Pipeline.Mode,
		logger:    logger.Get().With(zap.String("component", "pipeline")),
		collector: metrics.NewCollector("pipeline"),
	}, nil
}

// ProcessRecord drives one raw line through the full record path. A
// line no parser claims is dropped; any later failure is logged with
// the line and swallowed so the surrounding batch keeps flowing. Safe
// for concurrent use.
func (c *Coordinator) ProcessRecord(raw string) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			c.failed.Add(1)
			c.logger.Error("record processing panicked",
				zap.Any("panic", r),
				zap.String("line", raw))
		}
	}()

	p := c.selectParser(raw)
	if p == nil {
		c.dropped.Add(1)
		c.collector.RecordDropped("unrecognized")
		c.logger.Debug("no parser claimed line", zap.String("line", raw))
		return
	}

	rec, err := p.Parse(raw)
	if err != nil {
		c.failed.Add(1)
		c.collector.RecordProcessed(p.Name(), err)
		c.logger.Warn("parse failed",
			zap.String("parser", p.Name()),
			zap.String("line", raw),
			zap.Error(err))
		return
	}

	c.tree.AddRecord(rec)
	if rec.Serial != "" && rec.Type != "" {
		c.registry.Register(rec.Serial, rec.Type)
	}
	c.analyzers.AnalyzeData(rec)

	if err := c.actors.Send(rec); err != nil {
		c.logger.Warn("actor delivery failed",
			zap.String("line", raw),
			zap.Error(err))
	}

	c.sinks.Display(rec)
	c.observers.Notify(rec)

	c.processed.Add(1)
	c.collector.RecordProcessed(p.Name(), nil)
	c.collector.ObserveProcessing(c.mode(), time.Since(start))
}

// selectParser returns the first parser claiming the line, or nil.
func (c *Coordinator) selectParser(raw string) parser.Parser {
	for _, p := range c.parsers {
		if p.CanParse(raw) {
			return p
		}
	}
	return nil
}

func (c *Coordinator) mode() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.modeLabel
}

// run drives one batch under a span and records the batch duration and
// throughput.
func (c *Coordinator) run(ctx context.Context, mode string, lines []string, drive func([]string) error) (Summary, error) {
	c.mu.Lock()
	c.modeLabel = mode
	c.lastLines = len(lines)
	c.mu.Unlock()

	_, span := observability.StartSpan(ctx, stringpool.Concat("pipeline.run.", mode),
		attribute.String("pipeline.mode", mode),
		attribute.Int("pipeline.lines", len(lines)))

	tracker := metrics.NewThroughputTracker(mode)
	before := c.processed.Load()

	start := time.Now()
	err := drive(lines)
	elapsed := time.Since(start)
	observability.EndSpan(span, err)

	c.mu.Lock()
	c.lastDuration = elapsed
	c.mu.Unlock()

	tracker.Increment(c.processed.Load() - before)
	throughput := tracker.GetAndReset()

	c.collector.ObserveBatch(mode, elapsed)
	c.logger.Info("pipeline run finished",
		zap.String("mode", mode),
		zap.Int("lines", len(lines)),
		zap.Int64("processed", c.processed.Load()),
		zap.Int64("dropped", c.dropped.Load()),
		zap.Int64("failed", c.failed.Load()),
		zap.Duration("elapsed", elapsed),
		zap.Float64("records_per_second", throughput),
		zap.Error(err))

	return c.Summary(), err
}

// Shutdown stops the subsystems in dependency order and is safe to
// call more than once. Records accepted before Shutdown are fully
// processed and flushed.
func (c *Coordinator) Shutdown() {
	c.shutdownOnce.Do(func() {
		if err := c.queue.Stop(); err != nil {
			c.logger.Warn("queue stop", zap.Error(err))
		}
		c.pool.Shutdown()
		c.actors.Shutdown()
		if err := c.sinks.CloseAll(); err != nil {
			c.logger.Warn("sink close", zap.Error(err))
		}
		c.logger.Info("pipeline shut down",
			zap.Int64("processed", c.processed.Load()),
			zap.Int64("dropped", c.dropped.Load()),
			zap.Int64("failed", c.failed.Load()))
	})
}

// Composite exposes the aggregation tree for reporting.
func (c *Coordinator) Composite() *composite.Manager { return c.tree }

// Analyzers exposes the per-type analyzer manager for reporting.
func (c *Coordinator) Analyzers() *analyzer.Manager { return c.analyzers }

// Actors exposes the actor subsystem for status queries.
func (c *Coordinator) Actors() *actor.Subsystem { return c.actors }

// Registry exposes the serial-to-type registry.
func (c *Coordinator) Registry() *registry.Registry { return c.registry }

// Observers exposes the broadcaster for monitor inspection.
func (c *Coordinator) Observers() *observer.Broadcaster { return c.observers }

// Sinks exposes the sink manager.
func (c *Coordinator) Sinks() *sink.Manager { return c.sinks }

// Config returns the configuration the coordinator was built from.
func (c *Coordinator) Config() *config.Config { return c.cfg }
