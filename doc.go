// Package borealis provides a sensor-record ingest and fan-out pipeline.
// Raw device log lines are parsed into normalized records, and every
// record is fanned out to a hierarchical aggregation tree, per-type
// analyzers, a storage/alerting actor pair, broadcast observers, and
// configurable output sinks.
//
// # Architecture
//
// Borealis is built around one record path and three ways to drive it:
//
// 1. Sequential: the caller's goroutine walks the lines in order.
//
// 2. Worker pool: lines are dispatched to a fixed pool and joined
// through futures, preserving per-sensor consistency inside each
// subsystem rather than global ordering.
//
// 3. Streaming: lines flow through a bounded queue with a single
// consumer, so producers feel backpressure when the pipeline falls
// behind.
//
// Whatever the mode, each parsed record takes the same trip: type
// registry, aggregation tree, analyzers, actors, observers, sinks.
// Subsystem failures are isolated per record; one bad line never stops
// a run.
//
// # Quick Start
//
// Process a sensor log and print the reports:
//
//	import (
//	    "context"
//
//	    "github.com/ajitpratap0/borealis/internal/pipeline"
//	    "github.com/ajitpratap0/borealis/pkg/config"
//	)
//
//	cfg := config.DefaultConfig()
//	coord, err := pipeline.New(cfg)
//	if err != nil {
//	    return err
//	}
//	defer coord.Shutdown()
//
//	if _, err := coord.Run(context.Background(), config.ModePool, lines); err != nil {
//	    return err
//	}
//	coord.Composite().Display(os.Stdout)
//
// # Key Packages
//
//	pkg/sensor       - Record model and normalization rules
//	pkg/parser       - Line parsers and the parser registry
//	pkg/registry     - Serial-to-type registry
//	pkg/composite    - Aggregation tree, groups, and visitors
//	pkg/analyzer     - Per-type analyzers and their manager
//	pkg/observer     - Broadcast observers and monitors
//	pkg/actor        - Data-store and alert actors
//	pkg/workerpool   - Futures-based worker pool
//	pkg/streamqueue  - Bounded streaming queue
//	pkg/sink         - Formatter/transport sinks
//	pkg/config       - YAML configuration with env substitution
//	pkg/errors       - Structured error handling
//	pkg/logger       - Structured logging
//	pkg/metrics      - Prometheus metrics collection
//
// # Wire Format
//
// Input lines carry colon-separated key/value pairs, with or without
// whitespace between them:
//
//	serial:101 temp:2250 type:temp bat:80 batmax:100 state:OK
//	manu:Qualcomm serial:202hum:600type:humidity
//
// Keys are case-insensitive and several spellings are accepted per
// field. Raw temperatures above 100 are read as centi-degrees and
// raw humidity above 100 as tenths of a percent; Normalize folds both
// into conventional units.
//
// # Configuration
//
// Configuration is plain YAML layered over defaults, with ${VAR_NAME}
// environment substitution:
//
//	pipeline:
//	  mode: pool
//	pool:
//	  workers: 8
//	sinks:
//	  - formatter: json
//	    transport: file
//	    path: records.log
//
// # Development
//
//	borealis run sensor_data.txt --mode stream
//	borealis bench --records 100000 --modes pool,stream
//	borealis list
package borealis
