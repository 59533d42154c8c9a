// Package config provides the unified configuration system for Borealis.
// It defines a single Config structure covering every pipeline subsystem,
// ensuring one schema for files, defaults, and CLI overrides.
//
// The configuration is organized into logical sections:
//   - Pipeline: Execution mode and input selection
//   - Queue: Streaming queue capacity and drain timeout
//   - Pool: Worker pool parallelism
//   - Actors: Mailbox sizing and request deadlines
//   - Analyzers/Alerts/Observers/Visitors: Threshold sets per subsystem
//   - Manufacturers: Serial-prefix tagging table
//   - Sinks: Output formatter/transport pairs
//   - Observability: Metrics and tracing switches
//   - Logging: Log level and encoding
//
// Example usage:
//
//	cfg := config.DefaultConfig()
//	cfg.Pipeline.Mode = "stream"
//
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config

import (
	"fmt"
	"runtime"
	"time"
)

// Pipeline execution modes.
const (
	ModeSequential = "sequential"
	ModePool       = "pool"
	ModeStream     = "stream"
)

// Config is the single unified configuration structure for a Borealis
// pipeline run. Every subsystem reads its thresholds and limits from
// here; nothing else carries tunables.
type Config struct {
	// Pipeline selects how records flow through the coordinator
	Pipeline PipelineConfig `yaml:"pipeline" json:"pipeline"`

	// Queue bounds the streaming producer/consumer channel
	Queue QueueConfig `yaml:"queue" json:"queue"`

	// Pool sizes the shared worker pool
	Pool PoolConfig `yaml:"pool" json:"pool"`

	// Actors configures the mailbox-driven actor subsystem
	Actors ActorConfig `yaml:"actors" json:"actors"`

	// Analyzers holds thresholds for the per-type statistical analyzers
	Analyzers AnalyzerConfig `yaml:"analyzers" json:"analyzers"`

	// Alerts holds thresholds for the alert actor
	Alerts AlertConfig `yaml:"alerts" json:"alerts"`

	// Observers holds thresholds for the broadcast monitors
	Observers ObserverConfig `yaml:"observers" json:"observers"`

	// Visitors holds bounds for the composite tree visitors
	Visitors VisitorConfig `yaml:"visitors" json:"visitors"`

	// Manufacturers maps serial prefixes to manufacturer tags
	Manufacturers ManufacturerConfig `yaml:"manufacturers" json:"manufacturers"`

	// Sinks lists the output destinations; each pairs a formatter with a transport
	Sinks []SinkConfig `yaml:"sinks" json:"sinks"`

	// Observability settings for metrics and tracing
	Observability ObservabilityConfig `yaml:"observability" json:"observability"`

	// Logging controls structured log output
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// PipelineConfig selects the execution mode and default input.
type PipelineConfig struct {
	// Mode is one of "sequential", "pool", or "stream"
	Mode string `yaml:"mode" json:"mode"`
	// InputPath is the sensor log file read when the CLI gets no argument
	InputPath string `yaml:"input_path" json:"input_path"`
}

// QueueConfig bounds the streaming queue.
type QueueConfig struct {
	// Capacity is the maximum number of buffered lines; producers block when full
	Capacity int `yaml:"capacity" json:"capacity"`
	// StopTimeout caps how long Stop waits for the consumer to drain
	StopTimeout time.Duration `yaml:"stop_timeout" json:"stop_timeout"`
}

// PoolConfig sizes the worker pool.
type PoolConfig struct {
	// Workers is the pool parallelism; 0 selects the logical CPU count
	Workers int `yaml:"workers" json:"workers"`
}

// ActorConfig configures the actor subsystem.
type ActorConfig struct {
	// MailboxSize bounds each actor's inbox
	MailboxSize int `yaml:"mailbox_size" json:"mailbox_size"`
	// RequestTimeout is the request-reply deadline for actor queries
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
}

// AnalyzerConfig holds the statistical analyzer thresholds.
type AnalyzerConfig struct {
	// TempWarn is the temperature above which the report status is Warning (°C)
	TempWarn float64 `yaml:"temp_warn" json:"temp_warn"`
	// TempCritical is the temperature above which the report status is CRITICAL (°C)
	TempCritical float64 `yaml:"temp_critical" json:"temp_critical"`
	// HumLow marks the report Too Dry when the minimum falls below it (%)
	HumLow float64 `yaml:"hum_low" json:"hum_low"`
	// HumHigh marks the report Too Humid when the maximum rises above it (%)
	HumHigh float64 `yaml:"hum_high" json:"hum_high"`
	// BatteryLow is the level/max ratio below which a sensor is listed as low
	BatteryLow float64 `yaml:"battery_low" json:"battery_low"`
}

// AlertConfig holds the alert actor thresholds. Battery is expressed as
// a percentage here, unlike the analyzer's ratio; the two subsystems
// keep independent units.
type AlertConfig struct {
	// TempHigh triggers a HIGH TEMP ALERT when exceeded (°C)
	TempHigh float64 `yaml:"temp_high" json:"temp_high"`
	// TempLow triggers a LOW TEMP ALERT when undercut (°C)
	TempLow float64 `yaml:"temp_low" json:"temp_low"`
	// HumHigh triggers a HIGH HUMIDITY ALERT when exceeded (%)
	HumHigh float64 `yaml:"hum_high" json:"hum_high"`
	// HumLow triggers a LOW HUMIDITY ALERT when undercut (%)
	HumLow float64 `yaml:"hum_low" json:"hum_low"`
	// BatteryLow triggers a LOW BATTERY ALERT when level/max·100 falls below it (%)
	BatteryLow float64 `yaml:"battery_low" json:"battery_low"`
}

// ObserverConfig holds thresholds for the bundled observers.
type ObserverConfig struct {
	// TempWarn is the temperature monitor's warning threshold (°C)
	TempWarn float64 `yaml:"temp_warn" json:"temp_warn"`
	// TempCritical is the temperature monitor's critical threshold (°C)
	TempCritical float64 `yaml:"temp_critical" json:"temp_critical"`
	// BatteryLow is the battery monitor's level/max ratio threshold
	BatteryLow float64 `yaml:"battery_low" json:"battery_low"`
}

// VisitorConfig bounds the anomaly visitor's acceptable ranges.
type VisitorConfig struct {
	// TempMin and TempMax bound the normal temperature band (°C)
	TempMin float64 `yaml:"temp_min" json:"temp_min"`
	TempMax float64 `yaml:"temp_max" json:"temp_max"`
	// HumMin and HumMax bound the normal humidity band (%)
	HumMin float64 `yaml:"hum_min" json:"hum_min"`
	HumMax float64 `yaml:"hum_max" json:"hum_max"`
}

// ManufacturerConfig maps leading serial characters to manufacturer
// tags for post-hoc grouping. Serials whose first character has no
// entry are tagged Unknown.
type ManufacturerConfig struct {
	// Prefixes maps a one-character serial prefix to a manufacturer name
	Prefixes map[string]string `yaml:"prefixes" json:"prefixes"`
}

// SinkConfig describes one output destination as an orthogonal
// formatter/transport pair.
type SinkConfig struct {
	// Format selects the record serialization ("text", "json")
	Format string `yaml:"format" json:"format"`
	// Transport selects where formatted output goes ("console", "file", "compressed")
	Transport string `yaml:"transport" json:"transport"`
	// Path is the output file for file-backed transports
	Path string `yaml:"path" json:"path"`
	// Compression selects the algorithm for the compressed transport (gzip, zstd, lz4, s2, snappy, deflate)
	Compression string `yaml:"compression" json:"compression"`
}

// ObservabilityConfig contains monitoring settings.
type ObservabilityConfig struct {
	// EnableMetrics activates the Prometheus metrics endpoint
	EnableMetrics bool `yaml:"enable_metrics" json:"enable_metrics"`
	// MetricsAddr is the listen address for the metrics endpoint
	MetricsAddr string `yaml:"metrics_addr" json:"metrics_addr"`
	// EnableTracing activates span export to stdout
	EnableTracing bool `yaml:"enable_tracing" json:"enable_tracing"`
	// TracingSampleRate controls trace sampling (0.0-1.0)
	TracingSampleRate float64 `yaml:"tracing_sample_rate" json:"tracing_sample_rate"`
	// Environment tags telemetry (development, staging, production)
	Environment string `yaml:"environment" json:"environment"`
}

// LoggingConfig controls structured log output.
type LoggingConfig struct {
	// Level sets logging verbosity (debug, info, warn, error)
	Level string `yaml:"level" json:"level"`
	// Encoding selects the log format (json, console)
	Encoding string `yaml:"encoding" json:"encoding"`
}

// DefaultConfig creates a Config with the standard thresholds and
// limits. CLI flags and YAML files are layered over these values.
func DefaultConfig() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			Mode:      ModeSequential,
			InputPath: "sensor_data.txt",
		},
		Queue: QueueConfig{
			Capacity:    100,
			StopTimeout: 5 * time.Second,
		},
		Pool: PoolConfig{
			Workers: runtime.NumCPU(),
		},
		Actors: ActorConfig{
			MailboxSize:    100,
			RequestTimeout: 5 * time.Second,
		},
		Analyzers: AnalyzerConfig{
			TempWarn:     25,
			TempCritical: 30,
			HumLow:       30,
			HumHigh:      70,
			BatteryLow:   0.2,
		},
		Alerts: AlertConfig{
			TempHigh:   30,
			TempLow:    10,
			HumHigh:    80,
			HumLow:     20,
			BatteryLow: 30,
		},
		Observers: ObserverConfig{
			TempWarn:     25,
			TempCritical: 30,
			BatteryLow:   0.2,
		},
		Visitors: VisitorConfig{
			TempMin: 15,
			TempMax: 30,
			HumMin:  30,
			HumMax:  70,
		},
		Manufacturers: ManufacturerConfig{
			Prefixes: map[string]string{
				"1": "Qualcomm",
				"2": "Texas Instruments",
				"3": "NXP",
				"9": "Infineon",
			},
		},
		Sinks: []SinkConfig{
			{Format: "text", Transport: "console"},
		},
		Observability: ObservabilityConfig{
			EnableMetrics:     false,
			MetricsAddr:       ":9090",
			EnableTracing:     false,
			TracingSampleRate: 0.1,
			Environment:       "development",
		},
		Logging: LoggingConfig{
			Level:    "info",
			Encoding: "json",
		},
	}
}

// Validate validates the configuration for correctness.
// It checks required fields and ensures values are within acceptable
// ranges. Callers should validate after loading to catch errors early.
func (c *Config) Validate() error {
	switch c.Pipeline.Mode {
	case ModeSequential, ModePool, ModeStream:
	default:
		return fmt.Errorf("pipeline mode must be sequential, pool, or stream, got %q", c.Pipeline.Mode)
	}
	if c.Queue.Capacity <= 0 {
		return fmt.Errorf("queue capacity must be positive")
	}
	if c.Queue.StopTimeout <= 0 {
		return fmt.Errorf("queue stop_timeout must be positive")
	}
	if c.Pool.Workers < 0 {
		return fmt.Errorf("pool workers cannot be negative")
	}
	if c.Actors.MailboxSize <= 0 {
		return fmt.Errorf("actor mailbox_size must be positive")
	}
	if c.Actors.RequestTimeout <= 0 {
		return fmt.Errorf("actor request_timeout must be positive")
	}
	if c.Analyzers.TempWarn > c.Analyzers.TempCritical {
		return fmt.Errorf("analyzer temp_warn cannot exceed temp_critical")
	}
	if c.Analyzers.HumLow > c.Analyzers.HumHigh {
		return fmt.Errorf("analyzer hum_low cannot exceed hum_high")
	}
	if c.Analyzers.BatteryLow < 0 || c.Analyzers.BatteryLow > 1 {
		return fmt.Errorf("analyzer battery_low must be a ratio between 0 and 1")
	}
	if c.Alerts.BatteryLow < 0 || c.Alerts.BatteryLow > 100 {
		return fmt.Errorf("alert battery_low must be a percentage between 0 and 100")
	}
	if c.Visitors.TempMin > c.Visitors.TempMax {
		return fmt.Errorf("visitor temp_min cannot exceed temp_max")
	}
	if c.Visitors.HumMin > c.Visitors.HumMax {
		return fmt.Errorf("visitor hum_min cannot exceed hum_max")
	}
	for i, sink := range c.Sinks {
		if sink.Format == "" {
			return fmt.Errorf("sink %d: format is required", i)
		}
		if sink.Transport == "" {
			return fmt.Errorf("sink %d: transport is required", i)
		}
	}
	return nil
}

// GetWorkers returns the pool parallelism, ensuring it's at least 1
func (p *PoolConfig) GetWorkers() int {
	if p.Workers <= 0 {
		return runtime.NumCPU()
	}
	return p.Workers
}

// NeedsPath returns true if the sink writes to the filesystem
func (s *SinkConfig) NeedsPath() bool {
	return s.Transport == "file" || s.Transport == "compressed"
}
