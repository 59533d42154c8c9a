package bench

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"

	"github.com/ajitpratap0/borealis/internal/pipeline"
	"github.com/ajitpratap0/borealis/pkg/config"
	"github.com/ajitpratap0/borealis/pkg/errors"
	"github.com/ajitpratap0/borealis/pkg/json"
	"github.com/ajitpratap0/borealis/pkg/logger"
)

// Defaults applied by Run when an Options field is zero.
const (
	DefaultRecords = 10000
	DefaultSeed    = 1
)

// Options shapes one benchmark invocation.
type Options struct {
	// Records is the number of synthetic lines per mode
	Records int `json:"records"`
	// Seed feeds the line generator; equal seeds mean equal input
	Seed int64 `json:"seed"`
	// Modes to benchmark; empty means all three
	Modes []string `json:"modes"`
	// Workers overrides the pool size when positive
	Workers int `json:"workers,omitempty"`
}

// Result carries the measurements of one mode's run.
type Result struct {
	Mode             string  `json:"mode"`
	Records          int     `json:"records"`
	DurationNS       int64   `json:"duration_ns"`
	RecordsPerSecond float64 `json:"records_per_second"`
	CPUPercent       float64 `json:"cpu_percent"`
	MemoryRSSBytes   uint64  `json:"memory_rss_bytes"`
	Processed        int64   `json:"processed"`
	Dropped          int64   `json:"dropped"`
	Failed           int64   `json:"failed"`
	Alerts           int64   `json:"alerts"`
}

// Run benchmarks every requested mode against one generated batch.
// Each mode gets a fresh coordinator so state never bleeds between
// runs; the input lines are shared, so modes race on identical work.
func Run(ctx context.Context, opts Options) ([]Result, error) {
	if opts.Records <= 0 {
		opts.Records = DefaultRecords
	}
	if opts.Seed == 0 {
		opts.Seed = DefaultSeed
	}
	if len(opts.Modes) == 0 {
		opts.Modes = []string{config.ModeSequential, config.ModePool, config.ModeStream}
	}

	modes := make([]string, 0, len(opts.Modes))
	for _, raw := range opts.Modes {
		mode, err := pipeline.NormalizeMode(raw)
		if err != nil {
			return nil, err
		}
		modes = append(modes, mode)
	}

	log := logger.Get().With(zap.String("component", "bench"))
	lines := NewGenerator(opts.Seed).Lines(opts.Records)

	results := make([]Result, 0, len(modes))
	for _, mode := range modes {
		log.Info("benchmark starting",
			zap.String("mode", mode),
			zap.Int("records", opts.Records),
			zap.Int64("seed", opts.Seed))

		res, err := runMode(ctx, mode, lines, opts)
		if err != nil {
			return nil, err
		}
		results = append(results, res)

		log.Info("benchmark finished",
			zap.String("mode", mode),
			zap.Float64("records_per_second", res.RecordsPerSecond),
			zap.Float64("cpu_percent", res.CPUPercent))
	}
	return results, nil
}

// runMode drives one mode end to end and snapshots resource usage.
func runMode(ctx context.Context, mode string, lines []string, opts Options) (Result, error) {
	cfg := config.DefaultConfig()
	// Benchmarks measure the record path, not terminal throughput.
	cfg.Sinks = nil
	if opts.Workers > 0 {
		cfg.Pool.Workers = opts.Workers
	}

	coord, err := pipeline.New(cfg)
	if err != nil {
		return Result{}, err
	}

	sampler := newSampler()
	if _, err := coord.Run(ctx, mode, lines); err != nil {
		coord.Shutdown()
		return Result{}, errors.Wrap(err, errors.ErrorTypeInternal, "benchmark run failed")
	}

	// Shut down before reading the summary so the alert mailbox is
	// fully drained and the counters are exact.
	coord.Shutdown()
	cpuPercent, rss := sampler.snapshot()

	summary := coord.Summary()
	res := Result{
		Mode:           mode,
		Records:        len(lines),
		DurationNS:     summary.Duration.Nanoseconds(),
		CPUPercent:     cpuPercent,
		MemoryRSSBytes: rss,
		Processed:      summary.Processed,
		Dropped:        summary.Dropped,
		Failed:         summary.Failed,
		Alerts:         summary.Alerts,
	}
	if summary.Duration > 0 {
		res.RecordsPerSecond = float64(len(lines)) / summary.Duration.Seconds()
	}
	return res, nil
}

// WriteResults marshals the results as indented JSON.
func WriteResults(w io.Writer, results []Result) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "benchmark result encoding failed")
	}
	if _, err := w.Write(data); err != nil {
		return errors.Wrap(err, errors.ErrorTypeSinkIO, "benchmark result write failed")
	}
	_, err = io.WriteString(w, "\n")
	return err
}

// sampler measures this process's CPU time and resident memory over
// a window, the way the profiler's resource monitor does.
type sampler struct {
	proc     *process.Process
	startCPU float64
	start    time.Time
}

func newSampler() *sampler {
	s := &sampler{start: time.Now()}
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return s
	}
	s.proc = proc
	if times, err := proc.Times(); err == nil {
		s.startCPU = times.Total()
	}
	return s
}

// snapshot returns CPU usage as a percentage of one core over the
// sampling window, and the current resident set size. Zero values mean
// the platform would not report.
func (s *sampler) snapshot() (cpuPercent float64, rss uint64) {
	if s.proc == nil {
		return 0, 0
	}
	elapsed := time.Since(s.start).Seconds()
	if times, err := s.proc.Times(); err == nil && elapsed > 0 {
		cpuPercent = (times.Total() - s.startCPU) / elapsed * 100
	}
	if memInfo, err := s.proc.MemoryInfo(); err == nil {
		rss = memInfo.RSS
	}
	return cpuPercent, rss
}
