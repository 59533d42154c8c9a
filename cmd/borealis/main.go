// Command borealis ingests raw sensor log lines and fans every record
// out to aggregation, analysis, alerting, and output subsystems.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/borealis/internal/bench"
	"github.com/ajitpratap0/borealis/internal/pipeline"
	"github.com/ajitpratap0/borealis/pkg/analyzer"
	"github.com/ajitpratap0/borealis/pkg/composite"
	"github.com/ajitpratap0/borealis/pkg/config"
	"github.com/ajitpratap0/borealis/pkg/logger"
	"github.com/ajitpratap0/borealis/pkg/metrics"
	"github.com/ajitpratap0/borealis/pkg/observability"
	"github.com/ajitpratap0/borealis/pkg/parser"
	"github.com/ajitpratap0/borealis/pkg/sink"
)

// Overridden at build time via -ldflags.
var (
	version = "0.1.0"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	var configFile, logLevel string
	cfg := config.DefaultConfig()

	root := &cobra.Command{
		Use:   "borealis",
		Short: "Borealis - sensor record ingest and fan-out pipeline",
		Long: `Borealis reads raw sensor log lines, normalizes each into a record, and
fans it out to a hierarchical aggregation tree, per-type analyzers, a
storage/alerting actor pair, broadcast observers, and configurable sinks.
The same record path runs sequentially, across a worker pool, or through
a bounded streaming queue.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := setup(configFile, logLevel)
			if err != nil {
				return err
			}
			*cfg = *loaded
			return nil
		},
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "Path to a YAML configuration file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level override (debug, info, warn, error)")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Borealis v%s\n", version)
			fmt.Printf("Commit: %s\n", commit)
			fmt.Printf("Built: %s\n", date)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List registered parsers, formatters, transports, and analyzers",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("Parsers:")
			for _, name := range parser.List() {
				fmt.Printf("  - %s\n", name)
			}
			fmt.Println("\nFormatters:")
			for _, name := range sink.Formatters() {
				fmt.Printf("  - %s\n", name)
			}
			fmt.Println("\nTransports:")
			for _, name := range sink.Transports() {
				fmt.Printf("  - %s\n", name)
			}
			fmt.Println("\nAnalyzers:")
			for _, name := range analyzerTypes(cfg) {
				fmt.Printf("  - %s\n", name)
			}
		},
	})

	var mode, metricsAddr string
	var workers int
	var byManufacturer bool

	runCmd := &cobra.Command{
		Use:   "run [file]",
		Short: "Run the pipeline over a sensor log file",
		Long: `Run reads the sensor log line by line, drives every line through the
record path in the selected mode, and prints the aggregation tree,
analyzer reports, visitor summaries, actor status, alert log, and run
totals.

Example:
  borealis run sensor_data.txt --mode pool --workers 8`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := cfg.Pipeline.InputPath
			if len(args) == 1 {
				input = args[0]
			}
			return runPipeline(cmd.Context(), cfg, runOptions{
				input:          input,
				mode:           mode,
				workers:        workers,
				metricsAddr:    metricsAddr,
				byManufacturer: byManufacturer,
			})
		},
	}
	runCmd.Flags().StringVarP(&mode, "mode", "m", "", "Execution mode: sequential, pool, or stream (1, 2, 3 also accepted)")
	runCmd.Flags().IntVarP(&workers, "workers", "w", 0, "Worker pool size; defaults to the number of CPUs")
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	runCmd.Flags().BoolVar(&byManufacturer, "by-manufacturer", false, "Regroup the sensor tree by manufacturer before display")
	root.AddCommand(runCmd)

	var records, benchWorkers int
	var seed int64
	var benchModes []string
	var benchOutput string

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark the execution modes with synthetic sensor traffic",
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := bench.Run(cmd.Context(), bench.Options{
				Records: records,
				Seed:    seed,
				Modes:   benchModes,
				Workers: benchWorkers,
			})
			if err != nil {
				return err
			}
			return writeBenchResults(benchOutput, results)
		},
	}
	benchCmd.Flags().IntVar(&records, "records", bench.DefaultRecords, "Synthetic lines per mode")
	benchCmd.Flags().Int64Var(&seed, "seed", bench.DefaultSeed, "Generator seed; equal seeds replay identical input")
	benchCmd.Flags().StringSliceVar(&benchModes, "modes", nil, "Modes to benchmark; defaults to all three")
	benchCmd.Flags().IntVar(&benchWorkers, "workers", 0, "Worker pool size override")
	benchCmd.Flags().StringVar(&benchOutput, "output", "", "Write JSON results to this file instead of stdout")
	root.AddCommand(benchCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup layers the optional config file over the defaults and brings
// the global logger up at the effective level.
func setup(configFile, logLevel string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.LoadFile(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if err := logger.Init(logger.Config{
		Level:    cfg.Logging.Level,
		Encoding: cfg.Logging.Encoding,
	}); err != nil {
		return nil, fmt.Errorf("logger initialization failed: %w", err)
	}
	return cfg, nil
}

type runOptions struct {
	input          string
	mode           string
	workers        int
	metricsAddr    string
	byManufacturer bool
}

// runPipeline executes one full pipeline run and prints the reports.
func runPipeline(ctx context.Context, cfg *config.Config, opts runOptions) error {
	rawMode := opts.mode
	if rawMode == "" {
		rawMode = cfg.Pipeline.Mode
	}
	mode, err := pipeline.NormalizeMode(rawMode)
	if err != nil {
		return err
	}
	if opts.workers > 0 {
		cfg.Pool.Workers = opts.workers
	}
	if opts.metricsAddr != "" {
		cfg.Observability.EnableMetrics = true
		cfg.Observability.MetricsAddr = opts.metricsAddr
	}

	log := logger.Get().With(zap.String("component", "borealis-cli"))

	if cfg.Observability.EnableMetrics {
		server := metrics.NewServer(cfg.Observability.MetricsAddr)
		go func() {
			if err := server.Start(); err != nil {
				log.Error("metrics server", zap.Error(err))
			}
		}()
		defer stopMetricsServer(server, log)
	}
	if cfg.Observability.EnableTracing {
		if err := observability.Init(cfg.Observability); err != nil {
			return fmt.Errorf("tracing initialization failed: %w", err)
		}
		defer shutdownTracing(log)
	}

	lines, err := readLines(opts.input)
	if err != nil {
		return err
	}

	coord, err := pipeline.New(cfg)
	if err != nil {
		return err
	}
	defer coord.Shutdown()

	log.Info("pipeline starting",
		zap.String("input", opts.input),
		zap.String("mode", mode),
		zap.Int("lines", len(lines)))

	timer := metrics.NewTimer("pipeline_run")
	if _, err := coord.Run(ctx, mode, lines); err != nil {
		return fmt.Errorf("pipeline run failed: %w", err)
	}

	if err := report(os.Stdout, coord, cfg, opts.byManufacturer); err != nil {
		return err
	}
	log.Info("pipeline finished", zap.Duration("elapsed", timer.Stop()))
	return nil
}

// report prints the post-run views. Actor queries happen before the
// deferred Shutdown, so they ride the mailbox behind every ingest and
// see the complete run.
func report(w io.Writer, coord *pipeline.Coordinator, cfg *config.Config, byManufacturer bool) error {
	tree := coord.Composite()
	if byManufacturer {
		tree.OrganizeByManufacturer()
	}

	fmt.Fprintln(w, "=== Sensor Tree ===")
	if err := tree.Display(w); err != nil {
		return fmt.Errorf("tree display failed: %w", err)
	}

	fmt.Fprintln(w, "\n=== Analyzer Reports ===")
	results := coord.Analyzers().ResultsAll()
	labels := make([]string, 0, len(results))
	for label := range results {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		fmt.Fprintln(w, results[label])
	}

	fmt.Fprintln(w, "=== Health ===")
	fmt.Fprintln(w, tree.ApplyVisitor(composite.NewHealthVisitor()))

	fmt.Fprintln(w, "=== Anomalies ===")
	v := cfg.Visitors
	fmt.Fprintln(w, tree.ApplyVisitor(composite.NewAnomalyVisitor(v.TempMin, v.TempMax, v.HumMin, v.HumMax)))

	fmt.Fprintln(w, "=== Data Store ===")
	if status, err := coord.Actors().Status(); err != nil {
		fmt.Fprintf(w, "status unavailable: %v\n", err)
	} else {
		fmt.Fprintf(w, "%d records from %d sensors\n", status.Processed, status.ActiveSensors)
	}

	fmt.Fprintln(w, "\n=== Alerts ===")
	if alerts, err := coord.Actors().GetAlerts(); err != nil {
		fmt.Fprintf(w, "alert log unavailable: %v\n", err)
	} else if alerts == "" {
		fmt.Fprintln(w, "none")
	} else {
		fmt.Fprintln(w, alerts)
	}

	s := coord.Summary()
	fmt.Fprintln(w, "\n=== Run Summary ===")
	fmt.Fprintf(w, "Mode:       %s\n", s.Mode)
	fmt.Fprintf(w, "Lines:      %d\n", s.Lines)
	fmt.Fprintf(w, "Processed:  %d\n", s.Processed)
	fmt.Fprintf(w, "Dropped:    %d\n", s.Dropped)
	fmt.Fprintf(w, "Failed:     %d\n", s.Failed)
	fmt.Fprintf(w, "Sensors:    %d\n", s.Sensors)
	fmt.Fprintf(w, "Alerts:     %d\n", s.Alerts)
	fmt.Fprintf(w, "Duration:   %s\n", s.Duration)
	if s.Duration > 0 {
		fmt.Fprintf(w, "Throughput: %.0f records/s\n", float64(s.Lines)/s.Duration.Seconds())
	}
	return nil
}

// readLines loads the input log, skipping blank lines.
func readLines(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path comes from the operator
	if err != nil {
		return nil, fmt.Errorf("failed to open input %s: %w", path, err)
	}
	defer f.Close()

	lines := make([]string, 0, 1024)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read input %s: %w", path, err)
	}
	return lines, nil
}

// analyzerTypes lists the sensor types with a configured analyzer.
func analyzerTypes(cfg *config.Config) []string {
	factories := analyzer.Defaults(cfg.Analyzers)
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func writeBenchResults(path string, results []bench.Result) error {
	if path == "" {
		return bench.WriteResults(os.Stdout, results)
	}
	f, err := os.Create(path) //nolint:gosec // G304: path comes from the operator
	if err != nil {
		return fmt.Errorf("failed to create output %s: %w", path, err)
	}
	defer f.Close()
	return bench.WriteResults(f, results)
}

func stopMetricsServer(server *metrics.Server, log *zap.Logger) {
	if err := server.Stop(); err != nil {
		log.Warn("metrics server stop", zap.Error(err))
	}
}

func shutdownTracing(log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := observability.Shutdown(ctx); err != nil {
		log.Warn("tracing shutdown", zap.Error(err))
	}
}
