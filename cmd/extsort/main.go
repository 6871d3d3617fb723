// Command extsort sorts a directory of fixed-width int64 record files into
// a single sorted output file using a bounded-memory external merge sort.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gosort/extsort"
)

var (
	outputPath  = flag.String("o", "", "output file path (required)")
	memoryBytes = flag.Int64("mem", extsort.DefaultMemoryBytes, "memory budget in bytes")
	workers     = flag.Int("workers", 0, "worker pool size (default: GOMAXPROCS)")
	fanIn       = flag.Int("fan-in", extsort.DefaultFanIn, "merge fan-in per round")
	scratchDir  = flag.String("scratch", "", "scratch directory (default: alongside the output file)")
	ioLimit     = flag.Int64("io-bytes-per-sec", 0, "aggregate I/O throughput limit in bytes/sec (0: unlimited)")
	probeFDs    = flag.Bool("probe-fd-limit", false, "clamp fan-in to a safe fraction of RLIMIT_NOFILE")
	jsonLogs    = flag.Bool("json-logs", false, "emit logs as JSON instead of text")
	verbose     = flag.Bool("v", false, "enable debug-level logging")
)

func main() {
	flag.Parse()

	if *outputPath == "" || flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s -o <output> [options] <input-dir>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}
	inputDir := flag.Arg(0)

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := extsort.NewTextLogger(level)
	if *jsonLogs {
		logger = extsort.NewJSONLogger(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := extsort.Config{
		InputDir:    inputDir,
		OutputPath:  *outputPath,
		MemoryBytes: *memoryBytes,
		Workers:     *workers,
	}

	metrics := &extsort.BasicMetricsCollector{}

	opts := []extsort.Option{
		extsort.WithLogger(logger),
		extsort.WithMetricsCollector(metrics),
		extsort.WithFanIn(*fanIn),
		extsort.WithIOBytesPerSecond(*ioLimit),
		extsort.WithOpenFileLimitProbing(*probeFDs),
	}
	if *scratchDir != "" {
		opts = append(opts, extsort.WithScratchDir(*scratchDir))
	}

	if err := extsort.Sort(ctx, cfg, opts...); err != nil {
		fmt.Fprintf(os.Stderr, "extsort: %v\n", err)
		os.Exit(1)
	}

	stats := metrics.GetStats()
	fmt.Fprintf(os.Stderr, "extsort: wrote %d records across %d merge rounds from %d runs\n",
		stats.RunRecordsTotal, stats.MergeRounds, stats.RunsProduced)
}
