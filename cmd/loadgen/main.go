package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/okian/sentinel/internal/loadgen"
	"github.com/okian/sentinel/pkg/logger"
)

// Default configuration constants.
const (
	defaultNumBatches  = 1000
	defaultBatchSize   = 25
	defaultReplays     = 10
	defaultTokens      = "BTC,ETH,SOL"
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTestTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9080", "Base URL of the service")
		numBatches = flag.Int("batches", defaultNumBatches, "Number of batches to generate and submit")
		batchSize  = flag.Int("batch-size", defaultBatchSize, "Items per batch")
		tokens     = flag.String("tokens", defaultTokens, "Comma-separated symbols mentioned by generated items")
		replays    = flag.Int("replays", defaultReplays, "Batches resubmitted verbatim to exercise deduplication")
		topN       = flag.Int("top", loadgen.DefaultTopN, "Number of trending entries to fetch")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout    = flag.Duration("timeout", loadgen.DefaultRequestTimeout, "HTTP request timeout")
		settle     = flag.Duration("settle", loadgen.DefaultSettleTimeout, "How long to wait for the service to drain its queue")
		seed       = flag.Uint64("seed", 0, "Generator seed; 0 picks one from the clock")
		outputFile = flag.String("output", "", "Write the generated batches to this JSON file")
		logFile    = flag.String("log", "", "Log file for run output (default: loadgen_TIMESTAMP.log)")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		loadgen.ShowHelp(os.Stdout)
		return
	}

	closer, err := loadgen.SetupLogging(*logFile)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer closer.Close()

	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultTestTimeout)
	defer cancel()

	config := &loadgen.Config{
		BaseURL:       *baseURL,
		NumBatches:    *numBatches,
		BatchSize:     *batchSize,
		Tokens:        strings.Split(*tokens, ","),
		Replays:       *replays,
		TopN:          *topN,
		Workers:       *workers,
		Timeout:       *timeout,
		SettleTimeout: *settle,
		Seed:          *seed,
		OutputFile:    *outputFile,
		Verbose:       *verbose,
		Logger:        logger.Named("loadgen"),
	}

	if _, err := loadgen.Run(ctx, config); err != nil {
		logger.Get().Error(ctx, "load test failed", logger.Error(err))
		cancel()
		stop()
		_ = closer.Close()
		os.Exit(1)
	}
}
