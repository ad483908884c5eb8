package loadgen

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/sentinel/pkg/logger"
)

// SetupLogging initializes the global logger and tees it to logFile.
// If logFile is empty, a timestamped filename is generated. The returned
// closer releases the file.
func SetupLogging(logFile string) (io.Closer, error) {
	if err := logger.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		logFile = "loadgen_" + time.Now().Format("20060102_150405") + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	logger.SetOutput(io.MultiWriter(os.Stdout, file))
	return file, nil
}

// ShowHelp prints usage information for the load generator.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `Sentinel Load Generator
=======================

Posts synthetic social-media batches to a running sentinel service, waits for
them to be scored and checks the signals and trending ranking it reports.

Usage:
  go run ./cmd/loadgen [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -batches int
        Number of batches to generate and submit (default 1000)
  -batch-size int
        Items per batch (default 25)
  -tokens string
        Comma-separated symbols mentioned by generated items (default "BTC,ETH,SOL")
  -replays int
        Batches resubmitted verbatim to exercise deduplication (default 10)
  -top int
        Number of trending entries to fetch (default 20)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -settle duration
        How long to wait for the service to drain its queue (default 2m)
  -seed uint
        Generator seed; 0 picks one from the clock
  -output string
        Write the generated batches to this JSON file
  -log string
        Log file for run output (default: loadgen_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Run with default settings
  go run ./cmd/loadgen

  # Heavier run against another port
  go run ./cmd/loadgen -batches 20000 -workers 16 -url http://localhost:8080

  # Reproducible run with the generated batches kept on disk
  go run ./cmd/loadgen -seed 42 -output batches.json
`)
}
