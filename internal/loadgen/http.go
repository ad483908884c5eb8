package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/sentinel/pkg/logger"
)

// Submission outcomes.
const (
	outcomeAccepted  = "accepted"
	outcomeDuplicate = "duplicate"
	outcomeFailed    = "failed"
)

// errBackpressure marks a 429 answer; the submitter retries those.
var errBackpressure = errors.New("service applied backpressure")

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client  *http.Client
	timeout time.Duration
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
	}
}

// Get performs a GET request
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with JSON body
func (c *HTTPClient) Post(ctx context.Context, url string, body any) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// getJSON fetches url and decodes a 200 body into v. It returns the status
// code so callers can tell a 404 from a transport failure.
func (c *HTTPClient) getJSON(ctx context.Context, url string, v any) (int, error) {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, fmt.Errorf("HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	if err := json.Unmarshal(body, v); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to parse response: %w", err)
	}
	return resp.StatusCode, nil
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// submitBatches posts batches concurrently using a worker pool.
func submitBatches(ctx context.Context, config *Config, batches []BatchRequest, stats *Stats) error {
	config.Logger.Info(ctx, "submitting batches",
		logger.Int("batches", len(batches)),
		logger.Int("workers", config.Workers))

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/batches"

	var (
		accepted      atomic.Int64
		duplicate     atomic.Int64
		failed        atomic.Int64
		submitted     atomic.Int64
		retries       atomic.Int64
		itemsAccepted atomic.Int64
		itemsDup      atomic.Int64
		lastReport    atomic.Int64
	)
	reportInterval := time.Second

	batchChan := make(chan int, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for index := range batchChan {
				if ctx.Err() != nil {
					return
				}
				batch := batches[index]
				ack, outcome, tries := submitWithRetry(ctx, client, url, &batch)

				submitted.Add(1)
				retries.Add(int64(tries))
				switch outcome {
				case outcomeAccepted:
					accepted.Add(1)
					itemsAccepted.Add(int64(ack.Accepted))
					itemsDup.Add(int64(ack.Duplicates))
				case outcomeDuplicate:
					duplicate.Add(1)
					itemsDup.Add(int64(ack.Duplicates))
				default:
					failed.Add(1)
					if config.Verbose {
						config.Logger.Warn(ctx, "batch submission failed", logger.String("batchID", batch.BatchID))
					}
				}

				now := time.Now().UnixNano()
				last := lastReport.Load()
				if now-last >= int64(reportInterval) && lastReport.CompareAndSwap(last, now) {
					config.Logger.Info(ctx, "submission progress",
						logger.Int64("submitted", submitted.Load()),
						logger.Int("total", len(batches)),
						logger.Int64("accepted", accepted.Load()),
						logger.Int64("duplicate", duplicate.Load()),
						logger.Int64("failed", failed.Load()))
				}
			}
		}()
	}

	go func() {
		defer close(batchChan)
		for i := range batches {
			select {
			case <-ctx.Done():
				return
			case batchChan <- i:
			}
		}
	}()

	wg.Wait()

	stats.BatchesSubmitted += int(submitted.Load())
	stats.BatchesAccepted += int(accepted.Load())
	stats.BatchesDuplicate += int(duplicate.Load())
	stats.BatchesFailed += int(failed.Load())
	stats.Retries += int(retries.Load())
	stats.ItemsAccepted += int(itemsAccepted.Load())
	stats.ItemsDuplicate += int(itemsDup.Load())

	config.Logger.Info(ctx, "batch submission completed",
		logger.Int64("accepted", accepted.Load()),
		logger.Int64("duplicate", duplicate.Load()),
		logger.Int64("failed", failed.Load()),
		logger.Int64("retries", retries.Load()))

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("submission interrupted: %w", err)
	}
	return nil
}

// submitWithRetry posts one batch, backing off while the service answers 429.
// It returns the ack, the outcome and how many retries it took.
func submitWithRetry(ctx context.Context, client *HTTPClient, url string, batch *BatchRequest) (AckResponse, string, int) {
	delay := retryBaseDelay
	for attempt := 0; ; attempt++ {
		ack, err := submitSingleBatch(ctx, client, url, batch)
		switch {
		case err == nil:
			if ack.Status == outcomeDuplicate {
				return ack, outcomeDuplicate, attempt
			}
			return ack, outcomeAccepted, attempt
		case !errors.Is(err, errBackpressure) || attempt >= maxSubmitRetries:
			return AckResponse{}, outcomeFailed, attempt
		}

		select {
		case <-ctx.Done():
			return AckResponse{}, outcomeFailed, attempt
		case <-time.After(delay):
		}
		delay *= 2
	}
}

// submitSingleBatch submits a single batch and decodes the acknowledgement.
func submitSingleBatch(ctx context.Context, client *HTTPClient, url string, batch *BatchRequest) (AckResponse, error) {
	resp, err := client.Post(ctx, url, batch)
	if err != nil {
		return AckResponse{}, err
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return AckResponse{}, err
	}

	var ack AckResponse
	switch resp.StatusCode {
	case http.StatusAccepted, http.StatusOK:
		if err := json.Unmarshal(body, &ack); err != nil {
			return AckResponse{}, fmt.Errorf("failed to parse ack: %w", err)
		}
		return ack, nil
	case http.StatusTooManyRequests:
		return AckResponse{}, errBackpressure
	default:
		return AckResponse{}, fmt.Errorf("HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
}
