// Package worker drains queued batches into the engine and hands the
// resulting signals to a publisher.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"slices"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/sentinel/internal/domain/model"
	"github.com/okian/sentinel/pkg/logger"
	"github.com/okian/sentinel/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultTrendingLimit  = 20
	metricsUpdateInterval = 5 * time.Second
	poolShutdownTimeout   = 30 * time.Second
)

// Processor turns a batch of items into token signals.
type Processor interface {
	ProcessBatch(ctx context.Context, items []model.TextItem) map[string]model.TokenSignal
	Trending(ctx context.Context, limit int) []model.TrendingEntry
}

// Publisher receives every signal a batch produced and the trending ranking
// after it.
type Publisher interface {
	PublishSignals(ctx context.Context, signals []model.TokenSignal) error
	PublishTrending(ctx context.Context, entries []model.TrendingEntry) error
}

// Queue defines how workers receive batches.
type Queue interface {
	Dequeue(ctx context.Context) <-chan model.Batch
	Len(ctx context.Context) int
}

// Worker processes batches until its queue closes.
type Worker interface {
	// Run starts the worker loop until ctx is canceled, the queue is
	// closed or Shutdown is called.
	Run(ctx context.Context)

	// Shutdown stops the worker after the batch in flight.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for processing batches.
type InMemoryWorker struct {
	queue         Queue
	processor     Processor
	publisher     Publisher
	trendingLimit int
	name          string
	onProcessed   func(model.Batch, map[string]model.TokenSignal)

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, processor Processor, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:         queue,
		processor:     processor,
		trendingLimit: defaultTrendingLimit,
		name:          "worker",
		shutdown:      make(chan struct{}),
		done:          make(chan struct{}),
		logger:        logger.Discard(),
	}

	for _, opt := range opts {
		opt(w)
	}

	w.logger = w.logger.Named(w.name)

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	batches := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case b, ok := <-batches:
			if !ok {
				return
			}
			w.queue.Len(ctx)
			if err := w.processBatch(ctx, b); err != nil {
				w.logger.Error(ctx, "error processing batch", logger.String("batch_id", b.ID), logger.Error(err))
			}
		}
	}
}

// Shutdown stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processBatch runs one batch through the processor and publishes the
// result. A publish failure is reported but does not undo processing.
func (w *InMemoryWorker) processBatch(ctx context.Context, b model.Batch) error { //nolint:gocritic // hugeParam: batch is passed by value for channel semantics
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	signals := w.processor.ProcessBatch(ctx, b.Items)
	if w.onProcessed != nil {
		w.onProcessed(b, signals)
	}

	if w.publisher == nil || len(signals) == 0 {
		return nil
	}

	ordered := make([]model.TokenSignal, 0, len(signals))
	for _, sig := range signals {
		ordered = append(ordered, sig)
	}
	slices.SortFunc(ordered, func(a, b model.TokenSignal) int {
		switch {
		case a.Symbol < b.Symbol:
			return -1
		case a.Symbol > b.Symbol:
			return 1
		}
		return 0
	})

	if err := w.publisher.PublishSignals(ctx, ordered); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "publish_signals")
		return fmt.Errorf("publish signals for batch %s: %w", b.ID, err)
	}
	if err := w.publisher.PublishTrending(ctx, w.processor.Trending(ctx, w.trendingLimit)); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "publish_trending")
		return fmt.Errorf("publish trending after batch %s: %w", b.ID, err)
	}
	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	shutdown chan struct{}
	stopped  atomic.Bool

	processed atomic.Int64

	logger logger.Logger
}

// NewPool creates a new worker pool. opts are applied to every worker.
func NewPool(workerCount int, queue Queue, processor Processor, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{
		workers:  make([]*InMemoryWorker, workerCount),
		queue:    queue,
		shutdown: make(chan struct{}),
		logger:   logger.Discard(),
	}

	for i := 0; i < workerCount; i++ {
		w := NewInMemoryWorker(queue, processor, append(slices.Clone(opts), WithName("worker-"+strconv.Itoa(i)))...)
		userHook := w.onProcessed
		w.onProcessed = func(b model.Batch, s map[string]model.TokenSignal) {
			pool.processed.Add(1)
			if userHook != nil {
				userHook(b, s)
			}
		}
		pool.workers[i] = w
	}
	if len(pool.workers) > 0 {
		pool.logger = pool.workers[0].logger
	}

	metrics.UpdateWorkerCount(workerCount)

	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Processed returns how many batches the pool has processed.
func (p *Pool) Processed() int64 { return p.processed.Load() }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, worker := range p.workers {
		go worker.Run(ctx)
	}

	go p.startMetricsUpdater(ctx)
}

// startMetricsUpdater starts a background goroutine that updates worker metrics.
func (p *Pool) startMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(metricsUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.shutdown:
			return
		case <-ticker.C:
			metrics.UpdateWorkerCount(len(p.workers))
			p.queue.Len(ctx)
		}
	}
}

// Shutdown closes the queue and lets the workers drain it. Workers still
// busy when ctx or the pool timeout expires are told to stop.
func (p *Pool) Shutdown(ctx context.Context) error {
	if !p.stopped.CompareAndSwap(false, true) {
		return nil
	}

	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, worker := range p.workers {
		select {
		case <-worker.done:
		case <-shutdownCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker drain timed out", logger.Int("worker_id", i))
		}
	}

	close(p.shutdown)
	if timedOut {
		for _, worker := range p.workers {
			_ = worker.Shutdown(shutdownCtx)
		}
		return fmt.Errorf("worker pool drain: %w", shutdownCtx.Err())
	}
	return nil
}
