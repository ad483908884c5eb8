// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	batchqueue "github.com/okian/sentinel/internal/adapters/mq/queue"
	workerpool "github.com/okian/sentinel/internal/adapters/mq/worker"
	repository "github.com/okian/sentinel/internal/adapters/repository"
	"github.com/okian/sentinel/internal/adapters/snapshot"
	"github.com/okian/sentinel/internal/domain/dedupe"
	"github.com/okian/sentinel/internal/domain/lexicon"
	"github.com/okian/sentinel/internal/domain/model"
	"github.com/okian/sentinel/internal/domain/scoring"
	"github.com/okian/sentinel/internal/engine"
	"github.com/okian/sentinel/pkg/logger"
	"github.com/okian/sentinel/pkg/metrics"
)

const (
	defaultQueueSize            = 1024
	defaultTrendingPublishLimit = 20
	stopTimeout                 = 30 * time.Second
)

// Service wires ingestion, processing and queries together.
type Service struct {
	mu sync.RWMutex

	// Core components
	store     *repository.HistoryStore
	engine    *engine.Engine
	deduper   dedupe.Deduper
	queue     batchqueue.Queue
	pool      *workerpool.Pool
	publisher snapshot.Publisher

	// Configuration
	workerCount          int
	queueSize            int
	dedupeSize           int
	shardCount           int
	historyLimit         int
	scoringParallelism   int
	trendingPublishLimit int
	tracked              []string
	trackedOnly          bool
	lexicon              *lexicon.Lexicon
	weights              scoring.Weights

	// State
	started bool

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:          runtime.NumCPU(),
		queueSize:            defaultQueueSize,
		dedupeSize:           dedupe.DefaultMaxSize,
		shardCount:           repository.DefaultShardCount,
		historyLimit:         repository.DefaultHistoryLimit,
		scoringParallelism:   runtime.NumCPU(),
		trendingPublishLimit: defaultTrendingPublishLimit,
		lexicon:              lexicon.Default(),
		weights:              scoring.DefaultWeights(),
		publisher:            snapshot.Nop{},
		logger:               logger.Discard(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if err := s.weights.Validate(); err != nil {
		return err
	}

	s.logger.Info(ctx, "starting sentiment service...")

	s.store = repository.NewHistoryStore(ctx,
		repository.WithShardCount(s.shardCount),
		repository.WithHistoryLimit(s.historyLimit),
	)
	s.engine = engine.New(s.store,
		engine.WithLogger(s.logger.Named("engine")),
		engine.WithTrackedSymbols(s.tracked),
		engine.WithTrackedOnly(s.trackedOnly),
		engine.WithScoringParallelism(s.scoringParallelism),
		engine.WithScorer(scoring.New(
			scoring.WithWeights(s.weights),
			scoring.WithLexicon(s.lexicon),
		)),
	)
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = batchqueue.NewInMemoryQueue(batchqueue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.engine,
		workerpool.WithLogger(s.logger),
		workerpool.WithPublisher(s.publisher),
		workerpool.WithTrendingLimit(s.trendingPublishLimit),
	)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "sentiment service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("historyLimit", s.historyLimit),
		logger.Int("tracked", len(s.engine.Tracked())),
	)

	return nil
}

// Stop drains queued batches and releases every component.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	s.logger.Info(ctx, "stopping sentiment service...")

	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown incomplete", logger.Error(err))
	}
	if err := errors.Join(s.store.Close(), s.publisher.Close()); err != nil {
		s.logger.Warn(ctx, "error releasing components", logger.Error(err))
	}

	s.started = false
	s.logger.Info(ctx, "sentiment service stopped")
}

// running returns the engine when the service is started.
func (s *Service) running() (*engine.Engine, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine, s.started
}

// SeenAndRecord atomically checks if an item id was seen and records it if not.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	s.mu.RLock()
	d := s.deduper
	s.mu.RUnlock()
	if d == nil {
		return false
	}
	seen := d.SeenAndRecord(ctx, id)
	if seen {
		metrics.RecordItemsDuplicate(1)
	}
	return seen
}

// Unrecord removes an item id so it can be ingested again.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.mu.RLock()
	d := s.deduper
	s.mu.RUnlock()
	if d != nil {
		d.Unrecord(ctx, id)
	}
}

// Size returns the number of remembered item ids.
func (s *Service) Size() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

// Enqueue submits a batch for asynchronous processing. It returns false on
// backpressure or when the service is not running.
func (s *Service) Enqueue(ctx context.Context, b model.Batch) bool { //nolint:gocritic // hugeParam: batch is passed by value for channel semantics
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return false
	}

	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.ReceivedAt.IsZero() {
		b.ReceivedAt = time.Now().UTC()
	}

	ok := s.queue.Enqueue(ctx, b)
	if ok {
		s.logger.Debug(ctx, "batch enqueued", logger.String("batch_id", b.ID), logger.Int("items", len(b.Items)))
	}
	return ok
}

// ProcessBatch runs items through the engine synchronously, bypassing the
// queue and the deduper.
func (s *Service) ProcessBatch(ctx context.Context, items []model.TextItem) map[string]model.TokenSignal {
	e, ok := s.running()
	if !ok {
		return map[string]model.TokenSignal{}
	}
	return e.ProcessBatch(ctx, items)
}

// CurrentSignal returns the latest signal of symbol.
func (s *Service) CurrentSignal(ctx context.Context, symbol string) (model.TokenSignal, bool) {
	e, ok := s.running()
	if !ok {
		return model.TokenSignal{}, false
	}
	return e.CurrentSignal(ctx, symbol)
}

// History returns the retained signals of symbol, oldest first.
func (s *Service) History(ctx context.Context, symbol string) []model.TokenSignal {
	e, ok := s.running()
	if !ok {
		return nil
	}
	return e.History(ctx, symbol)
}

// Trending returns the top limit tokens by trend score.
func (s *Service) Trending(ctx context.Context, limit int) []model.TrendingEntry {
	e, ok := s.running()
	if !ok {
		return []model.TrendingEntry{}
	}
	return e.Trending(ctx, limit)
}

// Reset clears every signal and every remembered item id.
func (s *Service) Reset(ctx context.Context) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return
	}
	s.engine.Reset(ctx)
	s.deduper.Reset(ctx)
}

// Processed returns how many batches the workers have processed.
func (s *Service) Processed() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.pool == nil {
		return 0
	}
	return s.pool.Processed()
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":      s.started,
		"workerCount":  s.workerCount,
		"queueSize":    s.queueSize,
		"dedupeSize":   s.dedupeSize,
		"historyLimit": s.historyLimit,
	}

	if s.started {
		es := s.engine.Stats(ctx)
		queueLen := s.queue.Len(ctx)

		stats["queueLength"] = queueLen
		stats["tokens"] = es.Tokens
		stats["records"] = es.Records
		stats["processedBatches"] = s.pool.Processed()
		stats["rememberedItems"] = s.deduper.Size()

		metrics.UpdateTrackedTokens(es.Tokens)
		metrics.UpdateWorkerCount(s.workerCount)
	}

	return stats
}
