package repository

import (
	"context"
	"fmt"
	"hash/fnv"
	"slices"
	"sync"
	"time"

	"github.com/okian/sentinel/internal/domain/model"
	"github.com/okian/sentinel/internal/domain/trending"
	"github.com/okian/sentinel/internal/domain/types"
	"github.com/okian/sentinel/pkg/metrics"
)

// Default store configuration.
const (
	DefaultHistoryLimit          = 500
	DefaultShardCount            = 16
	defaultMetricsUpdateInterval = 5 * time.Second
)

// ring is a bounded FIFO of signals. Until it is full head stays 0 and buf
// grows; afterwards the oldest slot at head is overwritten.
type ring struct {
	buf  []model.TokenSignal
	head int
}

func (r *ring) size() int { return len(r.buf) }

// at returns the i-th oldest signal.
func (r *ring) at(i int) model.TokenSignal {
	return r.buf[(r.head+i)%len(r.buf)]
}

// push appends sig and reports whether the oldest entry was evicted.
func (r *ring) push(sig model.TokenSignal, limit int) bool {
	if len(r.buf) < limit {
		r.buf = append(r.buf, sig)
		return false
	}
	r.buf[r.head] = sig
	r.head = (r.head + 1) % len(r.buf)
	return true
}

// tail returns the last n signals, oldest first.
func (r *ring) tail(n int) []model.TokenSignal {
	n = min(n, len(r.buf))
	out := make([]model.TokenSignal, n)
	start := len(r.buf) - n
	for i := range out {
		out[i] = r.at(start + i)
	}
	return out
}

// shard owns an arena of rings and the symbol index into it.
type shard struct {
	mu      sync.RWMutex
	index   map[string]int
	rings   []ring
	records int
}

func newShard() *shard {
	return &shard{index: make(map[string]int)}
}

// HistoryStore is an in-memory Store sharded by a hash of the symbol.
// Appends for one symbol are serialized by its shard lock; readers get
// copies and never observe a partially built signal.
type HistoryStore struct {
	shards                []*shard
	shardCount            int
	limit                 int
	metricsUpdateInterval time.Duration

	wg       sync.WaitGroup
	stopOnce sync.Once
	stopChan chan struct{}
}

var _ Store = (*HistoryStore)(nil)

// NewHistoryStore constructs a history store and starts its metrics updater,
// which runs until ctx is done or Close is called.
func NewHistoryStore(ctx context.Context, opts ...Option) *HistoryStore {
	s := &HistoryStore{
		shardCount:            DefaultShardCount,
		limit:                 DefaultHistoryLimit,
		metricsUpdateInterval: defaultMetricsUpdateInterval,
		stopChan:              make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.shards = make([]*shard, s.shardCount)
	for i := range s.shards {
		s.shards[i] = newShard()
	}

	metrics.UpdateRepositoryShardCount(s.shardCount)
	s.startMetricsUpdater(ctx)

	return s
}

// Limit returns the per-token retention cap.
func (s *HistoryStore) Limit() int { return s.limit }

func (s *HistoryStore) shardFor(symbol string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(symbol))
	return s.shards[h.Sum32()%uint32(len(s.shards))]
}

// AppendWith implements Store.AppendWith.
func (s *HistoryStore) AppendWith(_ context.Context, symbol string, build BuildFunc) (model.TokenSignal, error) {
	if err := types.ValidateSymbol(symbol); err != nil {
		metrics.RecordErrorByComponent("repository", "invalid_symbol")
		return model.TokenSignal{}, fmt.Errorf("append %q: %w", symbol, err)
	}
	if build == nil {
		return model.TokenSignal{}, ErrNilBuild
	}

	sh := s.shardFor(symbol)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	idx, ok := sh.index[symbol]
	var prev *model.TokenSignal
	if ok && sh.rings[idx].size() > 0 {
		p := sh.rings[idx].at(sh.rings[idx].size() - 1)
		prev = &p
	}

	sig := build(prev)
	sig.Symbol = symbol

	if !ok {
		idx = len(sh.rings)
		sh.rings = append(sh.rings, ring{buf: make([]model.TokenSignal, 0, min(s.limit, 16))})
		sh.index[symbol] = idx
	}
	if sh.rings[idx].push(sig, s.limit) {
		metrics.RecordHistoryEviction()
	} else {
		sh.records++
	}
	metrics.RecordSignalAppended()

	return sig, nil
}

// History implements Store.History.
func (s *HistoryStore) History(_ context.Context, symbol string) ([]model.TokenSignal, error) {
	sh := s.shardFor(symbol)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	idx, ok := sh.index[symbol]
	if !ok {
		return []model.TokenSignal{}, nil
	}
	r := &sh.rings[idx]
	return r.tail(r.size()), nil
}

// Latest implements Store.Latest.
func (s *HistoryStore) Latest(_ context.Context, symbol string, n int) ([]model.TokenSignal, error) {
	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	sh := s.shardFor(symbol)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	idx, ok := sh.index[symbol]
	if !ok {
		return nil, ErrNotFound
	}
	return sh.rings[idx].tail(n), nil
}

// Current implements Store.Current.
func (s *HistoryStore) Current(_ context.Context, symbol string) (model.TokenSignal, error) {
	sh := s.shardFor(symbol)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	idx, ok := sh.index[symbol]
	if !ok || sh.rings[idx].size() == 0 {
		return model.TokenSignal{}, ErrNotFound
	}
	r := &sh.rings[idx]
	return r.at(r.size() - 1), nil
}

// LatestPairs implements Store.LatestPairs.
func (s *HistoryStore) LatestPairs(_ context.Context) []trending.Pair {
	var out []trending.Pair
	for _, sh := range s.shards {
		sh.mu.RLock()
		for _, idx := range sh.index {
			r := &sh.rings[idx]
			n := r.size()
			if n == 0 {
				continue
			}
			p := trending.Pair{Latest: r.at(n - 1)}
			if n > 1 {
				prev := r.at(n - 2)
				p.Previous = &prev
			}
			out = append(out, p)
		}
		sh.mu.RUnlock()
	}
	return out
}

// Symbols implements Store.Symbols.
func (s *HistoryStore) Symbols(_ context.Context) []string {
	out := make([]string, 0)
	for _, sh := range s.shards {
		sh.mu.RLock()
		for sym := range sh.index {
			out = append(out, sym)
		}
		sh.mu.RUnlock()
	}
	slices.Sort(out)
	return out
}

// Count implements Store.Count.
func (s *HistoryStore) Count(_ context.Context) int {
	total := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		total += len(sh.index)
		sh.mu.RUnlock()
	}
	return total
}

// Records implements Store.Records.
func (s *HistoryStore) Records(_ context.Context) int {
	total := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		total += sh.records
		sh.mu.RUnlock()
	}
	return total
}

// Reset implements Store.Reset.
func (s *HistoryStore) Reset(_ context.Context) {
	for _, sh := range s.shards {
		sh.mu.Lock()
		sh.index = make(map[string]int)
		sh.rings = nil
		sh.records = 0
		sh.mu.Unlock()
	}
	s.updateMetrics()
}

// Close stops the metrics updater. It is safe to call more than once.
func (s *HistoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

// startMetricsUpdater starts a background goroutine that updates repository metrics
func (s *HistoryStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.updateMetrics()
			}
		}
	}()
}

func (s *HistoryStore) updateMetrics() {
	total, tokens := 0, 0
	for i, sh := range s.shards {
		sh.mu.RLock()
		records := sh.records
		tokens += len(sh.index)
		sh.mu.RUnlock()

		metrics.UpdateRepositoryRecordsPerShard(fmt.Sprintf("shard_%d", i), records)
		total += records
	}
	metrics.UpdateRepositoryRecordsTotal(total)
	metrics.UpdateTrackedTokens(tokens)
}
