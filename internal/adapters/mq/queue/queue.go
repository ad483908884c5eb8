// Package queue buffers accepted batches between ingestion and the workers.
package queue

import (
	"context"
	"sync"

	"github.com/okian/sentinel/internal/domain/model"
	"github.com/okian/sentinel/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultQueueCapacity = 1024
)

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a batch to the queue.
	// Returns false if the queue is full or closed and the batch was not enqueued.
	Enqueue(ctx context.Context, b model.Batch) bool

	// Dequeue returns the channel batches are delivered on. Every caller
	// shares the same channel; it is closed when the queue is closed.
	Dequeue(ctx context.Context) <-chan model.Batch

	// Len returns the current number of queued batches.
	Len(ctx context.Context) int

	// Cap returns the maximum number of queued batches.
	Cap() int

	// Close stops accepting batches. Batches already queued can still be
	// dequeued.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	batches  chan model.Batch
	capacity int
	mu       sync.RWMutex
	closed   bool
}

var _ Queue = (*InMemoryQueue)(nil)

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultQueueCapacity,
	}

	for _, opt := range opts {
		opt(q)
	}

	q.batches = make(chan model.Batch, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)

	return q
}

// Enqueue adds a batch without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, b model.Batch) bool { //nolint:gocritic // hugeParam: batch is passed by value for channel semantics
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return false
	}

	select {
	case <-ctx.Done():
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return false
	default:
	}

	select {
	case q.batches <- b:
		metrics.RecordQueueEnqueue()
		metrics.UpdateQueueSize(len(q.batches))
		return true
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return false
	}
}

// Dequeue returns the shared delivery channel.
func (q *InMemoryQueue) Dequeue(_ context.Context) <-chan model.Batch {
	return q.batches
}

// Len returns the current number of queued batches.
func (q *InMemoryQueue) Len(_ context.Context) int {
	size := len(q.batches)
	metrics.UpdateQueueSize(size)
	return size
}

// Cap returns the queue capacity.
func (q *InMemoryQueue) Cap() int { return q.capacity }

// Close stops accepting batches and closes the delivery channel once the
// buffered batches are consumed.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}

	close(q.batches)
	q.closed = true

	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
