// Package dedupe tracks ingested item ids so an item fetched again in a
// later batch is not counted twice.
package dedupe

import (
	"context"
	"sync"
)

// DefaultMaxSize is the number of ids remembered when no option is given.
const DefaultMaxSize = 50000

// Deduper records seen item IDs to ensure at-most-once scoring.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets id so it can be ingested again. Used when a batch
	// was accepted by the deduper but rejected by the queue.
	Unrecord(ctx context.Context, id string)

	// Reset forgets every id.
	Reset(ctx context.Context)

	Size() int64
}

// inMemoryDeduper remembers the last maxSize ids in a ring. When the ring
// is full the oldest recorded id is forgotten first.
// With maxSize <= 0 it is an unbounded set.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]int // id -> ring slot, -1 in unbounded mode
	ring    []string
	next    int
	maxSize int
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: DefaultMaxSize,
	}

	for _, opt := range opts {
		opt(d)
	}

	d.seen = make(map[string]int)
	return d
}

// SeenAndRecord reports whether id was seen and records it if not.
// An empty id is never recorded.
func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	if id == "" {
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[id]; exists {
		return true
	}

	if d.maxSize <= 0 {
		d.seen[id] = -1
		return false
	}

	if len(d.ring) < d.maxSize {
		d.seen[id] = len(d.ring)
		d.ring = append(d.ring, id)
		return false
	}

	// ring is full: overwrite the oldest slot
	if old := d.ring[d.next]; old != "" {
		delete(d.seen, old)
	}
	d.ring[d.next] = id
	d.seen[id] = d.next
	d.next = (d.next + 1) % d.maxSize
	return false
}

// Unrecord removes an ID from the seen set, leaving an empty ring slot.
func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	slot, exists := d.seen[id]
	if !exists {
		return
	}
	delete(d.seen, id)
	if slot >= 0 {
		d.ring[slot] = ""
	}
}

func (d *inMemoryDeduper) Reset(_ context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.seen = make(map[string]int)
	d.ring = nil
	d.next = 0
}

// Size returns the current number of remembered ids.
func (d *inMemoryDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.seen))
}
