// Package snapshot publishes derived token signals to an external cache
// where query and on-chain publishers pick them up.
package snapshot

import (
	"context"

	"github.com/okian/sentinel/internal/domain/model"
)

// Publisher writes the signals produced by a batch and the trending ranking
// after it.
type Publisher interface {
	PublishSignals(ctx context.Context, signals []model.TokenSignal) error
	PublishTrending(ctx context.Context, entries []model.TrendingEntry) error
	Close() error
}

// Nop discards everything. It is used when no cache is configured.
type Nop struct{}

var _ Publisher = Nop{}

func (Nop) PublishSignals(context.Context, []model.TokenSignal) error   { return nil }
func (Nop) PublishTrending(context.Context, []model.TrendingEntry) error { return nil }
func (Nop) Close() error                                                  { return nil }
