// Package repository holds the per-token signal history.
package repository

import (
	"context"

	"github.com/okian/sentinel/internal/domain/model"
	"github.com/okian/sentinel/internal/domain/trending"
)

// BuildFunc computes the next signal for a token from its current one.
// prev is nil for a token with no history. It runs while the token's shard
// is write-locked and must not call back into the store.
type BuildFunc func(prev *model.TokenSignal) model.TokenSignal

// Store provides read/write access to token signal histories.
type Store interface {
	// AppendWith builds and appends the next signal for symbol atomically
	// with respect to other appends for the same symbol.
	AppendWith(ctx context.Context, symbol string, build BuildFunc) (model.TokenSignal, error)

	// History returns the retained signals for symbol, oldest first.
	// An unknown symbol yields an empty slice.
	History(ctx context.Context, symbol string) ([]model.TokenSignal, error)

	// Latest returns up to n most recent signals for symbol, oldest first.
	// Returns ErrInvalidLimit if n < 1 and ErrNotFound for an unknown symbol.
	Latest(ctx context.Context, symbol string, n int) ([]model.TokenSignal, error)

	// Current returns the last signal for symbol or ErrNotFound.
	Current(ctx context.Context, symbol string) (model.TokenSignal, error)

	// LatestPairs returns the last two signals of every token with history.
	LatestPairs(ctx context.Context) []trending.Pair

	// Symbols returns every token with history, sorted.
	Symbols(ctx context.Context) []string

	// Count returns the number of tokens with history.
	Count(ctx context.Context) int

	// Records returns the number of retained signals across all tokens.
	Records(ctx context.Context) int

	// Reset drops every history.
	Reset(ctx context.Context)
}
