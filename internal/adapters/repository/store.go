// Package repository keeps the hall of fame: the best strategies seen
// across every generation of a run.
package repository

import "context"

// Entry represents a hall of fame row.
type Entry struct {
	Rank       int
	StrategyID string
	Generation int
	Fitness    float64
}

// Strategy is a scored genome as stored in the hall of fame.
type Strategy struct {
	ID         string
	Generation int
	Fitness    float64
	Weights    [][]float64
}

// Store provides read/write access to the hall of fame.
type Store interface {
	// Record adds a strategy, or raises its fitness if the ID is known and
	// the new value is higher. Returns false if nothing changed, including
	// when a bounded store is full of better strategies.
	Record(ctx context.Context, s Strategy) (bool, error)

	// Rank returns the current rank of a strategy.
	// Returns ErrNotFound if the strategy is unknown or was evicted.
	Rank(ctx context.Context, id string) (Entry, error)

	// Get returns the full strategy, weights included.
	Get(ctx context.Context, id string) (Strategy, error)

	// TopN returns the top-N entries ordered by fitness desc, then ID asc.
	TopN(ctx context.Context, n int) ([]Entry, error)

	// Count returns the number of strategies kept.
	Count(ctx context.Context) int
}
