package app

import (
	"context"

	"github.com/okian/snakedraft/internal/adapters/checkpoint"
	"github.com/okian/snakedraft/internal/domain/scoring"
	"github.com/okian/snakedraft/pkg/logger"
)

// Option applies a configuration option to the Runner.
type Option func(*Runner)

// WithPopulationSize sets the number of strategies per generation.
func WithPopulationSize(n int) Option {
	return func(r *Runner) {
		r.populationSize = n
	}
}

// WithRounds sets the number of draft rounds.
func WithRounds(n int) Option {
	return func(r *Runner) {
		r.rounds = n
	}
}

// WithMutationRate sets the mutation noise scale.
func WithMutationRate(rate float64) Option {
	return func(r *Runner) {
		r.mutationRate = rate
	}
}

// WithSurvivors sets how many top strategies become parents.
func WithSurvivors(n int) Option {
	return func(r *Runner) {
		r.survivors = n
	}
}

// WithSeed seeds the random source. Zero picks a time-based seed at
// Initialize.
func WithSeed(seed int64) Option {
	return func(r *Runner) {
		r.seed = seed
	}
}

// WithWorkerCount sets the number of scoring workers.
func WithWorkerCount(count int) Option {
	return func(r *Runner) {
		if count > 0 {
			r.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the scoring job queue.
func WithQueueSize(size int) Option {
	return func(r *Runner) {
		if size > 0 {
			r.queueSize = size
		}
	}
}

// WithHallOfFameSize bounds the hall of fame. Zero keeps every strategy.
func WithHallOfFameSize(n int) Option {
	return func(r *Runner) {
		if n >= 0 {
			r.hallOfFameSize = n
		}
	}
}

// WithSlots overrides the lineup slots used for scoring.
func WithSlots(slots ...scoring.Slot) Option {
	return func(r *Runner) {
		if len(slots) > 0 {
			r.slots = slots
		}
	}
}

// WithCheckpointStore saves a checkpoint every n generations.
func WithCheckpointStore(store checkpoint.Store, every int) Option {
	return func(r *Runner) {
		if store != nil && every > 0 {
			r.checkpoints = store
			r.checkpointEvery = every
		}
	}
}

// WithOnGenerationComplete registers a callback invoked after every
// generation, outside the runner lock.
func WithOnGenerationComplete(fn func(ctx context.Context, res GenerationResult)) Option {
	return func(r *Runner) {
		r.onGeneration = fn
	}
}

// WithLogger sets a custom logger for the runner.
func WithLogger(l logger.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}
