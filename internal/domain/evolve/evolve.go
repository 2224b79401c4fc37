// Package evolve implements selection, recombination and mutation of
// draft-strategy genomes.
package evolve

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/okian/snakedraft/internal/domain/genome"
	"github.com/okian/snakedraft/pkg/logger"
	"github.com/okian/snakedraft/pkg/metrics"
)

// Evolver produces the next generation from a scored population.
type Evolver struct {
	populationSize int
	mutationRate   float64
	survivors      int
	log            logger.Logger
}

// NewEvolver creates an evolver with the given options.
func NewEvolver(opts ...Option) *Evolver {
	e := &Evolver{
		mutationRate: DefaultMutationRate,
		survivors:    DefaultSurvivors,
		log:          logger.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Next builds the next generation using the configured parameters.
func (e *Evolver) Next(ctx context.Context, rng *rand.Rand, pop genome.Population, fitness []float64) (genome.Population, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	size := e.populationSize
	if size == 0 {
		size = len(pop)
	}
	next, err := AdvanceGeneration(rng, pop, fitness, size, e.mutationRate, e.survivors)
	if err != nil {
		return nil, err
	}

	elapsed := time.Since(start)
	metrics.RecordEvolveDuration(float64(elapsed.Nanoseconds()) / 1e6)
	e.log.Debug(ctx, "generation evolved",
		logger.Int("children", len(next)),
		logger.Int("survivors", e.survivors),
		logger.Float64("mutation_rate", e.mutationRate),
		logger.Duration("elapsed", elapsed),
	)
	return next, nil
}

// Ranking returns population indices ordered by fitness descending. Ties
// keep population order.
func Ranking(fitness []float64) []int {
	idx := make([]int, len(fitness))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return fitness[idx[a]] > fitness[idx[b]]
	})
	return idx
}

// SelectSurvivors returns the n fittest genomes, best first, with
// population order breaking ties.
func SelectSurvivors(pop genome.Population, fitness []float64, n int) (genome.Population, error) {
	if err := checkFitness(pop, fitness); err != nil {
		return nil, err
	}
	if n < 1 || n > len(pop) {
		return nil, fmt.Errorf("%w: survivors must be in [1, %d], got %d", ErrInvalidArgument, len(pop), n)
	}
	order := Ranking(fitness)
	out := make(genome.Population, n)
	for i := range out {
		out[i] = pop[order[i]]
	}
	return out, nil
}

// AdvanceGeneration selects the top survivors and breeds size children.
// For each child two parents are drawn uniformly with replacement; each
// round is the parents' mean plus mutationRate × U[0,1) noise, then
// renormalized. The returned population replaces pop entirely.
//
// Draws from rng are child-major: parent 1, parent 2, then one noise
// vector per round in position order.
func AdvanceGeneration(rng *rand.Rand, pop genome.Population, fitness []float64, size int, mutationRate float64, survivors int) (genome.Population, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: population size must be positive, got %d", ErrInvalidArgument, size)
	}
	if mutationRate < 0 || math.IsNaN(mutationRate) || math.IsInf(mutationRate, 0) {
		return nil, fmt.Errorf("%w: mutation rate must be a finite non-negative number, got %v", ErrInvalidArgument, mutationRate)
	}
	if err := pop.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	parents, err := SelectSurvivors(pop, fitness, survivors)
	if err != nil {
		return nil, err
	}

	rounds := pop.Rounds()
	next := make(genome.Population, size)
	for c := range next {
		p1 := parents[rng.Intn(len(parents))]
		p2 := parents[rng.Intn(len(parents))]
		child := make([][]float64, rounds)
		for r := range child {
			v := genome.Mean(p1.Rounds[r], p2.Rounds[r])
			genome.Mutate(rng, v, mutationRate)
			if err := genome.Normalize(v); err != nil {
				return nil, fmt.Errorf("child %d: %w", c, &genome.DegenerateGenomeError{Round: r})
			}
			child[r] = v
		}
		next[c] = genome.Genome{ID: uuid.NewString(), Rounds: child}
	}
	return next, nil
}

func checkFitness(pop genome.Population, fitness []float64) error {
	if len(fitness) != len(pop) {
		return fmt.Errorf("%w: %d fitness values for %d genomes", ErrInvalidArgument, len(fitness), len(pop))
	}
	for i, f := range fitness {
		if math.IsNaN(f) {
			return fmt.Errorf("%w: fitness %d is NaN", ErrInvalidArgument, i)
		}
	}
	return nil
}
