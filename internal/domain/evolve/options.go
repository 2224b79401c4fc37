package evolve

import "github.com/okian/snakedraft/pkg/logger"

// Default evolution parameters.
const (
	DefaultMutationRate = 1.0
	DefaultSurvivors    = 4
)

// Option applies a configuration option to the Evolver.
type Option func(*Evolver)

// WithPopulationSize sets the number of children produced per generation.
// Zero keeps the size of the incoming population.
func WithPopulationSize(n int) Option {
	return func(e *Evolver) {
		if n >= 0 {
			e.populationSize = n
		}
	}
}

// WithMutationRate scales the uniform noise added to every child round.
func WithMutationRate(rate float64) Option {
	return func(e *Evolver) {
		e.mutationRate = rate
	}
}

// WithSurvivors sets how many top genomes become parents.
func WithSurvivors(n int) Option {
	return func(e *Evolver) {
		e.survivors = n
	}
}

// WithLogger sets the logger used by the evolver.
func WithLogger(l logger.Logger) Option {
	return func(e *Evolver) {
		if l != nil {
			e.log = l
		}
	}
}
