// Package draft runs snake drafts between the genomes of a population.
package draft

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/snakedraft/internal/domain/dedupe"
	"github.com/okian/snakedraft/internal/domain/genome"
	"github.com/okian/snakedraft/internal/domain/model"
	"github.com/okian/snakedraft/pkg/logger"
	"github.com/okian/snakedraft/pkg/metrics"
)

// Simulator runs snake drafts. It holds no per-draft state and may be
// reused across generations.
type Simulator struct {
	log logger.Logger
}

// NewSimulator creates a simulator with the given options.
func NewSimulator(opts ...Option) *Simulator {
	s := &Simulator{log: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PickOrder returns the genome indices in turn order for round r of a
// draft with n genomes: ascending on even rounds, descending on odd ones.
func PickOrder(r, n int) []int {
	order := make([]int, n)
	for i := range order {
		if r%2 == 0 {
			order[i] = i
		} else {
			order[i] = n - 1 - i
		}
	}
	return order
}

// SimulateDraft drafts rounds picks for every genome in pop from pool and
// returns one roster per genome, index-aligned with pop.
//
// Each turn picks the undrafted athlete maximizing
// weight[round][position] × desirability; ties go to the athlete that
// comes first in pool order. A name drafted by any genome is unavailable
// to every later turn.
func (s *Simulator) SimulateDraft(ctx context.Context, pool []model.Athlete, pop genome.Population, rounds int) ([]model.Roster, error) {
	start := time.Now()

	if rounds <= 0 {
		return nil, fmt.Errorf("%w: rounds must be positive, got %d", ErrInvalidArgument, rounds)
	}
	if err := pop.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	if pop.Rounds() < rounds {
		return nil, fmt.Errorf("%w: genomes cover %d rounds, draft needs %d", ErrInvalidArgument, pop.Rounds(), rounds)
	}
	if err := model.ValidatePool(pool); err != nil {
		return nil, err
	}

	// Every athlete is undrafted at the first turn, so any unknown position
	// would fail there.
	posIdx := make([]int, len(pool))
	for i, a := range pool {
		idx, ok := model.PositionIndex(a.Position)
		if !ok {
			return nil, &UnknownPositionError{Athlete: a.Name, Position: a.Position, Round: 0, Genome: PickOrder(0, len(pop))[0]}
		}
		posIdx[i] = idx
	}

	n := len(pop)
	if needed := rounds * n; needed > len(pool) {
		// Picks are sequential, so the turn that runs dry is pick number len(pool).
		r, turn := len(pool)/n, len(pool)%n
		return nil, &PoolExhaustedError{Round: r, Genome: PickOrder(r, n)[turn], Needed: needed, Available: len(pool)}
	}

	drafted := dedupe.NewRegistry(dedupe.WithCapacity(rounds * n))
	rosters := make([]model.Roster, n)
	for i := range rosters {
		rosters[i] = make(model.Roster, 0, rounds)
	}

	for r := 0; r < rounds; r++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, g := range PickOrder(r, n) {
			best := bestAvailable(pool, posIdx, drafted, pop[g].Rounds[r])
			if best < 0 {
				return nil, &PoolExhaustedError{Round: r, Genome: g, Needed: rounds * n, Available: len(pool)}
			}
			a := pool[best]
			drafted.SeenAndRecord(a.Name)
			rosters[g] = append(rosters[g], model.Pick{Name: a.Name, Position: a.Position})
		}
	}

	elapsed := time.Since(start)
	metrics.RecordDraftDuration(float64(elapsed.Nanoseconds()) / 1e6)
	metrics.RecordPicks(drafted.Size())
	s.log.Debug(ctx, "draft complete",
		logger.Int("genomes", n),
		logger.Int("rounds", rounds),
		logger.Int("picks", drafted.Size()),
		logger.Duration("elapsed", elapsed),
	)
	return rosters, nil
}

// bestAvailable returns the pool index of the best undrafted athlete under
// weights, or -1 if every athlete is drafted.
func bestAvailable(pool []model.Athlete, posIdx []int, drafted *dedupe.Registry, weights []float64) int {
	best := -1
	var bestScore float64
	for i, a := range pool {
		if drafted.Seen(a.Name) {
			continue
		}
		score := weights[posIdx[i]] * a.Desirability
		if best < 0 || score > bestScore {
			best, bestScore = i, score
		}
	}
	return best
}
