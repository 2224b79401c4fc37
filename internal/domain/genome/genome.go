// Package genome holds the draft-strategy representation: one normalized
// position-weight vector per draft round.
package genome

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/google/uuid"
	"github.com/okian/snakedraft/internal/domain/model"
	"gonum.org/v1/gonum/floats"
)

// Tolerance is the allowed drift of a round vector's sum from 1.
const Tolerance = 1e-9

// Genome is one candidate draft strategy. Rounds[r][i] is the weight of
// model.Positions[i] in round r. Genomes are never modified after
// construction; the evolver always builds new ones.
type Genome struct {
	ID     string      `json:"id"`
	Rounds [][]float64 `json:"rounds"`
}

// New copies rounds into a fresh genome with a new ID and checks the
// normalization invariant.
func New(rounds [][]float64) (Genome, error) {
	g := Genome{ID: uuid.NewString(), Rounds: cloneRounds(rounds)}
	if err := g.Validate(); err != nil {
		return Genome{}, err
	}
	return g, nil
}

// Random draws one U[0,1) weight per position for every round and
// normalizes each round. Draws are round-major, then position order.
func Random(rng *rand.Rand, rounds int) (Genome, error) {
	if rounds <= 0 {
		return Genome{}, fmt.Errorf("%w: rounds must be positive, got %d", ErrInvalidShape, rounds)
	}
	out := make([][]float64, rounds)
	for r := range out {
		v := uniform(rng)
		if err := Normalize(v); err != nil {
			return Genome{}, &DegenerateGenomeError{Round: r}
		}
		out[r] = v
	}
	return Genome{ID: uuid.NewString(), Rounds: out}, nil
}

// NumRounds returns the number of draft rounds the genome covers.
func (g Genome) NumRounds() int { return len(g.Rounds) }

// Weight returns the weight of position index pos in round r.
func (g Genome) Weight(r, pos int) float64 { return g.Rounds[r][pos] }

// Validate checks the shape and normalization of every round.
func (g Genome) Validate() error {
	if len(g.Rounds) == 0 {
		return fmt.Errorf("%w: no rounds", ErrInvalidShape)
	}
	for r, v := range g.Rounds {
		if len(v) != model.NumPositions {
			return fmt.Errorf("%w: round %d has %d weights, want %d", ErrInvalidShape, r, len(v), model.NumPositions)
		}
		for i, w := range v {
			if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
				return fmt.Errorf("%w: round %d weight %d is %v", ErrInvalidShape, r, i, w)
			}
		}
		if sum := floats.Sum(v); math.Abs(sum-1) > Tolerance {
			return fmt.Errorf("%w: round %d sums to %v", ErrNotNormalized, r, sum)
		}
	}
	return nil
}

// Population is the ordered set of genomes competing in one generation.
// Order is the tie-break key for selection.
type Population []Genome

// CreatePopulation builds size random genomes of the given round count.
// Draws are genome-major, then round-major, then position order.
func CreatePopulation(rng *rand.Rand, size, rounds int) (Population, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: population size must be positive, got %d", ErrInvalidShape, size)
	}
	pop := make(Population, size)
	for i := range pop {
		g, err := Random(rng, rounds)
		if err != nil {
			return nil, fmt.Errorf("genome %d: %w", i, err)
		}
		pop[i] = g
	}
	return pop, nil
}

// Rounds returns the shared round count, or 0 for an empty population.
func (p Population) Rounds() int {
	if len(p) == 0 {
		return 0
	}
	return p[0].NumRounds()
}

// Validate checks every genome and that all share the same round count.
func (p Population) Validate() error {
	if len(p) == 0 {
		return fmt.Errorf("%w: empty population", ErrInvalidShape)
	}
	rounds := p.Rounds()
	for i, g := range p {
		if g.NumRounds() != rounds {
			return fmt.Errorf("%w: genome %d has %d rounds, want %d", ErrInvalidShape, i, g.NumRounds(), rounds)
		}
		if err := g.Validate(); err != nil {
			return fmt.Errorf("genome %d: %w", i, err)
		}
	}
	return nil
}

// Diversity is the mean pairwise L1 distance between genomes, summed over
// rounds. It is 0 for populations of fewer than two genomes.
func (p Population) Diversity() float64 {
	if len(p) < 2 {
		return 0
	}
	var total float64
	var pairs int
	for i := 0; i < len(p); i++ {
		for j := i + 1; j < len(p); j++ {
			for r := range p[i].Rounds {
				total += floats.Distance(p[i].Rounds[r], p[j].Rounds[r], 1)
			}
			pairs++
		}
	}
	return total / float64(pairs)
}

// Normalize scales v in place so it sums to 1. It fails with
// ErrDegenerateGenome when the sum is exactly zero.
func Normalize(v []float64) error {
	sum := floats.Sum(v)
	if sum == 0 {
		return ErrDegenerateGenome
	}
	floats.Scale(1/sum, v)
	return nil
}

// Mean returns the elementwise mean of a and b. Both must have the same
// length.
func Mean(a, b []float64) []float64 {
	out := make([]float64, len(a))
	floats.AddTo(out, a, b)
	floats.Scale(0.5, out)
	return out
}

// Mutate adds rate × U[0,1) to every element of v, drawing in position
// order.
func Mutate(rng *rand.Rand, v []float64, rate float64) {
	floats.AddScaled(v, rate, uniform(rng))
}

func uniform(rng *rand.Rand) []float64 {
	v := make([]float64, model.NumPositions)
	for i := range v {
		v[i] = rng.Float64()
	}
	return v
}

func cloneRounds(rounds [][]float64) [][]float64 {
	out := make([][]float64, len(rounds))
	for r, v := range rounds {
		out[r] = append([]float64(nil), v...)
	}
	return out
}
