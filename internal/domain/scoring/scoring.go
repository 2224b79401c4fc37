// Package scoring turns a drafted roster into a starting lineup and a
// fitness value.
package scoring

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/okian/snakedraft/internal/domain/model"
)

// Lookup maps athlete name to weekly performance. Missing names score 0.
type Lookup map[string]float64

// Slot is one required starting position. Eligible lists the positions
// that may fill it.
type Slot struct {
	Label    model.Position
	Eligible []model.Position
}

func (s Slot) accepts(p model.Position) bool {
	return slices.Contains(s.Eligible, p)
}

// DefaultSlots returns the standard lineup: QB, WR, WR, RB, RB, PK, DEF and
// a FLEX open to WR, RB and TE. TE only starts through FLEX.
func DefaultSlots() []Slot {
	single := func(p model.Position) Slot { return Slot{Label: p, Eligible: []model.Position{p}} }
	return []Slot{
		single(model.QB),
		single(model.WR),
		single(model.WR),
		single(model.RB),
		single(model.RB),
		single(model.PK),
		single(model.DEF),
		{Label: model.Flex, Eligible: []model.Position{model.WR, model.RB, model.TE}},
	}
}

// Input is one roster to score. Genome is carried through to the result
// so parallel callers can realign results.
type Input struct {
	Genome int
	Roster model.Roster
}

// Result contains the fitness and lineup of one roster.
type Result struct {
	Genome  int
	Fitness float64
	Lineup  model.Lineup
}

// Scorer computes the fitness of a roster.
type Scorer interface {
	// Score computes a result, honoring ctx for cancellation.
	Score(ctx context.Context, in Input) (Result, error)
}

// LineupScorer implements Scorer with the greedy slot-filling policy.
// It is read-only after construction and safe for concurrent use.
type LineupScorer struct {
	lookup Lookup
	slots  []Slot
}

// NewLineupScorer creates a scorer over the given performance lookup.
func NewLineupScorer(lookup Lookup, opts ...Option) *LineupScorer {
	s := &LineupScorer{
		lookup: lookup,
		slots:  DefaultSlots(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score computes the fitness of in.Roster.
func (s *LineupScorer) Score(ctx context.Context, in Input) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("context cancelled: %w", err)
	}
	fitness, lineup, err := fill(s.lookup, s.slots, in.Roster)
	if err != nil {
		return Result{}, fmt.Errorf("genome %d: %w", in.Genome, err)
	}
	return Result{Genome: in.Genome, Fitness: fitness, Lineup: lineup}, nil
}

// ScoreRoster scores roster against the default slots.
func ScoreRoster(lookup Lookup, roster model.Roster) (float64, model.Lineup, error) {
	return fill(lookup, DefaultSlots(), roster)
}

type scored struct {
	pick  model.Pick
	score float64
}

// fill assigns the highest-scoring remaining eligible pick to each slot in
// order. This is deliberately greedy, not an optimal assignment.
func fill(lookup Lookup, slots []Slot, roster model.Roster) (float64, model.Lineup, error) {
	entries := make([]scored, len(roster))
	for i, p := range roster {
		if strings.TrimSpace(p.Name) == "" {
			return 0, nil, fmt.Errorf("%w: pick %d has no name", ErrMalformedRoster, i)
		}
		entries[i] = scored{pick: p, score: lookup[p.Name]}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].score > entries[j].score
	})

	used := make([]bool, len(entries))
	lineup := make(model.Lineup, 0, len(slots))
	for _, slot := range slots {
		entry := model.Placeholder(slot.Label)
		for i, e := range entries {
			if used[i] || !slot.accepts(e.pick.Position) {
				continue
			}
			used[i] = true
			entry = model.LineupEntry{Slot: slot.Label, Name: e.pick.Name, Position: e.pick.Position, Score: e.score}
			break
		}
		lineup = append(lineup, entry)
	}
	return lineup.Total(), lineup, nil
}
