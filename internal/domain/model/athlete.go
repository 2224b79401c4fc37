// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"math"
	"strings"
)

// Position is a roster position label such as "QB".
type Position string

// Recognized positions. The order of Positions fixes the index of each
// position inside a genome's round vector.
const (
	QB  Position = "QB"
	WR  Position = "WR"
	RB  Position = "RB"
	TE  Position = "TE"
	PK  Position = "PK"
	DEF Position = "DEF"

	// Flex labels the multi-position lineup slot.
	Flex Position = "FLEX"
)

// Positions lists the recognized positions in weight-vector order.
var Positions = []Position{QB, WR, RB, TE, PK, DEF} //nolint:gochecknoglobals // fixed position table

// NumPositions is the length of every genome round vector.
const NumPositions = 6

// PositionIndex returns the weight-vector index of p.
func PositionIndex(p Position) (int, bool) {
	switch p {
	case QB:
		return 0, true
	case WR:
		return 1, true
	case RB:
		return 2, true
	case TE:
		return 3, true
	case PK:
		return 4, true
	case DEF:
		return 5, true
	}
	return -1, false
}

// ParsePosition normalizes a raw label ("  wr " -> WR). It does not check
// that the result is recognized; use PositionIndex for that.
func ParsePosition(raw string) Position {
	return Position(strings.ToUpper(strings.TrimSpace(raw)))
}

// Athlete is one draftable player. Athletes are read-only for the duration
// of a draft.
type Athlete struct {
	Name         string   // unique identifier
	Position     Position // one of Positions
	Desirability float64  // rank-based draft score, higher is better
}

// Validate reports structural problems with the record. Unknown positions
// are not checked here; the draft reports them with round context.
func (a Athlete) Validate() error {
	switch {
	case strings.TrimSpace(a.Name) == "":
		return fmt.Errorf("%w: missing name", ErrMalformedAthlete)
	case strings.TrimSpace(string(a.Position)) == "":
		return fmt.Errorf("%w: athlete %q has no position", ErrMalformedAthlete, a.Name)
	case math.IsNaN(a.Desirability) || math.IsInf(a.Desirability, 0):
		return fmt.Errorf("%w: athlete %q has non-finite desirability", ErrMalformedAthlete, a.Name)
	}
	return nil
}

// ValidatePool checks every athlete and that names are unique.
func ValidatePool(pool []Athlete) error {
	seen := make(map[string]int, len(pool))
	for i, a := range pool {
		if err := a.Validate(); err != nil {
			return fmt.Errorf("athlete %d: %w", i, err)
		}
		if prev, dup := seen[a.Name]; dup {
			return fmt.Errorf("%w: duplicate name %q at %d and %d", ErrMalformedAthlete, a.Name, prev, i)
		}
		seen[a.Name] = i
	}
	return nil
}
