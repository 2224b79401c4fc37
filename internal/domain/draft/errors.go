package draft

import (
	"errors"
	"fmt"

	"github.com/okian/snakedraft/internal/domain/model"
)

// Sentinel errors for draft simulation.
var (
	ErrUnknownPosition = errors.New("unknown position")
	ErrPoolExhausted   = errors.New("athlete pool exhausted")
	ErrInvalidArgument = errors.New("invalid draft argument")
)

// UnknownPositionError reports an athlete whose position has no weight
// index, detected at the turn that would have had to weigh it.
type UnknownPositionError struct {
	Athlete  string
	Position model.Position
	Round    int
	Genome   int
}

func (e *UnknownPositionError) Error() string {
	return fmt.Sprintf("round %d, genome %d: athlete %q has unknown position %q",
		e.Round, e.Genome, e.Athlete, e.Position)
}

// Is lets errors.Is match ErrUnknownPosition.
func (e *UnknownPositionError) Is(target error) bool {
	return target == ErrUnknownPosition
}

// PoolExhaustedError reports the first turn that found no undrafted athlete.
type PoolExhaustedError struct {
	Round     int
	Genome    int
	Needed    int
	Available int
}

func (e *PoolExhaustedError) Error() string {
	return fmt.Sprintf("round %d, genome %d: athlete pool exhausted (need %d picks, pool has %d)",
		e.Round, e.Genome, e.Needed, e.Available)
}

// Is lets errors.Is match ErrPoolExhausted.
func (e *PoolExhaustedError) Is(target error) bool {
	return target == ErrPoolExhausted
}
