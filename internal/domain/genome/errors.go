package genome

import (
	"errors"
	"fmt"
)

// Sentinel errors for genome construction.
var (
	ErrDegenerateGenome = errors.New("degenerate genome")
	ErrInvalidShape     = errors.New("invalid genome shape")
	ErrNotNormalized    = errors.New("round weights not normalized")
)

// DegenerateGenomeError reports a round vector whose sum was exactly zero,
// which leaves normalization undefined.
type DegenerateGenomeError struct {
	Round int
}

func (e *DegenerateGenomeError) Error() string {
	return fmt.Sprintf("degenerate genome: round %d weights sum to zero", e.Round)
}

// Is lets errors.Is match ErrDegenerateGenome.
func (e *DegenerateGenomeError) Is(target error) bool {
	return target == ErrDegenerateGenome
}
