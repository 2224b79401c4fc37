package evolve

import "errors"

// Sentinel errors for the evolution step.
var (
	ErrInvalidArgument = errors.New("invalid evolve argument")
)
