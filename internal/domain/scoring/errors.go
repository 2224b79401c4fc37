package scoring

import "errors"

// Sentinel errors for lineup scoring.
var (
	ErrMalformedRoster = errors.New("malformed roster")
)
