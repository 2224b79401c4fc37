package repository

import "errors"

// Sentinel kinds for hall of fame errors.
var (
	ErrNotFound       = errors.New("strategy not found")
	ErrInvalidLimit   = errors.New("invalid leaderboard limit")
	ErrInvalidFitness = errors.New("invalid fitness")
)
