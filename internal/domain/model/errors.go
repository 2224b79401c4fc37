package model

import "errors"

// Sentinel kinds for model validation.
var (
	ErrMalformedAthlete = errors.New("malformed athlete")
)
