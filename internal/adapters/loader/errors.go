package loader

import "errors"

// Sentinel kinds for loader errors.
var (
	ErrMalformedRecord = errors.New("malformed record")
	ErrMissingColumn   = errors.New("missing column")
)
