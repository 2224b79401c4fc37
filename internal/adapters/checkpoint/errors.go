package checkpoint

import "errors"

// Sentinel kinds for checkpoint errors.
var (
	ErrNotFound  = errors.New("checkpoint not found")
	ErrVersion   = errors.New("unsupported checkpoint version")
	ErrCorrupted = errors.New("corrupted checkpoint")
)
