package app

import (
	"errors"
	"fmt"
)

// Sentinel errors for the runner.
var (
	ErrNotStarted      = errors.New("runner not started")
	ErrNotInitialized  = errors.New("runner has no population; call Initialize or Resume")
	ErrInvalidArgument = errors.New("invalid argument")
)

// Stage names the step of a generation that failed.
type Stage string

// Generation stages in execution order.
const (
	StageDraft      Stage = "draft"
	StageScore      Stage = "score"
	StageRecord     Stage = "record"
	StageEvolve     Stage = "evolve"
	StageCheckpoint Stage = "checkpoint"
)

// GenerationError reports which generation and stage failed.
type GenerationError struct {
	Generation int
	Stage      Stage
	Err        error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation %d: %s: %v", e.Generation, e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
