// Package checkpoint persists run state between generations so a run can
// be resumed.
package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/okian/snakedraft/internal/domain/genome"
	"github.com/okian/snakedraft/internal/domain/types"
)

// Version is the current checkpoint format version.
const Version = "1"

// Checkpoint is the serializable state of a run after a generation.
type Checkpoint struct {
	Version    string                  `json:"version"`
	RunID      string                  `json:"run_id"`
	Seed       int64                   `json:"seed"`
	Generation int                     `json:"generation"` // next generation to run
	Rounds     int                     `json:"rounds"`
	Population genome.Population       `json:"population"`
	History    []types.GenerationStats `json:"history"`
	Timestamp  time.Time               `json:"timestamp"`
}

// Store saves and restores checkpoints.
type Store interface {
	// Save persists cp as the latest checkpoint.
	Save(ctx context.Context, cp *Checkpoint) error
	// Latest returns the most recent checkpoint, or ErrNotFound.
	Latest(ctx context.Context) (*Checkpoint, error)
}

func encode(cp *Checkpoint) ([]byte, error) {
	if cp.Version == "" {
		cp.Version = Version
	}
	if cp.Timestamp.IsZero() {
		cp.Timestamp = time.Now().UTC()
	}
	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal checkpoint: %w", err)
	}
	return data, nil
}

func decode(data []byte) (*Checkpoint, error) {
	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupted, err)
	}
	if cp.Version != Version {
		return nil, fmt.Errorf("%w: %q", ErrVersion, cp.Version)
	}
	if err := cp.Population.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupted, err)
	}
	return &cp, nil
}
