package fixtures

// Config holds configuration for a synthetic pool.
type Config struct {
	Seed        int64   // random seed; equal seeds give equal pools
	Size        int     // number of athletes
	MissingRate float64 // share of athletes left out of the performance table
	Noise       float64 // stddev of weekly performance around expectation
}

// Default configuration constants.
const (
	DefaultSize        = 240
	DefaultMissingRate = 0.1
	DefaultNoise       = 4.0
)

// DefaultConfig returns a pool large enough for 12 teams × 15 rounds.
func DefaultConfig() Config {
	return Config{Seed: 1, Size: DefaultSize, MissingRate: DefaultMissingRate, Noise: DefaultNoise}
}
