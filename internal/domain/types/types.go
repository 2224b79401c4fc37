// Package types contains common types used across the application
package types

// Entry represents a hall of fame row as returned by the API.
type Entry struct {
	Rank       int     `json:"rank"`
	StrategyID string  `json:"strategy_id"`
	Generation int     `json:"generation"`
	Fitness    float64 `json:"fitness"`
}

// Strategy is an Entry plus the per-round weights that produced it.
type Strategy struct {
	Entry
	Weights [][]float64 `json:"weights"`
}

// GenerationStats summarizes one completed generation.
type GenerationStats struct {
	Generation  int     `json:"generation"`
	BestFitness float64 `json:"best_fitness"`
	BestID      string  `json:"best_id"`
	MeanFitness float64 `json:"mean_fitness"`
	StdDev      float64 `json:"stddev"`
	Diversity   float64 `json:"diversity"`
	Picks       int     `json:"picks"`
	ElapsedMs   float64 `json:"elapsed_ms"`
}
