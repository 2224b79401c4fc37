// Package fixtures generates deterministic synthetic athlete pools and
// performance tables for tests and local runs.
package fixtures

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/okian/snakedraft/internal/domain/model"
	"github.com/okian/snakedraft/internal/domain/scoring"
)

// positionShare is the share of a position in a generated pool and the
// typical weekly points of a top athlete at that position.
type positionShare struct {
	pos   model.Position
	share float64
	peak  float64
}

var positionMix = []positionShare{ //nolint:gochecknoglobals // fixed generator table
	{model.QB, 0.12, 24},
	{model.WR, 0.30, 18},
	{model.RB, 0.28, 17},
	{model.TE, 0.12, 12},
	{model.PK, 0.09, 9},
	{model.DEF, 0.09, 10},
}

// File names written by WriteFiles.
const (
	AthletesFile    = "athletes.csv"
	PerformanceFile = "performance.csv"
)

// Generate builds a ranked athlete pool and a matching performance
// lookup. Athletes are returned in rank order; desirability falls with
// rank the way an ADP-derived score does.
func Generate(cfg Config) ([]model.Athlete, scoring.Lookup, error) {
	if cfg.Size <= 0 {
		return nil, nil, fmt.Errorf("pool size must be positive, got %d", cfg.Size)
	}
	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // reproducible fixtures

	type candidate struct {
		name     string
		pos      model.Position
		expected float64
	}
	counts := map[model.Position]int{}
	cands := make([]candidate, cfg.Size)
	for i := range cands {
		mix := pickPosition(rng.Float64())
		counts[mix.pos]++
		// Quality decays with depth at the position, with some jitter.
		depth := float64(counts[mix.pos])
		expected := mix.peak * math.Exp(-depth/12) * (0.8 + 0.4*rng.Float64())
		cands[i] = candidate{
			name:     fmt.Sprintf("%s %s-%d", firstNames[rng.Intn(len(firstNames))], mix.pos, counts[mix.pos]),
			pos:      mix.pos,
			expected: expected,
		}
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].expected > cands[j].expected })

	pool := make([]model.Athlete, cfg.Size)
	lookup := make(scoring.Lookup, cfg.Size)
	for rank, c := range cands {
		pool[rank] = model.Athlete{
			Name:         c.name,
			Position:     c.pos,
			Desirability: float64(cfg.Size - rank),
		}
		if rng.Float64() < cfg.MissingRate {
			continue
		}
		points := c.expected + cfg.Noise*rng.NormFloat64()
		lookup[c.name] = math.Round(math.Max(0, points)*100) / 100
	}
	return pool, lookup, nil
}

func pickPosition(u float64) positionShare {
	var acc float64
	for _, m := range positionMix {
		acc += m.share
		if u < acc {
			return m
		}
	}
	return positionMix[len(positionMix)-1]
}

// WriteAthletes writes pool as CSV with NAME, POSITION and ADP SCORE.
func WriteAthletes(w io.Writer, pool []model.Athlete) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"NAME", "POSITION", "ADP SCORE"}); err != nil {
		return err
	}
	for _, a := range pool {
		if err := cw.Write([]string{a.Name, string(a.Position), strconv.FormatFloat(a.Desirability, 'f', -1, 64)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WritePerformance writes lookup as CSV with NAME and POINTS, in pool
// order so files are stable.
func WritePerformance(w io.Writer, pool []model.Athlete, lookup scoring.Lookup) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"NAME", "POINTS"}); err != nil {
		return err
	}
	for _, a := range pool {
		points, ok := lookup[a.Name]
		if !ok {
			continue
		}
		if err := cw.Write([]string{a.Name, strconv.FormatFloat(points, 'f', -1, 64)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFiles generates a pool and writes both tables into dir, returning
// their paths.
func WriteFiles(dir string, cfg Config) (athletesPath, performancePath string, err error) {
	pool, lookup, err := Generate(cfg)
	if err != nil {
		return "", "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create output directory: %w", err)
	}

	athletesPath = filepath.Join(dir, AthletesFile)
	performancePath = filepath.Join(dir, PerformanceFile)
	if err := writeFile(athletesPath, func(w io.Writer) error { return WriteAthletes(w, pool) }); err != nil {
		return "", "", err
	}
	if err := writeFile(performancePath, func(w io.Writer) error { return WritePerformance(w, pool, lookup) }); err != nil {
		return "", "", err
	}
	return athletesPath, performancePath, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

var firstNames = []string{ //nolint:gochecknoglobals // name table
	"Alex", "Blake", "Casey", "Dana", "Eli", "Flynn", "Gray", "Harper",
	"Indy", "Jules", "Kai", "Logan", "Morgan", "Noel", "Oakley", "Parker",
	"Quinn", "Reese", "Sage", "Taylor",
}
