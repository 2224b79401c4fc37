// Package loader reads the athlete table and the performance lookup from
// CSV files.
//
// Columns are matched by header name, case-insensitively. The athlete
// table needs NAME, POSITION and one of ADP SCORE, DESIRABILITY or SCORE.
// The performance table needs NAME and one of POINTS, SCORE or
// PERFORMANCE. Other columns are ignored.
package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/okian/snakedraft/internal/domain/model"
	"github.com/okian/snakedraft/internal/domain/scoring"
)

var (
	nameColumns        = []string{"NAME", "PLAYER"}                     //nolint:gochecknoglobals // header aliases
	positionColumns    = []string{"POSITION", "POS"}                    //nolint:gochecknoglobals // header aliases
	desirabilityColumn = []string{"ADP SCORE", "DESIRABILITY", "SCORE"} //nolint:gochecknoglobals // header aliases
	performanceColumns = []string{"POINTS", "SCORE", "PERFORMANCE"}     //nolint:gochecknoglobals // header aliases
)

// ReadAthletes parses an athlete table. Row order is kept; it is the draft
// tie-break order.
func ReadAthletes(r io.Reader) ([]model.Athlete, error) {
	rows, header, err := readAll(r)
	if err != nil {
		return nil, err
	}
	nameCol, err := column(header, nameColumns)
	if err != nil {
		return nil, err
	}
	posCol, err := column(header, positionColumns)
	if err != nil {
		return nil, err
	}
	scoreCol, err := column(header, desirabilityColumn)
	if err != nil {
		return nil, err
	}

	pool := make([]model.Athlete, 0, len(rows))
	seen := make(map[string]int, len(rows))
	for i, row := range rows {
		line := i + 2
		name := strings.TrimSpace(row[nameCol])
		if name == "" {
			return nil, fmt.Errorf("%w: line %d: empty name", ErrMalformedRecord, line)
		}
		if prev, dup := seen[name]; dup {
			return nil, fmt.Errorf("%w: line %d: duplicate name %q (first on line %d)", ErrMalformedRecord, line, name, prev)
		}
		seen[name] = line
		pos := model.ParsePosition(row[posCol])
		if pos == "" {
			return nil, fmt.Errorf("%w: line %d: athlete %q has no position", ErrMalformedRecord, line, name)
		}
		score, err := parseFloat(row[scoreCol])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: athlete %q: %w", ErrMalformedRecord, line, name, err)
		}
		pool = append(pool, model.Athlete{Name: name, Position: pos, Desirability: score})
	}
	return pool, nil
}

// ReadPerformance parses a performance table into a scoring lookup.
func ReadPerformance(r io.Reader) (scoring.Lookup, error) {
	rows, header, err := readAll(r)
	if err != nil {
		return nil, err
	}
	nameCol, err := column(header, nameColumns)
	if err != nil {
		return nil, err
	}
	pointsCol, err := column(header, performanceColumns)
	if err != nil {
		return nil, err
	}

	lookup := make(scoring.Lookup, len(rows))
	for i, row := range rows {
		line := i + 2
		name := strings.TrimSpace(row[nameCol])
		if name == "" {
			return nil, fmt.Errorf("%w: line %d: empty name", ErrMalformedRecord, line)
		}
		if _, dup := lookup[name]; dup {
			return nil, fmt.Errorf("%w: line %d: duplicate name %q", ErrMalformedRecord, line, name)
		}
		points, err := parseFloat(row[pointsCol])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: athlete %q: %w", ErrMalformedRecord, line, name, err)
		}
		lookup[name] = points
	}
	return lookup, nil
}

// LoadAthletes reads the athlete table at path.
func LoadAthletes(path string) ([]model.Athlete, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open athletes: %w", err)
	}
	defer f.Close()

	pool, err := ReadAthletes(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return pool, nil
}

// LoadPerformance reads the performance table at path.
func LoadPerformance(path string) (scoring.Lookup, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open performance: %w", err)
	}
	defer f.Close()

	lookup, err := ReadPerformance(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return lookup, nil
}

func readAll(r io.Reader) ([][]string, map[string]int, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	head, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("%w: empty file", ErrMissingColumn)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: header: %w", ErrMalformedRecord, err)
	}
	header := make(map[string]int, len(head))
	for i, h := range head {
		key := strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := header[key]; !dup {
			header[key] = i
		}
	}

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrMalformedRecord, err)
	}
	return rows, header, nil
}

func column(header map[string]int, aliases []string) (int, error) {
	for _, a := range aliases {
		if i, ok := header[a]; ok {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: want one of %s", ErrMissingColumn, strings.Join(aliases, ", "))
}

func parseFloat(raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("bad number %q", raw)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite number %q", raw)
	}
	return v, nil
}
