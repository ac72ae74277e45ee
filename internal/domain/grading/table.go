// Package grading contains the domain logic for converting raw academic
// marks into normalized percentages and discrete 1-7 levels using
// per-subject piecewise lookup tables.
// This is a pure domain layer with zero external dependencies.
package grading

import (
	"sort"

	"github.com/B-Eddie/WOSSIB/internal/domain/shared"
)

// Level is a discrete 1-7 grade band.
type Level int

const (
	MinLevel Level = 1
	MaxLevel Level = 7
)

// IsValid checks that the level is within the 1-7 band.
func (l Level) IsValid() bool {
	return l >= MinLevel && l <= MaxLevel
}

// Int returns the level as a plain int.
func (l Level) Int() int {
	return int(l)
}

// Point is a single (raw mark, converted percentage) observation from a
// subject's conversion table.
type Point struct {
	Raw       int
	Converted int
}

// ConversionTable holds, for one subject, the mapping from level to
// raw-mark/converted-percentage observations, plus an optional explicit
// level-boundary table. Tables are immutable after construction: the
// flattened point set is computed once in NewConversionTable.
type ConversionTable struct {
	marks      map[Level]map[int]int
	points     []Point // flattened, deduplicated, sorted ascending by Raw
	boundaries *LevelBoundaries
}

// NewConversionTable builds an immutable table from per-level observations.
// Raw marks appearing under multiple levels are deduplicated last-write-wins
// in ascending level order, so the higher level's converted value survives.
// boundaries may be nil when the subject defines no explicit boundary table.
func NewConversionTable(marks map[Level]map[int]int, boundaries *LevelBoundaries) *ConversionTable {
	copied := make(map[Level]map[int]int, len(marks))
	flat := make(map[int]int)
	for lvl := MinLevel; lvl <= MaxLevel; lvl++ {
		obs, ok := marks[lvl]
		if !ok || len(obs) == 0 {
			continue
		}
		dst := make(map[int]int, len(obs))
		for raw, converted := range obs {
			dst[raw] = converted
			flat[raw] = converted
		}
		copied[lvl] = dst
	}

	points := make([]Point, 0, len(flat))
	for raw, converted := range flat {
		points = append(points, Point{Raw: raw, Converted: converted})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Raw < points[j].Raw })

	return &ConversionTable{
		marks:      copied,
		points:     points,
		boundaries: boundaries,
	}
}

// Points returns the flattened point set sorted ascending by raw mark.
// The returned slice must not be modified.
func (t *ConversionTable) Points() []Point {
	return t.points
}

// IsEmpty reports whether the table carries no observations at all.
func (t *ConversionTable) IsEmpty() bool {
	return len(t.points) == 0
}

// Boundaries returns the subject's explicit boundary table, or nil when the
// subject defines none.
func (t *ConversionTable) Boundaries() *LevelBoundaries {
	return t.boundaries
}

// ExactLevelFor reports the level under which the raw mark appears verbatim
// in the table, if any. When a mark appears under several levels the highest
// level wins, mirroring the last-write-wins rule used when flattening.
func (t *ConversionTable) ExactLevelFor(raw int) (Level, bool) {
	for lvl := MaxLevel; lvl >= MinLevel; lvl-- {
		if obs, ok := t.marks[lvl]; ok {
			if _, hit := obs[raw]; hit {
				return lvl, true
			}
		}
	}
	return 0, false
}

// MinConvertedFor returns the minimum converted percentage observed under the
// given level, for resolving a level's floor straight from table data.
func (t *ConversionTable) MinConvertedFor(level Level) (int, bool) {
	obs, ok := t.marks[level]
	if !ok || len(obs) == 0 {
		return 0, false
	}
	min := 101
	for _, converted := range obs {
		if converted < min {
			min = converted
		}
	}
	return min, true
}

// LevelObservations returns a copy of the raw->converted observations
// recorded under the given level, for presentation purposes.
func (t *ConversionTable) LevelObservations(level Level) map[int]int {
	obs, ok := t.marks[level]
	if !ok {
		return nil
	}
	out := make(map[int]int, len(obs))
	for raw, converted := range obs {
		out[raw] = converted
	}
	return out
}

// ValidateRawMark checks the 0-100 range shared by raw marks and percentages.
func ValidateRawMark(raw int) error {
	if raw < 0 || raw > 100 {
		return shared.ErrInvalidRawMark
	}
	return nil
}

// ValidatePercentage checks that a converted percentage is within 0-100.
func ValidatePercentage(pct int) error {
	if pct < 0 || pct > 100 {
		return shared.ErrInvalidPercentage
	}
	return nil
}
