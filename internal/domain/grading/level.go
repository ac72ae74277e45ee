package grading

import "github.com/B-Eddie/WOSSIB/internal/domain/shared"

// LevelBoundaries maps each level to the minimum converted percentage that
// earns it. Floors are expected to be non-decreasing in level with level 1
// floored at 0, but resolution tolerates equal or inverted adjacent floors:
// the scan from level 7 downward yields a total order over [0,100] either way.
type LevelBoundaries struct {
	floors [MaxLevel + 1]int
}

// NewLevelBoundaries builds a boundary table from level->floor pairs. Levels
// absent from the input inherit the default floor for that level.
func NewLevelBoundaries(floors map[Level]int) *LevelBoundaries {
	b := DefaultBoundaries()
	for lvl, floor := range floors {
		if lvl.IsValid() {
			b.floors[lvl] = floor
		}
	}
	// Level 1 is the catch-all band.
	b.floors[MinLevel] = 0
	return b
}

// DefaultBoundaries returns the static fallback boundary table used when a
// subject defines none of its own.
func DefaultBoundaries() *LevelBoundaries {
	b := &LevelBoundaries{}
	b.floors[1] = 0
	b.floors[2] = 50
	b.floors[3] = 61
	b.floors[4] = 72
	b.floors[5] = 84
	b.floors[6] = 93
	b.floors[7] = 97
	return b
}

// LevelFor resolves a converted percentage to a level: the first level,
// scanning from 7 down to 1, whose floor is at or below the percentage.
// Level 1 always matches since its floor is 0.
func (b *LevelBoundaries) LevelFor(pct int) (Level, error) {
	if err := ValidatePercentage(pct); err != nil {
		return 0, err
	}
	for lvl := MaxLevel; lvl > MinLevel; lvl-- {
		if pct >= b.floors[lvl] {
			return lvl, nil
		}
	}
	return MinLevel, nil
}

// FloorFor returns the minimum percentage threshold for the given level.
func (b *LevelBoundaries) FloorFor(level Level) (int, error) {
	if !level.IsValid() {
		return 0, shared.ErrInvalidLevel
	}
	return b.floors[level], nil
}

// LevelFromRaw derives a level for a raw mark against the given table and
// boundary set. Exact table membership takes priority over boundary
// inference: a mark recorded verbatim under some level returns that level
// even when the boundary table would disagree. Otherwise the mark is
// converted and resolved through the boundaries.
func LevelFromRaw(t *ConversionTable, b *LevelBoundaries, raw int) (Level, error) {
	if err := ValidateRawMark(raw); err != nil {
		return 0, err
	}
	if lvl, ok := t.ExactLevelFor(raw); ok {
		return lvl, nil
	}
	pct, err := t.Convert(raw)
	if err != nil {
		return 0, err
	}
	return b.LevelFor(pct)
}

// FloorFromTable resolves a level's floor straight from table data: the
// minimum converted value observed under that level. Used when a subject is
// driven by table observations rather than an explicit boundary table.
func FloorFromTable(t *ConversionTable, b *LevelBoundaries, level Level) (int, error) {
	if !level.IsValid() {
		return 0, shared.ErrInvalidLevel
	}
	if t.Boundaries() == nil {
		if min, ok := t.MinConvertedFor(level); ok {
			return min, nil
		}
	}
	return b.FloorFor(level)
}
