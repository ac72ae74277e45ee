// Package tables implements the conversion-table store: it loads per-subject
// conversion datasets from disk, normalizes their inconsistent key formats
// into the canonical table shape, and answers subject-level conversion and
// level-resolution queries with fallback to a default subject.
package tables

import (
	"sort"
	"strings"
	"sync"

	"log/slog"

	"github.com/B-Eddie/WOSSIB/internal/domain/grading"
)

// DefaultSubjectID is the subject used when a requested subject is unknown.
// Conversion falls back here rather than erroring, by design.
const DefaultSubjectID = "default"

// Store holds one immutable ConversionTable per subject. Tables are loaded
// at startup; lookups afterwards are read-only.
type Store struct {
	mu             sync.RWMutex
	tables         map[string]*grading.ConversionTable
	displayNames   map[string]string
	defaultSubject string
	logger         *slog.Logger
}

// NewStore creates a store whose unknown-subject fallback is the built-in
// identity table under DefaultSubjectID. Loading a dataset named "default"
// replaces the built-in.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		tables:         make(map[string]*grading.ConversionTable),
		displayNames:   make(map[string]string),
		defaultSubject: DefaultSubjectID,
		logger:         logger,
	}
	s.tables[DefaultSubjectID] = builtinDefaultTable()
	s.displayNames[DefaultSubjectID] = "Default"
	return s
}

// builtinDefaultTable anchors an identity conversion (raw == converted) at
// each default level floor, so unknown subjects resolve levels consistently
// with the static default boundaries.
func builtinDefaultTable() *grading.ConversionTable {
	b := grading.DefaultBoundaries()
	marks := make(map[grading.Level]map[int]int, int(grading.MaxLevel))
	for lvl := grading.MinLevel; lvl <= grading.MaxLevel; lvl++ {
		floor, _ := b.FloorFor(lvl)
		marks[lvl] = map[int]int{floor: floor}
	}
	marks[grading.MaxLevel][100] = 100
	return grading.NewConversionTable(marks, nil)
}

// Fold normalizes a subject identifier for lookup.
func Fold(subject string) string {
	return strings.ToLower(strings.TrimSpace(subject))
}

// put registers a loaded table under its folded subject ID.
func (s *Store) put(subjectID, displayName string, table *grading.ConversionTable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[Fold(subjectID)] = table
	s.displayNames[Fold(subjectID)] = displayName
}

// Has reports whether the subject has its own loaded table.
func (s *Store) Has(subject string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.tables[Fold(subject)]
	return ok
}

// Subjects returns the loaded subject IDs, sorted.
func (s *Store) Subjects() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.tables))
	for id := range s.tables {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// DisplayName returns the human-readable name for a subject ID.
func (s *Store) DisplayName(subject string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if name, ok := s.displayNames[Fold(subject)]; ok {
		return name
	}
	return subject
}

// TableFor returns the subject's table, falling back to the default subject
// when the requested one is unknown. The second return is the subject ID the
// table actually belongs to.
func (s *Store) TableFor(subject string) (*grading.ConversionTable, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id := Fold(subject)
	if t, ok := s.tables[id]; ok {
		return t, id
	}
	return s.tables[s.defaultSubject], s.defaultSubject
}

// BoundariesFor returns the subject's explicit boundary table, or the static
// default when the subject defines none (or is unknown).
func (s *Store) BoundariesFor(subject string) *grading.LevelBoundaries {
	t, _ := s.TableFor(subject)
	if b := t.Boundaries(); b != nil {
		return b
	}
	return grading.DefaultBoundaries()
}

// Convert maps a raw mark through the subject's table, interpolating between
// tabulated points as needed.
func (s *Store) Convert(raw int, subject string) (int, error) {
	t, _ := s.TableFor(subject)
	return t.Convert(raw)
}

// LevelFromRaw derives the subject's level for a raw mark: exact table
// membership first, then conversion plus boundary inference.
func (s *Store) LevelFromRaw(raw int, subject string) (grading.Level, error) {
	t, _ := s.TableFor(subject)
	return grading.LevelFromRaw(t, s.BoundariesFor(subject), raw)
}

// LevelFromPercentage resolves a converted percentage through the subject's
// boundaries.
func (s *Store) LevelFromPercentage(pct int, subject string) (grading.Level, error) {
	return s.BoundariesFor(subject).LevelFor(pct)
}

// PercentageFromLevel returns the level's floor: the explicit boundary when
// the subject defines one, else the minimum converted value observed under
// that level, else the static default floor.
func (s *Store) PercentageFromLevel(level grading.Level, subject string) (int, error) {
	t, _ := s.TableFor(subject)
	return grading.FloorFromTable(t, s.BoundariesFor(subject), level)
}
