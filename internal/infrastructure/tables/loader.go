package tables

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/B-Eddie/WOSSIB/internal/domain/grading"
)

// dataset is the on-disk shape of a per-subject conversion file: a mapping
// from level label to raw-mark/converted observations, plus two reserved
// keys. Level labels and raw-mark keys arrive in inconsistent formats across
// data sources; the loader, not downstream logic, absorbs that.
type dataset struct {
	labels map[string]json.RawMessage
}

// reserved top-level keys that are not level labels.
const (
	keySubject    = "subject"
	keyBoundaries = "boundaries"
)

// LoadDir loads every *.json dataset in dir. Loads are independent: a file
// that fails to parse is logged and skipped and must not prevent the others
// from loading. A missing directory loads nothing.
func (s *Store) LoadDir(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		s.logger.Warn("conversion dataset directory unreadable", "dir", dir, "error", err)
		return
	}

	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		subjectID := strings.TrimSuffix(entry.Name(), ".json")
		path := filepath.Join(dir, entry.Name())

		f, err := os.Open(path)
		if err != nil {
			s.logger.Warn("conversion dataset unreadable, skipping", "subject", subjectID, "error", err)
			continue
		}
		err = s.Load(subjectID, f)
		f.Close()
		if err != nil {
			s.logger.Warn("conversion dataset invalid, skipping", "subject", subjectID, "error", err)
			continue
		}
		loaded++
	}
	s.logger.Info("conversion tables loaded", "dir", dir, "subjects", loaded)
}

// Load parses one subject dataset and registers its table.
func (s *Store) Load(subjectID string, r io.Reader) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read dataset: %w", err)
	}

	var ds dataset
	if err := json.Unmarshal(raw, &ds.labels); err != nil {
		return fmt.Errorf("parse dataset: %w", err)
	}

	displayName := subjectID
	marks := make(map[grading.Level]map[int]int)
	var boundaries *grading.LevelBoundaries

	for label, payload := range ds.labels {
		switch strings.ToLower(strings.TrimSpace(label)) {
		case keySubject:
			var name string
			if err := json.Unmarshal(payload, &name); err == nil && name != "" {
				displayName = name
			}
			continue
		case keyBoundaries:
			b, err := parseBoundaries(payload)
			if err != nil {
				return fmt.Errorf("boundaries: %w", err)
			}
			boundaries = b
			continue
		}

		level, ok := parseLevelLabel(label)
		if !ok {
			s.logger.Warn("unrecognized level label, skipping", "subject", subjectID, "label", label)
			continue
		}
		obs, err := parseObservations(payload)
		if err != nil {
			return fmt.Errorf("level %q: %w", label, err)
		}
		if existing, ok := marks[level]; ok {
			for k, v := range obs {
				existing[k] = v
			}
		} else {
			marks[level] = obs
		}
	}

	table := grading.NewConversionTable(marks, boundaries)
	if table.IsEmpty() && boundaries == nil {
		return fmt.Errorf("dataset carries no level observations")
	}

	s.put(subjectID, displayName, table)
	return nil
}

// parseLevelLabel normalizes the level-key formats seen across data sources:
// "Level 7", "level7", "L7", "Grade 7", "7".
func parseLevelLabel(label string) (grading.Level, bool) {
	cleaned := strings.ToLower(strings.TrimSpace(label))
	for _, prefix := range []string{"level", "grade", "lvl", "l"} {
		if strings.HasPrefix(cleaned, prefix) {
			cleaned = strings.TrimSpace(strings.TrimPrefix(cleaned, prefix))
			break
		}
	}
	n, err := strconv.Atoi(cleaned)
	if err != nil {
		return 0, false
	}
	level := grading.Level(n)
	return level, level.IsValid()
}

// parseObservations reads a raw-mark -> converted-percentage object,
// tolerating stray whitespace and percent signs in the mark keys and
// fractional converted values (rounded half up).
func parseObservations(payload json.RawMessage) (map[int]int, error) {
	var obj map[string]float64
	if err := json.Unmarshal(payload, &obj); err != nil {
		return nil, err
	}

	obs := make(map[int]int, len(obj))
	for key, value := range obj {
		mark, err := parseMarkKey(key)
		if err != nil {
			return nil, err
		}
		converted := int(value + 0.5)
		if converted < 0 || converted > 100 {
			return nil, fmt.Errorf("converted value %v for mark %d out of range", value, mark)
		}
		obs[mark] = converted
	}
	return obs, nil
}

func parseBoundaries(payload json.RawMessage) (*grading.LevelBoundaries, error) {
	var obj map[string]float64
	if err := json.Unmarshal(payload, &obj); err != nil {
		return nil, err
	}

	floors := make(map[grading.Level]int, len(obj))
	for label, value := range obj {
		level, ok := parseLevelLabel(label)
		if !ok {
			return nil, fmt.Errorf("unrecognized boundary level %q", label)
		}
		floor := int(value + 0.5)
		if floor < 0 || floor > 100 {
			return nil, fmt.Errorf("boundary floor %v out of range", value)
		}
		floors[level] = floor
	}
	return grading.NewLevelBoundaries(floors), nil
}

func parseMarkKey(key string) (int, error) {
	cleaned := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(key), "%"))
	mark, err := strconv.Atoi(cleaned)
	if err != nil {
		return 0, fmt.Errorf("raw mark key %q is not a number", key)
	}
	if mark < 0 || mark > 100 {
		return 0, fmt.Errorf("raw mark %d out of range", mark)
	}
	return mark, nil
}
