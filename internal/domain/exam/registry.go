// Package exam contains the exam-countdown registry: named exam dates keyed
// by case-folded name, mirrored to durable storage on every mutation and
// pruned daily once past.
package exam

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/B-Eddie/WOSSIB/internal/domain/shared"
)

// Record is one scheduled exam.
type Record struct {
	// Key is the case-folded exam name, unique within the registry.
	Key string `json:"-"`

	// DisplayName preserves the name as originally entered.
	DisplayName string `json:"name"`

	// At is when the exam happens.
	At time.Time `json:"datetime"`

	// SetBy is the platform user who registered the exam.
	SetBy string `json:"set_by"`
}

// Countdown describes the remaining time until an exam.
type Countdown struct {
	Record  Record
	Until   time.Duration
	Started bool // the exam datetime is now or in the past
}

// Days returns whole days remaining.
func (c Countdown) Days() int {
	return int(c.Until / (24 * time.Hour))
}

// Hours returns the hour component of the remaining time.
func (c Countdown) Hours() int {
	return int(c.Until%(24*time.Hour)) / int(time.Hour)
}

// Minutes returns the minute component of the remaining time.
func (c Countdown) Minutes() int {
	return int(c.Until%time.Hour) / int(time.Minute)
}

// Mirror persists the registry's full contents, rewritten on every mutation.
// Implemented by the durable blob store adapters in infrastructure.
type Mirror interface {
	Save(ctx context.Context, records []Record) error
	Load(ctx context.Context) ([]Record, error)
}

// Registry is the in-memory exam collection, authoritative for the running
// process. Durable-store failures degrade to warnings; they are never treated
// as loss of the in-memory copy.
type Registry struct {
	mu      sync.Mutex
	records map[string]Record
	mirror  Mirror
	logger  *slog.Logger
}

// NewRegistry creates an empty registry mirrored into the given store.
func NewRegistry(mirror Mirror, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		records: make(map[string]Record),
		mirror:  mirror,
		logger:  logger,
	}
}

// Restore loads the mirrored records at startup. A read failure yields an
// empty registry with a warning rather than a crash.
func (r *Registry) Restore(ctx context.Context) {
	records, err := r.mirror.Load(ctx)
	if err != nil {
		r.logger.Warn("exam mirror unreadable, starting empty", "error", err)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range records {
		rec.Key = Fold(rec.DisplayName)
		r.records[rec.Key] = rec
	}
	r.logger.Info("exam registry restored", "count", len(records))
}

// Fold case-folds an exam name into its registry key.
func Fold(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Set registers a future exam. Duplicate keys are rejected; past datetimes
// are rejected before any state change.
func (r *Registry) Set(ctx context.Context, name string, at time.Time, setBy string, now time.Time) (Record, error) {
	key := Fold(name)
	if key == "" {
		return Record{}, shared.NewDomainError("exam", "Set", shared.ErrValidation, "exam name must not be empty")
	}
	if !at.After(now) {
		return Record{}, shared.ErrExamInPast
	}

	rec := Record{
		Key:         key,
		DisplayName: strings.TrimSpace(name),
		At:          at,
		SetBy:       setBy,
	}

	r.mu.Lock()
	if _, exists := r.records[key]; exists {
		r.mu.Unlock()
		return Record{}, shared.ErrDuplicateExam
	}
	r.records[key] = rec
	snapshot := r.snapshotLocked()
	r.mu.Unlock()

	r.persist(ctx, snapshot)
	return rec, nil
}

// Remove deletes an exam by name.
func (r *Registry) Remove(ctx context.Context, name string) (Record, error) {
	key := Fold(name)

	r.mu.Lock()
	rec, exists := r.records[key]
	if !exists {
		r.mu.Unlock()
		return Record{}, shared.ErrUnknownExam
	}
	delete(r.records, key)
	snapshot := r.snapshotLocked()
	r.mu.Unlock()

	r.persist(ctx, snapshot)
	return rec, nil
}

// Get returns the exam registered under the given name.
func (r *Registry) Get(name string) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, exists := r.records[Fold(name)]
	if !exists {
		return Record{}, shared.ErrUnknownExam
	}
	return rec, nil
}

// List returns all exams sorted by ascending datetime.
func (r *Registry) List() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// CountdownFor computes the remaining time until the named exam.
func (r *Registry) CountdownFor(name string, now time.Time) (Countdown, error) {
	rec, err := r.Get(name)
	if err != nil {
		return Countdown{}, err
	}
	return newCountdown(rec, now), nil
}

// Countdowns computes remaining times for all exams, soonest first.
func (r *Registry) Countdowns(now time.Time) []Countdown {
	records := r.List()
	out := make([]Countdown, 0, len(records))
	for _, rec := range records {
		out = append(out, newCountdown(rec, now))
	}
	return out
}

// PrunePast removes every exam whose datetime is now in the past and returns
// the removed records. Called by the daily sweep.
func (r *Registry) PrunePast(ctx context.Context, now time.Time) []Record {
	r.mu.Lock()
	removed := make([]Record, 0)
	for key, rec := range r.records {
		if !rec.At.After(now) {
			removed = append(removed, rec)
			delete(r.records, key)
		}
	}
	var snapshot []Record
	if len(removed) > 0 {
		snapshot = r.snapshotLocked()
	}
	r.mu.Unlock()

	if len(removed) > 0 {
		r.persist(ctx, snapshot)
		for _, rec := range removed {
			r.logger.Info("past exam pruned", "exam", rec.DisplayName)
		}
	}
	return removed
}

func newCountdown(rec Record, now time.Time) Countdown {
	until := rec.At.Sub(now)
	if until < 0 {
		until = 0
	}
	return Countdown{
		Record:  rec,
		Until:   until,
		Started: !rec.At.After(now),
	}
}

// snapshotLocked copies the records sorted by datetime. Caller holds r.mu.
func (r *Registry) snapshotLocked() []Record {
	out := make([]Record, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out
}

// persist mirrors the snapshot outside the registry lock. Failures are
// durability warnings only; memory stays authoritative.
func (r *Registry) persist(ctx context.Context, snapshot []Record) {
	if err := r.mirror.Save(ctx, snapshot); err != nil {
		r.logger.Warn("exam mirror write failed, in-memory copy remains authoritative", "error", err)
	}
}

// ParseDateTime parses the command-surface date and time inputs
// ("YYYY-MM-DD" and "HH:MM") in the given location. An empty time defaults
// to 09:00, matching the platform's long-standing behavior.
func ParseDateTime(date, clock string, loc *time.Location) (time.Time, error) {
	if clock == "" {
		clock = "09:00"
	}
	at, err := time.ParseInLocation("2006-01-02 15:04", date+" "+clock, loc)
	if err != nil {
		return time.Time{}, shared.ErrBadExamDateTime
	}
	return at, nil
}
