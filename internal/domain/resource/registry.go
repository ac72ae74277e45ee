// Package resource contains the study-resource registry: an append-only list
// of links per subject tag, mirrored to durable storage on every addition.
package resource

import (
	"context"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/B-Eddie/WOSSIB/internal/domain/shared"
)

// Entry is one shared study resource.
type Entry struct {
	Subject     string    `json:"-"`
	URL         string    `json:"url"`
	Description string    `json:"description"`
	AddedBy     string    `json:"added_by"`
	AddedAt     time.Time `json:"added_at"`
}

// Mirror persists the registry's full contents, rewritten on every mutation.
type Mirror interface {
	Save(ctx context.Context, entries map[string][]Entry) error
	Load(ctx context.Context) (map[string][]Entry, error)
}

// Registry is the in-memory resource collection, authoritative for the
// running process.
type Registry struct {
	mu        sync.Mutex
	bySubject map[string][]Entry
	mirror    Mirror
	logger    *slog.Logger
}

// NewRegistry creates an empty registry mirrored into the given store.
func NewRegistry(mirror Mirror, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		bySubject: make(map[string][]Entry),
		mirror:    mirror,
		logger:    logger,
	}
}

// Restore loads the mirrored entries at startup. A read failure yields an
// empty registry with a warning rather than a crash.
func (r *Registry) Restore(ctx context.Context) {
	entries, err := r.mirror.Load(ctx)
	if err != nil {
		r.logger.Warn("resource mirror unreadable, starting empty", "error", err)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for subject, list := range entries {
		tag := foldTag(subject)
		for i := range list {
			list[i].Subject = tag
		}
		r.bySubject[tag] = list
		total += len(list)
	}
	r.logger.Info("resource registry restored", "subjects", len(entries), "entries", total)
}

func foldTag(subject string) string {
	return strings.ToLower(strings.TrimSpace(subject))
}

// Add appends a resource under the subject tag. Only absolute http(s) URLs
// with a host are accepted; entries are never removed or reordered.
func (r *Registry) Add(ctx context.Context, subject, rawURL, description, addedBy string, now time.Time) (Entry, error) {
	tag := foldTag(subject)
	if tag == "" {
		return Entry{}, shared.NewDomainError("resource", "Add", shared.ErrValidation, "subject tag must not be empty")
	}
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return Entry{}, shared.ErrInvalidResourceURL
	}

	entry := Entry{
		Subject:     tag,
		URL:         rawURL,
		Description: strings.TrimSpace(description),
		AddedBy:     addedBy,
		AddedAt:     now,
	}

	r.mu.Lock()
	r.bySubject[tag] = append(r.bySubject[tag], entry)
	snapshot := r.snapshotLocked()
	r.mu.Unlock()

	r.persist(ctx, snapshot)
	return entry, nil
}

// List returns the entries recorded under a subject tag in insertion order.
func (r *Registry) List(subject string) ([]Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, ok := r.bySubject[foldTag(subject)]
	if !ok || len(entries) == 0 {
		return nil, shared.ErrNoResources
	}
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out, nil
}

// Subjects returns the subject tags that have at least one entry, sorted.
func (r *Registry) Subjects() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	tags := make([]string, 0, len(r.bySubject))
	for tag, entries := range r.bySubject {
		if len(entries) > 0 {
			tags = append(tags, tag)
		}
	}
	sort.Strings(tags)
	return tags
}

// All returns a copy of the full collection, for the refresh command.
func (r *Registry) All() map[string][]Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Registry) snapshotLocked() map[string][]Entry {
	out := make(map[string][]Entry, len(r.bySubject))
	for tag, entries := range r.bySubject {
		copied := make([]Entry, len(entries))
		copy(copied, entries)
		out[tag] = copied
	}
	return out
}

func (r *Registry) persist(ctx context.Context, snapshot map[string][]Entry) {
	if err := r.mirror.Save(ctx, snapshot); err != nil {
		r.logger.Warn("resource mirror write failed, in-memory copy remains authoritative", "error", err)
	}
}
