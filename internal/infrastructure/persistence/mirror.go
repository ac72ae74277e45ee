package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/B-Eddie/WOSSIB/internal/domain/exam"
	"github.com/B-Eddie/WOSSIB/internal/domain/resource"
)

// ExamMirror persists the exam registry as a JSON object keyed by the
// case-folded exam name. The blob is rewritten in full on every save.
type ExamMirror struct {
	store BlobStore
}

// NewExamMirror returns an exam.Mirror backed by store.
func NewExamMirror(store BlobStore) *ExamMirror {
	return &ExamMirror{store: store}
}

func (m *ExamMirror) Save(ctx context.Context, records []exam.Record) error {
	keyed := make(map[string]exam.Record, len(records))
	for _, rec := range records {
		keyed[exam.Fold(rec.DisplayName)] = rec
	}
	data, err := json.MarshalIndent(keyed, "", "  ")
	if err != nil {
		return fmt.Errorf("encode exams: %w", err)
	}
	return m.store.Save(ctx, KeyExams, data)
}

func (m *ExamMirror) Load(ctx context.Context) ([]exam.Record, error) {
	data, err := m.store.Load(ctx, KeyExams)
	if errors.Is(err, ErrBlobNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var keyed map[string]exam.Record
	if err := json.Unmarshal(data, &keyed); err != nil {
		return nil, fmt.Errorf("decode exams: %w", err)
	}

	records := make([]exam.Record, 0, len(keyed))
	for key, rec := range keyed {
		rec.Key = key
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Key < records[j].Key })
	return records, nil
}

// ResourceMirror persists the resource registry as a JSON object mapping
// subject tag to its entry list.
type ResourceMirror struct {
	store BlobStore
}

// NewResourceMirror returns a resource.Mirror backed by store.
func NewResourceMirror(store BlobStore) *ResourceMirror {
	return &ResourceMirror{store: store}
}

func (m *ResourceMirror) Save(ctx context.Context, entries map[string][]resource.Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode resources: %w", err)
	}
	return m.store.Save(ctx, KeyResources, data)
}

func (m *ResourceMirror) Load(ctx context.Context) (map[string][]resource.Entry, error) {
	data, err := m.store.Load(ctx, KeyResources)
	if errors.Is(err, ErrBlobNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var entries map[string][]resource.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode resources: %w", err)
	}
	return entries, nil
}
