package persistence

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/B-Eddie/WOSSIB/internal/domain/exam"
	"github.com/B-Eddie/WOSSIB/internal/domain/resource"
)

// memStore is an in-memory BlobStore for mirror tests.
type memStore struct {
	blobs map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{blobs: make(map[string][]byte)}
}

func (m *memStore) Save(_ context.Context, key string, data []byte) error {
	m.blobs[key] = data
	return nil
}

func (m *memStore) Load(_ context.Context, key string) ([]byte, error) {
	data, ok := m.blobs[key]
	if !ok {
		return nil, ErrBlobNotFound
	}
	return data, nil
}

func (m *memStore) Close() error { return nil }

func TestExamMirror_KeysBlobByFoldedName(t *testing.T) {
	store := newMemStore()
	mirror := NewExamMirror(store)
	ctx := context.Background()

	at := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	err := mirror.Save(ctx, []exam.Record{
		{DisplayName: "French B SL", At: at, SetBy: "alice"},
	})
	require.NoError(t, err)

	// The durable form is an object keyed by the case-folded name.
	var raw map[string]map[string]any
	require.NoError(t, json.Unmarshal(store.blobs[KeyExams], &raw))
	require.Contains(t, raw, "french b sl")
	assert.Equal(t, "French B SL", raw["french b sl"]["name"])
	assert.Equal(t, "alice", raw["french b sl"]["set_by"])

	records, err := mirror.Load(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "french b sl", records[0].Key)
	assert.Equal(t, "French B SL", records[0].DisplayName)
	assert.True(t, records[0].At.Equal(at))
}

func TestExamMirror_EmptyStoreLoadsNothing(t *testing.T) {
	mirror := NewExamMirror(newMemStore())

	records, err := mirror.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestExamMirror_RejectsCorruptBlob(t *testing.T) {
	store := newMemStore()
	store.blobs[KeyExams] = []byte("{not json")

	_, err := NewExamMirror(store).Load(context.Background())
	assert.Error(t, err)
}

func TestResourceMirror_RoundTrip(t *testing.T) {
	store := newMemStore()
	mirror := NewResourceMirror(store)
	ctx := context.Background()

	added := time.Date(2026, 2, 1, 12, 30, 0, 0, time.UTC)
	err := mirror.Save(ctx, map[string][]resource.Entry{
		"Chemistry": {
			{URL: "https://example.org/chem", Description: "notes", AddedBy: "bob", AddedAt: added},
		},
	})
	require.NoError(t, err)

	entries, err := mirror.Load(ctx)
	require.NoError(t, err)
	require.Len(t, entries["Chemistry"], 1)
	assert.Equal(t, "https://example.org/chem", entries["Chemistry"][0].URL)
	assert.Equal(t, "bob", entries["Chemistry"][0].AddedBy)
}

func TestResourceMirror_EmptyStoreLoadsNothing(t *testing.T) {
	entries, err := NewResourceMirror(newMemStore()).Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}
