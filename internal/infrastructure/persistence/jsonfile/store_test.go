package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/B-Eddie/WOSSIB/internal/infrastructure/persistence"
)

func TestStore_SaveAndLoad(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "exams", []byte(`{"a":1}`)))

	data, err := store.Load(ctx, "exams")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(data))
}

func TestStore_SaveReplacesWholeValue(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "exams", []byte("first version, longer")))
	require.NoError(t, store.Save(ctx, "exams", []byte("second")))

	data, err := store.Load(ctx, "exams")
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestStore_LoadMissingKey(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, persistence.ErrBlobNotFound)
}

func TestStore_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Save(context.Background(), "resources", []byte("{}")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "resources.json", entries[0].Name())
	assert.Equal(t, filepath.Join(dir, "resources.json"), store.path("resources"))
}

func TestNewStore_CreatesDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	_, err := NewStore(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
