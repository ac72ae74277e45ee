package resource

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/B-Eddie/WOSSIB/internal/domain/shared"
)

type fakeMirror struct {
	saved   map[string][]Entry
	saves   int
	saveErr error
	loadErr error
}

func (m *fakeMirror) Save(_ context.Context, entries map[string][]Entry) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = entries
	m.saves++
	return nil
}

func (m *fakeMirror) Load(_ context.Context) (map[string][]Entry, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.saved, nil
}

var testNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func TestAdd_AppendsAndMirrors(t *testing.T) {
	mirror := &fakeMirror{}
	reg := NewRegistry(mirror, nil)
	ctx := context.Background()

	first, err := reg.Add(ctx, "Chemistry", "https://example.org/acids", "acid-base notes", "alice", testNow)
	require.NoError(t, err)
	assert.Equal(t, "chemistry", first.Subject)

	_, err = reg.Add(ctx, "chemistry", "https://example.org/redox", "redox practice", "bob", testNow.Add(time.Minute))
	require.NoError(t, err)

	entries, err := reg.List("CHEMISTRY")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "https://example.org/acids", entries[0].URL, "append-only, insertion order kept")
	assert.Equal(t, "https://example.org/redox", entries[1].URL)
	assert.Equal(t, 2, mirror.saves)
}

func TestAdd_RejectsNonHTTPURLs(t *testing.T) {
	reg := NewRegistry(&fakeMirror{}, nil)

	_, err := reg.Add(context.Background(), "math", "ftp://example.org/file", "", "alice", testNow)
	assert.ErrorIs(t, err, shared.ErrInvalidResourceURL)
	assert.ErrorIs(t, err, shared.ErrValidation)

	// Scheme alone is not enough: a host is required.
	_, err = reg.Add(context.Background(), "math", "http://", "", "alice", testNow)
	assert.ErrorIs(t, err, shared.ErrInvalidResourceURL)

	_, err = reg.Add(context.Background(), "math", "notaurl", "", "alice", testNow)
	assert.ErrorIs(t, err, shared.ErrInvalidResourceURL)

	_, err = reg.Add(context.Background(), "", "https://example.org", "", "alice", testNow)
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestList_UnknownSubject(t *testing.T) {
	reg := NewRegistry(&fakeMirror{}, nil)

	_, err := reg.List("biology")
	assert.ErrorIs(t, err, shared.ErrNoResources)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestSubjects_Sorted(t *testing.T) {
	reg := NewRegistry(&fakeMirror{}, nil)
	ctx := context.Background()

	_, err := reg.Add(ctx, "physics", "https://example.org/p", "", "alice", testNow)
	require.NoError(t, err)
	_, err = reg.Add(ctx, "biology", "https://example.org/b", "", "alice", testNow)
	require.NoError(t, err)

	assert.Equal(t, []string{"biology", "physics"}, reg.Subjects())
}

func TestMirrorWriteFailureIsNotFatal(t *testing.T) {
	mirror := &fakeMirror{saveErr: errors.New("disk full")}
	reg := NewRegistry(mirror, nil)

	_, err := reg.Add(context.Background(), "math", "https://example.org/m", "", "alice", testNow)
	require.NoError(t, err)

	entries, err := reg.List("math")
	require.NoError(t, err)
	assert.Len(t, entries, 1, "memory stays authoritative")
}

func TestRestore(t *testing.T) {
	mirror := &fakeMirror{saved: map[string][]Entry{
		"Math": {{URL: "https://example.org/m", AddedBy: "alice", AddedAt: testNow}},
	}}
	reg := NewRegistry(mirror, nil)

	reg.Restore(context.Background())

	entries, err := reg.List("math")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "math", entries[0].Subject, "tags are folded on restore")
}

func TestRestore_ReadFailureYieldsEmptyRegistry(t *testing.T) {
	mirror := &fakeMirror{loadErr: errors.New("corrupt file")}
	reg := NewRegistry(mirror, nil)

	reg.Restore(context.Background())
	assert.Empty(t, reg.Subjects())
}
