package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/B-Eddie/WOSSIB/internal/domain/exam"
	"github.com/B-Eddie/WOSSIB/internal/domain/focus"
	"github.com/B-Eddie/WOSSIB/internal/domain/resource"
	"github.com/B-Eddie/WOSSIB/internal/domain/shared"
	"github.com/B-Eddie/WOSSIB/internal/infrastructure/tables"
	"github.com/B-Eddie/WOSSIB/internal/interface/discord/presenter"
)

// ══════════════════════════════════════════════════════════════════════════════
// TEST FIXTURES
// ══════════════════════════════════════════════════════════════════════════════

type nopGranter struct{}

func (nopGranter) Grant(_ context.Context, owner focus.OwnerID, _ focus.Mode) (focus.CapabilityHandle, error) {
	return focus.CapabilityHandle("cap-" + string(owner)), nil
}

func (nopGranter) Revoke(context.Context, focus.OwnerID, focus.CapabilityHandle) error {
	return nil
}

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

type fakeAdmin struct{ admins map[focus.OwnerID]bool }

func (a *fakeAdmin) IsAdmin(_ context.Context, caller focus.OwnerID) (bool, error) {
	return a.admins[caller], nil
}

type fakeExamMirror struct{ saved [][]exam.Record }

func (m *fakeExamMirror) Save(_ context.Context, records []exam.Record) error {
	m.saved = append(m.saved, records)
	return nil
}

func (m *fakeExamMirror) Load(context.Context) ([]exam.Record, error) { return nil, nil }

type fakeResourceMirror struct{ saved []map[string][]resource.Entry }

func (m *fakeResourceMirror) Save(_ context.Context, entries map[string][]resource.Entry) error {
	m.saved = append(m.saved, entries)
	return nil
}

func (m *fakeResourceMirror) Load(context.Context) (map[string][]resource.Entry, error) {
	return nil, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newManager(clock focus.Clock) *focus.SessionManager {
	return focus.NewSessionManager(focus.NewSessionStore(), nopGranter{}, clock, testLogger())
}

// ══════════════════════════════════════════════════════════════════════════════
// OPTION PARSING
// ══════════════════════════════════════════════════════════════════════════════

func TestOptions_Require(t *testing.T) {
	opts := Options{"subject": "Physics SL"}

	v, err := opts.Require("subject")
	require.NoError(t, err)
	assert.Equal(t, "Physics SL", v)

	_, err = opts.Require("missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrValidation))
}

func TestOptions_Int(t *testing.T) {
	opts := Options{"duration": "90", "bad": "ninety"}

	n, err := opts.Int("duration")
	require.NoError(t, err)
	assert.Equal(t, 90, n)

	_, err = opts.Int("bad")
	assert.Error(t, err)

	fallback, err := opts.IntOr("absent", 42)
	require.NoError(t, err)
	assert.Equal(t, 42, fallback)
}

// ══════════════════════════════════════════════════════════════════════════════
// FOCUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

func TestStartSessionHandler(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)}
	h := &StartSessionHandler{Manager: newManager(clock), Presenter: presenter.New()}

	reply, err := h.Handle(context.Background(), Command{
		CallerID: "u1",
		Name:     "start-session",
		Options:  Options{"duration": "90", "mode": "deep"},
	})
	require.NoError(t, err)
	require.NotNil(t, reply.Embed)

	_, err = h.Handle(context.Background(), Command{
		CallerID: "u1",
		Options:  Options{"duration": "30", "mode": "deep"},
	})
	assert.True(t, errors.Is(err, shared.ErrAlreadyActive))
}

func TestStartSessionHandler_InvalidMode(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	h := &StartSessionHandler{Manager: newManager(clock), Presenter: presenter.New()}

	_, err := h.Handle(context.Background(), Command{
		CallerID: "u1",
		Options:  Options{"duration": "60", "mode": "turbo"},
	})
	assert.True(t, errors.Is(err, shared.ErrInvalidMode))
}

func TestConfirmEndHandler_NonAdminRejected(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	manager := newManager(clock)
	workflow := focus.NewApprovalWorkflow(manager, &fakeAdmin{admins: map[focus.OwnerID]bool{"admin": true}}, focus.DefaultRequestTimeout, clock, testLogger())

	_, err := manager.Start(context.Background(), "target", 60, focus.ModeDeep)
	require.NoError(t, err)
	_, err = workflow.Request("target", "target")
	require.NoError(t, err)

	h := &ConfirmEndHandler{Workflow: workflow, Presenter: presenter.New()}

	_, err = h.Handle(context.Background(), Command{
		CallerID: "bystander",
		Options:  Options{"target": "target"},
	})
	assert.True(t, errors.Is(err, shared.ErrUnauthorized))

	reply, err := h.Handle(context.Background(), Command{
		CallerID: "admin",
		Options:  Options{"target": "target"},
	})
	require.NoError(t, err)
	require.NotNil(t, reply.Embed)
	assert.False(t, manager.HasActive("target"))
}

// ══════════════════════════════════════════════════════════════════════════════
// GRADE HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

func TestConvertRawHandler_DefaultTable(t *testing.T) {
	h := &ConvertRawHandler{Tables: tables.NewStore(testLogger()), Presenter: presenter.New()}

	reply, err := h.Handle(context.Background(), Command{
		Options: Options{"mark": "73", "subject": "Underwater Basket Weaving"},
	})
	require.NoError(t, err)
	require.NotNil(t, reply.Embed)
	assert.Contains(t, reply.Embed.Description, "73")
}

func TestPercentToGradeHandler(t *testing.T) {
	h := &PercentToGradeHandler{Tables: tables.NewStore(testLogger()), Presenter: presenter.New()}

	reply, err := h.Handle(context.Background(), Command{
		Options: Options{"percent": "85"},
	})
	require.NoError(t, err)
	require.NotNil(t, reply.Embed)
	assert.Contains(t, reply.Embed.Description, "5")

	_, err = h.Handle(context.Background(), Command{
		Options: Options{"percent": "101"},
	})
	assert.True(t, errors.Is(err, shared.ErrInvalidPercentage))
}

func TestCalculateTotalHandler(t *testing.T) {
	h := &CalculateTotalHandler{Presenter: presenter.New()}

	reply, err := h.Handle(context.Background(), Command{
		Options: Options{
			"g1": "7", "g2": "6", "g3": "6",
			"g4": "5", "g5": "5", "g6": "4",
			"bonus": "2",
		},
	})
	require.NoError(t, err)
	require.NotNil(t, reply.Embed)
	assert.Contains(t, reply.Embed.Description, "35")
}

func TestCalculateTotalHandler_MissingLevel(t *testing.T) {
	h := &CalculateTotalHandler{Presenter: presenter.New()}

	_, err := h.Handle(context.Background(), Command{
		Options: Options{"g1": "7"},
	})
	assert.Error(t, err)
}

// ══════════════════════════════════════════════════════════════════════════════
// EXAM AND RESOURCE HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

func TestSetExamHandler(t *testing.T) {
	mirror := &fakeExamMirror{}
	registry := exam.NewRegistry(mirror, testLogger())
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	h := &SetExamHandler{Registry: registry, Presenter: presenter.New(), Now: func() time.Time { return now }}

	reply, err := h.Handle(context.Background(), Command{
		CallerID: "teacher",
		Options:  Options{"name": "Math AA HL Paper 1", "date": "2026-05-04", "time": "13:00"},
	})
	require.NoError(t, err)
	require.NotNil(t, reply.Embed)

	rec, err := registry.Get("Math AA HL Paper 1")
	require.NoError(t, err)
	assert.Equal(t, "teacher", rec.SetBy)
	assert.Len(t, mirror.saved, 1)
}

func TestSetExamHandler_BadDate(t *testing.T) {
	h := &SetExamHandler{Registry: exam.NewRegistry(&fakeExamMirror{}, testLogger()), Presenter: presenter.New()}

	_, err := h.Handle(context.Background(), Command{
		Options: Options{"name": "Bio", "date": "tomorrow-ish"},
	})
	assert.True(t, errors.Is(err, shared.ErrBadExamDateTime))
}

func TestAddResourceHandler(t *testing.T) {
	mirror := &fakeResourceMirror{}
	registry := resource.NewRegistry(mirror, testLogger())
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	h := &AddResourceHandler{Registry: registry, Presenter: presenter.New(), Now: func() time.Time { return now }}

	reply, err := h.Handle(context.Background(), Command{
		CallerID: "u9",
		Options: Options{
			"url":         "https://example.com/notes.pdf",
			"subject":     "Chemistry HL",
			"description": "unit 4 summary",
		},
	})
	require.NoError(t, err)
	assert.Contains(t, reply.Content, "example.com/notes.pdf")
	entries, err := registry.List("Chemistry HL")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Len(t, mirror.saved, 1)

	_, err = h.Handle(context.Background(), Command{
		CallerID: "u9",
		Options:  Options{"url": "notaurl", "subject": "Chemistry HL"},
	})
	assert.True(t, errors.Is(err, shared.ErrInvalidResourceURL))
}
