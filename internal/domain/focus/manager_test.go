package focus

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/B-Eddie/WOSSIB/internal/domain/shared"
)

// testClock is a mutable clock for driving expiry in tests.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeGranter records grants and revokes and can be told to fail.
type fakeGranter struct {
	mu        sync.Mutex
	granted   int
	revoked   []CapabilityHandle
	grantErr  error
	revokeErr error
}

func (g *fakeGranter) Grant(_ context.Context, owner OwnerID, mode Mode) (CapabilityHandle, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.grantErr != nil {
		return "", g.grantErr
	}
	g.granted++
	return CapabilityHandle("role:" + string(mode) + ":" + owner.String()), nil
}

func (g *fakeGranter) Revoke(_ context.Context, _ OwnerID, handle CapabilityHandle) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.revokeErr != nil {
		return g.revokeErr
	}
	g.revoked = append(g.revoked, handle)
	return nil
}

func newTestManager() (*SessionManager, *fakeGranter, *testClock) {
	clock := newTestClock()
	granter := &fakeGranter{}
	manager := NewSessionManager(NewSessionStore(), granter, clock, nil)
	return manager, granter, clock
}

func TestStart_CreatesSession(t *testing.T) {
	manager, granter, clock := newTestManager()

	session, err := manager.Start(context.Background(), "alice", 90, ModeDeep)
	require.NoError(t, err)
	assert.Equal(t, OwnerID("alice"), session.Owner)
	assert.Equal(t, 90, session.DurationMinutes)
	assert.Equal(t, clock.Now().Add(90*time.Minute), session.EndsAt)
	assert.Equal(t, 1, granter.granted)
}

func TestStart_SecondStartFailsAlreadyActive(t *testing.T) {
	manager, _, _ := newTestManager()

	first, err := manager.Start(context.Background(), "alice", 60, ModeDeep)
	require.NoError(t, err)

	_, err = manager.Start(context.Background(), "alice", 30, ModeStudyGroup)
	assert.ErrorIs(t, err, shared.ErrAlreadyActive)
	assert.ErrorIs(t, err, shared.ErrConflict)

	// The first session is unchanged.
	status, err := manager.Status("alice")
	require.NoError(t, err)
	assert.Equal(t, first.EndsAt, status.EndsAt)
	assert.Equal(t, ModeDeep, status.Mode)
}

func TestStart_DurationCap(t *testing.T) {
	manager, _, _ := newTestManager()

	_, err := manager.Start(context.Background(), "alice", 481, ModeDeep)
	assert.ErrorIs(t, err, shared.ErrDurationExceeded)
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = manager.Start(context.Background(), "alice", 0, ModeDeep)
	assert.ErrorIs(t, err, shared.ErrDurationExceeded)

	_, err = manager.Start(context.Background(), "alice", 480, ModeDeep)
	assert.NoError(t, err, "480 minutes is the inclusive cap")
}

func TestStart_GrantFailureLeavesNoState(t *testing.T) {
	manager, granter, _ := newTestManager()
	granter.grantErr = errors.New("missing role permission")

	_, err := manager.Start(context.Background(), "alice", 60, ModeDeep)
	assert.ErrorIs(t, err, shared.ErrCapability)

	_, err = manager.Status("alice")
	assert.ErrorIs(t, err, shared.ErrNoActiveSession)
	assert.Empty(t, manager.List())
}

func TestStatus_EndedButUnsweptIsNotActive(t *testing.T) {
	manager, _, clock := newTestManager()

	_, err := manager.Start(context.Background(), "alice", 10, ModeDeep)
	require.NoError(t, err)

	clock.Advance(11 * time.Minute)

	_, err = manager.Status("alice")
	assert.ErrorIs(t, err, shared.ErrSessionEnded, "ended, pending cleanup")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestList_SortedAscendingAndLazilyFiltered(t *testing.T) {
	manager, _, clock := newTestManager()
	ctx := context.Background()

	_, err := manager.Start(ctx, "long", 300, ModeDeep)
	require.NoError(t, err)
	_, err = manager.Start(ctx, "short", 20, ModeSubject)
	require.NoError(t, err)
	_, err = manager.Start(ctx, "medium", 120, ModeStudyGroup)
	require.NoError(t, err)

	reports := manager.List()
	require.Len(t, reports, 3)
	assert.Equal(t, OwnerID("short"), reports[0].Owner)
	assert.Equal(t, OwnerID("medium"), reports[1].Owner)
	assert.Equal(t, OwnerID("long"), reports[2].Owner)

	// After 30 minutes "short" has ended; it disappears from List without
	// any sweep having run.
	clock.Advance(30 * time.Minute)
	reports = manager.List()
	require.Len(t, reports, 2)
	assert.Equal(t, OwnerID("medium"), reports[0].Owner)
}

func TestTerminateNow_ReportsPlannedVsActual(t *testing.T) {
	manager, granter, clock := newTestManager()

	_, err := manager.Start(context.Background(), "alice", 10, ModeDeep)
	require.NoError(t, err)

	clock.Advance(11 * time.Minute)

	owners := manager.ExpiredOwners()
	require.Equal(t, []OwnerID{"alice"}, owners)

	report, err := manager.TerminateNow(context.Background(), "alice", CauseExpired)
	require.NoError(t, err)
	assert.Equal(t, 10, report.PlannedMinutes)
	assert.Equal(t, 11, report.ActualMinutes)
	assert.Equal(t, CauseExpired, report.Cause)

	assert.Empty(t, manager.List())
	assert.Len(t, granter.revoked, 1, "capability handed back on termination")

	_, err = manager.TerminateNow(context.Background(), "alice", CauseExpired)
	assert.ErrorIs(t, err, shared.ErrNoActiveSession)
}

func TestTerminateNow_RevokeFailureIsNotFatal(t *testing.T) {
	manager, granter, _ := newTestManager()

	_, err := manager.Start(context.Background(), "alice", 60, ModeDeep)
	require.NoError(t, err)

	granter.revokeErr = errors.New("platform unavailable")

	report, err := manager.TerminateNow(context.Background(), "alice", CauseManual)
	require.NoError(t, err, "revoke is best-effort")
	assert.Equal(t, CauseManual, report.Cause)
	assert.Empty(t, manager.List())
}

func TestSweepToleratesConcurrentStarts(t *testing.T) {
	manager, _, clock := newTestManager()
	ctx := context.Background()

	_, err := manager.Start(ctx, "expiring", 10, ModeDeep)
	require.NoError(t, err)
	clock.Advance(11 * time.Minute)

	owners := manager.ExpiredOwners()

	// Another owner starts mid-sweep; the snapshot is unaffected and the new
	// session survives.
	_, err = manager.Start(ctx, "fresh", 60, ModeDeep)
	require.NoError(t, err)

	for _, owner := range owners {
		_, err := manager.TerminateNow(ctx, owner, CauseExpired)
		require.NoError(t, err)
	}

	reports := manager.List()
	require.Len(t, reports, 1)
	assert.Equal(t, OwnerID("fresh"), reports[0].Owner)
}

func TestSweepSkipsSessionRestartedAfterSnapshot(t *testing.T) {
	manager, _, clock := newTestManager()
	ctx := context.Background()

	_, err := manager.Start(ctx, "alice", 10, ModeDeep)
	require.NoError(t, err)
	clock.Advance(11 * time.Minute)

	owners := manager.ExpiredOwners()
	require.Equal(t, []OwnerID{"alice"}, owners)

	// The expired session is confirmed away and a fresh one started before
	// the sweep reaches the owner.
	_, err = manager.TerminateNow(ctx, "alice", CauseManual)
	require.NoError(t, err)
	fresh, err := manager.Start(ctx, "alice", 60, ModeDeep)
	require.NoError(t, err)

	// Replaying the stale snapshot must not touch the fresh session.
	for _, owner := range owners {
		_, err := manager.TerminateNow(ctx, owner, CauseExpired)
		assert.ErrorIs(t, err, shared.ErrNoActiveSession)
	}

	status, err := manager.Status("alice")
	require.NoError(t, err)
	assert.Equal(t, fresh.EndsAt, status.EndsAt)
}

func TestParseMode(t *testing.T) {
	mode, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeDeep, mode)

	mode, err = ParseMode("study_group")
	require.NoError(t, err)
	assert.Equal(t, ModeStudyGroup, mode)

	_, err = ParseMode("casual")
	assert.ErrorIs(t, err, shared.ErrValidation)
}
