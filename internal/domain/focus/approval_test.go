package focus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/B-Eddie/WOSSIB/internal/domain/shared"
)

// fakeAdminChecker treats a fixed set of callers as admins.
type fakeAdminChecker struct {
	admins map[OwnerID]bool
	err    error
}

func (c *fakeAdminChecker) IsAdmin(_ context.Context, caller OwnerID) (bool, error) {
	if c.err != nil {
		return false, c.err
	}
	return c.admins[caller], nil
}

func newTestWorkflow(t *testing.T, timeout time.Duration) (*ApprovalWorkflow, *SessionManager, *testClock) {
	t.Helper()
	manager, _, clock := newTestManager()
	admins := &fakeAdminChecker{admins: map[OwnerID]bool{"admin": true}}
	workflow := NewApprovalWorkflow(manager, admins, timeout, clock, nil)
	return workflow, manager, clock
}

func TestRequest_RequiresActiveSession(t *testing.T) {
	workflow, _, _ := newTestWorkflow(t, 0)

	_, err := workflow.Request("admin", "ghost")
	assert.ErrorIs(t, err, shared.ErrNoActiveSession)
}

func TestRequest_OnlyOneLivePerTarget(t *testing.T) {
	workflow, manager, _ := newTestWorkflow(t, 0)

	_, err := manager.Start(context.Background(), "bob", 60, ModeDeep)
	require.NoError(t, err)

	req, err := workflow.Request("admin", "bob")
	require.NoError(t, err)
	assert.Equal(t, StateRequested, req.State())
	assert.NotEmpty(t, req.ID)

	_, err = workflow.Request("admin", "bob")
	assert.ErrorIs(t, err, shared.ErrRequestPending)
	assert.ErrorIs(t, err, shared.ErrConflict)
}

func TestConfirm_TerminatesAndReports(t *testing.T) {
	workflow, manager, clock := newTestWorkflow(t, 0)

	_, err := manager.Start(context.Background(), "bob", 60, ModeDeep)
	require.NoError(t, err)
	_, err = workflow.Request("admin", "bob")
	require.NoError(t, err)

	clock.Advance(25 * time.Minute)

	report, err := workflow.Confirm(context.Background(), "bob", "admin")
	require.NoError(t, err)
	assert.Equal(t, 60, report.PlannedMinutes)
	assert.Equal(t, 25, report.ActualMinutes)
	assert.Equal(t, CauseManual, report.Cause)

	assert.False(t, manager.HasActive("bob"))
	_, pending := workflow.Pending("bob")
	assert.False(t, pending)
}

func TestConfirm_NonAdminIsUnauthorizedAndRequestStaysOpen(t *testing.T) {
	workflow, manager, _ := newTestWorkflow(t, 0)

	_, err := manager.Start(context.Background(), "bob", 60, ModeDeep)
	require.NoError(t, err)
	req, err := workflow.Request("admin", "bob")
	require.NoError(t, err)

	_, err = workflow.Confirm(context.Background(), "bob", "mallory")
	assert.ErrorIs(t, err, shared.ErrUnauthorized)

	assert.Equal(t, StateRequested, req.State(), "unauthorized action leaves the request open")
	assert.True(t, manager.HasActive("bob"))
}

func TestRefuse_LeavesSessionUntouched(t *testing.T) {
	workflow, manager, _ := newTestWorkflow(t, 0)

	session, err := manager.Start(context.Background(), "bob", 60, ModeDeep)
	require.NoError(t, err)
	req, err := workflow.Request("admin", "bob")
	require.NoError(t, err)

	err = workflow.Refuse(context.Background(), "bob", "admin")
	require.NoError(t, err)
	assert.Equal(t, StateRefused, req.State())

	status, err := manager.Status("bob")
	require.NoError(t, err)
	assert.Equal(t, session.EndsAt, status.EndsAt, "refusal changes nothing about the session")
}

func TestRequest_TimesOutSilently(t *testing.T) {
	workflow, manager, clock := newTestWorkflow(t, 20*time.Millisecond)

	_, err := manager.Start(context.Background(), "carol", 10, ModeDeep)
	require.NoError(t, err)
	req, err := workflow.Request("admin", "carol")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return req.State() == StateTimedOut
	}, time.Second, 5*time.Millisecond)

	// The session is still active and later caught by the normal sweep.
	assert.True(t, manager.HasActive("carol"))

	clock.Advance(11 * time.Minute)
	owners := manager.ExpiredOwners()
	assert.Equal(t, []OwnerID{"carol"}, owners)
}

func TestConfirm_DegradesWhenSweeperWins(t *testing.T) {
	workflow, manager, clock := newTestWorkflow(t, 0)
	ctx := context.Background()

	_, err := manager.Start(ctx, "bob", 10, ModeDeep)
	require.NoError(t, err)
	_, err = workflow.Request("admin", "bob")
	require.NoError(t, err)

	// Natural expiry beats the admin to it.
	clock.Advance(11 * time.Minute)
	_, err = manager.TerminateNow(ctx, "bob", CauseExpired)
	require.NoError(t, err)

	_, err = workflow.Confirm(ctx, "bob", "admin")
	assert.ErrorIs(t, err, shared.ErrNoActiveSession, "graceful no-op, not a hard failure")
}

func TestConfirm_AdminCheckFailure(t *testing.T) {
	manager, _, clock := newTestManager()
	checker := &fakeAdminChecker{err: assert.AnError}
	workflow := NewApprovalWorkflow(manager, checker, 0, clock, nil)

	_, err := manager.Start(context.Background(), "bob", 60, ModeDeep)
	require.NoError(t, err)
	_, err = workflow.Request("admin", "bob")
	require.NoError(t, err)

	_, err = workflow.Confirm(context.Background(), "bob", "admin")
	assert.ErrorIs(t, err, shared.ErrCapability)
}
