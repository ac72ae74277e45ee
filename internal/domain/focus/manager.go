package focus

import (
	"context"
	"log/slog"
	"time"

	"github.com/B-Eddie/WOSSIB/internal/domain/shared"
)

// Clock provides time information for the session lifecycle.
// This interface allows time to be mocked in tests.
type Clock interface {
	Now() time.Time
}

// RealClock provides actual system time.
type RealClock struct{}

// Now returns the current system time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// CapabilityGranter is the external collaborator that grants and revokes the
// restrictive capability held for a session's lifetime. Implemented by the
// platform client; the core never inspects the handle it returns.
type CapabilityGranter interface {
	// Grant obtains a capability handle for the owner. A failure here must
	// abort session creation with no partial state left behind.
	Grant(ctx context.Context, owner OwnerID, mode Mode) (CapabilityHandle, error)

	// Revoke returns the handle to the platform. Revocation is best-effort:
	// callers log failures but do not treat them as fatal.
	Revoke(ctx context.Context, owner OwnerID, handle CapabilityHandle) error
}

// TerminationCause records why a session was finalized.
type TerminationCause string

const (
	// CauseExpired marks natural expiry by the sweep.
	CauseExpired TerminationCause = "expired"
	// CauseManual marks a confirmed early-termination request.
	CauseManual TerminationCause = "manual"
)

// StatusReport describes an owner's active session.
type StatusReport struct {
	Owner            OwnerID
	Mode             Mode
	EndsAt           time.Time
	MinutesRemaining int
}

// TerminationReport describes a finalized session for notification purposes.
type TerminationReport struct {
	Owner          OwnerID
	Mode           Mode
	PlannedMinutes int
	ActualMinutes  int
	Cause          TerminationCause
}

// SessionManager exposes the public session operations: start, query, list
// and immediate termination. It enforces one session per owner and the
// duration cap, and coordinates the external capability grant.
type SessionManager struct {
	store   *SessionStore
	granter CapabilityGranter
	clock   Clock
	logger  *slog.Logger
}

// NewSessionManager creates a SessionManager backed by the given store and
// capability collaborator.
func NewSessionManager(store *SessionStore, granter CapabilityGranter, clock Clock, logger *slog.Logger) *SessionManager {
	if clock == nil {
		clock = RealClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionManager{
		store:   store,
		granter: granter,
		clock:   clock,
		logger:  logger,
	}
}

// Start validates and creates a session for the owner. Order matters:
// duration and conflict checks run before the external grant so a rejected
// call never touches the platform, and a failed grant aborts creation with
// no state left behind.
func (m *SessionManager) Start(ctx context.Context, owner OwnerID, durationMinutes int, mode Mode) (*Session, error) {
	if durationMinutes <= 0 || durationMinutes > MaxDurationMinutes {
		return nil, shared.ErrDurationExceeded
	}
	if _, exists := m.store.Get(owner); exists {
		return nil, shared.ErrAlreadyActive
	}

	handle, err := m.granter.Grant(ctx, owner, mode)
	if err != nil {
		return nil, shared.WrapError("focus", "Start", shared.ErrCapability, "capability grant failed", err)
	}

	session, err := NewSession(owner, durationMinutes, mode, handle, m.clock.Now())
	if err != nil {
		m.revokeQuietly(ctx, owner, handle)
		return nil, err
	}

	if err := m.store.Put(session); err != nil {
		// Lost a race with a concurrent Start for the same owner: hand the
		// capability back so no orphaned grant survives.
		m.revokeQuietly(ctx, owner, handle)
		return nil, err
	}

	m.logger.Info("focus session started",
		"owner", owner.String(),
		"mode", string(mode),
		"duration_minutes", durationMinutes,
		"ends_at", session.EndsAt.Format(time.RFC3339),
	)
	return session, nil
}

// Status reports the owner's session. A session whose end time has passed
// but has not been swept yet is never reported as active: the caller gets
// ErrSessionEnded as the "ended, pending cleanup" hint.
func (m *SessionManager) Status(owner OwnerID) (*StatusReport, error) {
	session, ok := m.store.Get(owner)
	if !ok {
		return nil, shared.ErrNoActiveSession
	}

	now := m.clock.Now()
	if session.Expired(now) {
		return nil, shared.ErrSessionEnded
	}

	return &StatusReport{
		Owner:            session.Owner,
		Mode:             session.Mode,
		EndsAt:           session.EndsAt,
		MinutesRemaining: session.MinutesRemaining(now),
	}, nil
}

// List returns the active sessions sorted by ascending minutes remaining,
// excluding any session already past its end time regardless of whether the
// sweep has caught it yet.
func (m *SessionManager) List() []StatusReport {
	now := m.clock.Now()
	active := m.store.Active(now)

	reports := make([]StatusReport, 0, len(active))
	for _, s := range active {
		reports = append(reports, StatusReport{
			Owner:            s.Owner,
			Mode:             s.Mode,
			EndsAt:           s.EndsAt,
			MinutesRemaining: s.MinutesRemaining(now),
		})
	}
	return reports
}

// HasActive reports whether the owner currently holds a session that has not
// yet reached its end time.
func (m *SessionManager) HasActive(owner OwnerID) bool {
	session, ok := m.store.Get(owner)
	return ok && !session.Expired(m.clock.Now())
}

// TerminateNow finalizes the owner's session. A manual (confirmed) termination
// removes the session unconditionally. An expiry-caused termination removes it
// only if it has actually ended by now, so a sweep working from a stale
// snapshot cannot kill a session the owner started after the snapshot was
// taken. The capability revoke is best-effort: a failure is logged, not
// returned.
func (m *SessionManager) TerminateNow(ctx context.Context, owner OwnerID, cause TerminationCause) (*TerminationReport, error) {
	var session *Session
	var ok bool
	if cause == CauseExpired {
		session, ok = m.store.RemoveIfEndedBy(owner, m.clock.Now())
	} else {
		session, ok = m.store.Remove(owner)
	}
	if !ok {
		return nil, shared.ErrNoActiveSession
	}

	m.revokeQuietly(ctx, owner, session.Capability)

	report := &TerminationReport{
		Owner:          session.Owner,
		Mode:           session.Mode,
		PlannedMinutes: session.DurationMinutes,
		ActualMinutes:  session.ElapsedMinutes(m.clock.Now()),
		Cause:          cause,
	}

	m.logger.Info("focus session terminated",
		"owner", owner.String(),
		"cause", string(cause),
		"planned_minutes", report.PlannedMinutes,
		"actual_minutes", report.ActualMinutes,
	)
	return report, nil
}

// ExpiredOwners snapshots owners whose sessions have ended, for the sweep.
func (m *SessionManager) ExpiredOwners() []OwnerID {
	return m.store.ExpiredOwners(m.clock.Now())
}

func (m *SessionManager) revokeQuietly(ctx context.Context, owner OwnerID, handle CapabilityHandle) {
	if err := m.granter.Revoke(ctx, owner, handle); err != nil {
		m.logger.Warn("capability revoke failed",
			"owner", owner.String(),
			"error", err,
		)
	}
}
