// Package focus contains the focus-session lifecycle: time-boxed sessions
// per owner, an in-memory session store, the manager enforcing the
// one-session-per-owner and duration rules, and the admin-gated approval
// workflow for manual early termination.
package focus

import (
	"time"

	"github.com/B-Eddie/WOSSIB/internal/domain/shared"
)

// MaxDurationMinutes caps a focus session at 8 hours.
const MaxDurationMinutes = 480

// OwnerID identifies the platform user who owns a session.
type OwnerID string

// IsValid checks if the owner ID is non-empty.
func (o OwnerID) IsValid() bool {
	return o != ""
}

// String returns the string representation of OwnerID.
func (o OwnerID) String() string {
	return string(o)
}

// Mode is the declared focus mode for a session.
type Mode string

const (
	ModeDeep       Mode = "deep"
	ModeStudyGroup Mode = "study_group"
	ModeSubject    Mode = "subject"
)

// ParseMode normalizes a user-supplied mode tag. An empty tag defaults to
// deep focus; anything unrecognized is a validation error.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "":
		return ModeDeep, nil
	case ModeDeep, ModeStudyGroup, ModeSubject:
		return Mode(s), nil
	default:
		return "", shared.ErrInvalidMode
	}
}

// CapabilityHandle is the opaque revocable token obtained from the platform
// when a session starts (a restrictive role, in practice). The core never
// inspects it, only holds it for the session's lifetime and hands it back
// for revocation.
type CapabilityHandle string

// Session is one active focus session. At most one exists per owner at any
// time. Sessions are created by the manager's Start and destroyed by the
// expiry sweep or a confirmed termination request; they are never mutated
// in between.
type Session struct {
	Owner           OwnerID
	StartedAt       time.Time
	EndsAt          time.Time
	DurationMinutes int
	Mode            Mode
	Capability      CapabilityHandle
}

// NewSession validates the duration cap and builds a session ending
// duration minutes after now.
func NewSession(owner OwnerID, durationMinutes int, mode Mode, capability CapabilityHandle, now time.Time) (*Session, error) {
	if !owner.IsValid() {
		return nil, shared.NewDomainError("focus", "Start", shared.ErrValidation, "owner ID must not be empty")
	}
	if durationMinutes <= 0 || durationMinutes > MaxDurationMinutes {
		return nil, shared.ErrDurationExceeded
	}

	return &Session{
		Owner:           owner,
		StartedAt:       now,
		EndsAt:          now.Add(time.Duration(durationMinutes) * time.Minute),
		DurationMinutes: durationMinutes,
		Mode:            mode,
		Capability:      capability,
	}, nil
}

// Expired reports whether the session's end time has passed.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.EndsAt)
}

// MinutesRemaining returns whole minutes until the end time, never negative.
func (s *Session) MinutesRemaining(now time.Time) int {
	remaining := s.EndsAt.Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int(remaining / time.Minute)
}

// ElapsedMinutes returns whole minutes since the session started, rounded to
// the nearest minute for reporting.
func (s *Session) ElapsedMinutes(now time.Time) int {
	elapsed := now.Sub(s.StartedAt)
	if elapsed <= 0 {
		return 0
	}
	return int((elapsed + 30*time.Second) / time.Minute)
}
