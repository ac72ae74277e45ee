package focus

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/B-Eddie/WOSSIB/internal/domain/shared"
)

// DefaultRequestTimeout is how long a termination request stays open before
// silently timing out.
const DefaultRequestTimeout = 120 * time.Second

// RequestState is the state of a termination request. Every request ends in
// exactly one of Confirmed, Refused or TimedOut.
type RequestState string

const (
	StateRequested RequestState = "requested"
	StateConfirmed RequestState = "confirmed"
	StateRefused   RequestState = "refused"
	StateTimedOut  RequestState = "timed_out"
)

// AdminChecker is the external admin-capability check gating the confirm and
// refuse actions.
type AdminChecker interface {
	IsAdmin(ctx context.Context, caller OwnerID) (bool, error)
}

// TerminationRequest is a short-lived, non-persisted request to end another
// owner's session early. At most one is live per target at a time.
type TerminationRequest struct {
	ID          string
	Target      OwnerID
	RequestedBy OwnerID
	RequestedAt time.Time

	mu    sync.Mutex
	state RequestState
	timer *time.Timer
}

// State returns the request's current state.
func (r *TerminationRequest) State() RequestState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// resolve transitions the request out of Requested exactly once. The loser of
// a race between an admin action and the timeout sees false and must degrade
// to a no-op.
func (r *TerminationRequest) resolve(to RequestState) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateRequested {
		return false
	}
	r.state = to
	if r.timer != nil {
		r.timer.Stop()
	}
	return true
}

// ApprovalWorkflow runs the Requested -> {Confirmed, Refused, TimedOut} state
// machine for manual early termination. Confirm and Refuse are gated by the
// external admin check; the timeout resolves silently and leaves the target
// session active for the normal sweep.
//
// The target's session is never locked while a request is pending: if the
// sweeper expires it first, a later Confirm fails gracefully with
// ErrNoActiveSession.
type ApprovalWorkflow struct {
	manager *SessionManager
	admins  AdminChecker
	timeout time.Duration
	clock   Clock
	logger  *slog.Logger

	mu      sync.Mutex
	pending map[OwnerID]*TerminationRequest
}

// NewApprovalWorkflow creates the workflow. A non-positive timeout falls back
// to DefaultRequestTimeout.
func NewApprovalWorkflow(manager *SessionManager, admins AdminChecker, timeout time.Duration, clock Clock, logger *slog.Logger) *ApprovalWorkflow {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	if clock == nil {
		clock = RealClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ApprovalWorkflow{
		manager: manager,
		admins:  admins,
		timeout: timeout,
		clock:   clock,
		logger:  logger,
		pending: make(map[OwnerID]*TerminationRequest),
	}
}

// Request opens a termination request against the target's session. It fails
// with ErrNoActiveSession when the target has none and with ErrRequestPending
// when a request is already open for the target.
func (w *ApprovalWorkflow) Request(requestedBy, target OwnerID) (*TerminationRequest, error) {
	if !w.manager.HasActive(target) {
		return nil, shared.ErrNoActiveSession
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, exists := w.pending[target]; exists {
		return nil, shared.ErrRequestPending
	}

	req := &TerminationRequest{
		ID:          uuid.New().String(),
		Target:      target,
		RequestedBy: requestedBy,
		RequestedAt: w.clock.Now(),
		state:       StateRequested,
	}
	req.timer = time.AfterFunc(w.timeout, func() { w.expire(req) })
	w.pending[target] = req

	w.logger.Info("termination request opened",
		"request_id", req.ID,
		"target", target.String(),
		"requested_by", requestedBy.String(),
		"timeout", w.timeout.String(),
	)
	return req, nil
}

// Pending returns the live request for the target, if any.
func (w *ApprovalWorkflow) Pending(target OwnerID) (*TerminationRequest, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	req, ok := w.pending[target]
	return req, ok
}

// Confirm terminates the target's session on behalf of an admin caller and
// reports planned vs. actual duration. A non-admin caller gets
// ErrUnauthorized and the request stays Requested. If the session already
// expired naturally the request still resolves, and the caller gets
// ErrNoActiveSession rather than a hard failure.
func (w *ApprovalWorkflow) Confirm(ctx context.Context, target, caller OwnerID) (*TerminationReport, error) {
	req, err := w.gate(ctx, target, caller)
	if err != nil {
		return nil, err
	}

	if !req.resolve(StateConfirmed) {
		return nil, shared.ErrRequestResolved
	}
	w.remove(target, req)

	report, err := w.manager.TerminateNow(ctx, target, CauseManual)
	if err != nil {
		// The sweeper won the race; the request is resolved either way.
		w.logger.Info("confirm degraded to no-op, session already gone",
			"request_id", req.ID,
			"target", target.String(),
		)
		return nil, err
	}

	w.logger.Info("termination request confirmed",
		"request_id", req.ID,
		"target", target.String(),
		"confirmed_by", caller.String(),
	)
	return report, nil
}

// Refuse closes the request without touching the target's session.
func (w *ApprovalWorkflow) Refuse(ctx context.Context, target, caller OwnerID) error {
	req, err := w.gate(ctx, target, caller)
	if err != nil {
		return err
	}

	if !req.resolve(StateRefused) {
		return shared.ErrRequestResolved
	}
	w.remove(target, req)

	w.logger.Info("termination request refused",
		"request_id", req.ID,
		"target", target.String(),
		"refused_by", caller.String(),
	)
	return nil
}

// gate runs the external admin check and looks up the pending request.
// The check happens before any state is touched so an unauthorized action
// leaves the request Requested.
func (w *ApprovalWorkflow) gate(ctx context.Context, target, caller OwnerID) (*TerminationRequest, error) {
	isAdmin, err := w.admins.IsAdmin(ctx, caller)
	if err != nil {
		return nil, shared.WrapError("focus", "Resolve", shared.ErrCapability, "admin check failed", err)
	}
	if !isAdmin {
		return nil, shared.ErrUnauthorized
	}

	w.mu.Lock()
	req, ok := w.pending[target]
	w.mu.Unlock()
	if !ok {
		return nil, shared.ErrNoActiveSession
	}
	return req, nil
}

// expire resolves a request to TimedOut. Silent: the underlying session
// remains active and subject to normal expiry.
func (w *ApprovalWorkflow) expire(req *TerminationRequest) {
	if !req.resolve(StateTimedOut) {
		return
	}
	w.remove(req.Target, req)

	w.logger.Info("termination request timed out",
		"request_id", req.ID,
		"target", req.Target.String(),
	)
}

// remove deletes the request from the pending map if it is still the live one
// for its target.
func (w *ApprovalWorkflow) remove(target OwnerID, req *TerminationRequest) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if current, ok := w.pending[target]; ok && current == req {
		delete(w.pending, target)
	}
}
