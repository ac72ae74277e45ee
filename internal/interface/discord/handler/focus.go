package handler

import (
	"context"

	"github.com/B-Eddie/WOSSIB/internal/domain/focus"
	"github.com/B-Eddie/WOSSIB/internal/interface/discord/presenter"
)

// ══════════════════════════════════════════════════════════════════════════════
// FOCUS SESSION COMMANDS
// ══════════════════════════════════════════════════════════════════════════════

// StartSessionHandler handles /start-session.
type StartSessionHandler struct {
	Manager   *focus.SessionManager
	Presenter *presenter.Presenter
}

func (h *StartSessionHandler) Name() string { return "start-session" }

func (h *StartSessionHandler) Handle(ctx context.Context, cmd Command) (*presenter.Reply, error) {
	duration, err := cmd.Options.Int("duration")
	if err != nil {
		return nil, err
	}
	mode, err := focus.ParseMode(cmd.Options.String("mode", ""))
	if err != nil {
		return nil, err
	}

	session, err := h.Manager.Start(ctx, focus.OwnerID(cmd.CallerID), duration, mode)
	if err != nil {
		return nil, err
	}
	return h.Presenter.SessionStarted(session), nil
}

// SessionStatusHandler handles /session-status.
type SessionStatusHandler struct {
	Manager   *focus.SessionManager
	Presenter *presenter.Presenter
}

func (h *SessionStatusHandler) Name() string { return "session-status" }

func (h *SessionStatusHandler) Handle(_ context.Context, cmd Command) (*presenter.Reply, error) {
	report, err := h.Manager.Status(focus.OwnerID(cmd.CallerID))
	if err != nil {
		return nil, err
	}
	return h.Presenter.SessionStatus(report), nil
}

// ListSessionsHandler handles /list-sessions.
type ListSessionsHandler struct {
	Manager   *focus.SessionManager
	Presenter *presenter.Presenter
}

func (h *ListSessionsHandler) Name() string { return "list-sessions" }

func (h *ListSessionsHandler) Handle(_ context.Context, _ Command) (*presenter.Reply, error) {
	return h.Presenter.SessionList(h.Manager.List()), nil
}

// EndSessionRequestHandler handles /end-session-request.
type EndSessionRequestHandler struct {
	Workflow  *focus.ApprovalWorkflow
	Presenter *presenter.Presenter
}

func (h *EndSessionRequestHandler) Name() string { return "end-session-request" }

func (h *EndSessionRequestHandler) Handle(_ context.Context, cmd Command) (*presenter.Reply, error) {
	target, err := cmd.Options.Require("target")
	if err != nil {
		return nil, err
	}
	req, err := h.Workflow.Request(focus.OwnerID(cmd.CallerID), focus.OwnerID(target))
	if err != nil {
		return nil, err
	}
	return h.Presenter.TerminationRequested(req), nil
}

// ConfirmEndHandler handles /confirm-end (admin only, enforced by the
// workflow's gate).
type ConfirmEndHandler struct {
	Workflow  *focus.ApprovalWorkflow
	Presenter *presenter.Presenter
}

func (h *ConfirmEndHandler) Name() string { return "confirm-end" }

func (h *ConfirmEndHandler) Handle(ctx context.Context, cmd Command) (*presenter.Reply, error) {
	target, err := cmd.Options.Require("target")
	if err != nil {
		return nil, err
	}
	report, err := h.Workflow.Confirm(ctx, focus.OwnerID(target), focus.OwnerID(cmd.CallerID))
	if err != nil {
		return nil, err
	}
	return h.Presenter.TerminationConfirmed(report), nil
}

// RefuseEndHandler handles /refuse-end (admin only).
type RefuseEndHandler struct {
	Workflow  *focus.ApprovalWorkflow
	Presenter *presenter.Presenter
}

func (h *RefuseEndHandler) Name() string { return "refuse-end" }

func (h *RefuseEndHandler) Handle(ctx context.Context, cmd Command) (*presenter.Reply, error) {
	target, err := cmd.Options.Require("target")
	if err != nil {
		return nil, err
	}
	if err := h.Workflow.Refuse(ctx, focus.OwnerID(target), focus.OwnerID(cmd.CallerID)); err != nil {
		return nil, err
	}
	return h.Presenter.TerminationRefused(focus.OwnerID(target)), nil
}
