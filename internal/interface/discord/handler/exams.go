package handler

import (
	"context"
	"time"

	"github.com/B-Eddie/WOSSIB/internal/domain/exam"
	"github.com/B-Eddie/WOSSIB/internal/interface/discord/presenter"
	"github.com/B-Eddie/WOSSIB/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// EXAM COUNTDOWN COMMANDS
// ══════════════════════════════════════════════════════════════════════════════

// SetExamHandler handles /set-exam. Dates are read in the school timezone;
// an omitted time defaults to 09:00.
type SetExamHandler struct {
	Registry  *exam.Registry
	Presenter *presenter.Presenter
	Now       func() time.Time
}

func (h *SetExamHandler) Name() string { return "set-exam" }

func (h *SetExamHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *SetExamHandler) Handle(ctx context.Context, cmd Command) (*presenter.Reply, error) {
	name, err := cmd.Options.Require("name")
	if err != nil {
		return nil, err
	}
	date, err := cmd.Options.Require("date")
	if err != nil {
		return nil, err
	}
	clock := cmd.Options.String("time", "")

	at, err := exam.ParseDateTime(date, clock, timeutil.SchoolTZ)
	if err != nil {
		return nil, err
	}
	rec, err := h.Registry.Set(ctx, name, at, cmd.CallerID, h.now())
	if err != nil {
		return nil, err
	}
	return h.Presenter.ExamSet(rec), nil
}

// ShowCountdownHandler handles /show-countdown. Without a name it shows
// every scheduled exam, soonest first.
type ShowCountdownHandler struct {
	Registry  *exam.Registry
	Presenter *presenter.Presenter
	Now       func() time.Time
}

func (h *ShowCountdownHandler) Name() string { return "show-countdown" }

func (h *ShowCountdownHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *ShowCountdownHandler) Handle(_ context.Context, cmd Command) (*presenter.Reply, error) {
	if name := cmd.Options.String("name", ""); name != "" {
		countdown, err := h.Registry.CountdownFor(name, h.now())
		if err != nil {
			return nil, err
		}
		return h.Presenter.Countdown(countdown), nil
	}
	return h.Presenter.Countdowns(h.Registry.Countdowns(h.now())), nil
}

// RemoveExamHandler handles /remove-exam.
type RemoveExamHandler struct {
	Registry  *exam.Registry
	Presenter *presenter.Presenter
}

func (h *RemoveExamHandler) Name() string { return "remove-exam" }

func (h *RemoveExamHandler) Handle(ctx context.Context, cmd Command) (*presenter.Reply, error) {
	name, err := cmd.Options.Require("name")
	if err != nil {
		return nil, err
	}
	rec, err := h.Registry.Remove(ctx, name)
	if err != nil {
		return nil, err
	}
	return h.Presenter.ExamRemoved(rec), nil
}
