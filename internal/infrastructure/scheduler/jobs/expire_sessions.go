// Package jobs contains the scheduled maintenance jobs for the WOSSIB bot.
package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/B-Eddie/WOSSIB/internal/domain/focus"
	"github.com/B-Eddie/WOSSIB/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// EXPIRE SESSIONS JOB
// ══════════════════════════════════════════════════════════════════════════════

// ExpiryNotifier delivers the "session over" message to an owner after a
// sweep. Delivery is best-effort; failures are logged and never block the
// sweep.
type ExpiryNotifier interface {
	NotifyExpired(ctx context.Context, report *focus.TerminationReport) error
}

// ExpireSessionsJob is the one-minute sweep line. Each run snapshots the
// owners whose sessions ran past their end time, finalizes each one, and
// messages the owner.
type ExpireSessionsJob struct {
	manager  *focus.SessionManager
	notifier ExpiryNotifier
	logger   *slog.Logger
}

// NewExpireSessionsJob creates the sweep job. notifier may be nil to
// disable owner messages.
func NewExpireSessionsJob(manager *focus.SessionManager, notifier ExpiryNotifier, logger *slog.Logger) *ExpireSessionsJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExpireSessionsJob{
		manager:  manager,
		notifier: notifier,
		logger:   logger,
	}
}

func (j *ExpireSessionsJob) Name() string { return "expire_sessions" }

func (j *ExpireSessionsJob) Description() string {
	return "Finalizes focus sessions that ran past their end time"
}

// Run sweeps expired sessions. Owners whose session was finalized between the
// snapshot and the terminate call are skipped without error, and a session
// restarted since the snapshot survives untouched.
func (j *ExpireSessionsJob) Run(ctx context.Context) error {
	expired := j.manager.ExpiredOwners()
	if len(expired) == 0 {
		return nil
	}

	swept := 0
	for _, owner := range expired {
		report, err := j.manager.TerminateNow(ctx, owner, focus.CauseExpired)
		if err != nil {
			// Someone else finalized it first. Fine either way.
			if errors.Is(err, shared.ErrNoActiveSession) {
				continue
			}
			j.logger.Error("session sweep failed", "owner", owner.String(), "error", err)
			continue
		}
		swept++

		j.logger.Info("focus session expired",
			"owner", owner.String(),
			"planned_minutes", report.PlannedMinutes,
			"actual_minutes", report.ActualMinutes,
		)

		if j.notifier != nil {
			if err := j.notifier.NotifyExpired(ctx, report); err != nil {
				j.logger.Warn("expiry notification failed", "owner", owner.String(), "error", err)
			}
		}
	}

	j.logger.Debug("sweep finished", "expired", len(expired), "swept", swept)
	return nil
}
