package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/B-Eddie/WOSSIB/internal/domain/exam"
)

// ══════════════════════════════════════════════════════════════════════════════
// PRUNE EXAMS JOB
// ══════════════════════════════════════════════════════════════════════════════

// PruneExamsJob is the daily maintenance line that drops exam records whose
// date-time has passed, from memory and from the durable mirror.
type PruneExamsJob struct {
	registry *exam.Registry
	now      func() time.Time
	logger   *slog.Logger
}

// NewPruneExamsJob creates the prune job. now may be nil for time.Now.
func NewPruneExamsJob(registry *exam.Registry, now func() time.Time, logger *slog.Logger) *PruneExamsJob {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PruneExamsJob{
		registry: registry,
		now:      now,
		logger:   logger,
	}
}

func (j *PruneExamsJob) Name() string { return "prune_exams" }

func (j *PruneExamsJob) Description() string {
	return "Removes exam countdowns whose date has passed"
}

func (j *PruneExamsJob) Run(ctx context.Context) error {
	removed := j.registry.PrunePast(ctx, j.now())
	if len(removed) > 0 {
		names := make([]string, len(removed))
		for i, rec := range removed {
			names[i] = rec.DisplayName
		}
		j.logger.Info("past exams pruned", "count", len(removed), "exams", names)
	}
	return nil
}
