package scheduler

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	name string
	runs atomic.Int32
	err  error
}

func (j *countingJob) Name() string        { return j.name }
func (j *countingJob) Description() string { return "counting job" }

func (j *countingJob) Run(context.Context) error {
	j.runs.Add(1)
	return j.err
}

func newTestScheduler() *Scheduler {
	return NewScheduler(slog.New(slog.NewTextHandler(io.Discard, nil)), time.UTC)
}

func TestRegister_RejectsDuplicates(t *testing.T) {
	s := newTestScheduler()
	job := &countingJob{name: "a"}

	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Minute)))
	err := s.Register(job, NewIntervalSchedule(time.Minute))
	assert.ErrorIs(t, err, ErrJobAlreadyExists)
}

func TestRegister_RejectsNil(t *testing.T) {
	s := newTestScheduler()
	assert.ErrorIs(t, s.Register(nil, NewIntervalSchedule(time.Minute)), ErrNilJob)
	assert.ErrorIs(t, s.Register(&countingJob{name: "a"}, nil), ErrNilSchedule)
}

func TestStartStop(t *testing.T) {
	s := newTestScheduler()

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	assert.ErrorIs(t, s.Start(context.Background()), ErrSchedulerAlreadyRunning)

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	assert.ErrorIs(t, s.Stop(), ErrSchedulerNotRunning)
}

func TestRunNow(t *testing.T) {
	s := newTestScheduler()
	job := &countingJob{name: "sweep"}
	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Hour)))

	require.NoError(t, s.RunNow(context.Background(), "sweep"))
	assert.Equal(t, int32(1), job.runs.Load())

	assert.ErrorIs(t, s.RunNow(context.Background(), "missing"), ErrJobNotFound)
}

func TestListJobs(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.Register(&countingJob{name: "sweep"}, NewIntervalSchedule(time.Minute)))

	infos := s.ListJobs()
	require.Len(t, infos, 1)
	assert.Equal(t, "sweep", infos[0].Name)
	assert.Equal(t, "@every 1m0s", infos[0].Schedule)
	assert.False(t, infos[0].NextRun.IsZero())
}

func TestIntervalSchedule(t *testing.T) {
	sched := NewIntervalSchedule(time.Minute)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, base.Add(time.Minute), sched.Next(base))
}

func TestDailySchedule(t *testing.T) {
	sched := NewDailySchedule(0, 5, time.UTC)

	// Before today's firing time: fires later the same day.
	at := time.Date(2026, 3, 1, 0, 1, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 5, 0, 0, time.UTC), sched.Next(at))

	// Exactly at the firing time: strictly after, so the next day.
	at = time.Date(2026, 3, 1, 0, 5, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 5, 0, 0, time.UTC), sched.Next(at))

	// After: next day.
	at = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 5, 0, 0, time.UTC), sched.Next(at))
}
