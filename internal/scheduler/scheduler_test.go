package scheduler

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/form-signals/internal/repository"
	"github.com/yourusername/form-signals/internal/service"
)

type countingJobs struct {
	scheduled atomic.Int32
	live      atomic.Int32
	backfill  atomic.Int32
	err       error
}

func (j *countingJobs) RunScheduledAnalysis(ctx context.Context) (*service.RunSummary, error) {
	j.scheduled.Add(1)
	return &service.RunSummary{Run: service.RunScheduled}, j.err
}

func (j *countingJobs) RunLiveAnalysis(ctx context.Context) (*service.RunSummary, error) {
	j.live.Add(1)
	return &service.RunSummary{Run: service.RunLive}, j.err
}

func (j *countingJobs) RunBackfill(ctx context.Context) (*repository.BackfillReport, error) {
	j.backfill.Add(1)
	return &repository.BackfillReport{}, j.err
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestScheduler_StartRequiresJobs(t *testing.T) {
	s := NewScheduler(&countingJobs{}, quietLogger())
	assert.Error(t, s.Start())
	assert.False(t, s.IsRunning())
}

func TestScheduler_InvalidCron(t *testing.T) {
	s := NewScheduler(&countingJobs{}, quietLogger())
	assert.Error(t, s.ScheduleAnalysis("not a cron"))
	assert.Empty(t, s.Entries())
}

func TestScheduler_Lifecycle(t *testing.T) {
	jobs := &countingJobs{}
	s := NewScheduler(jobs, quietLogger())

	require.NoError(t, s.ScheduleAnalysis("0 * * * *"))
	require.NoError(t, s.ScheduleLiveAnalysis("@every 1m"))
	require.NoError(t, s.ScheduleBackfill("*/15 * * * *"))
	assert.Len(t, s.Entries(), 3)
	assert.True(t, s.GetNextRun().IsZero())

	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())
	assert.Error(t, s.Start())
	assert.Error(t, s.ScheduleBackfill("@hourly"))
	assert.False(t, s.GetNextRun().IsZero())

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	assert.NoError(t, s.Stop())
}

func TestScheduler_JobsInvokeService(t *testing.T) {
	jobs := &countingJobs{err: errors.New("database down")}
	s := NewScheduler(jobs, quietLogger())

	require.NoError(t, s.ScheduleAnalysis("0 * * * *"))
	require.NoError(t, s.ScheduleLiveAnalysis("@every 1m"))
	require.NoError(t, s.ScheduleBackfill("*/15 * * * *"))

	// errors are logged, never propagated
	for _, entry := range s.Entries() {
		entry.Job.Run()
	}

	assert.Equal(t, int32(1), jobs.scheduled.Load())
	assert.Equal(t, int32(1), jobs.live.Load())
	assert.Equal(t, int32(1), jobs.backfill.Load())
}
