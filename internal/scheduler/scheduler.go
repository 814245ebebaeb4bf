// Package scheduler runs the signal service on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/form-signals/internal/repository"
	"github.com/yourusername/form-signals/internal/service"
)

// Jobs is the work the scheduler triggers
type Jobs interface {
	RunScheduledAnalysis(ctx context.Context) (*service.RunSummary, error)
	RunLiveAnalysis(ctx context.Context) (*service.RunSummary, error)
	RunBackfill(ctx context.Context) (*repository.BackfillReport, error)
}

// Job timeouts
const (
	analysisTimeout = 10 * time.Minute
	liveTimeout     = 50 * time.Second
	backfillTimeout = 5 * time.Minute
)

// Scheduler manages the periodic analysis and backfill jobs
type Scheduler struct {
	cron            *cron.Cron
	jobs            Jobs
	logger          *logrus.Entry
	mu              sync.RWMutex
	isRunning       bool
	jobIDs          []cron.EntryID
	gracefulTimeout time.Duration
}

// NewScheduler creates a new scheduler. A job still running when its next
// tick arrives skips that tick.
func NewScheduler(jobs Jobs, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.Recover(cron.DiscardLogger), cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		jobs:            jobs,
		logger:          logger.WithField("component", "scheduler"),
		jobIDs:          make([]cron.EntryID, 0),
		gracefulTimeout: 30 * time.Second,
	}
}

// ScheduleAnalysis schedules evaluation of upcoming fixtures
func (s *Scheduler) ScheduleAnalysis(cronExpression string) error {
	return s.add("scheduled_analysis", cronExpression, func() {
		ctx, cancel := context.WithTimeout(context.Background(), analysisTimeout)
		defer cancel()

		if _, err := s.jobs.RunScheduledAnalysis(ctx); err != nil {
			s.logger.WithError(err).Error("Scheduled analysis failed")
		}
	})
}

// ScheduleLiveAnalysis schedules evaluation of in-play matches
func (s *Scheduler) ScheduleLiveAnalysis(cronExpression string) error {
	return s.add("live_analysis", cronExpression, func() {
		ctx, cancel := context.WithTimeout(context.Background(), liveTimeout)
		defer cancel()

		if _, err := s.jobs.RunLiveAnalysis(ctx); err != nil {
			s.logger.WithError(err).Error("Live analysis failed")
		}
	})
}

// ScheduleBackfill schedules outcome settlement
func (s *Scheduler) ScheduleBackfill(cronExpression string) error {
	return s.add("backfill", cronExpression, func() {
		ctx, cancel := context.WithTimeout(context.Background(), backfillTimeout)
		defer cancel()

		if _, err := s.jobs.RunBackfill(ctx); err != nil {
			s.logger.WithError(err).Error("Outcome backfill failed")
		}
	})
}

func (s *Scheduler) add(name, cronExpression string, jobFunc func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}

	entryID, err := s.cron.AddFunc(cronExpression, jobFunc)
	if err != nil {
		return fmt.Errorf("failed to add %s job: %w", name, err)
	}

	s.jobIDs = append(s.jobIDs, entryID)
	s.logger.WithFields(logrus.Fields{
		"job":      name,
		"schedule": cronExpression,
	}).Info("Job scheduled")

	return nil
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}

	if len(s.jobIDs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.WithField("jobs", len(s.jobIDs)).Info("Scheduler started")

	return nil
}

// Stop stops the scheduler and waits for running jobs up to the graceful
// timeout
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.gracefulTimeout)
	defer cancel()

	s.isRunning = false
	select {
	case <-s.cron.Stop().Done():
		s.logger.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop timed out after %s", s.gracefulTimeout)
	}
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRun returns the time of the next scheduled job run
func (s *Scheduler) GetNextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning || len(s.jobIDs) == 0 {
		return time.Time{}
	}

	nextRun := time.Time{}
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() {
			nextTime := entry.Next
			if nextRun.IsZero() || nextTime.Before(nextRun) {
				nextRun = nextTime
			}
		}
	}

	return nextRun
}

// Entries returns information about scheduled entries
func (s *Scheduler) Entries() []cron.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]cron.Entry, 0, len(s.jobIDs))
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() {
			entries = append(entries, entry)
		}
	}

	return entries
}
