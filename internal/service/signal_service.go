// Package service runs the form-signal engine over stored fixtures.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/form-signals/internal/config"
	"github.com/yourusername/form-signals/internal/engine"
	"github.com/yourusername/form-signals/internal/logger"
	"github.com/yourusername/form-signals/internal/metrics"
	"github.com/yourusername/form-signals/internal/models"
	"github.com/yourusername/form-signals/internal/publisher"
	"github.com/yourusername/form-signals/internal/repository"
)

// Run names used in logs and metrics.
const (
	RunScheduled = "scheduled"
	RunLive      = "live"
	RunManual    = "manual"
)

// RunSummary totals one analysis run
type RunSummary struct {
	Run       string
	Evaluated int
	Skipped   int
	Found     int
	Created   int
	Duration  time.Duration
}

// SignalService loads fixtures and history, runs the engine and stores
// and publishes what it finds.
type SignalService struct {
	engine        *engine.Engine
	matches       repository.MatchRepository
	opportunities repository.OpportunityRepository
	publisher     publisher.Publisher
	history       *HistoryCache
	cfg           config.AnalysisConfig
	logger        *logrus.Logger
	signals       *logger.SignalLogger
	audit         *logger.AuditLogger
	now           func() time.Time
}

// NewSignalService creates a new signal service
func NewSignalService(
	eng *engine.Engine,
	repos *repository.Repositories,
	pub publisher.Publisher,
	cfg config.AnalysisConfig,
	log *logrus.Logger,
) *SignalService {
	if pub == nil {
		pub = publisher.NopPublisher{}
	}
	return &SignalService{
		engine:        eng,
		matches:       repos.Match,
		opportunities: repos.Opportunity,
		publisher:     pub,
		history:       NewHistoryCache(repos.Match, cfg.FormCacheTTL()),
		cfg:           cfg,
		logger:        log,
		signals:       logger.NewSignalLogger(log),
		audit:         logger.NewAuditLogger(log),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// RunScheduledAnalysis evaluates fixtures kicking off within the next
// days_ahead days.
func (s *SignalService) RunScheduledAnalysis(ctx context.Context) (*RunSummary, error) {
	now := s.now()
	matches, err := s.matches.GetScheduled(ctx, now, now.AddDate(0, 0, s.cfg.DaysAhead))
	if err != nil {
		return nil, fmt.Errorf("failed to get scheduled matches: %w", err)
	}
	return s.run(ctx, RunScheduled, matches)
}

// RunLiveAnalysis evaluates in-play matches updated within the live window.
func (s *SignalService) RunLiveAnalysis(ctx context.Context) (*RunSummary, error) {
	since := s.now().Add(-time.Duration(s.cfg.LiveWindowMinutes) * time.Minute)
	matches, err := s.matches.GetLive(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to get live matches: %w", err)
	}
	return s.run(ctx, RunLive, matches)
}

// AnalyzeMatchByID evaluates a single match and returns the stored
// opportunities, including pending ones saved by an earlier run.
func (s *SignalService) AnalyzeMatchByID(ctx context.Context, matchID int64) ([]*models.Opportunity, error) {
	match, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get match %d: %w", matchID, err)
	}

	stored, _, err := s.analyze(ctx, RunManual, *match)
	if err != nil {
		return nil, err
	}
	return stored, nil
}

// RunBackfill settles pending opportunities of finished matches and
// refreshes the opportunity gauges.
func (s *SignalService) RunBackfill(ctx context.Context) (*repository.BackfillReport, error) {
	start := time.Now()

	report, err := s.opportunities.BackfillOutcomes(ctx, s.engine.Catalog())
	if err != nil {
		if errors.Is(err, models.ErrInvariantViolation) {
			s.audit.LogInvariantViolation(0, "", err)
			metrics.RecordInvariantViolation()
		}
		return nil, fmt.Errorf("failed to backfill outcomes: %w", err)
	}

	for _, skip := range report.Skipped {
		s.audit.LogBackfillSkip(skip)
	}
	s.audit.LogBackfill(report.Resolved, report.Unresolved, len(report.Skipped))
	metrics.RecordOutcomesResolved(report.Resolved)

	if report.Resolved > 0 {
		s.history.Flush()
	}

	if err := s.refreshGauges(ctx); err != nil {
		s.logger.WithError(err).Warn("Failed to refresh opportunity gauges")
	}

	metrics.RecordRunDuration("backfill", time.Since(start).Seconds())
	return report, nil
}

// Statistics returns win/loss totals for opportunities matching filter.
func (s *SignalService) Statistics(ctx context.Context, filter models.StatisticsFilter) (*models.Statistics, error) {
	if filter.RuleSlug != "" {
		if _, ok := s.engine.Catalog().Get(filter.RuleSlug); !ok {
			return nil, fmt.Errorf("%w: %s", models.ErrUnknownRule, filter.RuleSlug)
		}
	}
	stats, err := s.opportunities.Statistics(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to compute statistics: %w", err)
	}
	return stats, nil
}

func (s *SignalService) run(ctx context.Context, run string, matches []*models.MatchSummary) (*RunSummary, error) {
	start := time.Now()
	summary := &RunSummary{Run: run}

	for _, match := range matches {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		stored, created, err := s.analyze(ctx, run, *match)
		switch {
		case errors.Is(err, models.ErrMalformedInput):
			summary.Skipped++
			continue
		case err != nil:
			summary.Duration = time.Since(start)
			return summary, err
		}

		summary.Evaluated++
		summary.Found += len(stored)
		summary.Created += created
	}

	summary.Duration = time.Since(start)
	s.signals.LogRunSummary(run, summary.Evaluated, summary.Skipped, summary.Found, summary.Created,
		float64(summary.Duration.Microseconds())/1000)
	metrics.RecordRunDuration(run, summary.Duration.Seconds())
	return summary, nil
}

// analyze evaluates one match, saves every opportunity and publishes the
// newly created ones. Malformed matches are logged and returned as
// ErrMalformedInput; invariant violations abort the caller.
func (s *SignalService) analyze(ctx context.Context, run string, match models.MatchSummary) ([]*models.Opportunity, int, error) {
	start := time.Now()

	if err := s.engine.ValidateMatch(match); err != nil {
		s.signals.LogMalformedMatch(match.ID, err)
		metrics.RecordMatchSkipped("malformed")
		return nil, 0, err
	}

	homeHistory, err := s.history.Recent(ctx, match.Home.ID, match.MatchDate, s.cfg.HistoryWindow)
	if err != nil {
		return nil, 0, err
	}
	awayHistory, err := s.history.Recent(ctx, match.Away.ID, match.MatchDate, s.cfg.HistoryWindow)
	if err != nil {
		return nil, 0, err
	}

	found, err := s.engine.AnalyzeMatch(match, homeHistory, awayHistory)
	if err != nil {
		return nil, 0, err
	}
	metrics.RecordMatchEvaluated(run)

	stored := make([]*models.Opportunity, 0, len(found))
	created := 0
	for i := range found {
		opp, isNew, err := s.save(ctx, &found[i])
		if err != nil {
			return nil, 0, err
		}
		stored = append(stored, opp)
		if isNew {
			created++
			s.publish(ctx, opp)
		}
	}

	s.signals.LogMatchEvaluation(match.ID, string(match.Status), len(homeHistory), len(awayHistory), len(found),
		float64(time.Since(start).Microseconds())/1000)
	return stored, created, nil
}

func (s *SignalService) save(ctx context.Context, opp *models.Opportunity) (*models.Opportunity, bool, error) {
	stored, created, err := s.opportunities.Save(ctx, opp)
	if err != nil {
		if errors.Is(err, models.ErrInvariantViolation) {
			s.audit.LogInvariantViolation(opp.MatchID, opp.RuleSlug, err)
			metrics.RecordInvariantViolation()
		}
		return nil, false, fmt.Errorf("failed to save opportunity for match %d rule %s: %w", opp.MatchID, opp.RuleSlug, err)
	}

	s.signals.LogOpportunity(stored.MatchID, stored.RuleSlug, string(stored.Subject), opp.Confidence, created)
	metrics.RecordOpportunity(stored.RuleSlug, opp.Confidence, created)
	if created {
		s.audit.LogOpportunityCreated(stored.ID.String(), stored.MatchID, stored.RuleSlug, string(stored.Subject), stored.Confidence)
	} else {
		s.audit.LogDuplicateIgnored(stored.ID.String(), stored.MatchID, stored.RuleSlug, stored.Confidence, opp.Confidence)
	}
	return stored, created, nil
}

// publish failures never fail the run; the opportunity is already stored.
func (s *SignalService) publish(ctx context.Context, opp *models.Opportunity) {
	if err := s.publisher.Publish(ctx, *opp); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"opportunity_id": opp.ID.String(),
			"publisher":      s.publisher.Name(),
		}).Warn("Failed to publish opportunity")
		metrics.RecordPublishFailure(s.publisher.Name())
	}
}

func (s *SignalService) refreshGauges(ctx context.Context) error {
	active, err := s.opportunities.GetActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to get active opportunities: %w", err)
	}
	metrics.UpdateActiveOpportunities(len(active))

	for _, rule := range s.engine.Catalog().Rules() {
		stats, err := s.opportunities.Statistics(ctx, models.StatisticsFilter{RuleSlug: rule.Slug()})
		if err != nil {
			return fmt.Errorf("failed to compute statistics for %s: %w", rule.Slug(), err)
		}
		metrics.UpdateRuleWinRate(rule.Slug(), stats.WinRate)
	}
	return nil
}
