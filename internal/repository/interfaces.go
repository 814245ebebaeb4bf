package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/form-signals/internal/models"
)

// MatchRepository defines the interface for fixture data access
type MatchRepository interface {
	Upsert(ctx context.Context, match *models.MatchSummary) error
	GetByID(ctx context.Context, id int64) (*models.MatchSummary, error)
	GetScheduled(ctx context.Context, from, to time.Time) ([]*models.MatchSummary, error)
	GetLive(ctx context.Context, updatedSince time.Time) ([]*models.MatchSummary, error)
	// GetRecentFinished returns up to limit finished matches of teamID
	// played before the given time, most recent first.
	GetRecentFinished(ctx context.Context, teamID int64, before time.Time, limit int) ([]models.MatchRecord, error)
}

// OpportunityRepository defines the interface for opportunity data access
type OpportunityRepository interface {
	// Save stores opp unless an unresolved opportunity for the same match
	// and rule exists, in which case the existing one is returned with
	// created set to false.
	Save(ctx context.Context, opp *models.Opportunity) (stored *models.Opportunity, created bool, err error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Opportunity, error)
	GetPending(ctx context.Context, matchID int64, ruleSlug string) (*models.Opportunity, error)
	// GetActive returns unresolved opportunities for matches not yet finished.
	GetActive(ctx context.Context) ([]*models.Opportunity, error)
	GetCompleted(ctx context.Context, limit int) ([]*models.Opportunity, error)
	// BackfillOutcomes settles unresolved opportunities of finished
	// matches. Records the resolver rejects are reported, not fatal.
	BackfillOutcomes(ctx context.Context, resolver OutcomeResolver) (*BackfillReport, error)
	Statistics(ctx context.Context, filter models.StatisticsFilter) (*models.Statistics, error)
}

// OutcomeResolver settles an opportunity created by a rule against the
// final state of its match.
type OutcomeResolver interface {
	ResolveOutcome(ruleSlug string, match models.MatchSummary, subject models.Subject) (models.Outcome, bool, error)
}

// BackfillReport summarises one backfill pass.
type BackfillReport struct {
	// Resolved counts opportunities moved to WIN or LOSE.
	Resolved int
	// Unresolved counts finished-match opportunities left UNKNOWN because
	// their outcome is undefined.
	Unresolved int
	// Skipped holds per-record resolver errors such as unknown rules.
	Skipped []error
}
