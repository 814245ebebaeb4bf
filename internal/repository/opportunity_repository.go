package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yourusername/form-signals/internal/database"
	"github.com/yourusername/form-signals/internal/models"
)

const opportunityColumns = `id, match_id, rule_slug, confidence, subject, details, outcome, created_at, resolved_at`

// maxSaveAttempts bounds retries when a conflicting row is resolved
// between the insert and the read-back.
const maxSaveAttempts = 3

// PostgresOpportunityRepository implements OpportunityRepository for PostgreSQL
type PostgresOpportunityRepository struct {
	db *database.DB
}

// NewPostgresOpportunityRepository creates a new opportunity repository
func NewPostgresOpportunityRepository(db *database.DB) OpportunityRepository {
	return &PostgresOpportunityRepository{db: db}
}

// Save inserts an unresolved opportunity. The partial unique index on
// (match_id, rule_slug) WHERE outcome = 'unknown' turns a concurrent or
// repeated save into a no-op, after which the existing row is returned.
func (r *PostgresOpportunityRepository) Save(ctx context.Context, opp *models.Opportunity) (*models.Opportunity, bool, error) {
	candidate, err := prepareForSave(opp, time.Now().UTC())
	if err != nil {
		return nil, false, err
	}

	query := `
		INSERT INTO betting_opportunities (` + opportunityColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (match_id, rule_slug) WHERE outcome = 'unknown' DO NOTHING
	`

	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		tag, err := r.db.GetPool().Exec(ctx, query,
			candidate.ID, candidate.MatchID, candidate.RuleSlug, candidate.Confidence, string(candidate.Subject),
			candidate.Details, string(candidate.Outcome), candidate.CreatedAt, candidate.ResolvedAt,
		)
		if err != nil {
			return nil, false, fmt.Errorf("failed to save opportunity: %w", err)
		}
		if tag.RowsAffected() == 1 {
			return candidate, true, nil
		}

		existing, err := r.GetPending(ctx, candidate.MatchID, candidate.RuleSlug)
		if errors.Is(err, models.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}

	return nil, false, fmt.Errorf("failed to save opportunity for match %d rule %s after %d attempts",
		candidate.MatchID, candidate.RuleSlug, maxSaveAttempts)
}

// GetByID retrieves an opportunity by ID
func (r *PostgresOpportunityRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Opportunity, error) {
	query := `SELECT ` + opportunityColumns + ` FROM betting_opportunities WHERE id = $1`

	opp, err := scanOpportunity(r.db.GetPool().QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get opportunity: %w", err)
	}

	return opp, nil
}

// GetPending retrieves the unresolved opportunity for a match and rule
func (r *PostgresOpportunityRepository) GetPending(ctx context.Context, matchID int64, ruleSlug string) (*models.Opportunity, error) {
	query := `
		SELECT ` + opportunityColumns + `
		FROM betting_opportunities
		WHERE match_id = $1 AND rule_slug = $2 AND outcome = 'unknown'
		ORDER BY created_at ASC
	`

	opps, err := r.query(ctx, query, matchID, ruleSlug)
	if err != nil {
		return nil, err
	}
	return singlePending(opps, matchID, ruleSlug)
}

// GetActive retrieves unresolved opportunities on matches not yet finished
func (r *PostgresOpportunityRepository) GetActive(ctx context.Context) ([]*models.Opportunity, error) {
	query := `
		SELECT o.id, o.match_id, o.rule_slug, o.confidence, o.subject, o.details, o.outcome, o.created_at, o.resolved_at
		FROM betting_opportunities o
		JOIN matches m ON m.id = o.match_id
		WHERE o.outcome = 'unknown' AND m.status <> 'finished'
		ORDER BY m.match_date ASC, o.created_at ASC
	`
	return r.query(ctx, query)
}

// GetCompleted retrieves the most recently resolved opportunities
func (r *PostgresOpportunityRepository) GetCompleted(ctx context.Context, limit int) ([]*models.Opportunity, error) {
	query := `
		SELECT ` + opportunityColumns + `
		FROM betting_opportunities
		WHERE outcome <> 'unknown'
		ORDER BY resolved_at DESC NULLS LAST, created_at DESC
		LIMIT $1
	`
	return r.query(ctx, query, limit)
}

// BackfillOutcomes settles unresolved opportunities whose match has
// finished with both scores recorded.
func (r *PostgresOpportunityRepository) BackfillOutcomes(ctx context.Context, resolver OutcomeResolver) (*BackfillReport, error) {
	query := `
		SELECT o.id, o.rule_slug, o.subject,
		       m.id, m.home_team_id, m.away_team_id, m.home_score, m.away_score, m.status
		FROM betting_opportunities o
		JOIN matches m ON m.id = o.match_id
		WHERE o.outcome = 'unknown'
		  AND m.status = 'finished'
		  AND m.home_score IS NOT NULL
		  AND m.away_score IS NOT NULL
		ORDER BY o.created_at ASC
	`

	type pending struct {
		id      uuid.UUID
		slug    string
		subject models.Subject
		match   models.MatchSummary
	}

	rows, err := r.db.GetPool().Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending opportunities: %w", err)
	}

	var candidates []pending
	for rows.Next() {
		var p pending
		var subject, status string
		if err := rows.Scan(
			&p.id, &p.slug, &subject,
			&p.match.ID, &p.match.Home.ID, &p.match.Away.ID, &p.match.HomeScore, &p.match.AwayScore, &status,
		); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan pending opportunity: %w", err)
		}
		p.subject = models.Subject(subject)
		p.match.Status = models.MatchStatus(status)
		candidates = append(candidates, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read pending opportunities: %w", err)
	}

	report := &BackfillReport{}
	err = r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		for _, p := range candidates {
			outcome, ok, err := resolver.ResolveOutcome(p.slug, p.match, p.subject)
			if err != nil {
				report.Skipped = append(report.Skipped, fmt.Errorf("opportunity %s: %w", p.id, err))
				continue
			}
			if !ok {
				report.Unresolved++
				continue
			}

			tag, err := tx.Exec(ctx, `
				UPDATE betting_opportunities
				SET outcome = $2, resolved_at = NOW()
				WHERE id = $1 AND outcome = 'unknown'
			`, p.id, string(outcome))
			if err != nil {
				return fmt.Errorf("failed to resolve opportunity %s: %w", p.id, err)
			}
			report.Resolved += int(tag.RowsAffected())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return report, nil
}

// Statistics aggregates resolved opportunities matching the filter
func (r *PostgresOpportunityRepository) Statistics(ctx context.Context, filter models.StatisticsFilter) (*models.Statistics, error) {
	var conditions []string
	var args []any

	if filter.RuleSlug != "" {
		args = append(args, filter.RuleSlug)
		conditions = append(conditions, fmt.Sprintf("rule_slug = $%d", len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	query := `
		SELECT COUNT(*) FILTER (WHERE outcome = 'win'),
		       COUNT(*) FILTER (WHERE outcome = 'lose'),
		       COUNT(*) FILTER (WHERE outcome = 'unknown')
		FROM betting_opportunities
	`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	var wins, losses, pending int
	if err := r.db.GetPool().QueryRow(ctx, query, args...).Scan(&wins, &losses, &pending); err != nil {
		return nil, fmt.Errorf("failed to compute statistics: %w", err)
	}

	return newStatistics(wins, losses, pending), nil
}

func (r *PostgresOpportunityRepository) query(ctx context.Context, query string, args ...any) ([]*models.Opportunity, error) {
	rows, err := r.db.GetPool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query opportunities: %w", err)
	}
	defer rows.Close()

	var opps []*models.Opportunity
	for rows.Next() {
		opp, err := scanOpportunity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan opportunity: %w", err)
		}
		opps = append(opps, opp)
	}

	return opps, rows.Err()
}

func scanOpportunity(row pgx.Row) (*models.Opportunity, error) {
	opp := &models.Opportunity{}
	var subject, outcome string
	err := row.Scan(
		&opp.ID, &opp.MatchID, &opp.RuleSlug, &opp.Confidence, &subject,
		&opp.Details, &outcome, &opp.CreatedAt, &opp.ResolvedAt,
	)
	if err != nil {
		return nil, err
	}
	opp.Subject = models.Subject(subject)
	opp.Outcome = models.Outcome(outcome)
	return opp, nil
}

// prepareForSave copies opp and fills defaults for a new pending row.
func prepareForSave(opp *models.Opportunity, now time.Time) (*models.Opportunity, error) {
	if opp == nil {
		return nil, fmt.Errorf("%w: nil opportunity", models.ErrMalformedInput)
	}
	if opp.MatchID <= 0 || opp.RuleSlug == "" || opp.Subject == "" {
		return nil, fmt.Errorf("%w: opportunity missing match, rule or subject", models.ErrMalformedInput)
	}
	if opp.Confidence <= 0 || opp.Confidence > 1 {
		return nil, fmt.Errorf("%w: confidence %v out of range", models.ErrMalformedInput, opp.Confidence)
	}
	if opp.Outcome != "" && opp.Outcome != models.OutcomeUnknown {
		return nil, fmt.Errorf("%w: new opportunities must be unresolved", models.ErrMalformedInput)
	}

	c := *opp
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.Outcome = models.OutcomeUnknown
	c.ResolvedAt = nil
	c.Details = make(models.Details, len(opp.Details))
	for k, v := range opp.Details {
		c.Details[k] = v
	}
	return &c, nil
}

func singlePending(opps []*models.Opportunity, matchID int64, ruleSlug string) (*models.Opportunity, error) {
	switch len(opps) {
	case 0:
		return nil, models.ErrNotFound
	case 1:
		return opps[0], nil
	default:
		return nil, fmt.Errorf("%w: %d unresolved opportunities for match %d rule %s",
			models.ErrInvariantViolation, len(opps), matchID, ruleSlug)
	}
}
