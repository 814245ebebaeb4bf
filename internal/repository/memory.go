package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/form-signals/internal/models"
)

// MemoryMatchRepository implements MatchRepository in process memory
type MemoryMatchRepository struct {
	mu      sync.RWMutex
	matches map[int64]models.MatchSummary
	now     func() time.Time
}

// NewMemoryMatchRepository creates an empty in-memory match repository
func NewMemoryMatchRepository() *MemoryMatchRepository {
	return &MemoryMatchRepository{
		matches: make(map[int64]models.MatchSummary),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Upsert stores a copy of the match, stamping UpdatedAt
func (r *MemoryMatchRepository) Upsert(_ context.Context, match *models.MatchSummary) error {
	if match == nil || match.ID <= 0 {
		return fmt.Errorf("%w: match without id", models.ErrMalformedInput)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	m := *match
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = r.now()
	}
	r.matches[m.ID] = m
	return nil
}

// GetByID retrieves a match by ID
func (r *MemoryMatchRepository) GetByID(_ context.Context, id int64) (*models.MatchSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.matches[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &m, nil
}

// GetScheduled retrieves scheduled matches kicking off within [from, to]
func (r *MemoryMatchRepository) GetScheduled(_ context.Context, from, to time.Time) ([]*models.MatchSummary, error) {
	return r.filter(func(m models.MatchSummary) bool {
		return m.Status == models.MatchStatusScheduled && !m.MatchDate.Before(from) && !m.MatchDate.After(to)
	}), nil
}

// GetLive retrieves live matches updated since the given time
func (r *MemoryMatchRepository) GetLive(_ context.Context, updatedSince time.Time) ([]*models.MatchSummary, error) {
	return r.filter(func(m models.MatchSummary) bool {
		return m.Status == models.MatchStatusLive && !m.UpdatedAt.Before(updatedSince)
	}), nil
}

// GetRecentFinished retrieves a team's latest finished matches before a time
func (r *MemoryMatchRepository) GetRecentFinished(_ context.Context, teamID int64, before time.Time, limit int) ([]models.MatchRecord, error) {
	played := r.filter(func(m models.MatchSummary) bool {
		return m.Status == models.MatchStatusFinished &&
			(m.Home.ID == teamID || m.Away.ID == teamID) &&
			m.MatchDate.Before(before)
	})
	sort.SliceStable(played, func(i, j int) bool {
		return played[i].MatchDate.After(played[j].MatchDate)
	})
	if limit > 0 && len(played) > limit {
		played = played[:limit]
	}

	records := make([]models.MatchRecord, 0, len(played))
	for _, m := range played {
		records = append(records, models.MatchRecord{
			ID:         m.ID,
			HomeTeamID: m.Home.ID,
			AwayTeamID: m.Away.ID,
			HomeScore:  m.HomeScore,
			AwayScore:  m.AwayScore,
			Status:     m.Status,
			MatchDate:  m.MatchDate,
		})
	}
	return records, nil
}

func (r *MemoryMatchRepository) filter(keep func(models.MatchSummary) bool) []*models.MatchSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*models.MatchSummary
	for _, m := range r.matches {
		if keep(m) {
			m := m
			out = append(out, &m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MatchDate.Equal(out[j].MatchDate) {
			return out[i].ID < out[j].ID
		}
		return out[i].MatchDate.Before(out[j].MatchDate)
	})
	return out
}

type pendingKey struct {
	matchID int64
	slug    string
}

// MemoryOpportunityRepository implements OpportunityRepository in process
// memory. A single mutex makes the check-then-insert in Save atomic.
type MemoryOpportunityRepository struct {
	mu      sync.Mutex
	matches MatchRepository
	byID    map[uuid.UUID]*models.Opportunity
	pending map[pendingKey]uuid.UUID
	order   []uuid.UUID
	now     func() time.Time
}

// NewMemoryOpportunityRepository creates an in-memory opportunity
// repository that reads match state from matches during backfill
func NewMemoryOpportunityRepository(matches MatchRepository) *MemoryOpportunityRepository {
	return &MemoryOpportunityRepository{
		matches: matches,
		byID:    make(map[uuid.UUID]*models.Opportunity),
		pending: make(map[pendingKey]uuid.UUID),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Save stores opp unless an unresolved one exists for the same match and rule
func (r *MemoryOpportunityRepository) Save(_ context.Context, opp *models.Opportunity) (*models.Opportunity, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	candidate, err := prepareForSave(opp, r.now())
	if err != nil {
		return nil, false, err
	}

	key := pendingKey{matchID: candidate.MatchID, slug: candidate.RuleSlug}
	if id, ok := r.pending[key]; ok {
		return cloneOpportunity(r.byID[id]), false, nil
	}

	r.byID[candidate.ID] = candidate
	r.pending[key] = candidate.ID
	r.order = append(r.order, candidate.ID)
	return cloneOpportunity(candidate), true, nil
}

// GetByID retrieves an opportunity by ID
func (r *MemoryOpportunityRepository) GetByID(_ context.Context, id uuid.UUID) (*models.Opportunity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	opp, ok := r.byID[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return cloneOpportunity(opp), nil
}

// GetPending retrieves the unresolved opportunity for a match and rule
func (r *MemoryOpportunityRepository) GetPending(_ context.Context, matchID int64, ruleSlug string) (*models.Opportunity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var found []*models.Opportunity
	for _, id := range r.order {
		opp := r.byID[id]
		if opp.MatchID == matchID && opp.RuleSlug == ruleSlug && opp.IsPending() {
			found = append(found, cloneOpportunity(opp))
		}
	}
	return singlePending(found, matchID, ruleSlug)
}

// GetActive retrieves unresolved opportunities on matches not yet finished
func (r *MemoryOpportunityRepository) GetActive(ctx context.Context) ([]*models.Opportunity, error) {
	r.mu.Lock()
	pending := r.collect(func(o *models.Opportunity) bool { return o.IsPending() })
	r.mu.Unlock()

	var active []*models.Opportunity
	for _, opp := range pending {
		match, err := r.matches.GetByID(ctx, opp.MatchID)
		if err != nil {
			return nil, fmt.Errorf("failed to load match %d: %w", opp.MatchID, err)
		}
		if match.Status != models.MatchStatusFinished {
			active = append(active, opp)
		}
	}
	return active, nil
}

// GetCompleted retrieves the most recently resolved opportunities
func (r *MemoryOpportunityRepository) GetCompleted(_ context.Context, limit int) ([]*models.Opportunity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	done := r.collect(func(o *models.Opportunity) bool { return !o.IsPending() })
	sort.SliceStable(done, func(i, j int) bool {
		return done[i].ResolvedAt.After(*done[j].ResolvedAt)
	})
	if limit > 0 && len(done) > limit {
		done = done[:limit]
	}
	return done, nil
}

// BackfillOutcomes settles unresolved opportunities whose match has
// finished with both scores recorded
func (r *MemoryOpportunityRepository) BackfillOutcomes(ctx context.Context, resolver OutcomeResolver) (*BackfillReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	report := &BackfillReport{}
	for _, id := range r.order {
		opp := r.byID[id]
		if !opp.IsPending() {
			continue
		}

		match, err := r.matches.GetByID(ctx, opp.MatchID)
		if err != nil {
			return nil, fmt.Errorf("failed to load match %d: %w", opp.MatchID, err)
		}
		if !match.IsFinished() {
			continue
		}

		outcome, ok, err := resolver.ResolveOutcome(opp.RuleSlug, *match, opp.Subject)
		if err != nil {
			report.Skipped = append(report.Skipped, fmt.Errorf("opportunity %s: %w", opp.ID, err))
			continue
		}
		if !ok {
			report.Unresolved++
			continue
		}

		resolvedAt := r.now()
		opp.Outcome = outcome
		opp.ResolvedAt = &resolvedAt
		delete(r.pending, pendingKey{matchID: opp.MatchID, slug: opp.RuleSlug})
		report.Resolved++
	}
	return report, nil
}

// Statistics aggregates resolved opportunities matching the filter
func (r *MemoryOpportunityRepository) Statistics(_ context.Context, filter models.StatisticsFilter) (*models.Statistics, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var wins, losses, pending int
	for _, id := range r.order {
		opp := r.byID[id]
		if filter.RuleSlug != "" && opp.RuleSlug != filter.RuleSlug {
			continue
		}
		if filter.From != nil && opp.CreatedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && opp.CreatedAt.After(*filter.To) {
			continue
		}
		switch opp.Outcome {
		case models.OutcomeWin:
			wins++
		case models.OutcomeLose:
			losses++
		default:
			pending++
		}
	}
	return newStatistics(wins, losses, pending), nil
}

// collect must be called with r.mu held.
func (r *MemoryOpportunityRepository) collect(keep func(*models.Opportunity) bool) []*models.Opportunity {
	var out []*models.Opportunity
	for _, id := range r.order {
		if opp := r.byID[id]; keep(opp) {
			out = append(out, cloneOpportunity(opp))
		}
	}
	return out
}

func cloneOpportunity(o *models.Opportunity) *models.Opportunity {
	c := *o
	c.Details = make(models.Details, len(o.Details))
	for k, v := range o.Details {
		c.Details[k] = v
	}
	if o.ResolvedAt != nil {
		t := *o.ResolvedAt
		c.ResolvedAt = &t
	}
	return &c
}
