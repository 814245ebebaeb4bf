package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/form-signals/internal/models"
	"github.com/yourusername/form-signals/internal/rules"
)

func intPtr(v int) *int { return &v }

func fixture(id int64, status models.MatchStatus, kickoff time.Time) *models.MatchSummary {
	season := 2024
	return &models.MatchSummary{
		ID:         id,
		LeagueID:   39,
		LeagueName: "Premier League",
		Country:    "England",
		Season:     &season,
		Home:       models.Team{ID: 10, Name: "Team A", Rank: intPtr(3)},
		Away:       models.Team{ID: 20, Name: "Team B", Rank: intPtr(10)},
		Status:     status,
		MatchDate:  kickoff,
	}
}

func finish(m *models.MatchSummary, home, away int) *models.MatchSummary {
	c := *m
	c.Status = models.MatchStatusFinished
	c.HomeScore, c.AwayScore = intPtr(home), intPtr(away)
	return &c
}

func newOpportunity(matchID int64, slug string, confidence float64, subject models.Subject) *models.Opportunity {
	return &models.Opportunity{
		MatchID:    matchID,
		RuleSlug:   slug,
		Confidence: confidence,
		Subject:    subject,
		Details:    models.Details{"home_confidence": confidence},
		Outcome:    models.OutcomeUnknown,
	}
}

// runRepositoryContract exercises behaviour every repository
// implementation must share.
func runRepositoryContract(t *testing.T, matches MatchRepository, opps OpportunityRepository) {
	ctx := context.Background()
	catalog := rules.NewCatalog(rules.DefaultThresholds())
	kickoff := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Second)

	upcoming := fixture(101, models.MatchStatusScheduled, kickoff)
	require.NoError(t, matches.Upsert(ctx, upcoming))

	t.Run("match round trip", func(t *testing.T) {
		got, err := matches.GetByID(ctx, 101)
		require.NoError(t, err)
		assert.Equal(t, int64(10), got.Home.ID)
		assert.Equal(t, "Team B", got.Away.Name)
		require.NotNil(t, got.Home.Rank)
		assert.Equal(t, 3, *got.Home.Rank)
		assert.Equal(t, models.MatchStatusScheduled, got.Status)

		_, err = matches.GetByID(ctx, 999)
		assert.ErrorIs(t, err, models.ErrNotFound)

		scheduled, err := matches.GetScheduled(ctx, kickoff.Add(-time.Hour), kickoff.Add(time.Hour))
		require.NoError(t, err)
		require.Len(t, scheduled, 1)
		assert.Equal(t, int64(101), scheduled[0].ID)
	})

	t.Run("recent finished history", func(t *testing.T) {
		for i, score := range [][2]int{{0, 1}, {1, 1}, {2, 0}} {
			past := fixture(int64(200+i), models.MatchStatusScheduled, kickoff.AddDate(0, 0, -7*(i+1)))
			require.NoError(t, matches.Upsert(ctx, finish(past, score[0], score[1])))
		}

		history, err := matches.GetRecentFinished(ctx, 10, kickoff, 2)
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, int64(200), history[0].ID)
		assert.Equal(t, int64(201), history[1].ID)
		assert.True(t, history[0].MatchDate.After(history[1].MatchDate))
	})

	var first *models.Opportunity

	t.Run("save is idempotent while unresolved", func(t *testing.T) {
		stored, created, err := opps.Save(ctx, newOpportunity(101, rules.SlugConsecutiveLosses, 0.75, models.TeamSubject(10)))
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, models.OutcomeUnknown, stored.Outcome)
		first = stored

		again, created, err := opps.Save(ctx, newOpportunity(101, rules.SlugConsecutiveLosses, 0.95, models.TeamSubject(20)))
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.ID, again.ID)
		assert.InDelta(t, 0.75, again.Confidence, 1e-9)
		assert.Equal(t, models.TeamSubject(10), again.Subject)

		pending, err := opps.GetPending(ctx, 101, rules.SlugConsecutiveLosses)
		require.NoError(t, err)
		assert.Equal(t, first.ID, pending.ID)
	})

	t.Run("concurrent saves keep one unresolved row", func(t *testing.T) {
		const workers = 16
		var wg sync.WaitGroup
		ids := make(chan models.Opportunity, workers)
		createdCount := make(chan bool, workers)

		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				stored, created, err := opps.Save(ctx, newOpportunity(101, rules.SlugConsecutiveDraws, 0.5+float64(i)/100, models.TeamSubject(10)))
				if !assert.NoError(t, err) {
					return
				}
				ids <- *stored
				createdCount <- created
			}(i)
		}
		wg.Wait()
		close(ids)
		close(createdCount)

		created := 0
		for c := range createdCount {
			if c {
				created++
			}
		}
		assert.Equal(t, 1, created)

		var seen *models.Opportunity
		for o := range ids {
			o := o
			if seen == nil {
				seen = &o
			}
			assert.Equal(t, seen.ID, o.ID)
		}
	})

	t.Run("rejects malformed opportunities", func(t *testing.T) {
		_, _, err := opps.Save(ctx, newOpportunity(101, "", 0.5, models.TeamSubject(10)))
		assert.ErrorIs(t, err, models.ErrMalformedInput)

		_, _, err = opps.Save(ctx, newOpportunity(101, rules.SlugLiveRedCard, 0, models.TeamSubject(10)))
		assert.ErrorIs(t, err, models.ErrMalformedInput)
	})

	t.Run("backfill waits for the final whistle", func(t *testing.T) {
		report, err := opps.BackfillOutcomes(ctx, catalog)
		require.NoError(t, err)
		assert.Equal(t, 0, report.Resolved)

		got, err := opps.GetByID(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, models.OutcomeUnknown, got.Outcome)

		active, err := opps.GetActive(ctx)
		require.NoError(t, err)
		assert.Len(t, active, 2)
	})

	t.Run("backfill resolves finished matches", func(t *testing.T) {
		_, _, err := opps.Save(ctx, newOpportunity(101, rules.SlugLiveRedCard, 0.6, models.SubjectBoth))
		require.NoError(t, err)
		_, _, err = opps.Save(ctx, newOpportunity(101, "retired_rule", 0.6, models.TeamSubject(10)))
		require.NoError(t, err)

		require.NoError(t, matches.Upsert(ctx, finish(upcoming, 2, 1)))

		report, err := opps.BackfillOutcomes(ctx, catalog)
		require.NoError(t, err)
		assert.Equal(t, 2, report.Resolved)
		assert.Equal(t, 1, report.Unresolved)
		require.Len(t, report.Skipped, 1)
		assert.ErrorIs(t, report.Skipped[0], models.ErrUnknownRule)

		losses, err := opps.GetByID(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, models.OutcomeWin, losses.Outcome)
		assert.NotNil(t, losses.ResolvedAt)

		draws, err := opps.GetPending(ctx, 101, rules.SlugConsecutiveDraws)
		assert.ErrorIs(t, err, models.ErrNotFound)
		assert.Nil(t, draws)

		both, err := opps.GetPending(ctx, 101, rules.SlugLiveRedCard)
		require.NoError(t, err)
		assert.Equal(t, models.OutcomeUnknown, both.Outcome)

		completed, err := opps.GetCompleted(ctx, 10)
		require.NoError(t, err)
		assert.Len(t, completed, 2)

		again, err := opps.BackfillOutcomes(ctx, catalog)
		require.NoError(t, err)
		assert.Equal(t, 0, again.Resolved)
	})

	t.Run("resolved pair accepts a new opportunity", func(t *testing.T) {
		stored, created, err := opps.Save(ctx, newOpportunity(101, rules.SlugConsecutiveLosses, 0.8, models.TeamSubject(10)))
		require.NoError(t, err)
		assert.True(t, created)
		assert.NotEqual(t, first.ID, stored.ID)
	})

	t.Run("statistics", func(t *testing.T) {
		stats, err := opps.Statistics(ctx, models.StatisticsFilter{})
		require.NoError(t, err)
		assert.Equal(t, 2, stats.Total)
		assert.Equal(t, 2, stats.Wins)
		assert.Equal(t, 0, stats.Losses)
		assert.InDelta(t, 100.0, stats.WinRate, 1e-9)
		assert.Equal(t, 3, stats.Pending)

		bySlug, err := opps.Statistics(ctx, models.StatisticsFilter{RuleSlug: rules.SlugConsecutiveDraws})
		require.NoError(t, err)
		assert.Equal(t, 1, bySlug.Total)
		assert.Equal(t, 0, bySlug.Pending)

		future := time.Now().UTC().Add(24 * time.Hour)
		none, err := opps.Statistics(ctx, models.StatisticsFilter{From: &future})
		require.NoError(t, err)
		assert.Equal(t, 0, none.Total)
		assert.Equal(t, 0.0, none.WinRate)
	})
}
