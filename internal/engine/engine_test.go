package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/form-signals/internal/models"
	"github.com/yourusername/form-signals/internal/rules"
)

const (
	homeID int64 = 10
	awayID int64 = 20
)

func intPtr(v int) *int { return &v }

func testMatch(status models.MatchStatus, homeRank, awayRank *int) models.MatchSummary {
	return models.MatchSummary{
		ID:         1001,
		LeagueID:   39,
		LeagueName: "Premier League",
		Home:       models.Team{ID: homeID, Name: "Team A", Rank: homeRank},
		Away:       models.Team{ID: awayID, Name: "Team B", Rank: awayRank},
		Status:     status,
		MatchDate:  time.Date(2024, 6, 1, 15, 0, 0, 0, time.UTC),
	}
}

// results builds history for teamID, most recent first, from
// (scored, conceded) pairs.
func results(teamID int64, scores ...[2]int) []models.MatchRecord {
	base := time.Date(2024, 5, 25, 15, 0, 0, 0, time.UTC)
	out := make([]models.MatchRecord, 0, len(scores))
	for i, s := range scores {
		out = append(out, models.MatchRecord{
			ID:         int64(5000 + i),
			HomeTeamID: teamID,
			AwayTeamID: 999,
			HomeScore:  intPtr(s[0]),
			AwayScore:  intPtr(s[1]),
			Status:     models.MatchStatusFinished,
			MatchDate:  base.AddDate(0, 0, -7*i),
		})
	}
	return out
}

func TestEvaluator_PicksHigherConfidence(t *testing.T) {
	e := New(rules.DefaultThresholds())
	match := testMatch(models.MatchStatusScheduled, intPtr(3), intPtr(10))

	// Team A: L L L, no goals in the last two.
	homeHistory := results(homeID, [2]int{0, 1}, [2]int{0, 2}, [2]int{1, 2}, [2]int{2, 0})
	awayHistory := results(awayID, [2]int{1, 0}, [2]int{2, 2})
	home, away := e.Forms(match, homeHistory, awayHistory)

	rule, ok := e.Catalog().Get(rules.SlugTop5ConsecutiveLosses)
	require.True(t, ok)

	opp := (&Evaluator{}).Evaluate(match, home, away, rule.(rules.HistoricalRule))
	require.NotNil(t, opp)

	assert.Equal(t, models.TeamSubject(homeID), opp.Subject)
	assert.InDelta(t, 0.75, opp.Confidence, 1e-9)
	assert.Equal(t, models.OutcomeUnknown, opp.Outcome)
	assert.Equal(t, rules.SlugTop5ConsecutiveLosses, opp.RuleSlug)
	assert.Equal(t, true, opp.Details["home_team_fits"])
	assert.Equal(t, false, opp.Details["away_team_fits"])
	assert.Equal(t, 0.0, opp.Details["away_confidence"])
	assert.Equal(t, 3, opp.Details["home_consecutive_losses"])
	assert.Equal(t, 3, opp.Details["home_team_rank"])
	assert.Equal(t, "Team A", opp.Details["team_analyzed"])
}

func TestEvaluator_RankGapBonus(t *testing.T) {
	e := New(rules.DefaultThresholds())
	match := testMatch(models.MatchStatusScheduled, intPtr(3), intPtr(10))
	home, away := e.Forms(match,
		results(homeID, [2]int{0, 1}, [2]int{0, 2}, [2]int{1, 2}),
		results(awayID, [2]int{1, 0}),
	)

	rule, _ := e.Catalog().Get(rules.SlugConsecutiveLosses)
	opp := (&Evaluator{}).Evaluate(match, home, away, rule.(rules.HistoricalRule))

	require.NotNil(t, opp)
	assert.InDelta(t, 0.925, opp.Confidence, 1e-9)
}

func TestEvaluator_TieGoesHome(t *testing.T) {
	e := New(rules.DefaultThresholds())
	match := testMatch(models.MatchStatusScheduled, nil, nil)
	draws := [][2]int{{1, 1}, {0, 0}, {2, 2}}
	home, away := e.Forms(match, results(homeID, draws...), results(awayID, draws...))

	rule, _ := e.Catalog().Get(rules.SlugConsecutiveDraws)
	opp := (&Evaluator{}).Evaluate(match, home, away, rule.(rules.HistoricalRule))

	require.NotNil(t, opp)
	assert.Equal(t, models.TeamSubject(homeID), opp.Subject)
	assert.Equal(t, true, opp.Details["away_team_fits"])
}

func TestEvaluator_NeitherFits(t *testing.T) {
	e := New(rules.DefaultThresholds())
	match := testMatch(models.MatchStatusScheduled, intPtr(1), intPtr(2))
	home, away := e.Forms(match, nil, nil)

	for _, rule := range e.Catalog().Rules() {
		hr, ok := rule.(rules.HistoricalRule)
		if !ok {
			continue
		}
		assert.Nil(t, (&Evaluator{}).Evaluate(match, home, away, hr), rule.Slug())
	}
}

func TestLiveEvaluator_RedCard(t *testing.T) {
	e := New(rules.DefaultThresholds())
	match := testMatch(models.MatchStatusLive, intPtr(1), intPtr(2))
	match.HomeScore, match.AwayScore = intPtr(0), intPtr(0)
	match.Minute = intPtr(40)
	match.RedCardsHome = 1
	home, away := e.Forms(match, nil, nil)

	rule, _ := e.Catalog().Get(rules.SlugLiveRedCard)
	opp := (&LiveEvaluator{}).EvaluateLive(match, home, away, rule.(rules.LiveRule))

	require.NotNil(t, opp)
	assert.Equal(t, models.TeamSubject(awayID), opp.Subject)
	assert.InDelta(t, 0.6, opp.Confidence, 1e-9)
	assert.Equal(t, 40, opp.Details["minute"])
	assert.Equal(t, 1, opp.Details["red_cards_home"])

	match.RedCardsAway = 1
	assert.Nil(t, (&LiveEvaluator{}).EvaluateLive(match, home, away, rule.(rules.LiveRule)))
}

func TestEngine_AnalyzeMatch_Scheduled(t *testing.T) {
	e := New(rules.DefaultThresholds())
	match := testMatch(models.MatchStatusScheduled, intPtr(3), intPtr(10))
	match.RedCardsHome = 1

	opps, err := e.AnalyzeMatch(match,
		results(homeID, [2]int{0, 1}, [2]int{0, 2}, [2]int{1, 2}),
		results(awayID, [2]int{1, 0}),
	)
	require.NoError(t, err)

	slugs := make([]string, 0, len(opps))
	for _, o := range opps {
		slugs = append(slugs, o.RuleSlug)
		assert.Equal(t, models.TeamSubject(homeID), o.Subject)
	}
	assert.ElementsMatch(t, []string{rules.SlugConsecutiveLosses, rules.SlugTop5ConsecutiveLosses}, slugs)
}

func TestEngine_AnalyzeMatch_LiveRunsLiveRules(t *testing.T) {
	e := New(rules.DefaultThresholds())
	match := testMatch(models.MatchStatusLive, intPtr(2), intPtr(12))
	match.HomeScore, match.AwayScore = intPtr(1), intPtr(1)
	match.Minute = intPtr(78)
	match.RedCardsAway = 1

	opps, err := e.AnalyzeMatch(match, nil, nil)
	require.NoError(t, err)

	bySlug := make(map[string]models.Opportunity)
	for _, o := range opps {
		bySlug[o.RuleSlug] = o
	}
	require.Contains(t, bySlug, rules.SlugLiveRedCard)
	require.Contains(t, bySlug, rules.SlugLiveDrawTop5)
	assert.Equal(t, models.TeamSubject(homeID), bySlug[rules.SlugLiveRedCard].Subject)
	assert.Equal(t, models.TeamSubject(homeID), bySlug[rules.SlugLiveDrawTop5].Subject)
}

func TestEngine_AnalyzeMatch_FinishedIsSilent(t *testing.T) {
	e := New(rules.DefaultThresholds())
	match := testMatch(models.MatchStatusFinished, intPtr(3), intPtr(10))
	match.HomeScore, match.AwayScore = intPtr(2), intPtr(0)

	opps, err := e.AnalyzeMatch(match, results(homeID, [2]int{0, 1}, [2]int{0, 1}, [2]int{0, 1}), nil)
	require.NoError(t, err)
	assert.Empty(t, opps)
}

func TestEngine_ValidateMatch(t *testing.T) {
	e := New(rules.DefaultThresholds())

	tests := []struct {
		name   string
		mutate func(m *models.MatchSummary)
	}{
		{"missing id", func(m *models.MatchSummary) { m.ID = 0 }},
		{"same teams", func(m *models.MatchSummary) { m.Away.ID = m.Home.ID }},
		{"bad status", func(m *models.MatchSummary) { m.Status = "postponed" }},
		{"negative red cards", func(m *models.MatchSummary) { m.RedCardsHome = -1 }},
		{"finished without score", func(m *models.MatchSummary) { m.Status = models.MatchStatusFinished }},
		{"zero rank", func(m *models.MatchSummary) { m.Home.Rank = intPtr(0) }},
		{"missing team name", func(m *models.MatchSummary) { m.Away.Name = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := testMatch(models.MatchStatusScheduled, intPtr(1), intPtr(2))
			tt.mutate(&m)
			_, err := e.AnalyzeMatch(m, nil, nil)
			assert.ErrorIs(t, err, models.ErrMalformedInput)
		})
	}

	assert.NoError(t, e.ValidateMatch(testMatch(models.MatchStatusScheduled, nil, nil)))
}
