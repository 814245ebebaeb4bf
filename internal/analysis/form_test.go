package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/yourusername/form-signals/internal/models"
)

const teamID int64 = 1

func intPtr(v int) *int { return &v }

// history builds records for teamID, most recent first, from
// (scored, conceded) pairs. Even indexes are home games.
func history(scores ...[2]int) []models.MatchRecord {
	base := time.Date(2024, 5, 1, 15, 0, 0, 0, time.UTC)
	records := make([]models.MatchRecord, 0, len(scores))
	for i, s := range scores {
		r := models.MatchRecord{
			ID:        int64(i + 100),
			Status:    models.MatchStatusFinished,
			MatchDate: base.AddDate(0, 0, -7*i),
		}
		if i%2 == 0 {
			r.HomeTeamID, r.AwayTeamID = teamID, 99
			r.HomeScore, r.AwayScore = intPtr(s[0]), intPtr(s[1])
		} else {
			r.HomeTeamID, r.AwayTeamID = 99, teamID
			r.HomeScore, r.AwayScore = intPtr(s[1]), intPtr(s[0])
		}
		records = append(records, r)
	}
	return records
}

func TestAnalyze_StreaksStopAtFirstBreak(t *testing.T) {
	a := NewAnalyzer(8)

	// L L L W D
	form := a.Analyze(models.Team{ID: teamID}, history(
		[2]int{0, 1}, [2]int{1, 2}, [2]int{0, 3}, [2]int{2, 0}, [2]int{1, 1},
	))

	assert.Equal(t, 3, form.ConsecutiveLosses)
	assert.Equal(t, 0, form.ConsecutiveWins)
	assert.Equal(t, 0, form.ConsecutiveDraws)
	assert.Equal(t, 1, form.ConsecutiveNoGoals)
	assert.Equal(t, 0, form.ConsecutiveScored)
	assert.Equal(t, 5, form.TotalMatches)
	assert.Equal(t, 1, form.Wins)
	assert.Equal(t, 1, form.Draws)
	assert.Equal(t, 3, form.Losses)
	assert.Equal(t, 4, form.GoalsScored)
	assert.Equal(t, 7, form.GoalsConceded)
	assert.InDelta(t, 0.6, form.LossRate, 1e-9)
	assert.InDelta(t, 0.2, form.WinRate, 1e-9)
	assert.InDelta(t, 0.2, form.DrawRate, 1e-9)
}

func TestAnalyze_DrawStreak(t *testing.T) {
	a := NewAnalyzer(8)

	form := a.Analyze(models.Team{ID: teamID}, history(
		[2]int{0, 0}, [2]int{1, 1}, [2]int{0, 0}, [2]int{0, 2},
	))

	assert.Equal(t, 3, form.ConsecutiveDraws)
	assert.Equal(t, 1, form.ConsecutiveNoGoals)
	assert.Equal(t, 0, form.ConsecutiveLosses)
}

func TestAnalyze_NoGoalsStreakAcrossResults(t *testing.T) {
	a := NewAnalyzer(8)

	form := a.Analyze(models.Team{ID: teamID}, history(
		[2]int{0, 0}, [2]int{0, 1}, [2]int{0, 0}, [2]int{1, 0},
	))

	assert.Equal(t, 3, form.ConsecutiveNoGoals)
	assert.Equal(t, 1, form.ConsecutiveDraws)
}

func TestAnalyze_EmptyHistory(t *testing.T) {
	a := NewAnalyzer(8)

	form := a.Analyze(models.Team{ID: teamID, Rank: intPtr(3)}, nil)

	assert.Equal(t, 0, form.TotalMatches)
	assert.Equal(t, 0, form.ConsecutiveLosses)
	assert.Equal(t, 0.0, form.WinRate)
	assert.Equal(t, 0.0, form.DrawRate)
	assert.Equal(t, 0.0, form.LossRate)
	assert.True(t, form.IsTopTeam)
	assert.True(t, form.IsTop5Team)
}

func TestAnalyze_RankFlags(t *testing.T) {
	tests := []struct {
		name    string
		rank    *int
		topRank int
		isTop   bool
		isTop5  bool
	}{
		{"unranked", nil, 8, false, false},
		{"rank 5", intPtr(5), 8, true, true},
		{"rank 6", intPtr(6), 8, true, false},
		{"rank 8", intPtr(8), 8, true, false},
		{"rank 9", intPtr(9), 8, false, false},
		{"custom boundary", intPtr(9), 10, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := NewAnalyzer(tt.topRank).Analyze(models.Team{ID: teamID, Rank: tt.rank}, nil)
			assert.Equal(t, tt.isTop, form.IsTopTeam)
			assert.Equal(t, tt.isTop5, form.IsTop5Team)
		})
	}
}

func TestAnalyze_StreakDependsOnlyOnPrefix(t *testing.T) {
	a := NewAnalyzer(8)
	prefix := history([2]int{0, 1}, [2]int{0, 1})

	withWin := append(append([]models.MatchRecord{}, prefix...), history([2]int{0, 1}, [2]int{0, 1}, [2]int{3, 0})[2])
	withLoss := append(append([]models.MatchRecord{}, prefix...), history([2]int{0, 1}, [2]int{0, 1}, [2]int{0, 3})[2])

	assert.Equal(t, 2, a.Analyze(models.Team{ID: teamID}, withWin).ConsecutiveLosses)
	assert.Equal(t, 3, a.Analyze(models.Team{ID: teamID}, withLoss).ConsecutiveLosses)
	assert.Equal(t, 2, a.Analyze(models.Team{ID: teamID}, prefix).ConsecutiveLosses)
}

func TestAnalyze_IgnoresForeignRecords(t *testing.T) {
	a := NewAnalyzer(8)
	records := history([2]int{0, 1}, [2]int{0, 1})
	records = append([]models.MatchRecord{{ID: 1, HomeTeamID: 50, AwayTeamID: 51, HomeScore: intPtr(2), AwayScore: intPtr(0)}}, records...)

	form := a.Analyze(models.Team{ID: teamID}, records)

	assert.Equal(t, 2, form.TotalMatches)
	assert.Equal(t, 2, form.ConsecutiveLosses)
}

func TestAnalyze_MissingScoreBreaksStreaks(t *testing.T) {
	a := NewAnalyzer(8)
	records := history([2]int{0, 1}, [2]int{0, 1}, [2]int{0, 1})
	records[1].HomeScore = nil

	form := a.Analyze(models.Team{ID: teamID}, records)

	assert.Equal(t, 1, form.ConsecutiveLosses)
	assert.Equal(t, 3, form.TotalMatches)
	assert.Equal(t, 2, form.Losses)
}

func TestNewAnalyzer_DefaultsTopTeamRank(t *testing.T) {
	assert.Equal(t, DefaultTopTeamRank, NewAnalyzer(0).TopTeamRank())
	assert.Equal(t, 6, NewAnalyzer(6).TopTeamRank())
}
