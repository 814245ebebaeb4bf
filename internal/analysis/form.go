// Package analysis derives team form snapshots from recent results.
package analysis

import (
	"github.com/yourusername/form-signals/internal/models"
)

// DefaultTopTeamRank is the rank boundary for the top-team flag.
const DefaultTopTeamRank = 8

// Analyzer computes TeamForm snapshots. It holds no mutable state and is
// safe for concurrent use.
type Analyzer struct {
	topTeamRank int
}

// NewAnalyzer creates an analyzer using topTeamRank as the top-team
// boundary. Non-positive values fall back to DefaultTopTeamRank.
func NewAnalyzer(topTeamRank int) *Analyzer {
	if topTeamRank <= 0 {
		topTeamRank = DefaultTopTeamRank
	}
	return &Analyzer{topTeamRank: topTeamRank}
}

// TopTeamRank returns the configured top-team boundary.
func (a *Analyzer) TopTeamRank() int {
	return a.topTeamRank
}

type result int

const (
	resultUnknown result = iota
	resultWin
	resultDraw
	resultLoss
)

// Analyze builds the form of team from its recent finished matches,
// which must be ordered most recent first. Records the team did not play
// in are ignored. A record without a score counts toward TotalMatches and
// ends every streak.
func (a *Analyzer) Analyze(team models.Team, recent []models.MatchRecord) models.TeamForm {
	form := models.TeamForm{Team: team}
	if team.Rank != nil {
		form.IsTopTeam = *team.Rank <= a.topTeamRank
		form.IsTop5Team = *team.Rank <= models.Top5Rank
	}

	wins, losses, draws, noGoals, scoredRun := true, true, true, true, true
	for _, m := range recent {
		if m.HomeTeamID != team.ID && m.AwayTeamID != team.ID {
			continue
		}
		form.TotalMatches++

		scored, conceded, ok := m.GoalsFor(team.ID)
		res := resultUnknown
		if ok {
			form.GoalsScored += scored
			form.GoalsConceded += conceded
			switch {
			case scored > conceded:
				res = resultWin
				form.Wins++
			case scored < conceded:
				res = resultLoss
				form.Losses++
			default:
				res = resultDraw
				form.Draws++
			}
		}

		wins = extend(&form.ConsecutiveWins, wins, res == resultWin)
		losses = extend(&form.ConsecutiveLosses, losses, res == resultLoss)
		draws = extend(&form.ConsecutiveDraws, draws, res == resultDraw)
		noGoals = extend(&form.ConsecutiveNoGoals, noGoals, ok && scored == 0)
		scoredRun = extend(&form.ConsecutiveScored, scoredRun, ok && scored > 0)
	}

	if form.TotalMatches > 0 {
		total := float64(form.TotalMatches)
		form.WinRate = float64(form.Wins) / total
		form.DrawRate = float64(form.Draws) / total
		form.LossRate = float64(form.Losses) / total
	}

	return form
}

// extend grows a most-recent-first streak while it is still open and
// reports whether it stays open.
func extend(counter *int, open, matched bool) bool {
	if !open || !matched {
		return false
	}
	*counter++
	return true
}
