package models

import "time"

// Top5Rank is the fixed rank boundary for the top-five flag.
const Top5Rank = 5

// Team identifies a team and its current league rank, if known.
type Team struct {
	ID   int64  `db:"id" json:"id" validate:"required,gt=0"`
	Name string `db:"name" json:"name" validate:"required"`
	Rank *int   `db:"rank" json:"rank,omitempty" validate:"omitempty,gt=0"`
}

// HasRank reports whether the team has a league rank.
func (t Team) HasRank() bool {
	return t.Rank != nil
}

// MatchRecord is a finished match from a team's history.
type MatchRecord struct {
	ID         int64       `db:"id" json:"id"`
	HomeTeamID int64       `db:"home_team_id" json:"home_team_id"`
	AwayTeamID int64       `db:"away_team_id" json:"away_team_id"`
	HomeScore  *int        `db:"home_score" json:"home_score"`
	AwayScore  *int        `db:"away_score" json:"away_score"`
	Status     MatchStatus `db:"status" json:"status"`
	MatchDate  time.Time   `db:"match_date" json:"match_date"`
}

// HasScore reports whether both scores are recorded.
func (m MatchRecord) HasScore() bool {
	return m.HomeScore != nil && m.AwayScore != nil
}

// GoalsFor returns the goals scored and conceded by teamID. ok is false
// when the record has no score or the team did not play in it.
func (m MatchRecord) GoalsFor(teamID int64) (scored, conceded int, ok bool) {
	if !m.HasScore() {
		return 0, 0, false
	}
	switch teamID {
	case m.HomeTeamID:
		return *m.HomeScore, *m.AwayScore, true
	case m.AwayTeamID:
		return *m.AwayScore, *m.HomeScore, true
	default:
		return 0, 0, false
	}
}

// TeamForm is the derived form snapshot of a team over a window of its
// most recent finished matches. Streak counters are most-recent-first
// prefix lengths; rates cover the whole window.
type TeamForm struct {
	Team Team `json:"team"`

	ConsecutiveWins    int `json:"consecutive_wins"`
	ConsecutiveLosses  int `json:"consecutive_losses"`
	ConsecutiveDraws   int `json:"consecutive_draws"`
	ConsecutiveNoGoals int `json:"consecutive_no_goals"`
	ConsecutiveScored  int `json:"consecutive_scored"`

	TotalMatches  int `json:"total_matches"`
	Wins          int `json:"wins"`
	Draws         int `json:"draws"`
	Losses        int `json:"losses"`
	GoalsScored   int `json:"goals_scored"`
	GoalsConceded int `json:"goals_conceded"`

	WinRate  float64 `json:"win_rate"`
	DrawRate float64 `json:"draw_rate"`
	LossRate float64 `json:"loss_rate"`

	IsTopTeam  bool `json:"is_top_team"`
	IsTop5Team bool `json:"is_top5_team"`
}

// Rank returns the team's rank or nil when unranked.
func (f TeamForm) Rank() *int {
	return f.Team.Rank
}
