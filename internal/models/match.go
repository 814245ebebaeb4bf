package models

import "time"

// MatchStatus represents the lifecycle state of a match
type MatchStatus string

const (
	MatchStatusScheduled MatchStatus = "scheduled"
	MatchStatusLive      MatchStatus = "live"
	MatchStatusFinished  MatchStatus = "finished"
)

// ResultType is the settled result of a match.
type ResultType string

const (
	ResultIncomplete ResultType = "incomplete"
	ResultHomeWin    ResultType = "home_win"
	ResultAwayWin    ResultType = "away_win"
	ResultDraw       ResultType = "draw"
)

// Position is a side of a match an opportunity can back.
type Position string

const (
	PositionHome Position = "home"
	PositionAway Position = "away"
	PositionBoth Position = "both"
)

// MatchSummary is the read model of a fixture handed to the rule engine.
type MatchSummary struct {
	ID           int64       `db:"id" json:"id" validate:"required,gt=0"`
	LeagueID     int64       `db:"league_id" json:"league_id"`
	LeagueName   string      `db:"league_name" json:"league_name"`
	Country      string      `db:"country" json:"country"`
	Season       *int        `db:"season" json:"season,omitempty"`
	Round        *int        `db:"round" json:"round,omitempty"`
	Home         Team        `json:"home_team"`
	Away         Team        `json:"away_team"`
	HomeScore    *int        `db:"home_score" json:"home_score" validate:"omitempty,gte=0"`
	AwayScore    *int        `db:"away_score" json:"away_score" validate:"omitempty,gte=0"`
	Minute       *int        `db:"minute" json:"minute,omitempty" validate:"omitempty,gte=0"`
	RedCardsHome int         `db:"red_cards_home" json:"red_cards_home" validate:"gte=0"`
	RedCardsAway int         `db:"red_cards_away" json:"red_cards_away" validate:"gte=0"`
	Status       MatchStatus `db:"status" json:"status" validate:"required,oneof=scheduled live finished"`
	MatchDate    time.Time   `db:"match_date" json:"match_date" validate:"required"`
	UpdatedAt    time.Time   `db:"updated_at" json:"updated_at"`
}

// HasScore reports whether both scores are recorded.
func (m *MatchSummary) HasScore() bool {
	return m.HomeScore != nil && m.AwayScore != nil
}

// IsFinished reports whether the match is over with both scores known.
func (m *MatchSummary) IsFinished() bool {
	return m.Status == MatchStatusFinished && m.HasScore()
}

// IsLive reports whether the match is in play.
func (m *MatchSummary) IsLive() bool {
	return m.Status == MatchStatusLive
}

// IsLevel reports whether both scores are known and equal.
func (m *MatchSummary) IsLevel() bool {
	return m.HasScore() && *m.HomeScore == *m.AwayScore
}

// ResultType returns the settled result, or ResultIncomplete while the
// match is not finished.
func (m *MatchSummary) ResultType() ResultType {
	if !m.IsFinished() {
		return ResultIncomplete
	}
	switch {
	case *m.HomeScore > *m.AwayScore:
		return ResultHomeWin
	case *m.HomeScore < *m.AwayScore:
		return ResultAwayWin
	default:
		return ResultDraw
	}
}

// PositionOf maps an opportunity subject onto a side of this match.
func (m *MatchSummary) PositionOf(s Subject) (Position, bool) {
	if s == SubjectBoth {
		return PositionBoth, true
	}
	id, ok := s.TeamID()
	if !ok {
		return "", false
	}
	switch id {
	case m.Home.ID:
		return PositionHome, true
	case m.Away.ID:
		return PositionAway, true
	default:
		return "", false
	}
}

// TeamAt returns the team playing at the given side.
func (m *MatchSummary) TeamAt(p Position) (Team, bool) {
	switch p {
	case PositionHome:
		return m.Home, true
	case PositionAway:
		return m.Away, true
	default:
		return Team{}, false
	}
}
