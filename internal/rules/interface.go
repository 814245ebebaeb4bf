// Package rules holds the catalog of form-signal rules and their
// confidence scoring.
package rules

import (
	"github.com/yourusername/form-signals/internal/models"
)

// Rule describes a signal rule. The set of rules is closed: every Rule
// is also exactly one of HistoricalRule or LiveRule.
type Rule interface {
	Slug() string
	Name() string
	Description() string
	BetSemantic() models.BetSemantic
	Kind() models.OpportunityKind
	BaseConfidence() float64

	// Outcome settles a bet placed at position given the match result.
	// ok is false when the outcome cannot be decided.
	Outcome(result models.ResultType, position models.Position) (outcome models.Outcome, ok bool)

	sealed()
}

// HistoricalRule scores a team from its recent form before kickoff.
type HistoricalRule interface {
	Rule
	// Confidence returns a value in [0,1]; 0 means the team does not fit.
	// opponent may be nil.
	Confidence(subject models.TeamForm, opponent *models.TeamForm) float64
}

// LiveRule scores an in-play match.
type LiveRule interface {
	Rule
	Assess(match models.MatchSummary, home, away models.TeamForm) Assessment
}

// Assessment is the result of scoring a live match. Side is set only
// when Confidence is positive; Reason explains a zero score.
type Assessment struct {
	Confidence float64
	Side       models.Position
	Reason     string
}

// Thresholds configures the rule catalog.
type Thresholds struct {
	TopTeamRank              int `mapstructure:"top_team_rank" validate:"gt=0"`
	MinConsecutiveLosses     int `mapstructure:"min_consecutive_losses" validate:"gt=0"`
	MinConsecutiveDraws      int `mapstructure:"min_consecutive_draws" validate:"gt=0"`
	MinTop5ConsecutiveLosses int `mapstructure:"min_top5_consecutive_losses" validate:"gt=0"`
	LiveDrawMinuteThreshold  int `mapstructure:"live_draw_minute_threshold" validate:"gte=0,lte=120"`
}

// DefaultThresholds returns the stock rule thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		TopTeamRank:              8,
		MinConsecutiveLosses:     3,
		MinConsecutiveDraws:      3,
		MinTop5ConsecutiveLosses: 2,
		LiveDrawMinuteThreshold:  70,
	}
}

func (t Thresholds) withDefaults() Thresholds {
	d := DefaultThresholds()
	if t.TopTeamRank <= 0 {
		t.TopTeamRank = d.TopTeamRank
	}
	if t.MinConsecutiveLosses <= 0 {
		t.MinConsecutiveLosses = d.MinConsecutiveLosses
	}
	if t.MinConsecutiveDraws <= 0 {
		t.MinConsecutiveDraws = d.MinConsecutiveDraws
	}
	if t.MinTop5ConsecutiveLosses <= 0 {
		t.MinTop5ConsecutiveLosses = d.MinTop5ConsecutiveLosses
	}
	if t.LiveDrawMinuteThreshold <= 0 {
		t.LiveDrawMinuteThreshold = d.LiveDrawMinuteThreshold
	}
	return t
}
