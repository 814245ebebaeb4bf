package rules

import "github.com/yourusername/form-signals/internal/models"

// SlugConsecutiveDraws identifies ConsecutiveDraws.
const SlugConsecutiveDraws = "consecutive_draws"

// ConsecutiveDraws expects a team stuck on draws to break the run.
type ConsecutiveDraws struct {
	baseRule
	minDraws int
}

// NewConsecutiveDraws creates the rule with the given run length.
func NewConsecutiveDraws(minDraws int) *ConsecutiveDraws {
	return &ConsecutiveDraws{
		baseRule: baseRule{
			slug:        SlugConsecutiveDraws,
			name:        "Consecutive Draws",
			description: "Team drew its recent matches in a row; back a decisive result",
			semantic:    models.BetSemanticWinOrLose,
			kind:        models.KindHistoricalAnalysis,
		},
		minDraws: minDraws,
	}
}

// Confidence scores subject; the opponent is not used.
func (r *ConsecutiveDraws) Confidence(subject models.TeamForm, _ *models.TeamForm) float64 {
	if subject.ConsecutiveDraws < r.minDraws {
		return 0
	}
	return clamp(formLadder(baseConfidence, subject))
}
