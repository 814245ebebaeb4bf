package rules

import "github.com/yourusername/form-signals/internal/models"

// SlugTop5ConsecutiveLosses identifies Top5ConsecutiveLosses.
const SlugTop5ConsecutiveLosses = "top5_consecutive_losses"

// Top5ConsecutiveLosses backs a top-five team after a short losing run.
type Top5ConsecutiveLosses struct {
	baseRule
	minLosses int
}

// NewTop5ConsecutiveLosses creates the rule with the given run length.
func NewTop5ConsecutiveLosses(minLosses int) *Top5ConsecutiveLosses {
	return &Top5ConsecutiveLosses{
		baseRule: baseRule{
			slug:        SlugTop5ConsecutiveLosses,
			name:        "Top 5 Consecutive Losses",
			description: "Top five team lost its recent matches; back draw or win",
			semantic:    models.BetSemanticDrawOrWin,
			kind:        models.KindHistoricalAnalysis,
		},
		minLosses: minLosses,
	}
}

// Confidence scores subject; the opponent is not used.
func (r *Top5ConsecutiveLosses) Confidence(subject models.TeamForm, _ *models.TeamForm) float64 {
	if !subject.IsTop5Team || subject.ConsecutiveLosses < r.minLosses {
		return 0
	}
	return clamp(formLadder(baseConfidence, subject))
}
