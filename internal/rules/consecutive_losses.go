package rules

import (
	"github.com/shopspring/decimal"

	"github.com/yourusername/form-signals/internal/models"
)

// SlugConsecutiveLosses identifies ConsecutiveLosses.
const SlugConsecutiveLosses = "consecutive_losses"

// ConsecutiveLosses backs a team on a losing run not to lose again.
type ConsecutiveLosses struct {
	baseRule
	minLosses int
}

// NewConsecutiveLosses creates the rule with the given run length.
func NewConsecutiveLosses(minLosses int) *ConsecutiveLosses {
	return &ConsecutiveLosses{
		baseRule: baseRule{
			slug:        SlugConsecutiveLosses,
			name:        "Consecutive Losses",
			description: "Team lost its recent matches in a row; back draw or win",
			semantic:    models.BetSemanticDrawOrWin,
			kind:        models.KindHistoricalAnalysis,
		},
		minLosses: minLosses,
	}
}

// Confidence scores subject. A better-ranked subject earns a further
// bonus per rank of gap to the opponent.
func (r *ConsecutiveLosses) Confidence(subject models.TeamForm, opponent *models.TeamForm) float64 {
	if subject.ConsecutiveLosses < r.minLosses {
		return 0
	}

	c := formLadder(baseConfidence, subject)

	if opponent != nil && subject.Rank() != nil && opponent.Rank() != nil {
		gap := *opponent.Rank() - *subject.Rank()
		if gap > 0 {
			c = c.Add(rankGapBonus.Mul(decimal.NewFromInt(int64(gap))))
		}
	}

	return clamp(c)
}
