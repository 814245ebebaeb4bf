package rules

import (
	"github.com/shopspring/decimal"

	"github.com/yourusername/form-signals/internal/models"
)

// SlugLiveRedCard identifies LiveRedCard.
const SlugLiveRedCard = "live_red_card"

// Streak bonus caps for the team that still has eleven players.
const (
	redCardNoGoalsCap = 3
	redCardDrawsCap   = 2
	redCardLossesCap  = 2
)

// Reasons returned with a zero live assessment.
const (
	ReasonBothRedCards  = "both teams have red cards"
	ReasonNoRedCard     = "no red card shown"
	ReasonScoreNotLevel = "score is not level"
	ReasonScoreMissing  = "score unavailable"
	ReasonNotLive       = "match is not live"
	ReasonBeforeMinute  = "minute threshold not reached"
	ReasonNoSingleTop5  = "exactly one top five team required"
)

// LiveRedCard backs the full-strength side of a level match after a
// single red card.
type LiveRedCard struct {
	baseRule
}

// NewLiveRedCard creates the rule.
func NewLiveRedCard() *LiveRedCard {
	return &LiveRedCard{
		baseRule: baseRule{
			slug:        SlugLiveRedCard,
			name:        "Live Red Card",
			description: "One side is down to ten men in a level match; back the other side to win",
			semantic:    models.BetSemanticWin,
			kind:        models.KindLiveOpportunity,
		},
	}
}

// Assess scores the match for the side without a red card.
func (r *LiveRedCard) Assess(match models.MatchSummary, home, away models.TeamForm) Assessment {
	homeCarded := match.RedCardsHome > 0
	awayCarded := match.RedCardsAway > 0

	switch {
	case homeCarded && awayCarded:
		return Assessment{Reason: ReasonBothRedCards}
	case !homeCarded && !awayCarded:
		return Assessment{Reason: ReasonNoRedCard}
	case !match.HasScore():
		return Assessment{Reason: ReasonScoreMissing}
	case !match.IsLevel():
		return Assessment{Reason: ReasonScoreNotLevel}
	}

	side, backed, carded := models.PositionAway, away, home
	if awayCarded {
		side, backed, carded = models.PositionHome, home, away
	}

	c := baseConfidence
	if backed.Rank() != nil && carded.Rank() != nil && *backed.Rank() > *carded.Rank() {
		c = c.Add(rankEdgeBonus)
	}
	c = c.Add(streakStep(backed.ConsecutiveNoGoals, redCardNoGoalsCap))
	c = c.Add(streakStep(backed.ConsecutiveDraws, redCardDrawsCap))
	c = c.Add(streakStep(backed.ConsecutiveLosses, redCardLossesCap))

	return Assessment{Confidence: clamp(c), Side: side}
}

// streakStep is the live streak bonus: one step per match beyond the
// first, up to limit steps.
func streakStep(streak, limit int) decimal.Decimal {
	if streak < 2 {
		return decimal.Zero
	}
	steps := streak - 1
	if steps > limit {
		steps = limit
	}
	return streakBonus.Mul(decimal.NewFromInt(int64(steps)))
}
