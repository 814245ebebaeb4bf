package rules

import (
	"github.com/shopspring/decimal"

	"github.com/yourusername/form-signals/internal/models"
)

// SlugLiveDrawTop5 identifies LiveDrawTop5.
const SlugLiveDrawTop5 = "live_draw_top5"

var liveDrawTop5Confidence = decimal.RequireFromString("0.75")

// LiveDrawTop5 backs the lone top-five side of a match still level late on.
type LiveDrawTop5 struct {
	baseRule
	minMinute int
}

// NewLiveDrawTop5 creates the rule firing from minMinute onwards.
func NewLiveDrawTop5(minMinute int) *LiveDrawTop5 {
	return &LiveDrawTop5{
		baseRule: baseRule{
			slug:        SlugLiveDrawTop5,
			name:        "Live Draw Top 5",
			description: "Level match late on with one top five side; back that side to win",
			semantic:    models.BetSemanticWin,
			kind:        models.KindLiveOpportunity,
		},
		minMinute: minMinute,
	}
}

// Assess scores the match for the top-five side.
func (r *LiveDrawTop5) Assess(match models.MatchSummary, home, away models.TeamForm) Assessment {
	switch {
	case !match.IsLive():
		return Assessment{Reason: ReasonNotLive}
	case match.Minute == nil || *match.Minute < r.minMinute:
		return Assessment{Reason: ReasonBeforeMinute}
	case !match.HasScore():
		return Assessment{Reason: ReasonScoreMissing}
	case !match.IsLevel():
		return Assessment{Reason: ReasonScoreNotLevel}
	case home.IsTop5Team == away.IsTop5Team:
		return Assessment{Reason: ReasonNoSingleTop5}
	}

	side := models.PositionHome
	if away.IsTop5Team {
		side = models.PositionAway
	}
	return Assessment{Confidence: clamp(liveDrawTop5Confidence), Side: side}
}
