package rules

import (
	"github.com/shopspring/decimal"

	"github.com/yourusername/form-signals/internal/models"
)

var (
	baseConfidence = decimal.RequireFromString("0.5")
	top5Bonus      = decimal.RequireFromString("0.2")
	topTeamBonus   = decimal.RequireFromString("0.1")
	noGoalsBonus   = decimal.RequireFromString("0.05")
	rankGapBonus   = decimal.RequireFromString("0.025")
	rankEdgeBonus  = decimal.RequireFromString("0.1")
	streakBonus    = decimal.RequireFromString("0.05")

	noGoalsSteps = []int{2, 3, 4, 5}
)

// baseRule carries the descriptive fields shared by every rule.
type baseRule struct {
	slug        string
	name        string
	description string
	semantic    models.BetSemantic
	kind        models.OpportunityKind
}

func (b *baseRule) Slug() string { return b.slug }
func (b *baseRule) Name() string { return b.name }
func (b *baseRule) Description() string { return b.description }
func (b *baseRule) BetSemantic() models.BetSemantic { return b.semantic }
func (b *baseRule) Kind() models.OpportunityKind { return b.kind }
func (b *baseRule) BaseConfidence() float64 { return baseConfidence.InexactFloat64() }
func (b *baseRule) sealed() {}

// Outcome applies the settlement table for the rule's bet semantic.
func (b *baseRule) Outcome(result models.ResultType, position models.Position) (models.Outcome, bool) {
	return ResolveOutcome(b.semantic, result, position)
}

// formLadder applies the shared bonus ladder to base: the rank bonus
// (top five beats top team) plus one step per no-goals threshold reached.
func formLadder(base decimal.Decimal, form models.TeamForm) decimal.Decimal {
	c := base
	switch {
	case form.IsTop5Team:
		c = c.Add(top5Bonus)
	case form.IsTopTeam:
		c = c.Add(topTeamBonus)
	}
	for _, step := range noGoalsSteps {
		if form.ConsecutiveNoGoals >= step {
			c = c.Add(noGoalsBonus)
		}
	}
	return c
}

// clamp bounds c to [0,1].
func clamp(c decimal.Decimal) float64 {
	if c.GreaterThan(decimal.NewFromInt(1)) {
		return 1
	}
	if c.IsNegative() {
		return 0
	}
	return c.InexactFloat64()
}
