package rules

import (
	"fmt"

	"github.com/yourusername/form-signals/internal/models"
)

// Catalog is the fixed, ordered set of rules built from one Thresholds
// value. It is read-only after construction.
type Catalog struct {
	thresholds Thresholds
	rules      []Rule
	bySlug     map[string]Rule
}

// NewCatalog builds every rule. Zero thresholds take their defaults.
func NewCatalog(t Thresholds) *Catalog {
	t = t.withDefaults()
	all := []Rule{
		NewConsecutiveLosses(t.MinConsecutiveLosses),
		NewConsecutiveDraws(t.MinConsecutiveDraws),
		NewTop5ConsecutiveLosses(t.MinTop5ConsecutiveLosses),
		NewLiveRedCard(),
		NewLiveDrawTop5(t.LiveDrawMinuteThreshold),
	}

	bySlug := make(map[string]Rule, len(all))
	for _, r := range all {
		bySlug[r.Slug()] = r
	}

	return &Catalog{thresholds: t, rules: all, bySlug: bySlug}
}

// Thresholds returns the effective thresholds.
func (c *Catalog) Thresholds() Thresholds {
	return c.thresholds
}

// Rules returns all rules in evaluation order.
func (c *Catalog) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

// Get looks a rule up by slug.
func (c *Catalog) Get(slug string) (Rule, bool) {
	r, ok := c.bySlug[slug]
	return r, ok
}

// ResolveOutcome settles an opportunity created by the rule slug against
// a match. ok is false when the outcome is not yet decidable.
func (c *Catalog) ResolveOutcome(slug string, match models.MatchSummary, subject models.Subject) (models.Outcome, bool, error) {
	r, ok := c.Get(slug)
	if !ok {
		return "", false, fmt.Errorf("%w: %s", models.ErrUnknownRule, slug)
	}
	position, ok := match.PositionOf(subject)
	if !ok {
		return "", false, fmt.Errorf("%w: subject %q not in match %d", models.ErrMalformedInput, subject, match.ID)
	}
	outcome, ok := r.Outcome(match.ResultType(), position)
	return outcome, ok, nil
}
