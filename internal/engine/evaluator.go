// Package engine turns match snapshots and team history into
// opportunities using the rule catalog.
package engine

import (
	"github.com/yourusername/form-signals/internal/models"
	"github.com/yourusername/form-signals/internal/rules"
)

// Evaluator applies a historical rule to both teams of a match.
type Evaluator struct{}

// Evaluate scores home and away under rule and returns an opportunity
// for the higher-scoring team, or nil when neither team fits. Home wins
// ties.
func (e *Evaluator) Evaluate(match models.MatchSummary, home, away models.TeamForm, rule rules.HistoricalRule) *models.Opportunity {
	homeConfidence := rule.Confidence(home, &away)
	awayConfidence := rule.Confidence(away, &home)

	if homeConfidence <= 0 && awayConfidence <= 0 {
		return nil
	}

	subject, confidence := home, homeConfidence
	if awayConfidence > homeConfidence {
		subject, confidence = away, awayConfidence
	}

	details := models.Details{
		"rule_name":        rule.Name(),
		"bet_semantic":     string(rule.BetSemantic()),
		"kind":             string(rule.Kind()),
		"home_confidence":  homeConfidence,
		"away_confidence":  awayConfidence,
		"home_team_fits":   homeConfidence > 0,
		"away_team_fits":   awayConfidence > 0,
		"home_team_rank":   rankValue(home),
		"away_team_rank":   rankValue(away),
		"team_analyzed":    subject.Team.Name,
		"team_analyzed_id": subject.Team.ID,
	}
	addStreaks(details, "home", home)
	addStreaks(details, "away", away)

	return &models.Opportunity{
		MatchID:    match.ID,
		RuleSlug:   rule.Slug(),
		Confidence: confidence,
		Subject:    models.TeamSubject(subject.Team.ID),
		Details:    details,
		Outcome:    models.OutcomeUnknown,
	}
}

// LiveEvaluator applies a live rule to an in-play match.
type LiveEvaluator struct{}

// EvaluateLive returns an opportunity when rule assesses the match with
// positive confidence, otherwise nil.
func (e *LiveEvaluator) EvaluateLive(match models.MatchSummary, home, away models.TeamForm, rule rules.LiveRule) *models.Opportunity {
	assessment := rule.Assess(match, home, away)
	if assessment.Confidence <= 0 {
		return nil
	}

	backed, ok := match.TeamAt(assessment.Side)
	if !ok {
		return nil
	}

	details := models.Details{
		"rule_name":      rule.Name(),
		"bet_semantic":   string(rule.BetSemantic()),
		"kind":           string(rule.Kind()),
		"confidence":     assessment.Confidence,
		"backed_side":    string(assessment.Side),
		"team_analyzed":  backed.Name,
		"home_team_rank": rankValue(home),
		"away_team_rank": rankValue(away),
		"red_cards_home": match.RedCardsHome,
		"red_cards_away": match.RedCardsAway,
	}
	if match.Minute != nil {
		details["minute"] = *match.Minute
	}
	if match.HasScore() {
		details["home_score"] = *match.HomeScore
		details["away_score"] = *match.AwayScore
	}
	addStreaks(details, "home", home)
	addStreaks(details, "away", away)

	return &models.Opportunity{
		MatchID:    match.ID,
		RuleSlug:   rule.Slug(),
		Confidence: assessment.Confidence,
		Subject:    models.TeamSubject(backed.ID),
		Details:    details,
		Outcome:    models.OutcomeUnknown,
	}
}

func rankValue(f models.TeamForm) any {
	if f.Rank() == nil {
		return nil
	}
	return *f.Rank()
}

func addStreaks(details models.Details, prefix string, f models.TeamForm) {
	details[prefix+"_consecutive_wins"] = f.ConsecutiveWins
	details[prefix+"_consecutive_losses"] = f.ConsecutiveLosses
	details[prefix+"_consecutive_draws"] = f.ConsecutiveDraws
	details[prefix+"_consecutive_no_goals"] = f.ConsecutiveNoGoals
	details[prefix+"_matches_analyzed"] = f.TotalMatches
}
