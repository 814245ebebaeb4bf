package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/yourusername/form-signals/internal/analysis"
	"github.com/yourusername/form-signals/internal/models"
	"github.com/yourusername/form-signals/internal/rules"
)

// Engine runs every catalog rule against a match. It holds no mutable
// state and is safe for concurrent use.
type Engine struct {
	catalog   *rules.Catalog
	analyzer  *analysis.Analyzer
	evaluator *Evaluator
	live      *LiveEvaluator
	validate  *validator.Validate
}

// New builds an engine and its rule catalog from thresholds.
func New(thresholds rules.Thresholds) *Engine {
	catalog := rules.NewCatalog(thresholds)
	return &Engine{
		catalog:   catalog,
		analyzer:  analysis.NewAnalyzer(catalog.Thresholds().TopTeamRank),
		evaluator: &Evaluator{},
		live:      &LiveEvaluator{},
		validate:  validator.New(),
	}
}

// Catalog returns the rule catalog.
func (e *Engine) Catalog() *rules.Catalog {
	return e.catalog
}

// Analyzer returns the form analyzer.
func (e *Engine) Analyzer() *analysis.Analyzer {
	return e.analyzer
}

// ValidateMatch checks that a match snapshot is usable by the engine.
func (e *Engine) ValidateMatch(match models.MatchSummary) error {
	if err := e.validate.Struct(match); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s failed on '%s'", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: match %d: %s", models.ErrMalformedInput, match.ID, strings.Join(fields, "; "))
		}
		return fmt.Errorf("%w: match %d: %v", models.ErrMalformedInput, match.ID, err)
	}
	if match.Home.ID == match.Away.ID {
		return fmt.Errorf("%w: match %d: home and away team are the same", models.ErrMalformedInput, match.ID)
	}
	if match.Status == models.MatchStatusFinished && !match.HasScore() {
		return fmt.Errorf("%w: match %d: finished without a score", models.ErrMalformedInput, match.ID)
	}
	return nil
}

// Forms derives both teams' form from their histories.
func (e *Engine) Forms(match models.MatchSummary, homeHistory, awayHistory []models.MatchRecord) (home, away models.TeamForm) {
	return e.analyzer.Analyze(match.Home, homeHistory), e.analyzer.Analyze(match.Away, awayHistory)
}

// AnalyzeMatch validates match, derives both forms and runs the rules
// that apply to its status: historical rules before the final whistle,
// live rules only while in play. Finished matches produce nothing.
func (e *Engine) AnalyzeMatch(match models.MatchSummary, homeHistory, awayHistory []models.MatchRecord) ([]models.Opportunity, error) {
	if err := e.ValidateMatch(match); err != nil {
		return nil, err
	}
	if match.Status == models.MatchStatusFinished {
		return nil, nil
	}

	home, away := e.Forms(match, homeHistory, awayHistory)

	var found []models.Opportunity
	for _, rule := range e.catalog.Rules() {
		opp, err := e.evaluate(match, home, away, rule)
		if err != nil {
			return nil, err
		}
		if opp != nil {
			found = append(found, *opp)
		}
	}
	return found, nil
}

func (e *Engine) evaluate(match models.MatchSummary, home, away models.TeamForm, rule rules.Rule) (*models.Opportunity, error) {
	switch r := rule.(type) {
	case rules.HistoricalRule:
		return e.evaluator.Evaluate(match, home, away, r), nil
	case rules.LiveRule:
		if !match.IsLive() {
			return nil, nil
		}
		return e.live.EvaluateLive(match, home, away, r), nil
	default:
		return nil, fmt.Errorf("rule %s: unsupported rule type %T", rule.Slug(), rule)
	}
}
