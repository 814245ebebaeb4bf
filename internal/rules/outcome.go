package rules

import "github.com/yourusername/form-signals/internal/models"

// ResolveOutcome settles a bet of the given semantic placed at position.
// Incomplete results, unknown positions and WIN bets on both teams are
// undecidable.
func ResolveOutcome(semantic models.BetSemantic, result models.ResultType, position models.Position) (models.Outcome, bool) {
	if result == models.ResultIncomplete {
		return "", false
	}

	draw := result == models.ResultDraw

	if position == models.PositionBoth {
		switch semantic {
		case models.BetSemanticDrawOrWin:
			return outcomeOf(draw), true
		case models.BetSemanticWinOrLose:
			return outcomeOf(!draw), true
		default:
			return "", false
		}
	}

	var won, lost bool
	switch position {
	case models.PositionHome:
		won, lost = result == models.ResultHomeWin, result == models.ResultAwayWin
	case models.PositionAway:
		won, lost = result == models.ResultAwayWin, result == models.ResultHomeWin
	default:
		return "", false
	}

	switch semantic {
	case models.BetSemanticDrawOrWin:
		return outcomeOf(won || draw), true
	case models.BetSemanticWinOrLose:
		return outcomeOf(won || lost), true
	case models.BetSemanticWin:
		return outcomeOf(won), true
	default:
		return "", false
	}
}

func outcomeOf(win bool) models.Outcome {
	if win {
		return models.OutcomeWin
	}
	return models.OutcomeLose
}
