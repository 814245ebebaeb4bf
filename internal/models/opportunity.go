package models

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Outcome is the settlement state of an opportunity
type Outcome string

const (
	OutcomeUnknown Outcome = "unknown"
	OutcomeWin     Outcome = "win"
	OutcomeLose    Outcome = "lose"
)

// BetSemantic is the shape of the bet a rule recommends.
type BetSemantic string

const (
	BetSemanticWin       BetSemantic = "WIN"
	BetSemanticDrawOrWin BetSemantic = "DRAW_OR_WIN"
	BetSemanticWinOrLose BetSemantic = "WIN_OR_LOSE"
)

// OpportunityKind says which evaluation path produced an opportunity.
type OpportunityKind string

const (
	KindHistoricalAnalysis OpportunityKind = "historical_analysis"
	KindLiveOpportunity    OpportunityKind = "live_opportunity"
)

// Subject is the team an opportunity backs: a team ID rendered as text,
// or SubjectBoth.
type Subject string

// SubjectBoth backs neither team individually.
const SubjectBoth Subject = "both"

// TeamSubject returns the subject for a team ID.
func TeamSubject(teamID int64) Subject {
	return Subject(strconv.FormatInt(teamID, 10))
}

// TeamID returns the team ID of a single-team subject.
func (s Subject) TeamID() (int64, bool) {
	if s == SubjectBoth || s == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(string(s), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// Details is the diagnostic payload attached to an opportunity.
type Details map[string]any

// Opportunity is a persisted betting signal for one (match, rule) pair
type Opportunity struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	MatchID    int64      `db:"match_id" json:"match_id" validate:"required,gt=0"`
	RuleSlug   string     `db:"rule_slug" json:"rule_slug" validate:"required"`
	Confidence float64    `db:"confidence" json:"confidence" validate:"gt=0,lte=1"`
	Subject    Subject    `db:"subject" json:"subject" validate:"required"`
	Details    Details    `db:"details" json:"details"`
	Outcome    Outcome    `db:"outcome" json:"outcome" validate:"required,oneof=unknown win lose"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	ResolvedAt *time.Time `db:"resolved_at" json:"resolved_at,omitempty"`
}

// IsPending reports whether the opportunity awaits settlement.
func (o *Opportunity) IsPending() bool {
	return o.Outcome == OutcomeUnknown
}

// StatisticsFilter narrows the opportunities counted by statistics.
type StatisticsFilter struct {
	RuleSlug string
	From     *time.Time
	To       *time.Time
}

// Statistics aggregates resolved opportunities. Total counts wins and
// losses only; WinRate is a percentage with one decimal place.
type Statistics struct {
	Total   int     `json:"total"`
	Wins    int     `json:"wins"`
	Losses  int     `json:"losses"`
	WinRate float64 `json:"win_rate"`
	Pending int     `json:"pending"`
}
