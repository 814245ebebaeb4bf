package logger

import (
	"github.com/sirupsen/logrus"
)

// SignalLogger provides dedicated logging for rule evaluation.
type SignalLogger struct {
	*logrus.Entry
}

// NewSignalLogger creates a new signal logger.
func NewSignalLogger(baseLogger *logrus.Logger) *SignalLogger {
	return &SignalLogger{
		Entry: baseLogger.WithField("component", "signals"),
	}
}

// LogMatchEvaluation logs the result of evaluating every rule on a match.
func (sl *SignalLogger) LogMatchEvaluation(matchID int64, status string, homeMatches, awayMatches, opportunities int, durationMs float64) {
	sl.WithFields(logrus.Fields{
		"match_id":               matchID,
		"match_status":           status,
		"home_history":           homeMatches,
		"away_history":           awayMatches,
		"opportunities_found":    opportunities,
		"evaluation_duration_ms": durationMs,
	}).Debug("Match evaluation completed")
}

// LogOpportunity logs an opportunity emitted by a rule.
func (sl *SignalLogger) LogOpportunity(matchID int64, ruleSlug, subject string, confidence float64, created bool) {
	sl.WithFields(logrus.Fields{
		"match_id":   matchID,
		"rule_slug":  ruleSlug,
		"subject":    subject,
		"confidence": confidence,
		"created":    created,
	}).Info("Opportunity emitted")
}

// LogMalformedMatch logs a match skipped because its data is unusable.
func (sl *SignalLogger) LogMalformedMatch(matchID int64, err error) {
	sl.WithFields(logrus.Fields{
		"match_id": matchID,
	}).WithError(err).Warn("Skipping malformed match")
}

// LogRunSummary logs the totals of one analysis run.
func (sl *SignalLogger) LogRunSummary(run string, evaluated, skipped, found, created int, durationMs float64) {
	sl.WithFields(logrus.Fields{
		"run":                   run,
		"matches_evaluated":     evaluated,
		"matches_skipped":       skipped,
		"opportunities_found":   found,
		"opportunities_created": created,
		"duration_ms":           durationMs,
	}).Info("Analysis run completed")
}
