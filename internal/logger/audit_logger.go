// Package logger provides audit logging.
package logger

import (
	"github.com/sirupsen/logrus"
)

// AuditLogger provides dedicated audit trail logging.
type AuditLogger struct {
	*logrus.Entry
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(baseLogger *logrus.Logger) *AuditLogger {
	return &AuditLogger{
		Entry: baseLogger.WithField("component", "audit"),
	}
}

// LogOpportunityCreated logs a newly stored opportunity.
func (al *AuditLogger) LogOpportunityCreated(opportunityID string, matchID int64, ruleSlug, subject string, confidence float64) {
	al.WithFields(logrus.Fields{
		"opportunity_id": opportunityID,
		"match_id":       matchID,
		"rule_slug":      ruleSlug,
		"subject":        subject,
		"confidence":     confidence,
	}).Info("Opportunity recorded")
}

// LogDuplicateIgnored logs a save that found an unresolved opportunity.
func (al *AuditLogger) LogDuplicateIgnored(opportunityID string, matchID int64, ruleSlug string, storedConfidence, offeredConfidence float64) {
	al.WithFields(logrus.Fields{
		"opportunity_id":     opportunityID,
		"match_id":           matchID,
		"rule_slug":          ruleSlug,
		"stored_confidence":  storedConfidence,
		"offered_confidence": offeredConfidence,
	}).Debug("Duplicate opportunity ignored")
}

// LogBackfill logs the result of an outcome backfill pass.
func (al *AuditLogger) LogBackfill(resolved, unresolved, skipped int) {
	al.WithFields(logrus.Fields{
		"resolved":   resolved,
		"unresolved": unresolved,
		"skipped":    skipped,
	}).Info("Outcome backfill completed")
}

// LogBackfillSkip logs an opportunity the backfill could not settle.
func (al *AuditLogger) LogBackfillSkip(err error) {
	al.WithError(err).Warn("Opportunity outcome could not be resolved")
}

// LogInvariantViolation logs a broken storage invariant.
func (al *AuditLogger) LogInvariantViolation(matchID int64, ruleSlug string, err error) {
	al.WithFields(logrus.Fields{
		"match_id":  matchID,
		"rule_slug": ruleSlug,
	}).WithError(err).Error("Opportunity invariant violated")
}
