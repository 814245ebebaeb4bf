// Package publisher hands newly created opportunities to downstream
// consumers.
package publisher

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/form-signals/internal/models"
)

// Publisher kinds accepted by New.
const (
	KindNone      = "none"
	KindLog       = "log"
	KindRedis     = "redis"
	KindWebhook   = "webhook"
	KindWebSocket = "websocket"
)

// Publisher delivers an opportunity to a downstream channel.
type Publisher interface {
	Publish(ctx context.Context, opp models.Opportunity) error
	Name() string
	Close() error
}

// Message is the payload published for every opportunity.
type Message struct {
	Opportunity models.Opportunity `json:"opportunity"`
	RuleName    string             `json:"rule_name,omitempty"`
	BetSemantic string             `json:"bet_semantic,omitempty"`
}

// NewMessage builds the published payload from an opportunity.
func NewMessage(opp models.Opportunity) Message {
	msg := Message{Opportunity: opp}
	if v, ok := opp.Details["rule_name"].(string); ok {
		msg.RuleName = v
	}
	if v, ok := opp.Details["bet_semantic"].(string); ok {
		msg.BetSemantic = v
	}
	return msg
}

// NopPublisher discards everything.
type NopPublisher struct{}

// Publish does nothing.
func (NopPublisher) Publish(context.Context, models.Opportunity) error { return nil }

// Name returns the publisher kind.
func (NopPublisher) Name() string { return KindNone }

// Close does nothing.
func (NopPublisher) Close() error { return nil }

// LogPublisher writes opportunities to the structured log.
type LogPublisher struct {
	logger *logrus.Entry
}

// NewLogPublisher creates a log publisher.
func NewLogPublisher(logger *logrus.Logger) *LogPublisher {
	return &LogPublisher{logger: logger.WithField("component", "publisher")}
}

// Publish logs the opportunity.
func (p *LogPublisher) Publish(_ context.Context, opp models.Opportunity) error {
	msg := NewMessage(opp)
	p.logger.WithFields(logrus.Fields{
		"opportunity_id": opp.ID.String(),
		"match_id":       opp.MatchID,
		"rule_slug":      opp.RuleSlug,
		"rule_name":      msg.RuleName,
		"bet_semantic":   msg.BetSemantic,
		"subject":        string(opp.Subject),
		"confidence":     opp.Confidence,
	}).Info("Opportunity published")
	return nil
}

// Name returns the publisher kind.
func (p *LogPublisher) Name() string { return KindLog }

// Close does nothing.
func (p *LogPublisher) Close() error { return nil }

// ErrUnknownKind is returned by New for unsupported publisher kinds.
var ErrUnknownKind = errors.New("unknown publisher kind")
