package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/yourusername/form-signals/internal/models"
)

// DefaultStreamPrefix is the global stream; per-rule streams append
// ".<rule_slug>".
const DefaultStreamPrefix = "opportunities.detected"

// StreamPublisher publishes opportunities to Redis Streams
type StreamPublisher struct {
	client *redis.Client
	prefix string
	maxLen int64
}

// NewStreamPublisher creates a new stream publisher. maxLen caps each
// stream approximately; zero leaves streams unbounded.
func NewStreamPublisher(client *redis.Client, prefix string, maxLen int64) *StreamPublisher {
	if prefix == "" {
		prefix = DefaultStreamPrefix
	}
	return &StreamPublisher{client: client, prefix: prefix, maxLen: maxLen}
}

// RuleStream returns the stream key for a rule.
func (p *StreamPublisher) RuleStream(ruleSlug string) string {
	return fmt.Sprintf("%s.%s", p.prefix, ruleSlug)
}

// GlobalStream returns the stream key carrying every opportunity.
func (p *StreamPublisher) GlobalStream() string {
	return p.prefix
}

// Publish writes the opportunity to its rule stream and the global stream
func (p *StreamPublisher) Publish(ctx context.Context, opp models.Opportunity) error {
	payload, err := json.Marshal(NewMessage(opp))
	if err != nil {
		return fmt.Errorf("failed to marshal opportunity: %w", err)
	}

	for _, stream := range []string{p.RuleStream(opp.RuleSlug), p.GlobalStream()} {
		args := &redis.XAddArgs{
			Stream: stream,
			Values: map[string]interface{}{
				"opportunity": string(payload),
				"rule_slug":   opp.RuleSlug,
				"match_id":    opp.MatchID,
			},
		}
		if p.maxLen > 0 {
			args.MaxLen = p.maxLen
			args.Approx = true
		}
		if _, err := p.client.XAdd(ctx, args).Result(); err != nil {
			return fmt.Errorf("failed to publish to stream %s: %w", stream, err)
		}
	}

	return nil
}

// Name returns the publisher kind.
func (p *StreamPublisher) Name() string { return KindRedis }

// Close closes the Redis client.
func (p *StreamPublisher) Close() error {
	return p.client.Close()
}
