package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/form-signals/internal/config"
	"github.com/yourusername/form-signals/internal/models"
)

func testOpportunity() models.Opportunity {
	return models.Opportunity{
		ID:         uuid.New(),
		MatchID:    42,
		RuleSlug:   "top5_consecutive_losses",
		Confidence: 0.75,
		Subject:    models.TeamSubject(10),
		Details: models.Details{
			"rule_name":    "Top 5 Consecutive Losses",
			"bet_semantic": string(models.BetSemanticWin),
		},
		Outcome:   models.OutcomeUnknown,
		CreatedAt: time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC),
	}
}

func TestNewMessage(t *testing.T) {
	opp := testOpportunity()
	msg := NewMessage(opp)

	assert.Equal(t, "Top 5 Consecutive Losses", msg.RuleName)
	assert.Equal(t, "WIN", msg.BetSemantic)
	assert.Equal(t, opp.ID, msg.Opportunity.ID)

	msg = NewMessage(models.Opportunity{RuleSlug: "x"})
	assert.Empty(t, msg.RuleName)
	assert.Empty(t, msg.BetSemantic)
}

func TestLogPublisher(t *testing.T) {
	log := logrus.New()
	buf := &bytes.Buffer{}
	log.SetOutput(buf)
	log.SetFormatter(&logrus.JSONFormatter{})

	p := NewLogPublisher(log)
	opp := testOpportunity()
	require.NoError(t, p.Publish(context.Background(), opp))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Opportunity published", entry["msg"])
	assert.Equal(t, "publisher", entry["component"])
	assert.Equal(t, opp.RuleSlug, entry["rule_slug"])
	assert.Equal(t, "10", entry["subject"])
	assert.Equal(t, KindLog, p.Name())
	assert.NoError(t, p.Close())
}

func TestNew(t *testing.T) {
	log := logrus.New()

	tests := []struct {
		name     string
		cfg      config.PublisherConfig
		wantName string
		wantErr  bool
	}{
		{name: "empty kind", cfg: config.PublisherConfig{}, wantName: KindNone},
		{name: "none", cfg: config.PublisherConfig{Kind: KindNone}, wantName: KindNone},
		{name: "log", cfg: config.PublisherConfig{Kind: KindLog}, wantName: KindLog},
		{name: "redis without client", cfg: config.PublisherConfig{Kind: KindRedis}, wantErr: true},
		{name: "webhook without url", cfg: config.PublisherConfig{Kind: KindWebhook}, wantErr: true},
		{
			name:     "webhook",
			cfg:      config.PublisherConfig{Kind: KindWebhook, WebhookURL: "http://localhost:9/hook", TimeoutSeconds: 2},
			wantName: KindWebhook,
		},
		{name: "websocket", cfg: config.PublisherConfig{Kind: KindWebSocket}, wantName: KindWebSocket},
		{name: "unknown", cfg: config.PublisherConfig{Kind: "kafka"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(tt.cfg, nil, log)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, p.Name())
			assert.NoError(t, p.Close())
		})
	}
}

func TestNew_UnknownKindIsSentinel(t *testing.T) {
	_, err := New(config.PublisherConfig{Kind: "sns"}, nil, logrus.New())
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestHTTPClientConfigFromPublisherConfig(t *testing.T) {
	hc := httpClientConfig(config.PublisherConfig{TimeoutSeconds: 3, MaxRetries: 1, RateLimit: 2})
	assert.Equal(t, 3*time.Second, hc.Timeout)
	assert.Equal(t, 1, hc.MaxRetries)
	assert.Equal(t, 2.0, hc.RateLimit)

	hc = httpClientConfig(config.PublisherConfig{})
	assert.Equal(t, DefaultHTTPClientConfig().Timeout, hc.Timeout)
}
