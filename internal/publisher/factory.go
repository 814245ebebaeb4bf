package publisher

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/form-signals/internal/config"
)

// New builds the publisher selected by cfg.Kind. redisClient is only
// required for the redis kind.
func New(cfg config.PublisherConfig, redisClient *redis.Client, logger *logrus.Logger) (Publisher, error) {
	switch cfg.Kind {
	case KindNone, "":
		return NopPublisher{}, nil
	case KindLog:
		return NewLogPublisher(logger), nil
	case KindRedis:
		if redisClient == nil {
			return nil, fmt.Errorf("publisher %q requires a redis client", cfg.Kind)
		}
		return NewStreamPublisher(redisClient, cfg.StreamPrefix, cfg.StreamMaxLen), nil
	case KindWebhook:
		if cfg.WebhookURL == "" {
			return nil, fmt.Errorf("publisher %q requires a webhook url", cfg.Kind)
		}
		return NewWebhookPublisher(cfg.WebhookURL, cfg.WebhookToken, NewRateLimitedHTTPClient(httpClientConfig(cfg), logger)), nil
	case KindWebSocket:
		return NewBroadcastPublisher(cfg.AllowedOrigins, logger), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, cfg.Kind)
	}
}

func httpClientConfig(cfg config.PublisherConfig) HTTPClientConfig {
	hc := DefaultHTTPClientConfig()
	if cfg.TimeoutSeconds > 0 {
		hc.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	hc.MaxRetries = cfg.MaxRetries
	hc.RateLimit = cfg.RateLimit
	return hc
}
