package initializer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	infraeventbus "github.com/amirasaad/crowdpledge/infra/eventbus"
	infrasession "github.com/amirasaad/crowdpledge/infra/session"
	"github.com/amirasaad/crowdpledge/pkg/config"
	"github.com/amirasaad/crowdpledge/pkg/eventbus"
	"github.com/amirasaad/crowdpledge/pkg/session"
)

const pingTimeout = 3 * time.Second

// initEventBus publishes to Kafka when brokers are configured and keeps
// events in process otherwise.
func initEventBus(cfg *config.App, logger *slog.Logger) (eventbus.Bus, error) {
	if cfg.Kafka == nil || cfg.Kafka.Brokers == "" {
		logger.Info("Using in-memory event bus")
		return infraeventbus.NewWithMemory(logger), nil
	}
	bus, err := infraeventbus.NewWithKafka(cfg.Kafka.Brokers, logger, &infraeventbus.KafkaConfig{
		TopicPrefix:  cfg.Kafka.TopicPrefix,
		WriteTimeout: cfg.Kafka.WriteTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka event bus: %w", err)
	}
	logger.Info("Using Kafka event bus", "brokers", cfg.Kafka.Brokers, "topic_prefix", cfg.Kafka.TopicPrefix)
	return bus, nil
}

// initSessionStore keeps payment sessions in Redis when it is reachable and
// falls back to process memory otherwise.
func initSessionStore(cfg *config.App, logger *slog.Logger) (session.Store, error) {
	ttl := time.Hour
	if cfg.Pledge != nil && cfg.Pledge.SessionTTL > 0 {
		ttl = cfg.Pledge.SessionTTL
	}
	if cfg.Redis == nil || cfg.Redis.URL == "" {
		logger.Info("Using in-memory payment session store", "ttl", ttl)
		return infrasession.NewMemoryStore(ttl), nil
	}

	store, err := infrasession.NewRedisStore(cfg.Redis.URL, cfg.Redis.KeyPrefix, ttl, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis session store: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := store.Ping(ctx); err != nil {
		logger.Warn("Redis unreachable, falling back to in-memory session store", "error", err)
		_ = store.Close()
		return infrasession.NewMemoryStore(ttl), nil
	}
	logger.Info("Using Redis payment session store", "prefix", cfg.Redis.KeyPrefix, "ttl", ttl)
	return store, nil
}
