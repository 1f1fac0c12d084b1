package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/crowdpledge/pkg/domain/pledge"
	"github.com/amirasaad/crowdpledge/pkg/session"
	"github.com/redis/go-redis/v9"
)

// RedisStore implements session.Store on Redis. Sessions are stored as JSON
// under prefix+id and expire with the key.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisStore creates a RedisStore from a redis URL such as
// redis://localhost:6379/0.
func NewRedisStore(url, prefix string, ttl time.Duration, logger *slog.Logger) (*RedisStore, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewRedisStoreWithClient(redis.NewClient(opt), prefix, ttl, logger), nil
}

// NewRedisStoreWithClient creates a RedisStore on an existing client.
func NewRedisStoreWithClient(client *redis.Client, prefix string, ttl time.Duration, logger *slog.Logger) *RedisStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl, logger: logger}
}

func (r *RedisStore) key(id string) string {
	return r.prefix + id
}

func (r *RedisStore) Get(ctx context.Context, id string) (*pledge.PaymentSession, error) {
	val, err := r.client.Get(ctx, r.key(id)).Result()
	if errors.Is(err, redis.Nil) {
		r.logger.Debug("Payment session miss", "session_id", id)
		return nil, session.ErrNotFound
	}
	if err != nil {
		r.logger.Error("Payment session get error", "session_id", id, "error", err)
		return nil, err
	}
	var s pledge.PaymentSession
	if err := json.Unmarshal([]byte(val), &s); err != nil {
		r.logger.Error("Payment session unmarshal error", "session_id", id, "error", err)
		return nil, err
	}
	return &s, nil
}

func (r *RedisStore) Save(ctx context.Context, s *pledge.PaymentSession) error {
	prepare(s, time.Now)
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key(s.ID), data, r.ttl).Err(); err != nil {
		r.logger.Error("Payment session set error", "session_id", s.ID, "error", err)
		return err
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, r.key(id)).Err()
}

// Ping checks connectivity to Redis.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (r *RedisStore) Close() error {
	return r.client.Close()
}

var _ session.Store = (*RedisStore)(nil)
