// Package dedupe suppresses duplicate webhook deliveries. Providers retry
// on slow responses, so the same message id can arrive more than once.
package dedupe

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"realia_backend/platform/logger"
)

// Window is how long a message id is remembered.
const Window = 24 * time.Hour

// Store marks message ids as seen.
type Store struct {
	client *redis.Client
	log    *logger.Logger
}

// New creates the dedupe store from a Redis URL. Returns nil (disabled)
// when no URL is configured; a nil store treats every message as first-seen.
func New(redisURL string, log *logger.Logger) (*Store, error) {
	if redisURL == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &Store{client: redis.NewClient(opts), log: log}, nil
}

// NewWithClient wraps an existing client, for tests.
func NewWithClient(client *redis.Client, log *logger.Logger) *Store {
	return &Store{client: client, log: log}
}

// FirstSeen atomically records a message id and reports whether this was
// its first delivery. On Redis failure the message is treated as first-seen:
// a rare duplicate beats a dropped message.
func (s *Store) FirstSeen(ctx context.Context, messageID string) bool {
	if s == nil || messageID == "" {
		return true
	}
	ok, err := s.client.SetNX(ctx, "dedupe:"+messageID, 1, Window).Result()
	if err != nil {
		s.log.Warn("dedupe check failed", "message_id", messageID, "error", err)
		return true
	}
	return ok
}

// Close releases the Redis connection.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.client.Close()
}
