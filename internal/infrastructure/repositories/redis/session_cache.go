package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"streamie/internal/core/domain"
	"streamie/internal/core/ports"
	"streamie/pkg/circuitbreaker"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// bump the version when the cached JSON shape changes
const sessionListKey = "streamie:v1:sessions:list"

// SessionCache stores the session listing as one JSON value so every instance
// sees the same invalidation. Reads and writes go through a circuit breaker;
// while it is open the cache behaves as empty.
type SessionCache struct {
	client  *redis.Client
	ttl     time.Duration
	breaker *circuitbreaker.CircuitBreaker
	logger  *zap.SugaredLogger
}

var _ ports.SessionCache = (*SessionCache)(nil)

// NewSessionCache builds the cache. A nil breaker gets circuitbreaker.DefaultConfig.
func NewSessionCache(client *redis.Client, ttl time.Duration, breaker *circuitbreaker.CircuitBreaker, logger *zap.SugaredLogger) *SessionCache {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if breaker == nil {
		breaker = circuitbreaker.New(circuitbreaker.DefaultConfig())
	}
	return &SessionCache{client: client, ttl: ttl, breaker: breaker, logger: logger}
}

// GetList treats every Redis failure as a miss.
func (c *SessionCache) GetList(ctx context.Context) ([]*domain.Session, bool) {
	var data []byte
	err := c.breaker.Do(func() error {
		var err error
		data, err = c.client.Get(ctx, sessionListKey).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return err
	})
	if err != nil {
		if !errors.Is(err, circuitbreaker.ErrOpen) {
			c.logger.Warnw("session cache read failed", "error", err)
		}
		return nil, false
	}
	if data == nil {
		return nil, false
	}

	var sessions []*domain.Session
	if err := json.Unmarshal(data, &sessions); err != nil {
		c.logger.Warnw("session cache entry is corrupt", "error", err)
		return nil, false
	}
	return sessions, true
}

func (c *SessionCache) SetList(ctx context.Context, sessions []*domain.Session) error {
	data, err := json.Marshal(sessions)
	if err != nil {
		return fmt.Errorf("failed to marshal sessions: %w", err)
	}
	err = c.breaker.Do(func() error {
		return c.client.Set(ctx, sessionListKey, data, c.ttl).Err()
	})
	if err != nil {
		return fmt.Errorf("failed to cache sessions: %w", err)
	}
	return nil
}

// Invalidate bypasses the breaker. A skipped delete would leave a stale
// listing behind once Redis is reachable again.
func (c *SessionCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, sessionListKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate session cache: %w", err)
	}
	return nil
}
