package memory

import (
	"context"
	"time"

	"streamie/internal/core/domain"
	"streamie/pkg/cache"
)

const sessionListKey = "sessions:list"

// SessionCache is the in-process fallback used when Redis is not configured.
type SessionCache struct {
	cache *cache.Cache[[]*domain.Session]
}

func NewSessionCache(ttl time.Duration) *SessionCache {
	return &SessionCache{cache: cache.New[[]*domain.Session](ttl)}
}

func (c *SessionCache) GetList(ctx context.Context) ([]*domain.Session, bool) {
	return c.cache.Get(sessionListKey)
}

func (c *SessionCache) SetList(ctx context.Context, sessions []*domain.Session) error {
	c.cache.Set(sessionListKey, sessions)
	return nil
}

func (c *SessionCache) Invalidate(ctx context.Context) error {
	c.cache.Delete(sessionListKey)
	return nil
}

func (c *SessionCache) Close() error {
	c.cache.Stop()
	return nil
}
