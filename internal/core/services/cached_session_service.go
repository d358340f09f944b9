package services

import (
	"context"
	"sync"

	"streamie/internal/core/domain"
	"streamie/internal/core/ports"

	"go.uber.org/zap"
)

// CachedSessionService wraps SessionService with a cached session listing.
// Every write drops the cached listing and bumps generation, so a listing
// loaded before the write is never stored afterwards.
type CachedSessionService struct {
	baseService ports.SessionService
	cache       ports.SessionCache
	logger      *zap.SugaredLogger

	mu         sync.Mutex
	generation uint64
}

func NewCachedSessionService(baseService ports.SessionService, cache ports.SessionCache, logger *zap.SugaredLogger) ports.SessionService {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &CachedSessionService{
		baseService: baseService,
		cache:       cache,
		logger:      logger,
	}
}

func (s *CachedSessionService) ListSessions(ctx context.Context) ([]*domain.Session, error) {
	if sessions, ok := s.cache.GetList(ctx); ok {
		return sessions, nil
	}

	s.mu.Lock()
	gen := s.generation
	s.mu.Unlock()

	sessions, err := s.baseService.ListSessions(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return sessions, nil
	}
	if err := s.cache.SetList(ctx, sessions); err != nil {
		s.logger.Warnw("failed to cache session list", "error", err)
	}
	return sessions, nil
}

func (s *CachedSessionService) GetSession(ctx context.Context, id domain.SessionID) (*domain.Session, error) {
	return s.baseService.GetSession(ctx, id)
}

func (s *CachedSessionService) CreateSession(ctx context.Context, session *domain.Session) error {
	if err := s.baseService.CreateSession(ctx, session); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *CachedSessionService) UpdateSession(ctx context.Context, oldName string, patch domain.SessionPatch) (*domain.Session, error) {
	session, err := s.baseService.UpdateSession(ctx, oldName, patch)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return session, nil
}

func (s *CachedSessionService) DeleteSession(ctx context.Context, name string) error {
	if err := s.baseService.DeleteSession(ctx, name); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *CachedSessionService) invalidate(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warnw("failed to invalidate session list cache", "error", err)
	}
}
