package services

import (
	"context"
	"fmt"

	"streamie/internal/core/domain"
	"streamie/internal/core/ports"

	"go.uber.org/zap"
)

type sessionService struct {
	repo   ports.SessionRepository
	logger *zap.SugaredLogger
}

func NewSessionService(repo ports.SessionRepository, logger *zap.SugaredLogger) ports.SessionService {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &sessionService{
		repo:   repo,
		logger: logger,
	}
}

func (s *sessionService) ListSessions(ctx context.Context) ([]*domain.Session, error) {
	return s.repo.List(ctx)
}

func (s *sessionService) GetSession(ctx context.Context, id domain.SessionID) (*domain.Session, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *sessionService) CreateSession(ctx context.Context, session *domain.Session) error {
	session.Start = session.Start.UTC()
	session.End = session.End.UTC()
	if !session.HasValidTimeRange() {
		return domain.ErrInvalidTimeRange
	}

	if err := s.repo.Create(ctx, session); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.Infow("session created", "session_id", session.ID, "name", session.Name)
	return nil
}

// UpdateSession applies patch to the first session called oldName. Only the
// patched fields are written.
func (s *sessionService) UpdateSession(ctx context.Context, oldName string, patch domain.SessionPatch) (*domain.Session, error) {
	if patch.IsEmpty() {
		return nil, domain.ErrEmptyPatch
	}

	current, err := s.repo.GetByName(ctx, oldName)
	if err != nil {
		return nil, err
	}

	merged := current.Apply(patch)
	if !merged.HasValidTimeRange() {
		return nil, domain.ErrInvalidTimeRange
	}

	if err := s.repo.UpdateFields(ctx, current.ID, patch); err != nil {
		return nil, err
	}

	s.logger.Infow("session updated", "session_id", current.ID, "old_name", oldName, "name", merged.Name)
	return &merged, nil
}

func (s *sessionService) DeleteSession(ctx context.Context, name string) error {
	if err := s.repo.DeleteByName(ctx, name); err != nil {
		return err
	}
	s.logger.Infow("session deleted", "name", name)
	return nil
}
