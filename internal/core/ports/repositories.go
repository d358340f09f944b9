package ports

import (
	"context"

	"streamie/internal/core/domain"
)

// SessionRepository stores scheduled stream sessions.
type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) error
	GetByID(ctx context.Context, id domain.SessionID) (*domain.Session, error)
	GetByName(ctx context.Context, name string) (*domain.Session, error)
	List(ctx context.Context) ([]*domain.Session, error)
	UpdateFields(ctx context.Context, id domain.SessionID, patch domain.SessionPatch) error
	DeleteByName(ctx context.Context, name string) error
	DeleteByID(ctx context.Context, id domain.SessionID) error
}

// UserRepository stores accounts. Create must fail with domain.ErrDuplicateUsername
// when the username is taken, atomically.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id domain.UserID) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	DeleteByID(ctx context.Context, id domain.UserID) error
}

// SessionCache keeps the rendered session listing between writes.
type SessionCache interface {
	GetList(ctx context.Context) ([]*domain.Session, bool)
	SetList(ctx context.Context, sessions []*domain.Session) error
	Invalidate(ctx context.Context) error
}
