package ports

import (
	"context"

	"streamie/internal/core/domain"
)

type SessionService interface {
	ListSessions(ctx context.Context) ([]*domain.Session, error)
	GetSession(ctx context.Context, id domain.SessionID) (*domain.Session, error)
	CreateSession(ctx context.Context, session *domain.Session) error
	UpdateSession(ctx context.Context, oldName string, patch domain.SessionPatch) (*domain.Session, error)
	DeleteSession(ctx context.Context, name string) error
}

type UserService interface {
	ListUsers(ctx context.Context) ([]*domain.User, error)
	CreateUser(ctx context.Context, fullname, username, password, role string) (*domain.User, error)
	DeleteUser(ctx context.Context, id domain.UserID) error
	VerifyCredentials(ctx context.Context, username, password string) (*domain.User, error)
}

// ChatSubscription is a live cursor over the chat stream.
type ChatSubscription interface {
	ID() string
	Next(ctx context.Context) (domain.ChatDelivery, error)
	State() domain.SubscriberState
	Close()
}

// ChatHub is the in-process broadcast bus. Publish never blocks on subscribers.
type ChatHub interface {
	Publish(msg domain.ChatMessage) int
	Subscribe() ChatSubscription
}
