package memory

import (
	"context"
	"sync"

	"streamie/internal/core/domain"
	"streamie/internal/core/ports"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemorySessionRepository keeps sessions in insertion order, which is the order
// name lookups see them in.
type MemorySessionRepository struct {
	sessions []*domain.Session
	mu       sync.RWMutex
}

func NewMemorySessionRepository() ports.SessionRepository {
	return &MemorySessionRepository{}
}

func newID() string {
	return primitive.NewObjectID().Hex()
}

func validID(id string) bool {
	return primitive.IsValidObjectID(id)
}

func (r *MemorySessionRepository) Create(ctx context.Context, session *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session.ID = domain.SessionID(newID())
	stored := *session
	r.sessions = append(r.sessions, &stored)
	return nil
}

func (r *MemorySessionRepository) indexOf(match func(*domain.Session) bool) int {
	for i, s := range r.sessions {
		if match(s) {
			return i
		}
	}
	return -1
}

func (r *MemorySessionRepository) GetByID(ctx context.Context, id domain.SessionID) (*domain.Session, error) {
	if !validID(string(id)) {
		return nil, domain.ErrInvalidID
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOf(func(s *domain.Session) bool { return s.ID == id })
	if i < 0 {
		return nil, domain.ErrSessionNotFound
	}
	out := *r.sessions[i]
	return &out, nil
}

func (r *MemorySessionRepository) GetByName(ctx context.Context, name string) (*domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOf(func(s *domain.Session) bool { return s.Name == name })
	if i < 0 {
		return nil, domain.ErrSessionNotFound
	}
	out := *r.sessions[i]
	return &out, nil
}

func (r *MemorySessionRepository) List(ctx context.Context) ([]*domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		c := *s
		out = append(out, &c)
	}
	return out, nil
}

func (r *MemorySessionRepository) UpdateFields(ctx context.Context, id domain.SessionID, patch domain.SessionPatch) error {
	if !validID(string(id)) {
		return domain.ErrInvalidID
	}
	if patch.IsEmpty() {
		return domain.ErrEmptyPatch
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(func(s *domain.Session) bool { return s.ID == id })
	if i < 0 {
		return domain.ErrSessionNotFound
	}
	updated := r.sessions[i].Apply(patch)
	r.sessions[i] = &updated
	return nil
}

func (r *MemorySessionRepository) remove(match func(*domain.Session) bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(match)
	if i < 0 {
		return domain.ErrSessionNotFound
	}
	r.sessions = append(r.sessions[:i], r.sessions[i+1:]...)
	return nil
}

func (r *MemorySessionRepository) DeleteByName(ctx context.Context, name string) error {
	return r.remove(func(s *domain.Session) bool { return s.Name == name })
}

func (r *MemorySessionRepository) DeleteByID(ctx context.Context, id domain.SessionID) error {
	if !validID(string(id)) {
		return domain.ErrInvalidID
	}
	return r.remove(func(s *domain.Session) bool { return s.ID == id })
}
