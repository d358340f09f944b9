package services

import (
	"time"

	"streamie/internal/core/domain"

	"go.uber.org/zap"
)

const DefaultTokenTTL = 7200 * time.Second

type AuthService interface {
	IssueToken(username string, role domain.Role) (string, error)
	Authenticate(raw string) domain.Identity
	Authorize(identity domain.Identity, required domain.Role) bool
}

type authService struct {
	codec  *TokenCodec
	ttl    time.Duration
	issuer string
	now    func() time.Time
	logger *zap.SugaredLogger
}

type AuthOption func(*authService)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) AuthOption {
	return func(s *authService) {
		s.now = now
	}
}

func NewAuthService(codec *TokenCodec, ttl time.Duration, logger *zap.SugaredLogger, opts ...AuthOption) AuthService {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	s := &authService{
		codec:  codec,
		ttl:    ttl,
		issuer: domain.Issuer,
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *authService) IssueToken(username string, role domain.Role) (string, error) {
	now := s.now().Unix()
	return s.codec.Encode(domain.Claims{
		Username:  username,
		Role:      role,
		Issuer:    s.issuer,
		IssuedAt:  now,
		ExpiresAt: now + int64(s.ttl/time.Second),
	})
}

// Authenticate never fails: anything that is not a valid, current token from our
// issuer resolves to the anonymous identity.
func (s *authService) Authenticate(raw string) domain.Identity {
	if raw == "" || raw == "None" {
		return domain.Anonymous
	}

	claims, err := s.codec.Decode(raw)
	if err != nil {
		s.logger.Debugw("rejected session token", "reason", "decode")
		return domain.Anonymous
	}
	if claims.Issuer != s.issuer {
		s.logger.Debugw("rejected session token", "reason", "issuer", "issuer", claims.Issuer)
		return domain.Anonymous
	}
	if claims.ExpiresAt <= s.now().Unix() {
		s.logger.Debugw("rejected session token", "reason", "expired", "username", claims.Username)
		return domain.Anonymous
	}

	return domain.Identity{Username: claims.Username, Role: claims.Role}
}

// Authorize is an exact role match. Roles are flat: ADMIN does not imply MODERATOR.
func (s *authService) Authorize(identity domain.Identity, required domain.Role) bool {
	return identity.IsAuthenticated() && identity.Role == required
}
