package services

import (
	"context"
	"errors"
	"fmt"

	"streamie/internal/core/domain"
	"streamie/internal/core/ports"
	"streamie/pkg/utils"

	"go.uber.org/zap"
)

type userService struct {
	repo   ports.UserRepository
	hasher *PasswordHasher
	logger *zap.SugaredLogger
}

func NewUserService(repo ports.UserRepository, hasher *PasswordHasher, logger *zap.SugaredLogger) ports.UserService {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &userService{
		repo:   repo,
		hasher: hasher,
		logger: logger,
	}
}

func (s *userService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.repo.List(ctx)
}

// CreateUser salts and hashes the password and inserts the account. A taken
// username surfaces as domain.ErrDuplicateUsername.
func (s *userService) CreateUser(ctx context.Context, fullname, username, password, role string) (*domain.User, error) {
	salt, err := utils.GenerateSalt(utils.SaltLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	hash, err := s.hasher.Hash(password, salt)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username: username,
		Fullname: fullname,
		Role:     string(domain.ParseRole(role)),
		Hash:     hash,
		Salt:     salt,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateUsername) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Infow("user created", "user_id", user.ID, "username", user.Username, "role", user.Role)
	return user, nil
}

func (s *userService) DeleteUser(ctx context.Context, id domain.UserID) error {
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return err
	}
	s.logger.Infow("user deleted", "user_id", id)
	return nil
}

// VerifyCredentials returns domain.ErrInvalidCredentials for unknown users and
// wrong passwords alike.
func (s *userService) VerifyCredentials(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	ok, err := s.hasher.Verify(user.Hash, password, user.Salt)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}
