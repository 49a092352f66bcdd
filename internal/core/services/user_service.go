package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidstream/vidstream_backend/internal/apperrors"
	"github.com/vidstream/vidstream_backend/internal/core/domain"
	portsrepo "github.com/vidstream/vidstream_backend/internal/core/ports/repositories"
	portssvc "github.com/vidstream/vidstream_backend/internal/core/ports/services"
	"github.com/vidstream/vidstream_backend/internal/dto"
	"github.com/vidstream/vidstream_backend/internal/utils"
)

// userService owns user identity and password hashing. Hashing happens
// explicitly here before any write; the repository never re-hashes.
type userService struct {
	userRepo portsrepo.UserRepository
}

// NewUserService creates a new instance of userService.
func NewUserService(userRepo portsrepo.UserRepository) portssvc.UserSvcFacade {
	return &userService{userRepo: userRepo}
}

// CreateUser hashes the password and persists a new user. Username is
// lowercased and trimmed, email lowercased, so identity lookups are
// case-insensitive.
func (s *userService) CreateUser(ctx context.Context, req dto.RegisterUserRequest, avatarURL string, coverImageURL *string) (*domain.User, error) {
	if avatarURL == "" {
		return nil, fmt.Errorf("avatar is required: %w", apperrors.ErrValidation)
	}

	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := domain.User{
		UserID:        uuid.NewString(),
		Username:      strings.ToLower(strings.TrimSpace(req.Username)),
		Email:         strings.ToLower(strings.TrimSpace(req.Email)),
		FullName:      strings.TrimSpace(req.FullName),
		PasswordHash:  passwordHash,
		AvatarURL:     avatarURL,
		CoverImageURL: coverImageURL,
		CreatedAt:     now,
		LastUpdatedAt: now,
	}

	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &user, nil
}

func (s *userService) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}
	return user, nil
}

func (s *userService) GetUserByIdentifier(ctx context.Context, identifier string) (*domain.User, error) {
	user, err := s.userRepo.FindUserByIdentifier(ctx, strings.ToLower(strings.TrimSpace(identifier)))
	if err != nil {
		return nil, fmt.Errorf("failed to get user by identifier: %w", err)
	}
	return user, nil
}

// VerifyPassword reports whether the candidate matches the stored bcrypt hash.
func (s *userService) VerifyPassword(user *domain.User, candidate string) bool {
	return utils.CheckPasswordHash(candidate, user.PasswordHash)
}

// ChangePassword verifies the old password, re-hashes the new one and
// persists it. Outstanding access and refresh tokens stay valid.
func (s *userService) ChangePassword(ctx context.Context, userID string, oldPassword string, newPassword string) error {
	user, err := s.userRepo.FindUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user for password change: %w", err)
	}

	if !utils.CheckPasswordHash(oldPassword, user.PasswordHash) {
		return fmt.Errorf("old password mismatch: %w", apperrors.ErrUnauthorized)
	}

	newHash, err := utils.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash new password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, userID, newHash); err != nil {
		return fmt.Errorf("failed to persist new password: %w", err)
	}
	return nil
}
