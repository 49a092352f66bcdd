package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vidstream/vidstream_backend/internal/apperrors"
	"github.com/vidstream/vidstream_backend/internal/core/domain"
	portsrepo "github.com/vidstream/vidstream_backend/internal/core/ports/repositories"
	portssvc "github.com/vidstream/vidstream_backend/internal/core/ports/services"
	"github.com/vidstream/vidstream_backend/internal/utils"
)

// authService orchestrates the session lifecycle: login, refresh token
// rotation and logout. The currently valid refresh token is mirrored on the
// user record as a SHA-256 hash; a presented token that does not match the
// stored hash is rejected even when its signature and expiry are fine.
type authService struct {
	userService  portssvc.UserSvcFacade
	tokenService portssvc.TokenSvcFacade
	userRepo     portsrepo.UserRepository
}

// NewAuthService creates a new instance of authService.
func NewAuthService(userService portssvc.UserSvcFacade, tokenService portssvc.TokenSvcFacade, userRepo portsrepo.UserRepository) portssvc.AuthSvcFacade {
	return &authService{
		userService:  userService,
		tokenService: tokenService,
		userRepo:     userRepo,
	}
}

// Login verifies credentials and issues a fresh token pair. The new refresh
// token overwrites whatever was stored before, implicitly revoking it.
func (s *authService) Login(ctx context.Context, identifier string, password string) (*domain.User, *portssvc.TokenPair, error) {
	user, err := s.userService.GetUserByIdentifier(ctx, identifier)
	if err != nil {
		return nil, nil, err
	}

	if !s.userService.VerifyPassword(user, password) {
		return nil, nil, fmt.Errorf("password verification failed: %w", apperrors.ErrUnauthorized)
	}

	pair, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	if err := s.userRepo.UpdateRefreshToken(ctx, user.UserID, utils.HashRefreshToken(pair.RefreshToken), pair.RefreshExpiry); err != nil {
		// The pair is not authoritative unless the refresh token is persisted.
		return nil, nil, fmt.Errorf("failed to persist refresh token: %w", err)
	}

	return user, pair, nil
}

// Refresh validates a presented refresh token against the stored mirror and
// rotates it. The rotation is a conditional update keyed on the prior hash,
// so two racing refreshes can only both succeed with one winner; the loser
// observes the condition failure and gets ErrUnauthorized.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*domain.User, *portssvc.TokenPair, error) {
	userID, err := s.tokenService.VerifyRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, nil, fmt.Errorf("refresh token rejected: %w", apperrors.ErrUnauthorized)
	}

	user, err := s.userService.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil, fmt.Errorf("refresh token subject no longer exists: %w", apperrors.ErrUnauthorized)
		}
		return nil, nil, err
	}

	if user.RefreshTokenHash == "" || user.RefreshTokenExpiryTime == nil {
		return nil, nil, fmt.Errorf("no active refresh token: %w", apperrors.ErrUnauthorized)
	}
	if time.Now().After(*user.RefreshTokenExpiryTime) {
		return nil, nil, fmt.Errorf("stored refresh token expired: %w", apperrors.ErrUnauthorized)
	}
	if !utils.CompareRefreshTokenHash(refreshToken, user.RefreshTokenHash) {
		// A well-signed token that no longer matches the stored value means it
		// was rotated or revoked; treat the presentation as a reuse attempt.
		return nil, nil, fmt.Errorf("refresh token mismatch: %w", apperrors.ErrUnauthorized)
	}

	pair, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	err = s.userRepo.RotateRefreshToken(ctx, user.UserID, user.RefreshTokenHash, utils.HashRefreshToken(pair.RefreshToken), pair.RefreshExpiry)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// Lost the rotation race; the concurrent refresh already rotated.
			return nil, nil, fmt.Errorf("refresh token already rotated: %w", apperrors.ErrUnauthorized)
		}
		return nil, nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	return user, pair, nil
}

// Logout clears the stored refresh token so no further refreshes succeed.
// Logging out an already logged-out session succeeds.
func (s *authService) Logout(ctx context.Context, userID string) error {
	if err := s.userRepo.ClearRefreshToken(ctx, userID); err != nil {
		return fmt.Errorf("failed to clear refresh token: %w", err)
	}
	return nil
}

func (s *authService) issueTokenPair(ctx context.Context, user *domain.User) (*portssvc.TokenPair, error) {
	accessToken, accessExpiry, err := s.tokenService.GenerateAccessToken(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, refreshExpiry, err := s.tokenService.GenerateRefreshToken(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &portssvc.TokenPair{
		AccessToken:   accessToken,
		AccessExpiry:  accessExpiry,
		RefreshToken:  refreshToken,
		RefreshExpiry: refreshExpiry,
	}, nil
}
