package services

import (
	"context"
	"time"

	"github.com/vidstream/vidstream_backend/internal/apperrors"
	"github.com/vidstream/vidstream_backend/internal/core/domain"
	portssvc "github.com/vidstream/vidstream_backend/internal/core/ports/services"
	"github.com/vidstream/vidstream_backend/internal/platform/config"
	"github.com/vidstream/vidstream_backend/internal/utils"
)

// tokenService issues and verifies signed access and refresh tokens. Each
// kind has its own secret and TTL, supplied via configuration.
type tokenService struct {
	cfg *config.Config
}

// NewTokenService creates a new instance of tokenService.
func NewTokenService(cfg *config.Config) portssvc.TokenSvcFacade {
	return &tokenService{cfg: cfg}
}

// GenerateAccessToken creates a short-lived access token carrying the user's
// id, email, username and full name.
func (s *tokenService) GenerateAccessToken(ctx context.Context, user *domain.User) (string, time.Time, error) {
	expiryTime := time.Now().Add(s.cfg.AccessTokenExpiryDuration)

	accessToken, err := utils.GenerateAccessJWT(
		user.UserID, user.Email, user.Username, user.FullName,
		s.cfg.AccessTokenSecret, s.cfg.AccessTokenExpiryDuration, s.cfg.JWTIssuer,
	)
	if err != nil {
		return "", time.Time{}, err
	}
	return accessToken, expiryTime, nil
}

// GenerateRefreshToken creates a longer-lived refresh token carrying only the
// subject user id.
func (s *tokenService) GenerateRefreshToken(ctx context.Context, user *domain.User) (string, time.Time, error) {
	expiryTime := time.Now().Add(s.cfg.RefreshTokenExpiryDuration)

	refreshToken, err := utils.GenerateRefreshJWT(
		user.UserID, s.cfg.RefreshTokenSecret, s.cfg.RefreshTokenExpiryDuration, s.cfg.JWTIssuer,
	)
	if err != nil {
		return "", time.Time{}, err
	}
	return refreshToken, expiryTime, nil
}

// VerifyAccessToken validates an access token and returns its subject user
// ID. Malformed, badly signed and expired tokens are deliberately not
// distinguished; all fail with ErrInvalidToken.
func (s *tokenService) VerifyAccessToken(ctx context.Context, tokenString string) (string, error) {
	claims, err := utils.ParseAccessJWT(tokenString, s.cfg.AccessTokenSecret)
	if err != nil || claims.Subject == "" {
		return "", apperrors.ErrInvalidToken
	}
	return claims.Subject, nil
}

// VerifyRefreshToken validates a refresh token and returns its subject user
// ID. Failure causes collapse into ErrInvalidToken, same as access tokens.
func (s *tokenService) VerifyRefreshToken(ctx context.Context, tokenString string) (string, error) {
	claims, err := utils.ParseRefreshJWT(tokenString, s.cfg.RefreshTokenSecret)
	if err != nil || claims.Subject == "" {
		return "", apperrors.ErrInvalidToken
	}
	return claims.Subject, nil
}
