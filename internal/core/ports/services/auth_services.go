package services

import (
	"context"
	"time"

	"github.com/vidstream/vidstream_backend/internal/core/domain"
)

// TokenPair carries a freshly issued access/refresh token pair.
type TokenPair struct {
	AccessToken   string
	AccessExpiry  time.Time
	RefreshToken  string
	RefreshExpiry time.Time
}

// TokenSvcFacade defines the interface for token management services.
type TokenSvcFacade interface {
	GenerateAccessToken(ctx context.Context, user *domain.User) (string, time.Time, error)
	GenerateRefreshToken(ctx context.Context, user *domain.User) (string, time.Time, error)

	// VerifyAccessToken checks signature and expiry and returns the subject
	// user ID. Any failure surfaces as apperrors.ErrInvalidToken.
	VerifyAccessToken(ctx context.Context, tokenString string) (string, error)

	// VerifyRefreshToken checks signature and expiry and returns the subject
	// user ID. Any failure surfaces as apperrors.ErrInvalidToken.
	VerifyRefreshToken(ctx context.Context, tokenString string) (string, error)
}

// AuthSvcFacade drives the session lifecycle: login, refresh, logout and
// password change.
type AuthSvcFacade interface {
	// Login verifies credentials, issues a token pair and persists the new
	// refresh token on the user record, revoking any prior one.
	Login(ctx context.Context, identifier string, password string) (*domain.User, *TokenPair, error)

	// Refresh validates the presented refresh token against the stored value
	// and rotates it, issuing a fresh pair.
	Refresh(ctx context.Context, refreshToken string) (*domain.User, *TokenPair, error)

	// Logout clears the stored refresh token. Idempotent.
	Logout(ctx context.Context, userID string) error
}
