package repositories

import (
	"context"
	"time"

	"github.com/vidstream/vidstream_backend/internal/core/domain"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	// CreateUser persists a new user. Returns apperrors.ErrDuplicate when the
	// username or email is already taken.
	CreateUser(ctx context.Context, user domain.User) error

	// FindUserByID retrieves a user by ID. Returns apperrors.ErrNotFound when missing.
	FindUserByID(ctx context.Context, userID string) (*domain.User, error)

	// FindUserByIdentifier retrieves a user whose username or email matches
	// the given identifier.
	FindUserByIdentifier(ctx context.Context, identifier string) (*domain.User, error)

	// UpdateRefreshToken overwrites the stored refresh token hash and expiry
	// for a user, revoking any previously issued refresh token.
	UpdateRefreshToken(ctx context.Context, userID string, refreshTokenHash string, refreshTokenExpiryTime time.Time) error

	// RotateRefreshToken conditionally replaces the stored refresh token hash:
	// the update only applies while priorHash is still the stored value.
	// Returns apperrors.ErrNotFound when the condition no longer holds.
	RotateRefreshToken(ctx context.Context, userID string, priorHash string, newHash string, refreshTokenExpiryTime time.Time) error

	// ClearRefreshToken removes the stored refresh token for a user. Clearing
	// an already cleared token is not an error.
	ClearRefreshToken(ctx context.Context, userID string) error

	// UpdatePassword persists a new password hash for a user.
	UpdatePassword(ctx context.Context, userID string, passwordHash string) error
}
