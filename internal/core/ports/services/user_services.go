package services

import (
	"context"

	"github.com/vidstream/vidstream_backend/internal/core/domain"
	"github.com/vidstream/vidstream_backend/internal/dto"
)

// UserReaderSvc defines read operations for user data
type UserReaderSvc interface {
	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, userID string) (*domain.User, error)

	// GetUserByIdentifier retrieves a user by username or email.
	GetUserByIdentifier(ctx context.Context, identifier string) (*domain.User, error)
}

// UserWriterSvc defines write operations for user data
type UserWriterSvc interface {
	// CreateUser creates a new user with the given media URLs, hashing the
	// password before anything is persisted.
	CreateUser(ctx context.Context, req dto.RegisterUserRequest, avatarURL string, coverImageURL *string) (*domain.User, error)

	// ChangePassword verifies the old password and re-hashes and persists the
	// new one. It does not revoke outstanding tokens.
	ChangePassword(ctx context.Context, userID string, oldPassword string, newPassword string) error
}

// UserAuthSvc defines credential verification for users
type UserAuthSvc interface {
	// VerifyPassword reports whether the candidate matches the stored hash.
	VerifyPassword(user *domain.User, candidate string) bool
}

// UserSvcFacade combines all user-related service interfaces
type UserSvcFacade interface {
	UserReaderSvc
	UserWriterSvc
	UserAuthSvc
}
