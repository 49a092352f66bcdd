package domain

import "time"

// User represents an account holder in the domain.
// PasswordHash only ever holds a bcrypt hash; plaintext passwords are hashed
// before a User is constructed. RefreshTokenHash mirrors the single currently
// valid refresh token (SHA-256 of the signed token string) and is empty when
// the user is logged out.
type User struct {
	UserID                 string     `json:"userID"` // Primary Key (UUID)
	Username               string     `json:"username"`
	Email                  string     `json:"email"`
	FullName               string     `json:"fullName"`
	PasswordHash           string     `json:"-"`
	AvatarURL              string     `json:"avatar"`
	CoverImageURL          *string    `json:"coverImage,omitempty"`
	RefreshTokenHash       string     `json:"-"`
	RefreshTokenExpiryTime *time.Time `json:"-"`
	CreatedAt              time.Time  `json:"createdAt"`
	LastUpdatedAt          time.Time  `json:"updatedAt"`
}
