package dto

// RegisterUserRequest carries the text fields of the multipart registration
// form. The avatar and cover image files are read separately by the handler.
type RegisterUserRequest struct {
	FullName string `form:"fullName" binding:"required"`
	Email    string `form:"email" binding:"required,email"`
	Username string `form:"username" binding:"required,min=2,max=50,username"`
	Password string `form:"password" binding:"required,min=8"`
}

// LoginRequest accepts the identifier as username or email; at least one of
// the two must be present (checked by the handler, not a binding tag).
type LoginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password" binding:"required"`
}

// RefreshTokenRequest is the body fallback when no refreshToken cookie is set.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// ChangePasswordRequest requires the confirmation to match the new password.
type ChangePasswordRequest struct {
	OldPassword     string `json:"oldPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" binding:"required,eqfield=NewPassword"`
}
