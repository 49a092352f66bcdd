package dto

// LoginResponse is returned on successful login. The tokens are also set as
// httpOnly cookies; the body copy exists for non-browser clients.
type LoginResponse struct {
	User         UserResponse `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

// RefreshTokenResponse is returned on successful token rotation.
type RefreshTokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
