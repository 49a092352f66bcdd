package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/vidstream/vidstream_backend/internal/apperrors"
	"github.com/vidstream/vidstream_backend/internal/core/domain"
	portssvc "github.com/vidstream/vidstream_backend/internal/core/ports/services"
	"github.com/vidstream/vidstream_backend/internal/dto"
	"github.com/vidstream/vidstream_backend/internal/handlers"
	"github.com/vidstream/vidstream_backend/internal/platform/config"
	"github.com/vidstream/vidstream_backend/internal/utils"
)

// --- Mock UserSvcFacade ---
type MockUserService struct {
	mock.Mock
	GetUserByIDFn         func(ctx context.Context, userID string) (*domain.User, error)
	GetUserByIdentifierFn func(ctx context.Context, identifier string) (*domain.User, error)
	CreateUserFn          func(ctx context.Context, req dto.RegisterUserRequest, avatarURL string, coverImageURL *string) (*domain.User, error)
	ChangePasswordFn      func(ctx context.Context, userID string, oldPassword string, newPassword string) error
	VerifyPasswordFn      func(user *domain.User, candidate string) bool
}

func (m *MockUserService) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	if m.GetUserByIDFn != nil {
		return m.GetUserByIDFn(ctx, userID)
	}
	return nil, apperrors.ErrNotFound
}

func (m *MockUserService) GetUserByIdentifier(ctx context.Context, identifier string) (*domain.User, error) {
	if m.GetUserByIdentifierFn != nil {
		return m.GetUserByIdentifierFn(ctx, identifier)
	}
	return nil, apperrors.ErrNotFound
}

func (m *MockUserService) CreateUser(ctx context.Context, req dto.RegisterUserRequest, avatarURL string, coverImageURL *string) (*domain.User, error) {
	if m.CreateUserFn != nil {
		return m.CreateUserFn(ctx, req, avatarURL, coverImageURL)
	}
	return nil, fmt.Errorf("CreateUserFn not set")
}

func (m *MockUserService) ChangePassword(ctx context.Context, userID string, oldPassword string, newPassword string) error {
	if m.ChangePasswordFn != nil {
		return m.ChangePasswordFn(ctx, userID, oldPassword, newPassword)
	}
	return fmt.Errorf("ChangePasswordFn not set")
}

func (m *MockUserService) VerifyPassword(user *domain.User, candidate string) bool {
	if m.VerifyPasswordFn != nil {
		return m.VerifyPasswordFn(user, candidate)
	}
	return false
}

var _ portssvc.UserSvcFacade = (*MockUserService)(nil)

// --- Mock AuthSvcFacade ---
type MockAuthService struct {
	mock.Mock
	LoginFn   func(ctx context.Context, identifier string, password string) (*domain.User, *portssvc.TokenPair, error)
	RefreshFn func(ctx context.Context, refreshToken string) (*domain.User, *portssvc.TokenPair, error)
	LogoutFn  func(ctx context.Context, userID string) error
}

func (m *MockAuthService) Login(ctx context.Context, identifier string, password string) (*domain.User, *portssvc.TokenPair, error) {
	if m.LoginFn != nil {
		return m.LoginFn(ctx, identifier, password)
	}
	return nil, nil, fmt.Errorf("LoginFn not set")
}

func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string) (*domain.User, *portssvc.TokenPair, error) {
	if m.RefreshFn != nil {
		return m.RefreshFn(ctx, refreshToken)
	}
	return nil, nil, fmt.Errorf("RefreshFn not set")
}

func (m *MockAuthService) Logout(ctx context.Context, userID string) error {
	if m.LogoutFn != nil {
		return m.LogoutFn(ctx, userID)
	}
	return fmt.Errorf("LogoutFn not set")
}

var _ portssvc.AuthSvcFacade = (*MockAuthService)(nil)

// --- Mock TokenSvcFacade ---
type MockTokenService struct {
	mock.Mock
	VerifyAccessTokenFn func(ctx context.Context, tokenString string) (string, error)
}

func (m *MockTokenService) GenerateAccessToken(ctx context.Context, user *domain.User) (string, time.Time, error) {
	return "access-token", time.Now().Add(15 * time.Minute), nil
}

func (m *MockTokenService) GenerateRefreshToken(ctx context.Context, user *domain.User) (string, time.Time, error) {
	return "refresh-token", time.Now().Add(240 * time.Hour), nil
}

func (m *MockTokenService) VerifyAccessToken(ctx context.Context, tokenString string) (string, error) {
	if m.VerifyAccessTokenFn != nil {
		return m.VerifyAccessTokenFn(ctx, tokenString)
	}
	return "", apperrors.ErrInvalidToken
}

func (m *MockTokenService) VerifyRefreshToken(ctx context.Context, tokenString string) (string, error) {
	return "", apperrors.ErrInvalidToken
}

var _ portssvc.TokenSvcFacade = (*MockTokenService)(nil)

// --- Mock MediaSvcFacade ---
type MockMediaService struct {
	UploadFileFn func(ctx context.Context, localPath string) (string, error)
}

func (m *MockMediaService) UploadFile(ctx context.Context, localPath string) (string, error) {
	if m.UploadFileFn != nil {
		return m.UploadFileFn(ctx, localPath)
	}
	// Mirror the real collaborator's contract: the temp file is removed.
	os.Remove(localPath)
	return "https://cdn.example.com/media/" + "uploaded.png", nil
}

var _ portssvc.MediaSvcFacade = (*MockMediaService)(nil)

// --- Test Suite ---
type AuthHandlerTestSuite struct {
	suite.Suite
	cfg          *config.Config
	router       *gin.Engine
	userService  *MockUserService
	authService  *MockAuthService
	tokenService *MockTokenService
	mediaService *MockMediaService
}

func (suite *AuthHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	suite.cfg = &config.Config{
		AccessTokenCookieName:  "accessToken",
		RefreshTokenCookieName: "refreshToken",
		TempUploadDir:          suite.T().TempDir(),
	}
	suite.userService = new(MockUserService)
	suite.authService = new(MockAuthService)
	suite.tokenService = new(MockTokenService)
	suite.mediaService = new(MockMediaService)

	services := &portssvc.ServiceContainer{
		User:  suite.userService,
		Token: suite.tokenService,
		Auth:  suite.authService,
		Media: suite.mediaService,
	}

	posthog := utils.InitializePosthogClient("", slog.Default())

	suite.router = gin.New()
	handlers.RegisterRoutes(suite.router, suite.cfg, services, posthog)
}

func (suite *AuthHandlerTestSuite) perform(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *AuthHandlerTestSuite) decodeEnvelope(w *httptest.ResponseRecorder) dto.APIResponse {
	var envelope dto.APIResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &envelope))
	return envelope
}

// multipartRegisterBody builds a registration form with the given text fields
// plus an avatar file and optionally a cover image file.
func multipartRegisterBody(t *testing.T, fields map[string]string, withCover bool) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	avatar, err := writer.CreateFormFile("avatar", "avatar.png")
	if err != nil {
		t.Fatal(err)
	}
	io.WriteString(avatar, "fake-png-bytes")
	if withCover {
		cover, err := writer.CreateFormFile("coverImage", "cover.jpg")
		if err != nil {
			t.Fatal(err)
		}
		io.WriteString(cover, "fake-jpg-bytes")
	}
	writer.Close()
	return body, writer.FormDataContentType()
}

func registerFields() map[string]string {
	return map[string]string{
		"fullName": "Ada Lovelace",
		"email":    "ada@example.com",
		"username": "adal",
		"password": "super-secret-password",
	}
}

func testUser() *domain.User {
	now := time.Now()
	return &domain.User{
		UserID:        "user-123",
		Username:      "adal",
		Email:         "ada@example.com",
		FullName:      "Ada Lovelace",
		PasswordHash:  "$2a$10$not-a-real-hash",
		AvatarURL:     "https://cdn.example.com/media/avatar.png",
		CreatedAt:     now,
		LastUpdatedAt: now,
	}
}

func testTokenPair() *portssvc.TokenPair {
	return &portssvc.TokenPair{
		AccessToken:   "new-access-token",
		AccessExpiry:  time.Now().Add(15 * time.Minute),
		RefreshToken:  "new-refresh-token",
		RefreshExpiry: time.Now().Add(240 * time.Hour),
	}
}

func (suite *AuthHandlerTestSuite) TestRegister_Success() {
	uploads := 0
	suite.mediaService.UploadFileFn = func(ctx context.Context, localPath string) (string, error) {
		uploads++
		// The handler must have saved the multipart file before handing it over.
		_, err := os.Stat(localPath)
		suite.NoError(err)
		os.Remove(localPath)
		if uploads == 1 {
			return "https://cdn.example.com/media/avatar.png", nil
		}
		return "https://cdn.example.com/media/cover.jpg", nil
	}
	suite.userService.CreateUserFn = func(ctx context.Context, req dto.RegisterUserRequest, avatarURL string, coverImageURL *string) (*domain.User, error) {
		suite.Equal("adal", req.Username)
		suite.Equal("https://cdn.example.com/media/avatar.png", avatarURL)
		suite.Require().NotNil(coverImageURL)
		suite.Equal("https://cdn.example.com/media/cover.jpg", *coverImageURL)
		user := testUser()
		cover := *coverImageURL
		user.CoverImageURL = &cover
		return user, nil
	}

	body, contentType := multipartRegisterBody(suite.T(), registerFields(), true)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", body)
	req.Header.Set("Content-Type", contentType)

	w := suite.perform(req)

	suite.Equal(http.StatusCreated, w.Code)
	suite.Equal(2, uploads)

	envelope := suite.decodeEnvelope(w)
	suite.True(envelope.Success)
	suite.Equal(http.StatusCreated, envelope.StatusCode)

	// The response must never leak credential material.
	raw := w.Body.String()
	suite.NotContains(raw, "password")
	suite.NotContains(raw, "refreshToken")

	data := envelope.Data.(map[string]any)
	suite.Equal("adal", data["username"])
	suite.Equal("https://cdn.example.com/media/avatar.png", data["avatar"])
	suite.Equal("https://cdn.example.com/media/cover.jpg", data["coverImage"])
}

func (suite *AuthHandlerTestSuite) TestRegister_MissingAvatar() {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range registerFields() {
		writer.WriteField(k, v)
	}
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	w := suite.perform(req)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.False(suite.decodeEnvelope(w).Success)
}

func (suite *AuthHandlerTestSuite) TestRegister_MissingFields() {
	fields := registerFields()
	delete(fields, "email")
	body, contentType := multipartRegisterBody(suite.T(), fields, false)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", body)
	req.Header.Set("Content-Type", contentType)

	w := suite.perform(req)

	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *AuthHandlerTestSuite) TestRegister_DuplicateUser() {
	suite.userService.CreateUserFn = func(ctx context.Context, req dto.RegisterUserRequest, avatarURL string, coverImageURL *string) (*domain.User, error) {
		return nil, fmt.Errorf("create: %w", apperrors.ErrDuplicate)
	}

	body, contentType := multipartRegisterBody(suite.T(), registerFields(), false)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", body)
	req.Header.Set("Content-Type", contentType)

	w := suite.perform(req)

	suite.Equal(http.StatusConflict, w.Code)
	suite.False(suite.decodeEnvelope(w).Success)
}

func (suite *AuthHandlerTestSuite) TestLogin_SetsCookies() {
	suite.authService.LoginFn = func(ctx context.Context, identifier string, password string) (*domain.User, *portssvc.TokenPair, error) {
		suite.Equal("adal", identifier)
		suite.Equal("super-secret-password", password)
		return testUser(), testTokenPair(), nil
	}

	payload := `{"username":"adal","password":"super-secret-password"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/login", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	w := suite.perform(req)

	suite.Equal(http.StatusOK, w.Code)

	cookies := w.Result().Cookies()
	var accessCookie, refreshCookie *http.Cookie
	for _, c := range cookies {
		switch c.Name {
		case "accessToken":
			accessCookie = c
		case "refreshToken":
			refreshCookie = c
		}
	}
	suite.Require().NotNil(accessCookie)
	suite.Require().NotNil(refreshCookie)
	suite.Equal("new-access-token", accessCookie.Value)
	suite.Equal("new-refresh-token", refreshCookie.Value)
	suite.True(accessCookie.HttpOnly)
	suite.True(refreshCookie.HttpOnly)

	envelope := suite.decodeEnvelope(w)
	suite.True(envelope.Success)
	data := envelope.Data.(map[string]any)
	suite.Equal("new-access-token", data["accessToken"])
	suite.Equal("adal", data["user"].(map[string]any)["username"])
}

func (suite *AuthHandlerTestSuite) TestLogin_EmailAsIdentifier() {
	suite.authService.LoginFn = func(ctx context.Context, identifier string, password string) (*domain.User, *portssvc.TokenPair, error) {
		suite.Equal("ada@example.com", identifier)
		return testUser(), testTokenPair(), nil
	}

	payload := `{"email":"ada@example.com","password":"super-secret-password"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/login", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	w := suite.perform(req)
	suite.Equal(http.StatusOK, w.Code)
}

func (suite *AuthHandlerTestSuite) TestLogin_MissingIdentifier() {
	payload := `{"password":"super-secret-password"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/login", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	w := suite.perform(req)

	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *AuthHandlerTestSuite) TestLogin_WrongPassword() {
	suite.authService.LoginFn = func(ctx context.Context, identifier string, password string) (*domain.User, *portssvc.TokenPair, error) {
		return nil, nil, fmt.Errorf("login: %w", apperrors.ErrUnauthorized)
	}

	payload := `{"username":"adal","password":"wrong"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/login", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	w := suite.perform(req)

	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.False(suite.decodeEnvelope(w).Success)
}

func (suite *AuthHandlerTestSuite) TestLogin_UnknownUser() {
	suite.authService.LoginFn = func(ctx context.Context, identifier string, password string) (*domain.User, *portssvc.TokenPair, error) {
		return nil, nil, fmt.Errorf("login: %w", apperrors.ErrNotFound)
	}

	payload := `{"username":"ghost","password":"whatever"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/login", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	w := suite.perform(req)

	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *AuthHandlerTestSuite) TestRefreshToken_FromCookie() {
	suite.authService.RefreshFn = func(ctx context.Context, refreshToken string) (*domain.User, *portssvc.TokenPair, error) {
		suite.Equal("cookie-refresh-token", refreshToken)
		return testUser(), testTokenPair(), nil
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/refreshToken", nil)
	req.AddCookie(&http.Cookie{Name: "refreshToken", Value: "cookie-refresh-token"})

	w := suite.perform(req)

	suite.Equal(http.StatusOK, w.Code)
	envelope := suite.decodeEnvelope(w)
	data := envelope.Data.(map[string]any)
	suite.Equal("new-access-token", data["accessToken"])
	suite.Equal("new-refresh-token", data["refreshToken"])
}

func (suite *AuthHandlerTestSuite) TestRefreshToken_FromBody() {
	suite.authService.RefreshFn = func(ctx context.Context, refreshToken string) (*domain.User, *portssvc.TokenPair, error) {
		suite.Equal("body-refresh-token", refreshToken)
		return testUser(), testTokenPair(), nil
	}

	payload := `{"refreshToken":"body-refresh-token"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/refreshToken", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	w := suite.perform(req)

	suite.Equal(http.StatusOK, w.Code)
}

func (suite *AuthHandlerTestSuite) TestRefreshToken_Missing() {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/refreshToken", nil)

	w := suite.perform(req)

	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *AuthHandlerTestSuite) TestRefreshToken_Rejected() {
	suite.authService.RefreshFn = func(ctx context.Context, refreshToken string) (*domain.User, *portssvc.TokenPair, error) {
		return nil, nil, fmt.Errorf("refresh: %w", apperrors.ErrUnauthorized)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/refreshToken", nil)
	req.AddCookie(&http.Cookie{Name: "refreshToken", Value: "stale-token"})

	w := suite.perform(req)

	suite.Equal(http.StatusUnauthorized, w.Code)
}

// authenticate primes the token and user mocks so protected routes accept
// the given bearer token.
func (suite *AuthHandlerTestSuite) authenticate(user *domain.User, token string) {
	suite.tokenService.VerifyAccessTokenFn = func(ctx context.Context, tokenString string) (string, error) {
		if tokenString == token {
			return user.UserID, nil
		}
		return "", apperrors.ErrInvalidToken
	}
	suite.userService.GetUserByIDFn = func(ctx context.Context, userID string) (*domain.User, error) {
		if userID == user.UserID {
			return user, nil
		}
		return nil, apperrors.ErrNotFound
	}
}

func (suite *AuthHandlerTestSuite) TestLogout_ClearsCookies() {
	user := testUser()
	suite.authenticate(user, "valid-access-token")
	loggedOut := false
	suite.authService.LogoutFn = func(ctx context.Context, userID string) error {
		loggedOut = true
		suite.Equal(user.UserID, userID)
		return nil
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/logout", nil)
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: "valid-access-token"})

	w := suite.perform(req)

	suite.Equal(http.StatusOK, w.Code)
	suite.True(loggedOut)

	for _, c := range w.Result().Cookies() {
		if c.Name == "accessToken" || c.Name == "refreshToken" {
			suite.Empty(c.Value)
			suite.True(c.MaxAge < 0, "cookie %s must be expired", c.Name)
		}
	}
}

func (suite *AuthHandlerTestSuite) TestLogout_Unauthenticated() {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/logout", nil)

	w := suite.perform(req)

	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *AuthHandlerTestSuite) TestChangePassword_ConfirmMismatch() {
	user := testUser()
	suite.authenticate(user, "valid-access-token")

	payload := `{"oldPassword":"old-password","newPassword":"new-password-123","confirmPassword":"different"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/change-password", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: "valid-access-token"})

	w := suite.perform(req)

	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *AuthHandlerTestSuite) TestChangePassword_WrongOldPassword() {
	user := testUser()
	suite.authenticate(user, "valid-access-token")
	suite.userService.ChangePasswordFn = func(ctx context.Context, userID string, oldPassword string, newPassword string) error {
		return fmt.Errorf("change: %w", apperrors.ErrUnauthorized)
	}

	payload := `{"oldPassword":"wrong","newPassword":"new-password-123","confirmPassword":"new-password-123"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/change-password", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: "valid-access-token"})

	w := suite.perform(req)

	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *AuthHandlerTestSuite) TestChangePassword_Success() {
	user := testUser()
	suite.authenticate(user, "valid-access-token")
	suite.userService.ChangePasswordFn = func(ctx context.Context, userID string, oldPassword string, newPassword string) error {
		suite.Equal(user.UserID, userID)
		suite.Equal("old-password", oldPassword)
		suite.Equal("new-password-123", newPassword)
		return nil
	}

	payload := `{"oldPassword":"old-password","newPassword":"new-password-123","confirmPassword":"new-password-123"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/change-password", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: "valid-access-token"})

	w := suite.perform(req)

	suite.Equal(http.StatusOK, w.Code)
	suite.True(suite.decodeEnvelope(w).Success)
}

func (suite *AuthHandlerTestSuite) TestCurrentUser_WithBearerHeader() {
	user := testUser()
	suite.authenticate(user, "valid-access-token")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/current-user", nil)
	req.Header.Set("Authorization", "Bearer valid-access-token")

	w := suite.perform(req)

	suite.Equal(http.StatusOK, w.Code)
	envelope := suite.decodeEnvelope(w)
	data := envelope.Data.(map[string]any)
	suite.Equal("adal", data["username"])
	suite.Equal(user.UserID, data["userID"])
}

func (suite *AuthHandlerTestSuite) TestCurrentUser_NoToken() {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/current-user", nil)

	w := suite.perform(req)

	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *AuthHandlerTestSuite) TestHealth() {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := suite.perform(req)
	suite.Equal(http.StatusOK, w.Code)
	suite.Equal("OK", w.Body.String())
}

func TestAuthHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(AuthHandlerTestSuite))
}
