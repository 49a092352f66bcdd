package handlers

import (
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/vidstream/vidstream_backend/internal/apperrors"
	portssvc "github.com/vidstream/vidstream_backend/internal/core/ports/services"
	"github.com/vidstream/vidstream_backend/internal/dto"
	"github.com/vidstream/vidstream_backend/internal/middleware"
	"github.com/vidstream/vidstream_backend/internal/platform/config"
	"github.com/vidstream/vidstream_backend/internal/utils"
)

// authHandler handles registration and the session lifecycle endpoints.
type authHandler struct {
	cfg          *config.Config
	userService  portssvc.UserSvcFacade
	authService  portssvc.AuthSvcFacade
	mediaService portssvc.MediaSvcFacade
	posthog      *utils.PosthogClientWrapper
}

func newAuthHandler(cfg *config.Config, services *portssvc.ServiceContainer, posthog *utils.PosthogClientWrapper) *authHandler {
	return &authHandler{
		cfg:          cfg,
		userService:  services.User,
		authService:  services.Auth,
		mediaService: services.Media,
		posthog:      posthog,
	}
}

// registerAuthRoutes sets up the user account and session routes. Login and
// register are rate limited per client IP.
func registerAuthRoutes(r *gin.Engine, cfg *config.Config, services *portssvc.ServiceContainer, posthog *utils.PosthogClientWrapper) {
	h := newAuthHandler(cfg, services, posthog)

	// 5 requests per minute per IP on the credential endpoints.
	rate, _ := limiter.NewRateFromFormatted("5-M")
	ipLimiter := limiter.New(memory.NewStore(), rate)
	limit := middleware.RateLimit(ipLimiter)

	users := r.Group("/api/v1/users")
	{
		users.POST("/register", limit, h.register)
		users.POST("/login", limit, h.login)
		users.POST("/refreshToken", h.refreshToken)
	}

	secured := users.Group("", middleware.AuthMiddleware(cfg, services.Token, services.User))
	{
		secured.POST("/logout", h.logout)
		secured.POST("/change-password", h.changePassword)
		secured.GET("/current-user", h.currentUser)
	}
}

// register handles the multipart registration form: text fields plus a
// required avatar file and an optional cover image.
func (h *authHandler) register(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.RegisterUserRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "All fields are required: "+err.Error()))
		return
	}

	avatarFile, err := c.FormFile("avatar")
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "Avatar file is required"))
		return
	}

	avatarURL, err := h.uploadFormFile(c, avatarFile)
	if err != nil {
		logger.Error("Avatar upload failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "Failed to upload avatar"))
		return
	}

	var coverImageURL *string
	if coverFile, err := c.FormFile("coverImage"); err == nil {
		url, err := h.uploadFormFile(c, coverFile)
		if err != nil {
			logger.Error("Cover image upload failed", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "Failed to upload cover image"))
			return
		}
		coverImageURL = &url
	}

	user, err := h.userService.CreateUser(c.Request.Context(), req, avatarURL, coverImageURL)
	if err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			c.JSON(http.StatusConflict, dto.NewErrorResponse(http.StatusConflict, "User with this username or email already exists"))
			return
		}
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, err.Error()))
			return
		}
		logger.Error("Failed to register user", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "Failed to register user"))
		return
	}

	logger.Info("User registered", slog.String("user_id", user.UserID))
	h.posthog.Enqueue(user.UserID, "user_registered", nil)
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(http.StatusCreated, dto.ToUserResponse(user), "User registered successfully"))
}

// login authenticates by username or email plus password, sets the token
// cookies and returns the sanitized user with the token pair.
func (h *authHandler) login(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "Invalid request body"))
		return
	}

	identifier := req.Username
	if identifier == "" {
		identifier = req.Email
	}
	if identifier == "" {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "Username or email is required"))
		return
	}

	user, pair, err := h.authService.Login(c.Request.Context(), identifier, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, dto.NewErrorResponse(http.StatusNotFound, "User does not exist"))
		case errors.Is(err, apperrors.ErrUnauthorized):
			c.JSON(http.StatusUnauthorized, dto.NewErrorResponse(http.StatusUnauthorized, "Invalid user credentials"))
		default:
			logger.Error("Login failed", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "Failed to log in"))
		}
		return
	}

	h.setAuthCookies(c, pair)
	h.posthog.Enqueue(user.UserID, "user_logged_in", nil)
	c.JSON(http.StatusOK, dto.NewSuccessResponse(http.StatusOK, dto.LoginResponse{
		User:         dto.ToUserResponse(user),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, "User logged in successfully"))
}

// refreshToken rotates the refresh token. The token is sourced from the
// refreshToken cookie or, failing that, from the request body.
func (h *authHandler) refreshToken(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	tokenString, _ := c.Cookie(h.cfg.RefreshTokenCookieName)
	if tokenString == "" {
		var req dto.RefreshTokenRequest
		_ = c.ShouldBindJSON(&req)
		tokenString = req.RefreshToken
	}
	if tokenString == "" {
		c.JSON(http.StatusUnauthorized, dto.NewErrorResponse(http.StatusUnauthorized, "Refresh token is required"))
		return
	}

	_, pair, err := h.authService.Refresh(c.Request.Context(), tokenString)
	if err != nil {
		if errors.Is(err, apperrors.ErrUnauthorized) {
			c.JSON(http.StatusUnauthorized, dto.NewErrorResponse(http.StatusUnauthorized, "Invalid refresh token"))
			return
		}
		logger.Error("Token refresh failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "Failed to refresh tokens"))
		return
	}

	h.setAuthCookies(c, pair)
	c.JSON(http.StatusOK, dto.NewSuccessResponse(http.StatusOK, dto.RefreshTokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, "Access token refreshed"))
}

// logout clears the stored refresh token and both cookies. Logging out twice
// is fine.
func (h *authHandler) logout(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	user, ok := middleware.GetCurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.NewErrorResponse(http.StatusUnauthorized, "Unauthorized request"))
		return
	}

	if err := h.authService.Logout(c.Request.Context(), user.UserID); err != nil {
		logger.Error("Logout failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "Failed to log out"))
		return
	}

	h.clearAuthCookies(c)
	c.JSON(http.StatusOK, dto.NewSuccessResponse(http.StatusOK, gin.H{}, "User logged out successfully"))
}

// changePassword re-hashes and stores the new password after verifying the
// old one. Outstanding tokens are not revoked.
func (h *authHandler) changePassword(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	user, ok := middleware.GetCurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.NewErrorResponse(http.StatusUnauthorized, "Unauthorized request"))
		return
	}

	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "New password and confirmation must match"))
		return
	}

	if err := h.userService.ChangePassword(c.Request.Context(), user.UserID, req.OldPassword, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrUnauthorized):
			c.JSON(http.StatusUnauthorized, dto.NewErrorResponse(http.StatusUnauthorized, "Invalid old password"))
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, dto.NewErrorResponse(http.StatusNotFound, "User not found"))
		default:
			logger.Error("Password change failed", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "Failed to change password"))
		}
		return
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(http.StatusOK, gin.H{}, "Password changed successfully"))
}

// currentUser returns the sanitized profile of the authenticated user.
func (h *authHandler) currentUser(c *gin.Context) {
	user, ok := middleware.GetCurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.NewErrorResponse(http.StatusUnauthorized, "Unauthorized request"))
		return
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(http.StatusOK, dto.ToUserResponse(user), "Current user fetched successfully"))
}

// uploadFormFile stores the multipart file in the temp upload dir and hands
// it to the media collaborator, which removes the local copy on success and
// failure alike.
func (h *authHandler) uploadFormFile(c *gin.Context, fileHeader *multipart.FileHeader) (string, error) {
	name, err := utils.GenerateSecureRandomString(16)
	if err != nil {
		return "", err
	}
	localPath := filepath.Join(h.cfg.TempUploadDir, name+filepath.Ext(fileHeader.Filename))

	if err := c.SaveUploadedFile(fileHeader, localPath); err != nil {
		os.Remove(localPath)
		return "", err
	}

	return h.mediaService.UploadFile(c.Request.Context(), localPath)
}

func (h *authHandler) setAuthCookies(c *gin.Context, pair *portssvc.TokenPair) {
	c.SetSameSite(http.SameSiteLaxMode)
	secure := h.cfg.IsProduction
	c.SetCookie(h.cfg.AccessTokenCookieName, pair.AccessToken, int(time.Until(pair.AccessExpiry).Seconds()), "/", h.cfg.CookieDomain, secure, true)
	c.SetCookie(h.cfg.RefreshTokenCookieName, pair.RefreshToken, int(time.Until(pair.RefreshExpiry).Seconds()), "/", h.cfg.CookieDomain, secure, true)
}

func (h *authHandler) clearAuthCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	secure := h.cfg.IsProduction
	c.SetCookie(h.cfg.AccessTokenCookieName, "", -1, "/", h.cfg.CookieDomain, secure, true)
	c.SetCookie(h.cfg.RefreshTokenCookieName, "", -1, "/", h.cfg.CookieDomain, secure, true)
}
