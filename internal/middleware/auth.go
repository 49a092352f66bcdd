package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vidstream/vidstream_backend/internal/apperrors"
	portssvc "github.com/vidstream/vidstream_backend/internal/core/ports/services"
	"github.com/vidstream/vidstream_backend/internal/dto"
	"github.com/vidstream/vidstream_backend/internal/platform/config"
)

// AuthMiddleware creates a Gin middleware handler that validates access
// tokens on protected routes. The token is taken from the accessToken cookie
// first, then from the Authorization Bearer header. On success the resolved
// user is attached to the request context for downstream handlers.
func AuthMiddleware(cfg *config.Config, tokenService portssvc.TokenSvcFacade, userService portssvc.UserReaderSvc) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := GetLoggerFromCtx(c.Request.Context())

		tokenString := extractAccessToken(c, cfg.AccessTokenCookieName)
		if tokenString == "" {
			logger.Warn("Access token missing")
			abortUnauthorized(c, "Unauthorized request")
			return
		}

		userID, err := tokenService.VerifyAccessToken(c.Request.Context(), tokenString)
		if err != nil {
			logger.Warn("Access token rejected", slog.String("error", err.Error()))
			abortUnauthorized(c, "Invalid access token")
			return
		}

		user, err := userService.GetUserByID(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				logger.Warn("Access token subject no longer exists", slog.String("user_id", userID))
			} else {
				logger.Error("Failed to resolve token subject", slog.String("error", err.Error()))
			}
			abortUnauthorized(c, "Invalid access token")
			return
		}

		ctxWithUser := withCurrentUser(c.Request.Context(), user)
		enrichedLogger := logger.With(slog.String("user_id", user.UserID))
		ctxWithLoggerAndUser := context.WithValue(ctxWithUser, loggerCtxKey, enrichedLogger)
		c.Request = c.Request.WithContext(ctxWithLoggerAndUser)

		c.Next()
	}
}

// extractAccessToken returns the token from the cookie when present,
// otherwise from the Authorization header. Cookie takes precedence.
func extractAccessToken(c *gin.Context, cookieName string) string {
	if cookie, err := c.Cookie(cookieName); err == nil && cookie != "" {
		return cookie
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(http.StatusUnauthorized, message))
}
