package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/vidstream/vidstream_backend/internal/core/domain"
)

// contextKey is a private type for request context keys to prevent collisions.
type contextKey string

const (
	loggerCtxKey   = contextKey("logger")
	currentUserKey = contextKey("currentUser")
)

// GetCurrentUser retrieves the authenticated user attached by AuthMiddleware.
// The returned user is already sanitized for persistence-only fields being
// irrelevant downstream: handlers must render it through dto.ToUserResponse.
func GetCurrentUser(c *gin.Context) (*domain.User, bool) {
	userVal := c.Request.Context().Value(currentUserKey)
	if userVal == nil {
		return nil, false
	}
	user, ok := userVal.(*domain.User)
	return user, ok
}

// GetUserIDFromContext retrieves the authenticated user's ID from the request context.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	user, ok := GetCurrentUser(c)
	if !ok {
		return "", false
	}
	return user.UserID, true
}

func withCurrentUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, currentUserKey, user)
}
