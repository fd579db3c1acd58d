package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/gleaner/models"
	"github.com/use-agent/gleaner/store"
)

// Context keys set by Auth for downstream handlers.
const (
	CtxUser   = "auth_user"
	CtxAPIKey = "auth_api_key"
)

// Auth returns API-key authentication middleware backed by the user store.
//
// Supports two header styles:
//
//	X-API-Key: <key>
//	Authorization: Bearer <key>
//
// The presented key is HMAC-hashed and looked up; disabled keys and disabled
// users are rejected. On success the user and key rows are attached to the
// request context.
func Auth(users *store.UserStore, hmacKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := extractAPIKey(c)
		if key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeUnauthorized,
					Message: "missing API key: provide X-API-Key header or Authorization: Bearer <key>",
				},
			})
			return
		}

		apiKey, user, err := users.Authenticate(c.Request.Context(), store.HashKey(hmacKey, key))
		if errors.Is(err, store.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeUnauthorized,
					Message: "invalid API key",
				},
			})
			return
		}
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, models.ErrorResponse{
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInternal,
					Message: "authentication lookup failed",
				},
			})
			return
		}

		c.Set(CtxUser, user)
		c.Set(CtxAPIKey, apiKey)
		c.Next()
	}
}

// RequireAdmin gates a route group to admin users. Must run after Auth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil || !user.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, models.ErrorResponse{
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeForbidden,
					Message: "admin access required",
				},
			})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user attached by Auth, or nil.
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(CtxUser); ok {
		if u, ok := v.(*models.User); ok {
			return u
		}
	}
	return nil
}

// CurrentAPIKey returns the authenticated API key attached by Auth, or nil.
func CurrentAPIKey(c *gin.Context) *models.APIKey {
	if v, ok := c.Get(CtxAPIKey); ok {
		if k, ok := v.(*models.APIKey); ok {
			return k
		}
	}
	return nil
}

// extractAPIKey tries X-API-Key first, then Authorization: Bearer.
func extractAPIKey(c *gin.Context) string {
	if key := c.GetHeader("X-API-Key"); key != "" {
		return key
	}
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}
