package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"readify-backend/internal/shared/server/respond"
)

const (
	userIDKey    = "userId"
	userEmailKey = "userEmail"
	userRoleKey  = "userRole"
)

// RoleAdmin is the role allowed to manage users and every document.
const RoleAdmin = "Admin"

// Identity reads the caller identity forwarded by the front end and stores it in context.
// Requests without X-User-Id are rejected.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		userID := strings.TrimSpace(c.GetHeader("X-User-Id"))
		if userID == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "Missing identity", nil)
			return
		}

		c.Set(userIDKey, userID)
		if email := strings.TrimSpace(c.GetHeader("X-User-Email")); email != "" {
			c.Set(userEmailKey, email)
		}
		if role := strings.TrimSpace(c.GetHeader("X-User-Role")); role != "" {
			c.Set(userRoleKey, role)
		}
		c.Next()
	}
}

// RequireRole rejects callers whose role is not one of roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := UserRoleFromContext(c)
		for _, r := range roles {
			if strings.EqualFold(role, r) {
				c.Next()
				return
			}
		}
		respond.Error(c, http.StatusForbidden, "forbidden", "insufficient role", nil)
	}
}

// IsAdmin reports whether the caller carries the Admin role.
func IsAdmin(c *gin.Context) bool {
	return strings.EqualFold(UserRoleFromContext(c), RoleAdmin)
}

// UserIDFromContext fetches the user ID set by the identity middleware.
func UserIDFromContext(c *gin.Context) string {
	return contextString(c, userIDKey)
}

// UserEmailFromContext fetches the user email set by the identity middleware.
func UserEmailFromContext(c *gin.Context) string {
	return contextString(c, userEmailKey)
}

// UserRoleFromContext fetches the user role set by the identity middleware.
func UserRoleFromContext(c *gin.Context) string {
	return contextString(c, userRoleKey)
}

func contextString(c *gin.Context, key string) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(key)
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}
