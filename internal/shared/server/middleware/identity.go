package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"careerpilot-backend/internal/shared/server/respond"
)

const userIDKey = "userId"

// Identity resolves the calling user from the X-User-Id header set by the
// upstream gateway. Requests without one are rejected.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader("X-User-Id"))
		if userID == "" {
			respond.Error(c, http.StatusUnauthorized, "missing_user", "X-User-Id header is required", nil)
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// UserIDFromContext fetches the user ID stored by Identity middleware.
func UserIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}
