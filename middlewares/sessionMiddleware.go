package middlewares

import (
	"context"
	"net/http"

	"github.com/bombersbar/backend/config"
	"github.com/bombersbar/backend/utils"
	"github.com/gin-gonic/gin"
)

// SessionMiddleware resolves the session token (header or cookie) against
// Redis and attaches the username to the request context. Requests without
// a token pass through; the role gates reject them later if needed.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Request.Header.Get("token")
		if token == "" {
			if cookie, err := c.Cookie("session"); err == nil {
				token = cookie
			}
		}
		if token == "" {
			c.Next()
			return
		}
		username, exists, err := config.GetRedisValue("Token:" + token)
		if err != nil || !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "unauthorized"})
			c.Abort()
			return
		}

		ctx := context.WithValue(c.Request.Context(), utils.ContextKeyToken, token)
		ctx = context.WithValue(ctx, utils.ContextKeyUsername, username)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
