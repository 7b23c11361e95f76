package devserver

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	contextKeyUserID  = "user_id"
	contextKeyIsAdmin = "is_admin"
)

// RequireAuth validates the Bearer access token and stores the caller's id in the context
func (s *Server) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.hooks.takeUnauthorized() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token expired"})
			return
		}

		authHeader := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			return
		}

		claims, err := s.tokens.Parse(raw, tokenTypeAccess)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		user, err := s.store.user(claims.UserID)
		if err != nil || !user.IsActive {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not found or inactive"})
			return
		}

		c.Set(contextKeyUserID, user.ID)
		c.Set(contextKeyIsAdmin, user.IsAdmin)
		c.Next()
	}
}

// RequireAdmin must run after RequireAuth
func (s *Server) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool(contextKeyIsAdmin) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}

func userID(c *gin.Context) int64 {
	return c.GetInt64(contextKeyUserID)
}
