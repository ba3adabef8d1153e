package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	CookieName = "admin_token"
	contextKey = "admin_claims"
)

// RequireAdmin rejects requests without a valid admin_token cookie and
// stores the claims on the context for handlers.
func RequireAdmin(tokens *TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := c.Cookie(CookieName)
		if err != nil || tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}

		claims, err := tokens.Parse(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired session"})
			return
		}

		c.Set(contextKey, claims)
		c.Next()
	}
}

// CurrentAdmin returns the claims stored by RequireAdmin.
func CurrentAdmin(c *gin.Context) (*Claims, bool) {
	v, ok := c.Get(contextKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*Claims)
	return claims, ok
}
