package utilities

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"exppro-backend/internal/model"
)

const userContextKey = "user"

// Authenticator resolves a presented token to the user it was issued to.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.User, error)
}

// AuthMiddleware ensures each request carries a valid token
func AuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, ok := tokenFromHeader(c.GetHeader("Authorization"))
		if !ok {
			c.Header("WWW-Authenticate", "Bearer")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Authentication credentials were not provided."})
			return
		}

		user, err := auth.Authenticate(c.Request.Context(), tokenStr)
		if err != nil {
			c.Header("WWW-Authenticate", "Bearer")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Invalid token."})
			return
		}

		// Store the user in context for later use
		c.Set(userContextKey, user)
		c.Set("user_id", user.ID)

		c.Next()
	}
}

// RequireStaff rejects authenticated users without operator rights.
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok || !user.IsStaff {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Not authorized"})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the user stored by AuthMiddleware.
func CurrentUser(c *gin.Context) (*model.User, bool) {
	v, exists := c.Get(userContextKey)
	if !exists {
		return nil, false
	}
	user, ok := v.(*model.User)
	return user, ok && user != nil
}

// tokenFromHeader accepts both "Bearer <token>" and "Token <token>".
func tokenFromHeader(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found {
		return "", false
	}
	switch strings.ToLower(scheme) {
	case "bearer", "token":
	default:
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
