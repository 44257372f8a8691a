package utilities

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"exppro-backend/internal/model"
)

type stubAuthenticator map[string]*model.User

func (s stubAuthenticator) Authenticate(_ context.Context, token string) (*model.User, error) {
	if u, ok := s[token]; ok {
		return u, nil
	}
	return nil, errors.New("unknown token")
}

func newTestRouter(auth Authenticator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", AuthMiddleware(auth), func(c *gin.Context) {
		u, _ := CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"username": u.Username, "user_id": c.GetUint("user_id")})
	})
	r.GET("/staff", AuthMiddleware(auth), RequireStaff(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func serve(r *gin.Engine, path, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	r := newTestRouter(stubAuthenticator{
		"good":  {ID: 7, Username: "alice", IsActive: true},
		"staff": {ID: 8, Username: "root", IsActive: true, IsStaff: true},
	})

	tests := []struct {
		name   string
		path   string
		header string
		status int
		body   string
	}{
		{"missing header", "/me", "", http.StatusUnauthorized, "Authentication credentials were not provided."},
		{"unknown scheme", "/me", "Basic good", http.StatusUnauthorized, "Authentication credentials were not provided."},
		{"invalid token", "/me", "Bearer nope", http.StatusUnauthorized, "Invalid token."},
		{"bearer scheme", "/me", "Bearer good", http.StatusOK, `"username":"alice"`},
		{"token scheme", "/me", "Token good", http.StatusOK, `"user_id":7`},
		{"staff only as participant", "/staff", "Bearer good", http.StatusForbidden, "Not authorized"},
		{"staff only as staff", "/staff", "Bearer staff", http.StatusNoContent, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(r, tt.path, tt.header)
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.body)
			if tt.status == http.StatusUnauthorized {
				assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
			}
		})
	}
}
