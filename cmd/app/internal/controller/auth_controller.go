package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"exppro-backend/internal/service"
)

type AuthController struct {
	AuthService service.AuthService
}

func NewAuthController(authService service.AuthService) *AuthController {
	return &AuthController{AuthService: authService}
}

func (ac *AuthController) Signup(c *gin.Context) {
	var req service.SignupRequest
	if !bindJSON(c, &req) {
		return
	}
	view, err := ac.AuthService.Signup(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (ac *AuthController) Login(c *gin.Context) {
	var creds struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if !bindJSON(c, &creds) {
		return
	}
	view, err := ac.AuthService.Login(c.Request.Context(), creds.Username, creds.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
