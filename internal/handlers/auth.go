package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/intellexhq/intellex-backend/internal/middleware"
	"github.com/intellexhq/intellex-backend/internal/services"
)

type AuthHandler struct {
	authService services.AuthService
	userService services.UserService
}

func NewAuthHandler(authService services.AuthService, userService services.UserService) *AuthHandler {
	return &AuthHandler{authService: authService, userService: userService}
}

func (ah *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", fmt.Errorf("invalid request body"))
		return
	}

	user, token, err := ah.authService.Login(c.Request.Context(), req.Email, req.Name)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"accessToken": token, "user": user})
}

func (ah *AuthHandler) Me(c *gin.Context) {
	authCtx := middleware.GetAuthContext(c)
	if authCtx == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("missing auth context"))
		return
	}
	user, err := ah.userService.GetByID(c.Request.Context(), authCtx.UserID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, user)
}
