package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/intellexhq/intellex-backend/internal/middleware"
	"github.com/intellexhq/intellex-backend/internal/services"
)

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (uh *UserHandler) GetAPIKeys(c *gin.Context) {
	authCtx := middleware.GetAuthContext(c)
	keys, err := uh.userService.GetAPIKeys(c.Request.Context(), authCtx.UserID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, keys)
}

func (uh *UserHandler) SaveAPIKeys(c *gin.Context) {
	authCtx := middleware.GetAuthContext(c)

	var req services.APIKeyPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", fmt.Errorf("invalid request body"))
		return
	}

	keys, err := uh.userService.SaveAPIKeys(c.Request.Context(), authCtx.UserID, req)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, keys)
}

// DeleteAccount tears down the caller's account and everything under it.
func (uh *UserHandler) DeleteAccount(c *gin.Context) {
	authCtx := middleware.GetAuthContext(c)

	deleted, err := uh.userService.DeleteAccount(c.Request.Context(), authCtx.UserID, authCtx.Email)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": deleted})
}
