package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/intellexhq/intellex-backend/internal/middleware"
	"github.com/intellexhq/intellex-backend/internal/services"
)

type ProjectHandler struct {
	projectService services.ProjectService
	planService    services.PlanService
	chatService    services.ChatService
}

func NewProjectHandler(
	projectService services.ProjectService,
	planService services.PlanService,
	chatService services.ChatService,
) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
		planService:    planService,
		chatService:    chatService,
	}
}

func (ph *ProjectHandler) List(c *gin.Context) {
	authCtx := middleware.GetAuthContext(c)
	projects, err := ph.projectService.List(c.Request.Context(), authCtx.UserID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, projects)
}

func (ph *ProjectHandler) Create(c *gin.Context) {
	authCtx := middleware.GetAuthContext(c)

	var req struct {
		Title string `json:"title"`
		Goal  string `json:"goal"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", fmt.Errorf("invalid request body"))
		return
	}

	project, err := ph.projectService.Create(c.Request.Context(), authCtx.UserID, req.Title, req.Goal)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, project)
}

func (ph *ProjectHandler) Get(c *gin.Context) {
	authCtx := middleware.GetAuthContext(c)
	project, err := ph.projectService.GetOwned(c.Request.Context(), c.Param("projectId"), authCtx.UserID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, project)
}

func (ph *ProjectHandler) Update(c *gin.Context) {
	authCtx := middleware.GetAuthContext(c)
	project, err := ph.projectService.GetOwned(c.Request.Context(), c.Param("projectId"), authCtx.UserID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}

	var req services.UpdateProjectInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", fmt.Errorf("invalid request body"))
		return
	}

	updated, err := ph.projectService.Update(c.Request.Context(), project.ID, req)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, updated)
}

func (ph *ProjectHandler) Delete(c *gin.Context) {
	authCtx := middleware.GetAuthContext(c)
	project, err := ph.projectService.GetOwned(c.Request.Context(), c.Param("projectId"), authCtx.UserID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	if err := ph.projectService.Delete(c.Request.Context(), project.ID); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}

func (ph *ProjectHandler) Stats(c *gin.Context) {
	authCtx := middleware.GetAuthContext(c)
	stats, err := ph.projectService.Stats(c.Request.Context(), authCtx.UserID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, stats)
}

func (ph *ProjectHandler) Activity(c *gin.Context) {
	authCtx := middleware.GetAuthContext(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	activity, err := ph.projectService.Activity(c.Request.Context(), authCtx.UserID, limit)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, activity)
}

func (ph *ProjectHandler) GetPlan(c *gin.Context) {
	authCtx := middleware.GetAuthContext(c)
	project, err := ph.projectService.GetOwned(c.Request.Context(), c.Param("projectId"), authCtx.UserID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	plan, err := ph.planService.EnsurePlan(c.Request.Context(), project)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, plan)
}

func (ph *ProjectHandler) ListMessages(c *gin.Context) {
	authCtx := middleware.GetAuthContext(c)
	project, err := ph.projectService.GetOwned(c.Request.Context(), c.Param("projectId"), authCtx.UserID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	messages, err := ph.chatService.ListMessages(c.Request.Context(), project.ID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, messages)
}

// SendMessage runs the message pipeline. 202 when the exchange was handed to
// the queue and the agent message is a placeholder, 200 when it was generated
// inline.
func (ph *ProjectHandler) SendMessage(c *gin.Context) {
	authCtx := middleware.GetAuthContext(c)
	project, err := ph.projectService.GetOwned(c.Request.Context(), c.Param("projectId"), authCtx.UserID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", fmt.Errorf("invalid request body"))
		return
	}

	result, err := ph.chatService.SendMessage(c.Request.Context(), project, req.Content)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	status := http.StatusOK
	if result.JobID != "" {
		status = http.StatusAccepted
	}
	c.JSON(status, result)
}

func (ph *ProjectHandler) Share(c *gin.Context) {
	authCtx := middleware.GetAuthContext(c)
	project, err := ph.projectService.GetOwned(c.Request.Context(), c.Param("projectId"), authCtx.UserID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}

	var req struct {
		Email  string `json:"email"`
		Access string `json:"access"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", fmt.Errorf("invalid request body"))
		return
	}

	share, err := ph.projectService.Share(c.Request.Context(), project, req.Email, req.Access, authCtx.Email)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, share)
}

func (ph *ProjectHandler) ListShares(c *gin.Context) {
	authCtx := middleware.GetAuthContext(c)
	project, err := ph.projectService.GetOwned(c.Request.Context(), c.Param("projectId"), authCtx.UserID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	shares, err := ph.projectService.ListShares(c.Request.Context(), project.ID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, shares)
}

func (ph *ProjectHandler) RevokeShare(c *gin.Context) {
	authCtx := middleware.GetAuthContext(c)
	project, err := ph.projectService.GetOwned(c.Request.Context(), c.Param("projectId"), authCtx.UserID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	if err := ph.projectService.RevokeShare(c.Request.Context(), project.ID, c.Param("shareId")); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"revoked": true})
}
