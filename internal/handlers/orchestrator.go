package handlers

import (
	"crypto/subtle"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/intellexhq/intellex-backend/internal/logger"
	"github.com/intellexhq/intellex-backend/internal/services"
	"github.com/intellexhq/intellex-backend/internal/types"
)

// OrchestratorHandler receives worker callbacks. It sits outside the user
// auth middleware; the shared secret header is the only gate.
type OrchestratorHandler struct {
	log            *logger.Logger
	chatService    services.ChatService
	callbackSecret string
}

func NewOrchestratorHandler(log *logger.Logger, chatService services.ChatService, callbackSecret string) *OrchestratorHandler {
	return &OrchestratorHandler{
		log:            log.With("handler", "OrchestratorHandler"),
		chatService:    chatService,
		callbackSecret: callbackSecret,
	}
}

type callbackRequest struct {
	JobID          string               `json:"jobId"`
	ProjectID      string               `json:"projectId"`
	Response       string               `json:"response"`
	Thoughts       []types.AgentThought `json:"thoughts"`
	AgentMessageID string               `json:"agentMessageId"`
}

func (oh *OrchestratorHandler) Callback(c *gin.Context) {
	if oh.callbackSecret != "" {
		provided := c.GetHeader("x-orchestrator-secret")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(oh.callbackSecret)) != 1 {
			RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("invalid orchestrator secret"))
			return
		}
	}

	var req callbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", fmt.Errorf("invalid request body"))
		return
	}
	if req.JobID == "" && req.AgentMessageID == "" {
		RespondError(c, http.StatusBadRequest, "invalid_body", fmt.Errorf("jobId or agentMessageId is required"))
		return
	}
	if req.ProjectID == "" {
		RespondError(c, http.StatusBadRequest, "invalid_body", fmt.Errorf("projectId is required"))
		return
	}

	err := oh.chatService.CompleteJob(c.Request.Context(), services.CompleteJobInput{
		JobID:          req.JobID,
		ProjectID:      req.ProjectID,
		Response:       req.Response,
		Thoughts:       req.Thoughts,
		AgentMessageID: req.AgentMessageID,
	})
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
