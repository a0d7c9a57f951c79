package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	redisclient "github.com/intellexhq/intellex-backend/internal/clients/redis"
	"github.com/intellexhq/intellex-backend/internal/logger"
	"github.com/intellexhq/intellex-backend/internal/repos"
	"github.com/intellexhq/intellex-backend/internal/types"
	"github.com/intellexhq/intellex-backend/internal/utils"
)

const (
	// Placeholder and final agent messages sit at a fixed offset past the
	// user message so the pair always orders correctly within the project.
	placeholderOffsetMS = 500
	inlineOffsetMS      = 1500

	callbackPath = "/orchestrator/callback"
)

// errEnqueueFailed separates "queue did not take the job" (silently fall
// back to inline generation) from store failures after a successful enqueue
// (surface to the caller).
var errEnqueueFailed = errors.New("enqueue failed")

type SendMessageResult struct {
	UserMessage    *types.ChatMessage  `json:"userMessage"`
	AgentMessage   *types.ChatMessage  `json:"agentMessage"`
	Plan           *types.ResearchPlan `json:"plan,omitempty"`
	JobID          string              `json:"jobId,omitempty"`
	AgentMessageID string              `json:"agentMessageId,omitempty"`
}

type CompleteJobInput struct {
	JobID          string
	ProjectID      string
	Response       string
	Thoughts       []types.AgentThought
	AgentMessageID string
}

// ChatService is the message-send pipeline: one inbound user message in, a
// persisted exchange out, async when the queue is up, inline otherwise.
type ChatService interface {
	SendMessage(ctx context.Context, project *types.ResearchProject, content string) (*SendMessageResult, error)
	CompleteJob(ctx context.Context, in CompleteJobInput) error
	ListMessages(ctx context.Context, projectID string) ([]*types.ChatMessage, error)
}

type chatService struct {
	log          *logger.Logger
	messageRepo  repos.MessageRepo
	projectRepo  repos.ProjectRepo
	planService  PlanService
	orchestrator OrchestratorService
	queue        redisclient.MessageQueue
}

// NewChatService accepts a nil queue; the pipeline then always generates
// inline.
func NewChatService(
	log *logger.Logger,
	messageRepo repos.MessageRepo,
	projectRepo repos.ProjectRepo,
	planService PlanService,
	orchestrator OrchestratorService,
	queue redisclient.MessageQueue,
) ChatService {
	return &chatService{
		log:          log.With("service", "ChatService"),
		messageRepo:  messageRepo,
		projectRepo:  projectRepo,
		planService:  planService,
		orchestrator: orchestrator,
		queue:        queue,
	}
}

func (cs *chatService) SendMessage(ctx context.Context, project *types.ResearchProject, content string) (*SendMessageResult, error) {
	if project == nil {
		return nil, fmt.Errorf("project: %w", ErrNotFound)
	}
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("content is required: %w", ErrInvalidInput)
	}

	// The user message is durable before any agent-side work: whatever
	// fails later, the log never loses the triggering input.
	t0 := utils.NowMS()
	userMsg := &types.ChatMessage{
		ID:         utils.NewID("msg"),
		ProjectID:  project.ID,
		SenderID:   project.UserID,
		SenderType: types.SenderTypeUser,
		Content:    content,
		Timestamp:  t0,
	}
	if _, err := cs.messageRepo.Create(ctx, nil, []*types.ChatMessage{userMsg}); err != nil {
		return nil, fmt.Errorf("persist user message: %w", err)
	}

	// Plan append is non-fatal: a project without a plan just sends no plan
	// back.
	plan, err := cs.planService.AppendLead(ctx, project.ID, content)
	if err != nil {
		plan = nil
		if !errors.Is(err, ErrNotFound) {
			cs.log.Warn("Plan append failed", "project_id", project.ID, "error", err)
		}
	}

	if cs.queue != nil {
		result, err := cs.dispatchAsync(ctx, project, userMsg, plan, content, t0)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, errEnqueueFailed) {
			return nil, err
		}
		cs.log.Warn("Enqueue failed, falling back to inline generation", "project_id", project.ID, "error", err)
	}

	return cs.generateInline(ctx, project, userMsg, plan, content, t0)
}

func (cs *chatService) dispatchAsync(ctx context.Context, project *types.ResearchProject, userMsg *types.ChatMessage, plan *types.ResearchPlan, content string, t0 int64) (*SendMessageResult, error) {
	jobID := redisclient.NewJobID()
	agentMessageID := redisclient.AgentMessageID(jobID)

	job := &redisclient.MessageJob{
		JobID:          jobID,
		Project:        project,
		UserContent:    content,
		CallbackPath:   callbackPath,
		AgentMessageID: agentMessageID,
	}
	if err := cs.queue.Enqueue(ctx, job); err != nil {
		return nil, fmt.Errorf("%w: %v", errEnqueueFailed, err)
	}

	agentTimestamp := t0 + placeholderOffsetMS
	thoughts, err := types.EncodeThoughts([]types.AgentThought{{
		ID:        utils.NewID("th"),
		Title:     "Queued",
		Content:   "Message queued for processing.",
		Status:    types.ThoughtStatusThinking,
		Timestamp: agentTimestamp,
	}})
	if err != nil {
		return nil, fmt.Errorf("encode placeholder thought: %w", err)
	}

	agentMsg := &types.ChatMessage{
		ID:         agentMessageID,
		ProjectID:  project.ID,
		SenderID:   types.AgentSenderID,
		SenderType: types.SenderTypeAgent,
		Content:    fmt.Sprintf("Processing (job %s)…", jobID),
		Thoughts:   thoughts,
		Timestamp:  agentTimestamp,
	}
	if _, err := cs.messageRepo.Create(ctx, nil, []*types.ChatMessage{agentMsg}); err != nil {
		return nil, fmt.Errorf("persist placeholder message: %w", err)
	}
	if err := cs.projectRepo.UpdateTimestamps(ctx, nil, project.ID, agentTimestamp, agentTimestamp); err != nil {
		return nil, fmt.Errorf("update project timestamps: %w", err)
	}

	cs.log.Info("Message dispatched to queue", "project_id", project.ID, "job_id", jobID)
	return &SendMessageResult{
		UserMessage:    userMsg,
		AgentMessage:   agentMsg,
		Plan:           plan,
		JobID:          jobID,
		AgentMessageID: agentMessageID,
	}, nil
}

func (cs *chatService) generateInline(ctx context.Context, project *types.ResearchProject, userMsg *types.ChatMessage, plan *types.ResearchPlan, content string, t0 int64) (*SendMessageResult, error) {
	agentContent, thoughtList := cs.orchestrator.ProcessMessage(ctx, project, content)

	thoughts, err := types.EncodeThoughts(thoughtList)
	if err != nil {
		return nil, fmt.Errorf("encode thoughts: %w", err)
	}

	agentTimestamp := t0 + inlineOffsetMS
	agentMsg := &types.ChatMessage{
		ID:         utils.NewID("msg"),
		ProjectID:  project.ID,
		SenderID:   types.AgentSenderID,
		SenderType: types.SenderTypeAgent,
		Content:    agentContent,
		Thoughts:   thoughts,
		Timestamp:  agentTimestamp,
	}
	if _, err := cs.messageRepo.Create(ctx, nil, []*types.ChatMessage{agentMsg}); err != nil {
		return nil, fmt.Errorf("persist agent message: %w", err)
	}
	if err := cs.projectRepo.UpdateTimestamps(ctx, nil, project.ID, agentTimestamp, agentTimestamp); err != nil {
		return nil, fmt.Errorf("update project timestamps: %w", err)
	}

	return &SendMessageResult{
		UserMessage:  userMsg,
		AgentMessage: agentMsg,
		Plan:         plan,
	}, nil
}

// CompleteJob reconciles a worker result with the placeholder written at
// enqueue time. Upsert keyed by the derived message id makes the call
// idempotent: a repeat delivery rewrites the same row.
func (cs *chatService) CompleteJob(ctx context.Context, in CompleteJobInput) error {
	project, err := cs.projectRepo.GetByID(ctx, nil, in.ProjectID)
	if err != nil {
		return fmt.Errorf("lookup project: %w", err)
	}
	if project == nil {
		return fmt.Errorf("project %s: %w", in.ProjectID, ErrNotFound)
	}

	agentMessageID := in.AgentMessageID
	if agentMessageID == "" {
		agentMessageID = redisclient.AgentMessageID(in.JobID)
	}

	thoughts, err := types.EncodeThoughts(in.Thoughts)
	if err != nil {
		return fmt.Errorf("encode thoughts: %w", err)
	}

	// Finalized messages carry the completion time, not the placeholder's.
	timestamp := utils.NowMS()
	agentMsg := &types.ChatMessage{
		ID:         agentMessageID,
		ProjectID:  in.ProjectID,
		SenderID:   types.AgentSenderID,
		SenderType: types.SenderTypeAgent,
		Content:    in.Response,
		Thoughts:   thoughts,
		Timestamp:  timestamp,
	}
	if err := cs.messageRepo.Upsert(ctx, nil, agentMsg); err != nil {
		return fmt.Errorf("upsert agent message: %w", err)
	}
	if err := cs.projectRepo.UpdateTimestamps(ctx, nil, in.ProjectID, timestamp, timestamp); err != nil {
		return fmt.Errorf("update project timestamps: %w", err)
	}

	cs.log.Info("Job completed", "project_id", in.ProjectID, "job_id", in.JobID, "agent_message_id", agentMessageID)
	return nil
}

func (cs *chatService) ListMessages(ctx context.Context, projectID string) ([]*types.ChatMessage, error) {
	messages, err := cs.messageRepo.ListByProject(ctx, nil, projectID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return messages, nil
}
