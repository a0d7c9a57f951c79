package services

import (
	"context"
	"fmt"

	"github.com/intellexhq/intellex-backend/internal/clients/openai"
	"github.com/intellexhq/intellex-backend/internal/logger"
	"github.com/intellexhq/intellex-backend/internal/types"
	"github.com/intellexhq/intellex-backend/internal/utils"
)

// OrchestratorService is the inline generation path: it produces the agent
// reply plus the thought trail shown alongside it. The out-of-process worker
// does the same work against queued jobs.
type OrchestratorService interface {
	ProcessMessage(ctx context.Context, project *types.ResearchProject, userContent string) (string, []types.AgentThought)
}

type orchestratorService struct {
	log *logger.Logger
	llm openai.Client
}

func NewOrchestratorService(log *logger.Logger, llm openai.Client) OrchestratorService {
	return &orchestratorService{
		log: log.With("service", "OrchestratorService"),
		llm: llm,
	}
}

func (os *orchestratorService) ProcessMessage(ctx context.Context, project *types.ResearchProject, userContent string) (string, []types.AgentThought) {
	now := utils.NowMS()
	thoughts := []types.AgentThought{
		{
			ID:        utils.NewID("th"),
			Title:     "Analyzing Request",
			Content:   fmt.Sprintf("Analyzing user input: '%s...' in context of project '%s'", truncateRunes(userContent, 50), project.Title),
			Status:    types.ThoughtStatusCompleted,
			Timestamp: now,
		},
		{
			ID:        utils.NewID("th"),
			Title:     "Formulating Strategy",
			Content:   "Determining best research path and sources.",
			Status:    types.ThoughtStatusCompleted,
			Timestamp: now + 500,
		},
	}

	response := os.llm.Generate(ctx, systemPrompt(project), userContent)

	thoughts = append(thoughts, types.AgentThought{
		ID:        utils.NewID("th"),
		Title:     "Generating Response",
		Content:   "Synthesizing findings and formatting output.",
		Status:    types.ThoughtStatusCompleted,
		Timestamp: now + 1000,
	})

	return response, thoughts
}

func systemPrompt(project *types.ResearchProject) string {
	return fmt.Sprintf(
		"You are an advanced AI Research Assistant working on a project titled '%s'.\n"+
			"Project Goal: %s\n"+
			"Your role is to help the user achieve this goal by providing detailed, accurate, and structured research.\n"+
			"Maintain a professional, academic, yet accessible tone.\n"+
			"If the user asks for a plan update, suggest specific steps.",
		project.Title, project.Goal,
	)
}
