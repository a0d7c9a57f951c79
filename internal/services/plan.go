package services

import (
	"context"
	"fmt"

	"github.com/intellexhq/intellex-backend/internal/logger"
	"github.com/intellexhq/intellex-backend/internal/repos"
	"github.com/intellexhq/intellex-backend/internal/types"
	"github.com/intellexhq/intellex-backend/internal/utils"
)

// planLeadMaxLen bounds the description copied from a user message into a
// plan item.
const planLeadMaxLen = 140

type PlanService interface {
	// EnsurePlan returns the project's plan, seeding one when none exists.
	EnsurePlan(ctx context.Context, project *types.ResearchProject) (*types.ResearchPlan, error)
	GetPlan(ctx context.Context, projectID string) (*types.ResearchPlan, error)
	// AppendLead appends one in-progress item summarizing new user content.
	// ErrNotFound when the project has no plan yet; existing items are never
	// touched.
	AppendLead(ctx context.Context, projectID, content string) (*types.ResearchPlan, error)
}

type planService struct {
	log      *logger.Logger
	planRepo repos.ResearchPlanRepo
}

func NewPlanService(log *logger.Logger, planRepo repos.ResearchPlanRepo) PlanService {
	return &planService{
		log:      log.With("service", "PlanService"),
		planRepo: planRepo,
	}
}

func (ps *planService) EnsurePlan(ctx context.Context, project *types.ResearchProject) (*types.ResearchPlan, error) {
	if project == nil {
		return nil, fmt.Errorf("project required: %w", ErrInvalidInput)
	}
	existing, err := ps.planRepo.GetByProject(ctx, nil, project.ID)
	if err != nil {
		return nil, fmt.Errorf("lookup plan: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	goalSummary := project.Goal
	if goalSummary == "" {
		goalSummary = project.Title
	}
	items, err := types.EncodePlanItems(seedPlanItems(goalSummary))
	if err != nil {
		return nil, fmt.Errorf("encode plan items: %w", err)
	}
	plan := &types.ResearchPlan{
		ID:        utils.NewID("plan"),
		ProjectID: project.ID,
		Items:     items,
		UpdatedAt: utils.NowMS(),
	}
	if _, err := ps.planRepo.Create(ctx, nil, []*types.ResearchPlan{plan}); err != nil {
		return nil, fmt.Errorf("create plan: %w", err)
	}
	ps.log.Info("Plan created", "plan_id", plan.ID, "project_id", project.ID)
	return plan, nil
}

func (ps *planService) GetPlan(ctx context.Context, projectID string) (*types.ResearchPlan, error) {
	plan, err := ps.planRepo.GetByProject(ctx, nil, projectID)
	if err != nil {
		return nil, fmt.Errorf("lookup plan: %w", err)
	}
	if plan == nil {
		return nil, fmt.Errorf("plan for project %s: %w", projectID, ErrNotFound)
	}
	return plan, nil
}

func (ps *planService) AppendLead(ctx context.Context, projectID, content string) (*types.ResearchPlan, error) {
	plan, err := ps.planRepo.GetByProject(ctx, nil, projectID)
	if err != nil {
		return nil, fmt.Errorf("lookup plan: %w", err)
	}
	if plan == nil {
		return nil, fmt.Errorf("plan for project %s: %w", projectID, ErrNotFound)
	}

	items := types.DecodePlanItems(plan.Items)
	items = append(items, types.ResearchPlanItem{
		ID:          utils.NewIDLen("item", 6),
		Title:       "New Research Lead",
		Description: truncateRunes(content, planLeadMaxLen),
		Status:      types.PlanItemStatusInProgress,
	})

	encoded, err := types.EncodePlanItems(items)
	if err != nil {
		return nil, fmt.Errorf("encode plan items: %w", err)
	}
	updatedAt := utils.NowMS()
	if err := ps.planRepo.UpdateItems(ctx, nil, plan.ID, encoded, updatedAt); err != nil {
		return nil, fmt.Errorf("update plan items: %w", err)
	}

	plan.Items = encoded
	plan.UpdatedAt = updatedAt
	return plan, nil
}

func seedPlanItems(goalSummary string) []types.ResearchPlanItem {
	summary := truncateRunes(goalSummary, 60)
	if summary == "" {
		summary = "Research objective"
	}
	return []types.ResearchPlanItem{
		{
			ID:          utils.NewIDLen("item", 6),
			Title:       "Clarify Objective",
			Description: "Break down the request: " + summary,
			Status:      types.PlanItemStatusInProgress,
		},
		{
			ID:          utils.NewIDLen("item", 6),
			Title:       "Collect Sources",
			Description: "Query recent papers, reports, and benchmarks.",
			Status:      types.PlanItemStatusPending,
		},
		{
			ID:          utils.NewIDLen("item", 6),
			Title:       "Synthesize Findings",
			Description: "Draft executive summary with risks and opportunities.",
			Status:      types.PlanItemStatusPending,
		},
	}
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
