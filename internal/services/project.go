package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/intellexhq/intellex-backend/internal/clients/comms"
	"github.com/intellexhq/intellex-backend/internal/logger"
	"github.com/intellexhq/intellex-backend/internal/repos"
	"github.com/intellexhq/intellex-backend/internal/types"
	"github.com/intellexhq/intellex-backend/internal/utils"
)

type UpdateProjectInput struct {
	Title  *string `json:"title,omitempty"`
	Goal   *string `json:"goal,omitempty"`
	Status *string `json:"status,omitempty"`
}

type ProjectService interface {
	Create(ctx context.Context, userID, title, goal string) (*types.ResearchProject, error)
	// GetOwned resolves a project and enforces ownership: ErrNotFound when
	// the id resolves to nothing, ErrForbidden on owner mismatch.
	GetOwned(ctx context.Context, projectID, userID string) (*types.ResearchProject, error)
	List(ctx context.Context, userID string) ([]*types.ResearchProject, error)
	Update(ctx context.Context, projectID string, in UpdateProjectInput) (*types.ResearchProject, error)
	Delete(ctx context.Context, projectID string) error
	Stats(ctx context.Context, userID string) (*types.ProjectStats, error)
	Activity(ctx context.Context, userID string, limit int) ([]types.ActivityItem, error)
	Share(ctx context.Context, project *types.ResearchProject, email, access, inviterEmail string) (*types.ProjectShare, error)
	ListShares(ctx context.Context, projectID string) ([]*types.ProjectShare, error)
	RevokeShare(ctx context.Context, projectID, shareID string) error
}

type projectService struct {
	db          *gorm.DB
	log         *logger.Logger
	projectRepo repos.ProjectRepo
	planRepo    repos.ResearchPlanRepo
	messageRepo repos.MessageRepo
	shareRepo   repos.ProjectShareRepo
	planService PlanService
	comms       comms.Client
}

func NewProjectService(
	db *gorm.DB,
	log *logger.Logger,
	projectRepo repos.ProjectRepo,
	planRepo repos.ResearchPlanRepo,
	messageRepo repos.MessageRepo,
	shareRepo repos.ProjectShareRepo,
	planService PlanService,
	commsClient comms.Client,
) ProjectService {
	return &projectService{
		db:          db,
		log:         log.With("service", "ProjectService"),
		projectRepo: projectRepo,
		planRepo:    planRepo,
		messageRepo: messageRepo,
		shareRepo:   shareRepo,
		planService: planService,
		comms:       commsClient,
	}
}

func (ps *projectService) Create(ctx context.Context, userID, title, goal string) (*types.ResearchProject, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("title is required: %w", ErrInvalidInput)
	}

	timestamp := utils.NowMS()
	project := &types.ResearchProject{
		ID:        utils.NewID("proj"),
		UserID:    userID,
		Title:     title,
		Goal:      goal,
		Status:    types.ProjectStatusActive,
		CreatedAt: timestamp,
		UpdatedAt: timestamp,
	}
	if _, err := ps.projectRepo.Create(ctx, nil, []*types.ResearchProject{project}); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	if _, err := ps.planService.EnsurePlan(ctx, project); err != nil {
		return nil, fmt.Errorf("seed plan: %w", err)
	}
	ps.log.Info("Project created", "project_id", project.ID, "user_id", userID)
	return project, nil
}

func (ps *projectService) GetOwned(ctx context.Context, projectID, userID string) (*types.ResearchProject, error) {
	project, err := ps.projectRepo.GetByID(ctx, nil, projectID)
	if err != nil {
		return nil, fmt.Errorf("lookup project: %w", err)
	}
	if project == nil {
		return nil, fmt.Errorf("project %s: %w", projectID, ErrNotFound)
	}
	if project.UserID != userID {
		return nil, fmt.Errorf("project %s: %w", projectID, ErrForbidden)
	}
	return project, nil
}

func (ps *projectService) List(ctx context.Context, userID string) ([]*types.ResearchProject, error) {
	projects, err := ps.projectRepo.ListByUser(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

func (ps *projectService) Update(ctx context.Context, projectID string, in UpdateProjectInput) (*types.ResearchProject, error) {
	updates := map[string]interface{}{}
	if in.Title != nil {
		updates["title"] = *in.Title
	}
	if in.Goal != nil {
		updates["goal"] = *in.Goal
	}
	if in.Status != nil {
		if !types.ValidProjectStatus(*in.Status) {
			return nil, fmt.Errorf("status %q: %w", *in.Status, ErrInvalidInput)
		}
		updates["status"] = *in.Status
	}
	if len(updates) > 0 {
		updates["updated_at"] = utils.NowMS()
		if err := ps.projectRepo.UpdateFields(ctx, nil, projectID, updates); err != nil {
			return nil, fmt.Errorf("update project: %w", err)
		}
	}
	project, err := ps.projectRepo.GetByID(ctx, nil, projectID)
	if err != nil {
		return nil, fmt.Errorf("reload project: %w", err)
	}
	if project == nil {
		return nil, fmt.Errorf("project %s: %w", projectID, ErrNotFound)
	}
	return project, nil
}

func (ps *projectService) Delete(ctx context.Context, projectID string) error {
	return ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids := []string{projectID}
		if err := ps.messageRepo.DeleteByProjects(ctx, tx, ids); err != nil {
			return fmt.Errorf("delete messages: %w", err)
		}
		if err := ps.planRepo.DeleteByProjects(ctx, tx, ids); err != nil {
			return fmt.Errorf("delete plans: %w", err)
		}
		if err := ps.shareRepo.DeleteByProjects(ctx, tx, ids); err != nil {
			return fmt.Errorf("delete shares: %w", err)
		}
		if err := ps.projectRepo.Delete(ctx, tx, ids); err != nil {
			return fmt.Errorf("delete project: %w", err)
		}
		return nil
	})
}

func (ps *projectService) Stats(ctx context.Context, userID string) (*types.ProjectStats, error) {
	projects, err := ps.projectRepo.ListByUser(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	stats := &types.ProjectStats{TotalProjects: len(projects)}
	dayAgo := utils.NowMS() - 24*60*60*1000
	for _, project := range projects {
		switch strings.ToLower(project.Status) {
		case types.ProjectStatusActive:
			stats.ActiveProjects++
		case types.ProjectStatusCompleted:
			stats.CompletedProjects++
		}
		if project.UpdatedAt >= dayAgo {
			stats.UpdatedLastDay++
		}
	}
	return stats, nil
}

func (ps *projectService) Activity(ctx context.Context, userID string, limit int) ([]types.ActivityItem, error) {
	if limit < 1 {
		limit = 10
	}
	projects, err := ps.projectRepo.ListByUser(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	if len(projects) > limit {
		projects = projects[:limit]
	}

	activities := make([]types.ActivityItem, 0, len(projects))
	for _, project := range projects {
		title := project.Title
		if title == "" {
			title = "Untitled"
		}
		activityType := "project_updated"
		description := fmt.Sprintf("Project updated: %q", title)
		if strings.ToLower(project.Status) == types.ProjectStatusCompleted {
			activityType = "research_completed"
			description = fmt.Sprintf("Research completed: %q", title)
		}

		timestamp := project.UpdatedAt
		if timestamp == 0 && project.LastMessageAt != nil {
			timestamp = *project.LastMessageAt
		}
		if timestamp == 0 {
			timestamp = project.CreatedAt
		}

		var meta *string
		if project.CreatedAt > 0 {
			created := time.UnixMilli(project.CreatedAt).UTC().Format(time.RFC3339)
			m := "Created " + created
			meta = &m
		}

		activities = append(activities, types.ActivityItem{
			ID:          project.ID,
			Type:        activityType,
			Description: description,
			Timestamp:   timestamp,
			Meta:        meta,
		})
	}
	return activities, nil
}

// Share records the invite and fires the notification email as a detached
// task: delivery can fail without affecting the share itself.
func (ps *projectService) Share(ctx context.Context, project *types.ResearchProject, email, access, inviterEmail string) (*types.ProjectShare, error) {
	if strings.TrimSpace(email) == "" {
		return nil, fmt.Errorf("email is required: %w", ErrInvalidInput)
	}
	if access == "" {
		access = types.ShareAccessViewer
	}
	if access != types.ShareAccessViewer && access != types.ShareAccessEditor {
		return nil, fmt.Errorf("access must be viewer or editor: %w", ErrInvalidInput)
	}

	share := &types.ProjectShare{
		ID:        utils.NewID("share"),
		ProjectID: project.ID,
		Email:     email,
		Access:    access,
		InvitedAt: utils.NowMS(),
	}
	if _, err := ps.shareRepo.Create(ctx, nil, []*types.ProjectShare{share}); err != nil {
		return nil, fmt.Errorf("create share: %w", err)
	}

	if ps.comms != nil {
		go func() {
			sendCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			ps.comms.SendEmail(sendCtx, comms.EmailMessage{
				To:       email,
				Template: "project-share",
				Subject:  fmt.Sprintf("You've been invited to '%s'", project.Title),
				Data: map[string]interface{}{
					"projectId":    project.ID,
					"access":       access,
					"inviterEmail": inviterEmail,
				},
				Metadata: map[string]interface{}{
					"projectId": project.ID,
					"userId":    project.UserID,
					"source":    "api",
				},
			})
		}()
	}

	return share, nil
}

func (ps *projectService) ListShares(ctx context.Context, projectID string) ([]*types.ProjectShare, error) {
	shares, err := ps.shareRepo.ListByProject(ctx, nil, projectID)
	if err != nil {
		return nil, fmt.Errorf("list shares: %w", err)
	}
	return shares, nil
}

func (ps *projectService) RevokeShare(ctx context.Context, projectID, shareID string) error {
	if err := ps.shareRepo.Delete(ctx, nil, projectID, shareID); err != nil {
		return fmt.Errorf("revoke share: %w", err)
	}
	return nil
}
