package repos

import (
	"context"
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/intellexhq/intellex-backend/internal/logger"
	"github.com/intellexhq/intellex-backend/internal/types"
)

type ResearchPlanRepo interface {
	Create(ctx context.Context, tx *gorm.DB, plans []*types.ResearchPlan) ([]*types.ResearchPlan, error)
	GetByProject(ctx context.Context, tx *gorm.DB, projectID string) (*types.ResearchPlan, error)
	UpdateItems(ctx context.Context, tx *gorm.DB, id string, items datatypes.JSON, updatedAt int64) error
	DeleteByProjects(ctx context.Context, tx *gorm.DB, projectIDs []string) error
}

type researchPlanRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewResearchPlanRepo(db *gorm.DB, baseLog *logger.Logger) ResearchPlanRepo {
	return &researchPlanRepo{db: db, log: baseLog.With("repo", "ResearchPlanRepo")}
}

func (r *researchPlanRepo) Create(ctx context.Context, tx *gorm.DB, plans []*types.ResearchPlan) ([]*types.ResearchPlan, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(plans) == 0 {
		return []*types.ResearchPlan{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&plans).Error; err != nil {
		return nil, err
	}
	return plans, nil
}

func (r *researchPlanRepo) GetByProject(ctx context.Context, tx *gorm.DB, projectID string) (*types.ResearchPlan, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var plan types.ResearchPlan
	err := transaction.WithContext(ctx).Where("project_id = ?", projectID).First(&plan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *researchPlanRepo) UpdateItems(ctx context.Context, tx *gorm.DB, id string, items datatypes.JSON, updatedAt int64) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.ResearchPlan{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"items":      items,
			"updated_at": updatedAt,
		}).Error
}

func (r *researchPlanRepo) DeleteByProjects(ctx context.Context, tx *gorm.DB, projectIDs []string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(projectIDs) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("project_id IN ?", projectIDs).
		Delete(&types.ResearchPlan{}).Error
}
