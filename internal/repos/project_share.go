package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/intellexhq/intellex-backend/internal/logger"
	"github.com/intellexhq/intellex-backend/internal/types"
)

type ProjectShareRepo interface {
	Create(ctx context.Context, tx *gorm.DB, shares []*types.ProjectShare) ([]*types.ProjectShare, error)
	ListByProject(ctx context.Context, tx *gorm.DB, projectID string) ([]*types.ProjectShare, error)
	Delete(ctx context.Context, tx *gorm.DB, projectID, shareID string) error
	DeleteByProjects(ctx context.Context, tx *gorm.DB, projectIDs []string) error
}

type projectShareRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProjectShareRepo(db *gorm.DB, baseLog *logger.Logger) ProjectShareRepo {
	return &projectShareRepo{db: db, log: baseLog.With("repo", "ProjectShareRepo")}
}

func (r *projectShareRepo) Create(ctx context.Context, tx *gorm.DB, shares []*types.ProjectShare) ([]*types.ProjectShare, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(shares) == 0 {
		return []*types.ProjectShare{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&shares).Error; err != nil {
		return nil, err
	}
	return shares, nil
}

func (r *projectShareRepo) ListByProject(ctx context.Context, tx *gorm.DB, projectID string) ([]*types.ProjectShare, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.ProjectShare
	if err := transaction.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("invited_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *projectShareRepo) Delete(ctx context.Context, tx *gorm.DB, projectID, shareID string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("project_id = ? AND id = ?", projectID, shareID).
		Delete(&types.ProjectShare{}).Error
}

func (r *projectShareRepo) DeleteByProjects(ctx context.Context, tx *gorm.DB, projectIDs []string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(projectIDs) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("project_id IN ?", projectIDs).
		Delete(&types.ProjectShare{}).Error
}
