package repos

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/intellexhq/intellex-backend/internal/logger"
	"github.com/intellexhq/intellex-backend/internal/types"
)

type ProjectRepo interface {
	Create(ctx context.Context, tx *gorm.DB, projects []*types.ResearchProject) ([]*types.ResearchProject, error)
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*types.ResearchProject, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID string) ([]*types.ResearchProject, error)
	ListIDsByUser(ctx context.Context, tx *gorm.DB, userID string) ([]string, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id string, updates map[string]interface{}) error
	UpdateTimestamps(ctx context.Context, tx *gorm.DB, id string, lastMessageAt, updatedAt int64) error
	Delete(ctx context.Context, tx *gorm.DB, ids []string) error
}

type projectRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProjectRepo(db *gorm.DB, baseLog *logger.Logger) ProjectRepo {
	return &projectRepo{db: db, log: baseLog.With("repo", "ProjectRepo")}
}

func (r *projectRepo) Create(ctx context.Context, tx *gorm.DB, projects []*types.ResearchProject) ([]*types.ResearchProject, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(projects) == 0 {
		return []*types.ResearchProject{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

func (r *projectRepo) GetByID(ctx context.Context, tx *gorm.DB, id string) (*types.ResearchProject, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var project types.ResearchProject
	err := transaction.WithContext(ctx).Where("id = ?", id).First(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *projectRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID string) ([]*types.ResearchProject, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.ResearchProject
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *projectRepo) ListIDsByUser(ctx context.Context, tx *gorm.DB, userID string) ([]string, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var ids []string
	if err := transaction.WithContext(ctx).
		Model(&types.ResearchProject{}).
		Where("user_id = ?", userID).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *projectRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id string, updates map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.ResearchProject{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *projectRepo) UpdateTimestamps(ctx context.Context, tx *gorm.DB, id string, lastMessageAt, updatedAt int64) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.ResearchProject{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_message_at": lastMessageAt,
			"updated_at":      updatedAt,
		}).Error
}

func (r *projectRepo) Delete(ctx context.Context, tx *gorm.DB, ids []string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&types.ResearchProject{}).Error
}
