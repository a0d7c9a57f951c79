package repos

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/intellexhq/intellex-backend/internal/logger"
	"github.com/intellexhq/intellex-backend/internal/types"
)

type MessageRepo interface {
	Create(ctx context.Context, tx *gorm.DB, messages []*types.ChatMessage) ([]*types.ChatMessage, error)
	// Upsert inserts by primary key, replacing content/thoughts/timestamp on
	// conflict. This is how a job callback finalizes a placeholder without
	// ever producing a duplicate row.
	Upsert(ctx context.Context, tx *gorm.DB, message *types.ChatMessage) error
	ListByProject(ctx context.Context, tx *gorm.DB, projectID string) ([]*types.ChatMessage, error)
	CountByProject(ctx context.Context, tx *gorm.DB, projectID string) (int64, error)
	DeleteByProjects(ctx context.Context, tx *gorm.DB, projectIDs []string) error
}

type messageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMessageRepo(db *gorm.DB, baseLog *logger.Logger) MessageRepo {
	return &messageRepo{db: db, log: baseLog.With("repo", "MessageRepo")}
}

func (r *messageRepo) Create(ctx context.Context, tx *gorm.DB, messages []*types.ChatMessage) ([]*types.ChatMessage, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(messages) == 0 {
		return []*types.ChatMessage{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *messageRepo) Upsert(ctx context.Context, tx *gorm.DB, message *types.ChatMessage) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"content", "thoughts", "timestamp", "sender_id", "sender_type"}),
		}).
		Create(message).Error
}

func (r *messageRepo) ListByProject(ctx context.Context, tx *gorm.DB, projectID string) ([]*types.ChatMessage, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.ChatMessage
	if err := transaction.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("timestamp ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *messageRepo) CountByProject(ctx context.Context, tx *gorm.DB, projectID string) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.ChatMessage{}).
		Where("project_id = ?", projectID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *messageRepo) DeleteByProjects(ctx context.Context, tx *gorm.DB, projectIDs []string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(projectIDs) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("project_id IN ?", projectIDs).
		Delete(&types.ChatMessage{}).Error
}
