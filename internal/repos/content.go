package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/logger"
	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/types"
)

type ContentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.ContentNode) (*types.ContentNode, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.ContentNode, error)
	GetByUniverseID(ctx context.Context, tx *gorm.DB, universeID uuid.UUID) ([]*types.ContentNode, error)
	UpdateProgress(ctx context.Context, tx *gorm.DB, id uuid.UUID, progress int) error
	UpdateAggregatedProgress(ctx context.Context, tx *gorm.DB, id uuid.UUID, value *int) error
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	FullDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
	FullDeleteByUniverseIDs(ctx context.Context, tx *gorm.DB, universeIDs []uuid.UUID) error
}

type contentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewContentRepo(db *gorm.DB, baseLog *logger.Logger) ContentRepo {
	return &contentRepo{db: db, log: baseLog.With("repo", "ContentRepo")}
}

func (r *contentRepo) Create(ctx context.Context, tx *gorm.DB, row *types.ContentNode) (*types.ContentNode, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if row == nil {
		return nil, nil
	}
	if err := transaction.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *contentRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.ContentNode, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.ContentNode
	if len(ids) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *contentRepo) GetByUniverseID(ctx context.Context, tx *gorm.DB, universeID uuid.UUID) ([]*types.ContentNode, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.ContentNode
	if universeID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("universe_id = ?", universeID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *contentRepo) UpdateProgress(ctx context.Context, tx *gorm.DB, id uuid.UUID, progress int) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if id == uuid.Nil {
		return nil
	}

	if err := transaction.WithContext(ctx).
		Model(&types.ContentNode{}).
		Where("id = ?", id).
		Update("progress", progress).Error; err != nil {
		return err
	}
	return nil
}

func (r *contentRepo) UpdateAggregatedProgress(ctx context.Context, tx *gorm.DB, id uuid.UUID, value *int) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if id == uuid.Nil {
		return nil
	}

	if err := transaction.WithContext(ctx).
		Model(&types.ContentNode{}).
		Where("id = ?", id).
		Update("aggregated_progress", value).Error; err != nil {
		return err
	}
	return nil
}

func (r *contentRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}

	if err := transaction.WithContext(ctx).
		Model(&types.ContentNode{}).
		Where("id = ?", id).
		Updates(updates).Error; err != nil {
		return err
	}
	return nil
}

func (r *contentRepo) FullDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(ids) == 0 {
		return nil
	}

	if err := transaction.WithContext(ctx).
		Unscoped().
		Where("id IN ?", ids).
		Delete(&types.ContentNode{}).Error; err != nil {
		return err
	}
	return nil
}

func (r *contentRepo) FullDeleteByUniverseIDs(ctx context.Context, tx *gorm.DB, universeIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(universeIDs) == 0 {
		return nil
	}

	if err := transaction.WithContext(ctx).
		Unscoped().
		Where("universe_id IN ?", universeIDs).
		Delete(&types.ContentNode{}).Error; err != nil {
		return err
	}
	return nil
}
