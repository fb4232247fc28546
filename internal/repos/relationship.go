package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/logger"
	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/types"
)

type RelationshipRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.ContentRelationship) (*types.ContentRelationship, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.ContentRelationship, error)
	GetByUniverseID(ctx context.Context, tx *gorm.DB, universeID uuid.UUID) ([]*types.ContentRelationship, error)
	GetByChildIDs(ctx context.Context, tx *gorm.DB, childIDs []uuid.UUID) ([]*types.ContentRelationship, error)
	GetByParentIDs(ctx context.Context, tx *gorm.DB, parentIDs []uuid.UUID) ([]*types.ContentRelationship, error)
	UpdateDisplayOrder(ctx context.Context, tx *gorm.DB, id uuid.UUID, displayOrder int) error
	FullDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
	FullDeleteByContentIDs(ctx context.Context, tx *gorm.DB, contentIDs []uuid.UUID) error
	FullDeleteByUniverseIDs(ctx context.Context, tx *gorm.DB, universeIDs []uuid.UUID) error
}

type relationshipRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRelationshipRepo(db *gorm.DB, baseLog *logger.Logger) RelationshipRepo {
	return &relationshipRepo{db: db, log: baseLog.With("repo", "RelationshipRepo")}
}

func (r *relationshipRepo) Create(ctx context.Context, tx *gorm.DB, row *types.ContentRelationship) (*types.ContentRelationship, error) {
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

func (r *relationshipRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.ContentRelationship, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.ContentRelationship
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

func (r *relationshipRepo) GetByUniverseID(ctx context.Context, tx *gorm.DB, universeID uuid.UUID) ([]*types.ContentRelationship, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.ContentRelationship
	if universeID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("universe_id = ?", universeID).
		Order("display_order ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *relationshipRepo) GetByChildIDs(ctx context.Context, tx *gorm.DB, childIDs []uuid.UUID) ([]*types.ContentRelationship, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.ContentRelationship
	if len(childIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("child_id IN ?", childIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *relationshipRepo) GetByParentIDs(ctx context.Context, tx *gorm.DB, parentIDs []uuid.UUID) ([]*types.ContentRelationship, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.ContentRelationship
	if len(parentIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("parent_id IN ?", parentIDs).
		Order("display_order ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *relationshipRepo) UpdateDisplayOrder(ctx context.Context, tx *gorm.DB, id uuid.UUID, displayOrder int) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if id == uuid.Nil {
		return nil
	}

	if err := transaction.WithContext(ctx).
		Model(&types.ContentRelationship{}).
		Where("id = ?", id).
		Update("display_order", displayOrder).Error; err != nil {
		return err
	}
	return nil
}

func (r *relationshipRepo) FullDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
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
		Delete(&types.ContentRelationship{}).Error; err != nil {
		return err
	}
	return nil
}

// FullDeleteByContentIDs removes every edge touching the given content ids,
// on either end. Content deletion cascades through here so no dangling edges
// survive a node removal.
func (r *relationshipRepo) FullDeleteByContentIDs(ctx context.Context, tx *gorm.DB, contentIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(contentIDs) == 0 {
		return nil
	}

	if err := transaction.WithContext(ctx).
		Unscoped().
		Where("child_id IN ? OR parent_id IN ?", contentIDs, contentIDs).
		Delete(&types.ContentRelationship{}).Error; err != nil {
		return err
	}
	return nil
}

func (r *relationshipRepo) FullDeleteByUniverseIDs(ctx context.Context, tx *gorm.DB, universeIDs []uuid.UUID) error {
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
		Delete(&types.ContentRelationship{}).Error; err != nil {
		return err
	}
	return nil
}
