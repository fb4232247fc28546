package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/logger"
	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/types"
)

type UniverseRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.Universe) (*types.Universe, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Universe, error)
	GetByOwnerID(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID) ([]*types.Universe, error)
	SlugExists(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, slug string) (bool, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	FullDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
}

type universeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUniverseRepo(db *gorm.DB, baseLog *logger.Logger) UniverseRepo {
	return &universeRepo{db: db, log: baseLog.With("repo", "UniverseRepo")}
}

func (r *universeRepo) Create(ctx context.Context, tx *gorm.DB, row *types.Universe) (*types.Universe, error) {
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

func (r *universeRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Universe, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Universe
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

func (r *universeRepo) GetByOwnerID(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID) ([]*types.Universe, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Universe
	if ownerID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *universeRepo) SlugExists(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, slug string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if ownerID == uuid.Nil || slug == "" {
		return false, nil
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Universe{}).
		Where("owner_id = ? AND slug = ?", ownerID, slug).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *universeRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}

	if err := transaction.WithContext(ctx).
		Model(&types.Universe{}).
		Where("id = ?", id).
		Updates(updates).Error; err != nil {
		return err
	}
	return nil
}

func (r *universeRepo) FullDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
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
		Delete(&types.Universe{}).Error; err != nil {
		return err
	}
	return nil
}
