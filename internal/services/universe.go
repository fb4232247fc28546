package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/apperr"
	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/logger"
	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/repos"
	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/requestdata"
	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/types"
)

type CreateUniverseInput struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Metadata    datatypes.JSON `json:"metadata"`
}

type UpdateUniverseInput struct {
	Name        *string         `json:"name"`
	Description *string         `json:"description"`
	Metadata    *datatypes.JSON `json:"metadata"`
}

type UniverseService interface {
	Create(ctx context.Context, tx *gorm.DB, input CreateUniverseInput) (*types.Universe, error)
	Get(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Universe, error)
	ListOwned(ctx context.Context, tx *gorm.DB) ([]*types.Universe, error)
	Update(ctx context.Context, tx *gorm.DB, id uuid.UUID, input UpdateUniverseInput) (*types.Universe, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type universeService struct {
	db               *gorm.DB
	log              *logger.Logger
	universeRepo     repos.UniverseRepo
	contentRepo      repos.ContentRepo
	relationshipRepo repos.RelationshipRepo
}

func NewUniverseService(
	db *gorm.DB,
	baseLog *logger.Logger,
	universeRepo repos.UniverseRepo,
	contentRepo repos.ContentRepo,
	relationshipRepo repos.RelationshipRepo,
) UniverseService {
	return &universeService{
		db:               db,
		log:              baseLog.With("service", "UniverseService"),
		universeRepo:     universeRepo,
		contentRepo:      contentRepo,
		relationshipRepo: relationshipRepo,
	}
}

func (s *universeService) Create(ctx context.Context, tx *gorm.DB, input CreateUniverseInput) (*types.Universe, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apperr.ErrNotAuthenticated
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperr.InvalidOperation("a universe name is required")
	}

	transaction := tx
	if transaction == nil {
		transaction = s.db
	}

	slug, err := s.uniqueSlug(ctx, transaction, rd.UserID, name)
	if err != nil {
		return nil, err
	}

	row := &types.Universe{
		ID:          uuid.New(),
		OwnerID:     rd.UserID,
		Name:        name,
		Slug:        slug,
		Description: strings.TrimSpace(input.Description),
		Metadata:    input.Metadata,
	}
	if _, err := s.universeRepo.Create(ctx, transaction, row); err != nil {
		s.log.Warn("Create: persist failed", "error", err, "owner_id", rd.UserID)
		return nil, err
	}
	return row, nil
}

func (s *universeService) Get(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Universe, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apperr.ErrNotAuthenticated
	}
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing universe id")
	}

	transaction := tx
	if transaction == nil {
		transaction = s.db
	}

	rows, err := s.universeRepo.GetByIDs(ctx, transaction, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 || rows[0] == nil {
		return nil, apperr.ErrNotFound
	}
	if rows[0].OwnerID != rd.UserID {
		return nil, apperr.ErrAccessDenied
	}
	return rows[0], nil
}

func (s *universeService) ListOwned(ctx context.Context, tx *gorm.DB) ([]*types.Universe, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apperr.ErrNotAuthenticated
	}

	transaction := tx
	if transaction == nil {
		transaction = s.db
	}
	return s.universeRepo.GetByOwnerID(ctx, transaction, rd.UserID)
}

func (s *universeService) Update(ctx context.Context, tx *gorm.DB, id uuid.UUID, input UpdateUniverseInput) (*types.Universe, error) {
	existing, err := s.Get(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	transaction := tx
	if transaction == nil {
		transaction = s.db
	}

	updates := map[string]interface{}{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperr.InvalidOperation("a universe name is required")
		}
		updates["name"] = name
		existing.Name = name
	}
	if input.Description != nil {
		updates["description"] = strings.TrimSpace(*input.Description)
		existing.Description = strings.TrimSpace(*input.Description)
	}
	if input.Metadata != nil {
		updates["metadata"] = *input.Metadata
		existing.Metadata = *input.Metadata
	}
	if len(updates) == 0 {
		return existing, nil
	}
	if err := s.universeRepo.UpdateFields(ctx, transaction, id, updates); err != nil {
		s.log.Warn("Update: persist failed", "error", err, "universe_id", id)
		return nil, err
	}
	return existing, nil
}

// Delete removes the universe and everything under it: relationships first,
// then content, then the universe row, all in one transaction.
func (s *universeService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, nil, id); err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.relationshipRepo.FullDeleteByUniverseIDs(ctx, tx, []uuid.UUID{id}); err != nil {
			return err
		}
		if err := s.contentRepo.FullDeleteByUniverseIDs(ctx, tx, []uuid.UUID{id}); err != nil {
			return err
		}
		return s.universeRepo.FullDeleteByIDs(ctx, tx, []uuid.UUID{id})
	})
}

func (s *universeService) uniqueSlug(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, name string) (string, error) {
	base := slugify(name)
	if base == "" {
		base = "universe"
	}
	slug := base
	for i := 2; ; i++ {
		exists, err := s.universeRepo.SlugExists(ctx, tx, ownerID, slug)
		if err != nil {
			return "", err
		}
		if !exists {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

func slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
