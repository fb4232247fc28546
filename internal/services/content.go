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

type CreateContentInput struct {
	UniverseID uuid.UUID      `json:"universe_id"`
	Name       string         `json:"name"`
	MediaType  string         `json:"media_type"`
	ParentID   *uuid.UUID     `json:"parent_id"`
	Metadata   datatypes.JSON `json:"metadata"`
}

type UpdateContentInput struct {
	Name     *string         `json:"name"`
	Metadata *datatypes.JSON `json:"metadata"`
}

type ContentService interface {
	Create(ctx context.Context, input CreateContentInput) (*types.ContentNode, error)
	Get(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ContentNode, error)
	ListByUniverse(ctx context.Context, tx *gorm.DB, universeID uuid.UUID) ([]*types.ContentNode, error)
	Update(ctx context.Context, tx *gorm.DB, id uuid.UUID, input UpdateContentInput) (*types.ContentNode, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type contentService struct {
	db               *gorm.DB
	log              *logger.Logger
	universeRepo     repos.UniverseRepo
	contentRepo      repos.ContentRepo
	relationshipRepo repos.RelationshipRepo
	relationshipSvc  RelationshipService
	progressSvc      ProgressService
	notifier         ProgressNotifier
}

func NewContentService(
	db *gorm.DB,
	baseLog *logger.Logger,
	universeRepo repos.UniverseRepo,
	contentRepo repos.ContentRepo,
	relationshipRepo repos.RelationshipRepo,
	relationshipSvc RelationshipService,
	progressSvc ProgressService,
	notifier ProgressNotifier,
) ContentService {
	return &contentService{
		db:               db,
		log:              baseLog.With("service", "ContentService"),
		universeRepo:     universeRepo,
		contentRepo:      contentRepo,
		relationshipRepo: relationshipRepo,
		relationshipSvc:  relationshipSvc,
		progressSvc:      progressSvc,
		notifier:         notifier,
	}
}

// Create adds one content node. Viewable content starts at progress 0;
// organisational content starts with no aggregate, since it has no viewable
// descendants yet. A parent id creates the edge in the same transaction, so
// a failed edge never leaves an orphan write behind.
func (s *contentService) Create(ctx context.Context, input CreateContentInput) (*types.ContentNode, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apperr.ErrNotAuthenticated
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperr.InvalidOperation("a content name is required")
	}
	viewable := types.IsViewableMediaType(input.MediaType)
	if !viewable && !types.IsOrganisationalMediaType(input.MediaType) {
		return nil, apperr.InvalidOperation("unknown media type %q", input.MediaType)
	}

	universes, err := s.universeRepo.GetByIDs(ctx, nil, []uuid.UUID{input.UniverseID})
	if err != nil {
		return nil, err
	}
	if len(universes) == 0 || universes[0] == nil {
		return nil, apperr.ErrNotFound
	}
	if universes[0].OwnerID != rd.UserID {
		return nil, apperr.ErrAccessDenied
	}

	row := &types.ContentNode{
		ID:         uuid.New(),
		UniverseID: input.UniverseID,
		OwnerID:    rd.UserID,
		Name:       name,
		MediaType:  input.MediaType,
		IsViewable: viewable,
		Metadata:   input.Metadata,
	}
	if viewable {
		zero := 0
		row.Progress = &zero
	}

	withParent := input.ParentID != nil && *input.ParentID != uuid.Nil
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := s.contentRepo.Create(ctx, tx, row); err != nil {
			return err
		}
		if withParent {
			_, err := s.relationshipSvc.Create(ctx, tx, CreateRelationshipInput{
				ParentID: *input.ParentID,
				ChildID:  row.ID,
			})
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.ContentCreated(row.UniverseID, row.ID)
	if withParent {
		s.notifier.HierarchyChanged(row.UniverseID)
	}
	return row, nil
}

func (s *contentService) Get(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ContentNode, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apperr.ErrNotAuthenticated
	}
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing content id")
	}

	transaction := tx
	if transaction == nil {
		transaction = s.db
	}

	rows, err := s.contentRepo.GetByIDs(ctx, transaction, []uuid.UUID{id})
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

func (s *contentService) ListByUniverse(ctx context.Context, tx *gorm.DB, universeID uuid.UUID) ([]*types.ContentNode, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apperr.ErrNotAuthenticated
	}

	transaction := tx
	if transaction == nil {
		transaction = s.db
	}

	universes, err := s.universeRepo.GetByIDs(ctx, transaction, []uuid.UUID{universeID})
	if err != nil {
		return nil, err
	}
	if len(universes) == 0 || universes[0] == nil {
		return nil, apperr.ErrNotFound
	}
	if universes[0].OwnerID != rd.UserID {
		return nil, apperr.ErrAccessDenied
	}

	return s.contentRepo.GetByUniverseID(ctx, transaction, universeID)
}

// Update edits display fields only. Progress never moves through this path:
// direct progress belongs to the progress service and aggregates are derived.
func (s *contentService) Update(ctx context.Context, tx *gorm.DB, id uuid.UUID, input UpdateContentInput) (*types.ContentNode, error) {
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
			return nil, apperr.InvalidOperation("a content name is required")
		}
		updates["name"] = name
		existing.Name = name
	}
	if input.Metadata != nil {
		updates["metadata"] = *input.Metadata
		existing.Metadata = *input.Metadata
	}
	if len(updates) == 0 {
		return existing, nil
	}
	if err := s.contentRepo.UpdateFields(ctx, transaction, id, updates); err != nil {
		s.log.Warn("Update: persist failed", "error", err, "content_id", id)
		return nil, err
	}
	return existing, nil
}

// Delete removes the node and every incident edge, then rebuilds the
// universe's aggregates so former ancestors stop counting the node.
func (s *contentService) Delete(ctx context.Context, id uuid.UUID) error {
	existing, err := s.Get(ctx, nil, id)
	if err != nil {
		return err
	}

	var rollup int
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.relationshipRepo.FullDeleteByContentIDs(ctx, tx, []uuid.UUID{id}); err != nil {
			return err
		}
		if err := s.contentRepo.FullDeleteByIDs(ctx, tx, []uuid.UUID{id}); err != nil {
			return err
		}
		rollup, err = s.progressSvc.RecomputeAggregates(ctx, tx, existing.UniverseID)
		return err
	})
	if err != nil {
		return err
	}

	s.notifier.ContentDeleted(existing.UniverseID, id)
	s.notifier.UniverseProgressChanged(existing.UniverseID, rollup)
	return nil
}
