package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/apperr"
	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/logger"
	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/repos"
	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/requestdata"
	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/types"
)

type CreateRelationshipInput struct {
	ParentID     uuid.UUID `json:"parent_id"`
	ChildID      uuid.UUID `json:"child_id"`
	DisplayOrder *int      `json:"display_order"`
}

type RelationshipService interface {
	Create(ctx context.Context, tx *gorm.DB, input CreateRelationshipInput) (*types.ContentRelationship, error)
	Delete(ctx context.Context, tx *gorm.DB, relationshipID uuid.UUID) error
	ReorderChildren(ctx context.Context, parentID uuid.UUID, orderedChildIDs []uuid.UUID) error
	ListForParent(ctx context.Context, tx *gorm.DB, parentID uuid.UUID) ([]*types.ContentRelationship, error)
}

type relationshipService struct {
	db               *gorm.DB
	log              *logger.Logger
	contentRepo      repos.ContentRepo
	relationshipRepo repos.RelationshipRepo
	notifier         ProgressNotifier
}

func NewRelationshipService(
	db *gorm.DB,
	baseLog *logger.Logger,
	contentRepo repos.ContentRepo,
	relationshipRepo repos.RelationshipRepo,
	notifier ProgressNotifier,
) RelationshipService {
	return &relationshipService{
		db:               db,
		log:              baseLog.With("service", "RelationshipService"),
		contentRepo:      contentRepo,
		relationshipRepo: relationshipRepo,
		notifier:         notifier,
	}
}

// Create validates and persists one parent-child edge. Parents must be
// organisational content, both ends must belong to the acting user in the
// same universe, the child may not already have a parent, and the edge may
// not close a cycle. Validation runs before any write.
func (s *relationshipService) Create(ctx context.Context, tx *gorm.DB, input CreateRelationshipInput) (*types.ContentRelationship, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apperr.ErrNotAuthenticated
	}
	if input.ParentID == uuid.Nil || input.ChildID == uuid.Nil {
		return nil, fmt.Errorf("missing parent or child id")
	}
	if input.ParentID == input.ChildID {
		return nil, apperr.InvalidOperation("content cannot be its own parent")
	}

	transaction := tx
	if transaction == nil {
		transaction = s.db
	}

	nodes, err := s.contentRepo.GetByIDs(ctx, transaction, []uuid.UUID{input.ParentID, input.ChildID})
	if err != nil {
		return nil, err
	}
	var parent, child *types.ContentNode
	for _, node := range nodes {
		switch node.ID {
		case input.ParentID:
			parent = node
		case input.ChildID:
			child = node
		}
	}
	if parent == nil || child == nil {
		return nil, apperr.ErrNotFound
	}
	if parent.OwnerID != rd.UserID || child.OwnerID != rd.UserID {
		return nil, apperr.ErrAccessDenied
	}
	if parent.UniverseID != child.UniverseID {
		return nil, apperr.InvalidOperation("parent and child must belong to the same universe")
	}
	if parent.IsViewable {
		return nil, apperr.InvalidOperation("viewable content cannot have children")
	}

	edges, err := s.relationshipRepo.GetByUniverseID(ctx, transaction, parent.UniverseID)
	if err != nil {
		return nil, err
	}
	for _, edge := range edges {
		if edge.ChildID == input.ChildID {
			return nil, apperr.InvalidOperation("content already has a parent")
		}
	}
	if isDescendant(edges, input.ChildID, input.ParentID) {
		return nil, apperr.InvalidOperation("cannot assign a descendant as parent")
	}

	displayOrder := 0
	if input.DisplayOrder != nil {
		displayOrder = *input.DisplayOrder
	} else {
		for _, edge := range edges {
			if edge.ParentID == input.ParentID && edge.DisplayOrder >= displayOrder {
				displayOrder = edge.DisplayOrder + 1
			}
		}
	}

	row := &types.ContentRelationship{
		ID:           uuid.New(),
		UniverseID:   parent.UniverseID,
		OwnerID:      rd.UserID,
		ChildID:      input.ChildID,
		ParentID:     input.ParentID,
		DisplayOrder: displayOrder,
	}
	if _, err := s.relationshipRepo.Create(ctx, transaction, row); err != nil {
		s.log.Warn("Create: persist failed", "error", err, "parent_id", input.ParentID, "child_id", input.ChildID)
		return nil, err
	}
	// a caller-supplied tx may still roll back; the caller notifies after commit
	if tx == nil {
		s.notifier.HierarchyChanged(parent.UniverseID)
	}
	return row, nil
}

// Delete removes one edge after an ownership check. The former parent's
// aggregate is not recomputed here; callers that care trigger the progress
// service, and recompute-on-read covers the rest.
func (s *relationshipService) Delete(ctx context.Context, tx *gorm.DB, relationshipID uuid.UUID) error {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return apperr.ErrNotAuthenticated
	}
	if relationshipID == uuid.Nil {
		return fmt.Errorf("missing relationship id")
	}

	transaction := tx
	if transaction == nil {
		transaction = s.db
	}

	rows, err := s.relationshipRepo.GetByIDs(ctx, transaction, []uuid.UUID{relationshipID})
	if err != nil {
		return err
	}
	if len(rows) == 0 || rows[0] == nil {
		return apperr.ErrNotFound
	}
	if rows[0].OwnerID != rd.UserID {
		return apperr.ErrAccessDenied
	}

	if err := s.relationshipRepo.FullDeleteByIDs(ctx, transaction, []uuid.UUID{relationshipID}); err != nil {
		return err
	}
	if tx == nil {
		s.notifier.HierarchyChanged(rows[0].UniverseID)
	}
	return nil
}

// ReorderChildren rewrites DisplayOrder so each edge matches its child's
// index in orderedChildIDs. Every listed child must actually be a child of
// parentID and owned by the acting user.
func (s *relationshipService) ReorderChildren(ctx context.Context, parentID uuid.UUID, orderedChildIDs []uuid.UUID) error {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return apperr.ErrNotAuthenticated
	}
	if parentID == uuid.Nil {
		return fmt.Errorf("missing parent id")
	}

	edges, err := s.relationshipRepo.GetByParentIDs(ctx, nil, []uuid.UUID{parentID})
	if err != nil {
		return err
	}
	edgeByChild := make(map[uuid.UUID]*types.ContentRelationship, len(edges))
	for _, edge := range edges {
		if edge.OwnerID != rd.UserID {
			return apperr.ErrAccessDenied
		}
		edgeByChild[edge.ChildID] = edge
	}
	for _, childID := range orderedChildIDs {
		if edgeByChild[childID] == nil {
			return apperr.InvalidOperation("content %s is not a child of the given parent", childID)
		}
	}

	var universeID uuid.UUID
	err = s.db.Transaction(func(tx *gorm.DB) error {
		for index, childID := range orderedChildIDs {
			edge := edgeByChild[childID]
			if edge.DisplayOrder == index {
				continue
			}
			if err := s.relationshipRepo.UpdateDisplayOrder(ctx, tx, edge.ID, index); err != nil {
				return err
			}
			universeID = edge.UniverseID
		}
		return nil
	})
	if err != nil {
		return err
	}
	if universeID != uuid.Nil {
		s.notifier.HierarchyChanged(universeID)
	}
	return nil
}

func (s *relationshipService) ListForParent(ctx context.Context, tx *gorm.DB, parentID uuid.UUID) ([]*types.ContentRelationship, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apperr.ErrNotAuthenticated
	}

	transaction := tx
	if transaction == nil {
		transaction = s.db
	}
	return s.relationshipRepo.GetByParentIDs(ctx, transaction, []uuid.UUID{parentID})
}

// isDescendant reports whether targetID sits anywhere below startID in the
// edge set. Used to refuse an edge that would make the new parent a
// descendant of its own child.
func isDescendant(edges []*types.ContentRelationship, startID, targetID uuid.UUID) bool {
	childrenOf := make(map[uuid.UUID][]uuid.UUID, len(edges))
	for _, edge := range edges {
		childrenOf[edge.ParentID] = append(childrenOf[edge.ParentID], edge.ChildID)
	}

	visited := map[uuid.UUID]bool{}
	queue := append([]uuid.UUID{}, childrenOf[startID]...)
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if visited[current] {
			continue
		}
		visited[current] = true
		if current == targetID {
			return true
		}
		queue = append(queue, childrenOf[current]...)
	}
	return false
}
