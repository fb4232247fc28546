package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/apperr"
	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/hierarchy"
	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/logger"
	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/repos"
	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/requestdata"
	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/types"
)

// HierarchyService answers the read-side questions the presentation layer
// asks after each mutation: what lives at a level, what is the breadcrumb
// path to a node, what does the whole tree look like.
type HierarchyService interface {
	UniverseTree(ctx context.Context, tx *gorm.DB, universeID uuid.UUID) ([]*hierarchy.TreeNode, error)
	ChildrenAt(ctx context.Context, tx *gorm.DB, universeID, levelID uuid.UUID) ([]*types.ContentNode, error)
	AncestorPath(ctx context.Context, tx *gorm.DB, universeID, contentID uuid.UUID) ([]*types.ContentNode, error)
	HasChildren(ctx context.Context, tx *gorm.DB, universeID, contentID uuid.UUID) (bool, error)
}

type hierarchyService struct {
	db               *gorm.DB
	log              *logger.Logger
	universeRepo     repos.UniverseRepo
	contentRepo      repos.ContentRepo
	relationshipRepo repos.RelationshipRepo
}

func NewHierarchyService(
	db *gorm.DB,
	baseLog *logger.Logger,
	universeRepo repos.UniverseRepo,
	contentRepo repos.ContentRepo,
	relationshipRepo repos.RelationshipRepo,
) HierarchyService {
	return &hierarchyService{
		db:               db,
		log:              baseLog.With("service", "HierarchyService"),
		universeRepo:     universeRepo,
		contentRepo:      contentRepo,
		relationshipRepo: relationshipRepo,
	}
}

// universeState is everything the pure hierarchy functions need, fetched in
// two reads. The builder and resolver never touch the store themselves.
type universeState struct {
	nodes     []*types.ContentNode
	nodesByID map[uuid.UUID]*types.ContentNode
	edges     []*types.ContentRelationship
	forest    []*hierarchy.TreeNode
}

func loadUniverseState(ctx context.Context, tx *gorm.DB, contentRepo repos.ContentRepo, relationshipRepo repos.RelationshipRepo, universeID uuid.UUID) (*universeState, error) {
	nodes, err := contentRepo.GetByUniverseID(ctx, tx, universeID)
	if err != nil {
		return nil, err
	}
	edges, err := relationshipRepo.GetByUniverseID(ctx, tx, universeID)
	if err != nil {
		return nil, err
	}

	nodesByID := make(map[uuid.UUID]*types.ContentNode, len(nodes))
	for _, node := range nodes {
		nodesByID[node.ID] = node
	}

	return &universeState{
		nodes:     nodes,
		nodesByID: nodesByID,
		edges:     edges,
		forest:    hierarchy.BuildTree(edges, nodesByID),
	}, nil
}

func (s *hierarchyService) requireUniverse(ctx context.Context, tx *gorm.DB, universeID uuid.UUID) error {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return apperr.ErrNotAuthenticated
	}
	rows, err := s.universeRepo.GetByIDs(ctx, tx, []uuid.UUID{universeID})
	if err != nil {
		return err
	}
	if len(rows) == 0 || rows[0] == nil {
		return apperr.ErrNotFound
	}
	if rows[0].OwnerID != rd.UserID {
		return apperr.ErrAccessDenied
	}
	return nil
}

func (s *hierarchyService) UniverseTree(ctx context.Context, tx *gorm.DB, universeID uuid.UUID) ([]*hierarchy.TreeNode, error) {
	transaction := tx
	if transaction == nil {
		transaction = s.db
	}
	if err := s.requireUniverse(ctx, transaction, universeID); err != nil {
		return nil, err
	}
	state, err := loadUniverseState(ctx, transaction, s.contentRepo, s.relationshipRepo, universeID)
	if err != nil {
		return nil, err
	}
	return state.forest, nil
}

func (s *hierarchyService) ChildrenAt(ctx context.Context, tx *gorm.DB, universeID, levelID uuid.UUID) ([]*types.ContentNode, error) {
	transaction := tx
	if transaction == nil {
		transaction = s.db
	}
	if err := s.requireUniverse(ctx, transaction, universeID); err != nil {
		return nil, err
	}
	state, err := loadUniverseState(ctx, transaction, s.contentRepo, s.relationshipRepo, universeID)
	if err != nil {
		return nil, err
	}
	return hierarchy.ChildrenAt(state.forest, state.nodesByID, levelID), nil
}

func (s *hierarchyService) AncestorPath(ctx context.Context, tx *gorm.DB, universeID, contentID uuid.UUID) ([]*types.ContentNode, error) {
	transaction := tx
	if transaction == nil {
		transaction = s.db
	}
	if err := s.requireUniverse(ctx, transaction, universeID); err != nil {
		return nil, err
	}
	state, err := loadUniverseState(ctx, transaction, s.contentRepo, s.relationshipRepo, universeID)
	if err != nil {
		return nil, err
	}
	return hierarchy.AncestorPath(state.forest, state.nodesByID, contentID), nil
}

func (s *hierarchyService) HasChildren(ctx context.Context, tx *gorm.DB, universeID, contentID uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = s.db
	}
	if err := s.requireUniverse(ctx, transaction, universeID); err != nil {
		return false, err
	}
	state, err := loadUniverseState(ctx, transaction, s.contentRepo, s.relationshipRepo, universeID)
	if err != nil {
		return false, err
	}
	return hierarchy.HasChildren(state.forest, contentID), nil
}
