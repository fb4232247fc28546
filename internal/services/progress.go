package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/apperr"
	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/hierarchy"
	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/logger"
	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/repos"
	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/requestdata"
)

// ProgressUpdate reports one applied leaf-progress change: the leaf, its
// recomputed ancestor chain innermost first, and the fresh universe rollup.
type ProgressUpdate struct {
	ContentID        uuid.UUID   `json:"content_id"`
	Progress         int         `json:"progress"`
	AncestorIDs      []uuid.UUID `json:"ancestor_ids"`
	UniverseID       uuid.UUID   `json:"universe_id"`
	UniverseProgress int         `json:"universe_progress"`
}

type ProgressService interface {
	SetLeafProgress(ctx context.Context, contentID uuid.UUID, value int) (*ProgressUpdate, error)
	RecomputeUniverseProgress(ctx context.Context, tx *gorm.DB, universeID uuid.UUID) (int, error)
	RecomputeAggregates(ctx context.Context, tx *gorm.DB, universeID uuid.UUID) (int, error)
	NodeAggregatedProgress(ctx context.Context, tx *gorm.DB, contentID uuid.UUID) (*int, error)
	RollupAll(ctx context.Context) (map[uuid.UUID]int, error)
	CheckAggregates(ctx context.Context, universeID uuid.UUID) ([]uuid.UUID, error)
}

type progressService struct {
	db               *gorm.DB
	log              *logger.Logger
	universeRepo     repos.UniverseRepo
	contentRepo      repos.ContentRepo
	relationshipRepo repos.RelationshipRepo
	notifier         ProgressNotifier
}

func NewProgressService(
	db *gorm.DB,
	baseLog *logger.Logger,
	universeRepo repos.UniverseRepo,
	contentRepo repos.ContentRepo,
	relationshipRepo repos.RelationshipRepo,
	notifier ProgressNotifier,
) ProgressService {
	return &progressService{
		db:               db,
		log:              baseLog.With("service", "ProgressService"),
		universeRepo:     universeRepo,
		contentRepo:      contentRepo,
		relationshipRepo: relationshipRepo,
		notifier:         notifier,
	}
}

// SetLeafProgress persists a viewable node's progress, then recomputes and
// persists every ancestor's aggregate innermost first, always flattening to
// leaf level rather than averaging sub-group averages. The whole chain runs
// in one transaction; notifications go out only after commit.
func (s *progressService) SetLeafProgress(ctx context.Context, contentID uuid.UUID, value int) (*ProgressUpdate, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apperr.ErrNotAuthenticated
	}
	if contentID == uuid.Nil {
		return nil, fmt.Errorf("missing content id")
	}
	if value < 0 || value > 100 {
		return nil, apperr.InvalidOperation("progress must be between 0 and 100, got %d", value)
	}

	nodes, err := s.contentRepo.GetByIDs(ctx, nil, []uuid.UUID{contentID})
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 || nodes[0] == nil {
		return nil, apperr.ErrNotFound
	}
	target := nodes[0]
	if target.OwnerID != rd.UserID {
		return nil, apperr.ErrAccessDenied
	}
	if !target.IsViewable {
		return nil, apperr.InvalidOperation("progress can only be set on viewable content")
	}

	update := &ProgressUpdate{
		ContentID:  contentID,
		Progress:   value,
		UniverseID: target.UniverseID,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.contentRepo.UpdateProgress(ctx, tx, contentID, value); err != nil {
			return err
		}

		state, err := loadUniverseState(ctx, tx, s.contentRepo, s.relationshipRepo, target.UniverseID)
		if err != nil {
			return err
		}
		// the read above may race a concurrent writer; trust our own value
		if node := state.nodesByID[contentID]; node != nil {
			v := value
			node.Progress = &v
		}

		path := hierarchy.AncestorPath(state.forest, state.nodesByID, contentID)
		for i := len(path) - 2; i >= 0; i-- {
			ancestor := path[i]
			if ancestor.IsViewable {
				continue
			}
			treeNode := hierarchy.FindNode(state.forest, ancestor.ID)
			if treeNode == nil {
				continue
			}
			expected := hierarchy.AggregatedProgressFor(treeNode, state.nodesByID)
			if err := s.contentRepo.UpdateAggregatedProgress(ctx, tx, ancestor.ID, expected); err != nil {
				return err
			}
			ancestor.AggregatedProgress = expected
			update.AncestorIDs = append(update.AncestorIDs, ancestor.ID)
		}

		update.UniverseProgress = hierarchy.UniverseRollup(state.nodes)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.ContentProgressChanged(update.UniverseID, contentID, value, update.AncestorIDs)
	s.notifier.UniverseProgressChanged(update.UniverseID, update.UniverseProgress)
	return update, nil
}

// RecomputeUniverseProgress is a pure read: the rollup over every viewable
// node in the universe. Callers decide whether to persist or broadcast it.
func (s *progressService) RecomputeUniverseProgress(ctx context.Context, tx *gorm.DB, universeID uuid.UUID) (int, error) {
	if universeID == uuid.Nil {
		return 0, fmt.Errorf("missing universe id")
	}

	transaction := tx
	if transaction == nil {
		transaction = s.db
	}
	if err := s.requireUniverse(ctx, transaction, universeID); err != nil {
		return 0, err
	}

	nodes, err := s.contentRepo.GetByUniverseID(ctx, transaction, universeID)
	if err != nil {
		return 0, err
	}
	return hierarchy.UniverseRollup(nodes), nil
}

// RecomputeAggregates rebuilds every organisational aggregate in the
// universe from leaf data and returns the rollup. This is the self-healing
// path after structural changes (content deletion, reparenting) and for
// data written outside the service.
func (s *progressService) RecomputeAggregates(ctx context.Context, tx *gorm.DB, universeID uuid.UUID) (int, error) {
	if universeID == uuid.Nil {
		return 0, fmt.Errorf("missing universe id")
	}

	transaction := tx
	if transaction == nil {
		transaction = s.db
	}
	if err := s.requireUniverse(ctx, transaction, universeID); err != nil {
		return 0, err
	}

	state, err := loadUniverseState(ctx, transaction, s.contentRepo, s.relationshipRepo, universeID)
	if err != nil {
		return 0, err
	}

	for _, node := range state.nodes {
		if node.IsViewable {
			continue
		}
		treeNode := hierarchy.FindNode(state.forest, node.ID)
		var expected *int
		if treeNode != nil {
			expected = hierarchy.AggregatedProgressFor(treeNode, state.nodesByID)
		}
		if aggregatesEqual(node.AggregatedProgress, expected) {
			continue
		}
		if err := s.contentRepo.UpdateAggregatedProgress(ctx, transaction, node.ID, expected); err != nil {
			return 0, err
		}
		node.AggregatedProgress = expected
	}

	return hierarchy.UniverseRollup(state.nodes), nil
}

func (s *progressService) NodeAggregatedProgress(ctx context.Context, tx *gorm.DB, contentID uuid.UUID) (*int, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apperr.ErrNotAuthenticated
	}
	if contentID == uuid.Nil {
		return nil, fmt.Errorf("missing content id")
	}

	transaction := tx
	if transaction == nil {
		transaction = s.db
	}

	nodes, err := s.contentRepo.GetByIDs(ctx, transaction, []uuid.UUID{contentID})
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 || nodes[0] == nil {
		return nil, apperr.ErrNotFound
	}
	target := nodes[0]
	if target.OwnerID != rd.UserID {
		return nil, apperr.ErrAccessDenied
	}
	if target.IsViewable {
		return target.Progress, nil
	}

	state, err := loadUniverseState(ctx, transaction, s.contentRepo, s.relationshipRepo, target.UniverseID)
	if err != nil {
		return nil, err
	}
	treeNode := hierarchy.FindNode(state.forest, contentID)
	if treeNode == nil {
		return nil, nil
	}
	return hierarchy.AggregatedProgressFor(treeNode, state.nodesByID), nil
}

// RollupAll computes the rollup for every universe the acting user owns.
// The per-universe reads are independent, so they fan out concurrently.
func (s *progressService) RollupAll(ctx context.Context) (map[uuid.UUID]int, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apperr.ErrNotAuthenticated
	}

	universes, err := s.universeRepo.GetByOwnerID(ctx, nil, rd.UserID)
	if err != nil {
		return nil, err
	}

	results := make(map[uuid.UUID]int, len(universes))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, universe := range universes {
		universeID := universe.ID
		g.Go(func() error {
			rollup, err := s.RecomputeUniverseProgress(gctx, nil, universeID)
			if err != nil {
				return err
			}
			mu.Lock()
			results[universeID] = rollup
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// CheckAggregates compares every stored aggregate against its recomputed
// expectation and returns the ids that drift by more than the epsilon.
// Drift is logged, never fatal; recompute-on-read is the recovery path.
func (s *progressService) CheckAggregates(ctx context.Context, universeID uuid.UUID) ([]uuid.UUID, error) {
	if universeID == uuid.Nil {
		return nil, fmt.Errorf("missing universe id")
	}
	if err := s.requireUniverse(ctx, nil, universeID); err != nil {
		return nil, err
	}

	state, err := loadUniverseState(ctx, nil, s.contentRepo, s.relationshipRepo, universeID)
	if err != nil {
		return nil, err
	}

	var drifted []uuid.UUID
	for _, node := range state.nodes {
		if node.IsViewable {
			continue
		}
		treeNode := hierarchy.FindNode(state.forest, node.ID)
		var expected *int
		if treeNode != nil {
			expected = hierarchy.AggregatedProgressFor(treeNode, state.nodesByID)
		}
		if s.flagDrift(node.ID, node.AggregatedProgress, expected) {
			drifted = append(drifted, node.ID)
		}
	}
	return drifted, nil
}

// requireUniverse resolves the universe and checks the acting user owns it.
// Every read or recompute on a universe's progress data goes through this,
// matching the guard on the hierarchy reads.
func (s *progressService) requireUniverse(ctx context.Context, tx *gorm.DB, universeID uuid.UUID) error {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return apperr.ErrNotAuthenticated
	}

	universes, err := s.universeRepo.GetByIDs(ctx, tx, []uuid.UUID{universeID})
	if err != nil {
		return err
	}
	if len(universes) == 0 || universes[0] == nil {
		return apperr.ErrNotFound
	}
	if universes[0].OwnerID != rd.UserID {
		return apperr.ErrAccessDenied
	}
	return nil
}

// flagDrift logs when a stored aggregate disagrees with its expectation by
// more than the epsilon. Returns whether it drifted.
func (s *progressService) flagDrift(contentID uuid.UUID, stored, expected *int) bool {
	if aggregatesEqual(stored, expected) {
		return false
	}
	if stored != nil && expected != nil && hierarchy.WithinEpsilon(*stored, *expected) {
		return false
	}
	s.log.Warn("aggregated progress drift",
		"content_id", contentID,
		"stored", progressString(stored),
		"expected", progressString(expected),
	)
	return true
}

func aggregatesEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func progressString(v *int) string {
	if v == nil {
		return "nil"
	}
	return fmt.Sprintf("%d", *v)
}

