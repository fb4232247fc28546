package services

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/apperr"
	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/sse"
	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/testutil"
	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/types"
)

func TestCreateRelationship(t *testing.T) {
	f := newFixture(t)
	universe := testutil.SeedUniverse(t, f.ctx, f.db, f.user.ID, "marvel")
	phase := testutil.SeedContent(t, f.ctx, f.db, universe, "Phase One", types.MediaTypeCollection, 0)
	film := testutil.SeedContent(t, f.ctx, f.db, universe, "Iron Man", types.MediaTypeVideo, time.Second)

	edge, err := f.relationshipSvc.Create(f.ctx, nil, CreateRelationshipInput{
		ParentID: phase.ID,
		ChildID:  film.ID,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if edge.ParentID != phase.ID || edge.ChildID != film.ID || edge.UniverseID != universe.ID {
		t.Fatalf("unexpected edge: %+v", edge)
	}
	if edge.DisplayOrder != 0 {
		t.Fatalf("first child defaults to display order 0, got %d", edge.DisplayOrder)
	}

	events := f.emitter.Events()
	if len(events) != 1 || events[0] != sse.SSEEventHierarchyChanged {
		t.Fatalf("expected one HierarchyChanged event, got %v", events)
	}
}

// Inside a caller-supplied transaction nothing is announced; a rollback
// must not leave a notification for an edge that never existed.
func TestCreateRelationshipInTransactionDefersNotify(t *testing.T) {
	f := newFixture(t)
	universe := testutil.SeedUniverse(t, f.ctx, f.db, f.user.ID, "marvel")
	phase := testutil.SeedContent(t, f.ctx, f.db, universe, "Phase One", types.MediaTypeCollection, 0)
	film := testutil.SeedContent(t, f.ctx, f.db, universe, "Iron Man", types.MediaTypeVideo, time.Second)

	tx := f.db.Begin()
	if tx.Error != nil {
		t.Fatalf("begin: %v", tx.Error)
	}
	if _, err := f.relationshipSvc.Create(f.ctx, tx, CreateRelationshipInput{
		ParentID: phase.ID,
		ChildID:  film.ID,
	}); err != nil {
		tx.Rollback()
		t.Fatalf("Create: %v", err)
	}
	if events := f.emitter.Events(); len(events) != 0 {
		tx.Rollback()
		t.Fatalf("expected no events before commit, got %v", events)
	}
	if err := tx.Rollback().Error; err != nil {
		t.Fatalf("rollback: %v", err)
	}

	var count int64
	if err := f.db.Model(&types.ContentRelationship{}).Count(&count).Error; err != nil {
		t.Fatalf("count edges: %v", err)
	}
	if count != 0 {
		t.Fatalf("rolled-back edge persisted")
	}
	if events := f.emitter.Events(); len(events) != 0 {
		t.Fatalf("expected no events for a rolled-back edge, got %v", events)
	}
}

func TestCreateRelationshipAppendsDisplayOrder(t *testing.T) {
	f := newFixture(t)
	universe := testutil.SeedUniverse(t, f.ctx, f.db, f.user.ID, "marvel")
	phase := testutil.SeedContent(t, f.ctx, f.db, universe, "Phase One", types.MediaTypeCollection, 0)
	first := testutil.SeedContent(t, f.ctx, f.db, universe, "Iron Man", types.MediaTypeVideo, time.Second)
	second := testutil.SeedContent(t, f.ctx, f.db, universe, "Thor", types.MediaTypeVideo, 2*time.Second)
	testutil.SeedRelationship(t, f.ctx, f.db, phase, first, 4)

	edge, err := f.relationshipSvc.Create(f.ctx, nil, CreateRelationshipInput{
		ParentID: phase.ID,
		ChildID:  second.ID,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if edge.DisplayOrder != 5 {
		t.Fatalf("expected display order to append after 4, got %d", edge.DisplayOrder)
	}

	explicit := testutil.SeedContent(t, f.ctx, f.db, universe, "Hulk", types.MediaTypeVideo, 3*time.Second)
	edge, err = f.relationshipSvc.Create(f.ctx, nil, CreateRelationshipInput{
		ParentID:     phase.ID,
		ChildID:      explicit.ID,
		DisplayOrder: intPtr(1),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if edge.DisplayOrder != 1 {
		t.Fatalf("explicit display order must win, got %d", edge.DisplayOrder)
	}
}

func TestCreateRelationshipRejectsViewableParent(t *testing.T) {
	f := newFixture(t)
	universe := testutil.SeedUniverse(t, f.ctx, f.db, f.user.ID, "marvel")
	film := testutil.SeedContent(t, f.ctx, f.db, universe, "Iron Man", types.MediaTypeVideo, 0)
	scene := testutil.SeedContent(t, f.ctx, f.db, universe, "Scene", types.MediaTypeVideo, time.Second)

	_, err := f.relationshipSvc.Create(f.ctx, nil, CreateRelationshipInput{
		ParentID: film.ID,
		ChildID:  scene.ID,
	})
	if !apperr.IsInvalidOperation(err) {
		t.Fatalf("expected invalid operation, got %v", err)
	}

	var count int64
	if err := f.db.Model(&types.ContentRelationship{}).Count(&count).Error; err != nil {
		t.Fatalf("count edges: %v", err)
	}
	if count != 0 {
		t.Fatalf("rejected edges must not be written, found %d", count)
	}
}

func TestCreateRelationshipRejectsSecondParent(t *testing.T) {
	f := newFixture(t)
	universe := testutil.SeedUniverse(t, f.ctx, f.db, f.user.ID, "marvel")
	phaseOne := testutil.SeedContent(t, f.ctx, f.db, universe, "Phase One", types.MediaTypeCollection, 0)
	phaseTwo := testutil.SeedContent(t, f.ctx, f.db, universe, "Phase Two", types.MediaTypeCollection, time.Second)
	film := testutil.SeedContent(t, f.ctx, f.db, universe, "Iron Man", types.MediaTypeVideo, 2*time.Second)
	testutil.SeedRelationship(t, f.ctx, f.db, phaseOne, film, 0)

	_, err := f.relationshipSvc.Create(f.ctx, nil, CreateRelationshipInput{
		ParentID: phaseTwo.ID,
		ChildID:  film.ID,
	})
	if !apperr.IsInvalidOperation(err) {
		t.Fatalf("expected invalid operation for a second parent, got %v", err)
	}
}

func TestCreateRelationshipRejectsCycle(t *testing.T) {
	f := newFixture(t)
	universe := testutil.SeedUniverse(t, f.ctx, f.db, f.user.ID, "marvel")
	saga := testutil.SeedContent(t, f.ctx, f.db, universe, "Saga", types.MediaTypeCollection, 0)
	phase := testutil.SeedContent(t, f.ctx, f.db, universe, "Phase", types.MediaTypeCollection, time.Second)
	testutil.SeedRelationship(t, f.ctx, f.db, saga, phase, 0)

	// phase is a descendant of saga; making it saga's parent closes a loop
	_, err := f.relationshipSvc.Create(f.ctx, nil, CreateRelationshipInput{
		ParentID: phase.ID,
		ChildID:  saga.ID,
	})
	if !apperr.IsInvalidOperation(err) {
		t.Fatalf("expected invalid operation for a cycle, got %v", err)
	}

	_, err = f.relationshipSvc.Create(f.ctx, nil, CreateRelationshipInput{
		ParentID: saga.ID,
		ChildID:  saga.ID,
	})
	if !apperr.IsInvalidOperation(err) {
		t.Fatalf("expected invalid operation for self-parenting, got %v", err)
	}
}

func TestCreateRelationshipRejectsCrossUniverse(t *testing.T) {
	f := newFixture(t)
	marvel := testutil.SeedUniverse(t, f.ctx, f.db, f.user.ID, "marvel")
	tolkien := testutil.SeedUniverse(t, f.ctx, f.db, f.user.ID, "tolkien")
	phase := testutil.SeedContent(t, f.ctx, f.db, marvel, "Phase One", types.MediaTypeCollection, 0)
	hobbit := testutil.SeedContent(t, f.ctx, f.db, tolkien, "The Hobbit", types.MediaTypeVideo, time.Second)

	_, err := f.relationshipSvc.Create(f.ctx, nil, CreateRelationshipInput{
		ParentID: phase.ID,
		ChildID:  hobbit.ID,
	})
	if !apperr.IsInvalidOperation(err) {
		t.Fatalf("expected invalid operation across universes, got %v", err)
	}
}

func TestCreateRelationshipOwnershipAndExistence(t *testing.T) {
	f := newFixture(t)
	universe := testutil.SeedUniverse(t, f.ctx, f.db, f.user.ID, "marvel")
	phase := testutil.SeedContent(t, f.ctx, f.db, universe, "Phase One", types.MediaTypeCollection, 0)
	film := testutil.SeedContent(t, f.ctx, f.db, universe, "Iron Man", types.MediaTypeVideo, time.Second)

	_, err := f.relationshipSvc.Create(f.otherUserCtx(t), nil, CreateRelationshipInput{
		ParentID: phase.ID,
		ChildID:  film.ID,
	})
	if !errors.Is(err, apperr.ErrAccessDenied) {
		t.Fatalf("expected access denied, got %v", err)
	}

	_, err = f.relationshipSvc.Create(f.ctx, nil, CreateRelationshipInput{
		ParentID: phase.ID,
		ChildID:  uuid.New(),
	})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeleteRelationship(t *testing.T) {
	f := newFixture(t)
	universe := testutil.SeedUniverse(t, f.ctx, f.db, f.user.ID, "marvel")
	phase := testutil.SeedContent(t, f.ctx, f.db, universe, "Phase One", types.MediaTypeCollection, 0)
	film := testutil.SeedContent(t, f.ctx, f.db, universe, "Iron Man", types.MediaTypeVideo, time.Second)
	edge := testutil.SeedRelationship(t, f.ctx, f.db, phase, film, 0)

	if err := f.relationshipSvc.Delete(f.otherUserCtx(t), nil, edge.ID); !errors.Is(err, apperr.ErrAccessDenied) {
		t.Fatalf("expected access denied, got %v", err)
	}
	if err := f.relationshipSvc.Delete(f.ctx, nil, uuid.New()); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := f.relationshipSvc.Delete(f.ctx, nil, edge.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	// both nodes survive; only the edge is gone
	var count int64
	if err := f.db.Model(&types.ContentRelationship{}).Count(&count).Error; err != nil {
		t.Fatalf("count edges: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no edges left, found %d", count)
	}
	requireProgress(t, f.db, phase.ID)
	requireProgress(t, f.db, film.ID)
}

func TestReorderChildren(t *testing.T) {
	f := newFixture(t)
	universe := testutil.SeedUniverse(t, f.ctx, f.db, f.user.ID, "marvel")
	phase := testutil.SeedContent(t, f.ctx, f.db, universe, "Phase One", types.MediaTypeCollection, 0)
	a := testutil.SeedContent(t, f.ctx, f.db, universe, "A", types.MediaTypeVideo, time.Second)
	b := testutil.SeedContent(t, f.ctx, f.db, universe, "B", types.MediaTypeVideo, 2*time.Second)
	c := testutil.SeedContent(t, f.ctx, f.db, universe, "C", types.MediaTypeVideo, 3*time.Second)
	testutil.SeedRelationship(t, f.ctx, f.db, phase, a, 0)
	testutil.SeedRelationship(t, f.ctx, f.db, phase, b, 1)
	testutil.SeedRelationship(t, f.ctx, f.db, phase, c, 2)

	if err := f.relationshipSvc.ReorderChildren(f.ctx, phase.ID, []uuid.UUID{b.ID, a.ID, c.ID}); err != nil {
		t.Fatalf("ReorderChildren: %v", err)
	}

	children, err := f.hierarchySvc.ChildrenAt(f.ctx, nil, universe.ID, phase.ID)
	if err != nil {
		t.Fatalf("ChildrenAt: %v", err)
	}
	want := []uuid.UUID{b.ID, a.ID, c.ID}
	if len(children) != len(want) {
		t.Fatalf("expected %d children, got %d", len(want), len(children))
	}
	for i, id := range want {
		if children[i].ID != id {
			t.Fatalf("child %d: expected %s, got %s", i, id, children[i].ID)
		}
	}
}

func TestReorderChildrenRejectsNonChildren(t *testing.T) {
	f := newFixture(t)
	universe := testutil.SeedUniverse(t, f.ctx, f.db, f.user.ID, "marvel")
	phase := testutil.SeedContent(t, f.ctx, f.db, universe, "Phase One", types.MediaTypeCollection, 0)
	a := testutil.SeedContent(t, f.ctx, f.db, universe, "A", types.MediaTypeVideo, time.Second)
	outsider := testutil.SeedContent(t, f.ctx, f.db, universe, "Outsider", types.MediaTypeVideo, 2*time.Second)
	testutil.SeedRelationship(t, f.ctx, f.db, phase, a, 0)

	err := f.relationshipSvc.ReorderChildren(f.ctx, phase.ID, []uuid.UUID{a.ID, outsider.ID})
	if !apperr.IsInvalidOperation(err) {
		t.Fatalf("expected invalid operation, got %v", err)
	}
}
