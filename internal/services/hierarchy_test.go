package services

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/apperr"
	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/testutil"
	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/types"
)

func TestUniverseTree(t *testing.T) {
	f := newProgressFixture(t)

	forest, err := f.hierarchySvc.UniverseTree(f.ctx, nil, f.universe.ID)
	if err != nil {
		t.Fatalf("UniverseTree: %v", err)
	}
	if len(forest) != 1 {
		t.Fatalf("expected one root, got %d", len(forest))
	}
	if forest[0].ContentID != f.series.ID {
		t.Fatalf("expected series as root, got %s", forest[0].ContentID)
	}
	if len(forest[0].Children) != 1 || forest[0].Children[0].ContentID != f.season.ID {
		t.Fatalf("expected season under series")
	}
	if len(forest[0].Children[0].Children) != 2 {
		t.Fatalf("expected two episodes under season")
	}
}

func TestUniverseTreeOwnership(t *testing.T) {
	f := newProgressFixture(t)

	if _, err := f.hierarchySvc.UniverseTree(f.otherUserCtx(t), nil, f.universe.ID); !errors.Is(err, apperr.ErrAccessDenied) {
		t.Fatalf("expected access denied, got %v", err)
	}
	if _, err := f.hierarchySvc.UniverseTree(f.ctx, nil, uuid.New()); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestChildrenAtTopLevelIncludesUnorganised(t *testing.T) {
	f := newProgressFixture(t)

	children, err := f.hierarchySvc.ChildrenAt(f.ctx, nil, f.universe.ID, uuid.Nil)
	if err != nil {
		t.Fatalf("ChildrenAt: %v", err)
	}
	if len(children) != 2 {
		t.Fatalf("expected root plus unorganised leaf, got %d", len(children))
	}
	if children[0].ID != f.series.ID || children[1].ID != f.special.ID {
		t.Fatalf("expected [series, special], got [%s, %s]", children[0].ID, children[1].ID)
	}
}

func TestAncestorPathThroughService(t *testing.T) {
	f := newProgressFixture(t)

	path, err := f.hierarchySvc.AncestorPath(f.ctx, nil, f.universe.ID, f.e2.ID)
	if err != nil {
		t.Fatalf("AncestorPath: %v", err)
	}
	want := []uuid.UUID{f.series.ID, f.season.ID, f.e2.ID}
	if len(path) != len(want) {
		t.Fatalf("expected path of %d, got %d", len(want), len(path))
	}
	for i, id := range want {
		if path[i].ID != id {
			t.Fatalf("path entry %d: expected %s, got %s", i, id, path[i].ID)
		}
	}

	// unorganised content falls back to an empty path
	path, err = f.hierarchySvc.AncestorPath(f.ctx, nil, f.universe.ID, f.special.ID)
	if err != nil {
		t.Fatalf("AncestorPath: %v", err)
	}
	if len(path) != 0 {
		t.Fatalf("expected empty path for unorganised content, got %d entries", len(path))
	}
}

func TestHasChildrenThroughService(t *testing.T) {
	f := newProgressFixture(t)

	got, err := f.hierarchySvc.HasChildren(f.ctx, nil, f.universe.ID, f.season.ID)
	if err != nil {
		t.Fatalf("HasChildren: %v", err)
	}
	if !got {
		t.Fatalf("season has children")
	}

	got, err = f.hierarchySvc.HasChildren(f.ctx, nil, f.universe.ID, f.e1.ID)
	if err != nil {
		t.Fatalf("HasChildren: %v", err)
	}
	if got {
		t.Fatalf("a leaf has no children")
	}
}

// Removing an edge returns its subtree to the top level on the next read.
func TestTreeReflectsEdgeRemoval(t *testing.T) {
	f := newFixture(t)
	universe := testutil.SeedUniverse(t, f.ctx, f.db, f.user.ID, "marvel")
	phase := testutil.SeedContent(t, f.ctx, f.db, universe, "Phase One", types.MediaTypeCollection, 0)
	film := testutil.SeedContent(t, f.ctx, f.db, universe, "Iron Man", types.MediaTypeVideo, time.Second)
	edge := testutil.SeedRelationship(t, f.ctx, f.db, phase, film, 0)

	if err := f.relationshipSvc.Delete(f.ctx, nil, edge.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	children, err := f.hierarchySvc.ChildrenAt(f.ctx, nil, universe.ID, uuid.Nil)
	if err != nil {
		t.Fatalf("ChildrenAt: %v", err)
	}
	if len(children) != 2 {
		t.Fatalf("expected both nodes at top level, got %d", len(children))
	}
}
