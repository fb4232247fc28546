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

func TestCreateUniverseSlug(t *testing.T) {
	f := newFixture(t)

	universe, err := f.universeSvc.Create(f.ctx, nil, CreateUniverseInput{Name: "The Marvel Cinematic Universe!"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if universe.Slug != "the-marvel-cinematic-universe" {
		t.Fatalf("unexpected slug %q", universe.Slug)
	}
	if universe.OwnerID != f.user.ID {
		t.Fatalf("expected the acting user as owner")
	}
}

func TestCreateUniverseSlugCollision(t *testing.T) {
	f := newFixture(t)

	first, err := f.universeSvc.Create(f.ctx, nil, CreateUniverseInput{Name: "Marvel"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	second, err := f.universeSvc.Create(f.ctx, nil, CreateUniverseInput{Name: "Marvel"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	third, err := f.universeSvc.Create(f.ctx, nil, CreateUniverseInput{Name: "Marvel"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if first.Slug != "marvel" || second.Slug != "marvel-2" || third.Slug != "marvel-3" {
		t.Fatalf("unexpected slugs %q, %q, %q", first.Slug, second.Slug, third.Slug)
	}
}

func TestCreateUniverseSlugFallback(t *testing.T) {
	f := newFixture(t)

	universe, err := f.universeSvc.Create(f.ctx, nil, CreateUniverseInput{Name: "!!!"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if universe.Slug != "universe" {
		t.Fatalf("expected fallback slug, got %q", universe.Slug)
	}
	if universe.Name != "!!!" {
		t.Fatalf("the display name keeps its original form, got %q", universe.Name)
	}
}

func TestGetUniverseOwnership(t *testing.T) {
	f := newFixture(t)
	universe := testutil.SeedUniverse(t, f.ctx, f.db, f.user.ID, "marvel")

	got, err := f.universeSvc.Get(f.ctx, nil, universe.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != universe.ID {
		t.Fatalf("expected universe %s, got %s", universe.ID, got.ID)
	}

	if _, err := f.universeSvc.Get(f.otherUserCtx(t), nil, universe.ID); !errors.Is(err, apperr.ErrAccessDenied) {
		t.Fatalf("expected access denied, got %v", err)
	}
	if _, err := f.universeSvc.Get(f.ctx, nil, uuid.New()); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListOwnedUniverses(t *testing.T) {
	f := newFixture(t)
	testutil.SeedUniverse(t, f.ctx, f.db, f.user.ID, "marvel")
	testutil.SeedUniverse(t, f.ctx, f.db, f.user.ID, "tolkien")

	strangerCtx := f.otherUserCtx(t)

	owned, err := f.universeSvc.ListOwned(f.ctx, nil)
	if err != nil {
		t.Fatalf("ListOwned: %v", err)
	}
	if len(owned) != 2 {
		t.Fatalf("expected 2 universes, got %d", len(owned))
	}

	owned, err = f.universeSvc.ListOwned(strangerCtx, nil)
	if err != nil {
		t.Fatalf("ListOwned: %v", err)
	}
	if len(owned) != 0 {
		t.Fatalf("a fresh account owns nothing, got %d", len(owned))
	}
}

func TestUpdateUniverse(t *testing.T) {
	f := newFixture(t)
	universe := testutil.SeedUniverse(t, f.ctx, f.db, f.user.ID, "marvel")

	name := "Marvel (Earth-616)"
	description := "  the main continuity  "
	updated, err := f.universeSvc.Update(f.ctx, nil, universe.ID, UpdateUniverseInput{
		Name:        &name,
		Description: &description,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Name != name || updated.Description != "the main continuity" {
		t.Fatalf("unexpected update result: %+v", updated)
	}

	blank := " "
	if _, err := f.universeSvc.Update(f.ctx, nil, universe.ID, UpdateUniverseInput{Name: &blank}); !apperr.IsInvalidOperation(err) {
		t.Fatalf("expected invalid operation for a blank name, got %v", err)
	}
}

func TestDeleteUniverseCascades(t *testing.T) {
	f := newFixture(t)
	universe := testutil.SeedUniverse(t, f.ctx, f.db, f.user.ID, "marvel")
	phase := testutil.SeedContent(t, f.ctx, f.db, universe, "Phase One", types.MediaTypeCollection, 0)
	film := testutil.SeedContent(t, f.ctx, f.db, universe, "Iron Man", types.MediaTypeVideo, time.Second)
	testutil.SeedRelationship(t, f.ctx, f.db, phase, film, 0)

	if err := f.universeSvc.Delete(f.otherUserCtx(t), universe.ID); !errors.Is(err, apperr.ErrAccessDenied) {
		t.Fatalf("expected access denied, got %v", err)
	}
	if err := f.universeSvc.Delete(f.ctx, universe.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	var universes, nodes, edges int64
	if err := f.db.Model(&types.Universe{}).Count(&universes).Error; err != nil {
		t.Fatalf("count universes: %v", err)
	}
	if err := f.db.Unscoped().Model(&types.ContentNode{}).Count(&nodes).Error; err != nil {
		t.Fatalf("count content: %v", err)
	}
	if err := f.db.Model(&types.ContentRelationship{}).Count(&edges).Error; err != nil {
		t.Fatalf("count edges: %v", err)
	}
	if universes != 0 || nodes != 0 || edges != 0 {
		t.Fatalf("expected a full cascade, got %d universes, %d nodes, %d edges", universes, nodes, edges)
	}
}
