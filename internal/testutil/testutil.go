package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/logger"
	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/requestdata"
	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/types"
)

var (
	logOnce sync.Once
	logg    *logger.Logger
	logErr  error
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	logOnce.Do(func() {
		logg, logErr = logger.New("test")
	})
	if logErr != nil {
		tb.Fatalf("failed to init logger: %v", logErr)
	}
	return logg
}

// DB opens a fresh in-memory database per test so tests never share state.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		tb.Fatalf("failed to open test db: %v", err)
	}
	if err := db.AutoMigrate(
		&types.User{},
		&types.Universe{},
		&types.ContentNode{},
		&types.ContentRelationship{},
	); err != nil {
		tb.Fatalf("failed to migrate test db: %v", err)
	}
	return db
}

// Ctx builds a request context acting as the given user.
func Ctx(userID uuid.UUID) context.Context {
	return requestdata.WithRequestData(context.Background(), &requestdata.RequestData{UserID: userID})
}

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:    uuid.New(),
		Email: email,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedUniverse(tb testing.TB, ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, name string) *types.Universe {
	tb.Helper()
	u := &types.Universe{
		ID:      uuid.New(),
		OwnerID: ownerID,
		Name:    name,
		Slug:    fmt.Sprintf("%s-%s", name, uuid.New().String()[:8]),
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed universe: %v", err)
	}
	return u
}

// SeedContent creates one node; viewable nodes start at progress 0. The
// createdAt offset keeps creation-time ordering deterministic in tests.
func SeedContent(tb testing.TB, ctx context.Context, tx *gorm.DB, universe *types.Universe, name, mediaType string, createdOffset time.Duration) *types.ContentNode {
	tb.Helper()
	node := &types.ContentNode{
		ID:         uuid.New(),
		UniverseID: universe.ID,
		OwnerID:    universe.OwnerID,
		Name:       name,
		MediaType:  mediaType,
		IsViewable: types.IsViewableMediaType(mediaType),
		CreatedAt:  time.Now().Add(createdOffset),
	}
	if node.IsViewable {
		zero := 0
		node.Progress = &zero
	}
	if err := tx.WithContext(ctx).Create(node).Error; err != nil {
		tb.Fatalf("seed content: %v", err)
	}
	return node
}

func SeedRelationship(tb testing.TB, ctx context.Context, tx *gorm.DB, parent, child *types.ContentNode, displayOrder int) *types.ContentRelationship {
	tb.Helper()
	edge := &types.ContentRelationship{
		ID:           uuid.New(),
		UniverseID:   parent.UniverseID,
		OwnerID:      parent.OwnerID,
		ChildID:      child.ID,
		ParentID:     parent.ID,
		DisplayOrder: displayOrder,
	}
	if err := tx.WithContext(ctx).Create(edge).Error; err != nil {
		tb.Fatalf("seed relationship: %v", err)
	}
	return edge
}

func SetProgress(tb testing.TB, ctx context.Context, tx *gorm.DB, node *types.ContentNode, value int) {
	tb.Helper()
	if err := tx.WithContext(ctx).
		Model(&types.ContentNode{}).
		Where("id = ?", node.ID).
		Update("progress", value).Error; err != nil {
		tb.Fatalf("set progress: %v", err)
	}
	node.Progress = &value
}
