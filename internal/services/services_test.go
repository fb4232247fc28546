package services

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/repos"
	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/sse"
	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/testutil"
	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/types"
)

// captureEmitter records every message instead of pushing it anywhere, so
// tests can assert on the fan-out without a hub or broker.
type captureEmitter struct {
	mu       sync.Mutex
	messages []sse.SSEMessage
}

func (e *captureEmitter) Emit(ctx context.Context, msg sse.SSEMessage) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.messages = append(e.messages, msg)
}

func (e *captureEmitter) Messages() []sse.SSEMessage {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]sse.SSEMessage, len(e.messages))
	copy(out, e.messages)
	return out
}

func (e *captureEmitter) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.messages = nil
}

func (e *captureEmitter) Events() []sse.SSEEvent {
	msgs := e.Messages()
	events := make([]sse.SSEEvent, 0, len(msgs))
	for _, msg := range msgs {
		events = append(events, msg.Event)
	}
	return events
}

// fixture wires every service against one in-memory database and one
// capturing emitter, acting as a fresh user.
type fixture struct {
	db      *gorm.DB
	emitter *captureEmitter

	userSvc         UserService
	universeSvc     UniverseService
	hierarchySvc    HierarchyService
	relationshipSvc RelationshipService
	progressSvc     ProgressService
	contentSvc      ContentService

	user *types.User
	ctx  context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.DB(t)
	log := testutil.Logger(t)
	emitter := &captureEmitter{}
	notifier := NewProgressNotifier(emitter)

	userRepo := repos.NewUserRepo(db, log)
	universeRepo := repos.NewUniverseRepo(db, log)
	contentRepo := repos.NewContentRepo(db, log)
	relationshipRepo := repos.NewRelationshipRepo(db, log)

	relationshipSvc := NewRelationshipService(db, log, contentRepo, relationshipRepo, notifier)
	progressSvc := NewProgressService(db, log, universeRepo, contentRepo, relationshipRepo, notifier)

	f := &fixture{
		db:              db,
		emitter:         emitter,
		userSvc:         NewUserService(db, log, userRepo),
		universeSvc:     NewUniverseService(db, log, universeRepo, contentRepo, relationshipRepo),
		hierarchySvc:    NewHierarchyService(db, log, universeRepo, contentRepo, relationshipRepo),
		relationshipSvc: relationshipSvc,
		progressSvc:     progressSvc,
		contentSvc:      NewContentService(db, log, universeRepo, contentRepo, relationshipRepo, relationshipSvc, progressSvc, notifier),
	}

	f.user = testutil.SeedUser(t, context.Background(), db, "owner@canoncore.test")
	f.ctx = testutil.Ctx(f.user.ID)
	return f
}

// otherUserCtx seeds a second account and returns a context acting as it.
func (f *fixture) otherUserCtx(t *testing.T) context.Context {
	t.Helper()
	stranger := testutil.SeedUser(t, context.Background(), f.db, "stranger@canoncore.test")
	return testutil.Ctx(stranger.ID)
}

func intPtr(v int) *int { return &v }

func requireProgress(t *testing.T, db *gorm.DB, contentID uuid.UUID) *types.ContentNode {
	t.Helper()
	var node types.ContentNode
	if err := db.Where("id = ?", contentID).First(&node).Error; err != nil {
		t.Fatalf("load content %s: %v", contentID, err)
	}
	return &node
}
