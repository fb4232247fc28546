package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/sse"
)

// ProgressNotifier is the explicit fan-out surface for hierarchy mutations.
// The progress and content services own one and emit through it after a
// commit; any open view subscribed to the universe channel recomputes the
// affected ancestors without a full reload.
type ProgressNotifier interface {
	ContentProgressChanged(universeID, contentID uuid.UUID, progress int, ancestorIDs []uuid.UUID)
	UniverseProgressChanged(universeID uuid.UUID, progress int)
	ContentCreated(universeID, contentID uuid.UUID)
	ContentDeleted(universeID, contentID uuid.UUID)
	HierarchyChanged(universeID uuid.UUID)
}

type progressNotifier struct {
	emit SSEEmitter
}

func NewProgressNotifier(emit SSEEmitter) ProgressNotifier {
	return &progressNotifier{emit: emit}
}

func (n *progressNotifier) ContentProgressChanged(universeID, contentID uuid.UUID, progress int, ancestorIDs []uuid.UUID) {
	if n == nil || n.emit == nil || universeID == uuid.Nil {
		return
	}
	ancestors := make([]string, 0, len(ancestorIDs))
	for _, id := range ancestorIDs {
		ancestors = append(ancestors, id.String())
	}
	n.emit.Emit(context.Background(), sse.SSEMessage{
		Channel: sse.UniverseChannel(universeID),
		Event:   sse.SSEEventContentProgressChanged,
		Data: map[string]any{
			"content_id":   contentID,
			"progress":     progress,
			"ancestor_ids": ancestors,
			"universe_id":  universeID,
		},
	})
}

func (n *progressNotifier) UniverseProgressChanged(universeID uuid.UUID, progress int) {
	if n == nil || n.emit == nil || universeID == uuid.Nil {
		return
	}
	n.emit.Emit(context.Background(), sse.SSEMessage{
		Channel: sse.UniverseChannel(universeID),
		Event:   sse.SSEEventUniverseProgressChanged,
		Data: map[string]any{
			"universe_id": universeID,
			"progress":    progress,
		},
	})
}

func (n *progressNotifier) ContentCreated(universeID, contentID uuid.UUID) {
	if n == nil || n.emit == nil || universeID == uuid.Nil {
		return
	}
	n.emit.Emit(context.Background(), sse.SSEMessage{
		Channel: sse.UniverseChannel(universeID),
		Event:   sse.SSEEventContentCreated,
		Data:    map[string]any{"universe_id": universeID, "content_id": contentID},
	})
}

func (n *progressNotifier) ContentDeleted(universeID, contentID uuid.UUID) {
	if n == nil || n.emit == nil || universeID == uuid.Nil {
		return
	}
	n.emit.Emit(context.Background(), sse.SSEMessage{
		Channel: sse.UniverseChannel(universeID),
		Event:   sse.SSEEventContentDeleted,
		Data:    map[string]any{"universe_id": universeID, "content_id": contentID},
	})
}

func (n *progressNotifier) HierarchyChanged(universeID uuid.UUID) {
	if n == nil || n.emit == nil || universeID == uuid.Nil {
		return
	}
	n.emit.Emit(context.Background(), sse.SSEMessage{
		Channel: sse.UniverseChannel(universeID),
		Event:   sse.SSEEventHierarchyChanged,
		Data:    map[string]any{"universe_id": universeID},
	})
}
