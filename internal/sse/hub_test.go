package sse

import (
	"testing"

	"github.com/google/uuid"

	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/logger"
)

func newTestHub(t *testing.T) *SSEHub {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return NewSSEHub(log)
}

func TestBroadcastToSubscribedChannel(t *testing.T) {
	hub := newTestHub(t)
	universeID := uuid.New()

	subscriber := hub.NewSSEClient(uuid.New())
	hub.AddChannel(subscriber, UniverseChannel(universeID))

	other := hub.NewSSEClient(uuid.New())
	hub.AddChannel(other, UniverseChannel(uuid.New()))

	msg := SSEMessage{
		Channel: UniverseChannel(universeID),
		Event:   SSEEventUniverseProgressChanged,
		Data:    map[string]int{"progress": 50},
	}
	hub.Broadcast(msg)

	select {
	case got := <-subscriber.Outbound:
		if got.Event != SSEEventUniverseProgressChanged {
			t.Fatalf("expected %s, got %s", SSEEventUniverseProgressChanged, got.Event)
		}
	default:
		t.Fatalf("subscriber received nothing")
	}

	select {
	case got := <-other.Outbound:
		t.Fatalf("unsubscribed client received %s", got.Event)
	default:
	}
}

func TestBroadcastDropsWhenBufferFull(t *testing.T) {
	hub := newTestHub(t)
	channel := UniverseChannel(uuid.New())

	client := hub.NewSSEClient(uuid.New())
	hub.AddChannel(client, channel)

	// nobody is draining; the hub must never block
	for i := 0; i < cap(client.Outbound)+5; i++ {
		hub.Broadcast(SSEMessage{Channel: channel, Event: SSEEventHierarchyChanged})
	}

	if len(client.Outbound) != cap(client.Outbound) {
		t.Fatalf("expected a full buffer, got %d of %d", len(client.Outbound), cap(client.Outbound))
	}
}

func TestRemoveClientStopsDelivery(t *testing.T) {
	hub := newTestHub(t)
	channel := UniverseChannel(uuid.New())

	client := hub.NewSSEClient(uuid.New())
	hub.AddChannel(client, channel)
	hub.RemoveClient(client)

	hub.Broadcast(SSEMessage{Channel: channel, Event: SSEEventHierarchyChanged})

	select {
	case got := <-client.Outbound:
		t.Fatalf("removed client received %s", got.Event)
	default:
	}
}

func TestBroadcastIgnoresEmptyChannel(t *testing.T) {
	hub := newTestHub(t)

	client := hub.NewSSEClient(uuid.New())
	hub.AddChannel(client, "")

	hub.Broadcast(SSEMessage{Channel: "", Event: SSEEventHierarchyChanged})

	select {
	case got := <-client.Outbound:
		t.Fatalf("unexpected delivery of %s", got.Event)
	default:
	}
}
