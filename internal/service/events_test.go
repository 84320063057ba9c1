package service_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sponsorgrid/sponsorgrid/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBusDelivery(t *testing.T) {
	bus := service.NewEventBus()
	workspaceID := uuid.New()
	otherID := uuid.New()

	sub := bus.Subscribe(workspaceID, 4)
	defer sub.Close()
	other := bus.Subscribe(otherID, 4)
	defer other.Close()

	bus.Publish(service.Event{Kind: service.EventMemberAdded, WorkspaceID: workspaceID, UserID: "user-1"})

	select {
	case event := <-sub.Events():
		assert.Equal(t, service.EventMemberAdded, event.Kind)
		assert.Equal(t, "user-1", event.UserID)
		assert.False(t, event.At.IsZero(), "publish stamps the event time")
	case <-time.After(time.Second):
		t.Fatal("expected an event for the subscribed workspace")
	}

	select {
	case event := <-other.Events():
		t.Fatalf("unexpected event %q for an unrelated workspace", event.Kind)
	default:
	}
}

func TestEventBusSlowSubscriberDoesNotBlock(t *testing.T) {
	bus := service.NewEventBus()
	workspaceID := uuid.New()

	sub := bus.Subscribe(workspaceID, 1)
	defer sub.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Nobody drains the channel; extra events must be dropped, not
		// stall the publisher.
		for i := 0; i < 10; i++ {
			bus.Publish(service.Event{Kind: service.EventWorkspaceUpdated, WorkspaceID: workspaceID})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publisher blocked on a slow subscriber")
	}

	event := <-sub.Events()
	assert.Equal(t, service.EventWorkspaceUpdated, event.Kind)
}

func TestEventBusClose(t *testing.T) {
	bus := service.NewEventBus()
	workspaceID := uuid.New()

	sub := bus.Subscribe(workspaceID, 4)
	sub.Close()
	sub.Close() // idempotent

	_, open := <-sub.Events()
	require.False(t, open, "closed subscription's channel is closed")

	// publishing after close must not panic on the closed channel
	bus.Publish(service.Event{Kind: service.EventWorkspaceDeleted, WorkspaceID: workspaceID})
}
