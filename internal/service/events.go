// internal/service/events.go
package service

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type EventKind string

const (
	EventWorkspaceCreated  EventKind = "workspace.created"
	EventWorkspaceUpdated  EventKind = "workspace.updated"
	EventWorkspaceDeleted  EventKind = "workspace.deleted"
	EventMemberAdded       EventKind = "member.added"
	EventMemberRemoved     EventKind = "member.removed"
	EventMemberRoleChanged EventKind = "member.role_changed"
	EventInvitationCreated EventKind = "invitation.created"
	EventInvitationUpdated EventKind = "invitation.updated"
)

// Event describes one change to a workspace or one of its sub-collections.
// Consumers that need the current state re-read it through the read views;
// events only signal that something changed.
type Event struct {
	Kind         EventKind `json:"kind"`
	WorkspaceID  uuid.UUID `json:"workspace_id"`
	UserID       string    `json:"user_id,omitempty"`
	InvitationID uuid.UUID `json:"invitation_id,omitempty"`
	At           time.Time `json:"at"`
}

// EventBus fans workspace change events out to per-workspace subscribers.
// Delivery is non-blocking: a subscriber that stops draining its channel
// loses events rather than stalling publishers.
type EventBus struct {
	mu   sync.RWMutex
	subs map[uuid.UUID]map[*Subscription]struct{}
}

func NewEventBus() *EventBus {
	return &EventBus{subs: make(map[uuid.UUID]map[*Subscription]struct{})}
}

// Subscription is one subscriber's handle on a workspace's event stream.
// Close is idempotent and must be called when the consumer goes away.
type Subscription struct {
	bus         *EventBus
	workspaceID uuid.UUID
	ch          chan Event
	once        sync.Once
}

// Subscribe registers a subscriber for one workspace's events. buffer bounds
// how far the subscriber may lag before events are dropped.
func (b *EventBus) Subscribe(workspaceID uuid.UUID, buffer int) *Subscription {
	if buffer <= 0 {
		buffer = 16
	}
	sub := &Subscription{
		bus:         b,
		workspaceID: workspaceID,
		ch:          make(chan Event, buffer),
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs[workspaceID] == nil {
		b.subs[workspaceID] = make(map[*Subscription]struct{})
	}
	b.subs[workspaceID][sub] = struct{}{}
	return sub
}

// Events returns the subscriber's receive channel. It is closed by Close.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// Close tears the subscription down and closes the event channel.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.bus.mu.Lock()
		if set, ok := s.bus.subs[s.workspaceID]; ok {
			delete(set, s)
			if len(set) == 0 {
				delete(s.bus.subs, s.workspaceID)
			}
		}
		s.bus.mu.Unlock()
		close(s.ch)
	})
}

// Publish delivers the event to every subscriber of its workspace.
func (b *EventBus) Publish(event Event) {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for sub := range b.subs[event.WorkspaceID] {
		select {
		case sub.ch <- event:
		default:
			// Subscriber is not keeping up; drop rather than block.
		}
	}
}
