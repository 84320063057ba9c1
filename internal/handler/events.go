// internal/handler/events.go
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
	"github.com/sponsorgrid/sponsorgrid/internal/middleware"
	"github.com/sponsorgrid/sponsorgrid/internal/policy"
	"github.com/sponsorgrid/sponsorgrid/internal/service"
)

// EventsHandler streams a workspace's change events over a websocket so
// consumers get push updates instead of polling the read views.
type EventsHandler struct {
	bus         *service.EventBus
	memberships *service.MembershipService
	upgrader    ws.Upgrader
}

func NewEventsHandler(bus *service.EventBus, memberships *service.MembershipService) *EventsHandler {
	return &EventsHandler{
		bus:         bus,
		memberships: memberships,
		upgrader: ws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// StreamWorkspaceEvents handles GET /api/workspaces/{workspaceID}/events.
// The subscription is torn down when the client disconnects.
func (h *EventsHandler) StreamWorkspaceEvents(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	workspaceID, err := uuid.Parse(chi.URLParam(r, "workspaceID"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid workspace id")
		return
	}
	role, err := h.memberships.RoleOf(r.Context(), workspaceID, user.UserID)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	if !policy.CanViewData(role) {
		respondWithError(w, http.StatusForbidden, "Not a member of this workspace")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	sub := h.bus.Subscribe(workspaceID, 64)
	defer sub.Close()

	// Drain (and ignore) client frames so close frames are processed and
	// the read side notices a disconnect.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case event, ok := <-sub.Events():
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}
