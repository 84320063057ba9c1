// internal/handler/workspace.go
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sponsorgrid/sponsorgrid/internal/middleware"
	"github.com/sponsorgrid/sponsorgrid/internal/model"
	"github.com/sponsorgrid/sponsorgrid/internal/policy"
	"github.com/sponsorgrid/sponsorgrid/internal/service"
)

type WorkspaceHandler struct {
	workspaces  *service.WorkspaceService
	memberships *service.MembershipService
}

func NewWorkspaceHandler(workspaces *service.WorkspaceService, memberships *service.MembershipService) *WorkspaceHandler {
	return &WorkspaceHandler{
		workspaces:  workspaces,
		memberships: memberships,
	}
}

type WorkspaceResponse struct {
	BaseResponse
	Workspace *model.Workspace `json:"workspace"`
}

type WorkspaceListResponse struct {
	BaseResponse
	Workspaces []*model.Workspace `json:"workspaces"`
}

type MemberListResponse struct {
	BaseResponse
	Members []*model.Membership `json:"members"`
}

// CreateWorkspace handles POST /api/workspaces
func (h *WorkspaceHandler) CreateWorkspace(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var input service.CreateWorkspaceInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	workspace, err := h.workspaces.CreateWorkspace(r.Context(), user, input)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, WorkspaceResponse{BaseResponse: BaseResponse{Ok: true}, Workspace: workspace})
}

// ListWorkspaces handles GET /api/workspaces
func (h *WorkspaceHandler) ListWorkspaces(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	workspaces, err := h.workspaces.ListWorkspacesForUser(r.Context(), user.UserID)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, WorkspaceListResponse{BaseResponse: BaseResponse{Ok: true}, Workspaces: workspaces})
}

// GetWorkspace handles GET /api/workspaces/{workspaceID}
func (h *WorkspaceHandler) GetWorkspace(w http.ResponseWriter, r *http.Request) {
	user, workspaceID, role, ok := h.resolveActor(w, r)
	if !ok {
		return
	}
	if !policy.CanViewData(role) {
		respondWithError(w, http.StatusForbidden, "Not a member of this workspace")
		return
	}

	workspace, err := h.workspaces.GetWorkspace(r.Context(), workspaceID)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}

	// Any authenticated touch is a chance to freshen the cached display
	// fields for this member.
	h.memberships.SyncUserInfo(r.Context(), workspaceID, user.UserID, user)

	respondWithJSON(w, http.StatusOK, WorkspaceResponse{BaseResponse: BaseResponse{Ok: true}, Workspace: workspace})
}

// UpdateWorkspace handles PATCH /api/workspaces/{workspaceID}
func (h *WorkspaceHandler) UpdateWorkspace(w http.ResponseWriter, r *http.Request) {
	_, workspaceID, role, ok := h.resolveActor(w, r)
	if !ok {
		return
	}
	if !policy.CanManageWorkspace(role) {
		respondWithError(w, http.StatusForbidden, "Administrator role required")
		return
	}

	var input service.UpdateWorkspaceInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	workspace, err := h.workspaces.UpdateWorkspace(r.Context(), workspaceID, input)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, WorkspaceResponse{BaseResponse: BaseResponse{Ok: true}, Workspace: workspace})
}

// DeleteWorkspace handles DELETE /api/workspaces/{workspaceID}
func (h *WorkspaceHandler) DeleteWorkspace(w http.ResponseWriter, r *http.Request) {
	_, workspaceID, role, ok := h.resolveActor(w, r)
	if !ok {
		return
	}
	if !policy.CanManageWorkspace(role) {
		respondWithError(w, http.StatusForbidden, "Administrator role required")
		return
	}

	if err := h.workspaces.DeleteWorkspace(r.Context(), workspaceID); err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, BaseResponse{Ok: true})
}

// ListMembers handles GET /api/workspaces/{workspaceID}/members
func (h *WorkspaceHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	_, workspaceID, role, ok := h.resolveActor(w, r)
	if !ok {
		return
	}
	if !policy.CanViewData(role) {
		respondWithError(w, http.StatusForbidden, "Not a member of this workspace")
		return
	}

	members, err := h.memberships.ListMembers(r.Context(), workspaceID)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, MemberListResponse{BaseResponse: BaseResponse{Ok: true}, Members: members})
}

type SetRoleRequest struct {
	Role model.WorkspaceRole `json:"role"`
}

// SetMemberRole handles PUT /api/workspaces/{workspaceID}/members/{userID}/role
func (h *WorkspaceHandler) SetMemberRole(w http.ResponseWriter, r *http.Request) {
	_, workspaceID, role, ok := h.resolveActor(w, r)
	if !ok {
		return
	}
	if !policy.CanManageMembers(role) {
		respondWithError(w, http.StatusForbidden, "Administrator role required")
		return
	}

	var req SetRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	targetID := chi.URLParam(r, "userID")
	if err := h.memberships.SetRole(r.Context(), workspaceID, targetID, req.Role); err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, BaseResponse{Ok: true})
}

// RemoveMember handles DELETE /api/workspaces/{workspaceID}/members/{userID}.
// A member may always remove themselves (leave); removing anyone else takes
// the manage-members capability.
func (h *WorkspaceHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	user, workspaceID, role, ok := h.resolveActor(w, r)
	if !ok {
		return
	}

	targetID := chi.URLParam(r, "userID")
	if targetID != user.UserID && !policy.CanManageMembers(role) {
		respondWithError(w, http.StatusForbidden, "Administrator role required")
		return
	}

	if err := h.memberships.RemoveMember(r.Context(), workspaceID, targetID); err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, BaseResponse{Ok: true})
}

// LeaveWorkspace handles POST /api/workspaces/{workspaceID}/leave
func (h *WorkspaceHandler) LeaveWorkspace(w http.ResponseWriter, r *http.Request) {
	user, workspaceID, _, ok := h.resolveActor(w, r)
	if !ok {
		return
	}

	if err := h.memberships.RemoveMember(r.Context(), workspaceID, user.UserID); err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, BaseResponse{Ok: true})
}

// resolveActor parses the workspace id from the URL and resolves the
// caller's identity and role. A missing membership resolves to the empty
// role, which grants nothing.
func (h *WorkspaceHandler) resolveActor(w http.ResponseWriter, r *http.Request) (model.UserInfo, uuid.UUID, model.WorkspaceRole, bool) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return model.UserInfo{}, uuid.Nil, "", false
	}
	workspaceID, err := uuid.Parse(chi.URLParam(r, "workspaceID"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid workspace id")
		return model.UserInfo{}, uuid.Nil, "", false
	}
	role, err := h.memberships.RoleOf(r.Context(), workspaceID, user.UserID)
	if err != nil {
		respondWithDomainError(w, r, err)
		return model.UserInfo{}, uuid.Nil, "", false
	}
	return user, workspaceID, role, true
}
