// internal/handler/invitation.go
package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sponsorgrid/sponsorgrid/internal/middleware"
	"github.com/sponsorgrid/sponsorgrid/internal/model"
	"github.com/sponsorgrid/sponsorgrid/internal/policy"
	"github.com/sponsorgrid/sponsorgrid/internal/service"
)

type InvitationHandler struct {
	invitations *service.InvitationService
	memberships *service.MembershipService
	workspaces  *service.WorkspaceService
}

func NewInvitationHandler(
	invitations *service.InvitationService,
	memberships *service.MembershipService,
	workspaces *service.WorkspaceService,
) *InvitationHandler {
	return &InvitationHandler{
		invitations: invitations,
		memberships: memberships,
		workspaces:  workspaces,
	}
}

type InvitationResponse struct {
	BaseResponse
	Invitation *model.Invitation `json:"invitation"`
}

type InvitationListResponse struct {
	BaseResponse
	Invitations []*model.Invitation `json:"invitations"`
}

type CreateInvitationRequest struct {
	Email string              `json:"email"`
	Role  model.WorkspaceRole `json:"role"`
}

// CreateInvitation handles POST /api/workspaces/{workspaceID}/invitations.
// Administrators can always invite; plain members only when the workspace's
// invite policy allows it.
func (h *InvitationHandler) CreateInvitation(w http.ResponseWriter, r *http.Request) {
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
	if !policy.CanManageMembers(role) {
		workspace, err := h.workspaces.GetWorkspace(r.Context(), workspaceID)
		if err != nil {
			respondWithDomainError(w, r, err)
			return
		}
		if !policy.CanViewData(role) || !workspace.Settings.AllowMemberInvites {
			respondWithError(w, http.StatusForbidden, "Not allowed to invite to this workspace")
			return
		}
	}

	var req CreateInvitationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	invitation, err := h.invitations.CreateInvitation(r.Context(), service.CreateInvitationInput{
		WorkspaceID: workspaceID,
		Email:       req.Email,
		Role:        req.Role,
		InvitedBy:   user.UserID,
		InviterName: user.DisplayName,
	})
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, InvitationResponse{BaseResponse: BaseResponse{Ok: true}, Invitation: invitation})
}

// ListWorkspaceInvitations handles GET /api/workspaces/{workspaceID}/invitations
func (h *InvitationHandler) ListWorkspaceInvitations(w http.ResponseWriter, r *http.Request) {
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
	if !policy.CanManageMembers(role) {
		respondWithError(w, http.StatusForbidden, "Administrator role required")
		return
	}

	invitations, err := h.invitations.ListForWorkspace(r.Context(), workspaceID, statusFilter(r))
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, InvitationListResponse{BaseResponse: BaseResponse{Ok: true}, Invitations: invitations})
}

// ListMyInvitations handles GET /api/invitations, the invitations
// addressed to the authenticated user's email.
func (h *InvitationHandler) ListMyInvitations(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	invitations, err := h.invitations.ListForEmail(r.Context(), user.Email, statusFilter(r))
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, InvitationListResponse{BaseResponse: BaseResponse{Ok: true}, Invitations: invitations})
}

// AcceptInvitation handles POST /api/invitations/{invitationID}/accept
func (h *InvitationHandler) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	invitationID, err := uuid.Parse(chi.URLParam(r, "invitationID"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid invitation id")
		return
	}

	if err := h.invitations.AcceptInvitation(r.Context(), invitationID, user); err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, BaseResponse{Ok: true})
}

// DeclineInvitation handles POST /api/invitations/{invitationID}/decline.
// Only the invitee may decline.
func (h *InvitationHandler) DeclineInvitation(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	invitation, invitationID, ok := h.loadInvitation(w, r)
	if !ok {
		return
	}
	if !strings.EqualFold(invitation.Email, user.Email) {
		respondWithError(w, http.StatusForbidden, "Invitation is addressed to a different email")
		return
	}

	if err := h.invitations.DeclineInvitation(r.Context(), invitationID); err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, BaseResponse{Ok: true})
}

// CancelInvitation handles DELETE /api/invitations/{invitationID}
func (h *InvitationHandler) CancelInvitation(w http.ResponseWriter, r *http.Request) {
	invitationID, ok := h.requireManager(w, r)
	if !ok {
		return
	}
	if err := h.invitations.CancelInvitation(r.Context(), invitationID); err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, BaseResponse{Ok: true})
}

// ResendInvitation handles POST /api/invitations/{invitationID}/resend
func (h *InvitationHandler) ResendInvitation(w http.ResponseWriter, r *http.Request) {
	invitationID, ok := h.requireManager(w, r)
	if !ok {
		return
	}
	invitation, err := h.invitations.ResendInvitation(r.Context(), invitationID)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, InvitationResponse{BaseResponse: BaseResponse{Ok: true}, Invitation: invitation})
}

// requireManager loads the invitation and checks the caller holds the
// manage-members capability in its workspace.
func (h *InvitationHandler) requireManager(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return uuid.Nil, false
	}
	invitation, invitationID, ok := h.loadInvitation(w, r)
	if !ok {
		return uuid.Nil, false
	}
	role, err := h.memberships.RoleOf(r.Context(), invitation.WorkspaceID, user.UserID)
	if err != nil {
		respondWithDomainError(w, r, err)
		return uuid.Nil, false
	}
	if !policy.CanManageMembers(role) {
		respondWithError(w, http.StatusForbidden, "Administrator role required")
		return uuid.Nil, false
	}
	return invitationID, true
}

func (h *InvitationHandler) loadInvitation(w http.ResponseWriter, r *http.Request) (*model.Invitation, uuid.UUID, bool) {
	invitationID, err := uuid.Parse(chi.URLParam(r, "invitationID"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid invitation id")
		return nil, uuid.Nil, false
	}
	invitation, err := h.invitations.GetInvitation(r.Context(), invitationID)
	if err != nil {
		respondWithDomainError(w, r, err)
		return nil, uuid.Nil, false
	}
	return invitation, invitationID, true
}

func statusFilter(r *http.Request) *model.InvitationStatus {
	raw := r.URL.Query().Get("status")
	if raw == "" {
		return nil
	}
	status := model.InvitationStatus(raw)
	return &status
}
