// internal/service/workspace.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sponsorgrid/sponsorgrid/internal/domain"
	"github.com/sponsorgrid/sponsorgrid/internal/model"
	"github.com/sponsorgrid/sponsorgrid/internal/repository"
)

// WorkspaceService owns workspace records: creation with the bootstrap
// administrator membership, updates, cascade deletion and member-count
// bookkeeping.
type WorkspaceService struct {
	workspaceRepo  repository.WorkspaceRepositoryIface
	membershipRepo repository.MembershipRepositoryIface
	invitationRepo repository.InvitationRepositoryIface
	bus            *EventBus
	validate       *validator.Validate
}

func NewWorkspaceService(
	workspaceRepo repository.WorkspaceRepositoryIface,
	membershipRepo repository.MembershipRepositoryIface,
	invitationRepo repository.InvitationRepositoryIface,
	bus *EventBus,
) *WorkspaceService {
	return &WorkspaceService{
		workspaceRepo:  workspaceRepo,
		membershipRepo: membershipRepo,
		invitationRepo: invitationRepo,
		bus:            bus,
		validate:       validator.New(),
	}
}

type CreateWorkspaceInput struct {
	Name        string              `json:"name" validate:"required"`
	Description string              `json:"description"`
	Type        model.WorkspaceType `json:"type"`
	LogoURL     string              `json:"logo_url"`
}

// CreateWorkspace writes the workspace and the creator's administrator
// membership as one atomic unit; a caller can never observe the workspace
// without an administrator.
func (s *WorkspaceService) CreateWorkspace(ctx context.Context, creator model.UserInfo, input CreateWorkspaceInput) (*model.Workspace, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, err)
	}
	if input.Type == "" {
		input.Type = model.WorkspaceTypeOther
	}
	if !model.ValidWorkspaceType(input.Type) {
		return nil, fmt.Errorf("%w: unknown workspace type %q", domain.ErrInvalidInput, input.Type)
	}

	workspace := &model.Workspace{
		Name:        input.Name,
		Description: input.Description,
		Type:        input.Type,
		OwnerID:     creator.UserID,
		MemberCount: 1,
		LogoURL:     input.LogoURL,
		Settings:    model.WorkspaceSettings{Visibility: "private"},
	}
	owner := &model.Membership{
		UserID:      creator.UserID,
		Role:        model.RoleAdministrator,
		Email:       strings.ToLower(creator.Email),
		DisplayName: creator.DisplayName,
		PhotoURL:    creator.PhotoURL,
	}

	if err := s.workspaceRepo.CreateWithOwner(ctx, workspace, owner); err != nil {
		return nil, err
	}

	s.bus.Publish(Event{Kind: EventWorkspaceCreated, WorkspaceID: workspace.ID, UserID: creator.UserID})
	slog.InfoContext(ctx, "workspace created",
		"workspace_id", workspace.ID, "owner_id", creator.UserID, "type", workspace.Type)
	return workspace, nil
}

func (s *WorkspaceService) GetWorkspace(ctx context.Context, id uuid.UUID) (*model.Workspace, error) {
	return s.workspaceRepo.FindByID(ctx, id)
}

// ListWorkspacesForUser resolves the user's memberships newest-first and
// then each workspace by id. A membership whose workspace no longer
// resolves is skipped; that happens when a cascade delete only partially
// completed and is repaired later by the orphan sweep.
func (s *WorkspaceService) ListWorkspacesForUser(ctx context.Context, userID string) ([]*model.Workspace, error) {
	memberships, err := s.membershipRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	workspaces := make([]*model.Workspace, 0, len(memberships))
	for _, membership := range memberships {
		workspace, err := s.workspaceRepo.FindByID(ctx, membership.WorkspaceID)
		if err != nil {
			if errors.Is(err, domain.ErrWorkspaceNotFound) {
				continue
			}
			return nil, err
		}
		workspaces = append(workspaces, workspace)
	}
	return workspaces, nil
}

type UpdateWorkspaceInput struct {
	Name               *string              `json:"name"`
	Description        *string              `json:"description"`
	Type               *model.WorkspaceType `json:"type"`
	LogoURL            *string              `json:"logo_url"`
	AllowMemberInvites *bool                `json:"allow_member_invites"`
	Visibility         *string              `json:"visibility"`
}

// UpdateWorkspace applies the allowed mutable fields. Owner and creation
// timestamp are not reachable through this path.
func (s *WorkspaceService) UpdateWorkspace(ctx context.Context, id uuid.UUID, input UpdateWorkspaceInput) (*model.Workspace, error) {
	fields := map[string]interface{}{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name must not be empty", domain.ErrInvalidInput)
		}
		fields["name"] = name
	}
	if input.Description != nil {
		fields["description"] = *input.Description
	}
	if input.Type != nil {
		if !model.ValidWorkspaceType(*input.Type) {
			return nil, fmt.Errorf("%w: unknown workspace type %q", domain.ErrInvalidInput, *input.Type)
		}
		fields["type"] = *input.Type
	}
	if input.LogoURL != nil {
		fields["logo_url"] = *input.LogoURL
	}
	if input.AllowMemberInvites != nil {
		fields["settings_allow_member_invites"] = *input.AllowMemberInvites
	}
	if input.Visibility != nil {
		if *input.Visibility != "private" && *input.Visibility != "public" {
			return nil, fmt.Errorf("%w: unknown visibility %q", domain.ErrInvalidInput, *input.Visibility)
		}
		fields["settings_visibility"] = *input.Visibility
	}
	if len(fields) == 0 {
		return s.workspaceRepo.FindByID(ctx, id)
	}

	workspace, err := s.workspaceRepo.UpdateFields(ctx, id, fields)
	if err != nil {
		return nil, err
	}
	s.bus.Publish(Event{Kind: EventWorkspaceUpdated, WorkspaceID: id})
	return workspace, nil
}

// DeleteWorkspace removes the workspace and its memberships atomically,
// then its invitations best-effort. A failed invitation cleanup does not
// roll the rest back; orphaned invitations are collected by the orphan
// sweep. Deleting a workspace that does not exist is a no-op success.
func (s *WorkspaceService) DeleteWorkspace(ctx context.Context, id uuid.UUID) error {
	if err := s.workspaceRepo.DeleteWithMemberships(ctx, id); err != nil {
		return err
	}
	if _, err := s.invitationRepo.DeleteByWorkspace(ctx, id); err != nil {
		slog.WarnContext(ctx, "invitation cleanup failed after workspace delete; orphan sweep will collect",
			"workspace_id", id, "error", err)
	}
	s.bus.Publish(Event{Kind: EventWorkspaceDeleted, WorkspaceID: id})
	slog.InfoContext(ctx, "workspace deleted", "workspace_id", id)
	return nil
}

// RefreshMemberCount recomputes the denormalized counter from the live
// membership set. The counter is eventually consistent: between a
// membership mutation and this refresh it may be stale.
func (s *WorkspaceService) RefreshMemberCount(ctx context.Context, id uuid.UUID) error {
	count, err := s.membershipRepo.Count(ctx, id)
	if err != nil {
		return err
	}
	if err := s.workspaceRepo.SetMemberCount(ctx, id, int(count)); err != nil {
		// The workspace can legitimately be gone by the time the refresh
		// runs; nothing to refresh then.
		if errors.Is(err, domain.ErrWorkspaceNotFound) {
			return nil
		}
		return err
	}
	return nil
}

// RefreshAllMemberCounts runs RefreshMemberCount over every workspace and
// returns how many were refreshed. A failure on one workspace aborts the
// sweep; the next run picks up where this one left off.
func (s *WorkspaceService) RefreshAllMemberCounts(ctx context.Context) (int, error) {
	ids, err := s.workspaceRepo.ListIDs(ctx)
	if err != nil {
		return 0, err
	}
	for i, id := range ids {
		if err := s.RefreshMemberCount(ctx, id); err != nil {
			return i, fmt.Errorf("refreshing member count for %s: %w", id, err)
		}
	}
	return len(ids), nil
}
