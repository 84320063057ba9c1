// internal/service/membership.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/sponsorgrid/sponsorgrid/internal/domain"
	"github.com/sponsorgrid/sponsorgrid/internal/model"
	"github.com/sponsorgrid/sponsorgrid/internal/repository"
)

// MembershipService owns the per-workspace role assignments and enforces
// the admin floor: a workspace with any membership keeps at least one
// administrator. The three mutating operations (add, set role, remove) are
// serialized per workspace so the count-then-write check cannot race.
type MembershipService struct {
	membershipRepo repository.MembershipRepositoryIface
	workspaceRepo  repository.WorkspaceRepositoryIface
	locks          *workspaceLocks
	bus            *EventBus
}

func NewMembershipService(
	membershipRepo repository.MembershipRepositoryIface,
	workspaceRepo repository.WorkspaceRepositoryIface,
	bus *EventBus,
) *MembershipService {
	return &MembershipService{
		membershipRepo: membershipRepo,
		workspaceRepo:  workspaceRepo,
		locks:          newWorkspaceLocks(),
		bus:            bus,
	}
}

// AddMember upserts the membership for (workspaceID, userID). Calling it
// again for an existing pair changes nothing and is not an error; both the
// workspace bootstrap and invitation acceptance funnel through this.
func (s *MembershipService) AddMember(ctx context.Context, workspaceID uuid.UUID, userID string, role model.WorkspaceRole, invitedBy string, info *model.UserInfo) error {
	if !model.ValidWorkspaceRole(role) {
		return fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, role)
	}
	membership := &model.Membership{
		WorkspaceID: workspaceID,
		UserID:      userID,
		Role:        role,
		InvitedBy:   invitedBy,
	}
	if info != nil {
		membership.Email = strings.ToLower(info.Email)
		membership.DisplayName = info.DisplayName
		membership.PhotoURL = info.PhotoURL
	}

	s.locks.lock(workspaceID)
	defer s.locks.unlock(workspaceID)

	if err := s.membershipRepo.Upsert(ctx, membership); err != nil {
		return err
	}
	s.refreshCount(ctx, workspaceID)
	s.bus.Publish(Event{Kind: EventMemberAdded, WorkspaceID: workspaceID, UserID: userID})
	return nil
}

// GetMembership returns the membership, or nil when the user has none:
// absence is a checked state here, not an error.
func (s *MembershipService) GetMembership(ctx context.Context, workspaceID uuid.UUID, userID string) (*model.Membership, error) {
	membership, err := s.membershipRepo.Find(ctx, workspaceID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrMembershipNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return membership, nil
}

// RoleOf resolves the user's role in the workspace; the empty role (which
// grants nothing) when there is no membership.
func (s *MembershipService) RoleOf(ctx context.Context, workspaceID uuid.UUID, userID string) (model.WorkspaceRole, error) {
	membership, err := s.GetMembership(ctx, workspaceID, userID)
	if err != nil {
		return "", err
	}
	if membership == nil {
		return "", nil
	}
	return membership.Role, nil
}

func (s *MembershipService) ListMembers(ctx context.Context, workspaceID uuid.UUID) ([]*model.Membership, error) {
	return s.membershipRepo.FindByWorkspace(ctx, workspaceID)
}

func (s *MembershipService) ListAdmins(ctx context.Context, workspaceID uuid.UUID) ([]*model.Membership, error) {
	return s.membershipRepo.FindAdmins(ctx, workspaceID)
}

func (s *MembershipService) CountAdmins(ctx context.Context, workspaceID uuid.UUID) (int64, error) {
	return s.membershipRepo.CountAdmins(ctx, workspaceID)
}

// SetRole changes a member's role. Demoting an administrator requires
// another administrator to remain, otherwise ErrLastAdministrator and no
// write happens.
func (s *MembershipService) SetRole(ctx context.Context, workspaceID uuid.UUID, userID string, newRole model.WorkspaceRole) error {
	if !model.ValidWorkspaceRole(newRole) {
		return fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, newRole)
	}

	s.locks.lock(workspaceID)
	defer s.locks.unlock(workspaceID)

	membership, err := s.membershipRepo.Find(ctx, workspaceID, userID)
	if err != nil {
		return err
	}
	if membership.Role == newRole {
		return nil
	}
	if membership.Role == model.RoleAdministrator && newRole != model.RoleAdministrator {
		admins, err := s.membershipRepo.CountAdmins(ctx, workspaceID)
		if err != nil {
			return err
		}
		if admins <= 1 {
			return domain.ErrLastAdministrator
		}
	}
	if err := s.membershipRepo.UpdateRole(ctx, workspaceID, userID, newRole); err != nil {
		return err
	}
	s.bus.Publish(Event{Kind: EventMemberRoleChanged, WorkspaceID: workspaceID, UserID: userID})
	slog.InfoContext(ctx, "membership role changed",
		"workspace_id", workspaceID, "user_id", userID, "role", newRole)
	return nil
}

// RemoveMember deletes the membership. Removing an administrator, whether
// by another administrator or by the member leaving, is subject to the
// same admin-floor check as SetRole.
func (s *MembershipService) RemoveMember(ctx context.Context, workspaceID uuid.UUID, userID string) error {
	s.locks.lock(workspaceID)
	defer s.locks.unlock(workspaceID)

	membership, err := s.membershipRepo.Find(ctx, workspaceID, userID)
	if err != nil {
		return err
	}
	if membership.Role == model.RoleAdministrator {
		admins, err := s.membershipRepo.CountAdmins(ctx, workspaceID)
		if err != nil {
			return err
		}
		if admins <= 1 {
			return domain.ErrLastAdministrator
		}
	}
	if err := s.membershipRepo.Delete(ctx, workspaceID, userID); err != nil {
		return err
	}
	s.refreshCount(ctx, workspaceID)
	s.bus.Publish(Event{Kind: EventMemberRemoved, WorkspaceID: workspaceID, UserID: userID})
	slog.InfoContext(ctx, "member removed", "workspace_id", workspaceID, "user_id", userID)
	return nil
}

// SyncUserInfo refreshes the cached display fields from a fresher identity
// snapshot. It is a non-critical side channel: failures are logged, never
// surfaced, so it can be called on the back of any authenticated request.
func (s *MembershipService) SyncUserInfo(ctx context.Context, workspaceID uuid.UUID, userID string, info model.UserInfo) {
	info.Email = strings.ToLower(info.Email)
	if err := s.membershipRepo.UpdateUserInfo(ctx, workspaceID, userID, info); err != nil {
		if !errors.Is(err, domain.ErrMembershipNotFound) {
			slog.WarnContext(ctx, "cached user info refresh failed",
				"workspace_id", workspaceID, "user_id", userID, "error", err)
		}
	}
}

// refreshCount recomputes the workspace's denormalized member count.
// Failures leave the counter stale until the next membership mutation or
// maintenance sweep; they never fail the mutation that triggered it.
func (s *MembershipService) refreshCount(ctx context.Context, workspaceID uuid.UUID) {
	count, err := s.membershipRepo.Count(ctx, workspaceID)
	if err == nil {
		err = s.workspaceRepo.SetMemberCount(ctx, workspaceID, int(count))
	}
	if err != nil && !errors.Is(err, domain.ErrWorkspaceNotFound) {
		slog.WarnContext(ctx, "member count refresh failed",
			"workspace_id", workspaceID, "error", err)
	}
}
