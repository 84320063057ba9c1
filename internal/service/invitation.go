// internal/service/invitation.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sponsorgrid/sponsorgrid/internal/domain"
	"github.com/sponsorgrid/sponsorgrid/internal/model"
	"github.com/sponsorgrid/sponsorgrid/internal/repository"
)

// NotificationSender delivers the invitation notice. Delivery is a
// fire-and-forget external effect: the invitation workflow requests it but
// never fails because of it.
type NotificationSender interface {
	SendInvitation(ctx context.Context, invitation *model.Invitation) error
}

// InvitationService owns the pending-invite lifecycle:
// pending -> accepted | declined | cancelled | expired, all four terminal.
type InvitationService struct {
	invitationRepo repository.InvitationRepositoryIface
	membershipRepo repository.MembershipRepositoryIface
	workspaceRepo  repository.WorkspaceRepositoryIface
	sender         NotificationSender
	bus            *EventBus
	validity       time.Duration
	retention      time.Duration
	validate       *validator.Validate
}

func NewInvitationService(
	invitationRepo repository.InvitationRepositoryIface,
	membershipRepo repository.MembershipRepositoryIface,
	workspaceRepo repository.WorkspaceRepositoryIface,
	sender NotificationSender,
	bus *EventBus,
	validity, retention time.Duration,
) *InvitationService {
	if validity <= 0 {
		validity = 7 * 24 * time.Hour
	}
	if retention <= 0 {
		retention = 30 * 24 * time.Hour
	}
	return &InvitationService{
		invitationRepo: invitationRepo,
		membershipRepo: membershipRepo,
		workspaceRepo:  workspaceRepo,
		sender:         sender,
		bus:            bus,
		validity:       validity,
		retention:      retention,
		validate:       validator.New(),
	}
}

type CreateInvitationInput struct {
	WorkspaceID uuid.UUID           `json:"workspace_id" validate:"required"`
	Email       string              `json:"email" validate:"required,email"`
	Role        model.WorkspaceRole `json:"role"`
	InvitedBy   string              `json:"invited_by" validate:"required"`
	InviterName string              `json:"inviter_name"`
}

// CreateInvitation writes a new pending invitation with a fresh validity
// window. The pre-check for an existing pending invite gives callers a
// clean Conflict; the storage-level unique index is what actually closes
// the concurrent-create race. The email notice goes out asynchronously.
func (s *InvitationService) CreateInvitation(ctx context.Context, input CreateInvitationInput) (*model.Invitation, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, err)
	}
	if input.Role == "" {
		input.Role = model.RoleMember
	}
	if !model.ValidWorkspaceRole(input.Role) {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, input.Role)
	}

	workspace, err := s.workspaceRepo.FindByID(ctx, input.WorkspaceID)
	if err != nil {
		return nil, err
	}

	if _, err := s.invitationRepo.FindPending(ctx, input.WorkspaceID, input.Email); err == nil {
		return nil, domain.ErrDuplicateInvitation
	} else if !errors.Is(err, domain.ErrInvitationNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	invitation := &model.Invitation{
		WorkspaceID:   input.WorkspaceID,
		Email:         input.Email,
		Role:          input.Role,
		Status:        model.InvitationPending,
		InvitedBy:     input.InvitedBy,
		InviterName:   input.InviterName,
		WorkspaceName: workspace.Name,
		WorkspaceLogo: workspace.LogoURL,
		ExpiresAt:     now.Add(s.validity),
	}
	if err := s.invitationRepo.Create(ctx, invitation); err != nil {
		return nil, err
	}

	s.notify(invitation)
	s.bus.Publish(Event{Kind: EventInvitationCreated, WorkspaceID: invitation.WorkspaceID, InvitationID: invitation.ID})
	slog.InfoContext(ctx, "invitation created",
		"invitation_id", invitation.ID, "workspace_id", invitation.WorkspaceID, "role", invitation.Role)
	return invitation, nil
}

// AcceptInvitation transitions the invite to accepted and materializes the
// membership in one storage transaction, then refreshes the workspace's
// member count. Expiry is re-checked inside the transition, so an accept
// racing the expiry sweep loses cleanly.
func (s *InvitationService) AcceptInvitation(ctx context.Context, id uuid.UUID, user model.UserInfo) error {
	invitation, err := s.invitationRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if invitation.Status != model.InvitationPending {
		return domain.ErrInvitationNotPending
	}
	if !strings.EqualFold(invitation.Email, user.Email) {
		return domain.ErrEmailMismatch
	}

	now := time.Now().UTC()
	if invitation.ExpiredAt(now) {
		s.expireLazily(ctx, invitation.ID)
		return domain.ErrInvitationExpired
	}

	membership := &model.Membership{
		WorkspaceID: invitation.WorkspaceID,
		UserID:      user.UserID,
		Role:        invitation.Role,
		InvitedBy:   invitation.InvitedBy,
		Email:       strings.ToLower(user.Email),
		DisplayName: user.DisplayName,
		PhotoURL:    user.PhotoURL,
	}
	if err := s.invitationRepo.Accept(ctx, invitation.ID, membership, now); err != nil {
		if errors.Is(err, domain.ErrInvitationExpired) {
			s.expireLazily(ctx, invitation.ID)
		}
		return err
	}

	s.refreshCount(ctx, invitation.WorkspaceID)
	s.bus.Publish(Event{Kind: EventMemberAdded, WorkspaceID: invitation.WorkspaceID, UserID: user.UserID})
	s.bus.Publish(Event{Kind: EventInvitationUpdated, WorkspaceID: invitation.WorkspaceID, InvitationID: invitation.ID})
	slog.InfoContext(ctx, "invitation accepted",
		"invitation_id", invitation.ID, "workspace_id", invitation.WorkspaceID, "user_id", user.UserID)
	return nil
}

// DeclineInvitation: pending -> declined, by the invitee.
func (s *InvitationService) DeclineInvitation(ctx context.Context, id uuid.UUID) error {
	now := time.Now().UTC()
	if err := s.invitationRepo.Transition(ctx, id, model.InvitationPending, model.InvitationDeclined, &now); err != nil {
		return err
	}
	s.publishUpdate(ctx, id)
	return nil
}

// CancelInvitation: pending -> cancelled, by an administrator.
func (s *InvitationService) CancelInvitation(ctx context.Context, id uuid.UUID) error {
	if err := s.invitationRepo.Transition(ctx, id, model.InvitationPending, model.InvitationCancelled, nil); err != nil {
		return err
	}
	s.publishUpdate(ctx, id)
	return nil
}

// ResendInvitation cancels the pending invite and creates a brand-new one
// for the same workspace, email, role and inviter. The expiry window resets
// rather than extending the old record.
func (s *InvitationService) ResendInvitation(ctx context.Context, id uuid.UUID) (*model.Invitation, error) {
	invitation, err := s.invitationRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if invitation.Status != model.InvitationPending {
		return nil, domain.ErrInvitationNotPending
	}
	if err := s.invitationRepo.Transition(ctx, id, model.InvitationPending, model.InvitationCancelled, nil); err != nil {
		return nil, err
	}
	return s.CreateInvitation(ctx, CreateInvitationInput{
		WorkspaceID: invitation.WorkspaceID,
		Email:       invitation.Email,
		Role:        invitation.Role,
		InvitedBy:   invitation.InvitedBy,
		InviterName: invitation.InviterName,
	})
}

func (s *InvitationService) GetInvitation(ctx context.Context, id uuid.UUID) (*model.Invitation, error) {
	return s.invitationRepo.FindByID(ctx, id)
}

func (s *InvitationService) ListForWorkspace(ctx context.Context, workspaceID uuid.UUID, status *model.InvitationStatus) ([]*model.Invitation, error) {
	return s.invitationRepo.FindByWorkspace(ctx, workspaceID, status)
}

func (s *InvitationService) ListForEmail(ctx context.Context, email string, status *model.InvitationStatus) ([]*model.Invitation, error) {
	return s.invitationRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)), status)
}

func (s *InvitationService) ListPendingFor(ctx context.Context, workspaceID uuid.UUID, email string) (*model.Invitation, error) {
	invitation, err := s.invitationRepo.FindPending(ctx, workspaceID, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, domain.ErrInvitationNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return invitation, nil
}

// SweepExpired transitions every pending invitation past its expiry to
// expired. Runs on the recurring schedule and from the maintenance CLI.
func (s *InvitationService) SweepExpired(ctx context.Context) (int64, error) {
	count, err := s.invitationRepo.ExpireDue(ctx, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	if count > 0 {
		slog.InfoContext(ctx, "expired invitations swept", "count", count)
	}
	return count, nil
}

// PurgeOld hard-deletes terminal invitations older than the retention
// window.
func (s *InvitationService) PurgeOld(ctx context.Context) (int64, error) {
	count, err := s.invitationRepo.PurgeTerminal(ctx, time.Now().UTC().Add(-s.retention))
	if err != nil {
		return 0, err
	}
	if count > 0 {
		slog.InfoContext(ctx, "old invitations purged", "count", count)
	}
	return count, nil
}

// SweepOrphans collects memberships and invitations left behind by a
// partially failed workspace cascade delete.
func (s *InvitationService) SweepOrphans(ctx context.Context) (memberships, invitations int64, err error) {
	memberships, err = s.membershipRepo.DeleteOrphans(ctx)
	if err != nil {
		return 0, 0, err
	}
	invitations, err = s.invitationRepo.DeleteOrphans(ctx)
	if err != nil {
		return memberships, 0, err
	}
	if memberships > 0 || invitations > 0 {
		slog.InfoContext(ctx, "orphaned records swept",
			"memberships", memberships, "invitations", invitations)
	}
	return memberships, invitations, nil
}

// notify requests delivery of the invitation notice without blocking or
// failing the caller. Failures are logged and otherwise dropped.
func (s *InvitationService) notify(invitation *model.Invitation) {
	if s.sender == nil {
		return
	}
	inv := *invitation
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.sender.SendInvitation(ctx, &inv); err != nil {
			slog.Warn("invitation notice delivery failed",
				"invitation_id", inv.ID, "workspace_id", inv.WorkspaceID, "error", err)
		}
	}()
}

func (s *InvitationService) expireLazily(ctx context.Context, id uuid.UUID) {
	err := s.invitationRepo.Transition(ctx, id, model.InvitationPending, model.InvitationExpired, nil)
	if err != nil && !errors.Is(err, domain.ErrInvitationNotPending) {
		slog.WarnContext(ctx, "lazy expiry failed", "invitation_id", id, "error", err)
	}
	s.publishUpdate(ctx, id)
}

func (s *InvitationService) publishUpdate(ctx context.Context, id uuid.UUID) {
	invitation, err := s.invitationRepo.FindByID(ctx, id)
	if err != nil {
		return
	}
	s.bus.Publish(Event{Kind: EventInvitationUpdated, WorkspaceID: invitation.WorkspaceID, InvitationID: invitation.ID})
}

func (s *InvitationService) refreshCount(ctx context.Context, workspaceID uuid.UUID) {
	count, err := s.membershipRepo.Count(ctx, workspaceID)
	if err == nil {
		err = s.workspaceRepo.SetMemberCount(ctx, workspaceID, int(count))
	}
	if err != nil && !errors.Is(err, domain.ErrWorkspaceNotFound) {
		slog.WarnContext(ctx, "member count refresh failed",
			"workspace_id", workspaceID, "error", err)
	}
}
