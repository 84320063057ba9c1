package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sponsorgrid/sponsorgrid/internal/domain"
	"github.com/sponsorgrid/sponsorgrid/internal/mocks"
	"github.com/sponsorgrid/sponsorgrid/internal/model"
	"github.com/sponsorgrid/sponsorgrid/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const (
	testValidity  = 7 * 24 * time.Hour
	testRetention = 30 * 24 * time.Hour
)

func newInvitationService(
	invitationRepo *mocks.MockInvitationRepositoryIface,
	membershipRepo *mocks.MockMembershipRepositoryIface,
	workspaceRepo *mocks.MockWorkspaceRepositoryIface,
) *service.InvitationService {
	return service.NewInvitationService(
		invitationRepo, membershipRepo, workspaceRepo,
		nil, service.NewEventBus(), testValidity, testRetention,
	)
}

func TestCreateInvitation(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	workspaceID := uuid.New()
	workspace := &model.Workspace{
		ID:      workspaceID,
		Name:    "City Rowing Club",
		LogoURL: "https://cdn.example.com/crc.png",
	}

	t.Run("creates a pending invitation with a fresh expiry window", func(t *testing.T) {
		invitationRepo := mocks.NewMockInvitationRepositoryIface(ctrl)
		membershipRepo := mocks.NewMockMembershipRepositoryIface(ctrl)
		workspaceRepo := mocks.NewMockWorkspaceRepositoryIface(ctrl)

		workspaceRepo.EXPECT().FindByID(gomock.Any(), workspaceID).Return(workspace, nil)
		invitationRepo.EXPECT().
			FindPending(gomock.Any(), workspaceID, "dana@example.com").
			Return(nil, domain.ErrInvitationNotFound)
		invitationRepo.EXPECT().
			Create(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, inv *model.Invitation) error {
				inv.ID = uuid.New()
				return nil
			})

		svc := newInvitationService(invitationRepo, membershipRepo, workspaceRepo)
		before := time.Now().UTC()
		invitation, err := svc.CreateInvitation(context.Background(), service.CreateInvitationInput{
			WorkspaceID: workspaceID,
			Email:       "  Dana@Example.COM ",
			InvitedBy:   "admin-1",
			InviterName: "Alex",
		})
		require.NoError(t, err)

		assert.Equal(t, "dana@example.com", invitation.Email)
		assert.Equal(t, model.RoleMember, invitation.Role, "role defaults to member")
		assert.Equal(t, model.InvitationPending, invitation.Status)
		assert.Equal(t, workspace.Name, invitation.WorkspaceName)
		assert.Equal(t, workspace.LogoURL, invitation.WorkspaceLogo)
		assert.WithinDuration(t, before.Add(testValidity), invitation.ExpiresAt, 5*time.Second)
	})

	t.Run("an existing pending invitation is a conflict", func(t *testing.T) {
		invitationRepo := mocks.NewMockInvitationRepositoryIface(ctrl)
		membershipRepo := mocks.NewMockMembershipRepositoryIface(ctrl)
		workspaceRepo := mocks.NewMockWorkspaceRepositoryIface(ctrl)

		workspaceRepo.EXPECT().FindByID(gomock.Any(), workspaceID).Return(workspace, nil)
		invitationRepo.EXPECT().
			FindPending(gomock.Any(), workspaceID, "dana@example.com").
			Return(&model.Invitation{ID: uuid.New(), Status: model.InvitationPending}, nil)

		svc := newInvitationService(invitationRepo, membershipRepo, workspaceRepo)
		_, err := svc.CreateInvitation(context.Background(), service.CreateInvitationInput{
			WorkspaceID: workspaceID,
			Email:       "dana@example.com",
			InvitedBy:   "admin-1",
		})
		assert.ErrorIs(t, err, domain.ErrDuplicateInvitation)
	})

	t.Run("a missing workspace fails the create", func(t *testing.T) {
		invitationRepo := mocks.NewMockInvitationRepositoryIface(ctrl)
		membershipRepo := mocks.NewMockMembershipRepositoryIface(ctrl)
		workspaceRepo := mocks.NewMockWorkspaceRepositoryIface(ctrl)

		workspaceRepo.EXPECT().FindByID(gomock.Any(), workspaceID).Return(nil, domain.ErrWorkspaceNotFound)

		svc := newInvitationService(invitationRepo, membershipRepo, workspaceRepo)
		_, err := svc.CreateInvitation(context.Background(), service.CreateInvitationInput{
			WorkspaceID: workspaceID,
			Email:       "dana@example.com",
			InvitedBy:   "admin-1",
		})
		assert.ErrorIs(t, err, domain.ErrWorkspaceNotFound)
	})

	t.Run("rejects malformed email addresses", func(t *testing.T) {
		invitationRepo := mocks.NewMockInvitationRepositoryIface(ctrl)
		membershipRepo := mocks.NewMockMembershipRepositoryIface(ctrl)
		workspaceRepo := mocks.NewMockWorkspaceRepositoryIface(ctrl)

		svc := newInvitationService(invitationRepo, membershipRepo, workspaceRepo)
		_, err := svc.CreateInvitation(context.Background(), service.CreateInvitationInput{
			WorkspaceID: workspaceID,
			Email:       "not-an-email",
			InvitedBy:   "admin-1",
		})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("rejects unknown roles", func(t *testing.T) {
		invitationRepo := mocks.NewMockInvitationRepositoryIface(ctrl)
		membershipRepo := mocks.NewMockMembershipRepositoryIface(ctrl)
		workspaceRepo := mocks.NewMockWorkspaceRepositoryIface(ctrl)

		svc := newInvitationService(invitationRepo, membershipRepo, workspaceRepo)
		_, err := svc.CreateInvitation(context.Background(), service.CreateInvitationInput{
			WorkspaceID: workspaceID,
			Email:       "dana@example.com",
			Role:        "superuser",
			InvitedBy:   "admin-1",
		})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestAcceptInvitation(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	workspaceID := uuid.New()
	invitationID := uuid.New()
	invitee := model.UserInfo{
		UserID:      "user-1",
		Email:       "Dana@Example.com",
		DisplayName: "Dana",
	}

	pending := func() *model.Invitation {
		return &model.Invitation{
			ID:          invitationID,
			WorkspaceID: workspaceID,
			Email:       "dana@example.com",
			Role:        model.RoleMember,
			Status:      model.InvitationPending,
			InvitedBy:   "admin-1",
			ExpiresAt:   time.Now().UTC().Add(time.Hour),
		}
	}

	t.Run("accepting materializes the membership with the invited role", func(t *testing.T) {
		invitationRepo := mocks.NewMockInvitationRepositoryIface(ctrl)
		membershipRepo := mocks.NewMockMembershipRepositoryIface(ctrl)
		workspaceRepo := mocks.NewMockWorkspaceRepositoryIface(ctrl)

		invitationRepo.EXPECT().FindByID(gomock.Any(), invitationID).Return(pending(), nil)
		invitationRepo.EXPECT().
			Accept(gomock.Any(), invitationID, gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ uuid.UUID, m *model.Membership, _ time.Time) error {
				assert.Equal(t, workspaceID, m.WorkspaceID)
				assert.Equal(t, "user-1", m.UserID)
				assert.Equal(t, model.RoleMember, m.Role)
				assert.Equal(t, "admin-1", m.InvitedBy)
				assert.Equal(t, "dana@example.com", m.Email)
				return nil
			})
		membershipRepo.EXPECT().Count(gomock.Any(), workspaceID).Return(int64(2), nil)
		workspaceRepo.EXPECT().SetMemberCount(gomock.Any(), workspaceID, 2).Return(nil)

		svc := newInvitationService(invitationRepo, membershipRepo, workspaceRepo)
		require.NoError(t, svc.AcceptInvitation(context.Background(), invitationID, invitee))
	})

	t.Run("email comparison ignores case", func(t *testing.T) {
		invitationRepo := mocks.NewMockInvitationRepositoryIface(ctrl)
		membershipRepo := mocks.NewMockMembershipRepositoryIface(ctrl)
		workspaceRepo := mocks.NewMockWorkspaceRepositoryIface(ctrl)

		invitationRepo.EXPECT().FindByID(gomock.Any(), invitationID).Return(pending(), nil)
		invitationRepo.EXPECT().Accept(gomock.Any(), invitationID, gomock.Any(), gomock.Any()).Return(nil)
		membershipRepo.EXPECT().Count(gomock.Any(), workspaceID).Return(int64(2), nil)
		workspaceRepo.EXPECT().SetMemberCount(gomock.Any(), workspaceID, 2).Return(nil)

		svc := newInvitationService(invitationRepo, membershipRepo, workspaceRepo)
		upper := invitee
		upper.Email = "DANA@EXAMPLE.COM"
		require.NoError(t, svc.AcceptInvitation(context.Background(), invitationID, upper))
	})

	t.Run("another user's invitation cannot be accepted", func(t *testing.T) {
		invitationRepo := mocks.NewMockInvitationRepositoryIface(ctrl)
		membershipRepo := mocks.NewMockMembershipRepositoryIface(ctrl)
		workspaceRepo := mocks.NewMockWorkspaceRepositoryIface(ctrl)

		invitationRepo.EXPECT().FindByID(gomock.Any(), invitationID).Return(pending(), nil)

		svc := newInvitationService(invitationRepo, membershipRepo, workspaceRepo)
		err := svc.AcceptInvitation(context.Background(), invitationID, model.UserInfo{
			UserID: "stranger",
			Email:  "stranger@example.com",
		})
		assert.ErrorIs(t, err, domain.ErrEmailMismatch)
	})

	t.Run("an expired invitation is refused and marked expired", func(t *testing.T) {
		invitationRepo := mocks.NewMockInvitationRepositoryIface(ctrl)
		membershipRepo := mocks.NewMockMembershipRepositoryIface(ctrl)
		workspaceRepo := mocks.NewMockWorkspaceRepositoryIface(ctrl)

		expired := pending()
		expired.ExpiresAt = time.Now().UTC().Add(-time.Minute)

		invitationRepo.EXPECT().FindByID(gomock.Any(), invitationID).Return(expired, nil)
		invitationRepo.EXPECT().
			Transition(gomock.Any(), invitationID, model.InvitationPending, model.InvitationExpired, nil).
			Return(nil)
		// re-read for the change notification
		invitationRepo.EXPECT().
			FindByID(gomock.Any(), invitationID).
			Return(&model.Invitation{ID: invitationID, WorkspaceID: workspaceID, Status: model.InvitationExpired}, nil)

		svc := newInvitationService(invitationRepo, membershipRepo, workspaceRepo)
		err := svc.AcceptInvitation(context.Background(), invitationID, invitee)
		assert.ErrorIs(t, err, domain.ErrInvitationExpired)
	})

	t.Run("a terminal invitation is refused", func(t *testing.T) {
		invitationRepo := mocks.NewMockInvitationRepositoryIface(ctrl)
		membershipRepo := mocks.NewMockMembershipRepositoryIface(ctrl)
		workspaceRepo := mocks.NewMockWorkspaceRepositoryIface(ctrl)

		declined := pending()
		declined.Status = model.InvitationDeclined

		invitationRepo.EXPECT().FindByID(gomock.Any(), invitationID).Return(declined, nil)

		svc := newInvitationService(invitationRepo, membershipRepo, workspaceRepo)
		err := svc.AcceptInvitation(context.Background(), invitationID, invitee)
		assert.ErrorIs(t, err, domain.ErrInvitationNotPending)
	})
}

func TestDeclineInvitation(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	workspaceID := uuid.New()
	invitationID := uuid.New()

	invitationRepo := mocks.NewMockInvitationRepositoryIface(ctrl)
	membershipRepo := mocks.NewMockMembershipRepositoryIface(ctrl)
	workspaceRepo := mocks.NewMockWorkspaceRepositoryIface(ctrl)

	invitationRepo.EXPECT().
		Transition(gomock.Any(), invitationID, model.InvitationPending, model.InvitationDeclined, gomock.Not(gomock.Nil())).
		Return(nil)
	invitationRepo.EXPECT().
		FindByID(gomock.Any(), invitationID).
		Return(&model.Invitation{ID: invitationID, WorkspaceID: workspaceID, Status: model.InvitationDeclined}, nil)

	svc := newInvitationService(invitationRepo, membershipRepo, workspaceRepo)
	require.NoError(t, svc.DeclineInvitation(context.Background(), invitationID))
}

func TestCancelInvitation(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	workspaceID := uuid.New()
	invitationID := uuid.New()

	t.Run("pending invitations can be cancelled", func(t *testing.T) {
		invitationRepo := mocks.NewMockInvitationRepositoryIface(ctrl)
		membershipRepo := mocks.NewMockMembershipRepositoryIface(ctrl)
		workspaceRepo := mocks.NewMockWorkspaceRepositoryIface(ctrl)

		invitationRepo.EXPECT().
			Transition(gomock.Any(), invitationID, model.InvitationPending, model.InvitationCancelled, nil).
			Return(nil)
		invitationRepo.EXPECT().
			FindByID(gomock.Any(), invitationID).
			Return(&model.Invitation{ID: invitationID, WorkspaceID: workspaceID, Status: model.InvitationCancelled}, nil)

		svc := newInvitationService(invitationRepo, membershipRepo, workspaceRepo)
		require.NoError(t, svc.CancelInvitation(context.Background(), invitationID))
	})

	t.Run("a terminal invitation cannot be cancelled again", func(t *testing.T) {
		invitationRepo := mocks.NewMockInvitationRepositoryIface(ctrl)
		membershipRepo := mocks.NewMockMembershipRepositoryIface(ctrl)
		workspaceRepo := mocks.NewMockWorkspaceRepositoryIface(ctrl)

		invitationRepo.EXPECT().
			Transition(gomock.Any(), invitationID, model.InvitationPending, model.InvitationCancelled, nil).
			Return(domain.ErrInvitationNotPending)

		svc := newInvitationService(invitationRepo, membershipRepo, workspaceRepo)
		err := svc.CancelInvitation(context.Background(), invitationID)
		assert.ErrorIs(t, err, domain.ErrInvitationNotPending)
	})
}

func TestResendInvitation(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	workspaceID := uuid.New()
	invitationID := uuid.New()
	workspace := &model.Workspace{ID: workspaceID, Name: "City Rowing Club"}

	t.Run("resending cancels the old invite and issues a fresh one", func(t *testing.T) {
		invitationRepo := mocks.NewMockInvitationRepositoryIface(ctrl)
		membershipRepo := mocks.NewMockMembershipRepositoryIface(ctrl)
		workspaceRepo := mocks.NewMockWorkspaceRepositoryIface(ctrl)

		original := &model.Invitation{
			ID:          invitationID,
			WorkspaceID: workspaceID,
			Email:       "dana@example.com",
			Role:        model.RoleAdministrator,
			Status:      model.InvitationPending,
			InvitedBy:   "admin-1",
			InviterName: "Alex",
			ExpiresAt:   time.Now().UTC().Add(time.Hour),
		}

		gomock.InOrder(
			invitationRepo.EXPECT().FindByID(gomock.Any(), invitationID).Return(original, nil),
			invitationRepo.EXPECT().
				Transition(gomock.Any(), invitationID, model.InvitationPending, model.InvitationCancelled, nil).
				Return(nil),
			workspaceRepo.EXPECT().FindByID(gomock.Any(), workspaceID).Return(workspace, nil),
			invitationRepo.EXPECT().
				FindPending(gomock.Any(), workspaceID, "dana@example.com").
				Return(nil, domain.ErrInvitationNotFound),
			invitationRepo.EXPECT().
				Create(gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, inv *model.Invitation) error {
					inv.ID = uuid.New()
					return nil
				}),
		)

		svc := newInvitationService(invitationRepo, membershipRepo, workspaceRepo)
		fresh, err := svc.ResendInvitation(context.Background(), invitationID)
		require.NoError(t, err)

		assert.NotEqual(t, invitationID, fresh.ID)
		assert.Equal(t, original.Email, fresh.Email)
		assert.Equal(t, original.Role, fresh.Role)
		assert.Equal(t, original.InvitedBy, fresh.InvitedBy)
		assert.True(t, fresh.ExpiresAt.After(original.ExpiresAt), "expiry window resets")
	})

	t.Run("only pending invitations can be resent", func(t *testing.T) {
		invitationRepo := mocks.NewMockInvitationRepositoryIface(ctrl)
		membershipRepo := mocks.NewMockMembershipRepositoryIface(ctrl)
		workspaceRepo := mocks.NewMockWorkspaceRepositoryIface(ctrl)

		invitationRepo.EXPECT().
			FindByID(gomock.Any(), invitationID).
			Return(&model.Invitation{ID: invitationID, Status: model.InvitationAccepted}, nil)

		svc := newInvitationService(invitationRepo, membershipRepo, workspaceRepo)
		_, err := svc.ResendInvitation(context.Background(), invitationID)
		assert.ErrorIs(t, err, domain.ErrInvitationNotPending)
	})
}

func TestMaintenanceSweeps(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	t.Run("expiry sweep reports the transitioned count", func(t *testing.T) {
		invitationRepo := mocks.NewMockInvitationRepositoryIface(ctrl)
		membershipRepo := mocks.NewMockMembershipRepositoryIface(ctrl)
		workspaceRepo := mocks.NewMockWorkspaceRepositoryIface(ctrl)

		invitationRepo.EXPECT().ExpireDue(gomock.Any(), gomock.Any()).Return(int64(4), nil)

		svc := newInvitationService(invitationRepo, membershipRepo, workspaceRepo)
		count, err := svc.SweepExpired(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(4), count)
	})

	t.Run("purge removes terminal records past retention", func(t *testing.T) {
		invitationRepo := mocks.NewMockInvitationRepositoryIface(ctrl)
		membershipRepo := mocks.NewMockMembershipRepositoryIface(ctrl)
		workspaceRepo := mocks.NewMockWorkspaceRepositoryIface(ctrl)

		invitationRepo.EXPECT().
			PurgeTerminal(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, before time.Time) (int64, error) {
				assert.WithinDuration(t, time.Now().UTC().Add(-testRetention), before, 5*time.Second)
				return int64(2), nil
			})

		svc := newInvitationService(invitationRepo, membershipRepo, workspaceRepo)
		count, err := svc.PurgeOld(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("orphan sweep collects both record kinds", func(t *testing.T) {
		invitationRepo := mocks.NewMockInvitationRepositoryIface(ctrl)
		membershipRepo := mocks.NewMockMembershipRepositoryIface(ctrl)
		workspaceRepo := mocks.NewMockWorkspaceRepositoryIface(ctrl)

		membershipRepo.EXPECT().DeleteOrphans(gomock.Any()).Return(int64(3), nil)
		invitationRepo.EXPECT().DeleteOrphans(gomock.Any()).Return(int64(1), nil)

		svc := newInvitationService(invitationRepo, membershipRepo, workspaceRepo)
		memberships, invitations, err := svc.SweepOrphans(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(3), memberships)
		assert.Equal(t, int64(1), invitations)
	})
}
