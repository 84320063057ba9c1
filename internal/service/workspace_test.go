package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/sponsorgrid/sponsorgrid/internal/domain"
	"github.com/sponsorgrid/sponsorgrid/internal/mocks"
	"github.com/sponsorgrid/sponsorgrid/internal/model"
	"github.com/sponsorgrid/sponsorgrid/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newWorkspaceService(
	workspaceRepo *mocks.MockWorkspaceRepositoryIface,
	membershipRepo *mocks.MockMembershipRepositoryIface,
	invitationRepo *mocks.MockInvitationRepositoryIface,
) *service.WorkspaceService {
	return service.NewWorkspaceService(workspaceRepo, membershipRepo, invitationRepo, service.NewEventBus())
}

func TestCreateWorkspace(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	creator := model.UserInfo{
		UserID:      "user-1",
		Email:       "Alex@Example.com",
		DisplayName: "Alex",
	}

	t.Run("creates the workspace with the creator as administrator", func(t *testing.T) {
		workspaceRepo := mocks.NewMockWorkspaceRepositoryIface(ctrl)
		membershipRepo := mocks.NewMockMembershipRepositoryIface(ctrl)
		invitationRepo := mocks.NewMockInvitationRepositoryIface(ctrl)

		workspaceRepo.EXPECT().
			CreateWithOwner(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, w *model.Workspace, owner *model.Membership) error {
				w.ID = uuid.New()
				assert.Equal(t, "City Rowing Club", w.Name)
				assert.Equal(t, model.WorkspaceTypeClub, w.Type)
				assert.Equal(t, "user-1", w.OwnerID)
				assert.Equal(t, 1, w.MemberCount)
				assert.Equal(t, model.RoleAdministrator, owner.Role)
				assert.Equal(t, "alex@example.com", owner.Email)
				return nil
			})

		svc := newWorkspaceService(workspaceRepo, membershipRepo, invitationRepo)
		workspace, err := svc.CreateWorkspace(context.Background(), creator, service.CreateWorkspaceInput{
			Name: "  City Rowing Club  ",
			Type: model.WorkspaceTypeClub,
		})
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, workspace.ID)
	})

	t.Run("type defaults to other", func(t *testing.T) {
		workspaceRepo := mocks.NewMockWorkspaceRepositoryIface(ctrl)
		membershipRepo := mocks.NewMockMembershipRepositoryIface(ctrl)
		invitationRepo := mocks.NewMockInvitationRepositoryIface(ctrl)

		workspaceRepo.EXPECT().
			CreateWithOwner(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, w *model.Workspace, _ *model.Membership) error {
				assert.Equal(t, model.WorkspaceTypeOther, w.Type)
				return nil
			})

		svc := newWorkspaceService(workspaceRepo, membershipRepo, invitationRepo)
		_, err := svc.CreateWorkspace(context.Background(), creator, service.CreateWorkspaceInput{Name: "Solo"})
		require.NoError(t, err)
	})

	t.Run("a blank name is invalid", func(t *testing.T) {
		workspaceRepo := mocks.NewMockWorkspaceRepositoryIface(ctrl)
		membershipRepo := mocks.NewMockMembershipRepositoryIface(ctrl)
		invitationRepo := mocks.NewMockInvitationRepositoryIface(ctrl)

		svc := newWorkspaceService(workspaceRepo, membershipRepo, invitationRepo)
		_, err := svc.CreateWorkspace(context.Background(), creator, service.CreateWorkspaceInput{Name: "   "})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("an unknown type is invalid", func(t *testing.T) {
		workspaceRepo := mocks.NewMockWorkspaceRepositoryIface(ctrl)
		membershipRepo := mocks.NewMockMembershipRepositoryIface(ctrl)
		invitationRepo := mocks.NewMockInvitationRepositoryIface(ctrl)

		svc := newWorkspaceService(workspaceRepo, membershipRepo, invitationRepo)
		_, err := svc.CreateWorkspace(context.Background(), creator, service.CreateWorkspaceInput{
			Name: "Team",
			Type: "enterprise",
		})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestListWorkspacesForUser(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	liveID := uuid.New()
	goneID := uuid.New()

	workspaceRepo := mocks.NewMockWorkspaceRepositoryIface(ctrl)
	membershipRepo := mocks.NewMockMembershipRepositoryIface(ctrl)
	invitationRepo := mocks.NewMockInvitationRepositoryIface(ctrl)

	membershipRepo.EXPECT().
		FindByUser(gomock.Any(), "user-1").
		Return([]*model.Membership{
			{WorkspaceID: goneID, UserID: "user-1"},
			{WorkspaceID: liveID, UserID: "user-1"},
		}, nil)
	workspaceRepo.EXPECT().
		FindByID(gomock.Any(), goneID).
		Return(nil, domain.ErrWorkspaceNotFound)
	workspaceRepo.EXPECT().
		FindByID(gomock.Any(), liveID).
		Return(&model.Workspace{ID: liveID, Name: "Live"}, nil)

	svc := newWorkspaceService(workspaceRepo, membershipRepo, invitationRepo)
	workspaces, err := svc.ListWorkspacesForUser(context.Background(), "user-1")
	require.NoError(t, err)

	// memberships pointing at deleted workspaces are skipped, not errors
	require.Len(t, workspaces, 1)
	assert.Equal(t, liveID, workspaces[0].ID)
}

func TestUpdateWorkspace(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	workspaceID := uuid.New()

	strPtr := func(s string) *string { return &s }
	boolPtr := func(b bool) *bool { return &b }

	t.Run("only provided fields reach storage", func(t *testing.T) {
		workspaceRepo := mocks.NewMockWorkspaceRepositoryIface(ctrl)
		membershipRepo := mocks.NewMockMembershipRepositoryIface(ctrl)
		invitationRepo := mocks.NewMockInvitationRepositoryIface(ctrl)

		workspaceRepo.EXPECT().
			UpdateFields(gomock.Any(), workspaceID, gomock.Any()).
			DoAndReturn(func(_ context.Context, id uuid.UUID, fields map[string]interface{}) (*model.Workspace, error) {
				assert.Equal(t, map[string]interface{}{
					"name":                          "Renamed",
					"settings_allow_member_invites": true,
				}, fields)
				return &model.Workspace{ID: id, Name: "Renamed"}, nil
			})

		svc := newWorkspaceService(workspaceRepo, membershipRepo, invitationRepo)
		workspace, err := svc.UpdateWorkspace(context.Background(), workspaceID, service.UpdateWorkspaceInput{
			Name:               strPtr(" Renamed "),
			AllowMemberInvites: boolPtr(true),
		})
		require.NoError(t, err)
		assert.Equal(t, "Renamed", workspace.Name)
	})

	t.Run("an empty update just reads back the workspace", func(t *testing.T) {
		workspaceRepo := mocks.NewMockWorkspaceRepositoryIface(ctrl)
		membershipRepo := mocks.NewMockMembershipRepositoryIface(ctrl)
		invitationRepo := mocks.NewMockInvitationRepositoryIface(ctrl)

		workspaceRepo.EXPECT().
			FindByID(gomock.Any(), workspaceID).
			Return(&model.Workspace{ID: workspaceID}, nil)

		svc := newWorkspaceService(workspaceRepo, membershipRepo, invitationRepo)
		_, err := svc.UpdateWorkspace(context.Background(), workspaceID, service.UpdateWorkspaceInput{})
		require.NoError(t, err)
	})

	t.Run("renaming to blank is invalid", func(t *testing.T) {
		workspaceRepo := mocks.NewMockWorkspaceRepositoryIface(ctrl)
		membershipRepo := mocks.NewMockMembershipRepositoryIface(ctrl)
		invitationRepo := mocks.NewMockInvitationRepositoryIface(ctrl)

		svc := newWorkspaceService(workspaceRepo, membershipRepo, invitationRepo)
		_, err := svc.UpdateWorkspace(context.Background(), workspaceID, service.UpdateWorkspaceInput{
			Name: strPtr("   "),
		})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("visibility accepts only private and public", func(t *testing.T) {
		workspaceRepo := mocks.NewMockWorkspaceRepositoryIface(ctrl)
		membershipRepo := mocks.NewMockMembershipRepositoryIface(ctrl)
		invitationRepo := mocks.NewMockInvitationRepositoryIface(ctrl)

		svc := newWorkspaceService(workspaceRepo, membershipRepo, invitationRepo)
		_, err := svc.UpdateWorkspace(context.Background(), workspaceID, service.UpdateWorkspaceInput{
			Visibility: strPtr("unlisted"),
		})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestDeleteWorkspace(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	workspaceID := uuid.New()

	t.Run("deletes memberships atomically and invitations best-effort", func(t *testing.T) {
		workspaceRepo := mocks.NewMockWorkspaceRepositoryIface(ctrl)
		membershipRepo := mocks.NewMockMembershipRepositoryIface(ctrl)
		invitationRepo := mocks.NewMockInvitationRepositoryIface(ctrl)

		gomock.InOrder(
			workspaceRepo.EXPECT().DeleteWithMemberships(gomock.Any(), workspaceID).Return(nil),
			invitationRepo.EXPECT().DeleteByWorkspace(gomock.Any(), workspaceID).Return(int64(3), nil),
		)

		svc := newWorkspaceService(workspaceRepo, membershipRepo, invitationRepo)
		require.NoError(t, svc.DeleteWorkspace(context.Background(), workspaceID))
	})

	t.Run("a failed invitation cleanup does not fail the delete", func(t *testing.T) {
		workspaceRepo := mocks.NewMockWorkspaceRepositoryIface(ctrl)
		membershipRepo := mocks.NewMockMembershipRepositoryIface(ctrl)
		invitationRepo := mocks.NewMockInvitationRepositoryIface(ctrl)

		workspaceRepo.EXPECT().DeleteWithMemberships(gomock.Any(), workspaceID).Return(nil)
		invitationRepo.EXPECT().
			DeleteByWorkspace(gomock.Any(), workspaceID).
			Return(int64(0), errors.New("connection reset"))

		svc := newWorkspaceService(workspaceRepo, membershipRepo, invitationRepo)
		require.NoError(t, svc.DeleteWorkspace(context.Background(), workspaceID))
	})
}

func TestRefreshMemberCount(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	workspaceID := uuid.New()

	t.Run("writes the recomputed count", func(t *testing.T) {
		workspaceRepo := mocks.NewMockWorkspaceRepositoryIface(ctrl)
		membershipRepo := mocks.NewMockMembershipRepositoryIface(ctrl)
		invitationRepo := mocks.NewMockInvitationRepositoryIface(ctrl)

		membershipRepo.EXPECT().Count(gomock.Any(), workspaceID).Return(int64(5), nil)
		workspaceRepo.EXPECT().SetMemberCount(gomock.Any(), workspaceID, 5).Return(nil)

		svc := newWorkspaceService(workspaceRepo, membershipRepo, invitationRepo)
		require.NoError(t, svc.RefreshMemberCount(context.Background(), workspaceID))
	})

	t.Run("a workspace deleted in the meantime is not an error", func(t *testing.T) {
		workspaceRepo := mocks.NewMockWorkspaceRepositoryIface(ctrl)
		membershipRepo := mocks.NewMockMembershipRepositoryIface(ctrl)
		invitationRepo := mocks.NewMockInvitationRepositoryIface(ctrl)

		membershipRepo.EXPECT().Count(gomock.Any(), workspaceID).Return(int64(0), nil)
		workspaceRepo.EXPECT().
			SetMemberCount(gomock.Any(), workspaceID, 0).
			Return(domain.ErrWorkspaceNotFound)

		svc := newWorkspaceService(workspaceRepo, membershipRepo, invitationRepo)
		require.NoError(t, svc.RefreshMemberCount(context.Background(), workspaceID))
	})
}

func TestRefreshAllMemberCounts(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	workspaceRepo := mocks.NewMockWorkspaceRepositoryIface(ctrl)
	membershipRepo := mocks.NewMockMembershipRepositoryIface(ctrl)
	invitationRepo := mocks.NewMockInvitationRepositoryIface(ctrl)

	first, second := uuid.New(), uuid.New()
	workspaceRepo.EXPECT().ListIDs(gomock.Any()).Return([]uuid.UUID{first, second}, nil)
	membershipRepo.EXPECT().Count(gomock.Any(), first).Return(int64(3), nil)
	workspaceRepo.EXPECT().SetMemberCount(gomock.Any(), first, 3).Return(nil)
	membershipRepo.EXPECT().Count(gomock.Any(), second).Return(int64(1), nil)
	workspaceRepo.EXPECT().SetMemberCount(gomock.Any(), second, 1).Return(nil)

	svc := newWorkspaceService(workspaceRepo, membershipRepo, invitationRepo)
	count, err := svc.RefreshAllMemberCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestTransientStorageFailurePropagates(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	workspaceRepo := mocks.NewMockWorkspaceRepositoryIface(ctrl)
	membershipRepo := mocks.NewMockMembershipRepositoryIface(ctrl)
	invitationRepo := mocks.NewMockInvitationRepositoryIface(ctrl)

	workspaceID := uuid.New()
	workspaceRepo.EXPECT().
		FindByID(gomock.Any(), workspaceID).
		Return(nil, fmt.Errorf("finding workspace: %w: connection refused", domain.ErrTransient))

	svc := newWorkspaceService(workspaceRepo, membershipRepo, invitationRepo)
	_, err := svc.GetWorkspace(context.Background(), workspaceID)
	require.ErrorIs(t, err, domain.ErrTransient)
}
