// internal/repository/mock_gen.go
package repository

//go:generate mockgen -source=./workspace.go -destination=../mocks/mock_workspace_repository.go -package=mocks WorkspaceRepositoryIface
//go:generate mockgen -source=./membership.go -destination=../mocks/mock_membership_repository.go -package=mocks MembershipRepositoryIface
//go:generate mockgen -source=./invitation.go -destination=../mocks/mock_invitation_repository.go -package=mocks InvitationRepositoryIface
