// internal/repository/membership.go
package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sponsorgrid/sponsorgrid/internal/domain"
	"github.com/sponsorgrid/sponsorgrid/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MembershipRepositoryIface interface {
	// Upsert is keyed by the (workspace_id, user_id) composite primary key.
	// A second call for an existing pair is a no-op, not an error, and does
	// not clobber the existing role.
	Upsert(ctx context.Context, membership *model.Membership) error
	Find(ctx context.Context, workspaceID uuid.UUID, userID string) (*model.Membership, error)
	FindByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]*model.Membership, error)
	FindByUser(ctx context.Context, userID string) ([]*model.Membership, error)
	FindAdmins(ctx context.Context, workspaceID uuid.UUID) ([]*model.Membership, error)
	CountAdmins(ctx context.Context, workspaceID uuid.UUID) (int64, error)
	Count(ctx context.Context, workspaceID uuid.UUID) (int64, error)
	UpdateRole(ctx context.Context, workspaceID uuid.UUID, userID string, role model.WorkspaceRole) error
	Delete(ctx context.Context, workspaceID uuid.UUID, userID string) error
	UpdateUserInfo(ctx context.Context, workspaceID uuid.UUID, userID string, info model.UserInfo) error
	// DeleteOrphans removes memberships whose workspace row no longer
	// exists; repair for partially failed cascades.
	DeleteOrphans(ctx context.Context) (int64, error)
}

type MembershipRepository struct {
	db *gorm.DB
}

func NewMembershipRepository(db *gorm.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

func (r *MembershipRepository) Upsert(ctx context.Context, membership *model.Membership) error {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "workspace_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(membership)
	if result.Error != nil {
		return wrapStorage("upserting membership", result.Error)
	}
	return nil
}

func (r *MembershipRepository) Find(ctx context.Context, workspaceID uuid.UUID, userID string) (*model.Membership, error) {
	var membership model.Membership
	err := r.db.WithContext(ctx).
		Where("workspace_id = ? AND user_id = ?", workspaceID, userID).
		First(&membership).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrMembershipNotFound
		}
		return nil, wrapStorage("finding membership", err)
	}
	return &membership, nil
}

func (r *MembershipRepository) FindByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]*model.Membership, error) {
	var memberships []*model.Membership
	err := r.db.WithContext(ctx).
		Where("workspace_id = ?", workspaceID).
		Order("joined_at ASC").
		Find(&memberships).Error
	if err != nil {
		return nil, wrapStorage("listing members", err)
	}
	return memberships, nil
}

func (r *MembershipRepository) FindByUser(ctx context.Context, userID string) ([]*model.Membership, error) {
	var memberships []*model.Membership
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("joined_at DESC").
		Find(&memberships).Error
	if err != nil {
		return nil, wrapStorage("listing user memberships", err)
	}
	return memberships, nil
}

func (r *MembershipRepository) FindAdmins(ctx context.Context, workspaceID uuid.UUID) ([]*model.Membership, error) {
	var memberships []*model.Membership
	err := r.db.WithContext(ctx).
		Where("workspace_id = ? AND role = ?", workspaceID, model.RoleAdministrator).
		Order("joined_at ASC").
		Find(&memberships).Error
	if err != nil {
		return nil, wrapStorage("listing administrators", err)
	}
	return memberships, nil
}

func (r *MembershipRepository) CountAdmins(ctx context.Context, workspaceID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Membership{}).
		Where("workspace_id = ? AND role = ?", workspaceID, model.RoleAdministrator).
		Count(&count).Error
	if err != nil {
		return 0, wrapStorage("counting administrators", err)
	}
	return count, nil
}

func (r *MembershipRepository) Count(ctx context.Context, workspaceID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Membership{}).
		Where("workspace_id = ?", workspaceID).
		Count(&count).Error
	if err != nil {
		return 0, wrapStorage("counting members", err)
	}
	return count, nil
}

func (r *MembershipRepository) UpdateRole(ctx context.Context, workspaceID uuid.UUID, userID string, role model.WorkspaceRole) error {
	result := r.db.WithContext(ctx).Model(&model.Membership{}).
		Where("workspace_id = ? AND user_id = ?", workspaceID, userID).
		Update("role", role)
	if result.Error != nil {
		return wrapStorage("updating role", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrMembershipNotFound
	}
	return nil
}

func (r *MembershipRepository) Delete(ctx context.Context, workspaceID uuid.UUID, userID string) error {
	result := r.db.WithContext(ctx).
		Where("workspace_id = ? AND user_id = ?", workspaceID, userID).
		Delete(&model.Membership{})
	if result.Error != nil {
		return wrapStorage("deleting membership", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrMembershipNotFound
	}
	return nil
}

func (r *MembershipRepository) UpdateUserInfo(ctx context.Context, workspaceID uuid.UUID, userID string, info model.UserInfo) error {
	result := r.db.WithContext(ctx).Model(&model.Membership{}).
		Where("workspace_id = ? AND user_id = ?", workspaceID, userID).
		Updates(map[string]interface{}{
			"email":        info.Email,
			"display_name": info.DisplayName,
			"photo_url":    info.PhotoURL,
		})
	if result.Error != nil {
		return wrapStorage("updating cached user info", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrMembershipNotFound
	}
	return nil
}

func (r *MembershipRepository) DeleteOrphans(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("workspace_id NOT IN (?)", r.db.Model(&model.Workspace{}).Select("id")).
		Delete(&model.Membership{})
	if result.Error != nil {
		return 0, wrapStorage("deleting orphaned memberships", result.Error)
	}
	return result.RowsAffected, nil
}
