// internal/repository/workspace.go
package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sponsorgrid/sponsorgrid/internal/domain"
	"github.com/sponsorgrid/sponsorgrid/internal/model"
	"gorm.io/gorm"
)

type WorkspaceRepositoryIface interface {
	// CreateWithOwner writes the workspace and the creator's administrator
	// membership in one transaction; no observer ever sees the workspace
	// without its bootstrap membership.
	CreateWithOwner(ctx context.Context, workspace *model.Workspace, owner *model.Membership) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Workspace, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (*model.Workspace, error)
	// DeleteWithMemberships removes the workspace row and all of its
	// memberships atomically. Invitations are cleaned up separately,
	// best-effort, by the invitation repository.
	DeleteWithMemberships(ctx context.Context, id uuid.UUID) error
	SetMemberCount(ctx context.Context, id uuid.UUID, count int) error
	// ListIDs returns the ids of every workspace. Used by the maintenance
	// sweeps; not paginated.
	ListIDs(ctx context.Context) ([]uuid.UUID, error)
}

type WorkspaceRepository struct {
	db *gorm.DB
}

func NewWorkspaceRepository(db *gorm.DB) *WorkspaceRepository {
	return &WorkspaceRepository{db: db}
}

func (r *WorkspaceRepository) CreateWithOwner(ctx context.Context, workspace *model.Workspace, owner *model.Membership) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(workspace).Error; err != nil {
			return wrapStorage("creating workspace", err)
		}
		owner.WorkspaceID = workspace.ID
		if err := tx.Create(owner).Error; err != nil {
			return wrapStorage("creating owner membership", err)
		}
		return nil
	})
	if err != nil {
		return wrapStorage("workspace bootstrap transaction failed", err)
	}
	return nil
}

func (r *WorkspaceRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Workspace, error) {
	var workspace model.Workspace
	if err := r.db.WithContext(ctx).First(&workspace, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrWorkspaceNotFound
		}
		return nil, wrapStorage("finding workspace", err)
	}
	return &workspace, nil
}

func (r *WorkspaceRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (*model.Workspace, error) {
	result := r.db.WithContext(ctx).Model(&model.Workspace{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return nil, wrapStorage("updating workspace", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, domain.ErrWorkspaceNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *WorkspaceRepository) DeleteWithMemberships(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("workspace_id = ?", id).Delete(&model.Membership{}).Error; err != nil {
			return wrapStorage("deleting memberships", err)
		}
		// Deleting a workspace that no longer exists is a no-op, not an
		// error; the operation is idempotent.
		if err := tx.Where("id = ?", id).Delete(&model.Workspace{}).Error; err != nil {
			return wrapStorage("deleting workspace", err)
		}
		return nil
	})
	if err != nil {
		return wrapStorage("workspace delete transaction failed", err)
	}
	return nil
}

func (r *WorkspaceRepository) SetMemberCount(ctx context.Context, id uuid.UUID, count int) error {
	result := r.db.WithContext(ctx).Model(&model.Workspace{}).Where("id = ?", id).
		Update("member_count", count)
	if result.Error != nil {
		return wrapStorage("setting member count", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrWorkspaceNotFound
	}
	return nil
}

func (r *WorkspaceRepository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).Model(&model.Workspace{}).
		Pluck("id", &ids).Error; err != nil {
		return nil, wrapStorage("listing workspace ids", err)
	}
	return ids, nil
}
