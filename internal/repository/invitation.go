// internal/repository/invitation.go
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sponsorgrid/sponsorgrid/internal/domain"
	"github.com/sponsorgrid/sponsorgrid/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InvitationRepositoryIface interface {
	Create(ctx context.Context, invitation *model.Invitation) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Invitation, error)
	FindPending(ctx context.Context, workspaceID uuid.UUID, email string) (*model.Invitation, error)
	FindByWorkspace(ctx context.Context, workspaceID uuid.UUID, status *model.InvitationStatus) ([]*model.Invitation, error)
	FindByEmail(ctx context.Context, email string, status *model.InvitationStatus) ([]*model.Invitation, error)
	// Transition moves the invitation from one status to another with a
	// conditional write; it fails with ErrInvitationNotPending when the
	// record is no longer in the from status.
	Transition(ctx context.Context, id uuid.UUID, from, to model.InvitationStatus, respondedAt *time.Time) error
	// Accept marks the invitation accepted and writes the membership in one
	// transaction. The status and expiry are re-checked inside the
	// conditional write, so a concurrent sweep or cancel loses cleanly.
	Accept(ctx context.Context, id uuid.UUID, membership *model.Membership, now time.Time) error
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
	PurgeTerminal(ctx context.Context, before time.Time) (int64, error)
	DeleteByWorkspace(ctx context.Context, workspaceID uuid.UUID) (int64, error)
	// DeleteOrphans removes invitations whose workspace row no longer
	// exists; repair for partially failed cascades.
	DeleteOrphans(ctx context.Context) (int64, error)
}

type InvitationRepository struct {
	db *gorm.DB
}

func NewInvitationRepository(db *gorm.DB) *InvitationRepository {
	return &InvitationRepository{db: db}
}

func (r *InvitationRepository) Create(ctx context.Context, invitation *model.Invitation) error {
	if err := r.db.WithContext(ctx).Create(invitation).Error; err != nil {
		// The partial unique index on (workspace_id, email) where
		// status = 'pending' is the authoritative single-flight check.
		if isUniqueViolation(err) {
			return domain.ErrDuplicateInvitation
		}
		return wrapStorage("creating invitation", err)
	}
	return nil
}

func (r *InvitationRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Invitation, error) {
	var invitation model.Invitation
	if err := r.db.WithContext(ctx).First(&invitation, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrInvitationNotFound
		}
		return nil, wrapStorage("finding invitation", err)
	}
	return &invitation, nil
}

func (r *InvitationRepository) FindPending(ctx context.Context, workspaceID uuid.UUID, email string) (*model.Invitation, error) {
	var invitation model.Invitation
	err := r.db.WithContext(ctx).
		Where("workspace_id = ? AND email = ? AND status = ?", workspaceID, email, model.InvitationPending).
		First(&invitation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrInvitationNotFound
		}
		return nil, wrapStorage("finding pending invitation", err)
	}
	return &invitation, nil
}

func (r *InvitationRepository) FindByWorkspace(ctx context.Context, workspaceID uuid.UUID, status *model.InvitationStatus) ([]*model.Invitation, error) {
	query := r.db.WithContext(ctx).Where("workspace_id = ?", workspaceID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	var invitations []*model.Invitation
	if err := query.Order("created_at DESC").Find(&invitations).Error; err != nil {
		return nil, wrapStorage("listing workspace invitations", err)
	}
	return invitations, nil
}

func (r *InvitationRepository) FindByEmail(ctx context.Context, email string, status *model.InvitationStatus) ([]*model.Invitation, error) {
	query := r.db.WithContext(ctx).Where("email = ?", email)
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	var invitations []*model.Invitation
	if err := query.Order("created_at DESC").Find(&invitations).Error; err != nil {
		return nil, wrapStorage("listing invitations by email", err)
	}
	return invitations, nil
}

func (r *InvitationRepository) Transition(ctx context.Context, id uuid.UUID, from, to model.InvitationStatus, respondedAt *time.Time) error {
	fields := map[string]interface{}{"status": to}
	if respondedAt != nil {
		fields["responded_at"] = *respondedAt
	}
	result := r.db.WithContext(ctx).Model(&model.Invitation{}).
		Where("id = ? AND status = ?", id, from).
		Updates(fields)
	if result.Error != nil {
		return wrapStorage("transitioning invitation", result.Error)
	}
	if result.RowsAffected == 0 {
		if _, err := r.FindByID(ctx, id); err != nil {
			return err
		}
		return domain.ErrInvitationNotPending
	}
	return nil
}

func (r *InvitationRepository) Accept(ctx context.Context, id uuid.UUID, membership *model.Membership, now time.Time) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Invitation{}).
			Where("id = ? AND status = ? AND expires_at > ?", id, model.InvitationPending, now).
			Updates(map[string]interface{}{
				"status":       model.InvitationAccepted,
				"responded_at": now,
			})
		if result.Error != nil {
			return wrapStorage("accepting invitation", result.Error)
		}
		if result.RowsAffected == 0 {
			invitation, err := r.findByIDTx(tx, id)
			if err != nil {
				return err
			}
			if invitation.Status != model.InvitationPending {
				return domain.ErrInvitationNotPending
			}
			return domain.ErrInvitationExpired
		}
		upsert := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "workspace_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).Create(membership)
		if upsert.Error != nil {
			return wrapStorage("creating membership", upsert.Error)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvitationNotFound) ||
			errors.Is(err, domain.ErrInvitationNotPending) ||
			errors.Is(err, domain.ErrInvitationExpired) {
			return err
		}
		return wrapStorage("invitation accept transaction failed", err)
	}
	return nil
}

func (r *InvitationRepository) findByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Invitation, error) {
	var invitation model.Invitation
	if err := tx.First(&invitation, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrInvitationNotFound
		}
		return nil, wrapStorage("finding invitation", err)
	}
	return &invitation, nil
}

func (r *InvitationRepository) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&model.Invitation{}).
		Where("status = ? AND expires_at <= ?", model.InvitationPending, now).
		Update("status", model.InvitationExpired)
	if result.Error != nil {
		return 0, wrapStorage("expiring invitations", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *InvitationRepository) PurgeTerminal(ctx context.Context, before time.Time) (int64, error) {
	// Terminal rows are immutable, so updated_at records when the terminal
	// state was reached.
	result := r.db.WithContext(ctx).
		Where("status <> ? AND updated_at < ?", model.InvitationPending, before).
		Delete(&model.Invitation{})
	if result.Error != nil {
		return 0, wrapStorage("purging invitations", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *InvitationRepository) DeleteByWorkspace(ctx context.Context, workspaceID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("workspace_id = ?", workspaceID).
		Delete(&model.Invitation{})
	if result.Error != nil {
		return 0, wrapStorage("deleting workspace invitations", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *InvitationRepository) DeleteOrphans(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("workspace_id NOT IN (?)", r.db.Model(&model.Workspace{}).Select("id")).
		Delete(&model.Invitation{})
	if result.Error != nil {
		return 0, wrapStorage("deleting orphaned invitations", result.Error)
	}
	return result.RowsAffected, nil
}
