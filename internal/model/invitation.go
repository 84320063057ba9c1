// internal/model/invitation.go
package model

import (
	"time"

	"github.com/google/uuid"
)

type InvitationStatus string

const (
	InvitationPending   InvitationStatus = "pending"
	InvitationAccepted  InvitationStatus = "accepted"
	InvitationDeclined  InvitationStatus = "declined"
	InvitationExpired   InvitationStatus = "expired"
	InvitationCancelled InvitationStatus = "cancelled"
)

// Terminal reports whether s permits no further transitions.
func (s InvitationStatus) Terminal() bool {
	return s != InvitationPending
}

// Invitation is a time-boxed offer for an email address to join a workspace.
// The partial unique index on (workspace_id, email) where status = 'pending'
// closes the concurrent-create race at the storage layer; application-level
// pre-checks exist only to give callers a clean error.
type Invitation struct {
	ID          uuid.UUID        `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	WorkspaceID uuid.UUID        `gorm:"type:uuid;not null;index;uniqueIndex:idx_invitations_pending,where:status = 'pending'" json:"workspace_id"`
	Email       string           `gorm:"type:citext;not null;index;uniqueIndex:idx_invitations_pending,where:status = 'pending'" json:"email"`
	Role        WorkspaceRole    `gorm:"type:text;not null;default:'member'" json:"role"`
	Status      InvitationStatus `gorm:"type:text;not null;default:'pending';index" json:"status"`
	InvitedBy   string           `gorm:"type:text;not null" json:"invited_by"`
	InviterName string           `gorm:"type:text" json:"inviter_name,omitempty"`

	// Cached workspace display fields for invite listings and the email.
	WorkspaceName string `gorm:"type:text" json:"workspace_name,omitempty"`
	WorkspaceLogo string `gorm:"type:text" json:"workspace_logo,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   time.Time  `gorm:"not null;index" json:"expires_at"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ExpiredAt reports whether the invitation's validity window has passed at t.
func (i *Invitation) ExpiredAt(t time.Time) bool {
	return t.After(i.ExpiresAt)
}
