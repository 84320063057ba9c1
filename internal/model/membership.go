// internal/model/membership.go
package model

import (
	"time"

	"github.com/google/uuid"
)

type WorkspaceRole string

const (
	RoleAdministrator WorkspaceRole = "administrator"
	RoleMember        WorkspaceRole = "member"
)

// ValidWorkspaceRole reports whether r is a known role.
func ValidWorkspaceRole(r WorkspaceRole) bool {
	return r == RoleAdministrator || r == RoleMember
}

// Membership binds one user to one workspace. The composite primary key on
// (workspace_id, user_id) guarantees at most one row per pair; addMember is
// an upsert against that key rather than a check-then-insert.
type Membership struct {
	WorkspaceID uuid.UUID     `gorm:"type:uuid;primaryKey" json:"workspace_id"`
	UserID      string        `gorm:"type:text;primaryKey" json:"user_id"`
	Role        WorkspaceRole `gorm:"type:text;not null;default:'member'" json:"role"`
	InvitedBy   string        `gorm:"type:text" json:"invited_by,omitempty"`

	// Cached display fields, owned by the identity provider. Refreshed
	// best-effort via MembershipService.SyncUserInfo; may be stale.
	Email       string `gorm:"type:text" json:"email,omitempty"`
	DisplayName string `gorm:"type:text" json:"display_name,omitempty"`
	PhotoURL    string `gorm:"type:text" json:"photo_url,omitempty"`

	JoinedAt  time.Time `gorm:"not null;autoCreateTime" json:"joined_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserInfo is the identity snapshot the API layer resolves per request and
// hands to the services that cache display fields.
type UserInfo struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
	PhotoURL    string `json:"photo_url,omitempty"`
}
