// internal/model/workspace.go
package model

import (
	"time"

	"github.com/google/uuid"
)

type WorkspaceType string

const (
	WorkspaceTypePersonal WorkspaceType = "personal"
	WorkspaceTypeClub     WorkspaceType = "club"
	WorkspaceTypeAthlete  WorkspaceType = "athlete"
	WorkspaceTypeOther    WorkspaceType = "other"
)

// ValidWorkspaceType reports whether t is one of the closed set of types.
func ValidWorkspaceType(t WorkspaceType) bool {
	switch t {
	case WorkspaceTypePersonal, WorkspaceTypeClub, WorkspaceTypeAthlete, WorkspaceTypeOther:
		return true
	}
	return false
}

type Workspace struct {
	ID          uuid.UUID     `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Name        string        `gorm:"type:text;not null" json:"name"`
	Description string        `gorm:"type:text" json:"description,omitempty"`
	Type        WorkspaceType `gorm:"type:text;not null;default:'other'" json:"type"`
	OwnerID     string        `gorm:"type:text;not null;index" json:"owner_id"`
	MemberCount int           `gorm:"not null;default:1" json:"member_count"`
	LogoURL     string        `gorm:"type:text" json:"logo_url,omitempty"`

	Settings WorkspaceSettings `gorm:"embedded;embeddedPrefix:settings_" json:"settings"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WorkspaceSettings holds the per-workspace policy flags.
type WorkspaceSettings struct {
	// AllowMemberInvites lets plain members create invitations; by default
	// only administrators can.
	AllowMemberInvites bool `gorm:"not null;default:false" json:"allow_member_invites"`
	// Visibility is "private" or "public".
	Visibility string `gorm:"type:text;not null;default:'private'" json:"visibility"`
}
