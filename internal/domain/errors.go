// internal/domain/errors.go
package domain

import "errors"

var (
	// General errors
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrTransient    = errors.New("transient storage failure")

	// Workspace-related errors
	ErrWorkspaceNotFound = errors.New("workspace not found")

	// Membership-related errors
	ErrMembershipNotFound = errors.New("membership not found")
	ErrLastAdministrator  = errors.New("cannot remove the last administrator")

	// Invitation-related errors
	ErrInvitationNotFound   = errors.New("invitation not found")
	ErrDuplicateInvitation  = errors.New("a pending invitation already exists for this email")
	ErrInvitationNotPending = errors.New("invitation is no longer pending")
	ErrInvitationExpired    = errors.New("invitation has expired")
	ErrEmailMismatch        = errors.New("invitation email does not match the accepting user")
)
