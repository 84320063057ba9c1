// Package policy maps a workspace role to the capabilities it grants. It is
// pure and does no I/O; callers resolve the membership first and pass the
// role in. A user with no membership has no role and therefore no
// capabilities: the zero value of WorkspaceRole denies everything.
package policy

import "github.com/sponsorgrid/sponsorgrid/internal/model"

func CanViewData(role model.WorkspaceRole) bool {
	return role == model.RoleAdministrator || role == model.RoleMember
}

func CanEditData(role model.WorkspaceRole) bool {
	return role == model.RoleAdministrator || role == model.RoleMember
}

func CanManageMembers(role model.WorkspaceRole) bool {
	return role == model.RoleAdministrator
}

func CanManageWorkspace(role model.WorkspaceRole) bool {
	return role == model.RoleAdministrator
}

func CanDeleteData(role model.WorkspaceRole) bool {
	return role == model.RoleAdministrator
}
