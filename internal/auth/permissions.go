package auth

import "slices"

// Permission represents a named capability in the system.
type Permission string

// Permission constants.
const (
	PermContentWrite  Permission = "content:write"
	PermMediaUpload   Permission = "media:upload"
	PermAccountManage Permission = "account:manage"
	PermAuditRead     Permission = "audit:read"
	PermSystemRead    Permission = "system:read"
)

// rolePermissions maps each role to its granted permissions.
// This is the single source of truth for the authorisation model.
var rolePermissions = map[Role][]Permission{
	RoleEditor: {
		PermContentWrite,
		PermMediaUpload,
	},
	RoleAdmin: {
		PermContentWrite,
		PermMediaUpload,
		PermAccountManage,
		PermAuditRead,
		PermSystemRead,
	},
}

// HasPermission returns true if the given role has the specified permission.
func HasPermission(role Role, perm Permission) bool {
	return slices.Contains(rolePermissions[role], perm)
}

// RolesWith returns every role granted perm, in ValidRoles order.
func RolesWith(perm Permission) []Role {
	var roles []Role
	for _, r := range ValidRoles {
		if HasPermission(r, perm) {
			roles = append(roles, r)
		}
	}
	return roles
}

// PermissionsForRole returns all permissions granted to a role.
// Returns nil for unknown roles.
func PermissionsForRole(role Role) []Permission {
	return slices.Clone(rolePermissions[role])
}
