package auth

import (
	"reflect"
	"testing"
)

func TestHasPermission(t *testing.T) {
	tests := []struct {
		role Role
		perm Permission
		want bool
	}{
		{RoleAdmin, PermContentWrite, true},
		{RoleAdmin, PermMediaUpload, true},
		{RoleAdmin, PermAccountManage, true},
		{RoleAdmin, PermAuditRead, true},
		{RoleAdmin, PermSystemRead, true},
		{RoleEditor, PermContentWrite, true},
		{RoleEditor, PermMediaUpload, true},
		{RoleEditor, PermAccountManage, false},
		{RoleEditor, PermAuditRead, false},
		{RoleEditor, PermSystemRead, false},
		{Role("guest"), PermContentWrite, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+string(tt.perm), func(t *testing.T) {
			if got := HasPermission(tt.role, tt.perm); got != tt.want {
				t.Errorf("HasPermission(%s, %s) = %v, want %v", tt.role, tt.perm, got, tt.want)
			}
		})
	}
}

func TestRolesWith(t *testing.T) {
	if got := RolesWith(PermContentWrite); !reflect.DeepEqual(got, []Role{RoleAdmin, RoleEditor}) {
		t.Errorf("RolesWith(content:write) = %v, want [admin editor]", got)
	}
	if got := RolesWith(PermAccountManage); !reflect.DeepEqual(got, []Role{RoleAdmin}) {
		t.Errorf("RolesWith(account:manage) = %v, want [admin]", got)
	}
}

func TestPermissionsForRole_ReturnsCopy(t *testing.T) {
	perms := PermissionsForRole(RoleEditor)
	perms[0] = PermSystemRead

	if HasPermission(RoleEditor, PermSystemRead) {
		t.Error("mutating the returned slice must not change the role table")
	}
	if PermissionsForRole(Role("nobody")) != nil {
		t.Error("unknown role should have no permissions")
	}
}
