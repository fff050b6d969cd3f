package auth

import "testing"

func boolPtr(v bool) *bool { return &v }

func TestResolve(t *testing.T) {
	cases := []struct {
		name     string
		role     Role
		key      Key
		override *bool
		want     bool
	}{
		{"collaborator default allows wall", RoleCollaborator, PermViewWall, nil, true},
		{"collaborator default denies catalog", RoleCollaborator, PermInsertItemsCatalog, nil, false},
		{"collaborator override grants catalog", RoleCollaborator, PermInsertItemsCatalog, boolPtr(true), true},
		{"collaborator override revokes store", RoleCollaborator, PermViewStore, boolPtr(false), false},
		{"supervisor default allows team analytics", RoleSupervisor, PermViewTeamAnalytics, nil, true},
		{"supervisor default denies company analytics", RoleSupervisor, PermViewCompanyAnalytics, nil, false},
		{"company admin default allows everything", RoleCompanyAdmin, PermManagePermissions, nil, true},
		{"company admin override revokes", RoleCompanyAdmin, PermDeleteElogios, boolPtr(false), false},
		{"super admin ignores revoking override", RoleSuperAdmin, PermDeleteElogios, boolPtr(false), true},
		{"unknown role denies", Role("owner"), PermViewWall, nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Resolve(tc.role, tc.key, tc.override); got != tc.want {
				t.Fatalf("Resolve(%s, %s) = %t, want %t", tc.role, tc.key, got, tc.want)
			}
		})
	}
}

func TestAllKeysComplete(t *testing.T) {
	if len(AllKeys) != 19 {
		t.Fatalf("expected 19 permission keys, got %d", len(AllKeys))
	}
	seen := make(map[Key]struct{}, len(AllKeys))
	for _, key := range AllKeys {
		if _, dup := seen[key]; dup {
			t.Fatalf("duplicate key %s", key)
		}
		seen[key] = struct{}{}
		if _, err := ParseKey(string(key)); err != nil {
			t.Fatalf("ParseKey(%s): %v", key, err)
		}
	}
}

func TestParseKeyRejectsUnknown(t *testing.T) {
	if _, err := ParseKey("view_everything"); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestParseRole(t *testing.T) {
	for _, role := range []Role{RoleSuperAdmin, RoleCompanyAdmin, RoleSupervisor, RoleCollaborator} {
		got, err := ParseRole(string(role))
		if err != nil {
			t.Fatalf("ParseRole(%s): %v", role, err)
		}
		if got != role {
			t.Fatalf("ParseRole(%s) = %s", role, got)
		}
	}
	if _, err := ParseRole("manager"); err == nil {
		t.Fatal("expected error for unknown role")
	}
}

func TestRoleAtLeast(t *testing.T) {
	if !RoleCompanyAdmin.AtLeast(RoleSupervisor) {
		t.Fatal("company_admin should outrank supervisor")
	}
	if RoleCollaborator.AtLeast(RoleSupervisor) {
		t.Fatal("collaborator should not outrank supervisor")
	}
	if !RoleSuperAdmin.AtLeast(RoleSuperAdmin) {
		t.Fatal("role should be at least itself")
	}
}
