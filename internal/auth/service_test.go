package auth

import (
	"context"
	"testing"
	"time"
)

type fakePermStore struct {
	records map[int64]map[Key]PermissionRecord
}

func newFakePermStore() *fakePermStore {
	return &fakePermStore{records: make(map[int64]map[Key]PermissionRecord)}
}

func (s *fakePermStore) Get(_ context.Context, userID int64, key Key) (*PermissionRecord, error) {
	rec, ok := s.records[userID][key]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (s *fakePermStore) List(_ context.Context, userID int64) ([]PermissionRecord, error) {
	var out []PermissionRecord
	for _, rec := range s.records[userID] {
		out = append(out, rec)
	}
	return out, nil
}

func (s *fakePermStore) Set(_ context.Context, userID int64, key Key, value bool) (PermissionRecord, error) {
	if s.records[userID] == nil {
		s.records[userID] = make(map[Key]PermissionRecord)
	}
	rec := PermissionRecord{UserID: userID, Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	s.records[userID][key] = rec
	return rec, nil
}

type fakeTeamStore struct {
	supervisors map[int64][]int64 // userID -> team ids
}

func (s *fakeTeamStore) IsTeamSupervisor(_ context.Context, userID, teamID int64) (bool, error) {
	for _, id := range s.supervisors[userID] {
		if id == teamID {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeTeamStore) SupervisorTeamIDs(_ context.Context, userID int64) ([]int64, error) {
	return s.supervisors[userID], nil
}

func newTestService(t *testing.T, perms *fakePermStore, teams *fakeTeamStore) *Service {
	t.Helper()
	svc, err := NewService(perms, teams)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestHasPermissionOverrideBeatsDefault(t *testing.T) {
	perms := newFakePermStore()
	svc := newTestService(t, perms, &fakeTeamStore{})
	ctx := context.Background()

	ok, err := svc.HasPermission(ctx, 10, RoleCollaborator, PermDeleteElogios)
	if err != nil {
		t.Fatalf("HasPermission: %v", err)
	}
	if ok {
		t.Fatal("collaborator should not delete elogios by default")
	}

	if _, err := perms.Set(ctx, 10, PermDeleteElogios, true); err != nil {
		t.Fatalf("Set: %v", err)
	}
	ok, err = svc.HasPermission(ctx, 10, RoleCollaborator, PermDeleteElogios)
	if err != nil {
		t.Fatalf("HasPermission: %v", err)
	}
	if !ok {
		t.Fatal("explicit grant should win over the role default")
	}

	if _, err := perms.Set(ctx, 10, PermViewWall, false); err != nil {
		t.Fatalf("Set: %v", err)
	}
	ok, err = svc.HasPermission(ctx, 10, RoleCollaborator, PermViewWall)
	if err != nil {
		t.Fatalf("HasPermission: %v", err)
	}
	if ok {
		t.Fatal("explicit revoke should win over the role default")
	}
}

func TestHasPermissionSuperAdminSkipsStore(t *testing.T) {
	// A nil record map would panic on access; super_admin must not read it.
	svc := newTestService(t, newFakePermStore(), &fakeTeamStore{})
	ok, err := svc.HasPermission(context.Background(), 1, RoleSuperAdmin, PermManagePermissions)
	if err != nil {
		t.Fatalf("HasPermission: %v", err)
	}
	if !ok {
		t.Fatal("super_admin must hold every permission")
	}
}

func TestUserPermissionsCoversAllKeys(t *testing.T) {
	perms := newFakePermStore()
	svc := newTestService(t, perms, &fakeTeamStore{})
	ctx := context.Background()

	if _, err := perms.Set(ctx, 3, PermCreateSurveys, true); err != nil {
		t.Fatalf("Set: %v", err)
	}

	effective, err := svc.UserPermissions(ctx, 3, RoleCollaborator)
	if err != nil {
		t.Fatalf("UserPermissions: %v", err)
	}
	if len(effective) != len(AllKeys) {
		t.Fatalf("expected %d keys, got %d", len(AllKeys), len(effective))
	}
	if !effective[PermCreateSurveys] {
		t.Fatal("override should appear in the effective set")
	}
	if !effective[PermSendElogios] {
		t.Fatal("role default should appear in the effective set")
	}
	if effective[PermManagePermissions] {
		t.Fatal("unrelated key should stay denied")
	}
}

func TestSetUserPermissionValidatesKey(t *testing.T) {
	svc := newTestService(t, newFakePermStore(), &fakeTeamStore{})
	if _, err := svc.SetUserPermission(context.Background(), 3, Key("made_up"), true); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestCanAccessTeam(t *testing.T) {
	teams := &fakeTeamStore{supervisors: map[int64][]int64{20: {5, 9}}}
	svc := newTestService(t, newFakePermStore(), teams)
	ctx := context.Background()

	ok, err := svc.CanAccessTeam(ctx, 20, 5)
	if err != nil {
		t.Fatalf("CanAccessTeam: %v", err)
	}
	if !ok {
		t.Fatal("registered supervisor should access the team")
	}

	ok, err = svc.CanAccessTeam(ctx, 20, 7)
	if err != nil {
		t.Fatalf("CanAccessTeam: %v", err)
	}
	if ok {
		t.Fatal("unregistered team must be denied")
	}
}
