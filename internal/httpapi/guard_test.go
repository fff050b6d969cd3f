package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"elogia.app/internal/auth"
	"elogia.app/internal/engage"
	"elogia.app/internal/stream"
)

func newGuardAPI(t *testing.T) *API {
	t.Helper()
	store := engage.NewInMemory()
	tokens, err := auth.NewTokenService("test-secret")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	perms, err := auth.NewService(store.Permissions(), store.Teams())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	scopes, err := engage.NewScopeResolver(store)
	if err != nil {
		t.Fatalf("NewScopeResolver: %v", err)
	}
	return New(ReadyProbe{}, "test", store, tokens, perms, scopes, stream.New())
}

func identityRequest(identity auth.Identity) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	return req.WithContext(auth.ContextWithIdentity(req.Context(), identity))
}

func TestAuthorizeRoleAllowlistRescuesDeniedPermission(t *testing.T) {
	api := newGuardAPI(t)
	collaborator := auth.Identity{UserID: 1, Role: auth.RoleCollaborator, CompanyID: 1}

	// manage_categories is false for collaborators by default.
	rr := httptest.NewRecorder()
	if _, ok := api.authorize(rr, identityRequest(collaborator), action{
		permission: auth.PermManageCategories,
	}); ok {
		t.Fatal("expected denial without a role fallback")
	}
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}

	// The same denied permission passes when the actor's role is listed.
	rr = httptest.NewRecorder()
	if _, ok := api.authorize(rr, identityRequest(collaborator), action{
		permission: auth.PermManageCategories,
		roles:      []auth.Role{auth.RoleCollaborator},
	}); !ok {
		t.Fatalf("expected role allowlist to rescue the denied permission, got %d", rr.Code)
	}

	// A role outside the allowlist stays denied.
	rr = httptest.NewRecorder()
	if _, ok := api.authorize(rr, identityRequest(collaborator), action{
		permission: auth.PermManageCategories,
		roles:      []auth.Role{auth.RoleCompanyAdmin},
	}); ok {
		t.Fatal("expected denial when the role is not allowlisted either")
	}
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
}

func TestAuthorizeGrantedPermissionNeedsNoRole(t *testing.T) {
	api := newGuardAPI(t)
	collaborator := auth.Identity{UserID: 1, Role: auth.RoleCollaborator, CompanyID: 1}

	// view_wall is a collaborator default; an unrelated allowlist is moot.
	rr := httptest.NewRecorder()
	if _, ok := api.authorize(rr, identityRequest(collaborator), action{
		permission: auth.PermViewWall,
		roles:      []auth.Role{auth.RoleCompanyAdmin},
	}); !ok {
		t.Fatalf("expected granted permission to pass, got %d", rr.Code)
	}
}

func TestAuthorizeRequiresIdentity(t *testing.T) {
	api := newGuardAPI(t)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	if _, ok := api.authorize(rr, req, action{}); ok {
		t.Fatal("expected denial without an identity")
	}
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}
