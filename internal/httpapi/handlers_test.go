package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"elogia.app/internal/auth"
	"elogia.app/internal/engage"
	"elogia.app/internal/stream"
)

type fixture struct {
	baseURL  string
	client   *http.Client
	store    *engage.InMemory
	tokenSvc *auth.TokenService
	t        *testing.T

	company1 *engage.Company
	company2 *engage.Company
	super    *engage.User
	admin1   *engage.User
	admin2   *engage.User
	sup1     *engage.User
	collab1  *engage.User
	collab2  *engage.User
	team1    *engage.Team
	team2    *engage.Team
	category *engage.Category
	item     *engage.Item

	tokens map[int64]string
}

func newTestAPI(t *testing.T) *fixture {
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

	api := New(ReadyProbe{}, "test", store, tokens, perms, scopes, stream.New())
	api.rateBurst = 1000
	api.ratePerSec = 1000

	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)

	f := &fixture{
		baseURL:  srv.URL,
		client:   srv.Client(),
		store:    store,
		tokenSvc: tokens,
		t:        t,
		tokens:   make(map[int64]string),
	}
	f.seed(tokens)
	return f
}

func (f *fixture) seed(tokens *auth.TokenService) {
	f.t.Helper()
	ctx := context.Background()

	f.company1 = &engage.Company{Name: "Acme"}
	f.company2 = &engage.Company{Name: "Globex"}
	for _, c := range []*engage.Company{f.company1, f.company2} {
		if err := f.store.Companies().Create(ctx, c); err != nil {
			f.t.Fatalf("create company: %v", err)
		}
	}

	hash, err := auth.HashPassword("correct horse battery")
	if err != nil {
		f.t.Fatalf("HashPassword: %v", err)
	}
	mkUser := func(companyID int64, email string, role auth.Role, points int64) *engage.User {
		u := &engage.User{
			CompanyID:    companyID,
			Email:        email,
			Name:         email,
			PasswordHash: hash,
			Role:         role,
			Points:       points,
		}
		if err := f.store.Users().Create(ctx, u); err != nil {
			f.t.Fatalf("create user %s: %v", email, err)
		}
		return u
	}
	f.super = mkUser(0, "root@elogia.test", auth.RoleSuperAdmin, 0)
	f.admin1 = mkUser(f.company1.ID, "admin@acme.test", auth.RoleCompanyAdmin, 0)
	f.admin2 = mkUser(f.company2.ID, "admin@globex.test", auth.RoleCompanyAdmin, 0)
	f.sup1 = mkUser(f.company1.ID, "sup@acme.test", auth.RoleSupervisor, 0)
	f.collab1 = mkUser(f.company1.ID, "c1@acme.test", auth.RoleCollaborator, 100)
	f.collab2 = mkUser(f.company1.ID, "c2@acme.test", auth.RoleCollaborator, 0)

	f.team1 = &engage.Team{CompanyID: f.company1.ID, Name: "Platform"}
	f.team2 = &engage.Team{CompanyID: f.company1.ID, Name: "Support"}
	for _, tm := range []*engage.Team{f.team1, f.team2} {
		if err := f.store.Teams().Create(ctx, tm); err != nil {
			f.t.Fatalf("create team: %v", err)
		}
	}
	if err := f.store.Teams().AddMember(ctx, f.team1.ID, f.collab1.ID); err != nil {
		f.t.Fatalf("add member: %v", err)
	}
	if err := f.store.Teams().AssignSupervisor(ctx, f.team1.ID, f.sup1.ID); err != nil {
		f.t.Fatalf("assign supervisor: %v", err)
	}

	f.category = &engage.Category{CompanyID: f.company1.ID, Name: "Teamwork", Points: 100}
	if err := f.store.Categories().Create(ctx, f.category); err != nil {
		f.t.Fatalf("create category: %v", err)
	}
	f.item = &engage.Item{CompanyID: f.company1.ID, Name: "Mug", Price: 60, Stock: 1}
	if err := f.store.Items().Create(ctx, f.item); err != nil {
		f.t.Fatalf("create item: %v", err)
	}

	for _, u := range []*engage.User{f.super, f.admin1, f.admin2, f.sup1, f.collab1, f.collab2} {
		token, _, err := tokens.Issue(auth.Identity{UserID: u.ID, Role: u.Role, CompanyID: u.CompanyID})
		if err != nil {
			f.t.Fatalf("issue token for %s: %v", u.Email, err)
		}
		f.tokens[u.ID] = token
	}
}

func (f *fixture) do(user *engage.User, method, path string, body any) *http.Response {
	f.t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			f.t.Fatalf("marshal body: %v", err)
		}
	}
	req, err := http.NewRequest(method, f.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		f.t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != nil {
		req.Header.Set("Authorization", "Bearer "+f.tokens[user.ID])
	}
	resp, err := f.client.Do(req)
	if err != nil {
		f.t.Fatalf("do request: %v", err)
	}
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func wantStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		t.Fatalf("expected status %d, got %d", want, resp.StatusCode)
	}
}

func TestHealthAndInfoArePublic(t *testing.T) {
	f := newTestAPI(t)
	for _, path := range []string{"/healthz", "/readyz", "/v1/info"} {
		resp := f.do(nil, http.MethodGet, path, nil)
		wantStatus(t, resp, http.StatusOK)
		resp.Body.Close()
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	f := newTestAPI(t)
	resp := f.do(nil, http.MethodGet, "/v1/elogios", nil)
	wantStatus(t, resp, http.StatusUnauthorized)
	body := decodeBody[map[string]any](t, resp)
	if body["error"] != "not authenticated" {
		t.Fatalf("unexpected error message: %v", body["error"])
	}

	req, _ := http.NewRequest(http.MethodGet, f.baseURL+"/v1/elogios", nil)
	req.Header.Set("Authorization", "Bearer not-a-real-token")
	resp2, err := f.client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	wantStatus(t, resp2, http.StatusUnauthorized)
	resp2.Body.Close()
}

func TestLoginIssuesUsableToken(t *testing.T) {
	f := newTestAPI(t)

	resp := f.do(nil, http.MethodPost, "/v1/auth/login", map[string]any{
		"email":    "c1@acme.test",
		"password": "correct horse battery",
	})
	wantStatus(t, resp, http.StatusOK)
	body := decodeBody[struct {
		Token string `json:"token"`
	}](t, resp)
	if body.Token == "" {
		t.Fatal("expected token in login response")
	}

	req, _ := http.NewRequest(http.MethodGet, f.baseURL+"/v1/store/balance", nil)
	req.Header.Set("Authorization", "Bearer "+body.Token)
	resp2, err := f.client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	wantStatus(t, resp2, http.StatusOK)
	resp2.Body.Close()
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	f := newTestAPI(t)
	for _, body := range []map[string]any{
		{"email": "c1@acme.test", "password": "wrong"},
		{"email": "nobody@acme.test", "password": "correct horse battery"},
	} {
		resp := f.do(nil, http.MethodPost, "/v1/auth/login", body)
		wantStatus(t, resp, http.StatusUnauthorized)
		resp.Body.Close()
	}
}

func TestCompanyScopeBlocksCrossTenantWrites(t *testing.T) {
	f := newTestAPI(t)

	newName := "Hijacked"
	resp := f.do(f.admin2, http.MethodPatch, fmt.Sprintf("/v1/categories/%d", f.category.ID), map[string]any{
		"name": newName,
	})
	wantStatus(t, resp, http.StatusForbidden)
	body := decodeBody[map[string]any](t, resp)
	if body["error"] != "access denied to category" {
		t.Fatalf("unexpected error message: %v", body["error"])
	}

	// Nonexistent resources stay 404 even across tenants.
	resp2 := f.do(f.admin2, http.MethodPatch, "/v1/categories/99999", map[string]any{"name": newName})
	wantStatus(t, resp2, http.StatusNotFound)
	resp2.Body.Close()

	// The owner tenant's admin can update.
	resp3 := f.do(f.admin1, http.MethodPatch, fmt.Sprintf("/v1/categories/%d", f.category.ID), map[string]any{
		"name": newName,
	})
	wantStatus(t, resp3, http.StatusOK)
	updated := decodeBody[engage.Category](t, resp3)
	if updated.Name != newName {
		t.Fatalf("expected updated name, got %q", updated.Name)
	}
}

func TestPermissionOverridesChangeAccess(t *testing.T) {
	f := newTestAPI(t)

	// Collaborators cannot touch the catalog by default.
	resp := f.do(f.collab1, http.MethodPost, "/v1/items", map[string]any{
		"name": "Sticker", "price": 5, "stock": 100,
	})
	wantStatus(t, resp, http.StatusForbidden)
	resp.Body.Close()

	// An explicit grant flips the decision.
	resp2 := f.do(f.admin1, http.MethodPut, fmt.Sprintf("/v1/users/%d/permissions", f.collab1.ID), map[string]any{
		"key": "insert_new_items_catalog", "value": true,
	})
	wantStatus(t, resp2, http.StatusOK)
	resp2.Body.Close()

	resp3 := f.do(f.collab1, http.MethodPost, "/v1/items", map[string]any{
		"name": "Sticker", "price": 5, "stock": 100,
	})
	wantStatus(t, resp3, http.StatusCreated)
	resp3.Body.Close()

	// An explicit revoke removes a default grant.
	resp4 := f.do(f.admin1, http.MethodPut, fmt.Sprintf("/v1/users/%d/permissions", f.collab1.ID), map[string]any{
		"key": "view_wall", "value": false,
	})
	wantStatus(t, resp4, http.StatusOK)
	resp4.Body.Close()

	resp5 := f.do(f.collab1, http.MethodGet, "/v1/elogios", nil)
	wantStatus(t, resp5, http.StatusForbidden)
	resp5.Body.Close()
}

func TestPermissionManagementIsCompanyScoped(t *testing.T) {
	f := newTestAPI(t)

	resp := f.do(f.admin2, http.MethodPut, fmt.Sprintf("/v1/users/%d/permissions", f.collab1.ID), map[string]any{
		"key": "view_wall", "value": false,
	})
	wantStatus(t, resp, http.StatusForbidden)
	resp.Body.Close()

	// Collaborators may read their own permission set but not manage others.
	resp2 := f.do(f.collab1, http.MethodGet, fmt.Sprintf("/v1/users/%d/permissions", f.collab1.ID), nil)
	wantStatus(t, resp2, http.StatusOK)
	perms := decodeBody[struct {
		Permissions map[string]bool `json:"permissions"`
	}](t, resp2)
	if len(perms.Permissions) != 19 {
		t.Fatalf("expected 19 keys, got %d", len(perms.Permissions))
	}

	resp3 := f.do(f.collab1, http.MethodGet, fmt.Sprintf("/v1/users/%d/permissions", f.collab2.ID), nil)
	wantStatus(t, resp3, http.StatusForbidden)
	resp3.Body.Close()
}

func TestSupervisorTeamAssociation(t *testing.T) {
	f := newTestAPI(t)

	resp := f.do(f.sup1, http.MethodGet, fmt.Sprintf("/v1/teams/%d/analytics", f.team1.ID), nil)
	wantStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	// Same company, but no supervisor association with this team.
	resp2 := f.do(f.sup1, http.MethodGet, fmt.Sprintf("/v1/teams/%d/analytics", f.team2.ID), nil)
	wantStatus(t, resp2, http.StatusForbidden)
	body := decodeBody[map[string]any](t, resp2)
	if body["error"] != "no access to this team" {
		t.Fatalf("unexpected error message: %v", body["error"])
	}

	// company_admin is exempt from the association check within scope.
	resp3 := f.do(f.admin1, http.MethodGet, fmt.Sprintf("/v1/teams/%d/analytics", f.team2.ID), nil)
	wantStatus(t, resp3, http.StatusOK)
	resp3.Body.Close()
}

func TestSuperAdminBypassesScopeAndPermissions(t *testing.T) {
	f := newTestAPI(t)

	resp := f.do(f.super, http.MethodPatch, fmt.Sprintf("/v1/categories/%d", f.category.ID), map[string]any{
		"points": 150,
	})
	wantStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp2 := f.do(f.super, http.MethodGet, fmt.Sprintf("/v1/categories?company_id=%d", f.company2.ID), nil)
	wantStatus(t, resp2, http.StatusOK)
	resp2.Body.Close()

	resp3 := f.do(f.super, http.MethodPost, "/v1/companies", map[string]any{"name": "Initech"})
	wantStatus(t, resp3, http.StatusCreated)
	resp3.Body.Close()

	// Tenant provisioning stays super_admin only.
	resp4 := f.do(f.admin1, http.MethodPost, "/v1/companies", map[string]any{"name": "Initech"})
	wantStatus(t, resp4, http.StatusForbidden)
	resp4.Body.Close()
}

func TestElogioFlowCreditsAndNotifies(t *testing.T) {
	f := newTestAPI(t)

	resp := f.do(f.collab1, http.MethodPost, "/v1/elogios", map[string]any{
		"to_user_id":  f.collab2.ID,
		"category_id": f.category.ID,
		"message":     "carried the release",
	})
	wantStatus(t, resp, http.StatusCreated)
	created := decodeBody[engage.Elogio](t, resp)
	if created.Points != f.category.Points {
		t.Fatalf("expected points %d from category, got %d", f.category.Points, created.Points)
	}

	balance, err := f.store.Points().Balance(context.Background(), f.collab2.ID)
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if balance != f.category.Points {
		t.Fatalf("expected recipient credited %d, got %d", f.category.Points, balance)
	}

	notifications, err := f.store.Notifications().ListByUser(context.Background(), f.collab2.ID)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(notifications) != 1 {
		t.Fatalf("expected one notification, got %d", len(notifications))
	}

	// Self-recognition is rejected.
	resp2 := f.do(f.collab1, http.MethodPost, "/v1/elogios", map[string]any{
		"to_user_id":  f.collab1.ID,
		"category_id": f.category.ID,
		"message":     "I am great",
	})
	wantStatus(t, resp2, http.StatusBadRequest)
	resp2.Body.Close()
}

func TestRedeemEndpoint(t *testing.T) {
	f := newTestAPI(t)

	resp := f.do(f.collab1, http.MethodPost, "/v1/store/redeem", map[string]any{
		"item_id": f.item.ID,
	})
	wantStatus(t, resp, http.StatusCreated)
	tx := decodeBody[engage.PointTransaction](t, resp)
	if tx.Amount != -f.item.Price {
		t.Fatalf("expected amount %d, got %d", -f.item.Price, tx.Amount)
	}

	balResp := f.do(f.collab1, http.MethodGet, "/v1/store/balance", nil)
	wantStatus(t, balResp, http.StatusOK)
	bal := decodeBody[struct {
		Balance int64 `json:"balance"`
	}](t, balResp)
	if bal.Balance != 40 {
		t.Fatalf("expected balance 40, got %d", bal.Balance)
	}

	// Stock hit zero above.
	resp2 := f.do(f.collab2, http.MethodPost, "/v1/store/redeem", map[string]any{
		"item_id": f.item.ID,
	})
	wantStatus(t, resp2, http.StatusConflict)
	resp2.Body.Close()
}

func TestRedeemIdempotencyKeyIsPerUser(t *testing.T) {
	f := newTestAPI(t)
	ctx := context.Background()

	other := &engage.User{
		CompanyID:    f.company1.ID,
		Email:        "c3@acme.test",
		Name:         "c3@acme.test",
		PasswordHash: "x",
		Role:         auth.RoleCollaborator,
		Points:       100,
	}
	if err := f.store.Users().Create(ctx, other); err != nil {
		t.Fatalf("create user: %v", err)
	}
	token, _, err := f.tokenSvc.Issue(auth.Identity{UserID: other.ID, Role: other.Role, CompanyID: other.CompanyID})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	f.tokens[other.ID] = token

	item := &engage.Item{CompanyID: f.company1.ID, Name: "Voucher", Price: 60, Stock: 5}
	if err := f.store.Items().Create(ctx, item); err != nil {
		t.Fatalf("create item: %v", err)
	}

	resp := f.do(f.collab1, http.MethodPost, "/v1/store/redeem", map[string]any{
		"item_id": item.ID, "idempotency_key": "shared-key",
	})
	wantStatus(t, resp, http.StatusCreated)
	first := decodeBody[engage.PointTransaction](t, resp)

	// A second user sending the same key must be charged for a fresh
	// redemption, not handed the first user's transaction.
	resp2 := f.do(other, http.MethodPost, "/v1/store/redeem", map[string]any{
		"item_id": item.ID, "idempotency_key": "shared-key",
	})
	wantStatus(t, resp2, http.StatusCreated)
	second := decodeBody[engage.PointTransaction](t, resp2)
	if second.ID == first.ID {
		t.Fatal("another user's key must not replay an existing transaction")
	}
	if second.UserID != other.ID {
		t.Fatalf("expected transaction for user %d, got %d", other.ID, second.UserID)
	}

	balance, err := f.store.Points().Balance(ctx, other.ID)
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if balance != 40 {
		t.Fatalf("expected second user charged to 40, got %d", balance)
	}
}

func TestChangePasswordOwnership(t *testing.T) {
	f := newTestAPI(t)

	// Another user's password is off limits below super_admin.
	resp := f.do(f.collab1, http.MethodPost, "/v1/auth/change-password", map[string]any{
		"user_id":      f.admin1.ID,
		"new_password": "stolen-password",
	})
	wantStatus(t, resp, http.StatusForbidden)
	resp.Body.Close()

	resp2 := f.do(f.collab1, http.MethodPost, "/v1/auth/change-password", map[string]any{
		"current_password": "correct horse battery",
		"new_password":     "a whole new phrase",
	})
	wantStatus(t, resp2, http.StatusNoContent)
	resp2.Body.Close()

	loginResp := f.do(nil, http.MethodPost, "/v1/auth/login", map[string]any{
		"email":    "c1@acme.test",
		"password": "a whole new phrase",
	})
	wantStatus(t, loginResp, http.StatusOK)
	loginResp.Body.Close()

	// super_admin resets without the current password.
	resp3 := f.do(f.super, http.MethodPost, "/v1/auth/change-password", map[string]any{
		"user_id":      f.collab2.ID,
		"new_password": "reset-by-root",
	})
	wantStatus(t, resp3, http.StatusNoContent)
	resp3.Body.Close()
}

func TestUserCreationRoleCeiling(t *testing.T) {
	f := newTestAPI(t)

	resp := f.do(f.admin1, http.MethodPost, "/v1/users", map[string]any{
		"email":    "new@acme.test",
		"name":     "New Person",
		"role":     "super_admin",
		"password": "provisional1",
	})
	wantStatus(t, resp, http.StatusForbidden)
	resp.Body.Close()

	resp2 := f.do(f.admin1, http.MethodPost, "/v1/users", map[string]any{
		"email":    "new@acme.test",
		"name":     "New Person",
		"role":     "collaborator",
		"password": "provisional1",
	})
	wantStatus(t, resp2, http.StatusCreated)
	created := decodeBody[engage.User](t, resp2)
	if !created.MustChangePassword {
		t.Fatal("admin-created accounts must carry the forced-reset flag")
	}
	if created.CompanyID != f.company1.ID {
		t.Fatalf("expected company %d, got %d", f.company1.ID, created.CompanyID)
	}
}

func TestNotificationOwnership(t *testing.T) {
	f := newTestAPI(t)
	ctx := context.Background()

	n := &engage.Notification{UserID: f.collab2.ID, Kind: "test", Message: "hello"}
	if err := f.store.Notifications().Create(ctx, n); err != nil {
		t.Fatalf("create notification: %v", err)
	}

	resp := f.do(f.collab1, http.MethodPost, fmt.Sprintf("/v1/notifications/%d/read", n.ID), nil)
	wantStatus(t, resp, http.StatusForbidden)
	resp.Body.Close()

	resp2 := f.do(f.collab2, http.MethodPost, fmt.Sprintf("/v1/notifications/%d/read", n.ID), nil)
	wantStatus(t, resp2, http.StatusNoContent)
	resp2.Body.Close()
}

func TestSurveyLifecycle(t *testing.T) {
	f := newTestAPI(t)

	resp := f.do(f.collab1, http.MethodPost, "/v1/surveys", map[string]any{
		"title": "Pulse", "questions": []string{"How are you?"},
	})
	wantStatus(t, resp, http.StatusForbidden)
	resp.Body.Close()

	resp2 := f.do(f.admin1, http.MethodPost, "/v1/surveys", map[string]any{
		"title": "Pulse", "questions": []string{"How are you?", "Would you recommend us?"},
	})
	wantStatus(t, resp2, http.StatusCreated)
	survey := decodeBody[engage.Survey](t, resp2)

	resp3 := f.do(f.collab1, http.MethodPost, fmt.Sprintf("/v1/surveys/%d/responses", survey.ID), map[string]any{
		"answers": []string{"fine"},
	})
	wantStatus(t, resp3, http.StatusBadRequest)
	resp3.Body.Close()

	resp4 := f.do(f.collab1, http.MethodPost, fmt.Sprintf("/v1/surveys/%d/responses", survey.ID), map[string]any{
		"answers": []string{"fine", "yes"},
	})
	wantStatus(t, resp4, http.StatusCreated)
	resp4.Body.Close()

	// Results need view_survey_results, which collaborators lack.
	resp5 := f.do(f.collab1, http.MethodGet, fmt.Sprintf("/v1/surveys/%d/results", survey.ID), nil)
	wantStatus(t, resp5, http.StatusForbidden)
	resp5.Body.Close()

	resp6 := f.do(f.admin1, http.MethodGet, fmt.Sprintf("/v1/surveys/%d/results", survey.ID), nil)
	wantStatus(t, resp6, http.StatusOK)
	results := decodeBody[struct {
		Total int `json:"total"`
	}](t, resp6)
	if results.Total != 1 {
		t.Fatalf("expected one response, got %d", results.Total)
	}
}
