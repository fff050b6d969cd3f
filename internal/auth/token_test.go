package auth

import (
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	svc, err := NewTokenService("test-secret", WithIssuer("test-issuer"))
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	identity := Identity{UserID: 42, Role: RoleSupervisor, CompanyID: 7}
	token, expiresAt, err := svc.Issue(identity)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Fatalf("expected future expiration, got %v", expiresAt)
	}

	got, ok := svc.Verify(token)
	if !ok {
		t.Fatal("expected token to verify")
	}
	if got != identity {
		t.Fatalf("identity mismatch: got %+v want %+v", got, identity)
	}
}

func TestTokenSuperAdminHasNoCompany(t *testing.T) {
	svc, err := NewTokenService("test-secret")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	token, _, err := svc.Issue(Identity{UserID: 1, Role: RoleSuperAdmin})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	got, ok := svc.Verify(token)
	if !ok {
		t.Fatal("expected token to verify")
	}
	if got.CompanyID != 0 {
		t.Fatalf("expected zero company id, got %d", got.CompanyID)
	}
}

func TestTokenIssueRejectsInvalidIdentity(t *testing.T) {
	svc, err := NewTokenService("test-secret")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	cases := []struct {
		name     string
		identity Identity
	}{
		{"zero user id", Identity{Role: RoleCollaborator, CompanyID: 1}},
		{"unknown role", Identity{UserID: 1, Role: Role("owner"), CompanyID: 1}},
		{"missing company for collaborator", Identity{UserID: 1, Role: RoleCollaborator}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := svc.Issue(tc.identity); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestVerifyFailsUniformly(t *testing.T) {
	svc, err := NewTokenService("test-secret")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	other, err := NewTokenService("other-secret")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	foreign, _, err := other.Issue(Identity{UserID: 5, Role: RoleCollaborator, CompanyID: 2})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	expiredSvc, err := NewTokenService("test-secret")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	expiredSvc.ttl = -time.Minute
	expired, _, err := expiredSvc.Issue(Identity{UserID: 5, Role: RoleCollaborator, CompanyID: 2})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	for name, token := range map[string]string{
		"empty":         "",
		"garbage":       "not.a.token",
		"wrong secret":  foreign,
		"expired token": expired,
	} {
		if got, ok := svc.Verify(token); ok {
			t.Fatalf("%s: expected verification failure, got %+v", name, got)
		}
	}
}

func TestNewTokenServiceRequiresSecret(t *testing.T) {
	if _, err := NewTokenService(""); err == nil {
		t.Fatal("expected error for empty secret")
	}
	if _, err := NewTokenService("   "); err == nil {
		t.Fatal("expected error for blank secret")
	}
}
