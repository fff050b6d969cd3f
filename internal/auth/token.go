package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	defaultIssuer   = "elogia"
	defaultTokenTTL = 7 * 24 * time.Hour
)

// ErrMissingSecret indicates the service was constructed without a signing
// secret. This is a configuration error and must abort startup.
var ErrMissingSecret = errors.New("auth: signing secret is not configured")

// Claims is the JWT payload carried by every identity token.
type Claims struct {
	UserID    int64 `json:"uid"`
	Role      Role  `json:"role"`
	CompanyID int64 `json:"cid,omitempty"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 identity tokens. Verification is
// stateless; tokens are never persisted and expire only by TTL.
type TokenService struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// TokenOption configures a TokenService.
type TokenOption func(*TokenService)

// WithIssuer overrides the default token issuer.
func WithIssuer(issuer string) TokenOption {
	return func(s *TokenService) {
		if issuer = strings.TrimSpace(issuer); issuer != "" {
			s.issuer = issuer
		}
	}
}

// WithTokenTTL overrides the default 7-day token lifetime.
func WithTokenTTL(ttl time.Duration) TokenOption {
	return func(s *TokenService) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// NewTokenService validates the signing secret once at construction so a
// missing secret fails the process at startup, not on first use.
func NewTokenService(secret string, opts ...TokenOption) (*TokenService, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, ErrMissingSecret
	}
	s := &TokenService{
		secret: []byte(secret),
		issuer: defaultIssuer,
		ttl:    defaultTokenTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue signs a token for the given identity and returns it with its expiry.
func (s *TokenService) Issue(identity Identity) (string, time.Time, error) {
	if identity.UserID <= 0 {
		return "", time.Time{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if !identity.Role.Valid() {
		return "", time.Time{}, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, identity.Role)
	}
	if identity.Role != RoleSuperAdmin && identity.CompanyID <= 0 {
		return "", time.Time{}, fmt.Errorf("%w: company id is required for role %s", ErrInvalidInput, identity.Role)
	}

	now := time.Now().UTC()
	expiresAt := now.Add(s.ttl)
	claims := Claims{
		UserID:    identity.UserID,
		Role:      identity.Role,
		CompanyID: identity.CompanyID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   strconv.FormatInt(identity.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify returns the identity carried by token. The second return value is
// false on any validation failure: malformed token, bad signature, expiry,
// wrong issuer, or inconsistent claims. Callers must treat false as
// "unauthenticated" without distinguishing the reason.
func (s *TokenService) Verify(token string) (Identity, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, false
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		return Identity{}, false
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Identity{}, false
	}
	if err := s.validateClaims(claims); err != nil {
		return Identity{}, false
	}
	return Identity{
		UserID:    claims.UserID,
		Role:      claims.Role,
		CompanyID: claims.CompanyID,
	}, true
}

func (s *TokenService) validateClaims(claims *Claims) error {
	if claims.Issuer != s.issuer {
		return fmt.Errorf("unexpected issuer: %s", claims.Issuer)
	}
	if claims.UserID <= 0 {
		return errors.New("user id missing")
	}
	if !claims.Role.Valid() {
		return errors.New("unknown role")
	}
	if claims.Role != RoleSuperAdmin && claims.CompanyID <= 0 {
		return errors.New("company id missing")
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return errors.New("timestamps missing")
	}
	now := time.Now().UTC()
	if now.After(claims.ExpiresAt.Time) {
		return errors.New("token expired")
	}
	// Allow a small clock skew of 5 seconds when validating issued-at.
	if claims.IssuedAt.Time.After(now.Add(5 * time.Second)) {
		return errors.New("token issued in the future")
	}
	if claims.ExpiresAt.Time.Before(claims.IssuedAt.Time) {
		return errors.New("token expiry precedes issued-at")
	}
	return nil
}
