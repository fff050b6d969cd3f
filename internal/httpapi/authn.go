package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"elogia.app/internal/auth"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
	// sessionCookie is the fallback token carrier for browser clients.
	sessionCookie = "elogia_session"
)

var publicPaths = []string{
	"/v1/auth/login",
	"/metrics",
	"/healthz",
	"/readyz",
	"/v1/info",
	"/openapi.yaml",
	"/",
}

// withAuth verifies the bearer token on every protected route and installs
// the actor identity into the request context. Any verification failure
// yields the same 401 so callers cannot distinguish bad signatures from
// expired or malformed tokens.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractToken(r)
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, "not authenticated")
			return
		}

		identity, ok := a.tokens.Verify(token)
		if !ok {
			writeError(w, r, http.StatusUnauthorized, "not authenticated")
			return
		}

		ctx := auth.ContextWithIdentity(r.Context(), identity)
		ctx = auth.ContextWithToken(ctx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func extractToken(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get(authHeader))
	if header != "" {
		if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
			return "", errors.New("invalid authorization scheme")
		}
		token := strings.TrimSpace(header[len(bearer):])
		if token == "" {
			return "", errors.New("missing bearer token")
		}
		return token, nil
	}
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		return c.Value, nil
	}
	return "", errors.New("missing bearer token")
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}
