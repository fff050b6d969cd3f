package httpapi

import (
	"errors"
	"net/http"

	"elogia.app/internal/auth"
	"elogia.app/internal/engage"
)

type resourceRef struct {
	kind engage.ResourceKind
	id   int64
}

// action parameterizes one authorization decision. Zero-valued fields skip
// their check, so each handler states only the requirements it has.
type action struct {
	// permission is the key the actor's effective permission set must
	// grant. Empty means no permission requirement.
	permission auth.Key
	// roles is a role allowlist. Without a permission key it is the sole
	// gate; with one it rescues an actor whose effective permission is
	// false but whose role is listed.
	roles []auth.Role
	// scope names the resource whose owning company must match the
	// actor's company.
	scope *resourceRef
	// ownerID requires the actor to be that user.
	ownerID int64
	// teamID requires a supervisor association with that team for actors
	// below company_admin.
	teamID int64
}

// authorize runs the ordered decision procedure for one request: identity,
// permission or role, company scope, resource ownership, team association.
// super_admin passes every check unconditionally. On denial the response is
// already written and the second return is false.
func (a *API) authorize(w http.ResponseWriter, r *http.Request, act action) (auth.Identity, bool) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "not authenticated")
		return auth.Identity{}, false
	}
	if identity.IsSuperAdmin() {
		return identity, true
	}

	if act.permission != "" {
		allowed, err := a.perms.HasPermission(r.Context(), identity.UserID, identity.Role, act.permission)
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, "authorization check failed")
			return auth.Identity{}, false
		}
		if !allowed && len(act.roles) > 0 {
			allowed = roleAllowed(identity.Role, act.roles)
		}
		if !allowed {
			writeError(w, r, http.StatusForbidden, "insufficient permission")
			return auth.Identity{}, false
		}
	} else if len(act.roles) > 0 && !roleAllowed(identity.Role, act.roles) {
		writeError(w, r, http.StatusForbidden, "insufficient permission")
		return auth.Identity{}, false
	}

	if act.scope != nil {
		companies, err := a.scopes.CompanyIDs(r.Context(), act.scope.kind, act.scope.id)
		if err != nil {
			// A missing resource stays a 404 so callers cannot probe
			// other tenants' id space through 403s.
			if errors.Is(err, engage.ErrNotFound) {
				writeError(w, r, http.StatusNotFound, "resource not found")
				return auth.Identity{}, false
			}
			handleStoreError(w, r, err)
			return auth.Identity{}, false
		}
		if !containsID(companies, identity.CompanyID) {
			writeError(w, r, http.StatusForbidden, "access denied to "+string(act.scope.kind))
			return auth.Identity{}, false
		}
	}

	if act.ownerID != 0 && identity.UserID != act.ownerID {
		writeError(w, r, http.StatusForbidden, "not resource owner")
		return auth.Identity{}, false
	}

	if act.teamID != 0 && identity.Role != auth.RoleCompanyAdmin {
		ok, err := a.perms.CanAccessTeam(r.Context(), identity.UserID, act.teamID)
		if err != nil {
			handleStoreError(w, r, err)
			return auth.Identity{}, false
		}
		if !ok {
			writeError(w, r, http.StatusForbidden, "no access to this team")
			return auth.Identity{}, false
		}
	}

	return identity, true
}

func roleAllowed(role auth.Role, allowed []auth.Role) bool {
	for _, r := range allowed {
		if role == r {
			return true
		}
	}
	return false
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
