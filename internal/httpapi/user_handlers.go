package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"elogia.app/internal/auth"
	"elogia.app/internal/engage"
)

type createUserRequest struct {
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	Password  string `json:"password"`
	CompanyID int64  `json:"company_id,omitempty"`
}

type updateUserRequest struct {
	Name *string `json:"name,omitempty"`
	Role *string `json:"role,omitempty"`
}

type setPermissionRequest struct {
	Key   string `json:"key"`
	Value bool   `json:"value"`
}

type userPermissionsResponse struct {
	UserID      int64                   `json:"user_id"`
	Role        auth.Role               `json:"role"`
	Permissions map[auth.Key]bool       `json:"permissions"`
	Overrides   []auth.PermissionRecord `json:"overrides"`
}

func (a *API) handleUsersCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listUsers(w, r)
	case http.MethodPost:
		a.createUser(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleUserResource(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/users/"), "/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	parts := strings.Split(path, "/")
	id, err := parseID(parts[0])
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	switch {
	case len(parts) == 1:
		switch r.Method {
		case http.MethodGet:
			a.getUser(w, r, id)
		case http.MethodPatch:
			a.updateUser(w, r, id)
		default:
			methodNotAllowed(w, r, http.MethodGet, http.MethodPatch)
		}
	case len(parts) == 2 && parts[1] == "permissions":
		switch r.Method {
		case http.MethodGet:
			a.getUserPermissions(w, r, id)
		case http.MethodPut:
			a.setUserPermission(w, r, id)
		default:
			methodNotAllowed(w, r, http.MethodGet, http.MethodPut)
		}
	case len(parts) == 2 && parts[1] == "deactivate":
		a.setUserStatus(w, r, id, engage.UserStatusDisabled)
	case len(parts) == 2 && parts[1] == "activate":
		a.setUserStatus(w, r, id, engage.UserStatusActive)
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) listUsers(w http.ResponseWriter, r *http.Request) {
	identity, ok := a.authorize(w, r, action{})
	if !ok {
		return
	}
	companyID, err := resolveCompany(identity, companyFromQuery(r))
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	users, err := a.store.Users().ListByCompany(r.Context(), companyID)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": users})
}

func (a *API) createUser(w http.ResponseWriter, r *http.Request) {
	identity, ok := a.authorize(w, r, action{permission: auth.PermCreateUsers})
	if !ok {
		return
	}

	var req createUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	name := strings.TrimSpace(req.Name)
	if email == "" || name == "" {
		writeError(w, r, http.StatusBadRequest, "email and name are required")
		return
	}
	if len(req.Password) < 8 {
		writeError(w, r, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}
	role, err := auth.ParseRole(req.Role)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	// Nobody grants a role above their own.
	if !identity.Role.AtLeast(role) {
		writeError(w, r, http.StatusForbidden, "cannot create a user with a higher role")
		return
	}

	companyID, err := resolveCompany(identity, req.CompanyID)
	if err != nil && role != auth.RoleSuperAdmin {
		handleStoreError(w, r, err)
		return
	}
	if role == auth.RoleSuperAdmin {
		companyID = 0
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "password hash failed")
		return
	}

	user := &engage.User{
		CompanyID:    companyID,
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Role:         role,
		// Admin-created accounts must replace the provisional password
		// on first login.
		MustChangePassword: true,
		Status:             engage.UserStatusActive,
	}
	if err := a.store.Users().Create(r.Context(), user); err != nil {
		handleStoreError(w, r, err)
		return
	}

	a.audit(r.Context(), "user.create", "user", user.ID, map[string]string{
		"email": user.Email,
		"role":  string(user.Role),
	})
	w.Header().Set("Location", fmt.Sprintf("/v1/users/%d", user.ID))
	writeJSON(w, http.StatusCreated, user)
}

func (a *API) getUser(w http.ResponseWriter, r *http.Request, id int64) {
	if _, ok := a.authorize(w, r, action{scope: &resourceRef{kind: engage.KindUser, id: id}}); !ok {
		return
	}
	user, err := a.store.Users().Find(r.Context(), id)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (a *API) updateUser(w http.ResponseWriter, r *http.Request, id int64) {
	identity, ok := a.authorize(w, r, action{
		permission: auth.PermUpdateUsers,
		scope:      &resourceRef{kind: engage.KindUser, id: id},
	})
	if !ok {
		return
	}

	var req updateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	upd := engage.UserUpdate{Name: req.Name}
	if req.Role != nil {
		role, err := auth.ParseRole(*req.Role)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		if !identity.Role.AtLeast(role) {
			writeError(w, r, http.StatusForbidden, "cannot grant a higher role")
			return
		}
		upd.Role = &role
	}

	user, err := a.store.Users().Update(r.Context(), id, upd)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}

	a.audit(r.Context(), "user.update", "user", id, nil)
	writeJSON(w, http.StatusOK, user)
}

func (a *API) setUserStatus(w http.ResponseWriter, r *http.Request, id int64, status string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	identity, ok := a.authorize(w, r, action{
		permission: auth.PermDeactivateUsers,
		scope:      &resourceRef{kind: engage.KindUser, id: id},
	})
	if !ok {
		return
	}
	if id == identity.UserID {
		writeError(w, r, http.StatusBadRequest, "cannot change own account status")
		return
	}
	if err := a.store.Users().SetStatus(r.Context(), id, status); err != nil {
		handleStoreError(w, r, err)
		return
	}
	a.audit(r.Context(), "user.status", "user", id, map[string]string{"status": status})
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) getUserPermissions(w http.ResponseWriter, r *http.Request, id int64) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "not authenticated")
		return
	}
	// Everyone may inspect their own effective permission set. Inspecting
	// someone else's requires the management key within the same company.
	if id != identity.UserID {
		if _, ok := a.authorize(w, r, action{
			permission: auth.PermManagePermissions,
			scope:      &resourceRef{kind: engage.KindUser, id: id},
		}); !ok {
			return
		}
	}

	target, err := a.store.Users().Find(r.Context(), id)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	effective, err := a.perms.UserPermissions(r.Context(), target.ID, target.Role)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	overrides, err := a.store.Permissions().List(r.Context(), target.ID)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	if overrides == nil {
		overrides = []auth.PermissionRecord{}
	}
	writeJSON(w, http.StatusOK, userPermissionsResponse{
		UserID:      target.ID,
		Role:        target.Role,
		Permissions: effective,
		Overrides:   overrides,
	})
}

func (a *API) setUserPermission(w http.ResponseWriter, r *http.Request, id int64) {
	if _, ok := a.authorize(w, r, action{
		permission: auth.PermManagePermissions,
		scope:      &resourceRef{kind: engage.KindUser, id: id},
	}); !ok {
		return
	}

	var req setPermissionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	key, err := auth.ParseKey(req.Key)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	target, err := a.store.Users().Find(r.Context(), id)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	if target.Role == auth.RoleSuperAdmin {
		writeError(w, r, http.StatusBadRequest, "super_admin permissions cannot be overridden")
		return
	}

	record, err := a.perms.SetUserPermission(r.Context(), id, key, req.Value)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}

	a.audit(r.Context(), "permission.set", "user", id, map[string]string{
		"key":   string(key),
		"value": fmt.Sprintf("%t", req.Value),
	})
	writeJSON(w, http.StatusOK, record)
}
