package httpapi

import (
	"net/http"
	"strings"
	"time"

	"elogia.app/internal/auth"
	"elogia.app/internal/engage"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token              string       `json:"token"`
	ExpiresAt          time.Time    `json:"expires_at"`
	MustChangePassword bool         `json:"must_change_password"`
	User               *engage.User `json:"user"`
}

type changePasswordRequest struct {
	UserID          int64  `json:"user_id,omitempty"`
	CurrentPassword string `json:"current_password,omitempty"`
	NewPassword     string `json:"new_password"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		writeError(w, r, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := a.store.Users().FindByEmail(r.Context(), email)
	if err != nil {
		// Unknown accounts and wrong passwords produce the same answer.
		writeError(w, r, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err := auth.VerifyPassword(user.PasswordHash, req.Password); err != nil {
		writeError(w, r, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if user.Status != engage.UserStatusActive {
		writeError(w, r, http.StatusForbidden, "account disabled")
		return
	}

	token, expiresAt, err := a.tokens.Issue(auth.Identity{
		UserID:    user.ID,
		Role:      user.Role,
		CompanyID: user.CompanyID,
	})
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "token issue failed")
		return
	}

	a.audit(r.Context(), "auth.login", "user", user.ID, map[string]string{
		"role": string(user.Role),
	})

	writeJSON(w, http.StatusOK, loginResponse{
		Token:              token,
		ExpiresAt:          expiresAt,
		MustChangePassword: user.MustChangePassword,
		User:               user,
	})
}

func (a *API) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	identity, ok := a.authorize(w, r, action{})
	if !ok {
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.NewPassword) < 8 {
		writeError(w, r, http.StatusBadRequest, "new password must be at least 8 characters")
		return
	}

	targetID := req.UserID
	if targetID == 0 {
		targetID = identity.UserID
	}
	if targetID != identity.UserID && !identity.IsSuperAdmin() {
		writeError(w, r, http.StatusForbidden, "not resource owner")
		return
	}

	target, err := a.store.Users().Find(r.Context(), targetID)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}

	// Self-service changes must prove knowledge of the current password.
	// A super_admin resetting another account does not.
	if targetID == identity.UserID {
		if err := auth.VerifyPassword(target.PasswordHash, req.CurrentPassword); err != nil {
			writeError(w, r, http.StatusUnauthorized, "invalid credentials")
			return
		}
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "password hash failed")
		return
	}
	if err := a.store.Users().UpdatePassword(r.Context(), targetID, hash, false); err != nil {
		handleStoreError(w, r, err)
		return
	}

	a.audit(r.Context(), "auth.password.change", "user", targetID, nil)
	w.WriteHeader(http.StatusNoContent)
}
