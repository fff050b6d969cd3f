package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"elogia.app/internal/auth"
	"elogia.app/internal/engage"
	"elogia.app/internal/stream"
)

type createElogioRequest struct {
	ToUserID   int64  `json:"to_user_id"`
	CategoryID int64  `json:"category_id"`
	Message    string `json:"message"`
}

type listElogiosResponse struct {
	Items []*engage.Elogio `json:"items"`
	AsOf  time.Time        `json:"as_of"`
}

func (a *API) handleElogiosCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listElogios(w, r)
	case http.MethodPost:
		a.createElogio(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleElogioResource(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/elogios/"), "/")
	if path == "" || strings.Contains(path, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	id, err := parseID(path)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	switch r.Method {
	case http.MethodGet:
		a.getElogio(w, r, id)
	case http.MethodDelete:
		a.deleteElogio(w, r, id)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodDelete)
	}
}

// The wall is the company-wide recognition feed.
func (a *API) listElogios(w http.ResponseWriter, r *http.Request) {
	identity, ok := a.authorize(w, r, action{permission: auth.PermViewWall})
	if !ok {
		return
	}
	limit, err := parsePositiveInt(r.URL.Query().Get("limit"), 50, 1, 500)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	companyID, err := resolveCompany(identity, companyFromQuery(r))
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	items, err := a.store.Elogios().ListByCompany(r.Context(), companyID, limit)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listElogiosResponse{Items: items, AsOf: time.Now().UTC()})
}

func (a *API) createElogio(w http.ResponseWriter, r *http.Request) {
	identity, ok := a.authorize(w, r, action{permission: auth.PermSendElogios})
	if !ok {
		return
	}

	var req createElogioRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.ToUserID <= 0 || req.CategoryID <= 0 {
		writeError(w, r, http.StatusBadRequest, "to_user_id and category_id are required")
		return
	}
	if req.ToUserID == identity.UserID {
		writeError(w, r, http.StatusBadRequest, "cannot send an elogio to yourself")
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		writeError(w, r, http.StatusBadRequest, "message is required")
		return
	}

	recipient, err := a.store.Users().Find(r.Context(), req.ToUserID)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	if !identity.IsSuperAdmin() && recipient.CompanyID != identity.CompanyID {
		writeError(w, r, http.StatusForbidden, "access denied to user")
		return
	}
	category, err := a.store.Categories().Find(r.Context(), req.CategoryID)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	if category.CompanyID != recipient.CompanyID {
		writeError(w, r, http.StatusBadRequest, "category belongs to another company")
		return
	}

	elogio := &engage.Elogio{
		FromUserID: identity.UserID,
		ToUserID:   recipient.ID,
		CategoryID: category.ID,
		Message:    message,
		Points:     category.Points,
	}
	if err := a.store.Elogios().Create(r.Context(), elogio); err != nil {
		handleStoreError(w, r, err)
		return
	}

	a.notifyElogio(r.Context(), elogio, recipient, category)
	a.publishElogio(r.Context(), elogio, recipient, category)

	a.audit(r.Context(), "elogio.create", "elogio", elogio.ID, map[string]string{
		"to_user_id": strconv.FormatInt(recipient.ID, 10),
		"category":   category.Name,
		"points":     strconv.FormatInt(category.Points, 10),
	})
	w.Header().Set("Location", fmt.Sprintf("/v1/elogios/%d", elogio.ID))
	writeJSON(w, http.StatusCreated, elogio)
}

func (a *API) notifyElogio(ctx context.Context, e *engage.Elogio, recipient *engage.User, category *engage.Category) {
	n := &engage.Notification{
		UserID:  recipient.ID,
		Kind:    "elogio_received",
		Message: fmt.Sprintf("you received a %s elogio worth %d points", category.Name, e.Points),
	}
	// Notification delivery is best effort; the elogio itself is already
	// committed.
	_ = a.store.Notifications().Create(ctx, n)
}

func (a *API) publishElogio(ctx context.Context, e *engage.Elogio, recipient *engage.User, category *engage.Category) {
	if a.wall == nil {
		return
	}
	fromName := ""
	if sender, err := a.store.Users().Find(ctx, e.FromUserID); err == nil {
		fromName = sender.Name
	}
	a.wall.Publish(stream.ElogioEvent{
		ElogioID:  e.ID,
		CompanyID: recipient.CompanyID,
		From:      fromName,
		To:        recipient.Name,
		Category:  category.Name,
		Points:    e.Points,
		Message:   e.Message,
		Timestamp: time.Now().UTC(),
	})
}

func (a *API) getElogio(w http.ResponseWriter, r *http.Request, id int64) {
	if _, ok := a.authorize(w, r, action{
		permission: auth.PermViewWall,
		scope:      &resourceRef{kind: engage.KindElogio, id: id},
	}); !ok {
		return
	}
	elogio, err := a.store.Elogios().Find(r.Context(), id)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, elogio)
}

func (a *API) deleteElogio(w http.ResponseWriter, r *http.Request, id int64) {
	if _, ok := a.authorize(w, r, action{
		permission: auth.PermDeleteElogios,
		scope:      &resourceRef{kind: engage.KindElogio, id: id},
	}); !ok {
		return
	}
	if err := a.store.Elogios().Delete(r.Context(), id); err != nil {
		handleStoreError(w, r, err)
		return
	}
	a.audit(r.Context(), "elogio.delete", "elogio", id, nil)
	w.WriteHeader(http.StatusNoContent)
}

// handleWallStream serves the live recognition feed over Server-Sent
// Events, filtered to the subscriber's company.
func (a *API) handleWallStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	identity, ok := a.authorize(w, r, action{permission: auth.PermViewWall})
	if !ok {
		return
	}
	if a.wall == nil {
		writeError(w, r, http.StatusServiceUnavailable, "streaming disabled")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, r, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	ch := a.wall.Subscribe(ctx)

	_, _ = w.Write([]byte(": stream started\n\n"))
	flusher.Flush()

	for event := range ch {
		if !identity.IsSuperAdmin() && event.CompanyID != identity.CompanyID {
			continue
		}
		payload, err := json.Marshal(event)
		if err != nil {
			continue
		}
		_, _ = w.Write([]byte("data: "))
		_, _ = w.Write(payload)
		_, _ = w.Write([]byte("\n\n"))
		flusher.Flush()
	}
}
