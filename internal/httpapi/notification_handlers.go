package httpapi

import (
	"net/http"
	"strings"
)

func (a *API) handleNotificationsCollection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	identity, ok := a.authorize(w, r, action{})
	if !ok {
		return
	}
	items, err := a.store.Notifications().ListByUser(r.Context(), identity.UserID)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (a *API) handleNotificationResource(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/notifications/"), "/")
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[1] != "read" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	id, err := parseID(parts[0])
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	notification, err := a.store.Notifications().Find(r.Context(), id)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	// Only the addressee may acknowledge a notification.
	if _, ok := a.authorize(w, r, action{ownerID: notification.UserID}); !ok {
		return
	}

	if err := a.store.Notifications().MarkRead(r.Context(), id); err != nil {
		handleStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
