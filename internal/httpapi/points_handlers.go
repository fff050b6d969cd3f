package httpapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"elogia.app/internal/auth"
	"elogia.app/internal/engage"
)

type redeemRequest struct {
	ItemID         int64  `json:"item_id"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

type listPointTransactionsResponse struct {
	Items []engage.PointTransaction `json:"items"`
	AsOf  time.Time                 `json:"as_of"`
}

func (a *API) handleRedeem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req redeemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.ItemID <= 0 {
		writeError(w, r, http.StatusBadRequest, "item_id is required")
		return
	}

	idem := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if req.IdempotencyKey != "" {
		bodyKey := strings.TrimSpace(req.IdempotencyKey)
		if idem == "" {
			idem = bodyKey
		} else if idem != bodyKey {
			writeError(w, r, http.StatusBadRequest, "Idempotency-Key header and body value must match")
			return
		}
	}
	if len(idem) > 128 {
		writeError(w, r, http.StatusBadRequest, "Idempotency-Key too long")
		return
	}

	identity, ok := a.authorize(w, r, action{
		permission: auth.PermRedeemItemsStore,
		scope:      &resourceRef{kind: engage.KindItem, id: req.ItemID},
	})
	if !ok {
		return
	}

	start := time.Now().UTC()
	tx, err := a.store.Points().Redeem(r.Context(), identity.UserID, req.ItemID, idem)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	replayed := idem != "" && !tx.CreatedAt.After(start)

	if idem != "" {
		w.Header().Set("Idempotency-Key", idem)
	}

	meta := map[string]string{
		"item_id": strconv.FormatInt(req.ItemID, 10),
		"amount":  strconv.FormatInt(tx.Amount, 10),
	}
	if idem != "" {
		meta["idempotency_key"] = idem
	}
	event := "store.redeem"
	if replayed {
		event = "store.redeem.idempotent_replay"
	}
	a.audit(r.Context(), event, "point_transaction", tx.ID, meta)

	writeJSON(w, http.StatusCreated, tx)
}

func (a *API) handleBalance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	identity, ok := a.authorize(w, r, action{})
	if !ok {
		return
	}
	balance, err := a.store.Points().Balance(r.Context(), identity.UserID)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user_id": identity.UserID,
		"balance": balance,
	})
}

func (a *API) handleTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	identity, ok := a.authorize(w, r, action{})
	if !ok {
		return
	}
	limit, err := parsePositiveInt(r.URL.Query().Get("limit"), 100, 1, 1000)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	items, err := a.store.Points().ListByUser(r.Context(), identity.UserID, limit)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listPointTransactionsResponse{Items: items, AsOf: time.Now().UTC()})
}
