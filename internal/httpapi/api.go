package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"elogia.app/api/spec"
	"elogia.app/internal/audit"
	"elogia.app/internal/auth"
	"elogia.app/internal/engage"
	"elogia.app/internal/obs"
	"elogia.app/internal/stream"
)

// ReadyProbe reports readiness; with a DB configured it pings the pool.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API is the HTTP layer. Every resource handler goes through the
// authorization guard in guard.go before touching the store.
type API struct {
	mux        *http.ServeMux
	readyProbe ReadyProbe
	version    string

	store  engage.Store
	scopes *engage.ScopeResolver
	tokens *auth.TokenService
	perms  *auth.Service
	wall   *stream.Stream

	rateBurst  int
	ratePerSec int
}

// New wires the routing table. All dependencies are required except wall,
// which may be nil to disable the live feed.
func New(rp ReadyProbe, version string, store engage.Store, tokens *auth.TokenService, perms *auth.Service, scopes *engage.ScopeResolver, wall *stream.Stream) *API {
	a := &API{
		mux:        http.NewServeMux(),
		readyProbe: rp,
		version:    version,
		store:      store,
		scopes:     scopes,
		tokens:     tokens,
		perms:      perms,
		wall:       wall,
		rateBurst:  20,
		ratePerSec: 10,
	}

	a.mux.HandleFunc("/healthz", a.handleHealthz)
	a.mux.HandleFunc("/readyz", a.handleReady)
	a.mux.HandleFunc("/v1/info", a.handleInfo)
	a.mux.HandleFunc("/openapi.yaml", a.handleOpenAPISpec)
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/v1/auth/login", a.handleLogin)
	a.mux.HandleFunc("/v1/auth/change-password", a.handleChangePassword)

	a.mux.HandleFunc("/v1/companies", a.handleCompaniesCollection)
	a.mux.HandleFunc("/v1/companies/", a.handleCompanyResource)
	a.mux.HandleFunc("/v1/categories", a.handleCategoriesCollection)
	a.mux.HandleFunc("/v1/categories/", a.handleCategoryResource)
	a.mux.HandleFunc("/v1/items", a.handleItemsCollection)
	a.mux.HandleFunc("/v1/items/", a.handleItemResource)
	a.mux.HandleFunc("/v1/elogios", a.handleElogiosCollection)
	a.mux.HandleFunc("/v1/elogios/", a.handleElogioResource)
	a.mux.HandleFunc("/v1/wall/stream", a.handleWallStream)

	a.mux.HandleFunc("/v1/store/redeem", a.handleRedeem)
	a.mux.HandleFunc("/v1/store/balance", a.handleBalance)
	a.mux.HandleFunc("/v1/store/transactions", a.handleTransactions)

	a.mux.HandleFunc("/v1/users", a.handleUsersCollection)
	a.mux.HandleFunc("/v1/users/", a.handleUserResource)
	a.mux.HandleFunc("/v1/teams", a.handleTeamsCollection)
	a.mux.HandleFunc("/v1/teams/", a.handleTeamResource)
	a.mux.HandleFunc("/v1/notifications", a.handleNotificationsCollection)
	a.mux.HandleFunc("/v1/notifications/", a.handleNotificationResource)
	a.mux.HandleFunc("/v1/surveys", a.handleSurveysCollection)
	a.mux.HandleFunc("/v1/surveys/", a.handleSurveyResource)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the server handler with the full middleware chain applied.
func (a *API) Handler() http.Handler {
	h := a.withAuth(a.mux)
	h = RateLimit(h, a.rateBurst, a.ratePerSec)
	h = LoggingJSON(h)
	h = RequestID(h)
	h = MaxBodyBytes(h, 1<<20)
	h = CORS(h)
	h = SecurityHeaders(h)
	return obs.Instrument(h)
}

func (a *API) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "elogia-api",
		"version": a.version,
	})
}

func (a *API) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

func (a *API) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "elogia-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

func (a *API) handleOpenAPISpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
	_, _ = w.Write(spec.OpenAPI)
}

// audit emits an audit entry tagged with the mutated resource.
func (a *API) audit(ctx context.Context, event, resourceType string, resourceID int64, meta map[string]string) {
	fields := map[string]any{
		"resource_type": resourceType,
		"resource_id":   strconv.FormatInt(resourceID, 10),
	}
	for k, v := range meta {
		fields[k] = v
	}
	_ = audit.LogEvent(ctx, event, fields)
}
