package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"elogia.app/internal/auth"
	"elogia.app/internal/engage"
)

type createCompanyRequest struct {
	Name string `json:"name"`
}

func (a *API) handleCompaniesCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.createCompany(w, r)
	case http.MethodGet:
		a.listCompanies(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleCompanyResource(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/companies/"), "/")
	if path == "" || strings.Contains(path, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	id, err := parseID(path)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}

	if _, ok := a.authorize(w, r, action{scope: &resourceRef{kind: engage.KindCompany, id: id}}); !ok {
		return
	}
	company, err := a.store.Companies().Find(r.Context(), id)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, company)
}

// Tenants are provisioned by the platform operator only.
func (a *API) createCompany(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.authorize(w, r, action{roles: []auth.Role{auth.RoleSuperAdmin}}); !ok {
		return
	}

	var req createCompanyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, r, http.StatusBadRequest, "name is required")
		return
	}

	company := &engage.Company{Name: name, Status: engage.CompanyStatusActive}
	if err := a.store.Companies().Create(r.Context(), company); err != nil {
		handleStoreError(w, r, err)
		return
	}

	a.audit(r.Context(), "company.create", "company", company.ID, map[string]string{
		"name": company.Name,
	})
	w.Header().Set("Location", fmt.Sprintf("/v1/companies/%d", company.ID))
	writeJSON(w, http.StatusCreated, company)
}

func (a *API) listCompanies(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.authorize(w, r, action{roles: []auth.Role{auth.RoleSuperAdmin}}); !ok {
		return
	}
	companies, err := a.store.Companies().List(r.Context())
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": companies})
}
