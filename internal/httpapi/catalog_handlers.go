package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"elogia.app/internal/auth"
	"elogia.app/internal/engage"
)

type createCategoryRequest struct {
	Name      string `json:"name"`
	Points    int64  `json:"points"`
	CompanyID int64  `json:"company_id,omitempty"`
}

type updateCategoryRequest struct {
	Name   *string `json:"name,omitempty"`
	Points *int64  `json:"points,omitempty"`
}

type createItemRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Price       int64  `json:"price"`
	Stock       int64  `json:"stock"`
	CompanyID   int64  `json:"company_id,omitempty"`
}

type updateItemRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Price       *int64  `json:"price,omitempty"`
	Stock       *int64  `json:"stock,omitempty"`
}

// resolveCompany picks the tenant an operation applies to. Regular actors
// are pinned to their own company; super_admin must name one explicitly.
func resolveCompany(identity auth.Identity, explicit int64) (int64, error) {
	if !identity.IsSuperAdmin() {
		return identity.CompanyID, nil
	}
	if explicit <= 0 {
		return 0, fmt.Errorf("%w: company_id is required for super_admin", engage.ErrInvalidInput)
	}
	return explicit, nil
}

func companyFromQuery(r *http.Request) int64 {
	id, err := parseID(r.URL.Query().Get("company_id"))
	if err != nil {
		return 0
	}
	return id
}

func (a *API) handleCategoriesCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listCategories(w, r)
	case http.MethodPost:
		a.createCategory(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleCategoryResource(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/categories/"), "/")
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
		a.getCategory(w, r, id)
	case http.MethodPatch:
		a.updateCategory(w, r, id)
	case http.MethodDelete:
		a.deleteCategory(w, r, id)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}

func (a *API) listCategories(w http.ResponseWriter, r *http.Request) {
	identity, ok := a.authorize(w, r, action{})
	if !ok {
		return
	}
	companyID, err := resolveCompany(identity, companyFromQuery(r))
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	items, err := a.store.Categories().ListByCompany(r.Context(), companyID)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (a *API) createCategory(w http.ResponseWriter, r *http.Request) {
	identity, ok := a.authorize(w, r, action{permission: auth.PermManageCategories})
	if !ok {
		return
	}

	var req createCategoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, r, http.StatusBadRequest, "name is required")
		return
	}
	if req.Points <= 0 {
		writeError(w, r, http.StatusBadRequest, "points must be > 0")
		return
	}
	companyID, err := resolveCompany(identity, req.CompanyID)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}

	category := &engage.Category{
		CompanyID: companyID,
		Name:      strings.TrimSpace(req.Name),
		Points:    req.Points,
	}
	if err := a.store.Categories().Create(r.Context(), category); err != nil {
		handleStoreError(w, r, err)
		return
	}

	a.audit(r.Context(), "category.create", "category", category.ID, map[string]string{
		"name": category.Name,
	})
	w.Header().Set("Location", fmt.Sprintf("/v1/categories/%d", category.ID))
	writeJSON(w, http.StatusCreated, category)
}

func (a *API) getCategory(w http.ResponseWriter, r *http.Request, id int64) {
	if _, ok := a.authorize(w, r, action{scope: &resourceRef{kind: engage.KindCategory, id: id}}); !ok {
		return
	}
	category, err := a.store.Categories().Find(r.Context(), id)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

func (a *API) updateCategory(w http.ResponseWriter, r *http.Request, id int64) {
	if _, ok := a.authorize(w, r, action{
		permission: auth.PermManageCategories,
		scope:      &resourceRef{kind: engage.KindCategory, id: id},
	}); !ok {
		return
	}

	var req updateCategoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Points != nil && *req.Points <= 0 {
		writeError(w, r, http.StatusBadRequest, "points must be > 0")
		return
	}

	category, err := a.store.Categories().Update(r.Context(), id, engage.CategoryUpdate{
		Name:   req.Name,
		Points: req.Points,
	})
	if err != nil {
		handleStoreError(w, r, err)
		return
	}

	a.audit(r.Context(), "category.update", "category", id, nil)
	writeJSON(w, http.StatusOK, category)
}

func (a *API) deleteCategory(w http.ResponseWriter, r *http.Request, id int64) {
	if _, ok := a.authorize(w, r, action{
		permission: auth.PermManageCategories,
		scope:      &resourceRef{kind: engage.KindCategory, id: id},
	}); !ok {
		return
	}
	if err := a.store.Categories().Delete(r.Context(), id); err != nil {
		handleStoreError(w, r, err)
		return
	}
	a.audit(r.Context(), "category.delete", "category", id, nil)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleItemsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listItems(w, r)
	case http.MethodPost:
		a.createItem(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleItemResource(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/items/"), "/")
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
		a.getItem(w, r, id)
	case http.MethodPatch:
		a.updateItem(w, r, id)
	case http.MethodDelete:
		a.deleteItem(w, r, id)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}

func (a *API) listItems(w http.ResponseWriter, r *http.Request) {
	identity, ok := a.authorize(w, r, action{permission: auth.PermViewStore})
	if !ok {
		return
	}
	companyID, err := resolveCompany(identity, companyFromQuery(r))
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	items, err := a.store.Items().ListByCompany(r.Context(), companyID)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (a *API) createItem(w http.ResponseWriter, r *http.Request) {
	identity, ok := a.authorize(w, r, action{permission: auth.PermInsertItemsCatalog})
	if !ok {
		return
	}

	var req createItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, r, http.StatusBadRequest, "name is required")
		return
	}
	if req.Price <= 0 {
		writeError(w, r, http.StatusBadRequest, "price must be > 0")
		return
	}
	if req.Stock < 0 {
		writeError(w, r, http.StatusBadRequest, "stock must be >= 0")
		return
	}
	companyID, err := resolveCompany(identity, req.CompanyID)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}

	item := &engage.Item{
		CompanyID:   companyID,
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		Price:       req.Price,
		Stock:       req.Stock,
	}
	if err := a.store.Items().Create(r.Context(), item); err != nil {
		handleStoreError(w, r, err)
		return
	}

	a.audit(r.Context(), "item.create", "item", item.ID, map[string]string{
		"name": item.Name,
	})
	w.Header().Set("Location", fmt.Sprintf("/v1/items/%d", item.ID))
	writeJSON(w, http.StatusCreated, item)
}

func (a *API) getItem(w http.ResponseWriter, r *http.Request, id int64) {
	if _, ok := a.authorize(w, r, action{
		permission: auth.PermViewStore,
		scope:      &resourceRef{kind: engage.KindItem, id: id},
	}); !ok {
		return
	}
	item, err := a.store.Items().Find(r.Context(), id)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (a *API) updateItem(w http.ResponseWriter, r *http.Request, id int64) {
	if _, ok := a.authorize(w, r, action{
		permission: auth.PermUpdateItemsCatalog,
		scope:      &resourceRef{kind: engage.KindItem, id: id},
	}); !ok {
		return
	}

	var req updateItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Price != nil && *req.Price <= 0 {
		writeError(w, r, http.StatusBadRequest, "price must be > 0")
		return
	}
	if req.Stock != nil && *req.Stock < 0 {
		writeError(w, r, http.StatusBadRequest, "stock must be >= 0")
		return
	}

	item, err := a.store.Items().Update(r.Context(), id, engage.ItemUpdate{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
	})
	if err != nil {
		handleStoreError(w, r, err)
		return
	}

	a.audit(r.Context(), "item.update", "item", id, nil)
	writeJSON(w, http.StatusOK, item)
}

func (a *API) deleteItem(w http.ResponseWriter, r *http.Request, id int64) {
	if _, ok := a.authorize(w, r, action{
		permission: auth.PermRemoveItemsCatalog,
		scope:      &resourceRef{kind: engage.KindItem, id: id},
	}); !ok {
		return
	}
	if err := a.store.Items().Delete(r.Context(), id); err != nil {
		handleStoreError(w, r, err)
		return
	}
	a.audit(r.Context(), "item.delete", "item", id, nil)
	w.WriteHeader(http.StatusNoContent)
}
