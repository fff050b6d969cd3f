package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"elogia.app/internal/auth"
	"elogia.app/internal/engage"
)

type createTeamRequest struct {
	Name      string `json:"name"`
	CompanyID int64  `json:"company_id,omitempty"`
}

type teamMemberRequest struct {
	UserID int64 `json:"user_id"`
}

var teamAdminRoles = []auth.Role{auth.RoleSuperAdmin, auth.RoleCompanyAdmin}

func (a *API) handleTeamsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listTeams(w, r)
	case http.MethodPost:
		a.createTeam(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleTeamResource(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/teams/"), "/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if path == "supervised" {
		a.listSupervisedTeams(w, r)
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
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		a.getTeam(w, r, id)
	case len(parts) == 2 && parts[1] == "members":
		switch r.Method {
		case http.MethodGet:
			a.listTeamMembers(w, r, id)
		case http.MethodPost:
			a.addTeamMember(w, r, id)
		default:
			methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
		}
	case len(parts) == 2 && parts[1] == "supervisors":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		a.assignTeamSupervisor(w, r, id)
	case len(parts) == 2 && parts[1] == "analytics":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		a.getTeamAnalytics(w, r, id)
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) listTeams(w http.ResponseWriter, r *http.Request) {
	identity, ok := a.authorize(w, r, action{})
	if !ok {
		return
	}
	companyID, err := resolveCompany(identity, companyFromQuery(r))
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	teams, err := a.store.Teams().ListByCompany(r.Context(), companyID)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": teams})
}

func (a *API) listSupervisedTeams(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	identity, ok := a.authorize(w, r, action{})
	if !ok {
		return
	}
	ids, err := a.perms.SupervisorTeamIDs(r.Context(), identity.UserID)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	if ids == nil {
		ids = []int64{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"team_ids": ids})
}

func (a *API) createTeam(w http.ResponseWriter, r *http.Request) {
	identity, ok := a.authorize(w, r, action{roles: teamAdminRoles})
	if !ok {
		return
	}

	var req createTeamRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, r, http.StatusBadRequest, "name is required")
		return
	}
	companyID, err := resolveCompany(identity, req.CompanyID)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}

	team := &engage.Team{CompanyID: companyID, Name: name}
	if err := a.store.Teams().Create(r.Context(), team); err != nil {
		handleStoreError(w, r, err)
		return
	}

	a.audit(r.Context(), "team.create", "team", team.ID, map[string]string{
		"name": team.Name,
	})
	w.Header().Set("Location", fmt.Sprintf("/v1/teams/%d", team.ID))
	writeJSON(w, http.StatusCreated, team)
}

func (a *API) getTeam(w http.ResponseWriter, r *http.Request, id int64) {
	if _, ok := a.authorize(w, r, action{scope: &resourceRef{kind: engage.KindTeam, id: id}}); !ok {
		return
	}
	team, err := a.store.Teams().Find(r.Context(), id)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, team)
}

func (a *API) listTeamMembers(w http.ResponseWriter, r *http.Request, id int64) {
	if _, ok := a.authorize(w, r, action{
		permission: auth.PermViewTeamAnalytics,
		scope:      &resourceRef{kind: engage.KindTeam, id: id},
		teamID:     id,
	}); !ok {
		return
	}
	members, err := a.store.Teams().Members(r.Context(), id)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": members})
}

func (a *API) addTeamMember(w http.ResponseWriter, r *http.Request, id int64) {
	if _, ok := a.authorize(w, r, action{
		roles: teamAdminRoles,
		scope: &resourceRef{kind: engage.KindTeam, id: id},
	}); !ok {
		return
	}

	var req teamMemberRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.UserID <= 0 {
		writeError(w, r, http.StatusBadRequest, "user_id is required")
		return
	}
	team, err := a.store.Teams().Find(r.Context(), id)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	user, err := a.store.Users().Find(r.Context(), req.UserID)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	if user.CompanyID != team.CompanyID {
		writeError(w, r, http.StatusBadRequest, "user belongs to another company")
		return
	}

	if err := a.store.Teams().AddMember(r.Context(), id, req.UserID); err != nil {
		handleStoreError(w, r, err)
		return
	}
	a.audit(r.Context(), "team.member.add", "team", id, map[string]string{
		"user_id": strconv.FormatInt(req.UserID, 10),
	})
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) assignTeamSupervisor(w http.ResponseWriter, r *http.Request, id int64) {
	if _, ok := a.authorize(w, r, action{
		roles: teamAdminRoles,
		scope: &resourceRef{kind: engage.KindTeam, id: id},
	}); !ok {
		return
	}

	var req teamMemberRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.UserID <= 0 {
		writeError(w, r, http.StatusBadRequest, "user_id is required")
		return
	}
	team, err := a.store.Teams().Find(r.Context(), id)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	user, err := a.store.Users().Find(r.Context(), req.UserID)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	if user.CompanyID != team.CompanyID {
		writeError(w, r, http.StatusBadRequest, "user belongs to another company")
		return
	}
	if user.Role != auth.RoleSupervisor {
		writeError(w, r, http.StatusBadRequest, "user is not a supervisor")
		return
	}

	if err := a.store.Teams().AssignSupervisor(r.Context(), id, req.UserID); err != nil {
		handleStoreError(w, r, err)
		return
	}
	a.audit(r.Context(), "team.supervisor.assign", "team", id, map[string]string{
		"user_id": strconv.FormatInt(req.UserID, 10),
	})
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) getTeamAnalytics(w http.ResponseWriter, r *http.Request, id int64) {
	if _, ok := a.authorize(w, r, action{
		permission: auth.PermViewTeamAnalytics,
		scope:      &resourceRef{kind: engage.KindTeam, id: id},
		teamID:     id,
	}); !ok {
		return
	}
	analytics, err := a.store.Teams().Analytics(r.Context(), id)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, analytics)
}
