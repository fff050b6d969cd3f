package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"elogia.app/internal/auth"
	"elogia.app/internal/engage"
)

type createSurveyRequest struct {
	Title     string   `json:"title"`
	Questions []string `json:"questions"`
	CompanyID int64    `json:"company_id,omitempty"`
}

type surveyResponseRequest struct {
	Answers []string `json:"answers"`
}

type surveyResultsResponse struct {
	Survey    *engage.Survey           `json:"survey"`
	Responses []*engage.SurveyResponse `json:"responses"`
	Total     int                      `json:"total"`
}

func (a *API) handleSurveysCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listSurveys(w, r)
	case http.MethodPost:
		a.createSurvey(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleSurveyResource(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/surveys/"), "/")
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
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		a.getSurvey(w, r, id)
	case len(parts) == 2 && parts[1] == "responses":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		a.respondSurvey(w, r, id)
	case len(parts) == 2 && parts[1] == "results":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		a.getSurveyResults(w, r, id)
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) listSurveys(w http.ResponseWriter, r *http.Request) {
	identity, ok := a.authorize(w, r, action{})
	if !ok {
		return
	}
	companyID, err := resolveCompany(identity, companyFromQuery(r))
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	surveys, err := a.store.Surveys().ListByCompany(r.Context(), companyID)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": surveys})
}

func (a *API) createSurvey(w http.ResponseWriter, r *http.Request) {
	identity, ok := a.authorize(w, r, action{permission: auth.PermCreateSurveys})
	if !ok {
		return
	}

	var req createSurveyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		writeError(w, r, http.StatusBadRequest, "title is required")
		return
	}
	if len(req.Questions) == 0 {
		writeError(w, r, http.StatusBadRequest, "at least one question is required")
		return
	}
	companyID, err := resolveCompany(identity, req.CompanyID)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}

	survey := &engage.Survey{
		CompanyID: companyID,
		CreatedBy: identity.UserID,
		Title:     title,
		Questions: req.Questions,
	}
	if err := a.store.Surveys().Create(r.Context(), survey); err != nil {
		handleStoreError(w, r, err)
		return
	}

	a.audit(r.Context(), "survey.create", "survey", survey.ID, map[string]string{
		"title": survey.Title,
	})
	w.Header().Set("Location", fmt.Sprintf("/v1/surveys/%d", survey.ID))
	writeJSON(w, http.StatusCreated, survey)
}

func (a *API) getSurvey(w http.ResponseWriter, r *http.Request, id int64) {
	if _, ok := a.authorize(w, r, action{scope: &resourceRef{kind: engage.KindSurvey, id: id}}); !ok {
		return
	}
	survey, err := a.store.Surveys().Find(r.Context(), id)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, survey)
}

func (a *API) respondSurvey(w http.ResponseWriter, r *http.Request, id int64) {
	identity, ok := a.authorize(w, r, action{
		permission: auth.PermRespondSurveys,
		scope:      &resourceRef{kind: engage.KindSurvey, id: id},
	})
	if !ok {
		return
	}

	var req surveyResponseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	survey, err := a.store.Surveys().Find(r.Context(), id)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	if len(req.Answers) != len(survey.Questions) {
		writeError(w, r, http.StatusBadRequest, "answer count must match question count")
		return
	}

	resp := &engage.SurveyResponse{
		SurveyID: id,
		UserID:   identity.UserID,
		Answers:  req.Answers,
	}
	if err := a.store.Surveys().AddResponse(r.Context(), resp); err != nil {
		handleStoreError(w, r, err)
		return
	}

	a.audit(r.Context(), "survey.respond", "survey", id, nil)
	writeJSON(w, http.StatusCreated, resp)
}

func (a *API) getSurveyResults(w http.ResponseWriter, r *http.Request, id int64) {
	if _, ok := a.authorize(w, r, action{
		permission: auth.PermViewSurveyResults,
		scope:      &resourceRef{kind: engage.KindSurvey, id: id},
	}); !ok {
		return
	}
	survey, err := a.store.Surveys().Find(r.Context(), id)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	responses, err := a.store.Surveys().Responses(r.Context(), id)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	if responses == nil {
		responses = []*engage.SurveyResponse{}
	}
	writeJSON(w, http.StatusOK, surveyResultsResponse{
		Survey:    survey,
		Responses: responses,
		Total:     len(responses),
	})
}
