package web

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/regline/roi-filing/internal/filing"
)

// createFilingRequest creates a filing either from explicit parameters or
// from a bare legal identifier with configured defaults.
type createFilingRequest struct {
	Name      string                    `json:"name,omitempty"`
	LegalID   string                    `json:"legalId,omitempty"`
	RefPeriod string                    `json:"refPeriod,omitempty"`
	Params    *filing.PackageParameters `json:"params,omitempty"`
}

// handleCreateFiling stores a new filing. The request either carries full
// package parameters or a legal identifier that gets the configured
// defaults applied.
func (s *Server) handleCreateFiling(w http.ResponseWriter, r *http.Request) {
	var req createFilingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	var params filing.PackageParameters
	switch {
	case req.Params != nil:
		params = *req.Params
	case req.LegalID != "":
		if req.RefPeriod != "" {
			refDate, err := time.Parse("2006-01-02", req.RefPeriod)
			if err != nil {
				writeError(w, http.StatusBadRequest, "refPeriod must be YYYY-MM-DD")
				return
			}
			params = s.service.NewFilingParams(req.LegalID, refDate)
		} else {
			params = s.service.NewFilingParams(req.LegalID)
		}
	default:
		writeError(w, http.StatusBadRequest, "either params or legalId is required")
		return
	}

	f, err := s.service.CreateFiling(r.Context(), req.Name, params)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, f)
}

// handleListFilings returns all filings, newest first.
func (s *Server) handleListFilings(w http.ResponseWriter, r *http.Request) {
	filings, err := s.service.ListFilings(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, filings)
}

// handleGetFiling returns one filing with its parameters.
func (s *Server) handleGetFiling(w http.ResponseWriter, r *http.Request) {
	f, err := s.service.GetFiling(r.Context(), chi.URLParam(r, "filingID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, f)
}

// handleTemplateRowCounts returns the stored row count for every template
// of a filing, in registry order.
func (s *Server) handleTemplateRowCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := s.service.TemplateRowCounts(r.Context(), chi.URLParam(r, "filingID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, counts)
}

// replaceRowsRequest carries the full replacement row set for one template.
type replaceRowsRequest struct {
	Rows []filing.Row `json:"rows"`
}

// handleReplaceRows replaces the stored rows for one template of a filing.
func (s *Server) handleReplaceRows(w http.ResponseWriter, r *http.Request) {
	filingID := chi.URLParam(r, "filingID")
	templateID := filing.TemplateID(chi.URLParam(r, "templateID"))

	var req replaceRowsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	count, err := s.service.ReplaceTemplateRows(r.Context(), filingID, templateID, req.Rows)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, map[string]interface{}{
		"templateId": templateID,
		"rowCount":   count,
	})
}

// handleValidateFiling checks the filing parameters against the submission
// rules. The response is always 200: the validation outcome, valid or not,
// is the payload.
func (s *Server) handleValidateFiling(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.ValidateFiling(r.Context(), chi.URLParam(r, "filingID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, result)
}
