package web

import (
	"encoding/json"
	"net/http"

	"github.com/regline/roi-filing/internal/coverage"
)

// coverageRequest carries the SOC 2 controls to score against the DORA
// article mapping.
type coverageRequest struct {
	Controls []coverage.Control `json:"controls"`
}

// coverageResponse pairs the weighted score with the remediation gap list.
type coverageResponse struct {
	Result coverage.Result `json:"result"`
	Gaps   []coverage.Gap  `json:"gaps"`
}

// handleCoverage scores a SOC 2 control set against the DORA articles and
// returns the weighted coverage plus the gaps to remediate.
func (s *Server) handleCoverage(w http.ResponseWriter, r *http.Request) {
	var req coverageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, gaps := coverage.Assess(req.Controls)
	writeJSON(w, coverageResponse{Result: result, Gaps: gaps})
}
