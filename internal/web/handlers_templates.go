package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/regline/roi-filing/internal/filing"
)

// handleListTemplates returns the fixed template registry in filing order.
func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	templates := s.service.ListTemplates()

	out := make([]templateResponse, len(templates))
	for i, t := range templates {
		out[i] = toTemplateResponse(t)
	}
	writeJSON(w, out)
}

// handleGetTemplate returns one template with its ordered column codes.
func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	templateID := filing.TemplateID(chi.URLParam(r, "templateID"))

	t, ok := filing.TemplateByID(templateID)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown template: "+string(templateID))
		return
	}
	writeJSON(w, toTemplateResponse(t))
}

// templateResponse is the JSON shape for a registry template.
type templateResponse struct {
	ID       filing.TemplateID `json:"id"`
	Label    string            `json:"label"`
	FileName string            `json:"fileName"`
	Columns  []string          `json:"columns"`
}

func toTemplateResponse(t filing.Template) templateResponse {
	return templateResponse{
		ID:       t.ID,
		Label:    t.Label,
		FileName: t.ID.FileName(),
		Columns:  t.Columns,
	}
}
