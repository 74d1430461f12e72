package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// handleStartExport begins an asynchronous package export for a filing.
func (s *Server) handleStartExport(w http.ResponseWriter, r *http.Request) {
	exportID, err := s.service.StartExport(r.Context(), chi.URLParam(r, "filingID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	writeJSON(w, map[string]string{"export_id": exportID})
}

// handleExportProgress streams export progress via Server-Sent Events.
// Supports resumption via lastEventId query parameter for reconnection.
func (s *Server) handleExportProgress(w http.ResponseWriter, r *http.Request) {
	exportID := chi.URLParam(r, "exportID")

	// The event ID is the progress percentage, so a reconnecting client can
	// skip events it already received
	lastEventIDStr := r.URL.Query().Get("lastEventId")
	if lastEventIDStr == "" {
		lastEventIDStr = r.Header.Get("Last-Event-ID")
	}
	var lastEventID int
	if lastEventIDStr != "" {
		lastEventID, _ = strconv.Atoi(lastEventIDStr)
	}

	progressCh, err := s.service.SubscribeProgress(exportID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	for {
		select {
		case progress, ok := <-progressCh:
			if !ok {
				// Channel closed: export finished one way or another
				fmt.Fprintf(w, "event: complete\ndata: {}\n\n")
				flusher.Flush()
				return
			}

			currentPercent := progress.Percent()

			// Skip events the client already saw before reconnecting
			if lastEventIDStr != "" && currentPercent <= lastEventID {
				continue
			}

			data, _ := json.Marshal(progress)
			fmt.Fprintf(w, "id: %d\nevent: progress\ndata: %s\n\n", currentPercent, data)
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

// handleExportResult returns the final result of an export.
// Blocks until the export completes if still in progress.
func (s *Server) handleExportResult(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.GetExportResult(chi.URLParam(r, "exportID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// handleDownloadPackage serves the built zip archive under its canonical
// package name. Blocks until the export completes if still in progress.
func (s *Server) handleDownloadPackage(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.GetExportResult(chi.URLParam(r, "exportID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if !result.Result.Success {
		writeError(w, http.StatusConflict, "export did not produce a package")
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Length", strconv.Itoa(len(result.Result.Archive)))
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, result.Result.PackageName))
	w.Write(result.Result.Archive)
}

// handleCancelExport cancels an in-progress export.
func (s *Server) handleCancelExport(w http.ResponseWriter, r *http.Request) {
	if err := s.service.CancelExport(chi.URLParam(r, "exportID")); err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, map[string]string{"status": "cancelled"})
}

// handleExportHistory returns a filing's export audit trail.
func (s *Server) handleExportHistory(w http.ResponseWriter, r *http.Request) {
	records, err := s.service.ListExports(r.Context(), chi.URLParam(r, "filingID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, records)
}

// handleExportQueueStatus returns the current state of the export limiter.
// Used for monitoring and to check if the system can accept more exports.
func (s *Server) handleExportQueueStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.service.Limiter().Status())
}
