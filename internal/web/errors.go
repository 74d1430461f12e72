package web

// errors.go provides unified error response handling for the API.
//
// The error flow:
//  1. Handler encounters an error
//  2. Calls respondError(w, r, err)
//  3. Error is mapped via core.MapError to get a user-facing message and
//     support code, and an HTTP status derived from the code group
//  4. Technical error is logged with the request ID for correlation

import (
	"encoding/json"
	"log/slog"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/regline/roi-filing/internal/core"
)

// ErrorResponse is the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action)
// fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs the technical error server-side and returns the mapped
// user message as JSON.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	userMsg := core.MapError(err)
	status := statusForCode(userMsg.Code)

	slog.Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", userMsg.Code,
		"request_id", chimw.GetReqID(r.Context()),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   userMsg.Message,
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
	})
}

// statusForCode maps a support code to an HTTP status.
func statusForCode(code string) int {
	switch code {
	case "FIL001", "EXP003":
		return http.StatusNotFound
	case "VAL001", "VAL002", "VAL003", "FIL002":
		return http.StatusBadRequest
	case "EXP001", "EXP004":
		return http.StatusConflict
	case "EXP002", "RATE001":
		return http.StatusTooManyRequests
	case "DB003", "EXP005":
		return http.StatusGatewayTimeout
	case "DB001", "DB002":
		return http.StatusServiceUnavailable
	case "DB004":
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
