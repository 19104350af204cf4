package httpapi

import (
	"encoding/json"
	"net/http"

	"modelscan/internal/manager"
	"modelscan/internal/workflow"
	"modelscan/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// writeJSON writes a JSON payload with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, types.ErrorResponse{Error: msg, Code: status})
}

// writeServiceError maps well-known service errors to HTTP status codes.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case manager.IsModelNotFound(err), manager.IsWorkflowNotFound(err):
		status = http.StatusNotFound
	case manager.IsScanBusy(err):
		status = http.StatusConflict
	case workflow.IsGraphError(err):
		status = http.StatusUnprocessableEntity
	default:
		if he, ok := err.(HTTPError); ok {
			status = he.StatusCode()
		}
	}
	if zlog != nil && requestLogLevel(r) >= LevelError {
		zlog.Error().Int("status", status).Str("path", r.URL.Path).Err(err).Msg("request failed")
	}
	writeJSONError(w, status, err.Error())
}
