package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

const (
	msgModulesUnavailable = "Required modules not available"
	msgNotFound           = "Endpoint not found"
	msgInternal           = "Internal server error"
	msgNotConfigured      = "Inference service not configured"
)

type errorResponse struct {
	Error   string `json:"error"`
	Success *bool  `json:"success,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Default().Error("Failed to encode response", slog.String("error", err.Error()))
	}
}

// httpError sends {"error": msg}. withSuccess adds "success": false.
func httpError(w http.ResponseWriter, status int, msg string, withSuccess bool) {
	resp := errorResponse{Error: msg}
	if withSuccess {
		f := false
		resp.Success = &f
	}
	respondJSON(w, status, resp)
}

// NotFound answers unknown routes and methods.
func NotFound(w http.ResponseWriter, r *http.Request) {
	httpError(w, http.StatusNotFound, msgNotFound, false)
}

// InternalError is the body written when a handler panics.
func InternalError(w http.ResponseWriter) {
	f := false
	if err := json.NewEncoder(w).Encode(errorResponse{Error: msgInternal, Success: &f}); err != nil {
		slog.Default().Error("Failed to encode response", slog.String("error", err.Error()))
	}
}
