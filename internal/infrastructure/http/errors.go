package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ErrorResponse is the standardized error payload of every endpoint.
type ErrorResponse struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors"`
}

// WriteError writes a standardized JSON error response.
func WriteError(w http.ResponseWriter, statusCode int, message string, errors []string, log *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(ErrorResponse{Message: message, Errors: errors}); err != nil {
		// Status is already committed; only log the encoding failure.
		if log != nil {
			log.Error("failed to encode error response", "error", err)
		}
	}
}
