package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"greekledger/internal/billing"
	"greekledger/internal/core"
	"greekledger/internal/log"
)

const internalErrorMessage = "Internal server error"

var validationPrefix = core.ErrValidation.Error() + ": "

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse is the body of delete and send confirmations.
type MessageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageResponse{Message: msg})
}

// writeError maps domain errors to a status and a client-safe message.
// Unexpected errors are logged and hidden behind a static message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldError, err.Error())
		writeJSON(w, status, ErrorResponse{Error: internalErrorMessage})
		return
	}
	writeJSON(w, status, ErrorResponse{Error: ClientMessage(err)})
}

// StatusFor returns the HTTP status for err.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrValidation),
		errors.Is(err, core.ErrInvalidTransition),
		errors.Is(err, core.ErrNotConfigured),
		errors.Is(err, core.ErrNoOutstandingBalance),
		errors.Is(err, billing.ErrInvalidSignature):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// ClientMessage strips wrapping context from a 4xx error so only the
// user-facing reason remains.
func ClientMessage(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, validationPrefix); i >= 0 {
		return msg[i+len(validationPrefix):]
	}
	if errors.Is(err, billing.ErrDisabled) {
		return billing.ErrDisabled.Error()
	}
	return msg
}
