// Package response writes the JSON wire shapes defined in spec.md §6:
// every success body is the DTO itself (no envelope), and every error
// body is the flat { error_message } shape.
package response

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ErrorBody is the wire shape for every non-2xx response (spec.md §6's
// Error DTO).
type ErrorBody struct {
	ErrorMessage string `json:"error_message"`
}

// WriteJSON writes data as the response body with the given status. data
// is written as-is — callers pass the DTO itself, never wrapped in an
// envelope.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("response: failed to encode body", "error", err.Error())
	}
}

// WriteNoContent writes a 204 with no body, for create/replace per
// spec.md §6's HTTP status mapping.
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// WriteError writes { error_message } with the given status.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorBody{ErrorMessage: message})
}

// WriteUnauthorized writes a 401 with a message identifying the token
// error subclass (spec.md §4.5 / §7).
func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, message)
}

// WriteNotFound writes a 404, used for both "resource missing" and "not
// owned by this caller" per spec.md §4.7's no-enumeration-oracle rule.
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message)
}

// WriteConflict writes a 409, for ProjectAlreadyExists/HandlerAlreadyExists
// per SPEC_FULL.md §7's resolution of that Open Question.
func WriteConflict(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusConflict, message)
}

// WriteBadGateway writes a 502, for ExternalAuthFailed per SPEC_FULL.md
// §7's resolution of that Open Question.
func WriteBadGateway(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadGateway, message)
}

// WriteInternalError logs err with op for correlation and writes a
// generic 500 body — err's text never reaches the client.
func WriteInternalError(w http.ResponseWriter, logger *slog.Logger, op string, err error) {
	if logger != nil {
		logger.Error("internal error", "op", op, "error", err.Error())
	}
	WriteError(w, http.StatusInternalServerError, "internal error")
}
