// Package handler contains the HTTP layer. Handlers parse requests, call
// into the service layer and translate domain errors to status codes.
// Every response carries a "success" field so clients can branch without
// inspecting the status code.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aaditya248659/Code-Snippet-Library/internal/apperror"
	"github.com/aaditya248659/Code-Snippet-Library/internal/executor"
)

// envelope is the shape of every success body: handlers build it with
// success=true plus the payload keys the endpoint documents.
type envelope map[string]any

// errorResponse is the uniform error body.
type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already gone; nothing useful left to send.
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

func writeOK(w http.ResponseWriter, status int, body envelope) {
	body["success"] = true
	writeJSON(w, status, body)
}

// writeError maps a domain error to a status code and a stable error type
// string. Unknown errors become a generic 500 so internals never leak.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	resp := errorResponse{Message: err.Error()}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		resp.Message = appErr.Message
		resp.Field = appErr.Field
	}

	var status int
	switch {
	case errors.Is(err, apperror.ErrValidation):
		status, resp.Error = http.StatusBadRequest, "validation_error"
	case errors.Is(err, apperror.ErrNotFound):
		status, resp.Error = http.StatusNotFound, "not_found"
	case errors.Is(err, apperror.ErrUnauthorized):
		status, resp.Error = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, apperror.ErrForbidden):
		status, resp.Error = http.StatusForbidden, "forbidden"
	case errors.Is(err, apperror.ErrConflict):
		status, resp.Error = http.StatusConflict, "conflict"
	case errors.Is(err, apperror.ErrUnsupportedLanguage),
		errors.Is(err, executor.ErrUnsupportedLanguage):
		status, resp.Error = http.StatusBadRequest, "unsupported_language"
	case errors.Is(err, executor.ErrServiceUnavailable):
		status, resp.Error = http.StatusServiceUnavailable, "service_unavailable"
		resp.Message = "code execution service is unavailable, try again later"
	case errors.Is(err, apperror.ErrExecution):
		status, resp.Error = http.StatusInternalServerError, "execution_error"
	default:
		logger.Error("unhandled error", slog.String("error", err.Error()))
		status, resp.Error = http.StatusInternalServerError, "internal_error"
		resp.Message = "an internal error occurred"
	}

	writeJSON(w, status, resp)
}

// decodeJSON decodes a request body into dst, rejecting unknown fields so a
// typo in a client payload fails loudly instead of silently doing nothing.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperror.ValidationFailed("body", "invalid JSON request body")
	}
	return nil
}
