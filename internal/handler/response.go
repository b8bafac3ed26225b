package handler

// RESPONSE HELPERS:
// Every handler answers through writeJSON / writeError so the API has one
// content type and one error shape:
//
//	{"error": "not_found", "message": "recipe not found with id 12"}
//	{"error": "validation_error", "message": "title is required", "field": "title"}

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/recipe-api/internal/apperror"
)

// maxJSONBody caps request bodies for JSON endpoints.
const maxJSONBody = 1 << 20

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`           // machine-readable kind, e.g. "not_found"
	Message string `json:"message"`         // human-readable description
	Field   string `json:"field,omitempty"` // request field at fault, if any
}

// writeJSON sends data as JSON with the given status code. Headers must be
// set before WriteHeader; the body goes last.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to an HTTP status and sends it.
//
// errors.Is walks the whole wrap chain, so a service error like
// fmt.Errorf("creating recipe: %w", apperror.ValidationFailed(...)) still
// maps to 400. Anything that is not an *apperror.AppError is a 500 with a
// generic message; the raw error may contain SQL or file paths.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		slog.Error("unhandled error", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
		return
	}

	status := http.StatusInternalServerError
	errorType := "internal_error"

	switch {
	case errors.Is(err, apperror.ErrValidation):
		status = http.StatusBadRequest
		errorType = "validation_error"
	case errors.Is(err, apperror.ErrUnauthorized):
		status = http.StatusUnauthorized
		errorType = "unauthorized"
	case errors.Is(err, apperror.ErrForbidden):
		status = http.StatusForbidden
		errorType = "forbidden"
	case errors.Is(err, apperror.ErrNotFound):
		status = http.StatusNotFound
		errorType = "not_found"
	case errors.Is(err, apperror.ErrConflict):
		status = http.StatusConflict
		errorType = "conflict"
	case errors.Is(err, apperror.ErrTooLarge):
		status = http.StatusRequestEntityTooLarge
		errorType = "too_large"
	}

	writeJSON(w, status, ErrorResponse{
		Error:   errorType,
		Message: appErr.Message,
		Field:   appErr.Field,
	})
}

// decodeJSON reads the request body into dst. A malformed body is reported
// as a validation error.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &typeErr):
			return apperror.ValidationFailed(typeErr.Field,
				fmt.Sprintf("invalid value for %q", typeErr.Field))
		case errors.As(err, &maxErr):
			return apperror.TooLarge("", "request body too large")
		case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
			return apperror.ValidationFailed("", "request body must be valid JSON")
		default:
			return apperror.ValidationFailed("", "invalid request body: "+err.Error())
		}
	}
	return nil
}

// pathID parses the {id} URL parameter. Ids that cannot exist are reported
// as not found, the same as a missing record.
func pathID(r *http.Request, resource string) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.NotFound(resource, raw)
	}
	return id, nil
}

// queryIDs parses a comma-separated id list such as "?tags=1,2".
func queryIDs(r *http.Request, key string) ([]int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}

	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, apperror.ValidationFailed(key,
				fmt.Sprintf("%s must be a comma-separated list of ids", key))
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// queryFlag parses an integer flag such as "?assigned_only=1"; any non-zero
// value is true.
func queryFlag(r *http.Request, key string) (bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return false, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return false, apperror.ValidationFailed(key, fmt.Sprintf("%s must be 0 or 1", key))
	}
	return n != 0, nil
}
