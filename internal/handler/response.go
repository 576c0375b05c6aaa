// Package handler contains the HTTP layer: request parsing, DTO validation,
// and response writing. No business rules live here — handlers delegate to
// the service layer and translate its domain errors into HTTP.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/blog-api/internal/apperror"
)

// validate is shared by every handler. A validator.Validate instance caches
// struct metadata, so one instance for the package is both the cheap and
// the intended usage.
var validate = validator.New()

// ErrorResponse is the standard error shape returned by all endpoints:
//
//	{"error": "not_found", "message": "post not found with id abc123"}
//
// One shape for every status code means clients parse failures uniformly.
type ErrorResponse struct {
	Error   string `json:"error"`   // machine-readable category
	Message string `json:"message"` // human-readable description
}

// writeJSON sends a JSON response with the given status code.
//
// Headers and status MUST be set before the first body write — once Encode
// starts writing, header changes are silently ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to its HTTP status and sends it.
//
// This is the single translation point between the apperror taxonomy and
// HTTP. Services return sentinels; this switch decides the wire format.
// Anything unrecognised becomes a generic 500 — raw error text can contain
// SQL fragments or file paths and must never reach a client.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			errorType = "validation_error"
		case errors.Is(err, apperror.ErrAuthRequired):
			status = http.StatusUnauthorized
			errorType = "auth_required"
		case errors.Is(err, apperror.ErrAuthRejected):
			status = http.StatusForbidden
			errorType = "auth_rejected"
		case errors.Is(err, apperror.ErrForbidden):
			status = http.StatusForbidden
			errorType = "forbidden"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			errorType = "not_found"
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
			errorType = "conflict"
		}

		writeJSON(w, status, ErrorResponse{
			Error:   errorType,
			Message: appErr.Message,
		})
		return
	}

	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "an internal error occurred",
	})
}

// decodeBody decodes the JSON request body into dst and runs struct-tag
// validation on it. Handlers get back false after the error response has
// already been written, so the call site is one line:
//
//	var req createPostRequest
//	if !decodeBody(w, r, &req) {
//	    return
//	}
//
// The validator covers request SHAPE (required fields, formats, bounds).
// Business rules — ownership, lifecycle, uniqueness — stay in the services.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return false
	}

	if err := validate.Struct(dst); err != nil {
		message := "invalid request body"
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			message = "invalid field: " + verrs[0].Field()
		}
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: message,
		})
		return false
	}

	return true
}
