// Package response writes JSON bodies and RFC 7807 problem details.
package response

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/formbricks/storefront/internal/apperrors"
)

// ErrorDetail represents a single error detail in RFC 7807 Problem Details
type ErrorDetail struct {
	Location string `json:"location,omitempty"`
	Message  string `json:"message,omitempty"`
	Value    any    `json:"value,omitempty"`
}

// ProblemDetails represents an RFC 7807 Problem Details error response
type ProblemDetails struct {
	Type     string        `json:"type,omitempty"`
	Title    string        `json:"title"`
	Status   int           `json:"status"`
	Detail   string        `json:"detail,omitempty"`
	Instance string        `json:"instance,omitempty"`
	Errors   []ErrorDetail `json:"errors,omitempty"`
}

// RespondError writes an RFC 7807 Problem Details error response
func RespondError(w http.ResponseWriter, statusCode int, title string, detail string) {
	RespondProblem(w, ProblemDetails{
		Type:   "about:blank",
		Title:  title,
		Status: statusCode,
		Detail: detail,
	})
}

// RespondProblem writes problem as application/problem+json.
func RespondProblem(w http.ResponseWriter, problem ProblemDetails) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(problem.Status)

	if err := json.NewEncoder(w).Encode(problem); err != nil {
		slog.Error("Failed to encode error response", "error", err)
	}
}

// RespondBadRequest writes a 400 Bad Request error response
func RespondBadRequest(w http.ResponseWriter, detail string) {
	RespondError(w, http.StatusBadRequest, "Bad Request", detail)
}

// RespondUnauthorized writes a 401 Unauthorized error response
func RespondUnauthorized(w http.ResponseWriter, detail string) {
	RespondError(w, http.StatusUnauthorized, "Unauthorized", detail)
}

// RespondForbidden writes a 403 Forbidden error response
func RespondForbidden(w http.ResponseWriter, detail string) {
	RespondError(w, http.StatusForbidden, "Forbidden", detail)
}

// RespondNotFound writes a 404 Not Found error response
func RespondNotFound(w http.ResponseWriter, detail string) {
	RespondError(w, http.StatusNotFound, "Not Found", detail)
}

// RespondConflict writes a 409 Conflict error response
func RespondConflict(w http.ResponseWriter, detail string) {
	RespondError(w, http.StatusConflict, "Conflict", detail)
}

// RespondTooManyRequests writes a 429 Too Many Requests error response
func RespondTooManyRequests(w http.ResponseWriter, detail string) {
	RespondError(w, http.StatusTooManyRequests, "Too Many Requests", detail)
}

// RespondInternalServerError writes a 500 Internal Server Error response
func RespondInternalServerError(w http.ResponseWriter, detail string) {
	RespondError(w, http.StatusInternalServerError, "Internal Server Error", detail)
}

// RespondAppError maps the apperrors kinds to their status codes. Anything
// else is logged and answered with 500 and fallback as detail.
func RespondAppError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		RespondBadRequest(w, errorMessage(err))
	case errors.Is(err, apperrors.ErrNotFound):
		RespondNotFound(w, errorMessage(err))
	case errors.Is(err, apperrors.ErrConflict):
		RespondConflict(w, errorMessage(err))
	case errors.Is(err, apperrors.ErrForbidden):
		RespondForbidden(w, errorMessage(err))
	case errors.Is(err, apperrors.ErrLimitExceeded):
		RespondBadRequest(w, errorMessage(err))
	default:
		slog.ErrorContext(r.Context(), fallback, "method", r.Method, "path", r.URL.Path, "error", err)
		RespondInternalServerError(w, fallback)
	}
}

// errorMessage returns the message of the innermost apperrors value in err's chain.
func errorMessage(err error) string {
	var (
		notFound   *apperrors.NotFoundError
		validation *apperrors.ValidationError
		conflict   *apperrors.ConflictError
		forbidden  *apperrors.ForbiddenError
		limit      *apperrors.LimitExceededError
	)

	switch {
	case errors.As(err, &notFound):
		return notFound.Error()
	case errors.As(err, &validation):
		return validation.Error()
	case errors.As(err, &conflict):
		return conflict.Error()
	case errors.As(err, &forbidden):
		return forbidden.Error()
	case errors.As(err, &limit):
		return limit.Error()
	default:
		return err.Error()
	}
}

// RespondJSON writes a JSON response directly without wrapping
func RespondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}
