package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	apperrors "github.com/orgball2608/snappy-sync/pkg/errors"
)

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// WriteError maps err to a status code. Messages of untyped errors are not exposed.
func WriteError(w http.ResponseWriter, err error) {
	status, code := http.StatusInternalServerError, "internal_error"

	switch {
	case apperrors.IsValidation(err):
		status, code = http.StatusBadRequest, apperrors.CodeValidation
	case apperrors.IsNotFound(err):
		status, code = http.StatusNotFound, apperrors.CodeNotFound
	case apperrors.IsUnauthorized(err):
		status, code = http.StatusUnauthorized, apperrors.CodeUnauthenticated
	case apperrors.IsForbidden(err):
		status, code = http.StatusForbidden, apperrors.CodeForbidden
	case apperrors.IsRateLimited(err):
		status, code = http.StatusTooManyRequests, apperrors.CodeRateLimited
	case apperrors.GetCode(err) == apperrors.CodeTransport:
		status, code = http.StatusBadGateway, apperrors.CodeTransport
	case errors.Is(err, apperrors.ErrServiceUnavailable):
		status, code = http.StatusServiceUnavailable, "service_unavailable"
	}

	var typed *apperrors.Error
	if status == http.StatusInternalServerError && !errors.As(err, &typed) {
		WriteJSON(w, status, ErrorResponse{Error: code, Message: "An internal error occurred"})
		return
	}

	WriteJSON(w, status, ErrorResponse{
		Error:   code,
		Message: apperrors.GetMessage(err),
		Field:   apperrors.GetField(err),
	})
}
