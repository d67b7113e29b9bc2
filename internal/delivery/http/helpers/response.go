package helpers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"eventcalendar/internal/domain"
)

// Error codes for API error responses. Use these with WriteJSONError.
const (
	ErrCodeBadRequest    = "bad_request"
	ErrCodeUnauthorized  = "unauthorized"
	ErrCodeNotFound      = "not_found"
	ErrCodeAccessDenied  = "access_denied"
	ErrCodeForbidden     = "forbidden"
	ErrCodeConflict      = "conflict"
	ErrCodeInvalidState  = "invalid_state"
	ErrCodeInternalError = "internal_error"
)

// APIError is the error object in the standardized API response envelope.
// swagger:model APIError
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIResponse is the standardized envelope for all API responses.
// On success: Data is set, Error is nil. On error: Data is nil, Error is set.
// swagger:model APIResponse
type APIResponse struct {
	Data  any       `json:"data"`
	Error *APIError `json:"error"`
}

// WriteJSONSuccess sets Content-Type to application/json, writes statusCode, and
// encodes an APIResponse with the given data and error set to nil.
func WriteJSONSuccess(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(APIResponse{Data: data, Error: nil})
}

// WriteJSONError sets Content-Type to application/json, writes statusCode, and
// encodes an APIResponse with data nil and the given error code and message.
func WriteJSONError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(APIResponse{
		Data:  nil,
		Error: &APIError{Code: code, Message: message},
	})
}

// WriteServiceError maps a service error to its status and error code. Unclassified
// errors are logged and answered with a generic internal_error.
func WriteServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var status int
	var code string
	switch domain.KindOf(err) {
	case domain.ErrNotFound:
		status, code = http.StatusNotFound, ErrCodeNotFound
	case domain.ErrAccessDenied:
		status, code = http.StatusForbidden, ErrCodeAccessDenied
	case domain.ErrForbidden:
		status, code = http.StatusForbidden, ErrCodeForbidden
	case domain.ErrConflict:
		status, code = http.StatusConflict, ErrCodeConflict
	case domain.ErrInvalidInput:
		status, code = http.StatusBadRequest, ErrCodeBadRequest
	case domain.ErrInvalidCredentials:
		status, code = http.StatusUnauthorized, ErrCodeUnauthorized
	case domain.ErrInvalidState:
		logger.ErrorContext(r.Context(), "invalid state", "path", r.URL.Path, "method", r.Method, "err", err)
		status, code = http.StatusInternalServerError, ErrCodeInvalidState
	default:
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		WriteJSONError(w, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
		return
	}
	WriteJSONError(w, status, code, clientMessage(err))
}

// clientMessage returns the message of the classified error inside err, without
// the context its callers wrapped around it.
func clientMessage(err error) string {
	var de *domain.Error
	if errors.As(err, &de) {
		return de.Error()
	}
	return domain.KindOf(err).Error()
}
